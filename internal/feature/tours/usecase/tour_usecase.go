// Package usecase はツアーの操作と集計のビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"math"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/gosimple/slug"

	"natours/internal/domain/entity"
	"natours/internal/platform/apifeatures"
	"natours/internal/platform/apperr"
	"natours/internal/platform/crud"
)

// statsMinRating is the rating a tour needs to be counted in the stats.
const statsMinRating = 4.5

// maxMonthlyPlans bounds the monthly plan to one entry per month.
const maxMonthlyPlans = 12

// TourRepository はツアーの永続化層を抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type TourRepository interface {
	List(ctx context.Context, d apifeatures.Directives, filters ...crud.Filter) ([]entity.Tour, error)
	// Get はガイドとレビューを読み込んだツアーを返します。
	Get(ctx context.Context, id uint) (*entity.Tour, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Tour, error)
	Create(ctx context.Context, tour *entity.Tour) error
	Update(ctx context.Context, id uint, fields map[string]any) (*entity.Tour, error)
	Delete(ctx context.Context, id uint) error
	// SetGuides はツアーのガイドを置き換えます。
	SetGuides(ctx context.Context, tourID uint, guideIDs []uint) error
	Stats(ctx context.Context, minRating float64) ([]entity.TourStat, error)
	// Schedules はID・名前・開始日だけを読み込んだ全ツアーを返します。
	Schedules(ctx context.Context) ([]entity.Tour, error)
	// StartLocations は距離検索の対象となる全ツアーを返します。
	StartLocations(ctx context.Context) ([]entity.Tour, error)
	UpdateRatings(ctx context.Context, tourID uint, quantity int, average float64) error
}

// TourInput はツアー作成・更新の入力です。更新ではnilの項目は変更しません。
type TourInput struct {
	Name            *string
	Duration        *int
	MaxGroupSize    *int
	Difficulty      *string
	RatingsAverage  *float64
	RatingsQuantity *int
	Price           *float64
	PriceDiscount   *float64
	Summary         *string
	Description     *string
	ImageCover      *string
	Images          []string
	StartDates      []time.Time
	SecretTour      *bool
	StartLocation   *entity.Location
	Locations       []entity.Location
	Guides          []uint
}

type tourUsecase struct {
	tours TourRepository
}

// NewTourUsecase はtourUsecaseの新しいインスタンスを生成します。
func NewTourUsecase(tours TourRepository) *tourUsecase {
	return &tourUsecase{tours: tours}
}

// TopCheapQuery は評価が高く安いツアー5件のクエリです。
func TopCheapQuery() url.Values {
	return url.Values{
		"limit":  {"5"},
		"sort":   {"-ratingsAverage,price"},
		"fields": {"name,price,ratingsAverage,summary,difficulty"},
	}
}

// List はクエリ指定に従ってツアーを一覧します。
func (u *tourUsecase) List(ctx context.Context, d apifeatures.Directives, filters ...crud.Filter) ([]entity.Tour, error) {
	return u.tours.List(ctx, d, filters...)
}

// Get はIDでツアーを取得します。
func (u *tourUsecase) Get(ctx context.Context, id uint) (*entity.Tour, error) {
	return u.tours.Get(ctx, id)
}

// GetBySlug はスラッグでツアーを取得します。
func (u *tourUsecase) GetBySlug(ctx context.Context, s string) (*entity.Tour, error) {
	t, err := u.tours.GetBySlug(ctx, s)
	if err != nil && errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Wrap(apperr.ErrNotFound, MsgNoTourWithName, err)
	}
	return t, err
}

// Create はツアーを作成し、スラッグを名前から生成します。
func (u *tourUsecase) Create(ctx context.Context, in TourInput) (*entity.Tour, error) {
	tour := &entity.Tour{
		Images:     in.Images,
		StartDates: in.StartDates,
		Locations:  in.Locations,
	}
	fields, err := u.fields(ctx, 0, in)
	if err != nil {
		return nil, err
	}
	applyFields(tour, in)
	if s, ok := fields["slug"].(string); ok {
		tour.Slug = s
	}

	if err := u.tours.Create(ctx, tour); err != nil {
		return nil, err
	}
	if len(in.Guides) > 0 {
		if err := u.tours.SetGuides(ctx, tour.ID, in.Guides); err != nil {
			_ = u.tours.Delete(ctx, tour.ID)
			return nil, err
		}
	}
	if tour.SecretTour {
		// 秘密ツアーは検索に現れないため作成した値を返す
		return tour, nil
	}
	return u.tours.Get(ctx, tour.ID)
}

// Update は指定された項目だけを更新します。名前が変わるとスラッグも変わります。
func (u *tourUsecase) Update(ctx context.Context, id uint, in TourInput) (*entity.Tour, error) {
	fields, err := u.fields(ctx, id, in)
	if err != nil {
		return nil, err
	}
	if in.Guides != nil {
		if err := u.tours.SetGuides(ctx, id, in.Guides); err != nil {
			return nil, err
		}
	}
	if len(fields) == 0 {
		return u.tours.Get(ctx, id)
	}
	return u.tours.Update(ctx, id, fields)
}

// Delete はツアーを削除します。
func (u *tourUsecase) Delete(ctx context.Context, id uint) error {
	return u.tours.Delete(ctx, id)
}

// fields は入力を列と値の対応に変換し、割引価格を検証します。
// idが0のときは作成として扱います。
func (u *tourUsecase) fields(ctx context.Context, id uint, in TourInput) (map[string]any, error) {
	f := map[string]any{}
	if in.Name != nil {
		f["name"] = *in.Name
		f["slug"] = slug.Make(*in.Name)
	}
	set := func(col string, v any, ok bool) {
		if ok {
			f[col] = v
		}
	}
	set("duration", deref(in.Duration), in.Duration != nil)
	set("max_group_size", deref(in.MaxGroupSize), in.MaxGroupSize != nil)
	set("difficulty", deref(in.Difficulty), in.Difficulty != nil)
	set("ratings_average", deref(in.RatingsAverage), in.RatingsAverage != nil)
	set("ratings_quantity", deref(in.RatingsQuantity), in.RatingsQuantity != nil)
	set("price", deref(in.Price), in.Price != nil)
	set("price_discount", deref(in.PriceDiscount), in.PriceDiscount != nil)
	set("summary", deref(in.Summary), in.Summary != nil)
	set("description", deref(in.Description), in.Description != nil)
	set("image_cover", deref(in.ImageCover), in.ImageCover != nil)
	set("secret_tour", deref(in.SecretTour), in.SecretTour != nil)
	set("images", in.Images, in.Images != nil)
	set("start_dates", in.StartDates, in.StartDates != nil)
	set("locations", in.Locations, in.Locations != nil)
	if in.StartLocation != nil {
		f["start_location"] = *in.StartLocation
	}

	if in.PriceDiscount != nil {
		price := deref(in.Price)
		if in.Price == nil && id != 0 {
			current, err := u.tours.Get(ctx, id)
			if err != nil {
				return nil, err
			}
			price = current.Price
		}
		if *in.PriceDiscount >= price {
			return nil, apperr.New(apperr.ErrValidation, MsgDiscountTooHigh)
		}
	}
	return f, nil
}

func applyFields(t *entity.Tour, in TourInput) {
	if in.Name != nil {
		t.Name = *in.Name
	}
	t.Duration = deref(in.Duration)
	t.MaxGroupSize = deref(in.MaxGroupSize)
	t.Difficulty = deref(in.Difficulty)
	t.RatingsAverage = deref(in.RatingsAverage)
	t.RatingsQuantity = deref(in.RatingsQuantity)
	t.Price = deref(in.Price)
	t.PriceDiscount = deref(in.PriceDiscount)
	t.Summary = deref(in.Summary)
	t.Description = deref(in.Description)
	t.ImageCover = deref(in.ImageCover)
	t.SecretTour = deref(in.SecretTour)
	if in.StartLocation != nil {
		t.StartLocation = *in.StartLocation
	}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// Stats は評価4.5以上のツアーを難易度ごとに集計し、平均価格順に返します。
func (u *tourUsecase) Stats(ctx context.Context) ([]entity.TourStat, error) {
	stats, err := u.tours.Stats(ctx, statsMinRating)
	if err != nil {
		return nil, err
	}
	for i := range stats {
		stats[i].AvgRating = round(stats[i].AvgRating, 2)
		stats[i].AvgPrice = round(stats[i].AvgPrice, 2)
	}
	return stats, nil
}

// MonthlyPlan は指定年の月ごとの開始ツアー数とツアー名を、開始数の多い順に返します。
func (u *tourUsecase) MonthlyPlan(ctx context.Context, rawYear string) ([]entity.MonthlyPlan, error) {
	year, err := strconv.Atoi(rawYear)
	if err != nil || year < 1970 || year > 9999 {
		return nil, apperr.New(apperr.ErrBadRequest, MsgInvalidYear)
	}

	tours, err := u.tours.Schedules(ctx)
	if err != nil {
		return nil, err
	}

	byMonth := map[int]*entity.MonthlyPlan{}
	for _, t := range tours {
		for _, d := range t.StartDates {
			d = d.UTC()
			if d.Year() != year {
				continue
			}
			m := int(d.Month())
			p, ok := byMonth[m]
			if !ok {
				p = &entity.MonthlyPlan{Month: m, Tours: []string{}}
				byMonth[m] = p
			}
			p.NumTourStarts++
			p.Tours = append(p.Tours, t.Name)
		}
	}

	plans := make([]entity.MonthlyPlan, 0, len(byMonth))
	for _, p := range byMonth {
		plans = append(plans, *p)
	}
	sort.Slice(plans, func(i, j int) bool {
		if plans[i].NumTourStarts != plans[j].NumTourStarts {
			return plans[i].NumTourStarts > plans[j].NumTourStarts
		}
		return plans[i].Month < plans[j].Month
	})
	if len(plans) > maxMonthlyPlans {
		plans = plans[:maxMonthlyPlans]
	}
	return plans, nil
}

// Within は中心点から指定距離以内に出発地があるツアーを返します。
func (u *tourUsecase) Within(ctx context.Context, rawDistance, latlng, unit string) ([]entity.Tour, error) {
	distance, err := strconv.ParseFloat(rawDistance, 64)
	if err != nil || distance <= 0 || math.IsInf(distance, 0) {
		return nil, apperr.New(apperr.ErrBadRequest, MsgInvalidDistance)
	}
	lat, lng, err := ParseLatLng(latlng)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrBadRequest, MsgLatLngFormat, err)
	}
	radius, ok := earthRadius(unit)
	if !ok {
		return nil, apperr.New(apperr.ErrBadRequest, MsgUnknownUnit)
	}

	tours, err := u.tours.StartLocations(ctx)
	if err != nil {
		return nil, err
	}
	maxAngle := distance / radius
	out := make([]entity.Tour, 0, len(tours))
	for _, t := range tours {
		if angleTo(lat, lng, t) <= maxAngle {
			out = append(out, t)
		}
	}
	return out, nil
}

// Distances は中心点から各ツアーの出発地までの距離を近い順に返します。
func (u *tourUsecase) Distances(ctx context.Context, latlng, unit string) ([]entity.TourDistance, error) {
	lat, lng, err := ParseLatLng(latlng)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrBadRequest, MsgLatLngFormat, err)
	}
	multiplier, ok := metersMultiplier(unit)
	if !ok {
		return nil, apperr.New(apperr.ErrBadRequest, MsgUnknownUnit)
	}

	tours, err := u.tours.StartLocations(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]entity.TourDistance, 0, len(tours))
	for _, t := range tours {
		out = append(out, entity.TourDistance{
			ID:       t.ID,
			Name:     t.Name,
			Distance: angleTo(lat, lng, t) * earthRadiusM * multiplier,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out, nil
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

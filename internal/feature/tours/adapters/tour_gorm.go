// Package adapters はtoursフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"gorm.io/gorm"

	"natours/internal/domain/entity"
	"natours/internal/feature/tours/usecase"
	"natours/internal/platform/apifeatures"
	"natours/internal/platform/apperr"
	"natours/internal/platform/crud"
)

// TourColumns はクエリ文字列で指定できるツアーのフィールドと列の対応です。
var TourColumns = apifeatures.Columns{
	"id":              "id",
	"name":            "name",
	"slug":            "slug",
	"duration":        "duration",
	"maxGroupSize":    "max_group_size",
	"difficulty":      "difficulty",
	"ratingsAverage":  "ratings_average",
	"ratingsQuantity": "ratings_quantity",
	"price":           "price",
	"priceDiscount":   "price_discount",
	"summary":         "summary",
	"description":     "description",
	"imageCover":      "image_cover",
	"images":          "images",
	"startDates":      "start_dates",
	"startLocation":   "start_location",
	"locations":       "locations",
	"revision":        "revision",
}

// jsonColumns are stored with the json serializer and must be encoded for map updates.
var jsonColumns = []string{"images", "start_dates", "start_location", "locations"}

// guideFields are the user fields embedded in a tour.
var guideFields = []string{"id", "name", "email", "photo", "role"}

// visibleOnly hides secret tours from every lookup.
func visibleOnly(tx *gorm.DB) *gorm.DB {
	return tx.Where("secret_tour = ?", false)
}

func activeGuides(tx *gorm.DB) *gorm.DB {
	return tx.Select(guideFields).Where("active = ?", true)
}

func reviewAuthors(tx *gorm.DB) *gorm.DB {
	return tx.Select("id", "name", "photo")
}

// withGuides preloads the guides of listed tours.
func withGuides(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Guides", activeGuides)
}

// tourGorm はTourRepositoryインターフェースのGORM実装です。
type tourGorm struct {
	*crud.Repository[entity.Tour]
	db *gorm.DB
}

// NewTourRepository は指定されたgorm.DB接続でtourGormの新しいインスタンスを生成します。
func NewTourRepository(db *gorm.DB) *tourGorm {
	return &tourGorm{
		Repository: crud.NewRepository[entity.Tour](db, TourColumns,
			crud.WithScope(visibleOnly),
			crud.WithPreload("Guides", activeGuides),
			crud.WithPreload("Reviews"),
			crud.WithPreload("Reviews.User", reviewAuthors),
			crud.WithNotFoundMessage(usecase.MsgTourNotFound),
		),
		db: db,
	}
}

// List はガイドを読み込んだツアーを一覧します。
func (r *tourGorm) List(ctx context.Context, d apifeatures.Directives, filters ...crud.Filter) ([]entity.Tour, error) {
	return r.Repository.List(ctx, d, append(filters, withGuides)...)
}

// GetBySlug はスラッグでツアーを取得します。
func (r *tourGorm) GetBySlug(ctx context.Context, slug string) (*entity.Tour, error) {
	return r.FindOne(ctx, "slug = ?", slug)
}

// Update はJSON列をエンコードしてから更新します。
func (r *tourGorm) Update(ctx context.Context, id uint, fields map[string]any) (*entity.Tour, error) {
	encoded := make(map[string]any, len(fields))
	for k, v := range fields {
		if slices.Contains(jsonColumns, k) {
			b, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", k, err)
			}
			v = string(b)
		}
		encoded[k] = v
	}
	return r.Repository.Update(ctx, id, encoded)
}

// Delete はツアーとガイドの割り当てを削除します。
func (r *tourGorm) Delete(ctx context.Context, id uint) error {
	if err := r.Repository.Delete(ctx, id); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Exec("DELETE FROM tour_guides WHERE tour_id = ?", id).Error
}

// SetGuides はツアーのガイドを置き換えます。存在しないユーザーが含まれる場合は何も変更しません。
func (r *tourGorm) SetGuides(ctx context.Context, tourID uint, guideIDs []uint) error {
	ids := slices.Compact(slices.Sorted(slices.Values(guideIDs)))

	var tours int64
	if err := r.db.WithContext(ctx).Model(&entity.Tour{}).Where("id = ?", tourID).Count(&tours).Error; err != nil {
		return err
	}
	if tours == 0 {
		return apperr.New(apperr.ErrNotFound, usecase.MsgTourNotFound)
	}

	if len(ids) > 0 {
		var users int64
		err := r.db.WithContext(ctx).Model(&entity.User{}).
			Where("id IN ? AND active = ?", ids, true).
			Count(&users).Error
		if err != nil {
			return err
		}
		if int(users) != len(ids) {
			return apperr.New(apperr.ErrValidation, usecase.MsgGuideNotFound)
		}
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM tour_guides WHERE tour_id = ?", tourID).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		rows := make([]map[string]any, 0, len(ids))
		for _, id := range ids {
			rows = append(rows, map[string]any{"tour_id": tourID, "user_id": id})
		}
		return tx.Table("tour_guides").Create(rows).Error
	})
}

// Stats は評価がminRating以上のツアーを難易度ごとに集計します。
func (r *tourGorm) Stats(ctx context.Context, minRating float64) ([]entity.TourStat, error) {
	var stats []entity.TourStat
	err := r.Query(ctx).
		Select(`UPPER(difficulty) AS difficulty,
			COUNT(*) AS num_tours,
			COALESCE(SUM(ratings_quantity), 0) AS num_ratings,
			AVG(ratings_average) AS avg_rating,
			AVG(price) AS avg_price,
			MIN(price) AS min_price,
			MAX(price) AS max_price`).
		Where("ratings_average >= ?", minRating).
		Group("UPPER(difficulty)").
		Order("avg_price").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Schedules はID・名前・開始日だけを読み込んだツアーを返します。
func (r *tourGorm) Schedules(ctx context.Context) ([]entity.Tour, error) {
	var tours []entity.Tour
	if err := r.Query(ctx).Select("id", "name", "start_dates").Find(&tours).Error; err != nil {
		return nil, err
	}
	return tours, nil
}

// StartLocations は距離検索の対象となる全ツアーを返します。
func (r *tourGorm) StartLocations(ctx context.Context) ([]entity.Tour, error) {
	var tours []entity.Tour
	if err := r.Query(ctx).Order("id").Find(&tours).Error; err != nil {
		return nil, err
	}
	return tours, nil
}

// UpdateRatings はレビューから算出した評価を保存します。秘密ツアーも対象です。
func (r *tourGorm) UpdateRatings(ctx context.Context, tourID uint, quantity int, average float64) error {
	return r.db.WithContext(ctx).Model(&entity.Tour{}).
		Where("id = ?", tourID).
		Updates(map[string]any{
			"ratings_quantity": quantity,
			"ratings_average":  average,
			"revision":         gorm.Expr("revision + ?", 1),
		}).Error
}

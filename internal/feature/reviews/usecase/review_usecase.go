// Package usecase はレビューのビジネスロジックを実装します。
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"natours/internal/domain/entity"
	"natours/internal/platform/apifeatures"
	"natours/internal/platform/apperr"
	"natours/internal/platform/crud"
	"natours/internal/platform/sanitize"
)

// ReviewRepository はレビューの永続化層を抽象化します。
type ReviewRepository interface {
	List(ctx context.Context, d apifeatures.Directives, filters ...crud.Filter) ([]entity.Review, error)
	Get(ctx context.Context, id uint) (*entity.Review, error)
	Create(ctx context.Context, review *entity.Review) error
	Update(ctx context.Context, id uint, fields map[string]any) (*entity.Review, error)
	Delete(ctx context.Context, id uint) error
	// RatingStats はツアーのレビュー件数と平均評価を返します。
	RatingStats(ctx context.Context, tourID uint) (quantity int, average float64, err error)
}

// TourRatings は対象ツアーの存在確認と評価の保存を行います。
type TourRatings interface {
	Get(ctx context.Context, id uint) (*entity.Tour, error)
	UpdateRatings(ctx context.Context, tourID uint, quantity int, average float64) error
}

// CreateInput はレビュー作成の入力です。
type CreateInput struct {
	TourID uint
	Review string
	Rating int
}

// UpdateInput はレビュー更新の入力です。nilの項目は変更しません。
type UpdateInput struct {
	Review *string
	Rating *int
}

type reviewUsecase struct {
	reviews ReviewRepository
	tours   TourRatings
}

// NewReviewUsecase はreviewUsecaseの新しいインスタンスを生成します。
func NewReviewUsecase(reviews ReviewRepository, tours TourRatings) *reviewUsecase {
	return &reviewUsecase{reviews: reviews, tours: tours}
}

// List はクエリ指定に従ってレビューを一覧します。
func (u *reviewUsecase) List(ctx context.Context, d apifeatures.Directives, filters ...crud.Filter) ([]entity.Review, error) {
	return u.reviews.List(ctx, d, filters...)
}

// Get はIDでレビューを取得します。
func (u *reviewUsecase) Get(ctx context.Context, id uint) (*entity.Review, error) {
	return u.reviews.Get(ctx, id)
}

// Create は投稿者としてauthorを設定してレビューを作成し、ツアーの評価を再計算します。
func (u *reviewUsecase) Create(ctx context.Context, author *entity.User, in CreateInput) (*entity.Review, error) {
	if in.TourID == 0 {
		return nil, apperr.New(apperr.ErrValidation, MsgTourRequired)
	}
	if _, err := u.tours.Get(ctx, in.TourID); err != nil {
		return nil, err
	}

	review := &entity.Review{
		Review: sanitize.Text(in.Review),
		Rating: in.Rating,
		TourID: in.TourID,
		UserID: author.ID,
	}
	if err := u.reviews.Create(ctx, review); err != nil {
		return nil, err
	}
	u.recalc(ctx, review.TourID)
	return u.reviews.Get(ctx, review.ID)
}

// Update はレビューを更新します。管理者以外は自分のレビューだけを変更できます。
func (u *reviewUsecase) Update(ctx context.Context, actor *entity.User, id uint, in UpdateInput) (*entity.Review, error) {
	current, err := u.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.Review != nil {
		fields["review"] = sanitize.Text(*in.Review)
	}
	if in.Rating != nil {
		fields["rating"] = *in.Rating
	}
	if len(fields) == 0 {
		return current, nil
	}

	updated, err := u.reviews.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	u.recalc(ctx, current.TourID)
	return updated, nil
}

// Delete はレビューを削除し、ツアーの評価を再計算します。
func (u *reviewUsecase) Delete(ctx context.Context, actor *entity.User, id uint) error {
	current, err := u.owned(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := u.reviews.Delete(ctx, id); err != nil {
		return err
	}
	u.recalc(ctx, current.TourID)
	return nil
}

func (u *reviewUsecase) owned(ctx context.Context, actor *entity.User, id uint) (*entity.Review, error) {
	current, err := u.reviews.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != entity.RoleAdmin && current.UserID != actor.ID {
		return nil, apperr.New(apperr.ErrForbidden, MsgNotYourReview)
	}
	return current, nil
}

// recalc はツアーの評価件数と平均を保存します。レビューがなければ既定値に戻します。
// 集計と保存の間は排他しないため、同時に書き込まれると古い値が残ることがあります。
func (u *reviewUsecase) recalc(ctx context.Context, tourID uint) {
	if err := u.RecalculateRatings(ctx, tourID); err != nil {
		slog.Error("failed to recalculate tour ratings", "error", err, "tour_id", tourID)
	}
}

// RecalculateRatings はレビューからツアーの評価件数と平均を算出して保存します。
func (u *reviewUsecase) RecalculateRatings(ctx context.Context, tourID uint) error {
	quantity, average, err := u.reviews.RatingStats(ctx, tourID)
	if err != nil {
		return fmt.Errorf("rating stats: %w", err)
	}
	if quantity == 0 {
		average = entity.DefaultRatingsAverage
	}
	return u.tours.UpdateRatings(ctx, tourID, quantity, math.Round(average*10)/10)
}

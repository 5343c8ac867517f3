// Package adapters はreviewsフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"

	"gorm.io/gorm"

	"natours/internal/domain/entity"
	"natours/internal/platform/apifeatures"
	"natours/internal/platform/crud"
)

// ReviewColumns はクエリ文字列で指定できるレビューのフィールドと列の対応です。
var ReviewColumns = apifeatures.Columns{
	"id":        "id",
	"review":    "review",
	"rating":    "rating",
	"tour":      "tour_id",
	"user":      "user_id",
	"createdAt": "created_at",
	"revision":  "revision",
}

func authorFields(tx *gorm.DB) *gorm.DB {
	return tx.Select("id", "name", "photo")
}

// withAuthor preloads the author of listed reviews.
func withAuthor(tx *gorm.DB) *gorm.DB {
	return tx.Preload("User", authorFields)
}

// reviewGorm はReviewRepositoryインターフェースのGORM実装です。
type reviewGorm struct {
	*crud.Repository[entity.Review]
}

// NewReviewRepository は指定されたgorm.DB接続でreviewGormの新しいインスタンスを生成します。
func NewReviewRepository(db *gorm.DB) *reviewGorm {
	return &reviewGorm{
		Repository: crud.NewRepository[entity.Review](db, ReviewColumns,
			crud.WithPreload("User", authorFields),
		),
	}
}

// List は投稿者を読み込んだレビューを一覧します。
func (r *reviewGorm) List(ctx context.Context, d apifeatures.Directives, filters ...crud.Filter) ([]entity.Review, error) {
	return r.Repository.List(ctx, d, append(filters, withAuthor)...)
}

// RatingStats はツアーのレビュー件数と平均評価を集計します。
func (r *reviewGorm) RatingStats(ctx context.Context, tourID uint) (int, float64, error) {
	var row struct {
		Quantity int
		Average  float64
	}
	err := r.Query(ctx).
		Select("COUNT(*) AS quantity, COALESCE(AVG(rating), 0) AS average").
		Where("tour_id = ?", tourID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.Quantity, row.Average, nil
}

// ByTour narrows a list to the reviews of one tour.
func ByTour(tourID uint) crud.Filter {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("tour_id = ?", tourID)
	}
}

// Package adapters はbookingsフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"

	"gorm.io/gorm"

	"natours/internal/domain/entity"
	"natours/internal/platform/apifeatures"
	"natours/internal/platform/crud"
)

// BookingColumns はクエリ文字列で指定できる予約のフィールドと列の対応です。
var BookingColumns = apifeatures.Columns{
	"id":        "id",
	"tour":      "tour_id",
	"user":      "user_id",
	"price":     "price",
	"paid":      "paid",
	"createdAt": "created_at",
	"revision":  "revision",
}

func tourSummary(tx *gorm.DB) *gorm.DB {
	return tx.Select("id", "name", "slug", "price", "image_cover", "start_dates", "duration", "summary", "difficulty")
}

func customer(tx *gorm.DB) *gorm.DB {
	return tx.Select("id", "name", "email", "photo")
}

func withParties(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Tour", tourSummary).Preload("User", customer)
}

// bookingGorm はBookingRepositoryインターフェースのGORM実装です。
type bookingGorm struct {
	*crud.Repository[entity.Booking]
}

// NewBookingRepository は指定されたgorm.DB接続でbookingGormの新しいインスタンスを生成します。
func NewBookingRepository(db *gorm.DB) *bookingGorm {
	return &bookingGorm{
		Repository: crud.NewRepository[entity.Booking](db, BookingColumns,
			crud.WithPreload("Tour", tourSummary),
			crud.WithPreload("User", customer),
		),
	}
}

// List はツアーと利用者を読み込んだ予約を一覧します。
func (r *bookingGorm) List(ctx context.Context, d apifeatures.Directives, filters ...crud.Filter) ([]entity.Booking, error) {
	return r.Repository.List(ctx, d, append(filters, withParties)...)
}

// ListByUser は利用者の予約を一覧します。
func (r *bookingGorm) ListByUser(ctx context.Context, userID uint, d apifeatures.Directives) ([]entity.Booking, error) {
	return r.List(ctx, d, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("user_id = ?", userID)
	})
}

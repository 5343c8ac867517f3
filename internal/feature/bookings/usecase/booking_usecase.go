// Package usecase は予約のビジネスロジックを実装します。
package usecase

import (
	"context"

	"natours/internal/domain/entity"
	"natours/internal/platform/apifeatures"
	"natours/internal/platform/apperr"
	"natours/internal/platform/crud"
)

// BookingRepository は予約の永続化層を抽象化します。
type BookingRepository interface {
	List(ctx context.Context, d apifeatures.Directives, filters ...crud.Filter) ([]entity.Booking, error)
	Get(ctx context.Context, id uint) (*entity.Booking, error)
	Create(ctx context.Context, booking *entity.Booking) error
	Update(ctx context.Context, id uint, fields map[string]any) (*entity.Booking, error)
	Delete(ctx context.Context, id uint) error
	// ListByUser は利用者の予約を一覧します。
	ListByUser(ctx context.Context, userID uint, d apifeatures.Directives) ([]entity.Booking, error)
}

// TourGetter は予約対象のツアーを取得します。
type TourGetter interface {
	Get(ctx context.Context, id uint) (*entity.Tour, error)
}

// UserGetter は予約する利用者を取得します。
type UserGetter interface {
	FindByID(ctx context.Context, id uint) (*entity.User, error)
}

// BookingRecorder は作成された予約を記録します。
type BookingRecorder interface {
	RecordBookingCreated(amount float64)
}

// CreateInput は予約作成の入力です。価格を省略するとツアーの価格、支払済みを省略するとtrueになります。
type CreateInput struct {
	TourID uint
	UserID uint
	Price  *float64
	Paid   *bool
}

// UpdateInput は予約更新の入力です。
type UpdateInput struct {
	Price *float64
	Paid  *bool
}

type bookingUsecase struct {
	bookings BookingRepository
	tours    TourGetter
	users    UserGetter
	metrics  BookingRecorder
}

// NewBookingUsecase はbookingUsecaseの新しいインスタンスを生成します。
func NewBookingUsecase(bookings BookingRepository, tours TourGetter, users UserGetter, metrics BookingRecorder) *bookingUsecase {
	return &bookingUsecase{bookings: bookings, tours: tours, users: users, metrics: metrics}
}

// List はクエリ指定に従って予約を一覧します。
func (u *bookingUsecase) List(ctx context.Context, d apifeatures.Directives, filters ...crud.Filter) ([]entity.Booking, error) {
	return u.bookings.List(ctx, d, filters...)
}

// Get はIDで予約を取得します。
func (u *bookingUsecase) Get(ctx context.Context, id uint) (*entity.Booking, error) {
	return u.bookings.Get(ctx, id)
}

// Mine はログイン中の利用者の予約を一覧します。
func (u *bookingUsecase) Mine(ctx context.Context, userID uint, d apifeatures.Directives) ([]entity.Booking, error) {
	return u.bookings.ListByUser(ctx, userID, d)
}

// Create は予約を作成します。
func (u *bookingUsecase) Create(ctx context.Context, in CreateInput) (*entity.Booking, error) {
	if in.TourID == 0 {
		return nil, apperr.New(apperr.ErrValidation, MsgBookingNeedsTour)
	}
	if in.UserID == 0 {
		return nil, apperr.New(apperr.ErrValidation, MsgBookingNeedsUser)
	}
	tour, err := u.tours.Get(ctx, in.TourID)
	if err != nil {
		return nil, err
	}
	if _, err := u.users.FindByID(ctx, in.UserID); err != nil {
		return nil, err
	}

	booking := &entity.Booking{
		TourID: in.TourID,
		UserID: in.UserID,
		Price:  tour.Price,
		Paid:   true,
	}
	if in.Price != nil {
		booking.Price = *in.Price
	}
	if in.Paid != nil {
		booking.Paid = *in.Paid
	}
	if err := u.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}
	if u.metrics != nil {
		u.metrics.RecordBookingCreated(booking.Price)
	}
	return u.bookings.Get(ctx, booking.ID)
}

// Update は指定された項目だけを更新します。
func (u *bookingUsecase) Update(ctx context.Context, id uint, in UpdateInput) (*entity.Booking, error) {
	fields := map[string]any{}
	if in.Price != nil {
		fields["price"] = *in.Price
	}
	if in.Paid != nil {
		fields["paid"] = *in.Paid
	}
	if len(fields) == 0 {
		return u.bookings.Get(ctx, id)
	}
	return u.bookings.Update(ctx, id, fields)
}

// Delete は予約を削除します。
func (u *bookingUsecase) Delete(ctx context.Context, id uint) error {
	return u.bookings.Delete(ctx, id)
}

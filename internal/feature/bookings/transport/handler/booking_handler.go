// Package handler はbookingsフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"natours/internal/domain/entity"
	"natours/internal/feature/bookings/transport/http/dto"
	"natours/internal/feature/bookings/usecase"
	"natours/internal/platform/apifeatures"
	"natours/internal/platform/apperr"
	"natours/internal/platform/crud"
	"natours/internal/platform/http/response"
	jwtmw "natours/internal/platform/jwt"
)

// BookingUsecase は予約操作のユースケースを定義します。
type BookingUsecase interface {
	List(ctx context.Context, d apifeatures.Directives, filters ...crud.Filter) ([]entity.Booking, error)
	Get(ctx context.Context, id uint) (*entity.Booking, error)
	Mine(ctx context.Context, userID uint, d apifeatures.Directives) ([]entity.Booking, error)
	Create(ctx context.Context, in usecase.CreateInput) (*entity.Booking, error)
	Update(ctx context.Context, id uint, in usecase.UpdateInput) (*entity.Booking, error)
	Delete(ctx context.Context, id uint) error
}

// BookingHandler は予約関連のHTTPリクエストを処理します。
type BookingHandler struct {
	uc BookingUsecase
}

// NewBookingHandler はBookingHandlerの新しいインスタンスを生成します。
func NewBookingHandler(uc BookingUsecase) *BookingHandler {
	return &BookingHandler{uc: uc}
}

// List handles GET /bookings.
func (h *BookingHandler) List(c *gin.Context) { crud.GetAll[entity.Booking](h.uc, nil)(c) }

// Get handles GET /bookings/:id.
func (h *BookingHandler) Get(c *gin.Context) { crud.GetOne[entity.Booking](h.uc)(c) }

// Delete handles DELETE /bookings/:id.
func (h *BookingHandler) Delete(c *gin.Context) { crud.DeleteOne(h.uc)(c) }

// Mine handles GET /bookings/my-bookings.
func (h *BookingHandler) Mine(c *gin.Context) {
	me, ok := jwtmw.CurrentUser(c)
	if !ok {
		_ = c.Error(apperr.New(apperr.ErrNoCredential, jwtmw.MsgNoCredential))
		return
	}
	d := crud.Features(c)
	bookings, err := h.uc.Mine(c.Request.Context(), me.ID, d)
	if err != nil {
		_ = c.Error(err)
		return
	}
	shaped, err := d.Project(bookings)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.List(c, len(bookings), shaped)
}

// Create handles POST /bookings.
func (h *BookingHandler) Create(c *gin.Context) {
	var req dto.CreateBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}
	booking, err := h.uc.Create(c.Request.Context(), usecase.CreateInput{
		TourID: req.Tour,
		UserID: req.User,
		Price:  req.Price,
		Paid:   req.Paid,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Data(c, http.StatusCreated, booking)
}

// Update handles PATCH /bookings/:id.
func (h *BookingHandler) Update(c *gin.Context) {
	id, err := crud.ParamID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req dto.UpdateBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}
	booking, err := h.uc.Update(c.Request.Context(), id, usecase.UpdateInput{Price: req.Price, Paid: req.Paid})
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Data(c, http.StatusOK, booking)
}

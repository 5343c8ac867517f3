// Package handler はreviewsフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"natours/internal/domain/entity"
	"natours/internal/feature/reviews/adapters"
	"natours/internal/feature/reviews/transport/http/dto"
	"natours/internal/feature/reviews/usecase"
	"natours/internal/platform/apifeatures"
	"natours/internal/platform/apperr"
	"natours/internal/platform/crud"
	"natours/internal/platform/http/response"
	jwtmw "natours/internal/platform/jwt"
)

// TourParam is the tour parameter of the nested /tours/:id/reviews routes. It
// shares the wildcard name of /tours/:id since gin requires one per segment.
const TourParam = "id"

// ReviewUsecase はレビュー操作のユースケースを定義します。
type ReviewUsecase interface {
	List(ctx context.Context, d apifeatures.Directives, filters ...crud.Filter) ([]entity.Review, error)
	Get(ctx context.Context, id uint) (*entity.Review, error)
	Create(ctx context.Context, author *entity.User, in usecase.CreateInput) (*entity.Review, error)
	Update(ctx context.Context, actor *entity.User, id uint, in usecase.UpdateInput) (*entity.Review, error)
	Delete(ctx context.Context, actor *entity.User, id uint) error
}

// ReviewHandler はレビュー関連のHTTPリクエストを処理します。
type ReviewHandler struct {
	uc ReviewUsecase
}

// NewReviewHandler はReviewHandlerの新しいインスタンスを生成します。
func NewReviewHandler(uc ReviewUsecase) *ReviewHandler {
	return &ReviewHandler{uc: uc}
}

// nestedTour narrows the list to the tour of the nested route, if any.
func nestedTour(c *gin.Context) ([]crud.Filter, error) {
	if c.Param(TourParam) == "" {
		return nil, nil
	}
	tourID, err := crud.ParamID(c, TourParam)
	if err != nil {
		return nil, err
	}
	return []crud.Filter{adapters.ByTour(tourID)}, nil
}

// List handles GET /reviews and GET /tours/:id/reviews.
func (h *ReviewHandler) List(c *gin.Context) { crud.GetAll[entity.Review](h.uc, nestedTour)(c) }

// Get handles GET /reviews/:id.
func (h *ReviewHandler) Get(c *gin.Context) { crud.GetOne[entity.Review](h.uc)(c) }

// Create handles POST /reviews and POST /tours/:id/reviews.
func (h *ReviewHandler) Create(c *gin.Context) {
	me, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.CreateReviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	tourID := req.Tour
	if c.Param(TourParam) != "" {
		id, err := crud.ParamID(c, TourParam)
		if err != nil {
			_ = c.Error(err)
			return
		}
		tourID = id
	}

	review, err := h.uc.Create(c.Request.Context(), me, usecase.CreateInput{
		TourID: tourID,
		Review: req.Review,
		Rating: req.Rating,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Data(c, http.StatusCreated, review)
}

// Update handles PATCH /reviews/:id.
func (h *ReviewHandler) Update(c *gin.Context) {
	me, ok := currentUser(c)
	if !ok {
		return
	}
	id, err := crud.ParamID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req dto.UpdateReviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	review, err := h.uc.Update(c.Request.Context(), me, id, usecase.UpdateInput{Review: req.Review, Rating: req.Rating})
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Data(c, http.StatusOK, review)
}

// Delete handles DELETE /reviews/:id.
func (h *ReviewHandler) Delete(c *gin.Context) {
	me, ok := currentUser(c)
	if !ok {
		return
	}
	id, err := crud.ParamID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	if err := h.uc.Delete(c.Request.Context(), me, id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func currentUser(c *gin.Context) (*entity.User, bool) {
	me, ok := jwtmw.CurrentUser(c)
	if !ok {
		_ = c.Error(apperr.New(apperr.ErrNoCredential, jwtmw.MsgNoCredential))
	}
	return me, ok
}

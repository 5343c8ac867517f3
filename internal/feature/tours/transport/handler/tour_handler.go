// Package handler はtoursフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"natours/internal/domain/entity"
	"natours/internal/feature/tours/transport/http/dto"
	"natours/internal/feature/tours/usecase"
	"natours/internal/platform/apifeatures"
	"natours/internal/platform/crud"
	"natours/internal/platform/http/response"
)

// TourUsecase はツアー操作のユースケースを定義します。
type TourUsecase interface {
	List(ctx context.Context, d apifeatures.Directives, filters ...crud.Filter) ([]entity.Tour, error)
	Get(ctx context.Context, id uint) (*entity.Tour, error)
	Create(ctx context.Context, in usecase.TourInput) (*entity.Tour, error)
	Update(ctx context.Context, id uint, in usecase.TourInput) (*entity.Tour, error)
	Delete(ctx context.Context, id uint) error
	Stats(ctx context.Context) ([]entity.TourStat, error)
	MonthlyPlan(ctx context.Context, year string) ([]entity.MonthlyPlan, error)
	Within(ctx context.Context, distance, latlng, unit string) ([]entity.Tour, error)
	Distances(ctx context.Context, latlng, unit string) ([]entity.TourDistance, error)
}

// TourHandler はツアー関連のHTTPリクエストを処理します。
type TourHandler struct {
	uc TourUsecase
}

// NewTourHandler はTourHandlerの新しいインスタンスを生成します。
func NewTourHandler(uc TourUsecase) *TourHandler {
	return &TourHandler{uc: uc}
}

// AliasTopTours は評価が高く安い5件を返すように limit, sort, fields を上書きします。
// それ以外のフィルタやページ指定はそのまま残ります。
func AliasTopTours(c *gin.Context) {
	q := c.Request.URL.Query()
	for k, v := range usecase.TopCheapQuery() {
		q[k] = v
	}
	c.Request.URL.RawQuery = q.Encode()
	c.Next()
}

// List handles GET /tours.
func (h *TourHandler) List(c *gin.Context) { crud.GetAll[entity.Tour](h.uc, nil)(c) }

// Get handles GET /tours/:id.
func (h *TourHandler) Get(c *gin.Context) { crud.GetOne[entity.Tour](h.uc)(c) }

// Delete handles DELETE /tours/:id.
func (h *TourHandler) Delete(c *gin.Context) { crud.DeleteOne(h.uc)(c) }

// Create handles POST /tours.
func (h *TourHandler) Create(c *gin.Context) {
	var req dto.CreateTourReq
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}
	tour, err := h.uc.Create(c.Request.Context(), req.Input())
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Data(c, http.StatusCreated, tour)
}

// Update handles PATCH /tours/:id.
func (h *TourHandler) Update(c *gin.Context) {
	id, err := crud.ParamID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req dto.UpdateTourReq
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}
	tour, err := h.uc.Update(c.Request.Context(), id, req.Input())
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Data(c, http.StatusOK, tour)
}

// Stats handles GET /tours/tour-stats.
func (h *TourHandler) Stats(c *gin.Context) {
	stats, err := h.uc.Stats(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Named(c, http.StatusOK, "stats", stats)
}

// MonthlyPlan handles GET /tours/monthly-plan/:year.
func (h *TourHandler) MonthlyPlan(c *gin.Context) {
	plan, err := h.uc.MonthlyPlan(c.Request.Context(), c.Param("year"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Named(c, http.StatusOK, "plan", plan)
}

// Within handles GET /tours/tours-within/:distance/center/:latlng/unit/:unit.
func (h *TourHandler) Within(c *gin.Context) {
	tours, err := h.uc.Within(c.Request.Context(), c.Param("distance"), c.Param("latlng"), c.Param("unit"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.List(c, len(tours), tours)
}

// Distances handles GET /tours/distances/:latlng/unit/:unit.
func (h *TourHandler) Distances(c *gin.Context) {
	distances, err := h.uc.Distances(c.Request.Context(), c.Param("latlng"), c.Param("unit"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Data(c, http.StatusOK, distances)
}

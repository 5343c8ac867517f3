package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"natours/internal/domain/entity"
	"natours/internal/feature/bookings/usecase"
	"natours/internal/platform/apifeatures"
	"natours/internal/platform/apperr"
	"natours/internal/platform/crud"
	"natours/internal/platform/http/middleware"
	jwtmw "natours/internal/platform/jwt"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	middleware.RegisterJSONFieldNames()
	os.Exit(m.Run())
}

// mockBookingUsecase はBookingUsecaseのモック実装です。
type mockBookingUsecase struct {
	mineOf  uint
	created *usecase.CreateInput
	updated *usecase.UpdateInput
}

func (m *mockBookingUsecase) List(context.Context, apifeatures.Directives, ...crud.Filter) ([]entity.Booking, error) {
	return []entity.Booking{{ID: 1, Price: 497}, {ID: 2, Price: 997}}, nil
}

func (m *mockBookingUsecase) Get(_ context.Context, id uint) (*entity.Booking, error) {
	if id != 1 {
		return nil, apperr.New(apperr.ErrNotFound, crud.MsgNotFound)
	}
	return &entity.Booking{ID: 1, Price: 497, Paid: true}, nil
}

func (m *mockBookingUsecase) Mine(_ context.Context, userID uint, _ apifeatures.Directives) ([]entity.Booking, error) {
	m.mineOf = userID
	return []entity.Booking{{ID: 1, UserID: userID, Price: 497}}, nil
}

func (m *mockBookingUsecase) Create(_ context.Context, in usecase.CreateInput) (*entity.Booking, error) {
	m.created = &in
	return &entity.Booking{ID: 3, TourID: in.TourID, UserID: in.UserID, Price: 497, Paid: true}, nil
}

func (m *mockBookingUsecase) Update(ctx context.Context, id uint, in usecase.UpdateInput) (*entity.Booking, error) {
	m.updated = &in
	return m.Get(ctx, id)
}

func (m *mockBookingUsecase) Delete(context.Context, uint) error { return nil }

func setupRouter(uc BookingUsecase, me *entity.User) *gin.Engine {
	h := NewBookingHandler(uc)
	r := gin.New()
	r.Use(middleware.ErrorHandler(middleware.ErrorHandlerConfig{}))
	r.Use(func(c *gin.Context) {
		if me != nil {
			c.Set(jwtmw.ContextUser, me)
		}
	})
	r.GET("/bookings/my-bookings", h.Mine)
	r.GET("/bookings", h.List)
	r.POST("/bookings", h.Create)
	r.GET("/bookings/:id", h.Get)
	r.PATCH("/bookings/:id", h.Update)
	r.DELETE("/bookings/:id", h.Delete)
	return r
}

func serve(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBookingHandler_Mine(t *testing.T) {
	uc := &mockBookingUsecase{}

	w := serve(setupRouter(uc, &entity.User{ID: 5}), http.MethodGet, "/bookings/my-bookings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint(5), uc.mineOf)
	assert.Contains(t, w.Body.String(), `"results":1`)

	w = serve(setupRouter(uc, nil), http.MethodGet, "/bookings/my-bookings", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBookingHandler_CRUD(t *testing.T) {
	uc := &mockBookingUsecase{}
	r := setupRouter(uc, &entity.User{ID: 1, Role: entity.RoleAdmin})

	w := serve(r, http.MethodGet, "/bookings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"results":2`)

	w = serve(r, http.MethodPost, "/bookings", gin.H{"tour": 2, "user": 5})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, uint(2), uc.created.TourID)
	assert.Nil(t, uc.created.Price)

	w = serve(r, http.MethodPost, "/bookings", gin.H{"user": 5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "tour is required")

	w = serve(r, http.MethodPatch, "/bookings/1", gin.H{"paid": false})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, uc.updated.Paid)
	assert.False(t, *uc.updated.Paid)

	w = serve(r, http.MethodGet, "/bookings/2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(r, http.MethodDelete, "/bookings/1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

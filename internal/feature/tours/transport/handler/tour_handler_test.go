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
	"natours/internal/feature/tours/usecase"
	"natours/internal/platform/apifeatures"
	"natours/internal/platform/apperr"
	"natours/internal/platform/crud"
	"natours/internal/platform/http/middleware"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	middleware.RegisterJSONFieldNames()
	os.Exit(m.Run())
}

// mockTourUsecase はTourUsecaseのモック実装です。
type mockTourUsecase struct {
	tours      []entity.Tour
	directives apifeatures.Directives
	created    *usecase.TourInput
	updated    *usecase.TourInput
	geoArgs    []string
}

func (m *mockTourUsecase) List(_ context.Context, d apifeatures.Directives, _ ...crud.Filter) ([]entity.Tour, error) {
	m.directives = d
	return m.tours, nil
}

func (m *mockTourUsecase) Get(_ context.Context, id uint) (*entity.Tour, error) {
	for i := range m.tours {
		if m.tours[i].ID == id {
			return &m.tours[i], nil
		}
	}
	return nil, apperr.New(apperr.ErrNotFound, usecase.MsgTourNotFound)
}

func (m *mockTourUsecase) Create(_ context.Context, in usecase.TourInput) (*entity.Tour, error) {
	m.created = &in
	return &entity.Tour{ID: 9, Name: *in.Name, Price: *in.Price}, nil
}

func (m *mockTourUsecase) Update(ctx context.Context, id uint, in usecase.TourInput) (*entity.Tour, error) {
	m.updated = &in
	return m.Get(ctx, id)
}

func (m *mockTourUsecase) Delete(context.Context, uint) error { return nil }

func (m *mockTourUsecase) Stats(context.Context) ([]entity.TourStat, error) {
	return []entity.TourStat{{Difficulty: "EASY", NumTours: 2}}, nil
}

func (m *mockTourUsecase) MonthlyPlan(_ context.Context, year string) ([]entity.MonthlyPlan, error) {
	if year != "2021" {
		return nil, apperr.New(apperr.ErrBadRequest, usecase.MsgInvalidYear)
	}
	return []entity.MonthlyPlan{{Month: 7, NumTourStarts: 2, Tours: []string{"a", "b"}}}, nil
}

func (m *mockTourUsecase) Within(_ context.Context, distance, latlng, unit string) ([]entity.Tour, error) {
	m.geoArgs = []string{distance, latlng, unit}
	return m.tours[:1], nil
}

func (m *mockTourUsecase) Distances(_ context.Context, latlng, unit string) ([]entity.TourDistance, error) {
	m.geoArgs = []string{latlng, unit}
	return []entity.TourDistance{{ID: 1, Name: "The Forest Hiker", Distance: 12.5}}, nil
}

func setupRouter(uc TourUsecase) *gin.Engine {
	h := NewTourHandler(uc)
	r := gin.New()
	r.Use(middleware.ErrorHandler(middleware.ErrorHandlerConfig{}))
	r.GET("/tours/top-5-cheap", AliasTopTours, h.List)
	r.GET("/tours/tour-stats", h.Stats)
	r.GET("/tours/monthly-plan/:year", h.MonthlyPlan)
	r.GET("/tours/tours-within/:distance/center/:latlng/unit/:unit", h.Within)
	r.GET("/tours/distances/:latlng/unit/:unit", h.Distances)
	r.GET("/tours", h.List)
	r.POST("/tours", h.Create)
	r.GET("/tours/:id", h.Get)
	r.PATCH("/tours/:id", h.Update)
	r.DELETE("/tours/:id", h.Delete)
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

func sampleTours() []entity.Tour {
	return []entity.Tour{
		{ID: 1, Name: "The Forest Hiker", Price: 397, Difficulty: "easy", Duration: 7},
		{ID: 2, Name: "The Sea Explorer", Price: 497, Difficulty: "medium", Duration: 7},
	}
}

func TestTourHandler_List(t *testing.T) {
	uc := &mockTourUsecase{tours: sampleTours()}
	r := setupRouter(uc)

	w := serve(r, http.MethodGet, "/tours?fields=name,price", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status  string `json:"status"`
		Results int    `json:"results"`
		Data    struct {
			Data []map[string]any `json:"data"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, 2, body.Results)
	require.Len(t, body.Data.Data, 2)
	assert.Equal(t, "The Forest Hiker", body.Data.Data[0]["name"])
	assert.NotContains(t, body.Data.Data[0], "difficulty", "projection drops unselected fields")
}

func TestTourHandler_TopCheapAlias(t *testing.T) {
	uc := &mockTourUsecase{tours: sampleTours()}
	r := setupRouter(uc)

	w := serve(r, http.MethodGet, "/tours/top-5-cheap?limit=50&sort=name", nil)
	require.Equal(t, http.StatusOK, w.Code)

	want := crud.Features(&gin.Context{Request: httptest.NewRequest(http.MethodGet,
		"/tours?"+usecase.TopCheapQuery().Encode(), nil)})
	assert.Equal(t, want.Key(), uc.directives.Key(), "limit, sort and fields are overridden")
}

func TestTourHandler_TopCheapAlias_KeepsFilters(t *testing.T) {
	uc := &mockTourUsecase{tours: sampleTours()}
	r := setupRouter(uc)

	w := serve(r, http.MethodGet, "/tours/top-5-cheap?difficulty=easy&page=2&limit=50", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, []apifeatures.Condition{{Field: "difficulty", Op: apifeatures.OpEq, Values: []string{"easy"}}},
		uc.directives.Conditions())
	assert.Equal(t, 5, uc.directives.Limit())
	assert.Equal(t, 5, uc.directives.Skip(), "page is kept")
	assert.Equal(t, []apifeatures.SortKey{{Field: "ratingsAverage", Desc: true}, {Field: "price"}}, uc.directives.SortKeys())
}

func TestTourHandler_Create(t *testing.T) {
	uc := &mockTourUsecase{}
	r := setupRouter(uc)

	valid := gin.H{
		"name":         "The Park Camper",
		"duration":     10,
		"maxGroupSize": 15,
		"difficulty":   "medium",
		"price":        1497,
		"summary":      "Breathing in Nature in America's most spectacular National Parks",
		"imageCover":   "tour-5-cover.jpg",
		"startLocation": gin.H{
			"lat": 36.1, "lng": -115.1, "address": "Las Vegas, NV, USA",
		},
	}
	w := serve(r, http.MethodPost, "/tours", valid)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(t, uc.created)
	assert.Equal(t, "The Park Camper", *uc.created.Name)
	assert.Equal(t, "Las Vegas, NV, USA", uc.created.StartLocation.Address)
	assert.NotNil(t, uc.created.Images, "missing lists become empty")

	tests := []struct {
		name  string
		patch gin.H
		msg   string
	}{
		{"short name", gin.H{"name": "Short"}, "name must have at least 10 characters"},
		{"bad difficulty", gin.H{"difficulty": "extreme"}, "difficulty must be one of: easy, medium, difficult"},
		{"rating above 5", gin.H{"ratingsAverage": 5.5}, "ratingsAverage must be at most 5"},
		{"missing price", gin.H{"price": nil}, "price is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := gin.H{}
			for k, v := range valid {
				body[k] = v
			}
			for k, v := range tt.patch {
				body[k] = v
			}
			w := serve(r, http.MethodPost, "/tours", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.msg)
		})
	}
}

func TestTourHandler_Update(t *testing.T) {
	uc := &mockTourUsecase{tours: sampleTours()}
	r := setupRouter(uc)

	w := serve(r, http.MethodPatch, "/tours/2", gin.H{"price": 550})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, uc.updated.Price)
	assert.Equal(t, 550.0, *uc.updated.Price)
	assert.Nil(t, uc.updated.Name)

	w = serve(r, http.MethodPatch, "/tours/99", gin.H{"price": 550})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), usecase.MsgTourNotFound)

	w = serve(r, http.MethodDelete, "/tours/2", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestTourHandler_Aggregates(t *testing.T) {
	uc := &mockTourUsecase{tours: sampleTours()}
	r := setupRouter(uc)

	w := serve(r, http.MethodGet, "/tours/tour-stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"stats":[{"difficulty":"EASY"`)

	w = serve(r, http.MethodGet, "/tours/monthly-plan/2021", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"plan":[{"month":7,"numTourStarts":2`)

	w = serve(r, http.MethodGet, "/tours/monthly-plan/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTourHandler_Geo(t *testing.T) {
	uc := &mockTourUsecase{tours: sampleTours()}
	r := setupRouter(uc)

	w := serve(r, http.MethodGet, "/tours/tours-within/400/center/34.1,-118.1/unit/mi", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"400", "34.1,-118.1", "mi"}, uc.geoArgs)
	assert.Contains(t, w.Body.String(), `"results":1`)

	w = serve(r, http.MethodGet, "/tours/distances/34.1,-118.1/unit/km", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"34.1,-118.1", "km"}, uc.geoArgs)
	assert.Contains(t, w.Body.String(), `"distance":12.5`)
}

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"natours/internal/domain/entity"
	"natours/internal/platform/apifeatures"
	"natours/internal/platform/apperr"
	"natours/internal/platform/crud"
	"natours/internal/platform/http/middleware"
	jwtmw "natours/internal/platform/jwt"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type stubTours struct {
	tours []entity.Tour
}

func (s *stubTours) List(context.Context, apifeatures.Directives, ...crud.Filter) ([]entity.Tour, error) {
	return s.tours, nil
}

func (s *stubTours) GetBySlug(_ context.Context, slug string) (*entity.Tour, error) {
	for i := range s.tours {
		if s.tours[i].Slug == slug {
			return &s.tours[i], nil
		}
	}
	return nil, apperr.New(apperr.ErrNotFound, "There is no tour with that name.")
}

func newViewRouter(t *testing.T, user *entity.User) *gin.Engine {
	t.Helper()
	tours := &stubTours{tours: []entity.Tour{
		{
			ID: 1, Name: "The Forest Hiker", Slug: "the-forest-hiker", Duration: 5, MaxGroupSize: 25,
			Difficulty: "easy", Price: 397, RatingsAverage: 4.7, RatingsQuantity: 37,
			Summary: "Breathtaking hike through the Canadian Banff National Park",
			Description: "First paragraph.\nSecond paragraph.",
			StartDates:  []time.Time{time.Date(2021, time.April, 25, 10, 0, 0, 0, time.UTC)},
			StartLocation: entity.Location{Description: "Banff, CAN"},
			Images:        []string{"tour-2-1.jpg"},
			Guides:        []entity.User{{ID: 7, Name: "Lourdes Browning", Role: entity.RoleLeadGuide}},
			Reviews: []entity.Review{
				{ID: 1, Review: "Amazing!", Rating: 5, User: &entity.User{Name: "Sophie Louise Hart"}},
			},
		},
		{ID: 2, Name: "The Sea Explorer", Slug: "the-sea-explorer", Duration: 7, Difficulty: "medium", Price: 497},
	}}
	h, err := NewViewHandler(tours)
	require.NoError(t, err)

	r := gin.New()
	r.Use(middleware.ErrorHandler(middleware.ErrorHandlerConfig{RenderPage: h.RenderError}))
	if user != nil {
		r.Use(func(c *gin.Context) { c.Set(jwtmw.ContextUser, user) })
	}
	r.GET("/", h.Overview)
	r.GET("/tour/:slug", h.Tour)
	r.GET("/login", h.Login)
	r.GET("/me", h.Account)
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestViewHandler_Overview(t *testing.T) {
	w := get(newViewRouter(t, nil), "/")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	body := w.Body.String()
	assert.Contains(t, body, "<title>Natours | All Tours</title>")
	assert.Contains(t, body, "The Forest Hiker")
	assert.Contains(t, body, "The Sea Explorer")
	assert.Contains(t, body, `href="/tour/the-forest-hiker"`)
	assert.Contains(t, body, "April 2021")
	assert.Contains(t, body, "No upcoming dates")
	assert.Contains(t, body, "Log in")
}

func TestViewHandler_Tour(t *testing.T) {
	w := get(newViewRouter(t, nil), "/tour/the-forest-hiker")

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "The Forest Hiker Tour")
	assert.Contains(t, body, "Lead guide")
	assert.Contains(t, body, "Lourdes Browning")
	assert.Contains(t, body, "Sophie Louise Hart")
	assert.Contains(t, body, "★★★★★")
	assert.Contains(t, body, "<p class=\"description__text\">Second paragraph.</p>")
	assert.Contains(t, body, "Log in to book tour")
}

func TestViewHandler_Tour_NotFoundRendersErrorPage(t *testing.T) {
	w := get(newViewRouter(t, nil), "/tour/nope")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "There is no tour with that name.")
}

func TestViewHandler_Account(t *testing.T) {
	t.Run("anonymous", func(t *testing.T) {
		w := get(newViewRouter(t, nil), "/me")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), jwtmw.MsgNoCredential)
	})

	t.Run("logged in", func(t *testing.T) {
		user := &entity.User{ID: 3, Name: "Laura Wilson", Email: "laura@example.io", Photo: "user-3.jpg"}
		w := get(newViewRouter(t, user), "/me")

		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, `value="laura@example.io"`)
		assert.Contains(t, body, "<span>Laura</span>")
		assert.Contains(t, body, "Log out")
	})
}

func TestViewHandler_Login(t *testing.T) {
	w := get(newViewRouter(t, nil), "/login")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Log into your account")
}

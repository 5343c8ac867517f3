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
	"natours/internal/feature/users/usecase"
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

// mockUserUsecase はUserUsecaseのモック実装です。
type mockUserUsecase struct {
	users     map[uint]*entity.User
	updated   *usecase.ProfileInput
	deactived []uint
}

func (m *mockUserUsecase) List(context.Context, apifeatures.Directives, ...crud.Filter) ([]entity.User, error) {
	out := make([]entity.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *mockUserUsecase) Get(_ context.Context, id uint) (*entity.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, apperr.New(apperr.ErrNotFound, crud.MsgNotFound)
}

func (m *mockUserUsecase) UpdateMe(_ context.Context, id uint, in usecase.ProfileInput) (*entity.User, error) {
	m.updated = &in
	u := *m.users[id]
	if in.Name != nil {
		u.Name = *in.Name
	}
	return &u, nil
}

func (m *mockUserUsecase) Update(ctx context.Context, id uint, in usecase.AdminInput) (*entity.User, error) {
	return m.Get(ctx, id)
}

func (m *mockUserUsecase) DeleteMe(_ context.Context, id uint) error {
	m.deactived = append(m.deactived, id)
	return nil
}

func (m *mockUserUsecase) Delete(context.Context, uint) error { return nil }

func setupRouter(uc UserUsecase, me *entity.User) *gin.Engine {
	h := NewUserHandler(uc)
	r := gin.New()
	r.Use(middleware.ErrorHandler(middleware.ErrorHandlerConfig{}))
	r.Use(func(c *gin.Context) {
		if me != nil {
			c.Set(jwtmw.ContextUser, me)
		}
	})
	r.GET("/me", h.GetMe)
	r.PATCH("/updateMe", h.UpdateMe)
	r.DELETE("/deleteMe", h.DeleteMe)
	r.GET("/users", h.List)
	r.GET("/users/:id", h.Get)
	r.PATCH("/users/:id", h.Update)
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

func TestUserHandler_Me(t *testing.T) {
	me := &entity.User{ID: 2, Name: "Lourdes Browning", Email: "lou@example.com", Role: entity.RoleUser}
	uc := &mockUserUsecase{users: map[uint]*entity.User{2: me}}
	r := setupRouter(uc, me)

	w := serve(r, http.MethodGet, "/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"lou@example.com"`)

	w = serve(r, http.MethodPatch, "/updateMe", gin.H{"name": "Lou"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user":{`)
	assert.Contains(t, w.Body.String(), `"name":"Lou"`)

	w = serve(r, http.MethodPatch, "/updateMe", gin.H{"password": "newpass123", "passwordConfirm": "newpass123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), MsgNotForPasswords)

	w = serve(r, http.MethodDelete, "/deleteMe", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []uint{2}, uc.deactived)
}

func TestUserHandler_RequiresCurrentUser(t *testing.T) {
	r := setupRouter(&mockUserUsecase{}, nil)

	w := serve(r, http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserHandler_Admin(t *testing.T) {
	uc := &mockUserUsecase{users: map[uint]*entity.User{
		1: {ID: 1, Name: "Admin", Role: entity.RoleAdmin},
	}}
	r := setupRouter(uc, nil)

	w := serve(r, http.MethodGet, "/users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"results":1`)

	w = serve(r, http.MethodGet, "/users/9", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(r, http.MethodGet, "/users/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodPatch, "/users/1", gin.H{"role": "emperor"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodPatch, "/users/1", gin.H{"role": "guide"})
	assert.Equal(t, http.StatusOK, w.Code)
}

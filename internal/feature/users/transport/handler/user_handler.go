// Package handler はusersフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"natours/internal/domain/entity"
	"natours/internal/feature/users/transport/http/dto"
	"natours/internal/feature/users/usecase"
	"natours/internal/platform/apifeatures"
	"natours/internal/platform/apperr"
	"natours/internal/platform/crud"
	"natours/internal/platform/http/response"
	jwtmw "natours/internal/platform/jwt"
)

// MsgNotForPasswords is returned when /updateMe receives password fields.
const MsgNotForPasswords = "This route is not for password updates. Please use /updateMyPassword."

// UserUsecase はユーザー操作のユースケースを定義します。
type UserUsecase interface {
	List(ctx context.Context, d apifeatures.Directives, filters ...crud.Filter) ([]entity.User, error)
	Get(ctx context.Context, id uint) (*entity.User, error)
	UpdateMe(ctx context.Context, id uint, in usecase.ProfileInput) (*entity.User, error)
	Update(ctx context.Context, id uint, in usecase.AdminInput) (*entity.User, error)
	DeleteMe(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) error
}

// UserHandler はユーザー関連のHTTPリクエストを処理します。
type UserHandler struct {
	uc UserUsecase
}

// NewUserHandler はUserHandlerの新しいインスタンスを生成します。
func NewUserHandler(uc UserUsecase) *UserHandler {
	return &UserHandler{uc: uc}
}

// List handles GET /users.
func (h *UserHandler) List(c *gin.Context) { crud.GetAll[entity.User](h.uc, nil)(c) }

// Get handles GET /users/:id.
func (h *UserHandler) Get(c *gin.Context) { crud.GetOne[entity.User](h.uc)(c) }

// Delete handles DELETE /users/:id.
func (h *UserHandler) Delete(c *gin.Context) { crud.DeleteOne(h.uc)(c) }

// GetMe はログイン中のユーザーを返します。
func (h *UserHandler) GetMe(c *gin.Context) {
	me, ok := currentUser(c)
	if !ok {
		return
	}
	user, err := h.uc.Get(c.Request.Context(), me.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Data(c, http.StatusOK, user)
}

// UpdateMe は名前とメールアドレスだけを更新します。
func (h *UserHandler) UpdateMe(c *gin.Context) {
	me, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.UpdateMeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}
	if req.HasPassword() {
		_ = c.Error(apperr.New(apperr.ErrBadRequest, MsgNotForPasswords))
		return
	}

	user, err := h.uc.UpdateMe(c.Request.Context(), me.ID, usecase.ProfileInput{Name: req.Name, Email: req.Email})
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Named(c, http.StatusOK, "user", user)
}

// DeleteMe は本人のアカウントを退会済みにします。
func (h *UserHandler) DeleteMe(c *gin.Context) {
	me, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.uc.DeleteMe(c.Request.Context(), me.ID); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Update handles PATCH /users/:id.
func (h *UserHandler) Update(c *gin.Context) {
	id, err := crud.ParamID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req dto.UpdateUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	user, err := h.uc.Update(c.Request.Context(), id, usecase.AdminInput{
		Name:  req.Name,
		Email: req.Email,
		Photo: req.Photo,
		Role:  req.Role,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Data(c, http.StatusOK, user)
}

func currentUser(c *gin.Context) (*entity.User, bool) {
	me, ok := jwtmw.CurrentUser(c)
	if !ok {
		_ = c.Error(apperr.New(apperr.ErrNoCredential, jwtmw.MsgNoCredential))
	}
	return me, ok
}

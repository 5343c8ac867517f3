// Package handler はauthフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"natours/internal/domain/entity"
	"natours/internal/feature/auth/transport/http/dto"
	"natours/internal/feature/auth/usecase"
	"natours/internal/platform/apperr"
	"natours/internal/platform/http/response"
	jwtmw "natours/internal/platform/jwt"
)

// logoutPlaceholder replaces the token cookie on logout.
const logoutPlaceholder = "loggedout"

// AuthUsecase は認証操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type AuthUsecase interface {
	Signup(ctx context.Context, in usecase.SignupInput, accountURL string) (*entity.User, string, error)
	Login(ctx context.Context, email, password string) (*entity.User, string, error)
	ForgotPassword(ctx context.Context, email string, resetURL func(plain string) string) error
	ResetPassword(ctx context.Context, plain, password string) (*entity.User, string, error)
	UpdatePassword(ctx context.Context, userID uint, current, password string) (*entity.User, string, error)
}

// CookieConfig controls the token cookie.
type CookieConfig struct {
	TTL    time.Duration
	Secure bool
}

// AuthHandler は認証操作のHTTPリクエストを処理します。
type AuthHandler struct {
	auth   AuthUsecase
	cookie CookieConfig
}

// NewAuthHandler はAuthHandlerの新しいインスタンスを生成します。
func NewAuthHandler(auth AuthUsecase, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{auth: auth, cookie: cookie}
}

// Signup はユーザー登録APIエンドポイントを処理します。
// 成功時はトークンをクッキーにも設定して201を返却します。
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("signup validation failed", "error", err, "remote_addr", c.ClientIP())
		_ = c.Error(err)
		return
	}

	user, token, err := h.auth.Signup(c.Request.Context(), usecase.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}, baseURL(c)+"/me")
	if err != nil {
		_ = c.Error(err)
		return
	}
	slog.Info("user signup successful", "user_id", user.ID, "remote_addr", c.ClientIP())
	h.sendToken(c, http.StatusCreated, user, token)
}

// Login はユーザーログインAPIエンドポイントを処理します。
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	user, token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		// ユーザー列挙攻撃を防止するため、メールアドレスはログにのみ残す
		slog.Warn("login failed", "error", err, "email", req.Email, "remote_addr", c.ClientIP())
		_ = c.Error(err)
		return
	}
	slog.Info("user login successful", "user_id", user.ID, "remote_addr", c.ClientIP())
	h.sendToken(c, http.StatusOK, user, token)
}

// Logout はトークンのクッキーを10秒で失効するプレースホルダーで上書きします。
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setCookie(c, logoutPlaceholder, 10*time.Second)
	c.JSON(http.StatusOK, response.Envelope{Status: response.StatusSuccess})
}

// ForgotPassword はリセットトークンをメールで送ります。
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	base := baseURL(c)
	err := h.auth.ForgotPassword(c.Request.Context(), req.Email, func(plain string) string {
		return base + "/api/v1/users/resetPassword/" + plain
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Message(c, http.StatusOK, "Token sent to email!")
}

// ResetPassword はリセットトークンで新しいパスワードを設定し、ログインさせます。
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	user, token, err := h.auth.ResetPassword(c.Request.Context(), c.Param("token"), req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.sendToken(c, http.StatusOK, user, token)
}

// UpdatePassword はログイン中のユーザーのパスワードを変更します。
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	current, ok := jwtmw.CurrentUser(c)
	if !ok {
		_ = c.Error(apperr.New(apperr.ErrNoCredential, jwtmw.MsgNoCredential))
		return
	}

	var req dto.UpdatePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	user, token, err := h.auth.UpdatePassword(c.Request.Context(), current.ID, req.PasswordCurrent, req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.sendToken(c, http.StatusOK, user, token)
}

func (h *AuthHandler) sendToken(c *gin.Context, status int, user *entity.User, token string) {
	h.setCookie(c, token, h.cookie.TTL)
	response.Token(c, status, token, user)
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, ttl time.Duration) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     jwtmw.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// baseURL はリクエストのスキームとホストからURLの基点を組み立てます。
func baseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}

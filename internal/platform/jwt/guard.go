package jwtmw

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"natours/internal/domain/entity"
	"natours/internal/platform/apperr"
)

// Context keys set on authenticated requests.
const (
	ContextUserID = "userID"
	ContextUser   = "currentUser"
)

// CookieName is the cookie carrying the identity token for browser clients.
const CookieName = "jwt"

// Messages returned to clients when the chain rejects a request.
const (
	MsgNoCredential  = "You are not logged in! Please log in to get access."
	MsgUserGone      = "The user belonging to this token does no longer exist."
	MsgStalePassword = "User recently changed password! Please log in again."
	MsgForbidden     = "You do not have permission to perform this action"
)

// UserLoader loads the subject of a token. It must return an error matching
// apperr.ErrNotFound when no active user has that id.
type UserLoader interface {
	FindByID(ctx context.Context, id uint) (*entity.User, error)
}

// Guard authenticates requests: extract, verify, load the subject, then check
// the token is newer than the subject's last password change.
type Guard struct {
	tokens *TokenService
	users  UserLoader
}

// NewGuard creates a Guard.
func NewGuard(tokens *TokenService, users UserLoader) *Guard {
	return &Guard{tokens: tokens, users: users}
}

// Authenticate runs the chain against the given token. Every rejection is an
// *apperr.Error naming the step that failed.
func (g *Guard) Authenticate(ctx context.Context, token string) (*entity.User, error) {
	if token == "" {
		return nil, apperr.New(apperr.ErrNoCredential, MsgNoCredential)
	}

	claims, err := g.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := g.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Wrap(apperr.ErrUserGone, MsgUserGone, err)
		}
		return nil, fmt.Errorf("failed to load token subject: %w", err)
	}

	if user.ChangedPasswordAfter(claims.IssuedAt.Time) {
		return nil, apperr.New(apperr.ErrStalePassword, MsgStalePassword)
	}
	return user, nil
}

// Protect rejects requests that do not carry a valid, fresh token for an
// existing user. The token is read from the Authorization header, then from
// the jwt cookie.
func (g *Guard) Protect() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := g.Authenticate(c.Request.Context(), extractToken(c.Request))
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		setCurrentUser(c, user)
		c.Next()
	}
}

// IsLoggedIn attaches the user when the jwt cookie authenticates and
// otherwise lets the request through anonymously. Rendered pages use it.
func (g *Guard) IsLoggedIn() gin.HandlerFunc {
	return func(c *gin.Context) {
		if cookie, err := c.Cookie(CookieName); err == nil {
			if user, err := g.Authenticate(c.Request.Context(), cookie); err == nil {
				setCurrentUser(c, user)
			}
		}
		c.Next()
	}
}

// RestrictTo allows through only users whose role is in roles.
// It must run after Protect.
func RestrictTo(roles entity.RoleSet) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok || !roles.Allows(user.Role) {
			_ = c.Error(apperr.New(apperr.ErrForbidden, MsgForbidden))
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user attached by Protect or IsLoggedIn.
func CurrentUser(c *gin.Context) (*entity.User, bool) {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*entity.User)
	return user, ok && user != nil
}

func setCurrentUser(c *gin.Context, user *entity.User) {
	c.Set(ContextUser, user)
	c.Set(ContextUserID, user.ID)
}

func extractToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

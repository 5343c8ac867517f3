// Package handler はサーバーサイドでレンダリングするページを提供する。
package handler

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"natours/internal/domain/entity"
	"natours/internal/platform/apifeatures"
	"natours/internal/platform/apperr"
	"natours/internal/platform/crud"
	jwtmw "natours/internal/platform/jwt"
)

// Page names.
const (
	PageOverview = "overview"
	PageTour     = "tour"
	PageLogin    = "login"
	PageAccount  = "account"
	PageError    = "error"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"firstStart": func(dates []time.Time) string {
		if len(dates) == 0 {
			return "No upcoming dates"
		}
		return dates[0].UTC().Format("January 2006")
	},
	"guideLabel": func(r entity.Role) string {
		if r == entity.RoleLeadGuide {
			return "Lead guide"
		}
		return "Tour guide"
	},
	"paragraphs": func(s string) []string {
		return strings.Split(s, "\n")
	},
	"stars": func(n int) string {
		return strings.Repeat("★", n) + strings.Repeat("☆", max(0, 5-n))
	},
	"inc": func(i int) int { return i + 1 },
}

// TourReader は画面に必要なツアーの読み取り操作。
type TourReader interface {
	List(ctx context.Context, d apifeatures.Directives, filters ...crud.Filter) ([]entity.Tour, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Tour, error)
}

// ViewHandler renders the HTML pages.
type ViewHandler struct {
	tours TourReader
	pages map[string]*template.Template
}

// NewViewHandler parses every page together with the shared layout.
func NewViewHandler(tours TourReader) (*ViewHandler, error) {
	names := []string{PageOverview, PageTour, PageLogin, PageAccount, PageError}
	h := &ViewHandler{tours: tours, pages: make(map[string]*template.Template, len(names))}
	for _, name := range names {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse page template %s: %w", name, err)
		}
		h.pages[name] = t
	}
	return h, nil
}

type pageData struct {
	Title   string
	User    *entity.User
	Tours   []entity.Tour
	Tour    *entity.Tour
	Message string
}

// Overview lists all tours.
func (h *ViewHandler) Overview(c *gin.Context) {
	tours, err := h.tours.List(c.Request.Context(), apifeatures.New(nil).Sort())
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.render(c, http.StatusOK, PageOverview, pageData{Title: "All Tours", Tours: tours})
}

// Tour shows one tour by its slug.
func (h *ViewHandler) Tour(c *gin.Context) {
	tour, err := h.tours.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.render(c, http.StatusOK, PageTour, pageData{Title: tour.Name + " Tour", Tour: tour})
}

// Login renders the login form.
func (h *ViewHandler) Login(c *gin.Context) {
	h.render(c, http.StatusOK, PageLogin, pageData{Title: "Log into your account"})
}

// Account renders the settings of the logged in user. It must run after Protect.
func (h *ViewHandler) Account(c *gin.Context) {
	if _, ok := jwtmw.CurrentUser(c); !ok {
		_ = c.Error(apperr.New(apperr.ErrNoCredential, jwtmw.MsgNoCredential))
		return
	}
	h.render(c, http.StatusOK, PageAccount, pageData{Title: "Your account"})
}

// RenderError renders the error page. It serves as the ErrorHandler's PageRenderer.
func (h *ViewHandler) RenderError(c *gin.Context, status int, msg string) {
	h.render(c, status, PageError, pageData{Title: "Something went wrong!", Message: msg})
}

func (h *ViewHandler) render(c *gin.Context, status int, page string, data pageData) {
	if user, ok := jwtmw.CurrentUser(c); ok {
		data.User = user
	}
	c.Render(status, render.HTML{Template: h.pages[page], Name: "base", Data: data})
}

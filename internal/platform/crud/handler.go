package crud

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"natours/internal/platform/apifeatures"
	"natours/internal/platform/apperr"
	"natours/internal/platform/http/response"
)

// Lister lists documents for a directive set.
type Lister[T any] interface {
	List(ctx context.Context, d apifeatures.Directives, filters ...Filter) ([]T, error)
}

// Getter loads one document by id.
type Getter[T any] interface {
	Get(ctx context.Context, id uint) (*T, error)
}

// Deleter removes one document by id.
type Deleter interface {
	Delete(ctx context.Context, id uint) error
}

// ScopeFunc derives request specific filters, e.g. from nested route params.
type ScopeFunc func(c *gin.Context) ([]Filter, error)

// Features builds the full directive pipeline from the request query string.
func Features(c *gin.Context) apifeatures.Directives {
	return apifeatures.New(c.Request.URL.Query()).
		Filter().
		Sort().
		LimitFields().
		Paginate()
}

// GetAll lists documents filtered, sorted, projected and paginated by the query string.
func GetAll[T any](s Lister[T], scope ScopeFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filters []Filter
		if scope != nil {
			f, err := scope(c)
			if err != nil {
				_ = c.Error(err)
				return
			}
			filters = f
		}

		d := Features(c)
		docs, err := s.List(c.Request.Context(), d, filters...)
		if err != nil {
			_ = c.Error(err)
			return
		}
		shaped, err := d.Project(docs)
		if err != nil {
			_ = c.Error(err)
			return
		}
		response.List(c, len(docs), shaped)
	}
}

// GetOne returns the document named by the :id route parameter.
func GetOne[T any](s Getter[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := ParamID(c, "id")
		if err != nil {
			_ = c.Error(err)
			return
		}
		doc, err := s.Get(c.Request.Context(), id)
		if err != nil {
			_ = c.Error(err)
			return
		}
		response.Data(c, http.StatusOK, doc)
	}
}

// DeleteOne removes the document named by the :id route parameter.
func DeleteOne(s Deleter) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := ParamID(c, "id")
		if err != nil {
			_ = c.Error(err)
			return
		}
		if err := s.Delete(c.Request.Context(), id); err != nil {
			_ = c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// ParamID parses a positive numeric route parameter.
func ParamID(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.New(apperr.ErrBadRequest, "Invalid "+name+": "+raw)
	}
	return uint(id), nil
}

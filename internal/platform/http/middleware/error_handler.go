// Package middleware はAPI全体で共有するginミドルウェアを提供する。
package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"natours/internal/platform/apperr"
	"natours/internal/platform/db"
	"natours/internal/platform/http/response"
)

// Generic messages for non operational errors.
const (
	MsgGeneric     = "Something went very wrong!"
	MsgPageGeneric = "Please try again later."
)

// PageRenderer renders the HTML error page for non API requests.
type PageRenderer func(c *gin.Context, status int, msg string)

// ErrorHandlerConfig configures ErrorHandler.
type ErrorHandlerConfig struct {
	// Development exposes error details to clients.
	Development bool
	// RenderPage renders errors of non /api requests. When nil they get JSON too.
	RenderPage PageRenderer
}

// ErrorHandler はハンドラーがc.Errorで記録したエラーをレスポンスに変換する。
// 運用上のエラーはそのメッセージを、それ以外は汎用メッセージを返す。
func ErrorHandler(cfg ErrorHandlerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		status, msg, operational := Classify(err)

		attrs := []any{
			"error", err,
			"status", status,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"request_id", RequestID(c),
			"remote_addr", c.ClientIP(),
		}
		switch {
		case !operational || status >= http.StatusInternalServerError:
			slog.Error("request failed", attrs...)
		default:
			slog.Warn("request rejected", attrs...)
		}

		if c.Writer.Written() {
			return
		}

		if !isAPIRequest(c) && cfg.RenderPage != nil {
			if !operational && !cfg.Development {
				msg = MsgPageGeneric
			}
			cfg.RenderPage(c, status, msg)
			return
		}

		var detail string
		if cfg.Development {
			detail = err.Error()
		} else if !operational {
			msg = MsgGeneric
		}
		response.Failure(c, status, msg, detail)
	}
}

// Classify maps an error to its status and client message. operational is
// false for programming or unknown errors whose message must not leak.
func Classify(err error) (status int, msg string, operational bool) {
	if e, ok := apperr.As(err); ok {
		return e.Status(), e.Message, true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		return http.StatusBadRequest, "Invalid input data. " + strings.Join(msgs, ". "), true
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge, fmt.Sprintf("Request body exceeds %d bytes", maxErr.Limit), true
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return http.StatusBadRequest, "Invalid input data. Malformed JSON body.", true
	case errors.As(err, &typeErr):
		return http.StatusBadRequest, fmt.Sprintf("Invalid input data. Invalid %s: expected %s.", typeErr.Field, typeErr.Type), true
	case errors.Is(err, io.EOF):
		return http.StatusBadRequest, "Invalid input data. Request body is empty.", true
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, "No document found with that ID", true
	case db.IsDuplicateKey(err):
		return http.StatusBadRequest, "Duplicate field value. Please use another value!", true
	}

	return http.StatusInternalServerError, err.Error(), false
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "Please provide a valid email"
	case "eqfield":
		if strings.Contains(strings.ToLower(fe.Param()), "password") {
			return "Passwords are not the same!"
		}
		return fmt.Sprintf("%s must match %s", field, lowerFirst(fe.Param()))
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must have at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must have at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "ltfield":
		return fmt.Sprintf("%s must be below %s", field, lowerFirst(fe.Param()))
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}

// RegisterJSONFieldNames makes gin's validator report JSON field names.
func RegisterJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func isAPIRequest(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api")
}

package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apperrors "vanbiz/internal/errors"
)

// DefaultMaxBodySize caps request bodies read by the validator.
const DefaultMaxBodySize = 1 << 20

// ValidationMiddleware decodes JSON request bodies and checks their
// validate tags.
type ValidationMiddleware struct {
	validator    *validator.Validate
	logger       *slog.Logger
	errorHandler *apperrors.ErrorHandler
	maxBodySize  int64
}

// NewValidationMiddleware creates a validator that reports field errors by
// their JSON names.
func NewValidationMiddleware(logger *slog.Logger, errorHandler *apperrors.ErrorHandler) *ValidationMiddleware {
	if logger == nil {
		logger = slog.Default()
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &ValidationMiddleware{
		validator:    v,
		logger:       logger.With(slog.String("component", "validation_middleware")),
		errorHandler: errorHandler,
		maxBodySize:  DefaultMaxBodySize,
	}
}

// LimitBody caps the request body at the configured size.
func (m *ValidationMiddleware) LimitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > m.maxBodySize {
			m.errorHandler.HandleError(w, r, apperrors.NewWithDetails(
				http.StatusRequestEntityTooLarge,
				apperrors.CodePayloadTooLarge,
				"Request body exceeds maximum allowed size",
				map[string]interface{}{
					"max_size": m.maxBodySize,
					"size":     r.ContentLength,
				},
			))
			return
		}
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, m.maxBodySize)
		}
		next.ServeHTTP(w, r)
	})
}

// DecodeAndValidate reads the JSON body into v and validates it. An empty
// body leaves v as the caller prepared it. The returned error is an
// *apperrors.APIError ready for the error handler.
func (m *ValidationMiddleware) DecodeAndValidate(r *http.Request, v interface{}) error {
	if r.Body != nil && r.ContentLength != 0 {
		if err := render.DecodeJSON(r.Body, v); err != nil {
			m.logger.WarnContext(r.Context(), "invalid request body",
				slog.String("error", err.Error()),
				slog.String("request_id", GetRequestID(r.Context())),
			)
			return apperrors.NewWithDetails(http.StatusBadRequest, apperrors.CodeInvalidJSON,
				"Request body contains invalid JSON", err.Error())
		}
	}
	return m.ValidateStruct(v)
}

// ValidateStruct runs the validate tags of v.
func (m *ValidationMiddleware) ValidateStruct(v interface{}) error {
	err := m.validator.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.ErrValidation("", err.Error())
	}

	out := make([]apperrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, apperrors.ValidationError{
			Field:   fe.Field(),
			Message: formatFieldError(fe),
		})
	}
	return apperrors.NewValidationErrors(out)
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if", "required_unless":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// ContentTypeValidator rejects requests with a body whose media type is not
// listed.
func ContentTypeValidator(contentTypes ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength == 0 {
				next.ServeHTTP(w, r)
				return
			}

			mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err == nil {
				for _, ct := range contentTypes {
					if strings.EqualFold(mediaType, ct) {
						next.ServeHTTP(w, r)
						return
					}
				}
			}

			problem := apperrors.NewProblemDetails(
				http.StatusUnsupportedMediaType,
				apperrors.TypeBadParameter,
				"Unsupported Media Type",
				fmt.Sprintf("Content-Type must be one of: %s", strings.Join(contentTypes, ", ")),
				r.URL.Path,
			)
			render.Render(w, r, problem)
		})
	}
}

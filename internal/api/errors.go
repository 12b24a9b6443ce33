package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"

	"github.com/cancer-ai-portal/internal/domain"
	"github.com/cancer-ai-portal/internal/middleware"
)

// respondError writes the error envelope. extra fields are merged into the
// body alongside "error".
func (s *Server) respondError(c *gin.Context, err error, extra gin.H) {
	status, code, message := classifyError(err)

	entry := s.logger.WithError(err).WithField("correlation_id", c.GetString(middleware.CorrelationIDKey))
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}
	_ = c.Error(err)

	body := gin.H{}
	for k, v := range extra {
		body[k] = v
	}
	body["error"] = domain.NewPortalError(code, message, err.Error(), c.GetString(middleware.CorrelationIDKey))
	c.JSON(status, body)
}

func classifyError(err error) (int, string, string) {
	var fieldErr *domain.FieldError
	var validationErr *domain.ValidationError
	var backendErr *domain.BackendError

	switch {
	case errors.As(err, &fieldErr):
		return http.StatusUnprocessableEntity, domain.ErrCodeSelection, fieldErr.Message
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, domain.ErrCodeValidation, validationErr.Message
	case errors.Is(err, domain.ErrUnknownFeatureContext):
		return http.StatusBadRequest, domain.ErrCodeInvalidInput, "Unknown AI feature"
	case errors.Is(err, domain.ErrFlowNotFound):
		return http.StatusNotFound, domain.ErrCodeNotFound, "Flow not found or expired"
	case errors.Is(err, domain.ErrNewsNotFound):
		return http.StatusNotFound, domain.ErrCodeNotFound, "News article not found"
	case errors.Is(err, domain.ErrMissingNavigationState):
		return http.StatusConflict, domain.ErrCodeMissingState, "Missing data"
	case errors.Is(err, domain.ErrSubmissionPending):
		return http.StatusConflict, domain.ErrCodeConflict, "An upload is already in progress"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return http.StatusServiceUnavailable, domain.ErrCodeExternalAPI, "AI backend unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, domain.ErrCodeRequestTimeout, "Request timed out"
	case errors.As(err, &backendErr):
		if backendErr.StatusCode == http.StatusNotFound {
			return http.StatusNotFound, domain.ErrCodeNotFound, "Not found"
		}
		return http.StatusBadGateway, domain.ErrCodeExternalAPI, "AI backend error"
	default:
		return http.StatusBadGateway, domain.ErrCodeExternalAPI, "AI backend request failed"
	}
}

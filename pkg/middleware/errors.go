package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	pkgerrors "github.com/skolahq/skola/pkg/errors"
	"github.com/skolahq/skola/pkg/interfaces"
)

// ErrorResponse is the JSON body returned for every failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

// HTTPErrorHandler maps the application error taxonomy onto HTTP status
// codes. Reason codes travel to the client unchanged so it can render a
// precise message without parsing ours.
func HTTPErrorHandler(log interfaces.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		body := ErrorResponse{
			Code:    string(pkgerrors.ErrorTypeInternal),
			Message: http.StatusText(http.StatusInternalServerError),
		}

		var appErr *pkgerrors.AppError
		var httpErr *echo.HTTPError
		switch {
		case errors.As(err, &appErr):
			status = statusFor(appErr.Type)
			body.Code = string(appErr.Type)
			body.Reason = appErr.Reason
			if status < http.StatusInternalServerError {
				body.Message = appErr.Message
			}
		case errors.As(err, &httpErr):
			status = httpErr.Code
			body.Code = http.StatusText(status)
			if msg, ok := httpErr.Message.(string); ok {
				body.Message = msg
			}
		}

		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				interfaces.String("method", c.Request().Method),
				interfaces.String("path", c.Request().URL.Path),
				interfaces.Error(err))
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		if err := c.JSON(status, body); err != nil {
			log.Error("failed to write error response", interfaces.Error(err))
		}
	}
}

func statusFor(t pkgerrors.ErrorType) int {
	switch t {
	case pkgerrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case pkgerrors.ErrorTypeInvalid:
		return http.StatusBadRequest
	case pkgerrors.ErrorTypeConflict:
		return http.StatusConflict
	case pkgerrors.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case pkgerrors.ErrorTypeForbidden:
		return http.StatusForbidden
	case pkgerrors.ErrorTypeIllegalTransition, pkgerrors.ErrorTypeMissingPrerequisite:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

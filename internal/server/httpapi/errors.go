package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dmitrijs2005/clipvault/internal/common"
)

const categoryBadRequest = "bad_request"

type errorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func statusFor(category string) int {
	switch category {
	case common.CategoryInvalidName:
		return http.StatusBadRequest
	case common.CategoryForbidden:
		return http.StatusForbidden
	case common.CategoryNotFound:
		return http.StatusNotFound
	case common.CategoryBusy, common.CategoryNameTaken:
		return http.StatusConflict
	case common.CategoryQuotaExceeded:
		return http.StatusTooManyRequests
	case common.CategoryURLRejected:
		return http.StatusUnprocessableEntity
	case common.CategoryTimeout:
		return http.StatusGatewayTimeout
	case common.CategoryTransient, common.CategoryUploadFailed:
		return http.StatusBadGateway
	case common.CategoryResourceExhausted:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the one-category error body. Raw error text is logged, never
// returned.
func (s *Server) fail(c echo.Context, err error) error {
	cat := common.Category(err)
	status := statusFor(cat)
	ctx := c.Request().Context()
	if status >= http.StatusInternalServerError {
		s.logger.Error(ctx, "request failed", "category", cat, "error", err)
	} else {
		s.logger.Info(ctx, "request rejected", "category", cat, "error", err)
	}
	return c.JSON(status, errorBody{Error: cat, Message: common.UserMessage(err), Retryable: common.Retryable(err)})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorBody{Error: categoryBadRequest, Message: msg})
}

package controller

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainerror "github.com/finance-tracker/insights/internal/domain/error"
	"github.com/finance-tracker/insights/internal/integration/entrypoint/dto"
	"github.com/finance-tracker/insights/internal/integration/entrypoint/middleware"
)

// handleAnalyticsError handles analytics errors and returns appropriate HTTP responses.
func handleAnalyticsError(ctx *gin.Context, err error) {
	var analyticsErr *domainerror.AnalyticsError
	if errors.As(err, &analyticsErr) {
		statusCode := getStatusCodeForAnalyticsError(analyticsErr.Code)
		if statusCode >= http.StatusInternalServerError {
			slog.Error("Analytics request failed",
				"path", ctx.FullPath(),
				"code", string(analyticsErr.Code),
				"error", err.Error(),
			)
		}
		ctx.JSON(statusCode, dto.ErrorResponse{
			Error: analyticsErr.Message,
			Code:  string(analyticsErr.Code),
		})
		return
	}

	slog.Error("Unexpected error", "path", ctx.FullPath(), "error", err.Error())
	ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
		Error: "An internal error occurred",
		Code:  string(domainerror.ErrCodeAnalyticsInternalError),
	})
}

// getStatusCodeForAnalyticsError maps analytics error codes to HTTP status codes.
func getStatusCodeForAnalyticsError(code domainerror.AnalyticsErrorCode) int {
	switch code {
	case domainerror.ErrCodeMissingMonths,
		domainerror.ErrCodeInvalidMonthFormat,
		domainerror.ErrCodeInvalidAccountScope,
		domainerror.ErrCodeInvalidIdentifier,
		domainerror.ErrCodeSingleMonthRequired,
		domainerror.ErrCodeInvalidMetric,
		domainerror.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case domainerror.ErrCodeMissingUser:
		return http.StatusUnauthorized
	case domainerror.ErrCodeAccountNotFound,
		domainerror.ErrCodeSessionNotFound:
		return http.StatusNotFound
	case domainerror.ErrCodeSessionClosed:
		return http.StatusConflict
	case domainerror.ErrCodeRecomputeRateLimited:
		return http.StatusTooManyRequests
	case domainerror.ErrCodeLedgerUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// currentUser returns the requesting user, writing the unauthorized response
// when the request carries none.
func currentUser(ctx *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error: "User not identified",
			Code:  string(domainerror.ErrCodeMissingUser),
		})
		return uuid.Nil, false
	}
	return userID, true
}

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"ShopFulfillment/internal/api/domain/order"
	"ShopFulfillment/internal/api/domain/payment"
	"ShopFulfillment/internal/api/domain/token"

	"github.com/gin-gonic/gin"
)

const internalErrorMessage = "internal server error"

func statusFor(err error) int {
	switch {
	case errors.Is(err, order.ErrValidation),
		errors.Is(err, order.ErrInvalidQuery),
		errors.Is(err, token.ErrValidation),
		errors.Is(err, payment.ErrSignatureInvalid),
		errors.Is(err, payment.ErrMalformedEvent):
		return http.StatusBadRequest
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, token.ErrNotFound),
		errors.Is(err, token.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, token.ErrExpired):
		return http.StatusGone
	case errors.Is(err, token.ErrAlreadyConsumed):
		return http.StatusForbidden
	case errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders a domain error. Server errors are logged and the body stays generic.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "Request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			slog.Any("error", err))
		c.JSON(status, gin.H{"error": internalErrorMessage})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, message string, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message, "details": err.Error()})
}

package utils

import (
	"errors"
	"net/http"

	"capturemoments/services/errs"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code,omitempty"`
	// BookingID names the booking that blocks a conflicting request.
	BookingID string `json:"bookingId,omitempty"`
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				GetLogger().Error("Unhandled panic", zap.Any("error", err), zap.String("path", c.FullPath()))

				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, message string, details string) {
	GetLogger().Warn(message, zap.Int("status", status), zap.String("details", details))
	c.AbortWithStatusJSON(status, ErrorResponse{Message: message, Details: details})
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindBookingConflict, errs.KindStaleQuote, errs.KindInvalidState:
		return http.StatusConflict
	case errs.KindInvalidInterval, errs.KindInvalidInput:
		return http.StatusBadRequest
	case errs.KindDependencyUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// RespondError writes err with the status its kind maps to. Dependency
// failures are logged with their cause but not echoed to the client.
func RespondError(c *gin.Context, err error) {
	status := StatusFor(err)
	var e *errs.Error
	if !errors.As(err, &e) {
		GetLogger().Error("unclassified error", zap.String("path", c.FullPath()), zap.Error(err))
		c.AbortWithStatusJSON(status, ErrorResponse{Message: "Internal Server Error"})
		return
	}

	resp := ErrorResponse{Message: e.Message, Code: e.Code, BookingID: e.OverlappingBookingID}
	if e.Kind == errs.KindDependencyUnavailable {
		GetLogger().Error(e.Message, zap.String("path", c.FullPath()), zap.Error(err))
	} else {
		GetLogger().Debug(e.Message, zap.String("code", e.Code), zap.Int("status", status))
	}
	c.AbortWithStatusJSON(status, resp)
}

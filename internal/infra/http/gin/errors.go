package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"estatehub/internal/app/bus"
	"estatehub/internal/app/middleware"
	"estatehub/internal/domain/booking"
	"estatehub/internal/domain/pricing"
	"estatehub/internal/domain/property"
	"estatehub/internal/domain/shared/daterange"
)

var errBusUnavailable = errors.New("bus unavailable")

// httpStatusFor maps application and domain errors to a response code.
func httpStatusFor(err error) int {
	switch {
	case errors.Is(err, middleware.ErrInvalidMessage),
		errors.Is(err, daterange.ErrInvalidRange),
		errors.Is(err, pricing.ErrInvalidRate),
		errors.Is(err, booking.ErrCheckInInPast),
		errors.Is(err, booking.ErrUnknownStatus),
		errors.Is(err, booking.ErrInvalidGuests),
		errors.Is(err, booking.ErrGuestRequired),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, booking.ErrNotPropertyHost):
		return http.StatusForbidden
	case errors.Is(err, booking.ErrReservationNotFound),
		errors.Is(err, property.ErrPropertyNotFound):
		return http.StatusNotFound
	case errors.Is(err, booking.ErrDatesUnavailable),
		errors.Is(err, booking.ErrInvalidTransition),
		errors.Is(err, booking.ErrConcurrentUpdate),
		errors.Is(err, booking.ErrStayNotFinished),
		errors.Is(err, middleware.ErrIdempotencyKeyReused):
		return http.StatusConflict
	case errors.Is(err, property.ErrPropertyInactive):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errBusUnavailable), errors.Is(err, bus.ErrHandlerNotFound):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func respondWithError(c *gin.Context, logger *slog.Logger, err error) {
	status := httpStatusFor(err)
	_ = c.Error(err)
	if logger != nil && status >= http.StatusInternalServerError {
		logger.ErrorContext(c.Request.Context(), "request failed", "status", status, "error", err, "path", c.FullPath())
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: msg, RequestID: c.GetString("request_id")})
}

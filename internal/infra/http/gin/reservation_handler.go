package ginserver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"estatehub/internal/app/bus"
	"estatehub/internal/app/dto"
	"estatehub/internal/app/handlers/reservations"
	"estatehub/internal/domain/shared/daterange"
)

const IdempotencyHeader = "Idempotency-Key"

var errBadRequest = errors.New("bad request")

type ReservationHandler struct {
	Commands bus.CommandBus
	Queries  bus.QueryBus
	Logger   *slog.Logger
}

type createReservationRequest struct {
	PropertyID string         `json:"property_id"`
	GuestID    string         `json:"guest_id"`
	CheckIn    daterange.Date `json:"check_in"`
	CheckOut   daterange.Date `json:"check_out"`
	Guests     int            `json:"guests"`
}

type hostDecisionRequest struct {
	HostID string `json:"host_id"`
	Reason string `json:"reason"`
}

type cancelReservationRequest struct {
	Reason string `json:"reason"`
}

func (h ReservationHandler) Create(c *gin.Context) {
	if !h.commandsReady(c) {
		return
	}
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, h.Logger, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	cmd := reservations.RequestReservationCommand{
		PropertyID:      strings.TrimSpace(req.PropertyID),
		GuestID:         strings.TrimSpace(req.GuestID),
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
		Guests:          req.Guests,
		IdempotencyKeyV: strings.TrimSpace(c.GetHeader(IdempotencyHeader)),
	}
	result, err := bus.Dispatch[reservations.RequestReservationCommand, *dto.Reservation](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.Header("Location", "/api/v1/reservations/"+result.ID)
	c.JSON(http.StatusCreated, result)
}

func (h ReservationHandler) Confirm(c *gin.Context) {
	req, ok := h.hostDecision(c)
	if !ok {
		return
	}
	cmd := reservations.ConfirmReservationCommand{HostID: req.HostID, ReservationID: reservationID(c)}
	result, err := bus.Dispatch[reservations.ConfirmReservationCommand, *dto.ReservationAction](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) Reject(c *gin.Context) {
	req, ok := h.hostDecision(c)
	if !ok {
		return
	}
	cmd := reservations.RejectReservationCommand{HostID: req.HostID, ReservationID: reservationID(c), Reason: req.Reason}
	result, err := bus.Dispatch[reservations.RejectReservationCommand, *dto.ReservationAction](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) Cancel(c *gin.Context) {
	if !h.commandsReady(c) {
		return
	}
	var req cancelReservationRequest
	if !bindOptionalJSON(c, h.Logger, &req) {
		return
	}
	cmd := reservations.CancelReservationCommand{ReservationID: reservationID(c), Reason: strings.TrimSpace(req.Reason)}
	result, err := bus.Dispatch[reservations.CancelReservationCommand, *dto.Cancellation](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) Complete(c *gin.Context) {
	if !h.commandsReady(c) {
		return
	}
	cmd := reservations.CompleteReservationCommand{ReservationID: reservationID(c)}
	result, err := bus.Dispatch[reservations.CompleteReservationCommand, *dto.ReservationAction](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CancellationPreview takes an optional RFC 3339 "at" instant; now otherwise.
func (h ReservationHandler) CancellationPreview(c *gin.Context) {
	if h.Queries == nil {
		respondWithError(c, h.Logger, errBusUnavailable)
		return
	}
	var at time.Time
	if raw := strings.TrimSpace(c.Query("at")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondWithError(c, h.Logger, fmt.Errorf("%w: at: %w", errBadRequest, err))
			return
		}
		at = parsed
	}
	query := reservations.CancellationPreviewQuery{ReservationID: reservationID(c), At: at}
	result, err := bus.Ask[reservations.CancellationPreviewQuery, dto.CancellationPreview](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) hostDecision(c *gin.Context) (hostDecisionRequest, bool) {
	var req hostDecisionRequest
	if !h.commandsReady(c) || !bindOptionalJSON(c, h.Logger, &req) {
		return req, false
	}
	req.HostID = strings.TrimSpace(req.HostID)
	req.Reason = strings.TrimSpace(req.Reason)
	return req, true
}

func (h ReservationHandler) commandsReady(c *gin.Context) bool {
	if h.Commands == nil {
		respondWithError(c, h.Logger, errBusUnavailable)
		return false
	}
	return true
}

func bindOptionalJSON(c *gin.Context, logger *slog.Logger, out any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(out); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(c, logger, fmt.Errorf("%w: %w", errBadRequest, err))
		return false
	}
	return true
}

func reservationID(c *gin.Context) string {
	return strings.TrimSpace(c.Param("id"))
}

var _ ReservationHTTP = ReservationHandler{}

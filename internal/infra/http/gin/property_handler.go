package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"estatehub/internal/app/bus"
	"estatehub/internal/app/dto"
	availabilityapp "estatehub/internal/app/handlers/availability"
	pricingapp "estatehub/internal/app/handlers/pricing"
	"estatehub/internal/app/handlers/reservations"
	"estatehub/internal/domain/shared/daterange"
)

// PropertyHandler serves the read side of a property: quotes, availability
// and the host's reservation list.
type PropertyHandler struct {
	Queries bus.QueryBus
	Logger  *slog.Logger
}

func (h PropertyHandler) Quote(c *gin.Context) {
	checkIn, checkOut, ok := h.stay(c)
	if !ok {
		return
	}
	query := pricingapp.QuotePriceQuery{PropertyID: propertyID(c), CheckIn: checkIn, CheckOut: checkOut}
	result, err := bus.Ask[pricingapp.QuotePriceQuery, dto.Quote](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PropertyHandler) Availability(c *gin.Context) {
	checkIn, checkOut, ok := h.stay(c)
	if !ok {
		return
	}
	query := availabilityapp.CheckAvailabilityQuery{PropertyID: propertyID(c), CheckIn: checkIn, CheckOut: checkOut}
	result, err := bus.Ask[availabilityapp.CheckAvailabilityQuery, dto.Availability](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Calendar accepts an optional from/to window.
func (h PropertyHandler) Calendar(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	from, err := optionalDate(c.Query("from"))
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	to, err := optionalDate(c.Query("to"))
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	query := availabilityapp.GetCalendarQuery{PropertyID: propertyID(c), From: from, To: to}
	result, err := bus.Ask[availabilityapp.GetCalendarQuery, dto.Calendar](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PropertyHandler) Reservations(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	query := reservations.ListPropertyReservationsQuery{PropertyID: propertyID(c), Status: c.Query("status")}
	result, err := bus.Ask[reservations.ListPropertyReservationsQuery, dto.ReservationCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PropertyHandler) stay(c *gin.Context) (checkIn, checkOut daterange.Date, ok bool) {
	if !h.ready(c) {
		return checkIn, checkOut, false
	}
	dr, err := daterange.Parse(c.Query("check_in"), c.Query("check_out"))
	if err != nil {
		respondWithError(c, h.Logger, err)
		return checkIn, checkOut, false
	}
	return dr.CheckIn, dr.CheckOut, true
}

func (h PropertyHandler) ready(c *gin.Context) bool {
	if h.Queries == nil {
		respondWithError(c, h.Logger, errBusUnavailable)
		return false
	}
	return true
}

func propertyID(c *gin.Context) string {
	return strings.TrimSpace(c.Param("id"))
}

func optionalDate(raw string) (daterange.Date, error) {
	if strings.TrimSpace(raw) == "" {
		return daterange.Date{}, nil
	}
	return daterange.ParseDate(raw)
}

var _ PropertyHTTP = PropertyHandler{}

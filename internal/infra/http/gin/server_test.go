package ginserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"estatehub/internal/app/dto"
	"estatehub/internal/app/handlers/reservations"
	"estatehub/internal/app/service"
	"estatehub/internal/domain/property"
	ginserver "estatehub/internal/infra/http/gin"
	"estatehub/internal/infra/obs"
	"estatehub/internal/infra/storage/memory"
)

type ServerSuite struct {
	suite.Suite

	router  *gin.Engine
	box     *memory.Outbox
	metrics *obs.Metrics
	seq     atomic.Int64
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	props := memory.NewPropertyRepository()
	for _, fx := range []struct {
		id, host string
		active   bool
	}{{"p-1", "h-1", true}, {"p-off", "h-1", false}} {
		p, err := property.New(property.CreateParams{
			ID: property.ID(fx.id), Host: property.HostID(fx.host), Title: "Flat " + fx.id,
			PricePerNight: decimal.NewFromInt(100), Currency: "USD", Active: fx.active, Now: now,
		})
		s.Require().NoError(err)
		s.Require().NoError(props.Save(context.Background(), p))
	}

	s.seq.Store(0)
	s.box = memory.NewOutbox(nil)
	s.metrics = obs.NewMetrics("estatehub")
	svc := service.New(service.Options{
		UoWFactory:     memory.Factory{PropertiesRepo: props, ReservationsRepo: memory.NewReservationRepository(), Outbox: s.box},
		Outbox:         s.box,
		Idempotency:    memory.NewIdempotencyStore(),
		IdempotencyTTL: time.Hour,
		Observer:       s.metrics,
		Deps: reservations.Deps{
			Now:   func() time.Time { return now },
			NewID: func() string { return fmt.Sprintf("r-%d", s.seq.Add(1)) },
		},
	})
	s.router = ginserver.NewRouter(
		obs.Middleware{Metrics: s.metrics},
		obs.HealthHandlers{},
		ginserver.Handlers{
			Property:    ginserver.PropertyHandler{Queries: svc.Queries},
			Reservation: ginserver.ReservationHandler{Commands: svc.Commands, Queries: svc.Queries},
			Metrics:     s.metrics.Handler(),
		},
	)
}

func (s *ServerSuite) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *ServerSuite) decode(rec *httptest.ResponseRecorder, out any) {
	dec := json.NewDecoder(bytes.NewReader(rec.Body.Bytes()))
	dec.UseNumber()
	s.Require().NoError(dec.Decode(out), rec.Body.String())
}

func (s *ServerSuite) book(checkIn, checkOut string, headers ...string) *httptest.ResponseRecorder {
	body := fmt.Sprintf(`{"property_id":"p-1","guest_id":"g-1","check_in":%q,"check_out":%q,"guests":2}`, checkIn, checkOut)
	return s.do(http.MethodPost, "/api/v1/reservations", body, headers...)
}

func (s *ServerSuite) TestQuote() {
	rec := s.do(http.MethodGet, "/api/v1/properties/p-1/quote?check_in=2024-02-01&check_out=2024-02-04", "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var quote dto.Quote
	s.decode(rec, &quote)
	s.Equal(3, quote.Nights)
	s.Equal("300.00", quote.Subtotal.String())
	s.Equal("30.00", quote.ServiceFee.String())
	s.Equal("330.00", quote.Total.String())
	s.Equal("USD", quote.Currency)
}

func (s *ServerSuite) TestQuoteErrors() {
	cases := map[string]struct {
		path string
		want int
	}{
		"reversed range":   {"/api/v1/properties/p-1/quote?check_in=2024-02-04&check_out=2024-02-01", http.StatusBadRequest},
		"missing dates":    {"/api/v1/properties/p-1/quote", http.StatusBadRequest},
		"unknown property": {"/api/v1/properties/nope/quote?check_in=2024-02-01&check_out=2024-02-04", http.StatusNotFound},
		"inactive":         {"/api/v1/properties/p-off/quote?check_in=2024-02-01&check_out=2024-02-04", http.StatusUnprocessableEntity},
	}
	for name, tc := range cases {
		s.Run(name, func() {
			rec := s.do(http.MethodGet, tc.path, "")
			s.Equal(tc.want, rec.Code, rec.Body.String())
			s.Contains(rec.Body.String(), `"error"`)
		})
	}
}

func (s *ServerSuite) TestCreateReservationAndConflicts() {
	rec := s.book("2024-02-01", "2024-02-04", ginserver.IdempotencyHeader, "key-1")
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	s.Equal("/api/v1/reservations/r-1", rec.Header().Get("Location"))

	var created dto.Reservation
	s.decode(rec, &created)
	s.Equal("r-1", created.ID)
	s.Equal("pending", created.Status)
	s.Equal("330.00", created.Quote.Total.String())

	replay := s.book("2024-02-01", "2024-02-04", ginserver.IdempotencyHeader, "key-1")
	s.Require().Equal(http.StatusCreated, replay.Code)
	var replayed dto.Reservation
	s.decode(replay, &replayed)
	s.Equal("r-1", replayed.ID)

	reused := s.book("2024-03-01", "2024-03-04", ginserver.IdempotencyHeader, "key-1")
	s.Equal(http.StatusConflict, reused.Code)

	overlap := s.book("2024-02-03", "2024-02-05")
	s.Equal(http.StatusConflict, overlap.Code)

	backToBack := s.book("2024-02-04", "2024-02-06")
	s.Equal(http.StatusCreated, backToBack.Code, backToBack.Body.String())

	s.Len(s.box.Sent(), 2)
}

func (s *ServerSuite) TestCreateReservationValidation() {
	cases := map[string]string{
		"malformed json": `{"property_id":`,
		"bad date":       `{"property_id":"p-1","guest_id":"g-1","check_in":"02/01/2024","check_out":"2024-02-04","guests":1}`,
		"no guests":      `{"property_id":"p-1","guest_id":"g-1","check_in":"2024-02-01","check_out":"2024-02-04","guests":0}`,
		"past check-in":  `{"property_id":"p-1","guest_id":"g-1","check_in":"2023-12-30","check_out":"2024-01-02","guests":1}`,
	}
	for name, body := range cases {
		s.Run(name, func() {
			rec := s.do(http.MethodPost, "/api/v1/reservations", body)
			s.Equal(http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func (s *ServerSuite) TestAvailabilityAndCalendar() {
	s.Require().Equal(http.StatusCreated, s.book("2024-02-01", "2024-02-03").Code)

	rec := s.do(http.MethodGet, "/api/v1/properties/p-1/availability?check_in=2024-02-02&check_out=2024-02-05", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var avail dto.Availability
	s.decode(rec, &avail)
	s.False(avail.Available)
	s.Require().Len(avail.Conflicts, 1)
	s.Equal("r-1", avail.Conflicts[0].ReservationID)

	rec = s.do(http.MethodGet, "/api/v1/properties/p-1/availability?check_in=2024-02-03&check_out=2024-02-05", "")
	s.decode(rec, &avail)
	s.True(avail.Available)

	rec = s.do(http.MethodGet, "/api/v1/properties/p-1/calendar", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var cal dto.Calendar
	s.decode(rec, &cal)
	s.Equal([]string{"2024-02-01", "2024-02-02"}, cal.BlockedDates)

	rec = s.do(http.MethodGet, "/api/v1/properties/p-1/calendar?from=2024-02-02&to=2024-03-01", "")
	s.decode(rec, &cal)
	s.Equal([]string{"2024-02-02"}, cal.BlockedDates)

	rec = s.do(http.MethodGet, "/api/v1/properties/p-1/calendar?from=soon", "")
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *ServerSuite) TestHostDecisionsAndListing() {
	s.Require().Equal(http.StatusCreated, s.book("2024-02-01", "2024-02-03").Code)
	s.Require().Equal(http.StatusCreated, s.book("2024-03-01", "2024-03-03").Code)

	rec := s.do(http.MethodPost, "/api/v1/reservations/r-1/confirm", `{"host_id":"someone-else"}`)
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/reservations/r-1/confirm", `{"host_id":"h-1"}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var action dto.ReservationAction
	s.decode(rec, &action)
	s.Equal("confirmed", action.Status)

	rec = s.do(http.MethodPost, "/api/v1/reservations/r-1/reject", `{"host_id":"h-1"}`)
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/reservations/r-2/reject", `{"host_id":"h-1","reason":"maintenance"}`)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/reservations/r-9/confirm", `{"host_id":"h-1"}`)
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/reservations/r-1/confirm", "")
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/properties/p-1/reservations?status=confirmed", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var list dto.ReservationCollection
	s.decode(rec, &list)
	s.Require().Len(list.Items, 1)
	s.Equal("r-1", list.Items[0].ID)

	rec = s.do(http.MethodGet, "/api/v1/properties/p-1/reservations?status=archived", "")
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *ServerSuite) TestCancellationFlow() {
	s.Require().Equal(http.StatusCreated, s.book("2024-02-01", "2024-02-04").Code)

	rec := s.do(http.MethodGet, "/api/v1/reservations/r-1/cancellation-preview?at=2024-01-28T00:00:00Z", "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var preview dto.CancellationPreview
	s.decode(rec, &preview)
	s.Equal("half_refund", preview.Cancellation.Tier)
	s.Equal("150.00", preview.Cancellation.Refund.String())
	s.Equal("pending", preview.Status)

	rec = s.do(http.MethodGet, "/api/v1/reservations/r-1/cancellation-preview?at=tomorrow", "")
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/reservations/r-1/complete", "")
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/reservations/r-1/cancel", `{"reason":"flight cancelled"}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var cancelled dto.Cancellation
	s.decode(rec, &cancelled)
	s.Equal("full_refund", cancelled.Tier)
	s.Equal("300.00", cancelled.Refund.String())
	s.Equal("flight cancelled", cancelled.Reason)

	rec = s.do(http.MethodPost, "/api/v1/reservations/r-1/cancel", "")
	s.Equal(http.StatusConflict, rec.Code)

	s.Equal(http.StatusCreated, s.book("2024-02-01", "2024-02-04").Code)
}

func (s *ServerSuite) TestOperationalEndpoints() {
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/livez", "").Code)
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/readyz", "").Code)

	rec := s.do(http.MethodGet, "/api/v1/properties/p-1/quote?check_in=2024-02-01&check_out=2024-02-04", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.NotEmpty(rec.Header().Get(obs.RequestIDHeader))

	rec = s.do(http.MethodGet, "/metrics", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	body := rec.Body.String()
	s.Contains(body, `estatehub_bus_dispatch_total{key="pricing.quote",kind="query",outcome="ok"} 1`)
	s.Contains(body, `route="/api/v1/properties/:id/quote"`)
}

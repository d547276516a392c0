package property

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrPropertyNotFound = errors.New("property: not found")
	ErrPropertyInactive = errors.New("property: not accepting bookings")
	ErrTitleRequired    = errors.New("property: title is required")
	ErrHostRequired     = errors.New("property: host is required")
	ErrNightlyRate      = errors.New("property: nightly rate must be non-negative")
	ErrInvalidCurrency  = errors.New("property: currency must be a 3-letter code")
)

type ID string
type HostID string

// Property is the slice of a listing the booking flows depend on: who owns
// it and what a night costs.
type Property struct {
	ID            ID
	Host          HostID
	Title         string
	City          string
	Country       string
	PricePerNight decimal.Decimal
	Currency      string
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       int64
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Property, error)
	Save(ctx context.Context, p *Property) error
}

type CreateParams struct {
	ID            ID
	Host          HostID
	Title         string
	City          string
	Country       string
	PricePerNight decimal.Decimal
	Currency      string
	Active        bool
	Now           time.Time
}

func New(params CreateParams) (*Property, error) {
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if strings.TrimSpace(string(params.Host)) == "" {
		return nil, ErrHostRequired
	}
	if params.PricePerNight.IsNegative() {
		return nil, ErrNightlyRate
	}
	currency := strings.ToUpper(strings.TrimSpace(params.Currency))
	if len(currency) != 3 {
		return nil, ErrInvalidCurrency
	}
	now := params.Now.UTC()
	return &Property{
		ID:            params.ID,
		Host:          params.Host,
		Title:         strings.TrimSpace(params.Title),
		City:          strings.TrimSpace(params.City),
		Country:       strings.TrimSpace(params.Country),
		PricePerNight: params.PricePerNight,
		Currency:      currency,
		Active:        params.Active,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// EnsureBookable rejects properties that are not listed.
func (p *Property) EnsureBookable() error {
	if !p.Active {
		return ErrPropertyInactive
	}
	return nil
}

func (p *Property) Deactivate(now time.Time) {
	p.Active = false
	p.UpdatedAt = now.UTC()
}

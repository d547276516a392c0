package booking

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownStatus = errors.New("booking: unknown status")

// Status is the lifecycle state of a reservation as stored by the repository.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusPending, StatusConfirmed, StatusRejected, StatusCancelled, StatusCompleted:
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
}

// Blocks reports whether a booking in this status occupies calendar nights.
func (s Status) Blocks() bool {
	return s == StatusPending || s == StatusConfirmed
}

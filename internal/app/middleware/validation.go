package middleware

import (
	"context"
	"errors"
	"fmt"

	"estatehub/internal/app/bus"
)

// ErrInvalidMessage marks input rejected before reaching a handler. The
// underlying reason stays reachable through errors.Is.
var ErrInvalidMessage = errors.New("middleware: invalid message")

// Validatable messages check their own fields.
type Validatable interface {
	Validate() error
}

var validated around = func(ctx context.Context, _ string, msg bus.Message, next func(context.Context) (any, error)) (any, error) {
	if v, ok := msg.(Validatable); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidMessage, msg.Key(), err)
		}
	}
	return next(ctx)
}

func Validation() CommandMiddleware { return validated.commands() }

func QueryValidation() QueryMiddleware { return validated.queries() }

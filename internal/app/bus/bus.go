// Package bus routes commands and queries to their handlers.
package bus

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Message is anything routed by key.
type Message interface {
	Key() string
}

// Command is a write intent.
type Command interface {
	Message
}

// Query is a read request. Queries never mutate state.
type Query interface {
	Message
}

// Handler processes a message of type M and returns R.
type Handler[M Message, R any] interface {
	Handle(ctx context.Context, msg M) (R, error)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc[M Message, R any] func(ctx context.Context, msg M) (R, error)

func (f HandlerFunc[M, R]) Handle(ctx context.Context, msg M) (R, error) {
	return f(ctx, msg)
}

type CommandBus interface {
	Dispatch(ctx context.Context, cmd Command) (any, error)
}

type QueryBus interface {
	Ask(ctx context.Context, q Query) (any, error)
}

var (
	ErrHandlerNotFound = errors.New("bus: handler not found")
	ErrMessageType     = errors.New("bus: message type does not match handler")
	ErrResultType      = errors.New("bus: result type mismatch")
	ErrNilBus          = errors.New("bus: nil bus")
)

type route func(ctx context.Context, msg Message) (any, error)

// InMemory keeps command and query handlers in two separate tables.
// Registration is not synchronised and must finish before the first call.
type InMemory struct {
	commands map[string]route
	queries  map[string]route
}

func New() *InMemory {
	return &InMemory{
		commands: make(map[string]route),
		queries:  make(map[string]route),
	}
}

func (b *InMemory) Dispatch(ctx context.Context, cmd Command) (any, error) {
	return b.call(ctx, b.commands, cmd)
}

func (b *InMemory) Ask(ctx context.Context, q Query) (any, error) {
	return b.call(ctx, b.queries, q)
}

func (b *InMemory) call(ctx context.Context, table map[string]route, msg Message) (any, error) {
	if msg == nil {
		return nil, ErrHandlerNotFound
	}
	h, ok := table[msg.Key()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, msg.Key())
	}
	return h(ctx, msg)
}

// Keys lists registered command and query keys, sorted.
func (b *InMemory) Keys() (commands, queries []string) {
	return sortedKeys(b.commands), sortedKeys(b.queries)
}

func sortedKeys(m map[string]route) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// RegisterCommand binds h to the key reported by the zero value of C.
// C must be a struct type; registering the same key twice panics.
func RegisterCommand[C Command, R any](b *InMemory, h Handler[C, R]) {
	register(b, b.commands, h)
}

// RegisterQuery is RegisterCommand for the query table.
func RegisterQuery[Q Query, R any](b *InMemory, h Handler[Q, R]) {
	register(b, b.queries, h)
}

func register[M Message, R any](b *InMemory, table map[string]route, h Handler[M, R]) {
	if b == nil {
		panic("bus: nil bus")
	}
	if h == nil {
		panic("bus: nil handler")
	}
	var zero M
	key := zero.Key()
	if key == "" {
		panic("bus: empty key registration")
	}
	if _, dup := table[key]; dup {
		panic("bus: duplicate registration for " + key)
	}
	table[key] = func(ctx context.Context, raw Message) (any, error) {
		msg, ok := raw.(M)
		if !ok {
			return nil, fmt.Errorf("%w: %s got %T", ErrMessageType, key, raw)
		}
		return h.Handle(ctx, msg)
	}
}

// Dispatch sends cmd through bus and asserts the result type.
func Dispatch[C Command, R any](ctx context.Context, bus CommandBus, cmd C) (R, error) {
	var zero R
	if bus == nil {
		return zero, ErrNilBus
	}
	res, err := bus.Dispatch(ctx, cmd)
	if err != nil {
		return zero, err
	}
	return typed[R](res)
}

// Ask is Dispatch for queries.
func Ask[Q Query, R any](ctx context.Context, bus QueryBus, q Q) (R, error) {
	var zero R
	if bus == nil {
		return zero, ErrNilBus
	}
	res, err := bus.Ask(ctx, q)
	if err != nil {
		return zero, err
	}
	return typed[R](res)
}

func typed[R any](res any) (R, error) {
	var zero R
	if res == nil {
		return zero, nil
	}
	value, ok := res.(R)
	if !ok {
		return zero, fmt.Errorf("%w: got %T", ErrResultType, res)
	}
	return value, nil
}

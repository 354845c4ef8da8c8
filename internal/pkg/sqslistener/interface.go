package sqslistener

import "context"

// Callback receives decoded push events. It is invoked from the
// listener's receive loop and must not block for long.
type Callback func(Event)

// EventListener is the push transport lifecycle consumed by the bridge.
// Start and Stop are idempotent.
type EventListener interface {
	SetEventCallback(cb Callback)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

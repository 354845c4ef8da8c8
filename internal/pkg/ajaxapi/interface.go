package ajaxapi

import (
	"context"
	"time"

	"github.com/jake-scott/hass-ajax/internal/pkg/model"
)

// HubSummary is the short form returned by the hub listing endpoint.
type HubSummary struct {
	HubID string
	Name  string
}

// SecuritySystem is the vendor REST API surface the bridge consumes.
// Every call can fail with *AuthError (fatal) or *APIError (transient).
type SecuritySystem interface {
	WithTimeout(d time.Duration) SecuritySystem

	// WithCacheBypass returns a client whose reads skip the vendor's
	// server-side cache; used to re-derive true state after a failed
	// command.
	WithCacheBypass() SecuritySystem

	Hubs(ctx context.Context) ([]HubSummary, error)
	AccountSnapshot(ctx context.Context) (*model.Account, error)

	ArmSpace(ctx context.Context, spaceID string) error
	DisarmSpace(ctx context.Context, spaceID string) error
	ArmNight(ctx context.Context, spaceID string) error
	ArmGroup(ctx context.Context, spaceID, groupID string) error
	DisarmGroup(ctx context.Context, spaceID, groupID string) error
	UpdateDevice(ctx context.Context, hubID, deviceID string, patch map[string]interface{}) error

	Close() error
}

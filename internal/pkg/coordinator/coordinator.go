package coordinator

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jake-scott/hass-ajax/internal/pkg/ajaxapi"
	"github.com/jake-scott/hass-ajax/internal/pkg/logging"
	"github.com/jake-scott/hass-ajax/internal/pkg/model"
)

// DefaultPollInterval is the polling fallback period used when push
// events are not configured or the queue is quiet.
const DefaultPollInterval = time.Second * 30

// DefaultFailureThreshold is the number of consecutive refresh failures
// after which the coordinator reports itself not ready.
const DefaultFailureThreshold = 3

// Coordinator owns the authoritative Account mirror. It is the single
// writer: full refreshes build a fresh Account and swap the pointer,
// push events and optimistic command echoes patch single fields under
// the write lock. Readers get deep copies, so they always observe a
// complete snapshot from some refresh cycle.
type Coordinator struct {
	api       ajaxapi.SecuritySystem
	apiDirect ajaxapi.SecuritySystem // cache-bypassing variant

	mu       sync.RWMutex
	account  *model.Account
	failures int
	lastErr  error
	authErr  error

	subMu   sync.Mutex
	subs    map[int]func()
	nextSub int

	flight           singleflight.Group
	failureThreshold int
}

func New(api ajaxapi.SecuritySystem) *Coordinator {
	return &Coordinator{
		api:              api,
		apiDirect:        api.WithCacheBypass(),
		subs:             make(map[int]func()),
		failureThreshold: DefaultFailureThreshold,
	}
}

// WithFailureThreshold overrides the consecutive-failure count that
// flips Ready to false.
func (c *Coordinator) WithFailureThreshold(n int) *Coordinator {
	c.failureThreshold = n
	return c
}

// Subscribe registers a callback invoked synchronously after every
// successful model change. The returned function unsubscribes.
func (c *Coordinator) Subscribe(fn func()) func() {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subs, id)
	}
}

// notify signals every subscriber. Called after the model write, before
// any further network activity, so readers can pick up the new state
// immediately.
func (c *Coordinator) notify() {
	c.subMu.Lock()
	subs := make([]func(), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.subMu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

// Refresh fetches a complete account snapshot and swaps it in. If a
// refresh is already in flight the call attaches to its result instead
// of issuing a second fetch.
func (c *Coordinator) Refresh(ctx context.Context) error {
	return c.refresh(ctx, false)
}

// RefreshBypassCache is Refresh with the vendor's server-side cache
// skipped; used to re-derive true state after a failed command.
func (c *Coordinator) RefreshBypassCache(ctx context.Context) error {
	return c.refresh(ctx, true)
}

func (c *Coordinator) refresh(ctx context.Context, bypassCache bool) error {
	// Keyed per mode: a cache-bypassing refresh must not attach to an
	// in-flight cached fetch, which may predate the state it is meant
	// to re-derive
	key := "refresh"
	api := c.api
	if bypassCache {
		key = "refresh-bypass"
		api = c.apiDirect
	}

	_, err, shared := c.flight.Do(key, func() (interface{}, error) {
		account, err := api.AccountSnapshot(ctx)
		if err != nil {
			c.recordFailure(err)
			return nil, err
		}

		c.mu.Lock()
		c.account = account
		c.failures = 0
		c.lastErr = nil
		c.mu.Unlock()

		c.notify()
		return nil, nil
	})

	if shared {
		logging.Logger(ctx).Debug("refresh request coalesced onto in-flight fetch")
	}

	return err
}

func (c *Coordinator) recordFailure(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.failures++
	c.lastErr = err
	if ajaxapi.IsAuthError(err) {
		c.authErr = err
	}

	logging.Logger(nil).WithError(err).Warnf("account refresh failed (%d consecutive)", c.failures)
}

// Ready reports whether the coordinator holds usable data: at least one
// successful refresh, no authentication failure, and fewer consecutive
// transient failures than the threshold. Transient failures below the
// threshold keep the previous snapshot and stay ready (stale but
// available).
func (c *Coordinator) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.account != nil && c.authErr == nil && c.failures < c.failureThreshold
}

// LastError returns the error from the most recent failed refresh, or
// nil after a successful one.
func (c *Coordinator) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.authErr != nil {
		return c.authErr
	}
	return c.lastErr
}

// GetSpace returns a deep copy of the space, or nil if it is not in the
// current model.
func (c *Coordinator) GetSpace(spaceID string) *model.Space {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.account == nil {
		return nil
	}

	space, ok := c.account.Spaces[spaceID]
	if !ok {
		return nil
	}

	return space.DeepCopy()
}

// GetGroup returns a deep copy of the group, or nil.
func (c *Coordinator) GetGroup(spaceID, groupID string) *model.Group {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.account == nil {
		return nil
	}

	space, ok := c.account.Spaces[spaceID]
	if !ok {
		return nil
	}

	group, ok := space.Groups[groupID]
	if !ok {
		return nil
	}

	return group.DeepCopy()
}

// Account returns a deep copy of the whole mirror, or nil before the
// first successful refresh.
func (c *Coordinator) Account() *model.Account {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.account == nil {
		return nil
	}

	return c.account.DeepCopy()
}

// Poll runs the interval refresh fallback until ctx is cancelled.
// Failures are already recorded by refresh; the loop just keeps going.
func (c *Coordinator) Poll(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Logger(nil).Info("poll-loop: shutting down")
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				if ajaxapi.IsAuthError(err) {
					logging.Logger(nil).WithError(err).Error("poll-loop: authentication rejected, giving up")
					return
				}
				// Transient: previous snapshot stays up, next tick retries
			}
		}
	}
}

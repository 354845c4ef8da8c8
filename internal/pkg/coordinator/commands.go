package coordinator

import (
	"context"

	"github.com/jake-scott/hass-ajax/internal/pkg/logging"
	"github.com/jake-scott/hass-ajax/internal/pkg/model"
)

/*
 *  State-changing commands. Every command writes the expected
 *  post-command state into the model and signals readers before the
 *  network call goes out. On failure there is no field-by-field
 *  rollback: a cache-bypassing refresh re-derives true server state,
 *  and the caller gets a CommandError.
 */

// ArmSpace arms the whole space (away mode).
func (c *Coordinator) ArmSpace(ctx context.Context, spaceID string) error {
	return c.spaceCommand(ctx, "arm", spaceID, model.SecurityStateArmed, c.api.ArmSpace)
}

// DisarmSpace disarms the whole space.
func (c *Coordinator) DisarmSpace(ctx context.Context, spaceID string) error {
	return c.spaceCommand(ctx, "disarm", spaceID, model.SecurityStateDisarmed, c.api.DisarmSpace)
}

// ArmNightMode arms the space's night mode.
func (c *Coordinator) ArmNightMode(ctx context.Context, spaceID string) error {
	return c.spaceCommand(ctx, "arm-night", spaceID, model.SecurityStateNightMode, c.api.ArmNight)
}

func (c *Coordinator) spaceCommand(ctx context.Context, op, spaceID string, optimistic model.SecurityState, send func(context.Context, string) error) error {
	c.mu.Lock()
	if c.account == nil {
		c.mu.Unlock()
		return &NotFoundError{Kind: "space", ID: spaceID}
	}
	space, ok := c.account.Spaces[spaceID]
	if !ok {
		c.mu.Unlock()
		return &NotFoundError{Kind: "space", ID: spaceID}
	}

	// Optimistic echo; the next refresh reconciles exact server state
	// (exit timers and the like)
	space.SecurityState = optimistic
	c.mu.Unlock()
	c.notify()

	if err := send(ctx, spaceID); err != nil {
		c.commandFailed(ctx, op, err)
		return &CommandError{Op: op, Cause: err}
	}

	return nil
}

// ArmGroup arms a single group.
func (c *Coordinator) ArmGroup(ctx context.Context, spaceID, groupID string) error {
	return c.groupCommand(ctx, "arm-group", spaceID, groupID, model.GroupStateArmed, c.api.ArmGroup)
}

// DisarmGroup disarms a single group. The API is called even when the
// group already reports the target state; the vendor is the only
// authority on group state.
func (c *Coordinator) DisarmGroup(ctx context.Context, spaceID, groupID string) error {
	return c.groupCommand(ctx, "disarm-group", spaceID, groupID, model.GroupStateDisarmed, c.api.DisarmGroup)
}

func (c *Coordinator) groupCommand(ctx context.Context, op, spaceID, groupID string, optimistic model.GroupState, send func(context.Context, string, string) error) error {
	c.mu.Lock()
	if c.account == nil {
		c.mu.Unlock()
		return &NotFoundError{Kind: "space", ID: spaceID}
	}
	space, ok := c.account.Spaces[spaceID]
	if !ok {
		c.mu.Unlock()
		return &NotFoundError{Kind: "space", ID: spaceID}
	}
	group, ok := space.Groups[groupID]
	if !ok {
		c.mu.Unlock()
		return &NotFoundError{Kind: "group", ID: groupID}
	}

	group.State = optimistic
	c.mu.Unlock()
	c.notify()

	if err := send(ctx, spaceID, groupID); err != nil {
		c.commandFailed(ctx, op, err)
		return &CommandError{Op: op, Cause: err}
	}

	return nil
}

// UpdateDevice patches device settings (e.g. shock sensitivity, LED
// brightness). The patch is echoed into the device's attribute map
// before dispatch.
func (c *Coordinator) UpdateDevice(ctx context.Context, spaceID, deviceID string, patch map[string]interface{}) error {
	c.mu.Lock()
	if c.account == nil {
		c.mu.Unlock()
		return &NotFoundError{Kind: "space", ID: spaceID}
	}
	space, ok := c.account.Spaces[spaceID]
	if !ok {
		c.mu.Unlock()
		return &NotFoundError{Kind: "space", ID: spaceID}
	}
	device, ok := space.Devices[deviceID]
	if !ok {
		c.mu.Unlock()
		return &NotFoundError{Kind: "device", ID: deviceID}
	}

	hubID := space.HubID
	for k, v := range patch {
		mergeAttribute(device.Attributes, k, v)
	}
	c.mu.Unlock()
	c.notify()

	if err := c.api.UpdateDevice(ctx, hubID, deviceID, patch); err != nil {
		c.commandFailed(ctx, "update-device", err)
		return &CommandError{Op: "update-device", Cause: err}
	}

	return nil
}

// commandFailed triggers the forced refresh that supersedes the
// optimistic write. The refresh error, if any, is logged but not
// surfaced; the caller gets the original command failure.
func (c *Coordinator) commandFailed(ctx context.Context, op string, err error) {
	logging.Logger(ctx).WithError(err).Errorf("%s command failed, re-deriving state from server", op)

	if rerr := c.RefreshBypassCache(ctx); rerr != nil {
		logging.Logger(ctx).WithError(rerr).Warn("post-command refresh failed, model may lag until next poll")
	}
}

package coordinator

import (
	"time"

	"github.com/jake-scott/hass-ajax/internal/pkg/logging"
	"github.com/jake-scott/hass-ajax/internal/pkg/model"
	"github.com/jake-scott/hass-ajax/internal/pkg/sqslistener"
)

/*
 *  Push path. Events patch the live model in place instead of replacing
 *  the whole Account, so a chatty hub does not churn full snapshots.
 *  The queue gives no delivery guarantees we can lean on: duplicates
 *  and reordering must come out in the wash, so every application here
 *  is a plain overwrite (idempotent), and anything we cannot place is
 *  dropped - the next full refresh picks it up.
 */

// HandleEvent applies one push event to the model. It is registered as
// the listener's callback and never fails; unknown event types and
// unknown targets are logged and dropped.
func (c *Coordinator) HandleEvent(ev sqslistener.Event) {
	switch ev.Type {
	case sqslistener.EventTypeDeviceAttribute:
		c.applyDeviceAttribute(ev)
	case sqslistener.EventTypeSecurityState:
		c.applySecurityState(ev)
	case sqslistener.EventTypeGroupState:
		c.applyGroupState(ev)
	case sqslistener.EventTypeNotification:
		c.applyNotification(ev)
	default:
		logging.Logger(nil).Debugf("ignoring event with unknown type %q", ev.Type)
	}
}

func (c *Coordinator) applyDeviceAttribute(ev sqslistener.Event) {
	c.mu.Lock()

	device, ok := c.lookupDevice(ev.SpaceID, ev.DeviceID)
	if !ok {
		c.mu.Unlock()
		logging.Logger(nil).Debugf("dropping device event for unknown %s/%s", ev.SpaceID, ev.DeviceID)
		return
	}

	for k, v := range ev.Patch {
		if k == "online" {
			if online, ok := v.(bool); ok {
				device.Online = online
			}
			continue
		}
		mergeAttribute(device.Attributes, k, v)
	}

	c.mu.Unlock()
	c.notify()
}

// mergeAttribute writes one patch value. Map values merge key-wise into
// an existing map so a partial patch like {"channel": {"is_on": true}}
// does not drop the siblings of the keys it changes.
func mergeAttribute(attrs map[string]interface{}, k string, v interface{}) {
	patch, ok := v.(map[string]interface{})
	if !ok {
		attrs[k] = v
		return
	}

	existing, ok := attrs[k].(map[string]interface{})
	if !ok {
		attrs[k] = patch
		return
	}

	merged := make(map[string]interface{}, len(existing)+len(patch))
	for ek, ev := range existing {
		merged[ek] = ev
	}
	for pk, pv := range patch {
		merged[pk] = pv
	}
	attrs[k] = merged
}

func (c *Coordinator) applySecurityState(ev sqslistener.Event) {
	c.mu.Lock()

	space, ok := c.lookupSpace(ev.SpaceID)
	if !ok {
		c.mu.Unlock()
		logging.Logger(nil).Debugf("dropping security event for unknown space %s", ev.SpaceID)
		return
	}

	space.SecurityState = model.ParseSecurityState(ev.State)

	c.mu.Unlock()
	c.notify()
}

func (c *Coordinator) applyGroupState(ev sqslistener.Event) {
	c.mu.Lock()

	space, ok := c.lookupSpace(ev.SpaceID)
	if !ok {
		c.mu.Unlock()
		logging.Logger(nil).Debugf("dropping group event for unknown space %s", ev.SpaceID)
		return
	}

	group, ok := space.Groups[ev.GroupID]
	if !ok {
		c.mu.Unlock()
		logging.Logger(nil).Debugf("dropping group event for unknown group %s/%s", ev.SpaceID, ev.GroupID)
		return
	}

	group.State = model.ParseGroupState(ev.State)

	c.mu.Unlock()
	c.notify()
}

func (c *Coordinator) applyNotification(ev sqslistener.Event) {
	c.mu.Lock()

	space, ok := c.lookupSpace(ev.SpaceID)
	if !ok {
		c.mu.Unlock()
		logging.Logger(nil).Debugf("dropping notification for unknown space %s", ev.SpaceID)
		return
	}

	// Re-delivered notifications would duplicate the history; the ID
	// check keeps application idempotent
	if ev.NotificationID != "" {
		for _, n := range space.Notifications {
			if n.ID == ev.NotificationID {
				c.mu.Unlock()
				return
			}
		}
	}

	space.AddNotification(model.Notification{
		ID:        ev.NotificationID,
		Title:     ev.Title,
		Category:  ev.Category,
		Timestamp: time.Time(ev.Timestamp),
		UserName:  ev.UserName,
		Payload:   ev.Data,
	})
	space.UnreadNotifications++

	c.mu.Unlock()
	c.notify()
}

// lookupSpace and lookupDevice assume c.mu is held.
func (c *Coordinator) lookupSpace(spaceID string) (*model.Space, bool) {
	if c.account == nil {
		return nil, false
	}

	space, ok := c.account.Spaces[spaceID]
	return space, ok
}

func (c *Coordinator) lookupDevice(spaceID, deviceID string) (*model.Device, bool) {
	space, ok := c.lookupSpace(spaceID)
	if !ok {
		return nil, false
	}

	device, ok := space.Devices[deviceID]
	return device, ok
}

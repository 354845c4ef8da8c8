package coordinator

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/jake-scott/hass-ajax/internal/pkg/model"
	"github.com/jake-scott/hass-ajax/internal/pkg/sqslistener"
)

func refreshedCoordinator(t *testing.T) (*Coordinator, *mockAPI) {
	t.Helper()

	api := newMockAPI(testAccount())
	c := New(api)
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	return c, api
}

func TestDeviceAttributeEvent(t *testing.T) {
	c, _ := refreshedCoordinator(t)

	c.HandleEvent(sqslistener.Event{
		Type:     sqslistener.EventTypeDeviceAttribute,
		SpaceID:  "S1",
		DeviceID: "D1",
		Patch:    map[string]interface{}{"battery": float64(54), "online": false},
	})

	space := c.GetSpace("S1")
	d1 := space.Devices["D1"]
	if d1.Attributes["battery"] != float64(54) {
		t.Errorf("battery: got %v", d1.Attributes["battery"])
	}
	if d1.Online {
		t.Error("online flag not applied")
	}

	// Only the targeted device changes
	d2 := space.Devices["D2"]
	if d2.Attributes["battery"] != float64(80) || !d2.Online {
		t.Errorf("sibling device disturbed: %+v", d2)
	}
}

func TestDeviceAttributeEventIsIdempotent(t *testing.T) {
	c, _ := refreshedCoordinator(t)

	ev := sqslistener.Event{
		Type:     sqslistener.EventTypeDeviceAttribute,
		SpaceID:  "S1",
		DeviceID: "D1",
		Patch:    map[string]interface{}{"battery": float64(54)},
	}

	c.HandleEvent(ev)
	once := c.GetSpace("S1")
	c.HandleEvent(ev)
	twice := c.GetSpace("S1")

	if !reflect.DeepEqual(once.Devices["D1"], twice.Devices["D1"]) {
		t.Errorf("second delivery changed the device:\n%+v\n%+v",
			once.Devices["D1"], twice.Devices["D1"])
	}
}

func TestSecurityStateEvent(t *testing.T) {
	c, _ := refreshedCoordinator(t)

	c.HandleEvent(sqslistener.Event{
		Type:    sqslistener.EventTypeSecurityState,
		SpaceID: "S1",
		State:   "NIGHT_MODE",
	})

	if got := c.GetSpace("S1").SecurityState; got != model.SecurityStateNightMode {
		t.Errorf("state: got %q", got)
	}
}

func TestSecurityStateEventUnparsableState(t *testing.T) {
	c, _ := refreshedCoordinator(t)

	c.HandleEvent(sqslistener.Event{
		Type:    sqslistener.EventTypeSecurityState,
		SpaceID: "S1",
		State:   "SOMETHING_NEW",
	})

	// Unknown states fall back to disarmed rather than poisoning the
	// model
	if got := c.GetSpace("S1").SecurityState; got != model.SecurityStateDisarmed {
		t.Errorf("state: got %q", got)
	}
}

func TestGroupStateEvent(t *testing.T) {
	c, _ := refreshedCoordinator(t)

	c.HandleEvent(sqslistener.Event{
		Type:    sqslistener.EventTypeGroupState,
		SpaceID: "S1",
		GroupID: "G1",
		State:   "ARMED",
	})

	if got := c.GetGroup("S1", "G1").State; got != model.GroupStateArmed {
		t.Errorf("group state: got %q", got)
	}
}

func TestNotificationEvent(t *testing.T) {
	c, _ := refreshedCoordinator(t)

	var notified int
	c.Subscribe(func() { notified++ })

	ev := sqslistener.Event{
		Type:           sqslistener.EventTypeNotification,
		SpaceID:        "S1",
		NotificationID: "N1",
		Title:          "armed",
		Category:       "ARMING",
		UserName:       "Alice",
		Timestamp:      strfmt.DateTime(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)),
	}
	c.HandleEvent(ev)

	space := c.GetSpace("S1")
	if len(space.Notifications) != 1 || space.Notifications[0].ID != "N1" {
		t.Fatalf("notifications: %+v", space.Notifications)
	}
	if space.UnreadNotifications != 1 {
		t.Errorf("unread count: got %d", space.UnreadNotifications)
	}
	if notified != 1 {
		t.Errorf("subscriber runs: got %d", notified)
	}

	// Redelivery of the same notification is a no-op
	c.HandleEvent(ev)
	space = c.GetSpace("S1")
	if len(space.Notifications) != 1 {
		t.Errorf("duplicate notification stored: %+v", space.Notifications)
	}
	if space.UnreadNotifications != 1 {
		t.Errorf("unread count after redelivery: got %d", space.UnreadNotifications)
	}
}

func TestUnknownEventTypeIgnored(t *testing.T) {
	c, _ := refreshedCoordinator(t)

	var notified int
	c.Subscribe(func() { notified++ })

	before := c.Account()
	c.HandleEvent(sqslistener.Event{Type: "firmware_update", SpaceID: "S1"})
	after := c.Account()

	if !reflect.DeepEqual(before, after) {
		t.Error("unknown event type mutated the model")
	}
	if notified != 0 {
		t.Errorf("subscriber runs: got %d", notified)
	}
}

func TestEventForUnknownTarget(t *testing.T) {
	c, _ := refreshedCoordinator(t)

	before := c.Account()
	c.HandleEvent(sqslistener.Event{
		Type:     sqslistener.EventTypeDeviceAttribute,
		SpaceID:  "S1",
		DeviceID: "gone",
		Patch:    map[string]interface{}{"battery": float64(1)},
	})
	c.HandleEvent(sqslistener.Event{
		Type:    sqslistener.EventTypeSecurityState,
		SpaceID: "gone",
		State:   "ARMED",
	})

	if !reflect.DeepEqual(before, c.Account()) {
		t.Error("event for unknown target mutated the model")
	}
}

func TestEventBeforeFirstRefresh(t *testing.T) {
	api := newMockAPI(testAccount())
	c := New(api)

	// Must not panic with no snapshot loaded yet
	c.HandleEvent(sqslistener.Event{
		Type:    sqslistener.EventTypeSecurityState,
		SpaceID: "S1",
		State:   "ARMED",
	})

	if c.GetSpace("S1") != nil {
		t.Error("space materialised out of an event")
	}
}

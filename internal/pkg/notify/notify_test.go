package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jake-scott/hass-ajax/internal/pkg/ajaxapi"
	"github.com/jake-scott/hass-ajax/internal/pkg/coordinator"
	"github.com/jake-scott/hass-ajax/internal/pkg/entities"
	"github.com/jake-scott/hass-ajax/internal/pkg/model"
)

type stubSecuritySystem struct {
	account *model.Account
}

func (s *stubSecuritySystem) WithTimeout(time.Duration) ajaxapi.SecuritySystem { return s }
func (s *stubSecuritySystem) WithCacheBypass() ajaxapi.SecuritySystem          { return s }
func (s *stubSecuritySystem) Hubs(context.Context) ([]ajaxapi.HubSummary, error) {
	return nil, nil
}
func (s *stubSecuritySystem) AccountSnapshot(context.Context) (*model.Account, error) {
	return s.account.DeepCopy(), nil
}
func (s *stubSecuritySystem) ArmSpace(context.Context, string) error            { return nil }
func (s *stubSecuritySystem) DisarmSpace(context.Context, string) error         { return nil }
func (s *stubSecuritySystem) ArmNight(context.Context, string) error            { return nil }
func (s *stubSecuritySystem) ArmGroup(context.Context, string, string) error    { return nil }
func (s *stubSecuritySystem) DisarmGroup(context.Context, string, string) error { return nil }
func (s *stubSecuritySystem) UpdateDevice(context.Context, string, string, map[string]interface{}) error {
	return nil
}
func (s *stubSecuritySystem) Close() error { return nil }

func panelEntity(state string) []entities.Entity {
	return []entities.Entity{{
		ID:      "alarm_S1",
		Kind:    entities.KindAlarmPanel,
		SpaceID: "S1",
		State:   state,
	}}
}

func TestDiffSeedsBaselineQuietly(t *testing.T) {
	n := New(nil)

	if events := n.diff(panelEntity(entities.PanelDisarmed)); len(events) != 0 {
		t.Errorf("events on first observation: %+v", events)
	}

	events := n.diff(panelEntity(entities.PanelArmedAway))
	if len(events) != 1 {
		t.Fatalf("events: %+v", events)
	}
	if events[0].Type != EventArmed || events[0].EntityID != "alarm_S1" {
		t.Errorf("event: %+v", events[0])
	}
	if events[0].ID == "" {
		t.Error("event without id")
	}
}

func TestDiffIgnoresUnchangedState(t *testing.T) {
	n := New(nil)

	n.diff(panelEntity(entities.PanelArmedAway))
	if events := n.diff(panelEntity(entities.PanelArmedAway)); len(events) != 0 {
		t.Errorf("events without a state change: %+v", events)
	}
}

func TestDiffNewEntityAfterSeedIsQuiet(t *testing.T) {
	n := New(nil)

	n.diff(panelEntity(entities.PanelDisarmed))

	// A device added by a later refresh gets a baseline, not an event
	list := append(panelEntity(entities.PanelDisarmed), entities.Entity{
		ID: "D9_motion", Kind: entities.KindBinarySensor, SpaceID: "S1", State: false,
	})
	if events := n.diff(list); len(events) != 0 {
		t.Errorf("events for newly appeared entity: %+v", events)
	}
}

func TestEventTypes(t *testing.T) {
	tests := []struct {
		name   string
		entity entities.Entity
		want   string
	}{
		{"panel armed",
			entities.Entity{Kind: entities.KindAlarmPanel, State: entities.PanelArmedAway},
			EventArmed},
		{"panel disarmed",
			entities.Entity{Kind: entities.KindAlarmPanel, State: entities.PanelDisarmed},
			EventDisarmed},
		{"panel night",
			entities.Entity{Kind: entities.KindAlarmPanel, State: entities.PanelArmedNight},
			EventArmedNight},
		{"panel transitional",
			entities.Entity{Kind: entities.KindAlarmPanel, State: entities.PanelArming},
			EventSecurityStateChanged},
		{"group panel armed",
			entities.Entity{Kind: entities.KindGroupPanel, State: entities.PanelArmedAway},
			EventArmed},
		{"button press",
			entities.Entity{ID: "D1_last_action", Kind: entities.KindSensor, State: "single_press"},
			EventButtonPressed},
		{"plain sensor",
			entities.Entity{ID: "D1_battery", Kind: entities.KindSensor, State: 80},
			EventEntityUpdate},
		{"switch",
			entities.Entity{ID: "D3_switch", Kind: entities.KindSwitch, State: true},
			EventEntityUpdate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := eventType(tt.entity); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeliverPostsToEverySubscriber(t *testing.T) {
	var mu sync.Mutex
	var received []Event

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			t.Errorf("decoding: %v", err)
		}
		mu.Lock()
		received = append(received, ev)
		mu.Unlock()
	}))
	defer srv.Close()

	n := New(nil)
	n.Subscribe(srv.URL)
	n.Subscribe(srv.URL)

	n.deliver([]Event{{ID: "E1", Type: EventArmed, EntityID: "alarm_S1", SpaceID: "S1"}})

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 2 {
		t.Fatalf("deliveries: %d", len(received))
	}
	for _, ev := range received {
		if ev.Type != EventArmed || ev.EntityID != "alarm_S1" {
			t.Errorf("event: %+v", ev)
		}
	}
}

func TestUnsubscribe(t *testing.T) {
	var mu sync.Mutex
	posts := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		posts++
		mu.Unlock()
	}))
	defer srv.Close()

	n := New(nil)
	id := n.Subscribe(srv.URL)

	if !n.Unsubscribe(id) {
		t.Fatal("unsubscribe failed")
	}
	if n.Unsubscribe(id) {
		t.Error("double unsubscribe succeeded")
	}

	n.deliver([]Event{{ID: "E1", Type: EventArmed}})

	mu.Lock()
	defer mu.Unlock()
	if posts != 0 {
		t.Errorf("posts after unsubscribe: %d", posts)
	}
}

func TestStartStopLifecycle(t *testing.T) {
	coord := coordinator.New(&stubSecuritySystem{account: model.NewAccount()})
	n := New(entities.New(coord))

	n.Start(coord)

	// The subscription feeds refreshes through onChange
	if err := coord.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	n.Stop()
	n.Stop()

	if err := coord.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh after stop: %v", err)
	}
}

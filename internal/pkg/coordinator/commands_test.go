package coordinator

import (
	"context"
	"errors"
	"testing"

	"github.com/jake-scott/hass-ajax/internal/pkg/ajaxapi"
	"github.com/jake-scott/hass-ajax/internal/pkg/model"
)

func TestArmSpaceOptimisticEcho(t *testing.T) {
	api := newMockAPI(testAccount())
	c := New(api)

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	// Record the state the space is in every time subscribers run
	var seen []model.SecurityState
	c.Subscribe(func() {
		seen = append(seen, c.GetSpace("S1").SecurityState)
	})

	if err := c.ArmSpace(context.Background(), "S1"); err != nil {
		t.Fatalf("arm: %v", err)
	}

	if got := c.GetSpace("S1").SecurityState; got != model.SecurityStateArmed {
		t.Errorf("state after arm: got %q", got)
	}
	if len(seen) != 1 || seen[0] != model.SecurityStateArmed {
		t.Errorf("subscriber observations: %v", seen)
	}

	api.st.mu.Lock()
	defer api.st.mu.Unlock()
	if len(api.st.calls) != 1 || api.st.calls[0] != "armSpace" {
		t.Errorf("API calls: %v", api.st.calls)
	}
	if api.st.bypassCalls != 0 {
		t.Errorf("unexpected forced refresh on success")
	}
}

func TestCommandFailureReconcilesFromServer(t *testing.T) {
	api := newMockAPI(testAccount())
	c := New(api)

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	var seen []model.SecurityState
	c.Subscribe(func() {
		seen = append(seen, c.GetSpace("S1").SecurityState)
	})

	// The hub rejects the command; server truth stays disarmed
	api.st.mu.Lock()
	api.st.commandErr = &ajaxapi.APIError{StatusCode: 409, Detail: "door open"}
	api.st.mu.Unlock()

	err := c.ArmSpace(context.Background(), "S1")
	if err == nil {
		t.Fatal("expected command error")
	}

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("error type: %T", err)
	}
	var apiErr *ajaxapi.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 409 {
		t.Errorf("cause not preserved: %v", err)
	}

	// Optimistic echo first, then the forced refresh pulls the real
	// state back
	want := []model.SecurityState{model.SecurityStateArmed, model.SecurityStateDisarmed}
	if len(seen) != len(want) {
		t.Fatalf("subscriber observations: %v", seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("observation %d: got %q, want %q", i, seen[i], want[i])
		}
	}

	if got := c.GetSpace("S1").SecurityState; got != model.SecurityStateDisarmed {
		t.Errorf("state after reconcile: got %q", got)
	}

	api.st.mu.Lock()
	defer api.st.mu.Unlock()
	if api.st.bypassCalls != 1 {
		t.Errorf("bypass refreshes: got %d, want 1", api.st.bypassCalls)
	}
}

func TestCommandOnUnknownSpace(t *testing.T) {
	api := newMockAPI(testAccount())
	c := New(api)

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	err := c.ArmSpace(context.Background(), "nope")
	if !IsNotFound(err) {
		t.Fatalf("got %v, want not-found", err)
	}

	api.st.mu.Lock()
	defer api.st.mu.Unlock()
	if len(api.st.calls) != 0 {
		t.Errorf("API called for unknown space: %v", api.st.calls)
	}
}

func TestCommandBeforeFirstRefresh(t *testing.T) {
	api := newMockAPI(testAccount())
	c := New(api)

	if err := c.DisarmSpace(context.Background(), "S1"); !IsNotFound(err) {
		t.Fatalf("got %v, want not-found", err)
	}
}

func TestArmNightMode(t *testing.T) {
	api := newMockAPI(testAccount())
	c := New(api)

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if err := c.ArmNightMode(context.Background(), "S1"); err != nil {
		t.Fatalf("arm night: %v", err)
	}

	if got := c.GetSpace("S1").SecurityState; got != model.SecurityStateNightMode {
		t.Errorf("state: got %q", got)
	}
}

func TestArmGroupOptimisticEcho(t *testing.T) {
	api := newMockAPI(testAccount())
	c := New(api)

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if err := c.ArmGroup(context.Background(), "S1", "G1"); err != nil {
		t.Fatalf("arm group: %v", err)
	}

	if got := c.GetGroup("S1", "G1").State; got != model.GroupStateArmed {
		t.Errorf("group state: got %q", got)
	}
}

func TestDisarmGroupAlreadyDisarmed(t *testing.T) {
	api := newMockAPI(testAccount())
	c := New(api)

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	// The group is already disarmed; the hub still gets the command so
	// it can resolve any disagreement
	if err := c.DisarmGroup(context.Background(), "S1", "G1"); err != nil {
		t.Fatalf("disarm group: %v", err)
	}

	api.st.mu.Lock()
	defer api.st.mu.Unlock()
	if len(api.st.calls) != 1 || api.st.calls[0] != "disarmGroup" {
		t.Errorf("API calls: %v", api.st.calls)
	}
}

func TestUpdateDeviceMergesPatch(t *testing.T) {
	api := newMockAPI(testAccount())
	c := New(api)

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	patch := map[string]interface{}{"ledBrightness": "HIGH"}
	if err := c.UpdateDevice(context.Background(), "S1", "D1", patch); err != nil {
		t.Fatalf("update: %v", err)
	}

	space := c.GetSpace("S1")
	attrs := space.Devices["D1"].Attributes
	if attrs["ledBrightness"] != "HIGH" {
		t.Errorf("patched attribute missing: %v", attrs)
	}
	if attrs["battery"] != float64(90) {
		t.Errorf("existing attribute lost: %v", attrs)
	}

	api.st.mu.Lock()
	defer api.st.mu.Unlock()
	if len(api.st.calls) != 1 || api.st.calls[0] != "updateDevice" {
		t.Errorf("API calls: %v", api.st.calls)
	}
}

func TestUpdateDeviceMergesNestedMaps(t *testing.T) {
	account := testAccount()
	account.Spaces["S1"].Devices["D3"] = &model.Device{
		ID: "D3", Name: "Heater", Type: model.DeviceTypeSocket, HubID: "S1", Online: true,
		Attributes: map[string]interface{}{
			"channel": map[string]interface{}{
				"channel_id": float64(2), "is_on": false, "is_enabled": true,
			},
		},
	}

	api := newMockAPI(account)
	c := New(api)
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	patch := map[string]interface{}{
		"channel": map[string]interface{}{"channel_id": 2, "is_on": true},
	}
	if err := c.UpdateDevice(context.Background(), "S1", "D3", patch); err != nil {
		t.Fatalf("update: %v", err)
	}

	space := c.GetSpace("S1")
	ch, ok := space.Devices["D3"].Attributes["channel"].(map[string]interface{})
	if !ok {
		t.Fatalf("channel attribute: %v", space.Devices["D3"].Attributes)
	}
	if ch["is_on"] != true {
		t.Errorf("patched key not applied: %v", ch)
	}
	if ch["is_enabled"] != true {
		t.Errorf("sibling key lost in echo: %v", ch)
	}
}

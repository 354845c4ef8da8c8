package model

import (
	"fmt"
	"testing"
	"time"
)

func TestParseSecurityState(t *testing.T) {
	tests := []struct {
		raw  string
		want SecurityState
	}{
		{"ARMED", SecurityStateArmed},
		{"armed", SecurityStateArmed},
		{"NIGHT_MODE", SecurityStateNightMode},
		{"AWAITING_EXIT_TIMER", SecurityStateAwaitingExitTimer},
		{"TRIGGERED", SecurityStateTriggered},
		{"", SecurityStateDisarmed},
		{"SOME_FUTURE_STATE", SecurityStateDisarmed},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := ParseSecurityState(tt.raw); got != tt.want {
				t.Errorf("ParseSecurityState(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseGroupState(t *testing.T) {
	if got := ParseGroupState("disarmed"); got != GroupStateDisarmed {
		t.Errorf("got %q, want DISARMED", got)
	}
	if got := ParseGroupState("PENDING"); got != GroupStateNone {
		t.Errorf("unknown state: got %q, want NONE", got)
	}
}

func TestParseDeviceType(t *testing.T) {
	tests := []struct {
		raw  string
		want DeviceType
	}{
		{"MotionProtect", DeviceTypeMotionDetector},
		{"motion_protect", DeviceTypeMotionDetector},
		{"DoorProtectPlus", DeviceTypeDoorContact},
		{"FireProtect2", DeviceTypeSmokeDetector},
		{"WallSwitch", DeviceTypeWallSwitch},
		{"SpaceControl", DeviceTypeRemoteControl},
		{"Hub2Plus", DeviceTypeHub},
		{"SomethingNew", DeviceTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := ParseDeviceType(tt.raw); got != tt.want {
				t.Errorf("ParseDeviceType(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSpaceDerivedQueries(t *testing.T) {
	s := &Space{
		Devices: map[string]*Device{
			"d1": {ID: "d1", Online: true, Attributes: map[string]interface{}{}},
			"d2": {ID: "d2", Online: false, Attributes: map[string]interface{}{
				"malfunctions": []interface{}{"LOST_CONNECTION"},
			}},
			"d3": {ID: "d3", Online: true, Attributes: map[string]interface{}{
				"bypassed": true,
			}},
		},
	}

	if got := len(s.OnlineDevices()); got != 2 {
		t.Errorf("OnlineDevices: got %d, want 2", got)
	}
	if got := len(s.DevicesWithMalfunctions()); got != 1 {
		t.Errorf("DevicesWithMalfunctions: got %d, want 1", got)
	}
	if got := len(s.BypassedDevices()); got != 1 {
		t.Errorf("BypassedDevices: got %d, want 1", got)
	}
}

func TestDeviceBypassedModes(t *testing.T) {
	d := &Device{Attributes: map[string]interface{}{"bypassMode": "FULLY_BYPASSED"}}
	if !d.Bypassed() {
		t.Error("bypassMode FULLY_BYPASSED should report bypassed")
	}

	d = &Device{Attributes: map[string]interface{}{"bypassMode": "OFF"}}
	if d.Bypassed() {
		t.Error("bypassMode OFF should not report bypassed")
	}

	d = &Device{Attributes: map[string]interface{}{}}
	if d.Bypassed() {
		t.Error("no bypass attribute should not report bypassed")
	}
}

func TestAddNotificationBounded(t *testing.T) {
	s := &Space{}

	for i := 0; i < MaxNotifications+10; i++ {
		s.AddNotification(Notification{
			ID:        fmt.Sprintf("n%d", i),
			Timestamp: time.Now(),
		})
	}

	if len(s.Notifications) != MaxNotifications {
		t.Fatalf("history length %d, want %d", len(s.Notifications), MaxNotifications)
	}

	// Most recent first
	if s.Notifications[0].ID != fmt.Sprintf("n%d", MaxNotifications+9) {
		t.Errorf("newest notification is %s", s.Notifications[0].ID)
	}
}

func TestChangedBy(t *testing.T) {
	s := &Space{}
	s.AddNotification(Notification{Title: "device_offline", UserName: "nobody"})
	if got := s.ChangedBy(); got != "" {
		t.Errorf("non-arming notification: got %q, want empty", got)
	}

	s.AddNotification(Notification{Title: "armed", UserName: "alice"})
	s.AddNotification(Notification{Title: "motion_detected"})
	if got := s.ChangedBy(); got != "alice" {
		t.Errorf("got %q, want alice", got)
	}
}

func TestHubDetailProjection(t *testing.T) {
	s := &Space{
		HubDetails: map[string]interface{}{
			"hubSubtype": "HUB_2_PLUS",
			"color":      "WHITE",
			"firmware":   map[string]interface{}{"version": "2.17.1"},
			"hardwareVersions": map[string]interface{}{
				"pcb": "3",
			},
		},
	}

	if got := s.HubModelName(); got != "Hub 2 Plus (White)" {
		t.Errorf("HubModelName: got %q", got)
	}
	if got := s.HubFirmwareVersion(); got != "2.17.1" {
		t.Errorf("HubFirmwareVersion: got %q", got)
	}
	if got := s.HubHardwareVersion(); got != "PCB rev.3" {
		t.Errorf("HubHardwareVersion: got %q", got)
	}

	empty := &Space{}
	if got := empty.HubModelName(); got != "Security Hub" {
		t.Errorf("default model name: got %q", got)
	}
	if got := empty.HubFirmwareVersion(); got != "" {
		t.Errorf("default firmware: got %q", got)
	}
}

func TestVideoEdgeProjection(t *testing.T) {
	v := &VideoEdge{
		Type:            VideoEdgeTypeTurret,
		Color:           "BLACK",
		ConnectionState: "online",
	}

	if got := v.ModelName(); got != "TurretCam (Black)" {
		t.Errorf("ModelName: got %q", got)
	}
	if !v.Online() {
		t.Error("connection state online should report Online")
	}

	v.ConnectionState = "DISCONNECTED"
	if v.Online() {
		t.Error("disconnected camera should not report Online")
	}
}

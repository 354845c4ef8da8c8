package model

import (
	"fmt"
	"strings"
	"time"
)

/*
 *  In-memory mirror of the Ajax account graph. Pure data plus a handful
 *  of read-only projections; all mutation happens in the coordinator
 *  under its single-writer discipline.
 */

// MaxNotifications bounds the per-space notification history; the oldest
// entries are dropped.
const MaxNotifications = 50

// Account is the root of the mirror: one Ajax account with all of its
// spaces. A full refresh replaces the whole value, never patches it.
type Account struct {
	Spaces map[string]*Space
}

func NewAccount() *Account {
	return &Account{
		Spaces: make(map[string]*Space),
	}
}

// Space is one physical site: a single hub with its groups, rooms,
// devices, cameras and notification history.
type Space struct {
	ID               string
	Name             string
	HubID            string
	SecurityState    SecurityState
	GroupModeEnabled bool

	// Raw hub detail blob from the vendor (firmware, hardware, colour...)
	HubDetails map[string]interface{}

	Groups     map[string]*Group
	Rooms      map[string]*Room
	Devices    map[string]*Device
	VideoEdges map[string]*VideoEdge

	// Most recent first, capped at MaxNotifications
	Notifications       []Notification
	UnreadNotifications int
}

// Group is an independently armable subset of a space's devices. Devices
// are referenced by ID only; the space owns them.
type Group struct {
	ID                 string
	Name               string
	State              GroupState
	NightModeEnabled   bool
	BulkArmInvolved    bool
	BulkDisarmInvolved bool
	DeviceIDs          []string
}

// Room is a display grouping of devices; it has no arming semantics.
type Room struct {
	ID        string
	Name      string
	DeviceIDs []string
}

// Device is a single sensor or actuator. BatteryLevel and SignalStrength
// are nil when the vendor does not report them (wired devices, hubs).
// Attributes carries the vendor-schema-dependent readings and settings.
type Device struct {
	ID             string
	Name           string
	Type           DeviceType
	RawType        string
	HubID          string
	RoomID         string
	Online         bool
	BatteryLevel   *int
	SignalStrength *int
	Attributes     map[string]interface{}
}

// Notification is one audit entry from the hub event log.
type Notification struct {
	ID        string
	Title     string
	Category  string
	Timestamp time.Time
	UserName  string
	Payload   map[string]interface{}
}

// VideoEdge is a camera or NVR attached to the space.
type VideoEdge struct {
	ID              string
	Name            string
	IPAddress       string
	MACAddress      string
	FirmwareVersion string
	ConnectionState string
	Color           string
	Type            VideoEdgeType
}

// Online reports whether the camera is currently reachable.
func (v *VideoEdge) Online() bool {
	return strings.EqualFold(v.ConnectionState, "ONLINE")
}

// ModelName combines the hardware category with the colour, the way the
// vendor app displays it.
func (v *VideoEdge) ModelName() string {
	name := v.Type.ModelName()
	if v.Color != "" {
		return fmt.Sprintf("%s (%s)", name, titleCase(v.Color))
	}

	return name
}

// titleCase upper-cases the first letter of each space separated word.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}

	return strings.Join(words, " ")
}

// OnlineDevices returns the devices currently reported online.
func (s *Space) OnlineDevices() []*Device {
	var out []*Device
	for _, d := range s.Devices {
		if d.Online {
			out = append(out, d)
		}
	}

	return out
}

// DevicesWithMalfunctions returns devices with at least one active
// malfunction flag.
func (s *Space) DevicesWithMalfunctions() []*Device {
	var out []*Device
	for _, d := range s.Devices {
		if d.HasMalfunction() {
			out = append(out, d)
		}
	}

	return out
}

// BypassedDevices returns devices whose alarm reactions are bypassed.
func (s *Space) BypassedDevices() []*Device {
	var out []*Device
	for _, d := range s.Devices {
		if d.Bypassed() {
			out = append(out, d)
		}
	}

	return out
}

// HasMalfunction reports whether the vendor lists any malfunction for the
// device.
func (d *Device) HasMalfunction() bool {
	v, ok := d.Attributes["malfunctions"]
	if !ok {
		return false
	}

	switch m := v.(type) {
	case []interface{}:
		return len(m) > 0
	case []string:
		return len(m) > 0
	case bool:
		return m
	}

	return false
}

// Bypassed reports whether the device's alarm reactions are disabled.
func (d *Device) Bypassed() bool {
	if v, ok := d.Attributes["bypassed"].(bool); ok {
		return v
	}
	if v, ok := d.Attributes["bypassMode"].(string); ok {
		return v != "" && !strings.EqualFold(v, "OFF")
	}

	return false
}

// AddNotification prepends a notification and trims the history to
// MaxNotifications.
func (s *Space) AddNotification(n Notification) {
	s.Notifications = append([]Notification{n}, s.Notifications...)
	if len(s.Notifications) > MaxNotifications {
		s.Notifications = s.Notifications[:MaxNotifications]
	}
}

// Arm/disarm notification titles that identify who last changed the
// arming state.
var armingTitles = map[string]bool{
	"armed":           true,
	"disarmed":        true,
	"night_mode_on":   true,
	"partially_armed": true,
}

// ChangedBy returns the user behind the most recent arm/disarm
// notification, or "" if none is recorded.
func (s *Space) ChangedBy() string {
	for _, n := range s.Notifications {
		if armingTitles[n.Title] && n.UserName != "" {
			return n.UserName
		}
	}

	return ""
}

// HubModelName derives a display model name from the hub detail blob,
// e.g. "Hub 2 Plus (White)".
func (s *Space) HubModelName() string {
	subtype := "Security Hub"
	if v, ok := s.HubDetails["hubSubtype"].(string); ok && v != "" {
		subtype = titleCase(strings.ReplaceAll(v, "_", " "))
	}

	if color, ok := s.HubDetails["color"].(string); ok && color != "" {
		return fmt.Sprintf("%s (%s)", subtype, titleCase(color))
	}

	return subtype
}

// HubFirmwareVersion returns the hub firmware version, or "".
func (s *Space) HubFirmwareVersion() string {
	fw, ok := s.HubDetails["firmware"].(map[string]interface{})
	if !ok {
		return ""
	}

	v, _ := fw["version"].(string)
	return v
}

// HubHardwareVersion returns the PCB revision as "PCB rev.N", or "".
func (s *Space) HubHardwareVersion() string {
	hw, ok := s.HubDetails["hardwareVersions"].(map[string]interface{})
	if !ok {
		return ""
	}

	pcb, ok := hw["pcb"]
	if !ok || pcb == nil {
		return ""
	}

	return fmt.Sprintf("PCB rev.%v", pcb)
}

package entities

import (
	"fmt"
	"sort"

	"github.com/jake-scott/hass-ajax/internal/pkg/coordinator"
	"github.com/jake-scott/hass-ajax/internal/pkg/devices"
	"github.com/jake-scott/hass-ajax/internal/pkg/model"
)

/*
 *  Entity projection layer. The coordinator owns the account snapshot;
 *  this package turns it into flat entity descriptors the host runtime
 *  consumes (alarm panels, binary sensors, sensors, switches, selects,
 *  cameras) and routes entity commands back to the coordinator.
 */

// Entity kinds, one per host platform.
const (
	KindAlarmPanel   = "alarm_panel"
	KindGroupPanel   = "group_alarm_panel"
	KindBinarySensor = "binary_sensor"
	KindSensor       = "sensor"
	KindSwitch       = "switch"
	KindSelect       = "select"
	KindCamera       = "camera"
)

// Host-facing alarm panel states.
const (
	PanelDisarmed   = "disarmed"
	PanelArmedAway  = "armed_away"
	PanelArmedNight = "armed_night"
	PanelArmedHome  = "armed_home"
	PanelArming     = "arming"
	PanelPending    = "pending"
	PanelTriggered  = "triggered"
)

// Entity is one observable the bridge exposes to the host runtime.
type Entity struct {
	ID         string                 `json:"id"`
	Kind       string                 `json:"kind"`
	Name       string                 `json:"name"`
	SpaceID    string                 `json:"spaceId"`
	DeviceID   string                 `json:"deviceId,omitempty"`
	GroupID    string                 `json:"groupId,omitempty"`
	Class      string                 `json:"class,omitempty"`
	Unit       string                 `json:"unit,omitempty"`
	Options    []string               `json:"options,omitempty"`
	State      interface{}            `json:"state"`
	Available  bool                   `json:"available"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// Platform projects the coordinator's snapshot into entities.
type Platform struct {
	coord *coordinator.Coordinator
}

func New(coord *coordinator.Coordinator) *Platform {
	return &Platform{coord: coord}
}

var panelStates = map[model.SecurityState]string{
	model.SecurityStateDisarmed:             PanelDisarmed,
	model.SecurityStateArmed:                PanelArmedAway,
	model.SecurityStateNightMode:            PanelArmedNight,
	model.SecurityStatePartiallyArmed:       PanelArmedHome,
	model.SecurityStateAwaitingExitTimer:    PanelArming,
	model.SecurityStateAwaitingConfirmation: PanelPending,
	model.SecurityStateArmingIncomplete:     PanelArming,
	model.SecurityStateTriggered:            PanelTriggered,
}

// PanelState maps a space arming state to the host's panel vocabulary.
func PanelState(s model.SecurityState) string {
	if v, ok := panelStates[s]; ok {
		return v
	}

	return PanelDisarmed
}

// GroupPanelState maps a group state to the host's panel vocabulary.
func GroupPanelState(s model.GroupState) string {
	if s == model.GroupStateArmed {
		return PanelArmedAway
	}

	return PanelDisarmed
}

// List returns every entity the current snapshot supports, in a stable
// order. Returns an empty slice before the first successful refresh.
func (p *Platform) List() []Entity {
	account := p.coord.Account()
	if account == nil {
		return []Entity{}
	}

	var out []Entity
	for _, spaceID := range sortedKeys(account.Spaces) {
		space := account.Spaces[spaceID]

		out = append(out, p.alarmPanel(space))
		if space.GroupModeEnabled {
			for _, groupID := range sortedKeys(space.Groups) {
				out = append(out, p.groupPanel(space, space.Groups[groupID]))
			}
		}

		for _, deviceID := range sortedKeys(space.Devices) {
			out = append(out, p.deviceEntities(space, space.Devices[deviceID])...)
		}

		for _, edgeID := range sortedKeys(space.VideoEdges) {
			edge := space.VideoEdges[edgeID]
			if edge.IPAddress == "" {
				continue
			}
			out = append(out, p.camera(space, edge))
		}
	}

	return out
}

// The panel stays available through transient API failures so the host
// keeps showing the last known state instead of flapping to unavailable.
func (p *Platform) alarmPanel(space *model.Space) Entity {
	attrs := map[string]interface{}{
		"space_id":                  space.ID,
		"space_name":                space.Name,
		"hub_id":                    space.HubID,
		"unread_notifications":      space.UnreadNotifications,
		"total_devices":             len(space.Devices),
		"online_devices":            len(space.OnlineDevices()),
		"devices_with_malfunctions": len(space.DevicesWithMalfunctions()),
		"bypassed_devices":          len(space.BypassedDevices()),
		"hub_model":                 space.HubModelName(),
	}

	if v := space.HubFirmwareVersion(); v != "" {
		attrs["hub_firmware"] = v
	}
	if v := space.HubHardwareVersion(); v != "" {
		attrs["hub_hardware"] = v
	}
	if v := space.ChangedBy(); v != "" {
		attrs["changed_by"] = v
	}

	if len(space.Rooms) > 0 {
		rooms := make(map[string]interface{}, len(space.Rooms))
		for id, room := range space.Rooms {
			rooms[id] = map[string]interface{}{
				"name":         room.Name,
				"device_count": len(room.DeviceIDs),
			}
		}
		attrs["rooms"] = rooms
	}

	return Entity{
		ID:         "alarm_" + space.ID,
		Kind:       KindAlarmPanel,
		Name:       space.Name,
		SpaceID:    space.ID,
		State:      PanelState(space.SecurityState),
		Available:  true,
		Attributes: attrs,
	}
}

func (p *Platform) groupPanel(space *model.Space, group *model.Group) Entity {
	return Entity{
		ID:        "group_alarm_" + group.ID,
		Kind:      KindGroupPanel,
		Name:      group.Name,
		SpaceID:   space.ID,
		GroupID:   group.ID,
		State:     GroupPanelState(group.State),
		Available: true,
		Attributes: map[string]interface{}{
			"group_id":             group.ID,
			"group_name":           group.Name,
			"space_id":             space.ID,
			"night_mode_enabled":   group.NightModeEnabled,
			"bulk_arm_involved":    group.BulkArmInvolved,
			"bulk_disarm_involved": group.BulkDisarmInvolved,
			"device_count":         len(group.DeviceIDs),
		},
	}
}

func (p *Platform) deviceEntities(space *model.Space, d *model.Device) []Entity {
	h, ok := devices.HandlerFor(d)
	if !ok {
		return nil
	}

	var out []Entity

	for _, b := range h.BinarySensors(d) {
		out = append(out, Entity{
			ID:        d.ID + "_" + b.Key,
			Kind:      KindBinarySensor,
			Name:      fmt.Sprintf("%s %s", d.Name, b.Key),
			SpaceID:   space.ID,
			DeviceID:  d.ID,
			Class:     b.Class,
			State:     b.Value,
			Available: d.Online,
		})
	}

	for _, s := range h.Sensors(d) {
		out = append(out, Entity{
			ID:        d.ID + "_" + s.Key,
			Kind:      KindSensor,
			Name:      fmt.Sprintf("%s %s", d.Name, s.Key),
			SpaceID:   space.ID,
			DeviceID:  d.ID,
			Class:     s.Class,
			Unit:      s.Unit,
			Options:   s.Options,
			State:     s.Value,
			Available: d.Online,
		})
	}

	for _, sw := range h.Switches(d) {
		out = append(out, Entity{
			ID:        d.ID + "_" + sw.Key,
			Kind:      KindSwitch,
			Name:      fmt.Sprintf("%s %s", d.Name, sw.Key),
			SpaceID:   space.ID,
			DeviceID:  d.ID,
			State:     sw.On,
			Available: d.Online && sw.Available,
		})
	}

	for _, sel := range h.Selects(d) {
		out = append(out, Entity{
			ID:        d.ID + "_" + sel.Key,
			Kind:      KindSelect,
			Name:      fmt.Sprintf("%s %s", d.Name, sel.Key),
			SpaceID:   space.ID,
			DeviceID:  d.ID,
			Options:   sel.Options,
			State:     sel.Current,
			Available: sel.Available,
		})
	}

	return out
}

func (p *Platform) camera(space *model.Space, edge *model.VideoEdge) Entity {
	return Entity{
		ID:        edge.ID + "_camera",
		Kind:      KindCamera,
		Name:      edge.Name,
		SpaceID:   space.ID,
		DeviceID:  edge.ID,
		State:     edge.ConnectionState,
		Available: edge.Online(),
		Attributes: map[string]interface{}{
			"model":            edge.ModelName(),
			"ip_address":       edge.IPAddress,
			"mac_address":      edge.MACAddress,
			"firmware_version": edge.FirmwareVersion,
		},
	}
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

package model

import "strings"

/*
 *  Enumerated vendor states. The Ajax cloud is free to grow new values at
 *  any time, so every parser here has a documented fallback instead of an
 *  error return.
 */

// SecurityState is the arming state of a space as reported by the vendor.
type SecurityState string

const (
	SecurityStateDisarmed             SecurityState = "DISARMED"
	SecurityStateArmed                SecurityState = "ARMED"
	SecurityStateNightMode            SecurityState = "NIGHT_MODE"
	SecurityStatePartiallyArmed       SecurityState = "PARTIALLY_ARMED"
	SecurityStateAwaitingExitTimer    SecurityState = "AWAITING_EXIT_TIMER"
	SecurityStateAwaitingConfirmation SecurityState = "AWAITING_CONFIRMATION"
	SecurityStateArmingIncomplete     SecurityState = "ARMING_INCOMPLETE"
	SecurityStateTriggered            SecurityState = "TRIGGERED"
)

// ParseSecurityState maps a raw vendor arming state to a SecurityState.
// Unknown values map to DISARMED rather than failing; the vendor adds
// sub-states without notice.
func ParseSecurityState(raw string) SecurityState {
	switch SecurityState(strings.ToUpper(raw)) {
	case SecurityStateDisarmed, SecurityStateArmed, SecurityStateNightMode,
		SecurityStatePartiallyArmed, SecurityStateAwaitingExitTimer,
		SecurityStateAwaitingConfirmation, SecurityStateArmingIncomplete,
		SecurityStateTriggered:
		return SecurityState(strings.ToUpper(raw))
	}

	return SecurityStateDisarmed
}

// GroupState is the arming state of a single group.
type GroupState string

const (
	GroupStateArmed    GroupState = "ARMED"
	GroupStateDisarmed GroupState = "DISARMED"
	GroupStateNone     GroupState = "NONE"
)

func ParseGroupState(raw string) GroupState {
	switch GroupState(strings.ToUpper(raw)) {
	case GroupStateArmed, GroupStateDisarmed:
		return GroupState(strings.ToUpper(raw))
	}

	return GroupStateNone
}

// DeviceType is the normalised device category used for handler lookup.
type DeviceType string

const (
	DeviceTypeMotionDetector   DeviceType = "MOTION_DETECTOR"
	DeviceTypeCombiProtect     DeviceType = "COMBI_PROTECT"
	DeviceTypeDoorContact      DeviceType = "DOOR_CONTACT"
	DeviceTypeWireInput        DeviceType = "WIRE_INPUT"
	DeviceTypeSmokeDetector    DeviceType = "SMOKE_DETECTOR"
	DeviceTypeFloodDetector    DeviceType = "FLOOD_DETECTOR"
	DeviceTypeGlassBreak       DeviceType = "GLASS_BREAK"
	DeviceTypeSocket           DeviceType = "SOCKET"
	DeviceTypeRelay            DeviceType = "RELAY"
	DeviceTypeWallSwitch       DeviceType = "WALL_SWITCH"
	DeviceTypeSiren            DeviceType = "SIREN"
	DeviceTypeKeypad           DeviceType = "KEYPAD"
	DeviceTypeButton           DeviceType = "BUTTON"
	DeviceTypeRemoteControl    DeviceType = "REMOTE_CONTROL"
	DeviceTypeRepeater         DeviceType = "REPEATER"
	DeviceTypeTransmitter      DeviceType = "TRANSMITTER"
	DeviceTypeMultiTransmitter DeviceType = "MULTI_TRANSMITTER"
	DeviceTypeLifeQuality      DeviceType = "LIFE_QUALITY"
	DeviceTypeHub              DeviceType = "HUB"
	DeviceTypeVideoEdge        DeviceType = "VIDEO_EDGE"
	DeviceTypeUnknown          DeviceType = "UNKNOWN"
)

// Raw vendor device type strings, as they appear in the deviceType field.
// The list is not exhaustive; anything unlisted becomes DeviceTypeUnknown
// and is carried through the model untouched.
var rawDeviceTypes = map[string]DeviceType{
	"motionprotect":      DeviceTypeMotionDetector,
	"motionprotectplus":  DeviceTypeMotionDetector,
	"motioncam":          DeviceTypeMotionDetector,
	"combiprotect":       DeviceTypeCombiProtect,
	"doorprotect":        DeviceTypeDoorContact,
	"doorprotectplus":    DeviceTypeDoorContact,
	"wireinput":          DeviceTypeWireInput,
	"fireprotect":        DeviceTypeSmokeDetector,
	"fireprotectplus":    DeviceTypeSmokeDetector,
	"fireprotect2":       DeviceTypeSmokeDetector,
	"leaksprotect":       DeviceTypeFloodDetector,
	"glassprotect":       DeviceTypeGlassBreak,
	"socket":             DeviceTypeSocket,
	"relay":              DeviceTypeRelay,
	"wallswitch":         DeviceTypeWallSwitch,
	"homesiren":          DeviceTypeSiren,
	"streetsiren":        DeviceTypeSiren,
	"keypad":             DeviceTypeKeypad,
	"keypadplus":         DeviceTypeKeypad,
	"button":             DeviceTypeButton,
	"doublebutton":       DeviceTypeButton,
	"spacecontrol":       DeviceTypeRemoteControl,
	"rex":                DeviceTypeRepeater,
	"rex2":               DeviceTypeRepeater,
	"transmitter":        DeviceTypeTransmitter,
	"multitransmitter":   DeviceTypeMultiTransmitter,
	"lifequality":        DeviceTypeLifeQuality,
	"hub":                DeviceTypeHub,
	"hub2":               DeviceTypeHub,
	"hub2plus":           DeviceTypeHub,
	"hubplus":            DeviceTypeHub,
	"videoedge":          DeviceTypeVideoEdge,
	"nvr":                DeviceTypeVideoEdge,
}

// ParseDeviceType maps a raw vendor device type string to a DeviceType.
// Matching is case-insensitive and ignores underscores.
func ParseDeviceType(raw string) DeviceType {
	key := strings.ReplaceAll(strings.ToLower(raw), "_", "")
	if t, ok := rawDeviceTypes[key]; ok {
		return t
	}

	return DeviceTypeUnknown
}

// VideoEdgeType is the camera/NVR hardware category.
type VideoEdgeType string

const (
	VideoEdgeTypeNVR        VideoEdgeType = "NVR"
	VideoEdgeTypeTurret     VideoEdgeType = "TURRET"
	VideoEdgeTypeTurretHL   VideoEdgeType = "TURRET_HL"
	VideoEdgeTypeBullet     VideoEdgeType = "BULLET"
	VideoEdgeTypeBulletHL   VideoEdgeType = "BULLET_HL"
	VideoEdgeTypeMinidome   VideoEdgeType = "MINIDOME"
	VideoEdgeTypeMinidomeHL VideoEdgeType = "MINIDOME_HL"
	VideoEdgeTypeUnknown    VideoEdgeType = "UNKNOWN"
)

func ParseVideoEdgeType(raw string) VideoEdgeType {
	switch VideoEdgeType(strings.ToUpper(raw)) {
	case VideoEdgeTypeNVR, VideoEdgeTypeTurret, VideoEdgeTypeTurretHL,
		VideoEdgeTypeBullet, VideoEdgeTypeBulletHL, VideoEdgeTypeMinidome,
		VideoEdgeTypeMinidomeHL:
		return VideoEdgeType(strings.ToUpper(raw))
	}

	return VideoEdgeTypeUnknown
}

var videoEdgeModelNames = map[VideoEdgeType]string{
	VideoEdgeTypeNVR:        "NVR",
	VideoEdgeTypeTurret:     "TurretCam",
	VideoEdgeTypeTurretHL:   "TurretCam HL",
	VideoEdgeTypeBullet:     "BulletCam",
	VideoEdgeTypeBulletHL:   "BulletCam HL",
	VideoEdgeTypeMinidome:   "MiniDome",
	VideoEdgeTypeMinidomeHL: "MiniDome HL",
}

// ModelName returns a human readable model name for the camera type.
func (t VideoEdgeType) ModelName() string {
	if name, ok := videoEdgeModelNames[t]; ok {
		return name
	}

	return "Video Edge"
}

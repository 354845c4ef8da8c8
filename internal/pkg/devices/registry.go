package devices

import (
	"strings"

	"github.com/jake-scott/hass-ajax/internal/pkg/model"
)

// Canonical DeviceType to handler mapping. Sirens, keypads and
// multi-transmitters only report the common observables, as do repeaters
// and the hub's own device record.
var handlers = map[model.DeviceType]Handler{
	model.DeviceTypeMotionDetector:   motionHandler{},
	model.DeviceTypeCombiProtect:     motionHandler{},
	model.DeviceTypeDoorContact:      doorHandler{},
	model.DeviceTypeWireInput:        doorHandler{},
	model.DeviceTypeSmokeDetector:    smokeHandler{},
	model.DeviceTypeFloodDetector:    floodHandler{},
	model.DeviceTypeGlassBreak:       glassHandler{},
	model.DeviceTypeSocket:           socketHandler{},
	model.DeviceTypeRelay:            socketHandler{},
	model.DeviceTypeWallSwitch:       socketHandler{},
	model.DeviceTypeSiren:            baseHandler{},
	model.DeviceTypeKeypad:           baseHandler{},
	model.DeviceTypeMultiTransmitter: baseHandler{},
	model.DeviceTypeTransmitter:      baseHandler{},
	model.DeviceTypeButton:           buttonHandler{},
	model.DeviceTypeRemoteControl:    buttonHandler{},
	model.DeviceTypeRepeater:         baseHandler{},
	model.DeviceTypeHub:              baseHandler{},
	model.DeviceTypeLifeQuality:      lifeQualityHandler{},
}

var dimmerRawTypes = map[string]bool{
	"lightswitchdimmer": true,
}

// IsDimmer reports whether the device is a LightSwitch dimmer variant.
// Dimmers share the WallSwitch device type on some firmware, so the raw
// type string is the only reliable signal.
func IsDimmer(d *model.Device) bool {
	raw := strings.ReplaceAll(strings.ToLower(d.RawType), "_", "")
	return dimmerRawTypes[raw] || strings.Contains(raw, "dimmer")
}

// HandlerFor returns the capability handler for a device. The dimmer
// check runs before the type lookup. Unknown device types get no
// handler; the caller skips entity creation for them.
func HandlerFor(d *model.Device) (Handler, bool) {
	if IsDimmer(d) {
		return dimmerHandler{}, true
	}

	h, ok := handlers[d.Type]
	return h, ok
}

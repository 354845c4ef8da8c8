package devices

import (
	"github.com/jake-scott/hass-ajax/internal/pkg/model"
)

var ledBrightnessOptions = []string{"MIN", "MAX"}

// socketHandler covers Socket, Relay and WallSwitch. The controllable
// output is described by the device's "channel" attribute.
type socketHandler struct {
	baseHandler
}

func channelAttr(d *model.Device) (map[string]interface{}, bool) {
	ch, ok := d.Attributes["channel"].(map[string]interface{})
	return ch, ok
}

func (h socketHandler) Sensors(d *model.Device) []Sensor {
	sensors := h.baseHandler.Sensors(d)

	if v, ok := attrFloat(d, "powerConsumption"); ok {
		sensors = append(sensors, Sensor{Key: "power", Unit: UnitWatt, Value: v})
	}
	if v, ok := attrFloat(d, "voltage"); ok {
		sensors = append(sensors, Sensor{Key: "voltage", Unit: UnitVolt, Value: v})
	}

	return sensors
}

func (h socketHandler) Switches(d *model.Device) []Switch {
	ch, ok := channelAttr(d)
	if !ok {
		return nil
	}

	on, _ := ch["is_on"].(bool)
	enabled := true
	if v, ok := ch["is_enabled"].(bool); ok {
		enabled = v
	}
	channelID := float64(1)
	if v, ok := ch["channel_id"].(float64); ok {
		channelID = v
	}

	return []Switch{{
		Key:       "switch",
		On:        on,
		Available: enabled,
		TurnOn: map[string]interface{}{
			"channel": map[string]interface{}{"channel_id": int(channelID), "is_on": true},
		},
		TurnOff: map[string]interface{}{
			"channel": map[string]interface{}{"channel_id": int(channelID), "is_on": false},
		},
	}}
}

func (h socketHandler) Selects(d *model.Device) []Select {
	if _, ok := attrString(d, "indicationBrightness"); !ok {
		return nil
	}

	current, _ := attrString(d, "indicationBrightness")
	if current == "" {
		current = "MAX"
	}

	// The brightness setting only makes sense while the LED ring is on
	available := d.Online && attrBool(d, "indicationEnabled")

	return []Select{{
		Key:       "led_brightness",
		Options:   ledBrightnessOptions,
		Current:   current,
		Available: available,
		Patches: map[string]map[string]interface{}{
			"MIN": {"indicationBrightness": "MIN"},
			"MAX": {"indicationBrightness": "MAX"},
		},
	}}
}

// dimmerHandler covers the LightSwitch dimmer variants, which present a
// simple on/off output here. Brightness control needs the vendor's
// light-specific endpoints and is not plumbed through the device patch
// path.
type dimmerHandler struct {
	baseHandler
}

func (h dimmerHandler) Switches(d *model.Device) []Switch {
	return []Switch{{
		Key:       "light",
		On:        attrBool(d, "lightOn"),
		Available: d.Online,
		TurnOn:    map[string]interface{}{"lightOn": true},
		TurnOff:   map[string]interface{}{"lightOn": false},
	}}
}

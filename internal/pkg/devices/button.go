package devices

import (
	"strings"

	"github.com/jake-scott/hass-ajax/internal/pkg/model"
)

// buttonHandler covers Button, DoubleButton and the SpaceControl keyfob.
// Presses arrive as push events that set last_action; the sensor exposes
// the most recent one.
type buttonHandler struct {
	baseHandler
}

func (h buttonHandler) Sensors(d *model.Device) []Sensor {
	sensors := h.baseHandler.Sensors(d)

	var lastAction interface{}
	if v, ok := attrString(d, "last_action"); ok {
		lastAction = v
	}
	sensors = append(sensors, Sensor{Key: "last_action", Value: lastAction})

	if v, ok := attrString(d, "button_mode"); ok {
		sensors = append(sensors, Sensor{
			Key:     "button_mode",
			Class:   ClassEnum,
			Options: []string{"panic_button", "smart_button", "interconnect_delay"},
			Value:   strings.ToLower(v),
		})
	}
	if v, ok := attrString(d, "brightness"); ok {
		sensors = append(sensors, Sensor{
			Key:     "button_brightness",
			Class:   ClassEnum,
			Options: []string{"off", "low", "high"},
			Value:   strings.ToLower(v),
		})
	}
	if v, ok := attrString(d, "false_press_filter"); ok {
		sensors = append(sensors, Sensor{
			Key:     "false_press_filter",
			Class:   ClassEnum,
			Options: []string{"long_push", "double_click", "disabled"},
			Value:   strings.ToLower(v),
		})
	}

	return sensors
}

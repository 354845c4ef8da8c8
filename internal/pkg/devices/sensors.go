package devices

import (
	"strings"

	"github.com/jake-scott/hass-ajax/internal/pkg/model"
)

// motionHandler covers MotionProtect, MotionCam and CombiProtect.
type motionHandler struct {
	baseHandler
}

func (h motionHandler) BinarySensors(d *model.Device) []BinarySensor {
	sensors := h.baseHandler.BinarySensors(d)
	sensors = append(sensors, BinarySensor{
		Key: "motion", Class: ClassMotion, Value: attrBool(d, "motionDetected"),
	})

	return sensors
}

func (h motionHandler) Sensors(d *model.Device) []Sensor {
	sensors := h.baseHandler.Sensors(d)
	if v, ok := attrFloat(d, "temperature"); ok {
		sensors = append(sensors, Sensor{
			Key: "temperature", Class: ClassTemperature, Unit: UnitCelsius, Value: v,
		})
	}

	return sensors
}

// doorHandler covers DoorProtect and DoorProtect Plus. The Plus variants
// add a shock sensor with a configurable sensitivity.
type doorHandler struct {
	baseHandler
}

// Sensitivity values the hub accepts, confirmed against live hardware.
var shockSensitivityOptions = map[string]float64{
	"low":    0,
	"normal": 4,
	"high":   7,
}

func isDoorPlus(d *model.Device) bool {
	raw := strings.ReplaceAll(strings.ToLower(d.RawType), "_", "")
	return strings.HasPrefix(raw, "doorprotectplus")
}

func (h doorHandler) BinarySensors(d *model.Device) []BinarySensor {
	sensors := h.baseHandler.BinarySensors(d)
	sensors = append(sensors, BinarySensor{
		Key: "opening", Class: ClassDoor, Value: attrBool(d, "opened"),
	})

	if isDoorPlus(d) {
		sensors = append(sensors, BinarySensor{
			Key: "shock", Class: ClassVibration, Value: attrBool(d, "shockDetected"),
		})
	}

	return sensors
}

func (h doorHandler) Selects(d *model.Device) []Select {
	if !isDoorPlus(d) {
		return nil
	}

	current := "low"
	if v, ok := attrFloat(d, "shock_sensor_sensitivity"); ok {
		for name, value := range shockSensitivityOptions {
			if value == v {
				current = name
			}
		}
	}

	patches := make(map[string]map[string]interface{}, len(shockSensitivityOptions))
	for name, value := range shockSensitivityOptions {
		patches[name] = map[string]interface{}{"shockSensorSensitivity": int(value)}
	}

	return []Select{{
		Key:              "shock_sensitivity",
		Options:          []string{"low", "normal", "high"},
		Current:          current,
		Available:        d.Online,
		RequiresDisarmed: true,
		Patches:          patches,
	}}
}

// smokeHandler covers the FireProtect family.
type smokeHandler struct {
	baseHandler
}

func (h smokeHandler) BinarySensors(d *model.Device) []BinarySensor {
	sensors := h.baseHandler.BinarySensors(d)
	sensors = append(sensors,
		BinarySensor{Key: "smoke", Class: ClassSmoke, Value: attrBool(d, "smokeDetected")},
		BinarySensor{Key: "temperature_alarm", Class: ClassProblem,
			Value: attrBool(d, "temperatureAlarm")},
	)

	return sensors
}

func (h smokeHandler) Sensors(d *model.Device) []Sensor {
	sensors := h.baseHandler.Sensors(d)
	if v, ok := attrFloat(d, "temperature"); ok {
		sensors = append(sensors, Sensor{
			Key: "temperature", Class: ClassTemperature, Unit: UnitCelsius, Value: v,
		})
	}

	return sensors
}

// floodHandler covers LeaksProtect.
type floodHandler struct {
	baseHandler
}

func (h floodHandler) BinarySensors(d *model.Device) []BinarySensor {
	sensors := h.baseHandler.BinarySensors(d)
	sensors = append(sensors, BinarySensor{
		Key: "moisture", Class: ClassMoisture, Value: attrBool(d, "leakDetected"),
	})

	return sensors
}

// glassHandler covers GlassProtect.
type glassHandler struct {
	baseHandler
}

func (h glassHandler) BinarySensors(d *model.Device) []BinarySensor {
	sensors := h.baseHandler.BinarySensors(d)
	sensors = append(sensors, BinarySensor{
		Key: "glass_break", Class: ClassSound, Value: attrBool(d, "glassBreakDetected"),
	})

	return sensors
}

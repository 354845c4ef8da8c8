package devices

import (
	"math"
	"strings"

	"github.com/jake-scott/hass-ajax/internal/pkg/model"
)

// lifeQualityHandler covers the LifeQuality air quality monitor. The
// vendor reports temperature and humidity in 0.1-unit steps
// (actualTemperature 215 = 21.5°C, actualHumidity 470 = 47.0%); CO2 is
// plain ppm. Comfort-range thresholds live alongside the readings and
// drive problem flags.
type lifeQualityHandler struct {
	baseHandler
}

const defaultMaxComfortCO2 = 1000

func tenths(v float64) float64 {
	return math.Round(v) / 10
}

func (h lifeQualityHandler) BinarySensors(d *model.Device) []BinarySensor {
	sensors := h.baseHandler.BinarySensors(d)
	sensors = append(sensors,
		BinarySensor{Key: "co2_problem", Class: ClassProblem, Value: co2Problem(d)},
		BinarySensor{Key: "temperature_problem", Class: ClassProblem, Value: temperatureProblem(d)},
		BinarySensor{Key: "humidity_problem", Class: ClassProblem, Value: humidityProblem(d)},
	)

	return sensors
}

func (h lifeQualityHandler) Sensors(d *model.Device) []Sensor {
	sensors := []Sensor{}

	if v, ok := attrFloat(d, "actualCO2"); ok {
		sensors = append(sensors, Sensor{Key: "co2", Class: ClassCO2, Unit: UnitPPM, Value: v})
	}

	if v, ok := attrFloat(d, "actualTemperature"); ok {
		sensors = append(sensors, Sensor{
			Key: "temperature", Class: ClassTemperature, Unit: UnitCelsius, Value: tenths(v),
		})
	} else if v, ok := attrFloat(d, "temperature"); ok {
		// Older firmware reports whole degrees only
		sensors = append(sensors, Sensor{
			Key: "temperature", Class: ClassTemperature, Unit: UnitCelsius, Value: v,
		})
	}

	if v, ok := attrFloat(d, "actualHumidity"); ok {
		sensors = append(sensors, Sensor{
			Key: "humidity", Class: ClassHumidity, Unit: UnitPercent, Value: tenths(v),
		})
	}

	sensors = append(sensors, h.baseHandler.Sensors(d)...)

	if v, ok := attrString(d, "calibrationState"); ok {
		sensors = append(sensors, Sensor{
			Key:   "calibration_state",
			Value: strings.ReplaceAll(strings.ToLower(v), "_", " "),
		})
	}

	return sensors
}

func (h lifeQualityHandler) Switches(d *model.Device) []Switch {
	indication, ok := attrString(d, "indication")
	if !ok {
		return nil
	}

	return []Switch{{
		Key:       "indicator_light",
		On:        indication != "CO2_OFF",
		Available: d.Online,
		TurnOn:    map[string]interface{}{"indication": "CO2_ON"},
		TurnOff:   map[string]interface{}{"indication": "CO2_OFF"},
	}}
}

func co2Problem(d *model.Device) bool {
	co2, ok := attrFloat(d, "actualCO2")
	if !ok {
		return false
	}

	max := float64(defaultMaxComfortCO2)
	if v, ok := attrFloat(d, "maxComfortCO2"); ok {
		max = v
	}

	return co2 > max
}

func temperatureProblem(d *model.Device) bool {
	temp, ok := attrFloat(d, "actualTemperature")
	if !ok {
		return false
	}
	min, okMin := attrFloat(d, "minComfortTemperature")
	max, okMax := attrFloat(d, "maxComfortTemperature")
	if !okMin || !okMax {
		return false
	}

	return temp < min || temp > max
}

func humidityProblem(d *model.Device) bool {
	humidity, ok := attrFloat(d, "actualHumidity")
	if !ok {
		return false
	}

	// Thresholds are whole percent; the reading is in 0.1% units
	min, okMin := attrFloat(d, "minComfortHumidity")
	max, okMax := attrFloat(d, "maxComfortHumidity")
	if !okMin || !okMax {
		return false
	}

	return humidity < min*10 || humidity > max*10
}

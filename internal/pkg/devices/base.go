package devices

import (
	"github.com/jake-scott/hass-ajax/internal/pkg/model"
)

// baseHandler contributes the observables every wireless Ajax device
// reports: tamper state, battery level and signal strength. Concrete
// handlers embed it and extend the lists.
type baseHandler struct{}

func (baseHandler) BinarySensors(d *model.Device) []BinarySensor {
	return []BinarySensor{
		{Key: "tamper", Class: ClassTamper, Value: attrBool(d, "tampered")},
	}
}

func (baseHandler) Sensors(d *model.Device) []Sensor {
	sensors := []Sensor{}

	if d.BatteryLevel != nil {
		sensors = append(sensors, Sensor{
			Key: "battery", Class: ClassBattery, Unit: UnitPercent,
			Value: *d.BatteryLevel,
		})
	}
	if d.SignalStrength != nil {
		sensors = append(sensors, Sensor{
			Key: "signal_strength", Unit: UnitPercent,
			Value: *d.SignalStrength,
		})
	}

	return sensors
}

func (baseHandler) Switches(d *model.Device) []Switch {
	return nil
}

func (baseHandler) Selects(d *model.Device) []Select {
	return nil
}

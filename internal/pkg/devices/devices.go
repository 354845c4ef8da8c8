package devices

import (
	"github.com/jake-scott/hass-ajax/internal/pkg/model"
)

/*
 *  Per-device-type capability handlers. Each Ajax device category knows
 *  which observable entities it contributes (binary sensors, numeric
 *  sensors, switches, selects); the entity layer asks the registry for a
 *  handler and projects the descriptors it returns. Descriptors carry
 *  the current value so callers never reach into the attribute map
 *  themselves.
 */

// Device class hints, aligned with the host runtime's vocabulary.
const (
	ClassMotion      = "motion"
	ClassDoor        = "door"
	ClassSmoke       = "smoke"
	ClassMoisture    = "moisture"
	ClassSound       = "sound"
	ClassVibration   = "vibration"
	ClassTamper      = "tamper"
	ClassProblem     = "problem"
	ClassBattery     = "battery"
	ClassTemperature = "temperature"
	ClassHumidity    = "humidity"
	ClassCO2         = "carbon_dioxide"
	ClassEnum        = "enum"
)

const (
	UnitPercent = "%"
	UnitCelsius = "°C"
	UnitPPM     = "ppm"
	UnitWatt    = "W"
	UnitVolt    = "V"
)

// BinarySensor is one boolean observable of a device.
type BinarySensor struct {
	Key   string
	Class string
	Value bool
}

// Sensor is one scalar observable. Value is nil when the device does not
// currently report the reading.
type Sensor struct {
	Key     string
	Class   string
	Unit    string
	Options []string
	Value   interface{}
}

// Switch is a controllable on/off output. TurnOn and TurnOff are the
// device patches that effect the change through the vendor API.
type Switch struct {
	Key       string
	On        bool
	Available bool
	TurnOn    map[string]interface{}
	TurnOff   map[string]interface{}
}

// Select is a multi-option setting. Patches maps each presentable option
// to the device patch that selects it. RequiresDisarmed marks settings
// the hub refuses to change while the space is armed.
type Select struct {
	Key              string
	Options          []string
	Current          string
	Available        bool
	RequiresDisarmed bool
	Patches          map[string]map[string]interface{}
}

// Handler enumerates the entities a device category contributes.
type Handler interface {
	BinarySensors(d *model.Device) []BinarySensor
	Sensors(d *model.Device) []Sensor
	Switches(d *model.Device) []Switch
	Selects(d *model.Device) []Select
}

func attrBool(d *model.Device, key string) bool {
	v, _ := d.Attributes[key].(bool)
	return v
}

func attrString(d *model.Device, key string) (string, bool) {
	v, ok := d.Attributes[key].(string)
	return v, ok
}

// attrFloat reads a numeric attribute. JSON decoding leaves all numbers
// as float64.
func attrFloat(d *model.Device, key string) (float64, bool) {
	v, ok := d.Attributes[key].(float64)
	return v, ok
}

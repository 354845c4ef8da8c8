package sqslistener

import (
	"encoding/json"

	"github.com/go-openapi/strfmt"
	"github.com/pkg/errors"
)

/*
  Event envelope published by the Ajax cloud to the integration's SQS
  queue. Example device attribute change:

	{
	  "type" : "device_attribute",
	  "space_id" : "S1",
	  "device_id" : "D1",
	  "patch" : { "battery" : 54 }
	}
*/

const (
	EventTypeDeviceAttribute = "device_attribute"
	EventTypeSecurityState   = "security_state"
	EventTypeGroupState      = "group_state"
	EventTypeNotification    = "notification"
)

// Event is one decoded push notification. Which fields are populated
// depends on Type; consumers must tolerate unknown Type values.
type Event struct {
	Type     string `json:"type"`
	SpaceID  string `json:"space_id"`
	DeviceID string `json:"device_id"`
	GroupID  string `json:"group_id"`

	// security_state / group_state
	State string `json:"state,omitempty"`

	// device_attribute
	Patch map[string]interface{} `json:"patch,omitempty"`

	// notification
	NotificationID string                 `json:"notification_id,omitempty"`
	Title          string                 `json:"title,omitempty"`
	Category       string                 `json:"category,omitempty"`
	UserName       string                 `json:"user_name,omitempty"`
	Timestamp      strfmt.DateTime        `json:"timestamp,omitempty"`
	Data           map[string]interface{} `json:"data,omitempty"`
}

// DecodeEvent parses a raw queue message body into an Event.
func DecodeEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, errors.Wrap(err, "parsing event payload")
	}

	if ev.Type == "" {
		return Event{}, errors.New("event payload has no type discriminator")
	}

	return ev, nil
}

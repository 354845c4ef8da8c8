package notify

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/korovkin/limiter"

	"github.com/jake-scott/hass-ajax/internal/pkg/coordinator"
	"github.com/jake-scott/hass-ajax/internal/pkg/entities"
	"github.com/jake-scott/hass-ajax/internal/pkg/logging"
)

/*
 *  Outbound webhook notifier. Subscribes to the coordinator, diffs the
 *  entity projection on every change signal and POSTs one event per
 *  changed entity to each registered subscriber. Deliveries are
 *  fire-and-forget with bounded concurrency; a slow subscriber never
 *  stalls the coordinator's write path.
 */

// Event types, matching the vendor app's logbook vocabulary.
const (
	EventArmed                = "armed"
	EventDisarmed             = "disarmed"
	EventArmedNight           = "armed_night"
	EventSecurityStateChanged = "security_state_changed"
	EventButtonPressed        = "button_pressed"
	EventEntityUpdate         = "entity_update"
)

const publishConcurrency = 10

// Event is one webhook payload.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	EntityID  string          `json:"entityId"`
	SpaceID   string          `json:"spaceId"`
	State     interface{}     `json:"state"`
	Timestamp strfmt.DateTime `json:"timestamp"`
}

// Notifier watches the entity projection and delivers change events to
// webhook subscribers.
type Notifier struct {
	platform *entities.Platform
	client   *http.Client

	mu     sync.Mutex
	subs   map[string]string
	states map[string]interface{}
	unsub  func()
}

func New(platform *entities.Platform) *Notifier {
	return &Notifier{
		platform: platform,
		client:   &http.Client{Timeout: 10 * time.Second},
		subs:     make(map[string]string),
		states:   make(map[string]interface{}),
	}
}

// Start registers with the coordinator. Stop unhooks it.
func (n *Notifier) Start(coord *coordinator.Coordinator) {
	unsub := coord.Subscribe(n.onChange)

	n.mu.Lock()
	n.unsub = unsub
	n.mu.Unlock()
}

func (n *Notifier) Stop() {
	n.mu.Lock()
	unsub := n.unsub
	n.unsub = nil
	n.mu.Unlock()

	// Unhook outside the lock; the coordinator may be mid-notify
	if unsub != nil {
		unsub()
	}
}

// Subscribe registers a webhook URL and returns the subscription id.
func (n *Notifier) Subscribe(url string) string {
	id := uuid.New().String()

	n.mu.Lock()
	n.subs[id] = url
	n.mu.Unlock()

	logging.Logger(nil).Infof("webhook subscriber %s registered for %s", id, url)
	return id
}

// Unsubscribe removes a subscription. Returns false for unknown ids.
func (n *Notifier) Unsubscribe(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.subs[id]; !ok {
		return false
	}
	delete(n.subs, id)

	return true
}

// onChange runs synchronously in the coordinator's notification path;
// it must only compute the diff and hand delivery off.
func (n *Notifier) onChange() {
	events := n.diff(n.platform.List())
	if len(events) == 0 {
		return
	}

	go n.deliver(events)
}

// diff compares the projection against the last observed states and
// returns one event per changed entity. The first observation seeds the
// baseline without emitting anything.
func (n *Notifier) diff(list []entities.Entity) []Event {
	n.mu.Lock()
	defer n.mu.Unlock()

	seeding := len(n.states) == 0
	now := strfmt.DateTime(time.Now().UTC())

	var events []Event
	for _, e := range list {
		prev, seen := n.states[e.ID]
		n.states[e.ID] = e.State

		if seeding || !seen || prev == e.State {
			continue
		}

		events = append(events, Event{
			ID:        uuid.New().String(),
			Type:      eventType(e),
			EntityID:  e.ID,
			SpaceID:   e.SpaceID,
			State:     e.State,
			Timestamp: now,
		})
	}

	return events
}

func eventType(e entities.Entity) string {
	switch e.Kind {
	case entities.KindAlarmPanel, entities.KindGroupPanel:
		switch e.State {
		case entities.PanelArmedAway:
			return EventArmed
		case entities.PanelDisarmed:
			return EventDisarmed
		case entities.PanelArmedNight:
			return EventArmedNight
		}
		return EventSecurityStateChanged
	case entities.KindSensor:
		if strings.HasSuffix(e.ID, "_last_action") {
			return EventButtonPressed
		}
	}

	return EventEntityUpdate
}

// deliver POSTs every event to every subscriber, at most
// publishConcurrency requests in flight.
func (n *Notifier) deliver(events []Event) {
	n.mu.Lock()
	urls := make([]string, 0, len(n.subs))
	for _, u := range n.subs {
		urls = append(urls, u)
	}
	n.mu.Unlock()

	if len(urls) == 0 {
		return
	}

	limit := limiter.NewConcurrencyLimiter(publishConcurrency)
	defer limit.WaitAndClose()

	for _, ev := range events {
		for _, url := range urls {
			ev, url := ev, url
			limit.Execute(func() {
				n.post(url, ev)
			})
		}
	}
}

func (n *Notifier) post(url string, ev Event) {
	body, err := json.Marshal(ev)
	if err != nil {
		logging.Logger(nil).WithError(err).Error("encoding webhook event")
		return
	}

	resp, err := n.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		logging.Logger(nil).WithError(err).Warnf("delivering %s event to %s", ev.Type, url)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		logging.Logger(nil).Warnf("webhook %s rejected %s event: %d", url, ev.Type, resp.StatusCode)
	}
}

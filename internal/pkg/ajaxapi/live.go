package ajaxapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/pkg/errors"

	"github.com/jake-scott/hass-ajax/internal/pkg/logging"
	"github.com/jake-scott/hass-ajax/internal/pkg/model"
)

const defaultBaseURL = "https://api.ajax.systems/api"

// Live talks to the Ajax enterprise REST API. Authentication is a static
// API key plus integration ID sent as headers on every request.
type Live struct {
	baseURL       string
	integrationID string
	apiKey        string
	timeout       time.Duration
	noCache       bool
	httpClient    *http.Client
}

func NewLiveClient(integrationID string, apiKey string) *Live {
	return &Live{
		baseURL:       defaultBaseURL,
		integrationID: integrationID,
		apiKey:        apiKey,
		httpClient:    &http.Client{},
	}
}

// WithBaseURL overrides the API endpoint, for tests and regional clouds.
func (c *Live) WithBaseURL(u string) *Live {
	nc := *c
	nc.baseURL = u
	return &nc
}

func (c *Live) WithTimeout(d time.Duration) SecuritySystem {
	nc := *c
	nc.timeout = d
	return &nc
}

func (c *Live) WithCacheBypass() SecuritySystem {
	nc := *c
	nc.noCache = true
	return &nc
}

func (c *Live) makeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}

	return ctx, func() {}
}

// do executes one API call, mapping HTTP failures onto the error
// taxonomy: 401/403 become AuthError, anything else non-2xx becomes a
// transient APIError.
func (c *Live) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	ctx, cancel := c.makeContext(ctx)
	defer cancel()

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return errors.Wrap(err, "building request")
	}

	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("X-Integration-Id", c.integrationID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.noCache {
		req.Header.Set("Cache-Control", "no-cache")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(&APIError{Detail: err.Error()}, "executing request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(&APIError{Detail: err.Error()}, "reading response")
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &AuthError{StatusCode: resp.StatusCode, Detail: string(respBody)}
	case resp.StatusCode >= 400:
		return &APIError{StatusCode: resp.StatusCode, Detail: string(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return errors.Wrapf(&APIError{Detail: err.Error()}, "decoding %s response", path)
		}
	}

	return nil
}

type hubSummaryPayload struct {
	HubID string `json:"hubId"`
	Name  string `json:"name"`
}

func (c *Live) Hubs(ctx context.Context) ([]HubSummary, error) {
	var payload []hubSummaryPayload
	if err := c.do(ctx, http.MethodGet, "/user/hubs", nil, &payload); err != nil {
		return nil, errors.Wrap(err, "listing hubs")
	}

	hubs := make([]HubSummary, 0, len(payload))
	for _, h := range payload {
		hubs = append(hubs, HubSummary{HubID: h.HubID, Name: h.Name})
	}

	return hubs, nil
}

// AccountSnapshot fetches the complete account graph: every hub with its
// devices, groups, rooms, cameras and recent notifications.
func (c *Live) AccountSnapshot(ctx context.Context) (*model.Account, error) {
	hubs, err := c.Hubs(ctx)
	if err != nil {
		return nil, err
	}

	account := model.NewAccount()
	for _, h := range hubs {
		space, err := c.spaceSnapshot(ctx, h)
		if err != nil {
			return nil, errors.Wrapf(err, "fetching space for hub %s", h.HubID)
		}

		account.Spaces[space.ID] = space
	}

	return account, nil
}

type groupPayload struct {
	ID                 string   `json:"id"`
	GroupName          string   `json:"groupName"`
	State              string   `json:"state"`
	NightModeEnabled   bool     `json:"nightModeEnabled"`
	BulkArmInvolved    bool     `json:"bulkArmInvolved"`
	BulkDisarmInvolved bool     `json:"bulkDisarmInvolved"`
	DeviceIDs          []string `json:"deviceIds"`
}

type roomPayload struct {
	ID        string   `json:"id"`
	RoomName  string   `json:"roomName"`
	DeviceIDs []string `json:"deviceIds"`
}

type notificationPayload struct {
	ID        string                 `json:"id"`
	Title     string                 `json:"title"`
	Category  string                 `json:"category"`
	Timestamp strfmt.DateTime        `json:"timestamp"`
	UserName  string                 `json:"userName"`
	Data      map[string]interface{} `json:"data"`
}

type notificationsPayload struct {
	Notifications []notificationPayload `json:"notifications"`
	UnreadCount   int                   `json:"unreadCount"`
}

type videoEdgePayload struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	IPAddress       string `json:"ipAddress"`
	MACAddress      string `json:"macAddress"`
	FirmwareVersion string `json:"firmwareVersion"`
	ConnectionState string `json:"connectionState"`
	Color           string `json:"color"`
	VideoEdgeType   string `json:"videoEdgeType"`
}

func (c *Live) spaceSnapshot(ctx context.Context, hub HubSummary) (*model.Space, error) {
	var details map[string]interface{}
	if err := c.do(ctx, http.MethodGet, "/hubs/"+hub.HubID, nil, &details); err != nil {
		return nil, errors.Wrap(err, "fetching hub details")
	}

	space := &model.Space{
		ID:         hub.HubID,
		Name:       hub.Name,
		HubID:      hub.HubID,
		HubDetails: details,
		Groups:     make(map[string]*model.Group),
		Rooms:      make(map[string]*model.Room),
		Devices:    make(map[string]*model.Device),
		VideoEdges: make(map[string]*model.VideoEdge),
	}

	if name, ok := details["name"].(string); ok && name != "" {
		space.Name = name
	}
	if state, ok := details["state"].(string); ok {
		space.SecurityState = model.ParseSecurityState(state)
	} else {
		space.SecurityState = model.SecurityStateDisarmed
	}
	if enabled, ok := details["groupsEnabled"].(bool); ok {
		space.GroupModeEnabled = enabled
	}

	var rawDevices []map[string]interface{}
	if err := c.do(ctx, http.MethodGet, "/hubs/"+hub.HubID+"/devices", nil, &rawDevices); err != nil {
		return nil, errors.Wrap(err, "fetching devices")
	}
	for _, raw := range rawDevices {
		d := deviceFromPayload(raw, hub.HubID)
		if d.ID == "" {
			logging.Logger(ctx).Warnf("skipping device without id on hub %s", hub.HubID)
			continue
		}
		space.Devices[d.ID] = d
	}

	var groups []groupPayload
	if err := c.do(ctx, http.MethodGet, "/hubs/"+hub.HubID+"/groups", nil, &groups); err != nil {
		return nil, errors.Wrap(err, "fetching groups")
	}
	for _, g := range groups {
		space.Groups[g.ID] = &model.Group{
			ID:                 g.ID,
			Name:               g.GroupName,
			State:              model.ParseGroupState(g.State),
			NightModeEnabled:   g.NightModeEnabled,
			BulkArmInvolved:    g.BulkArmInvolved,
			BulkDisarmInvolved: g.BulkDisarmInvolved,
			DeviceIDs:          g.DeviceIDs,
		}
	}

	var rooms []roomPayload
	if err := c.do(ctx, http.MethodGet, "/hubs/"+hub.HubID+"/rooms", nil, &rooms); err != nil {
		return nil, errors.Wrap(err, "fetching rooms")
	}
	for _, r := range rooms {
		space.Rooms[r.ID] = &model.Room{ID: r.ID, Name: r.RoomName, DeviceIDs: r.DeviceIDs}
	}

	var notifications notificationsPayload
	if err := c.do(ctx, http.MethodGet, "/hubs/"+hub.HubID+"/notifications", nil, &notifications); err != nil {
		return nil, errors.Wrap(err, "fetching notifications")
	}
	space.UnreadNotifications = notifications.UnreadCount
	for i := len(notifications.Notifications) - 1; i >= 0; i-- {
		n := notifications.Notifications[i]
		space.AddNotification(model.Notification{
			ID:        n.ID,
			Title:     n.Title,
			Category:  n.Category,
			Timestamp: time.Time(n.Timestamp),
			UserName:  n.UserName,
			Payload:   n.Data,
		})
	}

	var videoEdges []videoEdgePayload
	if err := c.do(ctx, http.MethodGet, "/hubs/"+hub.HubID+"/videoEdges", nil, &videoEdges); err != nil {
		return nil, errors.Wrap(err, "fetching video edges")
	}
	for _, v := range videoEdges {
		space.VideoEdges[v.ID] = &model.VideoEdge{
			ID:              v.ID,
			Name:            v.Name,
			IPAddress:       v.IPAddress,
			MACAddress:      v.MACAddress,
			FirmwareVersion: v.FirmwareVersion,
			ConnectionState: v.ConnectionState,
			Color:           v.Color,
			Type:            model.ParseVideoEdgeType(v.VideoEdgeType),
		}
	}

	return space, nil
}

// deviceFromPayload lifts the well-known fields out of a raw device
// object; everything else lands in the free-form attribute map so that
// per-type handlers can read vendor-specific settings without the client
// knowing about them.
func deviceFromPayload(raw map[string]interface{}, hubID string) *model.Device {
	d := &model.Device{
		HubID:      hubID,
		Attributes: make(map[string]interface{}),
	}

	for k, v := range raw {
		switch k {
		case "id":
			d.ID, _ = v.(string)
		case "deviceName":
			d.Name, _ = v.(string)
		case "deviceType":
			d.RawType, _ = v.(string)
			d.Type = model.ParseDeviceType(d.RawType)
		case "roomId":
			d.RoomID, _ = v.(string)
		case "online":
			d.Online, _ = v.(bool)
		case "batteryChargeLevelPercentage":
			if f, ok := v.(float64); ok {
				level := int(f)
				d.BatteryLevel = &level
			}
		case "signalLevelPercentage":
			if f, ok := v.(float64); ok {
				level := int(f)
				d.SignalStrength = &level
			}
		default:
			d.Attributes[k] = v
		}
	}

	return d
}

type armingCommand struct {
	Command        string `json:"command"`
	IgnoreProblems bool   `json:"ignoreProblems"`
}

func (c *Live) sendArming(ctx context.Context, path string, command string) error {
	logging.Logger(ctx).Debugf("sending arming command %s to %s", command, path)

	err := c.do(ctx, http.MethodPut, path, armingCommand{Command: command, IgnoreProblems: true}, nil)
	return errors.Wrapf(err, "sending %s command", command)
}

func (c *Live) ArmSpace(ctx context.Context, spaceID string) error {
	return c.sendArming(ctx, "/hubs/"+spaceID+"/commands/arming", "ARM")
}

func (c *Live) DisarmSpace(ctx context.Context, spaceID string) error {
	return c.sendArming(ctx, "/hubs/"+spaceID+"/commands/arming", "DISARM")
}

func (c *Live) ArmNight(ctx context.Context, spaceID string) error {
	return c.sendArming(ctx, "/hubs/"+spaceID+"/commands/arming", "NIGHT_MODE_ON")
}

func (c *Live) ArmGroup(ctx context.Context, spaceID, groupID string) error {
	return c.sendArming(ctx, fmt.Sprintf("/hubs/%s/groups/%s/commands/arming", spaceID, groupID), "ARM")
}

func (c *Live) DisarmGroup(ctx context.Context, spaceID, groupID string) error {
	return c.sendArming(ctx, fmt.Sprintf("/hubs/%s/groups/%s/commands/arming", spaceID, groupID), "DISARM")
}

func (c *Live) UpdateDevice(ctx context.Context, hubID, deviceID string, patch map[string]interface{}) error {
	logging.Logger(ctx).Debugf("updating device %s on hub %s: %v", deviceID, hubID, patch)

	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/hubs/%s/devices/%s", hubID, deviceID), patch, nil)
	return errors.Wrap(err, "updating device settings")
}

func (c *Live) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

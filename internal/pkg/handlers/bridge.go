package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/jake-scott/hass-ajax/internal/pkg/ajaxapi"
	"github.com/jake-scott/hass-ajax/internal/pkg/coordinator"
	"github.com/jake-scott/hass-ajax/internal/pkg/entities"
	"github.com/jake-scott/hass-ajax/internal/pkg/logging"
	"github.com/jake-scott/hass-ajax/internal/pkg/notify"
)

// BridgeHandler is the HTTP surface the host automation runtime talks
// to: entity discovery, state reads, commands and webhook registration.
type BridgeHandler struct {
	coord    *coordinator.Coordinator
	platform *entities.Platform
	notifier *notify.Notifier
}

func NewBridgeHandler(coord *coordinator.Coordinator, platform *entities.Platform, notifier *notify.Notifier) BridgeHandler {
	return BridgeHandler{
		coord:    coord,
		platform: platform,
		notifier: notifier,
	}
}

// Routes attaches the API to a router.
func (h *BridgeHandler) Routes(r *mux.Router) {
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/entities", h.listEntities).Methods(http.MethodGet)
	api.HandleFunc("/spaces/{spaceID}", h.getSpace).Methods(http.MethodGet)
	api.HandleFunc("/spaces/{spaceID}/groups/{groupID}", h.getGroup).Methods(http.MethodGet)
	api.HandleFunc("/spaces/{spaceID}/commands/{command}", h.spaceCommand).Methods(http.MethodPost)
	api.HandleFunc("/spaces/{spaceID}/groups/{groupID}/commands/{command}", h.groupCommand).Methods(http.MethodPost)
	api.HandleFunc("/spaces/{spaceID}/devices/{deviceID}/switch", h.setSwitch).Methods(http.MethodPost)
	api.HandleFunc("/spaces/{spaceID}/devices/{deviceID}/select", h.setSelect).Methods(http.MethodPost)
	api.HandleFunc("/refresh", h.refresh).Methods(http.MethodPost)
	api.HandleFunc("/subscriptions", h.subscribe).Methods(http.MethodPost)
	api.HandleFunc("/subscriptions/{id}", h.unsubscribe).Methods(http.MethodDelete)
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (h *BridgeHandler) health(w http.ResponseWriter, r *http.Request) {
	if h.coord.Ready() {
		sendJSONResponse(w, r, http.StatusOK, healthResponse{Status: "ready"})
		return
	}

	resp := healthResponse{Status: "not_ready"}
	if err := h.coord.LastError(); err != nil {
		resp.Error = err.Error()
	}
	sendJSONResponse(w, r, http.StatusServiceUnavailable, resp)
}

func (h *BridgeHandler) listEntities(w http.ResponseWriter, r *http.Request) {
	sendJSONResponse(w, r, http.StatusOK, h.platform.List())
}

type spaceResponse struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	HubID               string          `json:"hubId"`
	State               string          `json:"state"`
	GroupModeEnabled    bool            `json:"groupModeEnabled"`
	UnreadNotifications int             `json:"unreadNotifications"`
	ChangedBy           string          `json:"changedBy,omitempty"`
	Groups              []groupResponse `json:"groups"`
}

type groupResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
}

func (h *BridgeHandler) getSpace(w http.ResponseWriter, r *http.Request) {
	spaceID := mux.Vars(r)["spaceID"]

	space := h.coord.GetSpace(spaceID)
	if space == nil {
		sendErrorResponse(w, r, http.StatusNotFound, "space not found")
		return
	}

	resp := spaceResponse{
		ID:                  space.ID,
		Name:                space.Name,
		HubID:               space.HubID,
		State:               entities.PanelState(space.SecurityState),
		GroupModeEnabled:    space.GroupModeEnabled,
		UnreadNotifications: space.UnreadNotifications,
		ChangedBy:           space.ChangedBy(),
		Groups:              make([]groupResponse, 0, len(space.Groups)),
	}
	for _, g := range space.Groups {
		resp.Groups = append(resp.Groups, groupResponse{
			ID: g.ID, Name: g.Name, State: entities.GroupPanelState(g.State),
		})
	}

	sendJSONResponse(w, r, http.StatusOK, resp)
}

func (h *BridgeHandler) getGroup(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	group := h.coord.GetGroup(vars["spaceID"], vars["groupID"])
	if group == nil {
		sendErrorResponse(w, r, http.StatusNotFound, "group not found")
		return
	}

	sendJSONResponse(w, r, http.StatusOK, groupResponse{
		ID: group.ID, Name: group.Name, State: entities.GroupPanelState(group.State),
	})
}

func (h *BridgeHandler) spaceCommand(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	spaceID := vars["spaceID"]

	var err error
	switch vars["command"] {
	case "arm":
		err = h.platform.ArmSpace(r.Context(), spaceID)
	case "disarm":
		err = h.platform.DisarmSpace(r.Context(), spaceID)
	case "arm_night":
		err = h.platform.ArmNightMode(r.Context(), spaceID)
	default:
		sendErrorResponse(w, r, http.StatusBadRequest, "unknown command "+vars["command"])
		return
	}

	h.sendCommandResult(w, r, err)
}

func (h *BridgeHandler) groupCommand(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var err error
	switch vars["command"] {
	case "arm":
		err = h.platform.ArmGroup(r.Context(), vars["spaceID"], vars["groupID"])
	case "disarm":
		err = h.platform.DisarmGroup(r.Context(), vars["spaceID"], vars["groupID"])
	default:
		sendErrorResponse(w, r, http.StatusBadRequest, "unknown command "+vars["command"])
		return
	}

	h.sendCommandResult(w, r, err)
}

type switchRequest struct {
	Key string `json:"key"`
	On  bool   `json:"on"`
}

func (h *BridgeHandler) setSwitch(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req switchRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		sendErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Key == "" {
		req.Key = "switch"
	}

	err := h.platform.SetSwitch(r.Context(), vars["spaceID"], vars["deviceID"], req.Key, req.On)
	h.sendCommandResult(w, r, err)
}

type selectRequest struct {
	Key    string `json:"key"`
	Option string `json:"option"`
}

func (h *BridgeHandler) setSelect(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req selectRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		sendErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	err := h.platform.SetSelect(r.Context(), vars["spaceID"], vars["deviceID"], req.Key, req.Option)
	h.sendCommandResult(w, r, err)
}

func (h *BridgeHandler) refresh(w http.ResponseWriter, r *http.Request) {
	var err error
	if r.URL.Query().Get("bypassCache") == "true" {
		err = h.coord.RefreshBypassCache(r.Context())
	} else {
		err = h.coord.Refresh(r.Context())
	}

	if err != nil {
		logging.Logger(r.Context()).WithError(err).Error("on-demand refresh failed")
		sendErrorResponse(w, r, http.StatusBadGateway, err.Error())
		return
	}

	sendJSONResponse(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

type subscriptionRequest struct {
	URL string `json:"url"`
}

type subscriptionResponse struct {
	ID string `json:"id"`
}

func (h *BridgeHandler) subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscriptionRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		sendErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.URL == "" {
		sendErrorResponse(w, r, http.StatusBadRequest, "url is required")
		return
	}

	id := h.notifier.Subscribe(req.URL)
	sendJSONResponse(w, r, http.StatusCreated, subscriptionResponse{ID: id})
}

func (h *BridgeHandler) unsubscribe(w http.ResponseWriter, r *http.Request) {
	if !h.notifier.Unsubscribe(mux.Vars(r)["id"]) {
		sendErrorResponse(w, r, http.StatusNotFound, "subscription not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// sendCommandResult maps the error taxonomy onto HTTP statuses. Command
// failures surface the cause so the host can show it to the user.
func (h *BridgeHandler) sendCommandResult(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case err == nil:
		sendJSONResponse(w, r, http.StatusOK, map[string]string{"status": "ok"})
	case coordinator.IsNotFound(err):
		sendErrorResponse(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, entities.ErrSpaceArmed):
		sendErrorResponse(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, entities.ErrUnknownOption):
		sendErrorResponse(w, r, http.StatusBadRequest, err.Error())
	case ajaxapi.IsAuthError(err):
		sendErrorResponse(w, r, http.StatusBadGateway, "vendor authentication failed")
	default:
		logging.Logger(r.Context()).WithError(err).Error("command failed")
		sendErrorResponse(w, r, http.StatusBadGateway, err.Error())
	}
}

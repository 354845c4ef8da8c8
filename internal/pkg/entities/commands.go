package entities

import (
	"context"

	"github.com/pkg/errors"

	"github.com/jake-scott/hass-ajax/internal/pkg/coordinator"
	"github.com/jake-scott/hass-ajax/internal/pkg/devices"
	"github.com/jake-scott/hass-ajax/internal/pkg/logging"
	"github.com/jake-scott/hass-ajax/internal/pkg/model"
)

// ErrSpaceArmed is returned for settings the hub only accepts while the
// space is disarmed.
var ErrSpaceArmed = errors.New("space must be disarmed to change this setting")

// ErrUnknownOption is returned when a select command names an option the
// entity does not offer.
var ErrUnknownOption = errors.New("unknown select option")

// Arm/disarm forwarding. The coordinator implements the optimistic echo
// and failure reconciliation; nothing to add here.

func (p *Platform) ArmSpace(ctx context.Context, spaceID string) error {
	logging.Logger(ctx).Infof("arming space %s", spaceID)
	return p.coord.ArmSpace(ctx, spaceID)
}

func (p *Platform) DisarmSpace(ctx context.Context, spaceID string) error {
	logging.Logger(ctx).Infof("disarming space %s", spaceID)
	return p.coord.DisarmSpace(ctx, spaceID)
}

func (p *Platform) ArmNightMode(ctx context.Context, spaceID string) error {
	logging.Logger(ctx).Infof("arming space %s night mode", spaceID)
	return p.coord.ArmNightMode(ctx, spaceID)
}

func (p *Platform) ArmGroup(ctx context.Context, spaceID, groupID string) error {
	logging.Logger(ctx).Infof("arming group %s/%s", spaceID, groupID)
	return p.coord.ArmGroup(ctx, spaceID, groupID)
}

func (p *Platform) DisarmGroup(ctx context.Context, spaceID, groupID string) error {
	logging.Logger(ctx).Infof("disarming group %s/%s", spaceID, groupID)
	return p.coord.DisarmGroup(ctx, spaceID, groupID)
}

// SetSwitch turns a device switch entity on or off.
func (p *Platform) SetSwitch(ctx context.Context, spaceID, deviceID, key string, on bool) error {
	space, device, err := p.lookup(spaceID, deviceID)
	if err != nil {
		return err
	}

	h, ok := devices.HandlerFor(device)
	if !ok {
		return &coordinator.NotFoundError{Kind: "switch", ID: deviceID + "_" + key}
	}

	for _, sw := range h.Switches(device) {
		if sw.Key != key {
			continue
		}

		patch := sw.TurnOn
		if !on {
			patch = sw.TurnOff
		}
		logging.Logger(ctx).Infof("switch %s/%s_%s -> %v", spaceID, deviceID, key, on)

		return p.coord.UpdateDevice(ctx, space.ID, deviceID, patch)
	}

	return &coordinator.NotFoundError{Kind: "switch", ID: deviceID + "_" + key}
}

// SetSelect applies a select entity option.
func (p *Platform) SetSelect(ctx context.Context, spaceID, deviceID, key, option string) error {
	space, device, err := p.lookup(spaceID, deviceID)
	if err != nil {
		return err
	}

	h, ok := devices.HandlerFor(device)
	if !ok {
		return &coordinator.NotFoundError{Kind: "select", ID: deviceID + "_" + key}
	}

	for _, sel := range h.Selects(device) {
		if sel.Key != key {
			continue
		}

		patch, ok := sel.Patches[option]
		if !ok {
			return errors.Wrapf(ErrUnknownOption, "option %q for %s_%s", option, deviceID, key)
		}
		if sel.RequiresDisarmed && space.SecurityState != model.SecurityStateDisarmed {
			return ErrSpaceArmed
		}
		logging.Logger(ctx).Infof("select %s/%s_%s -> %s", spaceID, deviceID, key, option)

		return p.coord.UpdateDevice(ctx, space.ID, deviceID, patch)
	}

	return &coordinator.NotFoundError{Kind: "select", ID: deviceID + "_" + key}
}

func (p *Platform) lookup(spaceID, deviceID string) (*model.Space, *model.Device, error) {
	space := p.coord.GetSpace(spaceID)
	if space == nil {
		return nil, nil, &coordinator.NotFoundError{Kind: "space", ID: spaceID}
	}

	device, ok := space.Devices[deviceID]
	if !ok {
		return nil, nil, &coordinator.NotFoundError{Kind: "device", ID: deviceID}
	}

	return space, device, nil
}

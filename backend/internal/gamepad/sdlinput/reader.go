package sdlinput

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/jupiterrider/purego-sdl3/sdl"
	"go.uber.org/zap"

	"github.com/soar/padbind/backend/internal/gamepad"
	"github.com/soar/padbind/backend/internal/playermap"
)

const (
	deadzone          = 0.05
	pollDelayNS       = 16_000_000 // ~60Hz
	hatUp       uint8 = 0x01
	hatRight    uint8 = 0x02
	hatDown     uint8 = 0x04
	hatLeft     uint8 = 0x08
)

type joystickInfo struct {
	joystick *sdl.Joystick
	device   gamepad.Device
	mapping  *gamepad.DeviceMapping
}

// Reader reads every connected joystick through the SDL3 Joystick API, feeds
// hotplug events to the bindings and emits per-player state changes.
type Reader struct {
	logger    *zap.Logger
	bindings  *gamepad.Bindings
	joysticks map[sdl.JoystickID]*joystickInfo
	changes   chan gamepad.GamepadState
}

func NewReader(logger *zap.Logger, bindings *gamepad.Bindings) *Reader {
	return &Reader{
		logger:    logger,
		bindings:  bindings,
		joysticks: make(map[sdl.JoystickID]*joystickInfo),
		changes:   make(chan gamepad.GamepadState, 64),
	}
}

// Changes returns the channel on which per-player state changes are sent.
func (r *Reader) Changes() <-chan gamepad.GamepadState {
	return r.changes
}

// Run initializes SDL and runs the event and polling loop on the current
// thread until ctx is done. The joysticks map is only touched from this loop.
// The Changes channel is closed when Run returns.
func (r *Reader) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	// Only this loop sends on changes.
	defer close(r.changes)

	if !sdl.Init(sdl.InitJoystick) {
		return errors.New("SDL init failed: " + sdl.GetError())
	}
	defer sdl.Quit()

	r.logger.Info("SDL3 joystick subsystem initialized")

	for _, id := range sdl.GetJoysticks() {
		r.openJoystick(id)
	}
	r.bindings.Restore()

	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return nil
		default:
		}

		r.processEvents()
		r.pollState()
		sdl.DelayNS(pollDelayNS)
	}
}

func (r *Reader) processEvents() {
	var event sdl.Event
	for sdl.PollEvent(&event) {
		switch event.Type() {
		case sdl.EventJoystickAdded:
			r.openJoystick(event.JDevice().Which)

		case sdl.EventJoystickRemoved:
			r.removeJoystick(event.JDevice().Which)

		case sdl.EventJoystickButtonDown:
			be := event.JButton()
			r.logger.Debug("Button down", zap.Int("index", int(be.Button)), zap.Uint32("joystick", uint32(be.Which)))

		case sdl.EventJoystickButtonUp:
			be := event.JButton()
			r.logger.Debug("Button up", zap.Int("index", int(be.Button)), zap.Uint32("joystick", uint32(be.Which)))

		case sdl.EventJoystickHatMotion:
			he := event.JHat()
			r.logger.Debug("Hat motion", zap.Int("index", int(he.Hat)), zap.Int("value", int(he.Value)), zap.Uint32("joystick", uint32(he.Which)))
		}
	}
}

func (r *Reader) openJoystick(instanceID sdl.JoystickID) {
	if _, exists := r.joysticks[instanceID]; exists {
		return
	}

	js := sdl.OpenJoystick(instanceID)
	if js == nil {
		r.logger.Warn("Failed to open joystick",
			zap.Uint32("joystick", uint32(instanceID)),
			zap.String("error", sdl.GetError()),
		)
		return
	}

	jsID := sdl.GetJoystickID(js)
	vendorID := sdl.GetJoystickVendor(js)
	productID := sdl.GetJoystickProduct(js)
	name := sdl.GetJoystickName(js)
	mapping := gamepad.GetMapping(vendorID, productID)

	info := &joystickInfo{
		joystick: js,
		mapping:  mapping,
		device: gamepad.Device{
			ID:             playermap.HardwareID(jsID),
			Name:           name,
			UniqueName:     gamepad.UniqueName(vendorID, productID, name),
			ControllerType: mapping.Name,
			VendorID:       vendorID,
			ProductID:      productID,
			Serial:         sdl.GetJoystickSerial(js),
		},
	}
	r.joysticks[jsID] = info

	r.logger.Info("Joystick connected",
		zap.String("name", name),
		zap.Uint32("joystick", uint32(jsID)),
		zap.String("vid", fmt.Sprintf("%04X", vendorID)),
		zap.String("pid", fmt.Sprintf("%04X", productID)),
		zap.String("mapping", mapping.Name),
		zap.Int("axes", int(sdl.GetNumJoystickAxes(js))),
		zap.Int("buttons", int(sdl.GetNumJoystickButtons(js))),
		zap.Int("hats", int(sdl.GetNumJoystickHats(js))),
	)

	r.bindings.Attach(info.device)
}

func (r *Reader) removeJoystick(instanceID sdl.JoystickID) {
	info, exists := r.joysticks[instanceID]
	if !exists {
		return
	}

	r.logger.Info("Joystick disconnected",
		zap.String("name", info.device.Name),
		zap.Uint32("joystick", uint32(instanceID)),
	)
	sdl.CloseJoystick(info.joystick)
	delete(r.joysticks, instanceID)
	r.bindings.Detach(info.device.ID)
}

func (r *Reader) closeAll() {
	for id, info := range r.joysticks {
		sdl.CloseJoystick(info.joystick)
		delete(r.joysticks, id)
	}
}

func (r *Reader) pollState() {
	input := make(map[playermap.HardwareID]gamepad.GamepadState, len(r.joysticks))
	for _, info := range r.joysticks {
		if !sdl.JoystickConnected(info.joystick) {
			continue
		}
		input[info.device.ID] = readJoystick(info)
	}

	for _, state := range r.bindings.Route(input) {
		r.emitState(state)
	}
}

func readJoystick(info *joystickInfo) gamepad.GamepadState {
	js := info.joystick
	mapping := info.mapping
	state := gamepad.GamepadState{
		Connected:      true,
		ControllerType: mapping.Name,
		Name:           info.device.Name,
	}

	for _, am := range mapping.Axes {
		raw := sdl.GetJoystickAxis(js, am.Index)
		if am.IsTrigger {
			val := gamepad.ApplyDeadzone(gamepad.NormalizeTrigger(raw, am.RawMin, am.RawMax), deadzone)
			switch am.Target {
			case gamepad.LT:
				state.Triggers.LT.Value = val
			case gamepad.RT:
				state.Triggers.RT.Value = val
			}
			continue
		}

		val := gamepad.NormalizeAxis(raw)
		if am.Invert {
			val = -val
		}
		val = gamepad.ApplyDeadzone(val, deadzone)
		switch am.Target {
		case gamepad.LeftX:
			state.Sticks.Left.Position.X = val
		case gamepad.LeftY:
			state.Sticks.Left.Position.Y = val
		case gamepad.RightX:
			state.Sticks.Right.Position.X = val
		case gamepad.RightY:
			state.Sticks.Right.Position.Y = val
		}
	}

	numButtons := sdl.GetNumJoystickButtons(js)
	for _, bm := range mapping.Buttons {
		if bm.Index >= numButtons {
			continue
		}
		pressed := sdl.GetJoystickButton(js, bm.Index)
		switch bm.Target {
		case gamepad.ButtonA:
			state.Buttons.A = pressed
		case gamepad.ButtonB:
			state.Buttons.B = pressed
		case gamepad.ButtonX:
			state.Buttons.X = pressed
		case gamepad.ButtonY:
			state.Buttons.Y = pressed
		case gamepad.ButtonLB:
			state.Buttons.LB = pressed
		case gamepad.ButtonRB:
			state.Buttons.RB = pressed
		case gamepad.ButtonSelect:
			state.Buttons.Select = pressed
		case gamepad.ButtonStart:
			state.Buttons.Start = pressed
		case gamepad.ButtonHome:
			state.Buttons.Home = pressed
		case gamepad.ButtonL3:
			state.Sticks.Left.Pressed = pressed
		case gamepad.ButtonR3:
			state.Sticks.Right.Pressed = pressed
		}
	}

	if mapping.HasHat && sdl.GetNumJoystickHats(js) > 0 {
		hat := sdl.GetJoystickHat(js, 0)
		state.Dpad.Up = hat&hatUp != 0
		state.Dpad.Right = hat&hatRight != 0
		state.Dpad.Down = hat&hatDown != 0
		state.Dpad.Left = hat&hatLeft != 0
	}

	return state
}

func (r *Reader) emitState(s gamepad.GamepadState) {
	select {
	case r.changes <- s:
	default:
		// Drop if the channel is full rather than block the SDL thread.
	}
}

package gamepad

import "math"

type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type StickState struct {
	Position Vector `json:"position"`
	Pressed  bool   `json:"pressed"`
}

type TriggerState struct {
	Value float64 `json:"value"`
}

type ButtonState struct {
	A      bool `json:"a"`
	B      bool `json:"b"`
	X      bool `json:"x"`
	Y      bool `json:"y"`
	LB     bool `json:"lb"`
	RB     bool `json:"rb"`
	Select bool `json:"select"`
	Start  bool `json:"start"`
	Home   bool `json:"home"`
}

type DpadState struct {
	Up    bool `json:"up"`
	Down  bool `json:"down"`
	Left  bool `json:"left"`
	Right bool `json:"right"`
}

type SticksState struct {
	Left  StickState `json:"left"`
	Right StickState `json:"right"`
}

type TriggersState struct {
	LT TriggerState `json:"lt"`
	RT TriggerState `json:"rt"`
}

// GamepadState is the combined input of every device routed to one player.
type GamepadState struct {
	PlayerIndex    int           `json:"playerIndex"`
	Connected      bool          `json:"connected"`
	ControllerType string        `json:"controllerType"`
	Name           string        `json:"name"`
	Devices        int           `json:"devices"`
	Buttons        ButtonState   `json:"buttons"`
	Dpad           DpadState     `json:"dpad"`
	Sticks         SticksState   `json:"sticks"`
	Triggers       TriggersState `json:"triggers"`
}

// Merge folds the input of one more device into s. Buttons are OR-ed, axes
// keep the value furthest from rest. Name and type come from the first device.
func (s GamepadState) Merge(dev GamepadState) GamepadState {
	if !dev.Connected {
		return s
	}
	if !s.Connected {
		s.Connected = true
		s.Name = dev.Name
		s.ControllerType = dev.ControllerType
	}
	s.Devices++

	b, o := &s.Buttons, dev.Buttons
	b.A = b.A || o.A
	b.B = b.B || o.B
	b.X = b.X || o.X
	b.Y = b.Y || o.Y
	b.LB = b.LB || o.LB
	b.RB = b.RB || o.RB
	b.Select = b.Select || o.Select
	b.Start = b.Start || o.Start
	b.Home = b.Home || o.Home

	d, od := &s.Dpad, dev.Dpad
	d.Up = d.Up || od.Up
	d.Down = d.Down || od.Down
	d.Left = d.Left || od.Left
	d.Right = d.Right || od.Right

	s.Sticks.Left = mergeStick(s.Sticks.Left, dev.Sticks.Left)
	s.Sticks.Right = mergeStick(s.Sticks.Right, dev.Sticks.Right)
	s.Triggers.LT.Value = math.Max(s.Triggers.LT.Value, dev.Triggers.LT.Value)
	s.Triggers.RT.Value = math.Max(s.Triggers.RT.Value, dev.Triggers.RT.Value)
	return s
}

func mergeStick(a, b StickState) StickState {
	return StickState{
		Position: Vector{X: dominant(a.Position.X, b.Position.X), Y: dominant(a.Position.Y, b.Position.Y)},
		Pressed:  a.Pressed || b.Pressed,
	}
}

func dominant(a, b float64) float64 {
	if math.Abs(b) > math.Abs(a) {
		return b
	}
	return a
}

type DeltaChanges struct {
	Connected      *bool          `json:"connected,omitempty"`
	ControllerType *string        `json:"controllerType,omitempty"`
	Name           *string        `json:"name,omitempty"`
	Devices        *int           `json:"devices,omitempty"`
	Buttons        *ButtonState   `json:"buttons,omitempty"`
	Dpad           *DpadState     `json:"dpad,omitempty"`
	Sticks         *SticksState   `json:"sticks,omitempty"`
	Triggers       *TriggersState `json:"triggers,omitempty"`
}

func (d *DeltaChanges) IsEmpty() bool {
	return d.Connected == nil &&
		d.ControllerType == nil &&
		d.Name == nil &&
		d.Devices == nil &&
		d.Buttons == nil &&
		d.Dpad == nil &&
		d.Sticks == nil &&
		d.Triggers == nil
}

const analogThreshold = 0.01

func floatEqual(a, b float64) bool {
	return math.Abs(a-b) < analogThreshold
}

func stickEqual(a, b StickState) bool {
	return floatEqual(a.Position.X, b.Position.X) &&
		floatEqual(a.Position.Y, b.Position.Y) &&
		a.Pressed == b.Pressed
}

// ComputeDelta returns the fields of next that differ from prev. Analog values
// within analogThreshold count as unchanged.
func ComputeDelta(prev, next GamepadState) *DeltaChanges {
	d := &DeltaChanges{}

	if prev.Connected != next.Connected {
		d.Connected = &next.Connected
	}
	if prev.ControllerType != next.ControllerType {
		d.ControllerType = &next.ControllerType
	}
	if prev.Name != next.Name {
		d.Name = &next.Name
	}
	if prev.Devices != next.Devices {
		d.Devices = &next.Devices
	}
	if prev.Buttons != next.Buttons {
		d.Buttons = &next.Buttons
	}
	if prev.Dpad != next.Dpad {
		d.Dpad = &next.Dpad
	}
	if !stickEqual(prev.Sticks.Left, next.Sticks.Left) || !stickEqual(prev.Sticks.Right, next.Sticks.Right) {
		d.Sticks = &next.Sticks
	}
	if !floatEqual(prev.Triggers.LT.Value, next.Triggers.LT.Value) ||
		!floatEqual(prev.Triggers.RT.Value, next.Triggers.RT.Value) {
		d.Triggers = &next.Triggers
	}

	return d
}

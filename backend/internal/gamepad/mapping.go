package gamepad

import (
	"fmt"
	"math"
	"strings"
)

// Control is a logical gamepad input that raw axes and buttons are routed to.
type Control string

const (
	LeftX  Control = "left_x"
	LeftY  Control = "left_y"
	RightX Control = "right_x"
	RightY Control = "right_y"
	LT     Control = "lt"
	RT     Control = "rt"

	ButtonA      Control = "a"
	ButtonB      Control = "b"
	ButtonX      Control = "x"
	ButtonY      Control = "y"
	ButtonLB     Control = "lb"
	ButtonRB     Control = "rb"
	ButtonSelect Control = "select"
	ButtonStart  Control = "start"
	ButtonHome   Control = "home"
	ButtonL3     Control = "l3"
	ButtonR3     Control = "r3"
)

// AxisMapping defines how a raw axis index maps to a gamepad field.
type AxisMapping struct {
	Index     int32
	Target    Control
	IsTrigger bool
	Invert    bool
	// Trigger raw range. Some devices use -32768..32767, others 0..32767.
	RawMin int16
	RawMax int16
}

// ButtonMapping defines how a raw button index maps to a gamepad button.
type ButtonMapping struct {
	Index  int32
	Target Control
}

// DeviceMapping holds the complete mapping for a specific device type.
type DeviceMapping struct {
	Name    string
	Axes    []AxisMapping
	Buttons []ButtonMapping
	HasHat  bool
}

// NormalizeAxis converts a raw axis value (-32768..32767) to -1.0..1.0.
func NormalizeAxis(raw int16) float64 {
	return math.Max(float64(raw)/math.MaxInt16, -1.0)
}

// NormalizeTrigger converts a raw trigger value to 0.0..1.0.
func NormalizeTrigger(raw int16, rawMin, rawMax int16) float64 {
	if rawMax == rawMin {
		return 0
	}
	v := (float64(raw) - float64(rawMin)) / (float64(rawMax) - float64(rawMin))
	return math.Min(math.Max(v, 0), 1)
}

// ApplyDeadzone returns 0 if the value is within the deadzone threshold.
func ApplyDeadzone(v float64, threshold float64) float64 {
	if math.Abs(v) < threshold {
		return 0
	}
	return v
}

// tokenReplacer strips the separators of the persisted binding format.
var tokenReplacer = strings.NewReplacer(":", "_", ",", "_")

// UniqueName builds the model part of the identity a joystick keeps across
// reconnects. SDL instance ids change on every attach, vendor/product/name do
// not. Identical pads are told apart when they are attached (see Device.Serial).
func UniqueName(vendorID, productID uint16, name string) string {
	name = strings.TrimSpace(tokenReplacer.Replace(name))
	if name == "" {
		return fmt.Sprintf("%04x-%04x", vendorID, productID)
	}
	return fmt.Sprintf("%04x-%04x-%s", vendorID, productID, name)
}

var standardSticks = []AxisMapping{
	{Index: 0, Target: LeftX},
	{Index: 1, Target: LeftY, Invert: true},
	{Index: 2, Target: RightX},
	{Index: 3, Target: RightY, Invert: true},
}

var fullRangeTriggers = []AxisMapping{
	{Index: 4, Target: LT, IsTrigger: true, RawMin: -32768, RawMax: 32767},
	{Index: 5, Target: RT, IsTrigger: true, RawMin: -32768, RawMax: 32767},
}

// xinputButtons is the button order of Xbox pads, the Switch Pro controller
// and most generic HID pads.
var xinputButtons = []ButtonMapping{
	{Index: 0, Target: ButtonA},
	{Index: 1, Target: ButtonB},
	{Index: 2, Target: ButtonX},
	{Index: 3, Target: ButtonY},
	{Index: 4, Target: ButtonLB},
	{Index: 5, Target: ButtonRB},
	{Index: 6, Target: ButtonSelect},
	{Index: 7, Target: ButtonStart},
	{Index: 8, Target: ButtonL3},
	{Index: 9, Target: ButtonR3},
	{Index: 10, Target: ButtonHome},
}

var xboxMapping = &DeviceMapping{
	Name:    "xbox",
	Axes:    append(append([]AxisMapping{}, standardSticks...), fullRangeTriggers...),
	Buttons: xinputButtons,
	HasHat:  true,
}

var playstationMapping = &DeviceMapping{
	Name: "playstation",
	Axes: append(append([]AxisMapping{}, standardSticks...), fullRangeTriggers...),
	Buttons: []ButtonMapping{
		{Index: 0, Target: ButtonA},      // Cross
		{Index: 1, Target: ButtonB},      // Circle
		{Index: 2, Target: ButtonX},      // Square
		{Index: 3, Target: ButtonY},      // Triangle
		{Index: 4, Target: ButtonSelect}, // Share / Create
		{Index: 5, Target: ButtonHome},   // PS button
		{Index: 6, Target: ButtonStart},  // Options
		{Index: 7, Target: ButtonL3},
		{Index: 8, Target: ButtonR3},
		{Index: 9, Target: ButtonLB},  // L1
		{Index: 10, Target: ButtonRB}, // R1
	},
	HasHat: true,
}

var switchProMapping = &DeviceMapping{
	Name:    "switch_pro",
	Axes:    standardSticks,
	Buttons: xinputButtons,
	HasHat:  true,
}

var genericMapping = &DeviceMapping{
	Name:    "generic",
	Axes:    append(append([]AxisMapping{}, standardSticks...), fullRangeTriggers...),
	Buttons: xinputButtons,
	HasHat:  true,
}

type deviceKey struct {
	VendorID  uint16
	ProductID uint16
}

var knownDevices = map[deviceKey]*DeviceMapping{
	// Microsoft Xbox controllers
	{0x045E, 0x028E}: xboxMapping, // Xbox 360
	{0x045E, 0x02FF}: xboxMapping, // Xbox One
	{0x045E, 0x0B12}: xboxMapping, // Xbox Series X|S
	{0x045E, 0x0B13}: xboxMapping, // Xbox Series X|S (wireless)
	// Sony PlayStation controllers
	{0x054C, 0x0CE6}: playstationMapping, // DualSense
	{0x054C, 0x09CC}: playstationMapping, // DualShock 4 v2
	{0x054C, 0x05C4}: playstationMapping, // DualShock 4 v1
	// Nintendo Switch Pro Controller
	{0x057E, 0x2009}: switchProMapping,
}

// GetMapping returns the mapping for a device identified by vendor/product ID,
// falling back to the generic mapping.
func GetMapping(vendorID, productID uint16) *DeviceMapping {
	if m, ok := knownDevices[deviceKey{VendorID: vendorID, ProductID: productID}]; ok {
		return m
	}
	return genericMapping
}

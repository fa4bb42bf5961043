// Package playermap binds physical input devices to player slots 1..4.
//
// The map holds two tables: hardware reference to player, and device unique
// name to the last known hardware reference. Hardware ids handed out by the
// input backend change when a controller is unplugged and plugged back in, so
// the unique name is what survives. When a device shows up under a new id,
// ReconnectDevice moves its old binding over as long as the old id is really
// gone.
//
// The persisted form is a single line of comma-terminated "player:token"
// pairs, for example
//
//	1:045e-028e-Xbox 360 Controller,2:7,
//
// Tokens are device unique names, or bare hardware ids for devices whose
// unique name is itself numeric.
package playermap

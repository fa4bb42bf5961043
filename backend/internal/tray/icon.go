package tray

import _ "embed"

// icon is a 16x16 gamepad glyph for the notification area.
//
//go:embed icon.ico
var icon []byte

// Icon returns the tray icon in .ico format.
func Icon() []byte {
	return icon
}

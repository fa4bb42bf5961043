package main

import (
	"embed"
	"fmt"
	"io/fs"
)

// The bindings web interface, served at "/".
//
//go:embed all:frontend
var frontend embed.FS

func frontendFS() (fs.FS, error) {
	sub, err := fs.Sub(frontend, "frontend")
	if err != nil {
		return nil, fmt.Errorf("embedded frontend: %w", err)
	}
	return sub, nil
}

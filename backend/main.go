package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/soar/padbind/backend/internal/cli"
	"github.com/soar/padbind/backend/internal/gamepad"
	"github.com/soar/padbind/backend/internal/gamepad/sdlinput"
	"github.com/soar/padbind/backend/internal/tray"
)

func main() {
	web, err := frontendFS()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	cmd := cli.NewRootCommand(cli.Deps{
		NewInput: func(logger *zap.Logger, bindings *gamepad.Bindings) cli.Input {
			return sdlinput.NewReader(logger, bindings)
		},
		Frontend: web,
		Icon:     tray.Icon(),
	})
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

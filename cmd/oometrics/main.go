// Package main provides the entry point for the oometrics CLI tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sumatoshi-tech/oometrics/cmd/oometrics/commands"
	"github.com/Sumatoshi-tech/oometrics/pkg/version"
)

const (
	exitFailure   = 1
	exitThreshold = 2
)

func main() {
	version.InitBinaryVersion()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := commands.NewRootCommand().ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		if errors.Is(err, commands.ErrThresholdExceeded) {
			os.Exit(exitThreshold)
		}

		os.Exit(exitFailure)
	}
}

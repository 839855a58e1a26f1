package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/smeenai/lab-distributor/internal/app"
	"github.com/smeenai/lab-distributor/internal/cli"
	"github.com/smeenai/lab-distributor/internal/tui"
)

// main is the entrypoint for the labdist application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// The real main function handles errors and exit codes.
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(outW io.Writer, args []string) (err error) {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// The app panics on critical config errors, so we recover here to turn
	// them into an error instead of a stack trace.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application startup panicked: %v", r)
		}
	}()

	labdistApp := app.NewApp(outW, appConfig, tui.PickStudents)
	return labdistApp.Run(context.Background())
}

package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/smeenai/lab-distributor/internal/course"
)

// PickFunc chooses a roster subset interactively. It receives the roster
// members in order and returns the chosen ids.
type PickFunc func(ctx context.Context, members []string) ([]string, error)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	course *course.Config
	pick   PickFunc
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and the loaded
// course layout. The picker is injected so non-interactive callers and tests
// can substitute their own.
func NewApp(outW io.Writer, cfg *Config, pick PickFunc) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	courseCfg, err := course.Load(cfg.Root)
	if err != nil {
		// A failure to load the course layout is a fatal startup error.
		panic(fmt.Errorf("failed to load course configuration: %w", err))
	}
	logger.Debug("Course layout loaded.",
		"root", courseCfg.Root(),
		"rosters", courseCfg.RosterNames(),
	)

	return &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		course: courseCfg,
		pick:   pick,
	}
}

// Course returns the loaded course layout. This is primarily for testing.
func (a *App) Course() *course.Config {
	return a.course
}

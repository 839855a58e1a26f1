package app

import (
	"errors"

	"github.com/smeenai/lab-distributor/internal/distributor"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Root   string // working-copy root
	Lab    string // lab name under the class dir
	Roster string // roster name from course.yaml

	Mode   distributor.Mode
	Subset []string // subset mode, unless Pick fills it interactively
	Pick   bool
	DryRun bool

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config and fills the defaulted fields.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.Lab == "" {
		return nil, errors.New("Lab is a required configuration field and cannot be empty")
	}
	if cfg.Mode == distributor.ModeSubset && !cfg.Pick && len(cfg.Subset) == 0 {
		return nil, errors.New("subset mode requires at least one student id")
	}
	if cfg.Root == "" {
		cfg.Root = "."
	}
	if cfg.Roster == "" {
		cfg.Roster = "students"
	}
	return &cfg, nil
}

package cli_test

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/smeenai/lab-distributor/internal/app"
	"github.com/smeenai/lab-distributor/internal/cli"
	"github.com/smeenai/lab-distributor/internal/distributor"
	"github.com/smeenai/lab-distributor/internal/lab"
	"github.com/smeenai/lab-distributor/internal/tui"
)

func TestParse(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name           string
		args           []string
		expectExit     bool
		expectErr      bool
		expectedConfig *app.Config
		checkOutput    func(t *testing.T, output string)
	}{
		{
			name: "Happy Path with all flags",
			args: []string{
				"-lab", "lab1",
				"--root=/course",
				"--roster=staff",
				"--students=alice,bob",
				"--dry-run",
				"--log-level=debug",
				"--log-format=json",
			},
			expectedConfig: &app.Config{
				Root:      "/course",
				Lab:       "lab1",
				Roster:    "staff",
				Mode:      distributor.ModeSubset,
				Subset:    []string{"alice", "bob"},
				DryRun:    true,
				LogFormat: "json",
				LogLevel:  "debug",
			},
		},
		{
			name: "Shorthand flag and defaults",
			args: []string{"-l", "lab2", "-all"},
			expectedConfig: &app.Config{
				Root:      ".",
				Lab:       "lab2",
				Roster:    "students",
				Mode:      distributor.ModeAll,
				LogFormat: "text",
				LogLevel:  "info",
			},
		},
		{
			name: "Positional argument for lab name",
			args: []string{"-missing", "lab3"},
			expectedConfig: &app.Config{
				Root:      ".",
				Lab:       "lab3",
				Roster:    "students",
				Mode:      distributor.ModeMissing,
				LogFormat: "text",
				LogLevel:  "info",
			},
		},
		{
			name: "Lab flag takes precedence over positional",
			args: []string{"-lab", "labA", "-all", "labB"},
			expectedConfig: &app.Config{
				Root:      ".",
				Lab:       "labA",
				Roster:    "students",
				Mode:      distributor.ModeAll,
				LogFormat: "text",
				LogLevel:  "info",
			},
		},
		{
			name: "Pick mode defers the subset",
			args: []string{"-pick", "lab1"},
			expectedConfig: &app.Config{
				Root:      ".",
				Lab:       "lab1",
				Roster:    "students",
				Mode:      distributor.ModeSubset,
				Pick:      true,
				LogFormat: "text",
				LogLevel:  "info",
			},
		},
		{
			name:       "Help flag triggers clean exit",
			args:       []string{"-h"},
			expectExit: true,
			checkOutput: func(t *testing.T, output string) {
				require.True(t, strings.Contains(output, "Usage:"), "Expected help text to be printed")
			},
		},
		{
			name:       "No lab name triggers clean exit with usage",
			args:       []string{},
			expectExit: true,
			checkOutput: func(t *testing.T, output string) {
				require.True(t, strings.Contains(output, "Usage:"), "Expected help text to be printed")
			},
		},
		{
			name:      "Missing recipient mode returns an error",
			args:      []string{"lab1"},
			expectErr: true,
		},
		{
			name:      "Conflicting recipient modes return an error",
			args:      []string{"-all", "-missing", "lab1"},
			expectErr: true,
		},
		{
			name:      "Pick conflicts with an explicit subset",
			args:      []string{"-pick", "--students=alice", "lab1"},
			expectErr: true,
		},
		{
			name:      "Empty students list returns an error",
			args:      []string{"--students=,", "lab1"},
			expectErr: true,
		},
		{
			name:      "Invalid log level returns an error",
			args:      []string{"-all", "--log-level=foo", "lab1"},
			expectErr: true,
		},
		{
			name:      "Invalid log format returns an error",
			args:      []string{"-all", "--log-format=yaml", "lab1"},
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			out := &bytes.Buffer{}

			// --- Act ---
			appConfig, shouldExit, err := cli.Parse(tc.args, out)

			// --- Assert ---
			if tc.expectErr {
				require.Error(t, err)
				var exitErr *cli.ExitError
				require.ErrorAs(t, err, &exitErr, "Expected error to be of type ExitError")
				require.Equal(t, cli.ExitUsage, exitErr.Code)
				return
			}
			require.NoError(t, err)

			require.Equal(t, tc.expectExit, shouldExit)

			if tc.expectedConfig != nil {
				if diff := cmp.Diff(tc.expectedConfig, appConfig); diff != "" {
					t.Errorf("Config mismatch (-want +got):\n%s", diff)
				}
			}

			if tc.checkOutput != nil {
				tc.checkOutput(t, out.String())
			}
		})
	}
}

func TestParse_StudentsFile(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	path := filepath.Join(t.TempDir(), "subset.txt")
	require.NoError(t, os.WriteFile(path, []byte("# graders\nalice\n\n  bob\n"), 0o644))

	// --- Act ---
	appConfig, shouldExit, err := cli.Parse([]string{"--students-file", path, "lab1"}, &bytes.Buffer{})

	// --- Assert ---
	require.NoError(t, err)
	require.False(t, shouldExit)
	require.Equal(t, distributor.ModeSubset, appConfig.Mode)
	require.Equal(t, []string{"alice", "bob"}, appConfig.Subset)
}

func TestParse_MissingStudentsFileIsRejected(t *testing.T) {
	t.Parallel()

	// --- Act ---
	_, _, err := cli.Parse([]string{"--students-file", filepath.Join(t.TempDir(), "absent.txt"), "lab1"}, &bytes.Buffer{})

	// --- Assert ---
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, cli.ExitUsage, exitErr.Code)
	require.Contains(t, exitErr.Message, "students-file")
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil error is success", err: nil, want: cli.ExitOK},
		{name: "exit error carries its own code", err: &cli.ExitError{Code: cli.ExitUsage, Message: "bad flag"}, want: cli.ExitUsage},
		{name: "aborted picker is an invocation error", err: fmt.Errorf("run: %w", tui.ErrPickAborted), want: cli.ExitUsage},
		{name: "partial failure", err: &distributor.IncompleteError{Failed: 1, Attempted: 3}, want: cli.ExitCopyFailed},
		{name: "wrapped partial failure", err: fmt.Errorf("run: %w", &distributor.IncompleteError{Failed: 2, Attempted: 2}), want: cli.ExitCopyFailed},
		{name: "metadata error is fatal", err: &lab.ConfigError{Path: "lab.hcl", Detail: "parse failed"}, want: cli.ExitFatal},
		{name: "unknown error is fatal", err: errors.New("boom"), want: cli.ExitFatal},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, cli.ExitCode(tc.err))
		})
	}
}

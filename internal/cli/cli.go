package cli

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/smeenai/lab-distributor/internal/app"
	"github.com/smeenai/lab-distributor/internal/distributor"
	"github.com/smeenai/lab-distributor/internal/tui"
)

// Process exit codes. Partial failures are distinguished from invocation
// mistakes and fatal configuration errors so wrapper scripts can react.
const (
	ExitOK         = 0
	ExitCopyFailed = 1
	ExitUsage      = 2
	ExitFatal      = 3
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// ExitCode maps an error returned by the application to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, tui.ErrPickAborted) {
		return ExitUsage
	}
	var incomplete *distributor.IncompleteError
	if errors.As(err, &incomplete) {
		return ExitCopyFailed
	}
	return ExitFatal
}

// Parse processes command-line arguments. It returns a populated AppConfig,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("labdist", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
Lab Distributor - copies instructor lab files into student working copies.

Usage:
  labdist [options] LAB_NAME

Arguments:
  LAB_NAME
    Name of a lab directory under the class directory.

Options:
`)
		flagSet.PrintDefaults()
	}

	labFlag := flagSet.String("lab", "", "Name of the lab to distribute.")
	lFlag := flagSet.String("l", "", "Name of the lab to distribute (shorthand).")
	rootFlag := flagSet.String("root", ".", "Path to the course working-copy root.")
	rosterFlag := flagSet.String("roster", "students", "Roster to distribute to, as named in course.yaml.")
	allFlag := flagSet.Bool("all", false, "Distribute to every roster member, overwriting existing copies.")
	missingFlag := flagSet.Bool("missing", false, "Distribute only to members whose destination does not exist yet.")
	studentsFlag := flagSet.String("students", "", "Comma-separated subset of roster members to distribute to.")
	studentsFileFlag := flagSet.String("students-file", "", "File listing roster members to distribute to, one per line.")
	pickFlag := flagSet.Bool("pick", false, "Choose the recipients interactively.")
	dryRunFlag := flagSet.Bool("dry-run", false, "Resolve and print the plan without copying anything.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	labName := ""
	if *labFlag != "" {
		labName = *labFlag
	} else if *lFlag != "" {
		labName = *lFlag
	} else if flagSet.NArg() > 0 {
		labName = flagSet.Arg(0)
	}
	slog.Debug("Lab name determined.", "lab", labName)

	if labName == "" {
		slog.Debug("No lab name provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	mode, subset, pick, err := resolveMode(*allFlag, *missingFlag, *studentsFlag, *studentsFileFlag, *pickFlag)
	if err != nil {
		return nil, false, err
	}
	slog.Debug("Recipient mode determined.", "mode", mode, "subset", subset, "pick", pick)

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: ExitUsage, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: ExitUsage, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		Root:      *rootFlag,
		Lab:       labName,
		Roster:    *rosterFlag,
		Mode:      mode,
		Subset:    subset,
		Pick:      pick,
		DryRun:    *dryRunFlag,
		LogFormat: logFormat,
		LogLevel:  logLevel,
	})

	if err != nil {
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

// resolveMode enforces that exactly one recipient selector was passed and
// translates it into a distribution mode.
func resolveMode(all, missing bool, students, studentsFile string, pick bool) (distributor.Mode, []string, bool, error) {
	selected := 0
	for _, on := range []bool{all, missing, students != "", studentsFile != "", pick} {
		if on {
			selected++
		}
	}
	if selected == 0 {
		return 0, nil, false, &ExitError{
			Code:    ExitUsage,
			Message: "a recipient mode is required: one of -all, -missing, -students, -students-file, or -pick",
		}
	}
	if selected > 1 {
		return 0, nil, false, &ExitError{
			Code:    ExitUsage,
			Message: "recipient modes are mutually exclusive: pass only one of -all, -missing, -students, -students-file, or -pick",
		}
	}

	switch {
	case missing:
		return distributor.ModeMissing, nil, false, nil
	case students != "":
		return distributor.ModeSubset, splitStudents(students), false, nil
	case studentsFile != "":
		subset, err := readSubsetFile(studentsFile)
		if err != nil {
			return 0, nil, false, &ExitError{Code: ExitUsage, Message: fmt.Sprintf("students-file: %v", err)}
		}
		return distributor.ModeSubset, subset, false, nil
	case pick:
		return distributor.ModeSubset, nil, true, nil
	default:
		return distributor.ModeAll, nil, false, nil
	}
}

// splitStudents turns a comma-separated flag value into a clean id list.
func splitStudents(value string) []string {
	var ids []string
	for _, raw := range strings.Split(value, ",") {
		if id := strings.TrimSpace(raw); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// readSubsetFile reads one student id per line. Blank lines and '#' comments
// are skipped, matching the roster file format.
func readSubsetFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

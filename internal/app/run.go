package app

import (
	"context"
	"fmt"

	"github.com/smeenai/lab-distributor/internal/course"
	"github.com/smeenai/lab-distributor/internal/ctxlog"
	"github.com/smeenai/lab-distributor/internal/distributor"
	"github.com/smeenai/lab-distributor/internal/lab"
	"github.com/smeenai/lab-distributor/internal/roster"
	"github.com/smeenai/lab-distributor/internal/tui"
)

// Run executes the distribution pipeline: load roster, load lab metadata,
// resolve the plan, then apply it (or print it, for a dry run).
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	paths, ok := a.course.RosterFiles(a.config.Roster)
	if !ok {
		return &roster.LoadError{
			Roster: a.config.Roster,
			Err:    fmt.Errorf("not configured in %s", course.FileName),
		}
	}
	ros, err := roster.Load(a.config.Roster, paths)
	if err != nil {
		return fmt.Errorf("failed to load roster: %w", err)
	}
	a.logger.Debug("Roster loaded.", "roster", ros.Name, "members", ros.Len())

	meta, err := lab.Load(ctx, a.config.Lab, a.course.LabDir(a.config.Lab))
	if err != nil {
		return fmt.Errorf("failed to load lab metadata: %w", err)
	}

	opts := distributor.Options{Mode: a.config.Mode, Subset: a.config.Subset}
	if a.config.Pick {
		picked, err := a.pick(ctx, ros.Members)
		if err != nil {
			return err
		}
		a.logger.Debug("Subset picked interactively.", "count", len(picked))
		opts.Mode = distributor.ModeSubset
		opts.Subset = picked
	}

	plan, err := distributor.Resolve(ctx, a.course, ros, meta, opts)
	if err != nil {
		return fmt.Errorf("failed to resolve distribution plan: %w", err)
	}

	if a.config.DryRun {
		fmt.Fprint(a.outW, tui.RenderPlan(plan))
		a.logger.Info("Dry run complete, nothing copied.", "recipients", len(plan.Entries))
		return nil
	}

	report, err := distributor.Apply(ctx, plan)
	if err != nil {
		return fmt.Errorf("distribution aborted: %w", err)
	}
	fmt.Fprint(a.outW, tui.RenderReport(report))

	if failed := report.Failed(); failed > 0 {
		return &distributor.IncompleteError{Failed: failed, Attempted: len(report.Outcomes)}
	}
	a.logger.Debug("App.Run method finished.")
	return nil
}

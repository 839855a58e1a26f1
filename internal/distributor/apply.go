package distributor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/smeenai/lab-distributor/internal/ctxlog"
	"github.com/smeenai/lab-distributor/internal/fsutil"
)

// Apply carries out a resolved plan. Shared files go first; their failure
// aborts the run before any student is touched. Students are then processed
// sequentially in plan order, and a failure inside one student's steps is
// recorded in the report while the remaining students still run. The
// returned error is non-nil only for run-level aborts.
func Apply(ctx context.Context, plan *Plan) (*Report, error) {
	logger := ctxlog.FromContext(ctx)
	report := newReport(plan)

	if plan.Shared != nil {
		logger.Debug("Distributing shared files.",
			"dest", plan.Shared.DestDir,
			"count", len(plan.Shared.Files),
		)
		if err := applyShared(plan); err != nil {
			report.SharedErr = err
			return report, fmt.Errorf("shared files: %w", err)
		}
	}

	for _, entry := range plan.Entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if copyErr := applyEntry(plan, entry); copyErr != nil {
			logger.Warn("Distribution failed for student.",
				"student", entry.Student,
				"error", copyErr,
			)
			report.Outcomes = append(report.Outcomes, Outcome{Student: entry.Student, Err: copyErr})
			continue
		}
		logger.Debug("Distributed lab to student.",
			"student", entry.Student,
			"dest", entry.DestDir,
		)
		report.Outcomes = append(report.Outcomes, Outcome{Student: entry.Student})
	}

	logger.Info("Distribution finished.",
		"lab", plan.Lab,
		"ok", report.Succeeded(),
		"failed", report.Failed(),
		"skipped", len(plan.Skipped),
		"excluded", len(plan.Excluded),
	)
	return report, nil
}

func applyShared(plan *Plan) error {
	for _, rel := range plan.Shared.Files {
		dst := filepath.Join(plan.Shared.DestDir, rel)
		if err := fsutil.EnsureParent(dst); err != nil {
			return err
		}
		if err := fsutil.CopyFile(filepath.Join(plan.SourceDir, rel), dst); err != nil {
			return err
		}
	}
	return nil
}

// applyEntry distributes one student's files. Any failure is wrapped as a
// CopyError carrying the student and the offending path.
func applyEntry(plan *Plan, entry *Entry) *CopyError {
	fail := func(path string, err error) *CopyError {
		return &CopyError{Student: entry.Student, Path: path, Err: err}
	}

	if !plan.CreateStudentDirs {
		info, err := os.Stat(entry.StudentDir)
		if err != nil {
			return fail(entry.StudentDir, fmt.Errorf("student directory missing: %w", err))
		}
		if !info.IsDir() {
			return fail(entry.StudentDir, fmt.Errorf("student path is not a directory"))
		}
	}
	if err := fsutil.EnsureDir(entry.DestDir); err != nil {
		return fail(entry.DestDir, err)
	}

	files := make([]string, 0, len(entry.Readonly)+len(entry.Writable))
	files = append(files, entry.Readonly...)
	files = append(files, entry.Writable...)
	for _, rel := range files {
		dst := filepath.Join(entry.DestDir, rel)
		if err := fsutil.EnsureParent(dst); err != nil {
			return fail(dst, err)
		}
		if err := fsutil.CopyFile(filepath.Join(plan.SourceDir, rel), dst); err != nil {
			return fail(dst, err)
		}
	}

	for _, g := range entry.Generated {
		path := filepath.Join(entry.DestDir, g.Name)
		if err := fsutil.EnsureParent(path); err != nil {
			return fail(path, err)
		}
		if err := fsutil.WriteFile(path, []byte(g.Content), 0o644); err != nil {
			return fail(path, err)
		}
		if g.ReadOnly {
			if err := fsutil.MakeReadOnly(path); err != nil {
				return fail(path, err)
			}
		}
	}

	for _, rel := range entry.Readonly {
		if err := fsutil.MakeReadOnly(filepath.Join(entry.DestDir, rel)); err != nil {
			return fail(filepath.Join(entry.DestDir, rel), err)
		}
	}
	for _, rel := range entry.Writable {
		if err := fsutil.MakeWritable(filepath.Join(entry.DestDir, rel)); err != nil {
			return fail(filepath.Join(entry.DestDir, rel), err)
		}
	}

	if plan.IgnoreName != "" {
		path := filepath.Join(entry.DestDir, plan.IgnoreName)
		content := strings.Join(plan.IgnorePatterns, "\n") + "\n"
		if err := fsutil.WriteFile(path, []byte(content), 0o644); err != nil {
			return fail(path, err)
		}
	}
	if plan.PartnerName != "" {
		path := filepath.Join(entry.DestDir, plan.PartnerName)
		if err := fsutil.WriteFile(path, []byte(entry.Student+"\n"), 0o644); err != nil {
			return fail(path, err)
		}
	}
	return nil
}

package distributor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/smeenai/lab-distributor/internal/course"
	"github.com/smeenai/lab-distributor/internal/ctxlog"
	"github.com/smeenai/lab-distributor/internal/lab"
	"github.com/smeenai/lab-distributor/internal/roster"
)

// Options selects the recipients for one invocation.
type Options struct {
	Mode Mode
	// Subset holds the requested ids when Mode is ModeSubset.
	Subset []string
}

// Resolve derives the distribution plan for one lab. It validates subset
// membership, applies the lab's exclusion set, probes destinations in
// missing mode, and renders all generated file content. No files are
// written.
func Resolve(ctx context.Context, cfg *course.Config, r *roster.Roster, meta *lab.Metadata, opts Options) (*Plan, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Resolving distribution plan.",
		"lab", meta.Name,
		"mode", opts.Mode.String(),
		"roster", r.Name,
		"roster_size", r.Len(),
	)

	requested, err := subsetFilter(r, opts)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Lab:               meta.Name,
		Mode:              opts.Mode,
		SourceDir:         meta.SourceDir,
		CreateStudentDirs: cfg.CreateStudentDirs,
		UpdateMode:        meta.UpdateMode(),
	}
	if meta.WritesPartnerFile() {
		plan.PartnerName = cfg.PartnerFileName()
	}
	if !meta.UpdateMode() {
		if name := cfg.IgnoreFileName(); name != "" {
			plan.IgnoreName = name
			plan.IgnorePatterns = append(cfg.IgnorePatterns(), meta.Ignore...)
		}
	}
	if files := meta.EffectiveShared(); len(files) > 0 {
		plan.Shared = &SharedEntry{
			DestDir: cfg.SharedDirFor(meta.Name),
			Files:   files,
		}
	}

	for _, id := range r.Members {
		if requested != nil {
			if _, ok := requested[id]; !ok {
				continue
			}
		}
		if meta.Excluded(id) {
			plan.Excluded = append(plan.Excluded, id)
			continue
		}

		studentDir := cfg.StudentDir(id)
		destDir := filepath.Join(studentDir, meta.DestinationFor(id))

		if opts.Mode == ModeMissing {
			switch _, err := os.Stat(destDir); {
			case err == nil:
				plan.Skipped = append(plan.Skipped, id)
				continue
			case !errors.Is(err, fs.ErrNotExist):
				return nil, fmt.Errorf("resolve: probe %s: %w", destDir, err)
			}
		}

		entry := &Entry{
			Student:    id,
			StudentDir: studentDir,
			DestDir:    destDir,
			Readonly:   meta.EffectiveReadonly(),
			Writable:   meta.EffectiveWritable(),
		}
		if !meta.UpdateMode() {
			for _, g := range meta.Generated {
				content, err := g.Render(id)
				if err != nil {
					return nil, fmt.Errorf("resolve: %s: %w", id, err)
				}
				entry.Generated = append(entry.Generated, GeneratedFile{
					Name:     g.Name,
					Content:  content,
					ReadOnly: g.ReadOnly(),
				})
			}
		}
		plan.Entries = append(plan.Entries, entry)
	}

	logger.Debug("Plan resolved.",
		"lab", meta.Name,
		"recipients", len(plan.Entries),
		"excluded", len(plan.Excluded),
		"skipped", len(plan.Skipped),
		"shared", plan.Shared != nil,
	)
	return plan, nil
}

// subsetFilter validates the requested ids against the roster and returns
// the membership filter, or nil when every member is in scope.
func subsetFilter(r *roster.Roster, opts Options) (map[string]struct{}, error) {
	if opts.Mode != ModeSubset {
		return nil, nil
	}
	if len(opts.Subset) == 0 {
		return nil, &roster.LoadError{Roster: r.Name, Err: fmt.Errorf("empty student subset")}
	}
	requested := make(map[string]struct{}, len(opts.Subset))
	for _, id := range opts.Subset {
		if !r.Contains(id) {
			return nil, &roster.LoadError{Roster: r.Name, Err: fmt.Errorf("%q is not a member", id)}
		}
		requested[id] = struct{}{}
	}
	return requested, nil
}

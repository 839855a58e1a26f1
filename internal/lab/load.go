package lab

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/smeenai/lab-distributor/internal/ctxlog"
)

// probeStudentID exercises generate content templates at load time, so bad
// templates surface before any copy happens.
const probeStudentID = "probe"

// Load reads and validates the metadata for the named lab. sourceDir is the
// lab's source directory below the class dir.
func Load(ctx context.Context, name, sourceDir string) (*Metadata, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading lab metadata.", "lab", name, "dir", sourceDir)

	info, err := os.Stat(sourceDir)
	if err != nil {
		return nil, &ConfigError{Path: sourceDir, Detail: "lab directory not found", Err: err}
	}
	if !info.IsDir() {
		return nil, &ConfigError{Path: sourceDir, Detail: "lab path is not a directory"}
	}

	path := filepath.Join(sourceDir, MetadataFileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &ConfigError{Path: path, Detail: "metadata file not found", Err: err}
		}
		return nil, &ConfigError{Path: path, Detail: "metadata file unreadable", Err: err}
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, &ConfigError{Path: path, Detail: "parse failed", Err: diags}
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, &ConfigError{Path: path, Detail: "decode failed", Err: diags}
	}
	if n := len(root.Labs); n != 1 {
		return nil, &ConfigError{Path: path, Detail: fmt.Sprintf("exactly one lab block is required, found %d", n)}
	}

	meta, err := translateLab(name, sourceDir, path, root.Labs[0])
	if err != nil {
		return nil, err
	}

	logger.Debug("Lab metadata loaded.",
		"lab", name,
		"destination", meta.Destination,
		"readonly", len(meta.Readonly),
		"writable", len(meta.Writable),
		"shared", len(meta.Shared),
		"update", meta.UpdateMode(),
	)
	return meta, nil
}

// translateLab converts the raw decoded block into validated Metadata.
func translateLab(name, sourceDir, path string, block *labBlock) (*Metadata, error) {
	fail := func(detail string, err error) (*Metadata, error) {
		return nil, &ConfigError{Path: path, Detail: detail, Err: err}
	}

	dest, err := cleanSubpath(block.Destination)
	if err != nil {
		return fail("destination", err)
	}

	exclude, err := uniqueIDs(block.Exclude)
	if err != nil {
		return fail("exclude", err)
	}

	readonly, err := fileList("readonly", sourceDir, block.Readonly)
	if err != nil {
		return fail("readonly", err)
	}
	writable, err := fileList("writable", sourceDir, block.Writable)
	if err != nil {
		return fail("writable", err)
	}
	shared, err := fileList("shared", sourceDir, block.Shared)
	if err != nil {
		return fail("shared", err)
	}
	if err := checkDisjoint(readonly, writable); err != nil {
		return fail("file lists", err)
	}

	overrides, err := translateOverrides(block.Overrides)
	if err != nil {
		return fail("override", err)
	}

	generated, err := translateGenerates(block.Generates, readonly, writable)
	if err != nil {
		return fail("generate", err)
	}

	update, err := translateUpdate(sourceDir, block.Update)
	if err != nil {
		return fail("update", err)
	}

	meta := &Metadata{
		Name:        name,
		SourceDir:   sourceDir,
		Destination: dest,
		Individual:  block.Individual,
		Exclude:     exclude,
		Readonly:    readonly,
		Writable:    writable,
		Shared:      shared,
		Ignore:      trimPatterns(block.Ignore),
		Overrides:   overrides,
		Generated:   generated,
		Update:      update,
	}
	return meta, nil
}

// cleanSubpath validates a destination or file path relative to its base and
// returns it in cleaned form.
func cleanSubpath(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("path must not be empty")
	}
	if filepath.IsAbs(value) {
		return "", fmt.Errorf("path %q must be relative", value)
	}
	clean := filepath.Clean(value)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("path %q escapes its base directory", value)
	}
	return clean, nil
}

// fileList validates one distribution list: every entry must name a regular
// file inside the lab source dir, and entries may not repeat.
func fileList(listName, sourceDir string, entries []string) ([]string, error) {
	seen := make(map[string]struct{}, len(entries))
	cleaned := make([]string, 0, len(entries))
	for _, entry := range entries {
		clean, err := cleanSubpath(entry)
		if err != nil {
			return nil, err
		}
		if clean == MetadataFileName {
			return nil, fmt.Errorf("%s must not be distributed", MetadataFileName)
		}
		if _, dup := seen[clean]; dup {
			return nil, fmt.Errorf("duplicate entry %q", clean)
		}
		seen[clean] = struct{}{}

		info, err := os.Stat(filepath.Join(sourceDir, clean))
		if err != nil {
			return nil, fmt.Errorf("%s references a nonexistent source file %q: %w", listName, clean, err)
		}
		if !info.Mode().IsRegular() {
			return nil, fmt.Errorf("%s entry %q is not a regular file", listName, clean)
		}
		cleaned = append(cleaned, clean)
	}
	return cleaned, nil
}

// checkDisjoint rejects a path that is listed both read-only and writable.
func checkDisjoint(readonly, writable []string) error {
	ro := make(map[string]struct{}, len(readonly))
	for _, p := range readonly {
		ro[p] = struct{}{}
	}
	for _, p := range writable {
		if _, both := ro[p]; both {
			return fmt.Errorf("%q is listed both readonly and writable", p)
		}
	}
	return nil
}

func uniqueIDs(ids []string) ([]string, error) {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("id must not be empty")
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

func trimPatterns(patterns []string) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func translateOverrides(blocks []*overrideBlock) (map[string]string, error) {
	overrides := make(map[string]string, len(blocks))
	for _, b := range blocks {
		id := strings.TrimSpace(b.Student)
		if id == "" {
			return nil, fmt.Errorf("student label must not be empty")
		}
		if _, dup := overrides[id]; dup {
			return nil, fmt.Errorf("duplicate override for %q", id)
		}
		dest, err := cleanSubpath(b.Destination)
		if err != nil {
			return nil, fmt.Errorf("override %q: %w", id, err)
		}
		overrides[id] = dest
	}
	return overrides, nil
}

func translateGenerates(blocks []*generateBlock, readonly, writable []string) ([]*GeneratedSpec, error) {
	copied := make(map[string]struct{}, len(readonly)+len(writable))
	for _, p := range readonly {
		copied[p] = struct{}{}
	}
	for _, p := range writable {
		copied[p] = struct{}{}
	}

	seen := make(map[string]struct{}, len(blocks))
	specs := make([]*GeneratedSpec, 0, len(blocks))
	for _, b := range blocks {
		name, err := cleanSubpath(b.Name)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate generate block %q", name)
		}
		seen[name] = struct{}{}
		if _, clash := copied[name]; clash {
			return nil, fmt.Errorf("%q is both generated and copied", name)
		}

		mode := strings.TrimSpace(b.Mode)
		switch mode {
		case "":
			mode = ModeWritable
		case ModeReadonly, ModeWritable:
		default:
			return nil, fmt.Errorf("%q: mode must be %q or %q, got %q", name, ModeReadonly, ModeWritable, b.Mode)
		}

		spec := &GeneratedSpec{Name: name, Mode: mode, content: b.Content}
		if _, err := spec.Render(probeStudentID); err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func translateUpdate(sourceDir string, block *updateBlock) (*UpdateSet, error) {
	if block == nil {
		return nil, nil
	}
	readonly, err := fileList("readonly", sourceDir, block.Readonly)
	if err != nil {
		return nil, err
	}
	writable, err := fileList("writable", sourceDir, block.Writable)
	if err != nil {
		return nil, err
	}
	shared, err := fileList("shared", sourceDir, block.Shared)
	if err != nil {
		return nil, err
	}
	if err := checkDisjoint(readonly, writable); err != nil {
		return nil, err
	}
	if len(readonly)+len(writable)+len(shared) == 0 {
		return nil, fmt.Errorf("update block lists no files")
	}
	return &UpdateSet{Readonly: readonly, Writable: writable, Shared: shared}, nil
}

// Package lab loads per-lab metadata files. Each lab source directory holds
// a lab.hcl describing where the lab lands inside a student working copy,
// which files are distributed read-only or writable, and any per-student
// overrides or generated files. Metadata is decoded and fully validated at
// load time; nothing is evaluated lazily during distribution except the
// per-student content of generate blocks.
package lab

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// MetadataFileName is the metadata file expected inside each lab source dir.
const MetadataFileName = "lab.hcl"

// File protection modes accepted by generate blocks.
const (
	ModeReadonly = "readonly"
	ModeWritable = "writable"
)

// Metadata is the validated form of a lab's metadata file.
type Metadata struct {
	// Name is the lab name, i.e. the source directory name.
	Name string
	// SourceDir is the directory holding the lab files and lab.hcl.
	SourceDir string
	// Destination is the default subpath below a student's directory.
	Destination string
	// Individual suppresses partner file creation when true.
	Individual bool
	// Exclude lists roster ids that never receive the lab.
	Exclude []string

	Readonly []string
	Writable []string
	Shared   []string
	Ignore   []string

	// Overrides maps a student id to a replacement destination subpath.
	Overrides map[string]string
	// Generated holds the per-student generated file specs.
	Generated []*GeneratedSpec
	// Update, when non-nil, switches the run to update semantics.
	Update *UpdateSet
}

// UpdateSet holds the file lists for a follow-up update distribution.
type UpdateSet struct {
	Readonly []string
	Writable []string
	Shared   []string
}

// ConfigError reports metadata that could not be loaded or failed validation.
type ConfigError struct {
	Path   string
	Detail string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("lab config %s: %s: %v", e.Path, e.Detail, e.Err)
	}
	return fmt.Sprintf("lab config %s: %s", e.Path, e.Detail)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// UpdateMode reports whether this run distributes a follow-up update rather
// than a fresh copy of the lab.
func (m *Metadata) UpdateMode() bool {
	return m.Update != nil
}

// EffectiveReadonly returns the read-only file set for this run.
func (m *Metadata) EffectiveReadonly() []string {
	if m.Update != nil {
		return m.Update.Readonly
	}
	return m.Readonly
}

// EffectiveWritable returns the writable file set for this run.
func (m *Metadata) EffectiveWritable() []string {
	if m.Update != nil {
		return m.Update.Writable
	}
	return m.Writable
}

// EffectiveShared returns the shared file set for this run.
func (m *Metadata) EffectiveShared() []string {
	if m.Update != nil {
		return m.Update.Shared
	}
	return m.Shared
}

// DestinationFor returns the destination subpath for one student, honoring
// any override block.
func (m *Metadata) DestinationFor(id string) string {
	if dest, ok := m.Overrides[id]; ok {
		return dest
	}
	return m.Destination
}

// Excluded reports whether the student never receives this lab.
func (m *Metadata) Excluded(id string) bool {
	for _, ex := range m.Exclude {
		if ex == id {
			return true
		}
	}
	return false
}

// WritesPartnerFile reports whether a fresh distribution of this lab should
// record the recipient in a partner file.
func (m *Metadata) WritesPartnerFile() bool {
	return !m.Individual && !m.UpdateMode()
}

// GeneratedSpec is one `generate` block: a file whose content is rendered
// once per recipient.
type GeneratedSpec struct {
	Name string
	// Mode is ModeReadonly or ModeWritable; generated files default to
	// writable.
	Mode string

	content hcl.Expression
}

// Render evaluates the content template for one student. The expression sees
// a single `student` object with an `id` attribute.
func (g *GeneratedSpec) Render(studentID string) (string, error) {
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"student": cty.ObjectVal(map[string]cty.Value{
				"id": cty.StringVal(studentID),
			}),
		},
	}

	val, diags := g.content.Value(evalCtx)
	if diags.HasErrors() {
		return "", fmt.Errorf("generate %s: %w", g.Name, diags)
	}
	val, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", fmt.Errorf("generate %s: content is not a string: %w", g.Name, err)
	}
	if val.IsNull() {
		return "", fmt.Errorf("generate %s: content is null", g.Name)
	}
	return val.AsString(), nil
}

// ReadOnly reports whether the generated file should be write-protected
// after it is written.
func (g *GeneratedSpec) ReadOnly() bool {
	return g.Mode == ModeReadonly
}

// Package distributor turns a roster, lab metadata, and a recipient mode
// into a distribution plan, then carries the plan out on the filesystem.
// Resolution is pure planning apart from the existence probes of missing
// mode; all copying happens in Apply.
package distributor

// Mode selects how recipients are chosen from the roster.
type Mode int

const (
	// ModeAll distributes to every roster member, overwriting existing
	// destinations.
	ModeAll Mode = iota
	// ModeMissing distributes only to members whose destination does not
	// exist yet.
	ModeMissing
	// ModeSubset distributes to an explicit subset of the roster.
	ModeSubset
)

func (m Mode) String() string {
	switch m {
	case ModeAll:
		return "all"
	case ModeMissing:
		return "missing"
	case ModeSubset:
		return "subset"
	default:
		return "unknown"
	}
}

// GeneratedFile is a rendered generate block for one student.
type GeneratedFile struct {
	// Name is the file path relative to the destination dir.
	Name     string
	Content  string
	ReadOnly bool
}

// Entry is the planned distribution for one student.
type Entry struct {
	Student string
	// StudentDir is the student's top-level working-copy directory.
	StudentDir string
	// DestDir is the absolute destination directory for the lab files.
	DestDir string
	// Readonly and Writable are source paths relative to the lab source dir.
	Readonly []string
	Writable []string
	// Generated files are rendered during resolution, so applying an entry
	// is pure filesystem work.
	Generated []GeneratedFile
}

// SharedEntry is the lab-level shared distribution, applied once before any
// student entry.
type SharedEntry struct {
	DestDir string
	Files   []string
}

// Plan is the resolved work for one invocation. It is derived state, held in
// memory only.
type Plan struct {
	Lab       string
	Mode      Mode
	SourceDir string

	Entries []*Entry
	// Excluded lists roster members omitted by the lab's exclusion set.
	Excluded []string
	// Skipped lists members whose destination already existed (missing mode).
	Skipped []string

	// Shared, when non-nil, is distributed before the entries and its
	// failure aborts the run.
	Shared *SharedEntry

	// PartnerName is the partner file written into each destination, or ""
	// when suppressed (individual lab, update run, or disabled).
	PartnerName string
	// IgnoreName is the ignore file written into each destination, or ""
	// when suppressed (update run or disabled).
	IgnoreName     string
	IgnorePatterns []string

	// CreateStudentDirs permits creating absent student top-level dirs
	// instead of failing the affected students.
	CreateStudentDirs bool

	// UpdateMode marks a follow-up update distribution.
	UpdateMode bool
}

// IsEmpty reports whether the plan would touch nothing.
func (p *Plan) IsEmpty() bool {
	return len(p.Entries) == 0 && p.Shared == nil
}

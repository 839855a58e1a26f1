package lab

import (
	"github.com/hashicorp/hcl/v2"
)

// --- Raw Decode Structures ---

// fileRoot captures the top-level blocks of a metadata file. There is no
// remain field, so unknown attributes and blocks are rejected at decode time.
type fileRoot struct {
	Labs []*labBlock `hcl:"lab,block"`
}

// labBlock represents the single `lab` block of a metadata file.
type labBlock struct {
	Destination string   `hcl:"destination"`
	Individual  bool     `hcl:"individual,optional"`
	Exclude     []string `hcl:"exclude,optional"`
	Readonly    []string `hcl:"readonly,optional"`
	Writable    []string `hcl:"writable,optional"`
	Shared      []string `hcl:"shared,optional"`
	Ignore      []string `hcl:"ignore,optional"`

	Overrides []*overrideBlock `hcl:"override,block"`
	Generates []*generateBlock `hcl:"generate,block"`
	Update    *updateBlock     `hcl:"update,block"`
}

// overrideBlock redirects one student's destination away from the default.
type overrideBlock struct {
	Student     string `hcl:"student,label"`
	Destination string `hcl:"destination"`
}

// generateBlock declares a file rendered per student. The content expression
// is kept unevaluated here and rendered once per recipient.
type generateBlock struct {
	Name    string         `hcl:"name,label"`
	Content hcl.Expression `hcl:"content"`
	Mode    string         `hcl:"mode,optional"`
}

// updateBlock lists the files distributed by a follow-up update. When
// present, only these files are distributed and no partner or generated
// files are produced.
type updateBlock struct {
	Readonly []string `hcl:"readonly,optional"`
	Writable []string `hcl:"writable,optional"`
	Shared   []string `hcl:"shared,optional"`
}

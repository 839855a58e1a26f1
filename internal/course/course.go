// Package course loads course.yaml, the layout record describing where
// rosters, lab sources, and student working copies live beneath the
// working-copy root. A missing file is not an error; the defaults mirror the
// conventional course tree.
package course

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the course configuration file expected at the working-copy root.
const FileName = "course.yaml"

const (
	defaultClassDir    = "_class"
	defaultRostersDir  = "_rosters"
	defaultSharedDir   = "_shared"
	defaultPartnerFile = "partners.txt"
	defaultIgnoreFile  = ".gitignore"
)

// builtinIgnorePatterns are always written to generated ignore files, ahead
// of any course- or lab-level additions.
var builtinIgnorePatterns = []string{
	"*.bak",  // Vim backup files
	"*.exe",  // Windows executables
	"*.o",    // object files
	"*.swp",  // Vim swap files
	"*.vcd",  // wavedumps
	"*~",     // Emacs backups and gedit temp files
	"*.pyc",  // Python bytecode
	"*.dSYM", // debug symbol bundles
}

// Config models course.yaml plus the resolved working-copy root.
type Config struct {
	Version           int                 `yaml:"version"`
	ClassDir          string              `yaml:"class_dir"`
	RostersDir        string              `yaml:"rosters_dir"`
	SharedDir         string              `yaml:"shared_dir"`
	Rosters           map[string][]string `yaml:"rosters"`
	PartnerFile       *string             `yaml:"partner_file"`
	IgnoreFile        *string             `yaml:"ignore_file"`
	CreateStudentDirs bool                `yaml:"create_student_dirs"`
	Ignore            []string            `yaml:"ignore"`

	root string
}

// Load reads course.yaml beneath root. An absent file yields the default
// configuration; a present but malformed one is rejected eagerly.
func Load(root string) (*Config, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("course: resolve root %s: %w", root, err)
	}

	cfg := defaultConfig()
	cfg.root = absRoot

	path := filepath.Join(absRoot, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("course: read %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("course: parse %s: %w", path, err)
	}
	parsed.root = absRoot
	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return nil, fmt.Errorf("course: %s: %w", path, err)
	}
	return &parsed, nil
}

func defaultConfig() *Config {
	cfg := &Config{Version: 1}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.ClassDir == "" {
		c.ClassDir = defaultClassDir
	}
	if c.RostersDir == "" {
		c.RostersDir = defaultRostersDir
	}
	if c.SharedDir == "" {
		c.SharedDir = defaultSharedDir
	}
	if c.Rosters == nil {
		c.Rosters = map[string][]string{
			"students": {"students.txt"},
			"staff":    {"staff.txt"},
		}
	}
}

func (c *Config) normalize() {
	c.ClassDir = strings.TrimSpace(c.ClassDir)
	c.RostersDir = strings.TrimSpace(c.RostersDir)
	c.SharedDir = strings.TrimSpace(c.SharedDir)
	for name, files := range c.Rosters {
		trimmed := make([]string, 0, len(files))
		for _, f := range files {
			if f = strings.TrimSpace(f); f != "" {
				trimmed = append(trimmed, f)
			}
		}
		c.Rosters[name] = trimmed
	}
	patterns := c.Ignore[:0]
	for _, p := range c.Ignore {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	c.Ignore = patterns
}

func (c *Config) validate() error {
	if c.Version < 1 {
		return fmt.Errorf("version must be >= 1")
	}
	for _, field := range []struct{ name, value string }{
		{"class_dir", c.ClassDir},
		{"rosters_dir", c.RostersDir},
		{"shared_dir", c.SharedDir},
	} {
		if field.value == "" {
			return fmt.Errorf("%s must not be empty", field.name)
		}
		if err := checkRelative(field.name, field.value); err != nil {
			return err
		}
	}
	for name, files := range c.Rosters {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("rosters: roster name must not be empty")
		}
		if len(files) == 0 {
			return fmt.Errorf("rosters[%s]: at least one membership file is required", name)
		}
		for _, f := range files {
			if err := checkRelative(fmt.Sprintf("rosters[%s]", name), f); err != nil {
				return err
			}
		}
	}
	if c.PartnerFile != nil && strings.ContainsRune(*c.PartnerFile, os.PathSeparator) {
		return fmt.Errorf("partner_file must be a bare file name")
	}
	if c.IgnoreFile != nil && strings.ContainsRune(*c.IgnoreFile, os.PathSeparator) {
		return fmt.Errorf("ignore_file must be a bare file name")
	}
	return nil
}

// checkRelative rejects absolute paths and paths that climb out of the
// working copy.
func checkRelative(field, value string) error {
	if filepath.IsAbs(value) {
		return fmt.Errorf("%s: %s must be relative to the working-copy root", field, value)
	}
	clean := filepath.Clean(value)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(os.PathSeparator)) {
		return fmt.Errorf("%s: %s escapes the working-copy root", field, value)
	}
	return nil
}

// Root returns the absolute working-copy root.
func (c *Config) Root() string {
	return c.root
}

// LabDir returns the source directory for the named lab.
func (c *Config) LabDir(lab string) string {
	return filepath.Join(c.root, c.ClassDir, lab)
}

// ClassPath returns the directory holding all lab sources.
func (c *Config) ClassPath() string {
	return filepath.Join(c.root, c.ClassDir)
}

// SharedDirFor returns the shared distribution target for the named lab.
func (c *Config) SharedDirFor(lab string) string {
	return filepath.Join(c.root, c.SharedDir, lab)
}

// StudentDir returns the top-level working-copy directory for one student.
func (c *Config) StudentDir(id string) string {
	return filepath.Join(c.root, id)
}

// RosterFiles resolves the membership files for the named roster, in
// configured order. The second return reports whether the roster is known.
func (c *Config) RosterFiles(name string) ([]string, bool) {
	files, ok := c.Rosters[name]
	if !ok {
		return nil, false
	}
	resolved := make([]string, len(files))
	for i, f := range files {
		resolved[i] = filepath.Join(c.root, c.RostersDir, f)
	}
	return resolved, true
}

// RosterNames returns the configured roster names in sorted order.
func (c *Config) RosterNames() []string {
	names := make([]string, 0, len(c.Rosters))
	for name := range c.Rosters {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// PartnerFileName returns the partner file name, or "" when disabled.
func (c *Config) PartnerFileName() string {
	if c.PartnerFile == nil {
		return defaultPartnerFile
	}
	return strings.TrimSpace(*c.PartnerFile)
}

// IgnoreFileName returns the generated ignore file name, or "" when disabled.
func (c *Config) IgnoreFileName() string {
	if c.IgnoreFile == nil {
		return defaultIgnoreFile
	}
	return strings.TrimSpace(*c.IgnoreFile)
}

// IgnorePatterns returns the built-in patterns followed by the course extras.
func (c *Config) IgnorePatterns() []string {
	patterns := make([]string, 0, len(builtinIgnorePatterns)+len(c.Ignore))
	patterns = append(patterns, builtinIgnorePatterns...)
	patterns = append(patterns, c.Ignore...)
	return patterns
}

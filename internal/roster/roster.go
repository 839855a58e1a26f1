// Package roster loads course membership files. A roster is an ordered list
// of unique student ids assembled from one or more plain-text files, one id
// per line. Blank lines and lines starting with '#' are skipped.
package roster

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Roster is a named, ordered collection of student ids.
type Roster struct {
	Name    string
	Members []string

	index map[string]int
}

// LoadError reports a roster that could not be assembled.
type LoadError struct {
	Roster string
	Path   string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("roster %s: %v", e.Roster, e.Err)
	}
	return fmt.Sprintf("roster %s: %s: %v", e.Roster, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load assembles the named roster from its membership files, preserving file
// order and line order. Duplicate ids and unreadable files are rejected.
func Load(name string, paths []string) (*Roster, error) {
	r := &Roster{
		Name:  name,
		index: make(map[string]int),
	}
	for _, path := range paths {
		if err := r.appendFile(path); err != nil {
			return nil, err
		}
	}
	if len(r.Members) == 0 {
		return nil, &LoadError{Roster: name, Err: fmt.Errorf("no members found")}
	}
	return r, nil
}

func (r *Roster) appendFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &LoadError{Roster: r.Name, Path: path, Err: err}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		id := strings.TrimSpace(scanner.Text())
		if id == "" || strings.HasPrefix(id, "#") {
			continue
		}
		if strings.ContainsAny(id, " \t") {
			return &LoadError{
				Roster: r.Name,
				Path:   path,
				Err:    fmt.Errorf("line %d: id %q contains whitespace", line, id),
			}
		}
		if _, seen := r.index[id]; seen {
			return &LoadError{
				Roster: r.Name,
				Path:   path,
				Err:    fmt.Errorf("line %d: duplicate member %q", line, id),
			}
		}
		r.index[id] = len(r.Members)
		r.Members = append(r.Members, id)
	}
	if err := scanner.Err(); err != nil {
		return &LoadError{Roster: r.Name, Path: path, Err: err}
	}
	return nil
}

// Contains reports whether id belongs to the roster.
func (r *Roster) Contains(id string) bool {
	_, ok := r.index[id]
	return ok
}

// Len returns the number of members.
func (r *Roster) Len() int {
	return len(r.Members)
}

// Package testutil holds shared test fixtures: a goroutine-safe log buffer
// and builders for temporary course working copies.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// WriteTree materializes a map of relative path to content below root,
// creating intermediate directories as needed.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// NewCourseTree creates a temporary working-copy root holding the given
// files plus an empty top-level directory per listed student.
func NewCourseTree(t *testing.T, files map[string]string, students ...string) string {
	t.Helper()
	root := t.TempDir()
	WriteTree(t, root, files)
	for _, id := range students {
		require.NoError(t, os.MkdirAll(filepath.Join(root, id), 0o755))
	}
	return root
}

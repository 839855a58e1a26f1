// Package fsutil provides file system utility functions for the
// distribution pipeline.
package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ownerWrite is the permission bit added before overwriting and when marking
// a file writable.
const ownerWrite = 0o200

// allWrite covers the user, group, and other write bits stripped when a file
// is distributed read-only.
const allWrite = 0o222

// CopyFile copies the regular file at src to dst, preserving the source's
// permission bits and modification time. A destination that already exists is
// made owner-writable first, so files distributed read-only by a previous run
// can still be replaced. Parent directories of dst must already exist.
func CopyFile(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	if srcInfo.IsDir() {
		return fmt.Errorf("copy %s: source is a directory", src)
	}

	if dstInfo, err := os.Stat(dst); err == nil {
		if err := os.Chmod(dst, dstInfo.Mode().Perm()|ownerWrite); err != nil {
			return fmt.Errorf("unlock %s for overwrite: %w", dst, err)
		}
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, srcInfo.Mode().Perm()|ownerWrite)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		return err
	}

	// Mirror the source's mode and mtime onto the fresh copy.
	if err := os.Chmod(dst, srcInfo.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dst, srcInfo.ModTime(), srcInfo.ModTime())
}

// WriteFile writes data to path with the given permission bits, making an
// existing read-only destination owner-writable first. The permission bits
// are applied even when the file already existed.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	if info, err := os.Stat(path); err == nil {
		if err := os.Chmod(path, info.Mode().Perm()|ownerWrite); err != nil {
			return fmt.Errorf("unlock %s for overwrite: %w", path, err)
		}
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return err
	}
	return os.Chmod(path, perm)
}

// EnsureDir creates dir and any missing parents.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// EnsureParent creates the parent directory of path and any missing
// ancestors.
func EnsureParent(path string) error {
	return EnsureDir(filepath.Dir(path))
}

// MakeReadOnly strips every write permission bit from the file at path.
func MakeReadOnly(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.Chmod(path, info.Mode().Perm()&^allWrite)
}

// MakeWritable sets the owner write bit on the file at path, leaving the
// remaining permission bits untouched.
func MakeWritable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.Chmod(path, info.Mode().Perm()|ownerWrite)
}

package fsutil

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// Transaction groups a sequence of file system operations
// relative to Root. The first failing operation sets Err, and
// every following operation is skipped.
type Transaction struct {
	Root Path
	Err  error
}

// Exists ...
func (tr *Transaction) Exists(file Path) bool {
	if tr.Err != nil {
		return false
	}
	_, err := os.Stat(file.Resolve(tr.Root).String())
	if !os.IsNotExist(err) && err != nil {
		tr.Err = fmt.Errorf("Exists `%s`: Stat error: %w", file.String(), err)
	}
	return err == nil
}

// MkDir ...
func (tr *Transaction) MkDir(dir Path) {
	if tr.Err != nil {
		return
	}
	err := os.MkdirAll(dir.Resolve(tr.Root).String(), os.FileMode(0755))
	if err != nil {
		tr.Err = fmt.Errorf("MkDir `%s`: MkdirAll error: %w", dir.String(), err)
	}
}

// CreateTemp creates a new temporary file in the root directory,
// using pattern as in os.CreateTemp. The caller must close the returned file.
func (tr *Transaction) CreateTemp(pattern string) *os.File {
	if tr.Err != nil {
		return nil
	}
	f, err := os.CreateTemp(tr.Root.String(), pattern)
	if err != nil {
		tr.Err = fmt.Errorf("CreateTemp `%s` in `%s`: CreateTemp error: %w", pattern, tr.Root.String(), err)
		return nil
	}
	Logf("\tStaging %s\n", f.Name())
	return f
}

// Rename moves from to the path to. Both paths
// are relative to Root unless absolute.
func (tr *Transaction) Rename(from, to Path) {
	if tr.Err != nil {
		return
	}
	source := from.Resolve(tr.Root)
	target := to.Resolve(tr.Root)
	Logf("\tRename from %s to %s\n", source, target)
	err := os.Rename(source.String(), target.String())
	if err != nil {
		tr.Err = fmt.Errorf("Rename from `%s` to `%s`: Rename error: %w", from.String(), to.String(), err)
	}
}

// RmFile ...
func (tr *Transaction) RmFile(file Path) {
	if tr.Err != nil {
		return
	}
	err := os.Remove(file.Resolve(tr.Root).String())
	if err != nil && !os.IsNotExist(err) {
		tr.Err = fmt.Errorf("RmFile `%s`: Remove error: %w", file.String(), err)
	}
}

// Save ...
func (tr *Transaction) Save(targetPath Path, content []byte, perm os.FileMode) {
	if tr.Err != nil {
		return
	}

	err := os.WriteFile(
		targetPath.Resolve(tr.Root).String(),
		content,
		perm,
	)
	if err != nil {
		tr.Err = fmt.Errorf("Save to `%s`: WriteFile error: %w", targetPath.String(), err)
	}
}

// Logf ...
func Logf(format string, args ...interface{}) {
	logrus.Debugf(format, args...)
}

package fsutil

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Path is a slash separated file system path.
type Path string

// Join ...
func (pt Path) Join(part string) Path {
	return Path(path.Join(string(pt), part))
}

// JoinP ...
func (pt Path) JoinP(part Path) Path {
	return Path(path.Join(string(pt), string(part)))
}

// JoinF ...
func (pt Path) JoinF(part string, args ...interface{}) Path {
	partF := fmt.Sprintf(part, args...)
	return Path(path.Join(string(pt), partF))
}

// Dir returns all but the last element of the path.
func (pt Path) Dir() Path {
	return Path(path.Dir(string(pt)))
}

// Base returns the last element of the path.
func (pt Path) Base() string {
	return path.Base(string(pt))
}

// IsAbs ...
func (pt Path) IsAbs() bool {
	return path.IsAbs(string(pt))
}

// Resolve returns pt unchanged when it is absolute, otherwise
// pt joined to root. A leading `~/` is expanded to the user home directory.
func (pt Path) Resolve(root Path) Path {
	if strings.HasPrefix(string(pt), "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return Path(filepath.ToSlash(home)).Join(string(pt)[2:])
		}
	}
	if pt == "" || pt.IsAbs() {
		return pt
	}
	return root.JoinP(pt)
}

func (pt Path) String() string {
	return string(pt)
}

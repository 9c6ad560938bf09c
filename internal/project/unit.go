package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// KeyPrefix starts every unit key, so that keys never collide with other
// identifiers carried on the channel.
const KeyPrefix = "autoimport_"

var errEmptyUnitPath = errors.New("empty unit path")

// Unit identifies one compilation unit (a source file holding the marker).
type Unit struct {
	path string // absolute, NFC
	base string // directory relative diagnostic file names are resolved against
}

// NewUnit resolves path against the current working directory.
func NewUnit(path string) (Unit, error) {
	wd, err := os.Getwd()
	if err != nil {
		return Unit{}, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewUnitIn(wd, path)
}

// NewUnitIn resolves path against base. base is also used to resolve relative
// file names reported by the compiler.
func NewUnitIn(base, path string) (Unit, error) {
	if path == "" {
		return Unit{}, errEmptyUnitPath
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return Unit{}, fmt.Errorf("failed to resolve base directory: %w", err)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(base, path)
	}
	return Unit{
		path: canonical(path),
		base: canonical(base),
	}, nil
}

// Path returns the absolute path of the unit.
func (u Unit) Path() string { return u.path }

// IsZero reports whether u was never constructed.
func (u Unit) IsZero() bool { return u.path == "" }

// Rel returns the path relative to the base directory when possible.
func (u Unit) Rel() string {
	if rel, err := filepath.Rel(u.base, u.path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return u.path
}

func (u Unit) String() string { return u.Rel() }

// Ext returns the file extension including the dot.
func (u Unit) Ext() string { return filepath.Ext(u.path) }

// Key is the stable channel key of the unit: KeyPrefix followed by the
// canonical absolute path, slash separated. Two units share a key only when
// they name the same file.
func (u Unit) Key() string {
	return KeyPrefix + filepath.ToSlash(u.path)
}

// Matches reports whether a file name from a diagnostic span names this unit.
// Relative names are resolved against the unit's base directory.
func (u Unit) Matches(fileName string) bool {
	if fileName == "" || u.path == "" {
		return false
	}
	if !filepath.IsAbs(fileName) {
		fileName = filepath.Join(u.base, fileName)
	}
	return canonical(fileName) == u.path
}

func canonical(p string) string {
	return norm.NFC.String(filepath.Clean(p))
}

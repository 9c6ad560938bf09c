package inject

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"autoimport/internal/project"
)

// Patch is a prepared rewrite of one unit.
type Patch struct {
	Unit     project.Unit
	Region   Region
	Original []byte
	Patched  []byte
}

// Changed reports whether applying the patch alters the file.
func (p Patch) Changed() bool { return !bytes.Equal(p.Original, p.Patched) }

// Splicer rewrites units in place and remembers the originals so that the
// tree can be put back after the compile. Prepare is safe for concurrent
// use; Apply, Keep and Restore serialise on an internal lock.
type Splicer struct {
	marker string

	mu        sync.Mutex
	originals map[string]original
}

type original struct {
	content []byte
	mode    os.FileMode
	keep    bool
}

// NewSplicer returns a splicer looking for marker (DefaultMarker when empty).
func NewSplicer(marker string) *Splicer {
	if marker == "" {
		marker = DefaultMarker
	}
	return &Splicer{marker: marker, originals: make(map[string]original)}
}

// Prepare reads the unit and builds its patch without touching the file.
func (s *Splicer) Prepare(u project.Unit, rendered string) (Patch, error) {
	src, err := os.ReadFile(u.Path())
	if err != nil {
		return Patch{}, fmt.Errorf("failed to read %s: %w", u, err)
	}
	region, err := Locate(u, src, s.marker)
	if err != nil {
		return Patch{}, err
	}
	return Patch{
		Unit:     u,
		Region:   region,
		Original: src,
		Patched:  Splice(src, region, rendered),
	}, nil
}

// Splice replaces region in src with text and returns a new slice.
func Splice(src []byte, region Region, text string) []byte {
	out := make([]byte, 0, len(src)-(region.End-region.Start)+len(text))
	out = append(out, src[:region.Start]...)
	out = append(out, text...)
	return append(out, src[region.End:]...)
}

// Apply writes the patched content and records the original for Restore.
// Applying a second patch for the same unit keeps the first original.
func (s *Splicer) Apply(p Patch) error {
	path := p.Unit.Path()
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", p.Unit, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.originals[path]; !seen {
		s.originals[path] = original{content: p.Original, mode: info.Mode().Perm()}
	}
	if !p.Changed() {
		return nil
	}
	return writeAtomic(path, p.Patched, info.Mode().Perm())
}

// Keep marks a unit so that Restore leaves its patched content in place.
func (s *Splicer) Keep(u project.Unit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.originals[u.Path()]; ok {
		o.keep = true
		s.originals[u.Path()] = o
	}
}

// Restore writes every recorded original back, except kept units.
// Restore is idempotent.
func (s *Splicer) Restore() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for path, o := range s.originals {
		if !o.keep {
			if err := writeAtomic(path, o.content, o.mode); err != nil {
				errs = append(errs, err)
				continue
			}
		}
		delete(s.originals, path)
	}
	return errors.Join(errs...)
}

// writeAtomic replaces path through a temp file in the same directory.
func writeAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, ".autoimport-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, mode); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

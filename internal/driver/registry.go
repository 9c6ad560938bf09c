package driver

import (
	"errors"
	"fmt"
	"sync"

	"autoimport/internal/project"
)

// ErrDuplicateUnit is returned when a unit is resolved twice in one process.
// The marker may appear at most once per unit, so this is fatal.
var ErrDuplicateUnit = errors.New("marker used more than once in the same unit")

// Registry remembers which units have started resolving. It is created once
// per process and shared by every Driver; it is never reset.
type Registry struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{keys: make(map[string]struct{})}
}

// Claim records u. The second claim of the same unit fails with ErrDuplicateUnit.
func (r *Registry) Claim(u project.Unit) error {
	key := u.Key()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.keys[key]; ok {
		return fmt.Errorf("%s: %w", u, ErrDuplicateUnit)
	}
	r.keys[key] = struct{}{}
	return nil
}

// Claimed reports whether u has been claimed.
func (r *Registry) Claimed(u project.Unit) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.keys[u.Key()]
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}

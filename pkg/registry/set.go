package registry

import (
	"fmt"
	"strings"
	"sync"
)

// Set holds the enabled providers keyed by command keyword.
type Set struct {
	mu        sync.RWMutex
	providers map[string]Provider
	order     []string
}

// NewSet creates a provider set.
func NewSet(providers ...Provider) (*Set, error) {
	s := &Set{providers: make(map[string]Provider)}
	for _, p := range providers {
		if err := s.Add(p); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add registers a provider under its keyword.
func (s *Set) Add(p Provider) error {
	if p == nil {
		return fmt.Errorf("provider cannot be nil")
	}
	name := strings.ToLower(p.Name())
	if name == "" {
		return fmt.Errorf("provider name cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.providers[name]; exists {
		return fmt.Errorf("provider %s already registered", name)
	}
	s.providers[name] = p
	s.order = append(s.order, name)
	return nil
}

// Get looks up a provider by keyword.
func (s *Set) Get(name string) (Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.providers[strings.ToLower(name)]
	if !ok {
		return nil, NewError(name, ErrUnknownProvider, "")
	}
	return p, nil
}

// List returns providers in registration order.
func (s *Set) List() []Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Provider, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.providers[name])
	}
	return out
}

package metrics

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/oometrics/pkg/uast/pkg/node"
)

// Sentinel registry errors.
var (
	ErrDuplicateKey = errors.New("duplicate metric key")
	ErrUnknownKey   = errors.New("unknown metric key")
)

// Registry holds the keys available to a session, in registration order.
type Registry struct {
	keys []*Key
}

// NewRegistry creates a registry holding the given keys. It panics on
// duplicates, which are programming errors in a static catalog.
func NewRegistry(keys ...*Key) *Registry {
	r := &Registry{}

	for _, key := range keys {
		if err := r.Register(key); err != nil {
			panic(err)
		}
	}

	return r
}

// Register adds a key. Two keys may share a name only if they target
// different node categories.
func (r *Registry) Register(key *Key) error {
	if _, exists := r.Lookup(key.Name(), key.Category()); exists {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, key)
	}

	r.keys = append(r.keys, key)

	return nil
}

// Lookup finds a key by case-insensitive name and category.
func (r *Registry) Lookup(name string, category node.Category) (*Key, bool) {
	for _, key := range r.keys {
		if key.Category() == category && strings.EqualFold(key.Name(), name) {
			return key, true
		}
	}

	return nil, false
}

// Resolve returns every key with the given name across categories.
func (r *Registry) Resolve(name string) ([]*Key, error) {
	var found []*Key

	for _, key := range r.keys {
		if strings.EqualFold(key.Name(), name) {
			found = append(found, key)
		}
	}

	if len(found) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, name)
	}

	return found, nil
}

// Keys returns all keys in registration order.
func (r *Registry) Keys() []*Key {
	return slices.Clone(r.keys)
}

// ForCategory returns the keys targeting one category, in registration order.
func (r *Registry) ForCategory(category node.Category) []*Key {
	var result []*Key

	for _, key := range r.keys {
		if key.Category() == category {
			result = append(result, key)
		}
	}

	return result
}

// Names returns the sorted distinct key names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.keys))

	for _, key := range r.keys {
		if !slices.Contains(names, key.Name()) {
			names = append(names, key.Name())
		}
	}

	slices.Sort(names)

	return names
}

// Select narrows the registry to the named keys, keeping registration
// order. An empty selection returns a copy of the whole registry.
func (r *Registry) Select(names []string) (*Registry, error) {
	if len(names) == 0 {
		return &Registry{keys: r.Keys()}, nil
	}

	selected := &Registry{}

	for _, key := range r.keys {
		if slices.ContainsFunc(names, func(name string) bool { return strings.EqualFold(name, key.Name()) }) {
			selected.keys = append(selected.keys, key)
		}
	}

	for _, name := range names {
		if _, err := r.Resolve(name); err != nil {
			return nil, err
		}
	}

	return selected, nil
}

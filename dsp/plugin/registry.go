package plugin

import (
	"fmt"

	"github.com/cwbudde/algo-crusher/dsp/effects/crusher"
)

// Registry holds descriptors in registration order and indexes them by
// label and unique id. It is built once and then only read; Register is not
// safe for concurrent use with lookups.
type Registry struct {
	descriptors []Descriptor
	byLabel     map[string]int
	byID        map[uint32]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byLabel: make(map[string]int),
		byID:    make(map[uint32]int),
	}
}

// Register validates d and appends it at the next index.
func (r *Registry) Register(d Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}

	if _, exists := r.byLabel[d.Label]; exists {
		return fmt.Errorf("%w: %s", errDuplicateLabel, d.Label)
	}

	if _, exists := r.byID[d.UniqueID]; exists {
		return fmt.Errorf("%w: %d", errDuplicateID, d.UniqueID)
	}

	idx := len(r.descriptors)
	r.descriptors = append(r.descriptors, d)
	r.byLabel[d.Label] = idx
	r.byID[d.UniqueID] = idx

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(d Descriptor) {
	if err := r.Register(d); err != nil {
		panic("plugin registry: " + err.Error())
	}
}

// Len returns the number of registered descriptors.
func (r *Registry) Len() int { return len(r.descriptors) }

// Descriptor returns the descriptor at index, or false when index is out of
// range. Hosts enumerate a library by calling it with 0, 1, 2, ... until it
// reports false.
func (r *Registry) Descriptor(index int) (Descriptor, bool) {
	if index < 0 || index >= len(r.descriptors) {
		return Descriptor{}, false
	}
	return r.descriptors[index], true
}

// Lookup returns the descriptor registered under label.
func (r *Registry) Lookup(label string) (Descriptor, bool) {
	idx, ok := r.byLabel[label]
	if !ok {
		return Descriptor{}, false
	}
	return r.descriptors[idx], true
}

// LookupID returns the descriptor registered under id.
func (r *Registry) LookupID(id uint32) (Descriptor, bool) {
	idx, ok := r.byID[id]
	if !ok {
		return Descriptor{}, false
	}
	return r.descriptors[idx], true
}

// Descriptors returns a copy of all descriptors in index order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// Instantiate creates an instance of the effect registered under label.
func (r *Registry) Instantiate(label string, sampleRate uint64) (crusher.Effect, error) {
	d, ok := r.Lookup(label)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEffect, label)
	}
	return d.Instantiate(sampleRate), nil
}

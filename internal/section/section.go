// Package section maps roster section labels to the storage scope that
// holds their records.
package section

import (
	"errors"
	"fmt"
)

// ErrInvalidSection is returned for any label outside the configured set.
var ErrInvalidSection = errors.New("invalid section")

// Section is a validated section label. Storage backends only accept
// values obtained through Set.Resolve.
type Section string

func (s Section) String() string { return string(s) }

// Set is the fixed, ordered collection of sections a server instance serves.
type Set struct {
	order []Section
	index map[string]Section
}

// NewSet builds a Set from labels, keeping their order. Empty or
// duplicated labels are rejected.
func NewSet(labels ...string) (*Set, error) {
	s := &Set{index: make(map[string]Section, len(labels))}
	for _, l := range labels {
		if l == "" {
			return nil, errors.New("section: empty label")
		}
		if _, dup := s.index[l]; dup {
			return nil, fmt.Errorf("section: duplicate label %q", l)
		}
		s.index[l] = Section(l)
		s.order = append(s.order, Section(l))
	}
	if len(s.order) == 0 {
		return nil, errors.New("section: no labels")
	}
	return s, nil
}

// Resolve returns the section for label. Matching is exact.
func (s *Set) Resolve(label string) (Section, error) {
	sec, ok := s.index[label]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidSection, label)
	}
	return sec, nil
}

// All returns the sections in configured order.
func (s *Set) All() []Section {
	out := make([]Section, len(s.order))
	copy(out, s.order)
	return out
}

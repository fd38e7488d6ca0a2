package classification

import (
	"sort"
	"strings"
	"time"
)

// Mapping assigns labels to groups.
type Mapping map[string]Group

// Snapshot is an immutable version of the classification mapping. Readers
// holding a snapshot never observe a later replace.
type Snapshot struct {
	Version   int64     `json:"version"`
	Mapping   Mapping   `json:"mapping"`
	UpdatedBy string    `json:"updatedBy,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`

	index map[string]Group
}

// NewSnapshot copies mapping into a new snapshot.
func NewSnapshot(version int64, mapping Mapping, updatedBy string, updatedAt time.Time) *Snapshot {
	s := &Snapshot{
		Version:   version,
		Mapping:   make(Mapping, len(mapping)),
		UpdatedBy: updatedBy,
		UpdatedAt: updatedAt,
		index:     make(map[string]Group, len(mapping)),
	}
	for label, g := range mapping {
		s.Mapping[label] = g
		s.index[normalizeLabel(label)] = g
	}
	return s
}

// Empty is the snapshot used before any mapping is loaded.
func Empty() *Snapshot {
	return NewSnapshot(0, nil, "", time.Time{})
}

// Resolve returns the group for label, matched trimmed and case-insensitively.
func (s *Snapshot) Resolve(label string) Group {
	if s == nil {
		return Unclassified
	}
	if g, ok := s.index[normalizeLabel(label)]; ok {
		return g
	}
	return Unclassified
}

// Labels returns the mapped labels, sorted.
func (s *Snapshot) Labels() []string {
	out := make([]string, 0, len(s.Mapping))
	for label := range s.Mapping {
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of mapped labels.
func (s *Snapshot) Len() int {
	return len(s.Mapping)
}

func normalizeLabel(label string) string {
	return strings.ToLower(strings.Join(strings.Fields(label), " "))
}

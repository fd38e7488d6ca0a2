package classification

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Actor identifies who is changing the mapping.
type Actor struct {
	ID    string
	Admin bool
}

// Store persists classification mappings. Replace must deactivate the prior
// active mapping and insert the new one atomically.
type Store interface {
	LoadActive(ctx context.Context) (*Snapshot, error)
	Replace(ctx context.Context, mapping Mapping, updatedBy string) (*Snapshot, error)
}

// Registry serves the active snapshot to readers and performs full replaces.
// Readers never block; writers are serialized.
type Registry struct {
	store  Store
	logger *slog.Logger
	active atomic.Pointer[Snapshot]
	mu     sync.Mutex
}

// NewRegistry creates a registry holding the empty snapshot until Load is called.
func NewRegistry(store Store, logger *slog.Logger) *Registry {
	r := &Registry{store: store, logger: logger}
	r.active.Store(Empty())
	return r
}

// Load reads the active mapping from the store, seeding DefaultMapping when
// none exists.
func (r *Registry) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := r.store.LoadActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to load classification mapping: %w", err)
	}
	if snap == nil {
		snap, err = r.store.Replace(ctx, DefaultMapping(), "system")
		if err != nil {
			return fmt.Errorf("failed to seed classification mapping: %w", err)
		}
		r.logger.Info("seeded default classification mapping", slog.Int("labels", snap.Len()))
	}

	r.active.Store(snap)
	r.logger.Info("classification mapping loaded",
		slog.Int64("version", snap.Version),
		slog.Int("labels", snap.Len()),
	)
	return nil
}

// Current returns the active snapshot. It is never nil.
func (r *Registry) Current() *Snapshot {
	return r.active.Load()
}

// Resolve resolves label against the active snapshot.
func (r *Registry) Resolve(label string) Group {
	return r.Current().Resolve(label)
}

// Replace validates and persists mapping as the new active version, then
// swaps it in. There is no merge: labels missing from mapping become
// unclassified.
func (r *Registry) Replace(ctx context.Context, actor Actor, mapping map[string]string) (*Snapshot, error) {
	if !actor.Admin {
		return nil, ErrForbidden
	}

	validated, err := ValidateMapping(mapping)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	snap, err := r.store.Replace(ctx, validated, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to store classification mapping: %w", err)
	}

	previous := r.active.Swap(snap)
	r.logger.Info("classification mapping replaced",
		slog.String("updated_by", actor.ID),
		slog.Int64("previous_version", previous.Version),
		slog.Int64("version", snap.Version),
		slog.Int("labels", snap.Len()),
		slog.Duration("duration", time.Since(start)),
	)
	return snap, nil
}

// ValidateMapping trims labels and checks every group tag. Labels that match
// each other case-insensitively are rejected.
func ValidateMapping(mapping map[string]string) (Mapping, error) {
	if len(mapping) == 0 {
		return nil, ErrEmptyMapping
	}

	labels := make([]string, 0, len(mapping))
	for label := range mapping {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	out := make(Mapping, len(mapping))
	seen := make(map[string]string, len(mapping))
	for _, label := range labels {
		tag := mapping[label]
		trimmed := strings.TrimSpace(label)
		if trimmed == "" {
			return nil, ErrEmptyLabel
		}
		key := normalizeLabel(trimmed)
		if other, ok := seen[key]; ok {
			return nil, &DuplicateLabelError{Label: trimmed, Other: other}
		}
		seen[key] = trimmed

		g, ok := ParseGroup(tag)
		if !ok {
			return nil, &InvalidGroupError{Label: trimmed, Group: tag}
		}
		out[trimmed] = g
	}
	return out, nil
}

// MemoryStore keeps mappings in memory. Used by the CLI and tests.
type MemoryStore struct {
	mu       sync.Mutex
	active   *Snapshot
	versions int64
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (m *MemoryStore) LoadActive(ctx context.Context) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active, nil
}

func (m *MemoryStore) Replace(ctx context.Context, mapping Mapping, updatedBy string) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.versions++
	m.active = NewSnapshot(m.versions, mapping, updatedBy, m.now().UTC())
	return m.active, nil
}

// Package chunk reassembles uploads that arrive split into indexed parts.
package chunk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/filetype"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/parser"
)

var (
	ErrInvalidChunk      = errors.New("invalid chunk")
	ErrCapacityExhausted = errors.New("too many uploads in progress")
	ErrUploadCompleted   = errors.New("upload already completed")
)

// IncompleteUploadError reports an upload that reached its chunk count with a
// part missing from the buffer. The upload state is discarded.
type IncompleteUploadError struct {
	UploadID string
	Missing  int
	Total    int
}

func (e *IncompleteUploadError) Error() string {
	return fmt.Sprintf("upload %s is missing chunk %d of %d", e.UploadID, e.Missing, e.Total)
}

// Chunk is one part of a split upload.
type Chunk struct {
	UploadID    string
	ChunkIndex  int
	TotalChunks int
	FileType    filetype.FileType
	Rows        []parser.Record
}

// Progress is the state of an upload after a chunk was applied. Rows is set
// only when Complete is true and holds every chunk concatenated in index
// order.
type Progress struct {
	UploadID string
	FileType filetype.FileType
	Received int
	Total    int
	Complete bool
	Rows     []parser.Record
}

// Option configures a Reassembler.
type Option func(*Reassembler)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Reassembler) { r.now = now }
}

// WithLogger sets the logger used for evictions.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reassembler) { r.logger = logger }
}

// WithEvictHook registers a callback invoked for every upload dropped before
// completion, whether by Sweep or to make room for a new upload.
func WithEvictHook(fn func(uploadID string, received, total int)) Option {
	return func(r *Reassembler) { r.onEvict = fn }
}

type slot struct {
	mu sync.Mutex

	// owner and gen change only with both Reassembler.mu and mu held.
	owner string
	gen   uint64

	fileType filetype.FileType
	total    int
	count    int
	received []bool
	chunks   [][]parser.Record

	done      atomic.Bool
	succeeded atomic.Bool
	lastSeen  atomic.Int64
}

// Reassembler holds in-flight uploads in a fixed number of slots. Chunks for
// one upload are applied one at a time; different uploads only share the
// short critical section that maps an upload ID to its slot.
//
// IDs of successfully completed uploads are remembered for the idle timeout
// so a late duplicate chunk fails with ErrUploadCompleted instead of opening
// a new upload under the same ID.
type Reassembler struct {
	mu        sync.Mutex
	index     map[string]int
	slots     []*slot
	completed map[string]int64

	idle    time.Duration
	now     func() time.Time
	logger  *slog.Logger
	onEvict func(uploadID string, received, total int)
}

// New creates a Reassembler with the given slot capacity. Uploads with no
// chunk for longer than idle may be evicted.
func New(slots int, idle time.Duration, opts ...Option) *Reassembler {
	if slots <= 0 {
		slots = 1
	}
	r := &Reassembler{
		index:     make(map[string]int, slots),
		slots:     make([]*slot, slots),
		completed: make(map[string]int64),
		idle:      idle,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for i := range r.slots {
		r.slots[i] = &slot{}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Receive applies a chunk. The first chunk of an upload fixes its total and
// file type. Re-sending an index replaces the earlier rows for it. When the
// last missing index arrives the combined rows are returned and the slot is
// released. Chunks for an upload that completed within the idle timeout fail
// with ErrUploadCompleted.
func (r *Reassembler) Receive(ctx context.Context, c Chunk) (*Progress, error) {
	_, span := otel.Tracer("ingest.chunk").Start(ctx, "Receive", trace.WithAttributes(
		attribute.String("upload.id", c.UploadID),
		attribute.Int("chunk.index", c.ChunkIndex),
		attribute.Int("chunk.total", c.TotalChunks),
	))
	defer span.End()

	if err := validate(c); err != nil {
		return nil, err
	}

	for {
		now := r.now()

		r.mu.Lock()
		s, gen, err := r.claim(c, now)
		r.mu.Unlock()
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		if s.gen != gen || s.done.Load() {
			// Evicted or completed between claim and lock; claim again.
			s.mu.Unlock()
			continue
		}
		p, err := s.apply(c, now)
		s.mu.Unlock()

		if p != nil && p.Complete {
			span.AddEvent("upload complete")
		}
		return p, err
	}
}

func validate(c Chunk) error {
	if c.UploadID == "" {
		return fmt.Errorf("%w: missing upload id", ErrInvalidChunk)
	}
	if c.TotalChunks <= 0 {
		return fmt.Errorf("%w: total chunks must be positive, got %d", ErrInvalidChunk, c.TotalChunks)
	}
	if c.ChunkIndex < 0 || c.ChunkIndex >= c.TotalChunks {
		return fmt.Errorf("%w: index %d outside [0,%d)", ErrInvalidChunk, c.ChunkIndex, c.TotalChunks)
	}
	return nil
}

// claim returns the slot for the chunk's upload, allocating one when the
// upload is new. Callers hold r.mu.
func (r *Reassembler) claim(c Chunk, now time.Time) (*slot, uint64, error) {
	if i, ok := r.index[c.UploadID]; ok {
		s := r.slots[i]
		if !s.done.Load() {
			return s, s.gen, nil
		}
		if s.succeeded.Load() {
			return nil, 0, fmt.Errorf("%w: %s", ErrUploadCompleted, c.UploadID)
		}
		r.assign(i, c, now)
		return s, s.gen, nil
	}
	if at, ok := r.completed[c.UploadID]; ok {
		if at > now.Add(-r.idle).UnixNano() {
			return nil, 0, fmt.Errorf("%w: %s", ErrUploadCompleted, c.UploadID)
		}
		delete(r.completed, c.UploadID)
	}

	i := r.freeSlot()
	if i < 0 {
		i = r.idleSlot(now)
		if i < 0 {
			return nil, 0, fmt.Errorf("%w: %d slots busy", ErrCapacityExhausted, len(r.slots))
		}
		r.evict(i, "capacity")
	}
	r.assign(i, c, now)
	return r.slots[i], r.slots[i].gen, nil
}

func (r *Reassembler) freeSlot() int {
	for i, s := range r.slots {
		if s.owner == "" || s.done.Load() {
			return i
		}
	}
	return -1
}

// idleSlot returns the least recently active slot idle beyond the timeout.
func (r *Reassembler) idleSlot(now time.Time) int {
	best := -1
	var oldest int64
	cutoff := now.Add(-r.idle).UnixNano()
	for i, s := range r.slots {
		seen := s.lastSeen.Load()
		if seen > cutoff {
			continue
		}
		if best < 0 || seen < oldest {
			best, oldest = i, seen
		}
	}
	return best
}

// assign gives slot i to the chunk's upload. Callers hold r.mu.
func (r *Reassembler) assign(i int, c Chunk, now time.Time) {
	s := r.slots[i]
	s.mu.Lock()
	if s.owner != "" {
		delete(r.index, s.owner)
		r.remember(s)
	}
	s.owner = c.UploadID
	s.gen++
	s.fileType = c.FileType
	s.total = c.TotalChunks
	s.count = 0
	s.received = make([]bool, c.TotalChunks)
	s.chunks = make([][]parser.Record, c.TotalChunks)
	s.done.Store(false)
	s.succeeded.Store(false)
	s.lastSeen.Store(now.UnixNano())
	s.mu.Unlock()
	r.index[c.UploadID] = i
}

// evict drops an unfinished upload from slot i. Callers hold r.mu.
func (r *Reassembler) evict(i int, reason string) {
	s := r.slots[i]
	s.mu.Lock()
	owner, received, total, done := s.owner, s.count, s.total, s.done.Load()
	if owner != "" {
		delete(r.index, owner)
		r.remember(s)
	}
	s.owner = ""
	s.gen++
	s.received = nil
	s.chunks = nil
	s.count = 0
	s.done.Store(false)
	s.succeeded.Store(false)
	s.mu.Unlock()

	if owner == "" || done {
		return
	}
	r.logger.Info("evicted pending upload",
		slog.String("upload_id", owner),
		slog.String("reason", reason),
		slog.Int("received", received),
		slog.Int("total", total),
	)
	if r.onEvict != nil {
		r.onEvict(owner, received, total)
	}
}

// remember records the slot's owner as completed when its upload succeeded.
// Callers hold r.mu and s.mu.
func (r *Reassembler) remember(s *slot) {
	if s.succeeded.Load() {
		r.completed[s.owner] = s.lastSeen.Load()
	}
}

// apply stores the chunk. Callers hold s.mu.
func (s *slot) apply(c Chunk, now time.Time) (*Progress, error) {
	s.lastSeen.Store(now.UnixNano())

	if c.ChunkIndex >= s.total {
		return nil, fmt.Errorf("%w: index %d outside [0,%d) for upload %s", ErrInvalidChunk, c.ChunkIndex, s.total, s.owner)
	}
	if !s.received[c.ChunkIndex] {
		s.received[c.ChunkIndex] = true
		s.count++
	}
	s.chunks[c.ChunkIndex] = c.Rows

	p := &Progress{UploadID: s.owner, FileType: s.fileType, Received: s.count, Total: s.total}
	if s.count < s.total {
		return p, nil
	}

	rows, err := s.concat()
	s.done.Store(true)
	s.received = nil
	s.chunks = nil
	if err != nil {
		return nil, err
	}
	s.succeeded.Store(true)
	p.Complete = true
	p.Rows = rows
	return p, nil
}

func (s *slot) concat() ([]parser.Record, error) {
	size := 0
	for i := 0; i < s.total; i++ {
		if !s.received[i] {
			return nil, &IncompleteUploadError{UploadID: s.owner, Missing: i, Total: s.total}
		}
		size += len(s.chunks[i])
	}
	rows := make([]parser.Record, 0, size)
	for i := 0; i < s.total; i++ {
		rows = append(rows, s.chunks[i]...)
	}
	return rows, nil
}

// Sweep evicts uploads idle for longer than the timeout and returns how many
// were dropped. Completed upload IDs older than the timeout are forgotten.
func (r *Reassembler) Sweep(now time.Time) int {
	cutoff := now.Add(-r.idle).UnixNano()

	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for i, s := range r.slots {
		if s.owner == "" {
			continue
		}
		if s.done.Load() {
			r.evict(i, "complete")
			continue
		}
		if s.lastSeen.Load() <= cutoff {
			r.evict(i, "idle")
			evicted++
		}
	}
	for id, at := range r.completed {
		if at <= cutoff {
			delete(r.completed, id)
		}
	}
	return evicted
}

// Pending returns the number of uploads still waiting for chunks.
func (r *Reassembler) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, s := range r.slots {
		if s.owner != "" && !s.done.Load() {
			n++
		}
	}
	return n
}

// Capacity returns the number of slots.
func (r *Reassembler) Capacity() int {
	return len(r.slots)
}

package buffer

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/visual-tutor/engine/core/transcript"
)

type dedupEntry struct {
	content    string
	admittedAt time.Time
}

type memoryBuffer struct {
	capacity int
	window   time.Duration
	now      func() time.Time

	items   []transcript.ContentItem
	recent  map[uint64][]dedupEntry
	evicted uint64
	mu      sync.RWMutex
}

// Option configures a memory buffer.
type Option func(*memoryBuffer)

// WithClock overrides the buffer's time source. Used by tests to drive
// the dedup window deterministically.
func WithClock(now func() time.Time) Option {
	return func(b *memoryBuffer) { b.now = now }
}

// New creates a Buffer backed by an in-memory slice. Zero config fields
// fall back to defaults.
func New(cfg Config, opts ...Option) Buffer {
	def := DefaultConfig()
	def.Merge(&cfg)

	b := &memoryBuffer{
		capacity: def.Capacity,
		window:   def.Window(),
		now:      time.Now,
		items:    make([]transcript.ContentItem, 0, def.Capacity),
		recent:   make(map[uint64][]dedupEntry),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *memoryBuffer) Add(item transcript.ContentItem) (string, bool) {
	now := b.now()
	key := contentHash(item.Content)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.pruneLocked(now)

	// Hash match alone is not enough; confirm with a full-content
	// comparison so a collision cannot suppress distinct content.
	for _, entry := range b.recent[key] {
		if entry.content == item.Content {
			return "", false
		}
	}

	item.ID = uuid.Must(uuid.NewV7()).String()
	item.Timestamp = now

	b.items = append(b.items, item)
	b.recent[key] = append(b.recent[key], dedupEntry{content: item.Content, admittedAt: now})

	if len(b.items) > b.capacity {
		over := len(b.items) - b.capacity
		b.items = append(b.items[:0], b.items[over:]...)
		b.evicted += uint64(over)
	}

	return item.ID, true
}

func (b *memoryBuffer) Items() []transcript.ContentItem {
	b.mu.RLock()
	defer b.mu.RUnlock()

	copied := make([]transcript.ContentItem, len(b.items))
	copy(copied, b.items)
	return copied
}

func (b *memoryBuffer) Last() (transcript.ContentItem, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.items) == 0 {
		return transcript.ContentItem{}, false
	}
	return b.items[len(b.items)-1], true
}

func (b *memoryBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.items)
}

func (b *memoryBuffer) Evicted() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.evicted
}

func (b *memoryBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items = b.items[:0]
	b.recent = make(map[uint64][]dedupEntry)
}

// pruneLocked drops dedup entries older than the window so legitimately
// repeated content can reappear once the window elapses.
func (b *memoryBuffer) pruneLocked(now time.Time) {
	cutoff := now.Add(-b.window)
	for key, entries := range b.recent {
		kept := entries[:0]
		for _, entry := range entries {
			if entry.admittedAt.After(cutoff) {
				kept = append(kept, entry)
			}
		}
		if len(kept) == 0 {
			delete(b.recent, key)
		} else {
			b.recent[key] = kept
		}
	}
}

// contentHash is a cheap non-cryptographic digest over the raw content.
// Dedup is a heuristic; collisions are resolved by full comparison in Add.
func contentHash(content string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(content))
	return h.Sum64()
}

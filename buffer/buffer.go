// Package buffer maintains the authoritative ordered list of admitted
// content items for one session: append-only, content-deduplicated within
// a time window, and capacity-bounded with head eviction.
package buffer

import (
	"github.com/visual-tutor/engine/core/transcript"
)

// Buffer holds admitted items in admission order. Implementations must be
// safe for concurrent use.
type Buffer interface {
	// Add assigns an identifier and admission timestamp to the item and
	// appends it. Returns ("", false) when the item is suppressed as a
	// duplicate within the dedup window. Eviction of the oldest item, if
	// triggered, happens before Add returns.
	Add(item transcript.ContentItem) (string, bool)
	// Items returns a defensive copy of the ordered item list.
	Items() []transcript.ContentItem
	// Last returns the most recently admitted item, if any.
	Last() (transcript.ContentItem, bool)
	// Len returns the number of items currently held.
	Len() int
	// Evicted returns the total number of items evicted over capacity.
	Evicted() uint64
	// Clear empties the item list and the dedup index.
	Clear()
}

// Package history holds the bounded cache of recently completed results.
package history

import (
	"time"

	"github.com/google/uuid"
)

// Capacity is the maximum number of retained results.
const Capacity = 5

// Item is a completed (original, result) pair. Items are never mutated
// after creation.
type Item struct {
	ID            string `json:"id"`
	OriginalImage string `json:"originalImage"`
	ResultImage   string `json:"resultImage"`
	// Creation time in unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// IDGenerator returns a process-unique identifier on each call.
type IDGenerator func() string

// Clock returns the current time as unix milliseconds.
type Clock func() int64

// NewUUID is the default IDGenerator.
func NewUUID() string { return uuid.NewString() }

// NowMillis is the default Clock.
func NowMillis() int64 { return time.Now().UnixMilli() }

// History is an insertion-ordered, newest-first cache capped at Capacity.
// It is not safe for concurrent use; the owning session serializes access.
type History struct {
	items []Item
	newID IDGenerator
	now   Clock
}

// New returns an empty History. Nil generators fall back to NewUUID and
// NowMillis.
func New(newID IDGenerator, now Clock) *History {
	if newID == nil {
		newID = NewUUID
	}
	if now == nil {
		now = NowMillis
	}
	return &History{items: make([]Item, 0, Capacity), newID: newID, now: now}
}

// Add creates an item from the given payloads, inserts it at the front and
// drops the oldest entry when the cache would exceed Capacity.
func (h *History) Add(original, result string) Item {
	it := Item{
		ID:            h.newID(),
		OriginalImage: original,
		ResultImage:   result,
		Timestamp:     h.now(),
	}
	h.items = append(h.items, Item{})
	copy(h.items[1:], h.items)
	h.items[0] = it
	if len(h.items) > Capacity {
		h.items[Capacity] = Item{}
		h.items = h.items[:Capacity]
	}
	return it
}

// Remove drops the item with the given id. Unknown ids are ignored.
// It reports whether an item was removed.
func (h *History) Remove(id string) bool {
	for i := range h.items {
		if h.items[i].ID == id {
			h.items = append(h.items[:i], h.items[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns the item with the given id.
func (h *History) Get(id string) (Item, bool) {
	for _, it := range h.items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// Len returns the number of retained items.
func (h *History) Len() int { return len(h.items) }

// Items returns a copy of the cache, newest first.
func (h *History) Items() []Item {
	out := make([]Item, len(h.items))
	copy(out, h.items)
	return out
}

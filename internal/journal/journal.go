package journal

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity is used when a Journal is created with capacity <= 0.
const DefaultCapacity = 500

// Journal provides ring buffer storage for entries.
type Journal struct {
	entries  []Entry
	capacity int
	head     int
	count    int
	mu       sync.RWMutex

	now func() time.Time
}

// New creates a journal with the given capacity.
func New(capacity int) *Journal {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Journal{
		entries:  make([]Entry, capacity),
		capacity: capacity,
		now:      time.Now,
	}
}

// Record stores entry, filling in its ID and timestamp when missing, and
// returns the stored entry.
func (j *Journal) Record(entry Entry) Entry {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = j.now()
	}
	j.add(entry)
	return entry
}

func (j *Journal) add(entry Entry) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries[j.head] = entry
	j.head = (j.head + 1) % j.capacity
	if j.count < j.capacity {
		j.count++
	}
}

// GetAll returns all entries, oldest first.
func (j *Journal) GetAll() []Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()

	result := make([]Entry, j.count)
	start := j.oldest()
	for i := 0; i < j.count; i++ {
		result[i] = j.entries[(start+i)%j.capacity]
	}
	return result
}

// GetLast returns the last n entries, newest first.
func (j *Journal) GetLast(n int) []Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if n > j.count {
		n = j.count
	}
	if n < 0 {
		n = 0
	}

	result := make([]Entry, n)
	for i := 0; i < n; i++ {
		idx := (j.head - 1 - i + j.capacity) % j.capacity
		result[i] = j.entries[idx]
	}
	return result
}

// Count returns the number of entries.
func (j *Journal) Count() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.count
}

// Capacity returns the maximum number of entries kept.
func (j *Journal) Capacity() int {
	return j.capacity
}

// Clear removes all entries.
func (j *Journal) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.head = 0
	j.count = 0
	clear(j.entries)
}

// Find returns the entries matching filter, oldest first.
func (j *Journal) Find(filter func(Entry) bool) []Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var result []Entry
	start := j.oldest()
	for i := 0; i < j.count; i++ {
		e := j.entries[(start+i)%j.capacity]
		if filter(e) {
			result = append(result, e)
		}
	}
	return result
}

func (j *Journal) oldest() int {
	if j.count == j.capacity {
		return j.head
	}
	return 0
}

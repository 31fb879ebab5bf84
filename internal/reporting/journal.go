package reporting

import "sync"

const defaultJournalCapacity = 1000

// Journal keeps the most recent dispatch entries in memory.
type Journal struct {
	mu       sync.Mutex
	entries  []Entry
	next     int
	full     bool
	capacity int
}

// NewJournal creates a Journal holding at most capacity entries (1000 when <= 0).
func NewJournal(capacity int) *Journal {
	if capacity <= 0 {
		capacity = defaultJournalCapacity
	}
	return &Journal{entries: make([]Entry, capacity), capacity: capacity}
}

// Record appends e, overwriting the oldest entry once full.
func (j *Journal) Record(e Entry) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries[j.next] = e
	j.next = (j.next + 1) % j.capacity
	if j.next == 0 {
		j.full = true
	}
}

// Entries returns the stored entries, oldest first.
func (j *Journal) Entries() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.full {
		out := make([]Entry, j.next)
		copy(out, j.entries[:j.next])
		return out
	}
	out := make([]Entry, 0, j.capacity)
	out = append(out, j.entries[j.next:]...)
	return append(out, j.entries[:j.next]...)
}

package history

import (
	"sync"
	"time"
)

// logEntry wraps a snapshot with metadata.
type logEntry struct {
	snapshot  Snapshot
	timestamp time.Time
}

// EntryInfo provides read-only info about a log entry.
type EntryInfo struct {
	Index     int
	Size      int
	Timestamp time.Time
	Current   bool
}

// Log is an ordered list of snapshots with a cursor.
//
// The cursor always names the snapshot materialized on the surface.
// Before the first Push the log is empty and the cursor is 0.
type Log struct {
	mu sync.Mutex

	entries []logEntry
	index   int

	// maxEntries of 0 means unlimited.
	maxEntries int

	// pinned is the position a load in flight will move the cursor to.
	// Trimming keeps it and shifts it along with the cursor.
	pinned int
	hasPin bool
}

// NewLog creates an empty log. A maxEntries of 0 or less keeps every snapshot.
func NewLog(maxEntries int) *Log {
	if maxEntries < 0 {
		maxEntries = 0
	}
	return &Log{maxEntries: maxEntries}
}

// Push drops every entry after the cursor, appends snap and moves the cursor
// onto it.
func (l *Log) Push(snap Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) > 0 {
		tail := l.entries[l.index+1:]
		clear(tail)
		l.entries = l.entries[:l.index+1]
	}

	l.entries = append(l.entries, logEntry{
		snapshot:  snap,
		timestamp: time.Now(),
	})
	l.index = len(l.entries) - 1

	l.trimLocked()
}

// trimLocked drops the oldest entries beyond maxEntries and shifts the cursor
// so it keeps naming the same snapshot.
func (l *Log) trimLocked() {
	if l.maxEntries == 0 || len(l.entries) <= l.maxEntries {
		return
	}

	floor := l.index
	if l.hasPin && l.pinned < floor {
		floor = l.pinned
	}
	excess := min(len(l.entries)-l.maxEntries, floor)
	if excess <= 0 {
		return
	}

	clear(l.entries[:excess])
	l.entries = l.entries[excess:]
	l.index -= excess
	if l.hasPin {
		l.pinned -= excess
	}
}

// pin marks position i as the target of a load so trimming keeps it.
func (l *Log) pin(i int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pinned, l.hasPin = i, true
}

// settle releases the pin. With move set, the cursor moves onto the pinned
// entry wherever trimming has shifted it. Trimming held back by the pin is
// applied and the cursor position returned.
func (l *Log) settle(move bool) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pinned, ok := l.pinned, l.hasPin
	l.hasPin = false
	if move {
		if !ok || pinned < 0 || pinned >= len(l.entries) {
			return l.index, ErrIndexOutOfRange
		}
		l.index = pinned
	}
	l.trimLocked()
	return l.index, nil
}

// CanUndo returns true if an earlier snapshot exists.
func (l *Log) CanUndo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.index > 0
}

// CanRedo returns true if a later snapshot exists.
func (l *Log) CanRedo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.index < len(l.entries)-1
}

// Current returns the snapshot under the cursor.
func (l *Log) Current() (Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == 0 {
		return "", ErrEmptyHistory
	}
	return l.entries[l.index].snapshot, nil
}

// At returns the snapshot at position i.
func (l *Log) At(i int) (Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == 0 {
		return "", ErrEmptyHistory
	}
	if i < 0 || i >= len(l.entries) {
		return "", ErrIndexOutOfRange
	}
	return l.entries[i].snapshot, nil
}

// MoveTo sets the cursor to position i.
func (l *Log) MoveTo(i int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == 0 {
		return ErrEmptyHistory
	}
	if i < 0 || i >= len(l.entries) {
		return ErrIndexOutOfRange
	}
	l.index = i
	return nil
}

// Index returns the cursor position.
func (l *Log) Index() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.index
}

// Len returns the number of snapshots.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Snapshots returns a copy of every snapshot in order.
func (l *Log) Snapshots() []Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Snapshot, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.snapshot
	}
	return out
}

// Entries returns info about every snapshot, oldest first.
func (l *Log) Entries() []EntryInfo {
	l.mu.Lock()
	defer l.mu.Unlock()

	result := make([]EntryInfo, len(l.entries))
	for i, e := range l.entries {
		result[i] = EntryInfo{
			Index:     i,
			Size:      e.snapshot.Size(),
			Timestamp: e.timestamp,
			Current:   i == l.index,
		}
	}
	return result
}

// Clear removes every snapshot and resets the cursor.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = nil
	l.index = 0
	l.hasPin = false
}

// SetMaxEntries changes the capacity. Oldest entries are dropped if needed,
// but never the one under the cursor.
func (l *Log) SetMaxEntries(max int) {
	if max < 0 {
		max = 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.maxEntries = max
	l.trimLocked()
}

// MaxEntries returns the capacity; 0 means unlimited.
func (l *Log) MaxEntries() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.maxEntries
}

package usecase

import (
	"sync"

	"github.com/sgtao/stapp-mpeg4-clipper/internal/domain/entity"
)

// Pick is a candidate frame offered to the ledger.
type Pick struct {
	Timecode string
	PNG      []byte
}

// SelectionLedger accumulates user-picked frames in insertion order,
// de-duplicated by timecode string. Entries are append-only for the life of
// a session; Clear empties it when the session is replaced.
type SelectionLedger struct {
	mu      sync.Mutex
	entries []entity.SelectionEntry
	seen    map[string]struct{}
}

func NewSelectionLedger() *SelectionLedger {
	return &SelectionLedger{seen: make(map[string]struct{})}
}

// Propose appends the frame unless its timecode is already present. Returns
// true when the frame was added.
func (l *SelectionLedger) Propose(tc string, png []byte) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.proposeLocked(tc, png)
}

// AddBatch proposes every candidate, in order. Duplicates inside the batch
// itself are rejected after the first. Returns the number actually added.
func (l *SelectionLedger) AddBatch(picks []Pick) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	added := 0
	for _, p := range picks {
		if l.proposeLocked(p.Timecode, p.PNG) {
			added++
		}
	}
	return added
}

// Rows is the (ordinal, timecode) projection for listing and CSV export.
func (l *SelectionLedger) Rows() []entity.SelectionRow {
	l.mu.Lock()
	defer l.mu.Unlock()

	rows := make([]entity.SelectionRow, len(l.entries))
	for i, e := range l.entries {
		rows[i] = entity.SelectionRow{Ordinal: e.Ordinal, Timecode: e.Timecode}
	}
	return rows
}

// Images returns the full entries for archive packaging, same order as Rows.
func (l *SelectionLedger) Images() []entity.SelectionEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]entity.SelectionEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *SelectionLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *SelectionLedger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	l.seen = make(map[string]struct{})
}

func (l *SelectionLedger) proposeLocked(tc string, png []byte) bool {
	if _, dup := l.seen[tc]; dup {
		return false
	}
	l.seen[tc] = struct{}{}
	l.entries = append(l.entries, entity.SelectionEntry{
		Ordinal:  len(l.entries) + 1,
		Timecode: tc,
		PNG:      png,
	})
	return true
}

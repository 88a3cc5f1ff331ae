// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package terms

import (
	"slices"
	"sync"
	"time"
)

// historyLimit is how many events History keeps.
const historyLimit = 50

// Operations recorded in the history.
const (
	OpCSVIncrement = "csv_increment"
	OpCSVReplace   = "csv_replace"
	OpRestore      = "restore"
)

// HistoryEvent describes one bulk change of the store: a CSV import or a
// backup restore. Error is set when the change reached memory but writing it
// to disk failed.
type HistoryEvent struct {
	ID        int       `json:"id"`
	Operation string    `json:"operation"`
	Source    string    `json:"filename"`
	Count     int       `json:"importedCount"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

// History keeps the most recent bulk changes in memory. It is lost on
// restart; the backups themselves are the durable record.
type History struct {
	mu     sync.Mutex
	events []HistoryEvent // oldest first
	nextID int
	limit  int
	now    func() time.Time
}

func newHistory(limit int) *History {
	return &History{limit: limit, nextID: 1, now: time.Now}
}

func (h *History) record(op, source string, count int, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ev := HistoryEvent{
		ID:        h.nextID,
		Operation: op,
		Source:    source,
		Count:     count,
		Timestamp: h.now().UTC(),
	}
	if err != nil {
		ev.Error = err.Error()
	}

	h.nextID++

	h.events = append(h.events, ev)
	if over := len(h.events) - h.limit; over > 0 {
		h.events = slices.Delete(h.events, 0, over)
	}
}

// Events returns the kept events, newest first.
func (h *History) Events() []HistoryEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := slices.Clone(h.events)
	slices.Reverse(out)

	if out == nil {
		out = []HistoryEvent{}
	}

	return out
}

// History returns the recent CSV imports and restores, newest first.
func (s *Service) History() []HistoryEvent {
	return s.history.Events()
}

package pipeline

import (
	"time"

	"blockmate/internal/parser"
)

// HistoryEntry records one completed command. Append-only, in-memory, no
// persistence across restarts.
type HistoryEntry struct {
	Input        string          `json:"input"`
	Actions      []parser.Action `json:"actions"`
	SuccessCount int             `json:"success_count"`
	Timestamp    time.Time       `json:"timestamp"`
}

// historyLog is a bounded append-only log. When full, the oldest entry is
// evicted. Not safe for concurrent use; the executor serializes access.
type historyLog struct {
	entries []HistoryEntry
	limit   int
}

func newHistoryLog(limit int) *historyLog {
	if limit <= 0 {
		limit = 100
	}
	return &historyLog{limit: limit}
}

func (h *historyLog) append(e HistoryEntry) {
	h.entries = append(h.entries, e)
	if len(h.entries) > h.limit {
		h.entries = h.entries[1:]
	}
}

func (h *historyLog) count() int {
	return len(h.entries)
}

// recent returns up to n entries, most recent first.
func (h *historyLog) recent(n int) []HistoryEntry {
	if n <= 0 || n > len(h.entries) {
		n = len(h.entries)
	}
	out := make([]HistoryEntry, 0, n)
	for i := len(h.entries) - 1; i >= len(h.entries)-n; i-- {
		out = append(out, h.entries[i])
	}
	return out
}

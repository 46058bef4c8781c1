// Package tui provides a Bubble Tea terminal UI for heartweek.
package tui

// History is a bounded list of submitted inputs with cursor navigation.
// pos counts back from the newest entry; 0 means the player is typing fresh
// input.
type History struct {
	entries []string
	limit   int
	pos     int
}

// NewHistory creates a history holding at most limit entries.
func NewHistory(limit int) *History {
	if limit < 1 {
		limit = 1
	}
	return &History{limit: limit}
}

// Push records an input. Repeating the newest entry is a no-op.
func (h *History) Push(in string) {
	h.pos = 0
	if n := len(h.entries); n > 0 && h.entries[n-1] == in {
		return
	}
	h.entries = append(h.entries, in)
	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = append([]string(nil), h.entries[over:]...)
	}
}

// Len is the number of stored entries.
func (h *History) Len() int { return len(h.entries) }

// Last returns the newest entry.
func (h *History) Last() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	return h.entries[len(h.entries)-1], true
}

// Prev steps to an older entry, stopping at the oldest.
func (h *History) Prev() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if h.pos < len(h.entries) {
		h.pos++
	}
	return h.entries[len(h.entries)-h.pos], true
}

// Next steps to a newer entry. Stepping past the newest returns false and
// goes back to fresh input.
func (h *History) Next() (string, bool) {
	if h.pos <= 1 {
		h.pos = 0
		return "", false
	}
	h.pos--
	return h.entries[len(h.entries)-h.pos], true
}

// ResetCursor returns to fresh input.
func (h *History) ResetCursor() { h.pos = 0 }

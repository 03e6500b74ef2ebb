package components

import "strings"

// history is the recall list of sent lines. pos is -1 while editing a new
// line; draft keeps that line while browsing.
type history struct {
	entries []string
	limit   int
	pos     int
	draft   string
}

func newHistory(limit int) *history {
	return &history{limit: limit, pos: -1}
}

// add appends a sent line, skipping blanks and immediate repeats
func (h *history) add(line string) {
	h.pos, h.draft = -1, ""

	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if n := len(h.entries); n > 0 && h.entries[n-1] == line {
		return
	}
	h.entries = append(h.entries, line)
	if len(h.entries) > h.limit {
		h.entries = h.entries[len(h.entries)-h.limit:]
	}
}

// prev steps back from current; false when there is nothing to recall
func (h *history) prev(current string) (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	switch {
	case h.pos == -1:
		h.draft = current
		h.pos = len(h.entries) - 1
	case h.pos > 0:
		h.pos--
	}
	return h.entries[h.pos], true
}

// next steps forward, ending on the saved draft
func (h *history) next() (string, bool) {
	if h.pos == -1 {
		return "", false
	}
	if h.pos < len(h.entries)-1 {
		h.pos++
		return h.entries[h.pos], true
	}
	draft := h.draft
	h.pos, h.draft = -1, ""
	return draft, true
}

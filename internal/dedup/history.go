package dedup

// titleEntry keeps the raw title for reporting plus its precomputed n-gram
// set; normalization is pure, so the grams never go stale.
type titleEntry struct {
	raw        string
	normalized string
	grams      map[string]struct{}
}

// titleHistory is a bounded append-only list. Once the configured maximum is
// exceeded the oldest half is evicted into a fresh slice, so memory stays
// bounded and the backing array does not pin evicted entries.
type titleHistory struct {
	max     int
	entries []titleEntry
}

func newTitleHistory(max int) *titleHistory {
	return &titleHistory{max: max, entries: make([]titleEntry, 0, 64)}
}

func (h *titleHistory) append(e titleEntry) {
	h.entries = append(h.entries, e)
	if h.max > 0 && len(h.entries) > h.max {
		keep := h.max / 2
		fresh := make([]titleEntry, keep)
		copy(fresh, h.entries[len(h.entries)-keep:])
		h.entries = fresh
	}
}

func (h *titleHistory) len() int {
	return len(h.entries)
}

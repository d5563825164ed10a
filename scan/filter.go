package scan

// A Dedup filters duplicate advertising reports in software, for
// controllers that cannot filter in hardware. Two reports are duplicates
// when they share the peer address and event type.
type Dedup struct {
	seen map[dedupKey]struct{}
}

type dedupKey struct {
	addr string
	typ  EventType
}

// NewDedup returns an empty filter.
func NewDedup() *Dedup {
	return &Dedup{seen: make(map[dedupKey]struct{})}
}

// Seen records the report and reports whether an equivalent one was
// already recorded.
func (d *Dedup) Seen(r *Report) bool {
	k := dedupKey{addr: r.Address, typ: r.Type}
	if _, ok := d.seen[k]; ok {
		return true
	}
	d.seen[k] = struct{}{}
	return false
}

// Reset forgets all recorded reports.
func (d *Dedup) Reset() {
	d.seen = make(map[dedupKey]struct{})
}

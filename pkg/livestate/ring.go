package livestate

import "time"

type HistorySample struct {
	At    time.Time `json:"at"`
	Value float64   `json:"value"`
}

// ring keeps the most recent samples up to its capacity.
// values caches the ordered copy until the next push.
type ring struct {
	buf    []HistorySample
	start  int
	size   int
	cached []HistorySample
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]HistorySample, max(capacity, 1))}
}

func (r *ring) push(at time.Time, v float64) {
	idx := (r.start + r.size) % len(r.buf)
	r.buf[idx] = HistorySample{At: at, Value: v}
	if r.size < len(r.buf) {
		r.size++
	} else {
		r.start = (r.start + 1) % len(r.buf)
	}
	r.cached = nil
}

func (r *ring) len() int {
	return r.size
}

// values returns the samples oldest first. The result must not be modified.
func (r *ring) values() []HistorySample {
	if r.cached == nil {
		r.cached = make([]HistorySample, r.size)
		for i := range r.size {
			r.cached[i] = r.buf[(r.start+i)%len(r.buf)]
		}
	}
	return r.cached
}

func (r *ring) reset() {
	r.start = 0
	r.size = 0
	r.cached = nil
}

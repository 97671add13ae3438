package screen

import "time"

type durationRing struct {
	buf   []time.Duration
	idx   int
	count int
}

func newDurationRing(n int) *durationRing {
	if n < 1 {
		n = 1
	}
	return &durationRing{buf: make([]time.Duration, n)}
}

func (r *durationRing) add(d time.Duration) {
	r.buf[r.idx] = d
	r.idx = (r.idx + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

type durationStats struct {
	last, avg, max time.Duration
}

func (r *durationRing) snapshot() durationStats {
	if r.count == 0 {
		return durationStats{}
	}
	var sum, max time.Duration
	for _, d := range r.buf[:r.count] {
		sum += d
		if d > max {
			max = d
		}
	}
	last := r.buf[(r.idx-1+len(r.buf))%len(r.buf)]
	return durationStats{last: last, avg: sum / time.Duration(r.count), max: max}
}

package guard

// ring is a fixed-capacity float buffer indexed by position. Old values
// are overwritten once full, keeping per-push cost constant.
type ring struct {
	buf  []float64
	head int
	n    int
}

func newRing(capacity int) *ring {
	if capacity <= 0 {
		capacity = 32
	}
	return &ring{buf: make([]float64, capacity)}
}

func (r *ring) Push(v float64) {
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
	if r.n < len(r.buf) {
		r.n++
	}
}

func (r *ring) Len() int { return r.n }

func (r *ring) Mean() float64 {
	if r.n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < r.n; i++ {
		sum += r.buf[i]
	}
	return sum / float64(r.n)
}

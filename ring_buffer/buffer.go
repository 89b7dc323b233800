package ring_buffer

// bufImpl is a fixed-capacity circular sample window. Add fills it, Read
// returns the window oldest-first, and Advance discards the oldest samples.
type bufImpl struct {
	buffer []float64
	head   int
	count  int
}

func New(size int) Interface {
	return &bufImpl{
		buffer: make([]float64, size),
		head:   0,
	}
}

// Add appends samples until the window is full and returns how many were
// taken; the caller advances and adds the rest.
func (r *bufImpl) Add(samples []float64) int {
	n := 0
	for _, s := range samples {
		if r.count == len(r.buffer) {
			break
		}
		r.buffer[(r.head+r.count)%len(r.buffer)] = s
		r.count++
		n++
	}
	return n
}

// Full reports whether the window holds size samples.
func (r *bufImpl) Full() bool {
	return r.count == len(r.buffer)
}

func (r *bufImpl) Len() int {
	return r.count
}

// Read copies the buffered samples into dst oldest-first and returns it.
func (r *bufImpl) Read(dst []float64) []float64 {
	if cap(dst) < r.count {
		dst = make([]float64, r.count)
	}
	dst = dst[:r.count]
	for i := 0; i < r.count; i++ {
		dst[i] = r.buffer[(r.head+i)%len(r.buffer)]
	}
	return dst
}

// Advance drops the n oldest samples.
func (r *bufImpl) Advance(n int) {
	if n > r.count {
		n = r.count
	}
	r.head = (r.head + n) % len(r.buffer)
	r.count -= n
}

func (r *bufImpl) Clear() {
	for i := 0; i < len(r.buffer); i++ {
		r.buffer[i] = 0
	}
	r.head = 0
	r.count = 0
}

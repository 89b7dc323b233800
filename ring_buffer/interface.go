package ring_buffer

type Interface interface {
	Add(samples []float64) int
	Full() bool
	Len() int
	Read(dst []float64) []float64
	Advance(n int)
	Clear()
}

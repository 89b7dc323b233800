package ring_buffer

import "testing"

func TestRingBuffer_Add(t *testing.T) {
	t.Run("fill ring buffer with digits, advance past the wrap point, and test that it reads oldest first", func(t *testing.T) {
		ringBuffer := New(10)

		next := 0
		for round := 0; round < 3; round++ {
			for !ringBuffer.Full() {
				ringBuffer.Add([]float64{float64(next)})
				next++
			}
			if round < 2 {
				ringBuffer.Advance(4)
			}
		}

		expected := []float64{8, 9, 10, 11, 12, 13, 14, 15, 16, 17}
		actual := ringBuffer.Read(nil)

		if len(actual) != len(expected) {
			t.Fatalf("expected %d samples, got %d", len(expected), len(actual))
		}

		for i := 0; i < 10; i++ {
			if expected[i] != actual[i] {
				t.Errorf("expected %v, got %v", expected[i], actual[i])
			}
		}
	})

	t.Run("add stops at capacity and reports how many samples it took", func(t *testing.T) {
		ringBuffer := New(4)

		taken := ringBuffer.Add([]float64{1, 2, 3, 4, 5, 6})
		if taken != 4 {
			t.Errorf("expected 4 samples taken, got %d", taken)
		}

		ringBuffer.Advance(2)
		if ringBuffer.Len() != 2 {
			t.Errorf("expected 2 samples left, got %d", ringBuffer.Len())
		}

		ringBuffer.Clear()
		if ringBuffer.Len() != 0 {
			t.Errorf("expected empty buffer after clear, got %d", ringBuffer.Len())
		}
	})
}

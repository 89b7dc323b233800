package listener

import "context"

type Interface interface {
	// Start opens the capture device and streams mono PCM16 chunks until ctx
	// is done or the device fails. The channel is closed when capture stops.
	Start(ctx context.Context) (<-chan []int16, error)

	// Err is the error that stopped capture, if any.
	Err() error

	// Dropped is the number of chunks discarded because the consumer fell
	// behind.
	Dropped() uint64
}

// stream is the part of a portaudio stream the listener drives.
type stream interface {
	Start() error
	Read() error
	Stop() error
	Close() error
}

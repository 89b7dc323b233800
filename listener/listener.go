// Package listener captures microphone audio through portaudio.
package listener

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
)

const (
	defaultSampleRate = 16000
	defaultChunkSize  = 1024
)

type openFunc func(sampleRate, chunkSize int, buf []int16) (stream, error)

type listenerImpl struct {
	sampleRate int
	chunkSize  int
	open       openFunc
	terminate  func() error

	dropped atomic.Uint64

	mu  sync.Mutex
	err error
}

type Config struct {
	SampleRate int

	// ChunkSize is the number of samples read per device callback.
	ChunkSize int
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	l := &listenerImpl{
		sampleRate: cfg.SampleRate,
		chunkSize:  cfg.ChunkSize,
		open:       openDefault,
		terminate:  portaudio.Terminate,
	}

	if l.sampleRate == 0 {
		l.sampleRate = defaultSampleRate
	}

	if l.chunkSize == 0 {
		l.chunkSize = defaultChunkSize
	}

	if l.sampleRate < 0 || l.chunkSize < 0 {
		return nil, fmt.Errorf("sample rate and chunk size must be positive")
	}

	return l, nil
}

func openDefault(sampleRate, chunkSize int, buf []int16) (stream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing portaudio: %w", err)
	}

	s, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), chunkSize, buf)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("opening default input: %w", err)
	}

	return s, nil
}

func (l *listenerImpl) Start(ctx context.Context) (<-chan []int16, error) {
	buf := make([]int16, l.chunkSize)

	s, err := l.open(l.sampleRate, l.chunkSize, buf)
	if err != nil {
		return nil, err
	}

	if err := s.Start(); err != nil {
		l.close(s)
		return nil, fmt.Errorf("starting input stream: %w", err)
	}

	slog.Info("listening", "sample_rate", l.sampleRate, "chunk", l.chunkSize)

	out := make(chan []int16, 1)

	go func() {
		defer close(out)
		defer l.close(s)

		for ctx.Err() == nil {
			if err := s.Read(); err != nil {
				if ctx.Err() == nil {
					l.setErr(fmt.Errorf("reading input stream: %w", err))
				}
				return
			}

			chunk := make([]int16, len(buf))
			copy(chunk, buf)

			select {
			case out <- chunk:
			default:
				n := l.dropped.Add(1)
				slog.Debug("audio chunk dropped", "dropped", n)
			}
		}
	}()

	return out, nil
}

func (l *listenerImpl) close(s stream) {
	if err := s.Stop(); err != nil {
		slog.Debug("stopping input stream", "error", err)
	}

	if err := s.Close(); err != nil {
		slog.Warn("closing input stream", "error", err)
	}

	if l.terminate != nil {
		if err := l.terminate(); err != nil {
			slog.Warn("terminating portaudio", "error", err)
		}
	}
}

func (l *listenerImpl) setErr(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.err = err
}

func (l *listenerImpl) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.err
}

func (l *listenerImpl) Dropped() uint64 {
	return l.dropped.Load()
}

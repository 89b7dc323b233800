package calibration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"voice-command-detection/config"
	"voice-command-detection/speech_extraction"
	"voice-command-detection/template"
	"voice-command-detection/vector"
)

// Recorder cuts a stream of voiced features into single utterances.
type Recorder struct {
	minDuration    time.Duration
	maxDuration    time.Duration
	silenceTimeout time.Duration
	hop            time.Duration

	// pending is the feature that ended the previous utterance by gap.
	pending *speech_extraction.Feature
}

func NewRecorder(cfg config.Config) (*Recorder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Recorder{
		minDuration:    cfg.MinRecordingDuration,
		maxDuration:    cfg.MaxRecordingDuration,
		silenceTimeout: cfg.SilenceTimeout,
		hop:            cfg.HopDuration(),
	}, nil
}

// Record blocks until one utterance has been collected from in. It returns
// ErrInsufficientData for an utterance that is too short, too long or has
// too few voiced frames, and ctx.Err() when ctx is done first.
func (r *Recorder) Record(ctx context.Context, in <-chan speech_extraction.Feature) ([]vector.FeatureVector, error) {
	var first, last speech_extraction.Feature

	if r.pending != nil {
		first = *r.pending
		r.pending = nil
	} else {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case f, ok := <-in:
			if !ok {
				return nil, fmt.Errorf("%w: input closed before speech", ErrInsufficientData)
			}
			first = f
		}
	}

	features := []vector.FeatureVector{first.Vector}
	last = first
	abandoned := false

	idle := time.NewTimer(r.silenceTimeout)
	defer idle.Stop()

	// an abandoned recording is still read to its end so the rest of the
	// sound cannot pass for the next take
collect:
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-idle.C:
			break collect

		case f, ok := <-in:
			if !ok {
				break collect
			}

			if f.At.Sub(last.At) > r.silenceTimeout {
				r.pending = &f
				break collect
			}

			last = f

			if !abandoned && f.At.Sub(first.At) >= r.maxDuration {
				slog.Debug("recording abandoned", "max", r.maxDuration)
				abandoned = true
				features = nil
			}

			if !abandoned {
				features = append(features, f.Vector)
			}

			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(r.silenceTimeout)
		}
	}

	if abandoned {
		return nil, fmt.Errorf("%w: recording longer than %v", ErrInsufficientData, r.maxDuration)
	}

	duration := last.At.Sub(first.At) + r.hop
	slog.Debug("recording finished", "frames", len(features), "duration", duration)

	if duration < r.minDuration {
		return nil, fmt.Errorf("%w: recording of %v is shorter than %v", ErrInsufficientData, duration, r.minDuration)
	}

	if len(features) < template.MinFeatures {
		return nil, fmt.Errorf("%w: %d voiced frames, need %d", ErrInsufficientData, len(features), template.MinFeatures)
	}

	return features, nil
}

package recognizer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"voice-command-detection/config"
	"voice-command-detection/speech_extraction"
	"voice-command-detection/template"
	"voice-command-detection/vector"
)

type recognizerImpl struct {
	minFrames    int
	margin       float64
	deltaWeight  float64
	deltaEnabled bool
	cooldown     time.Duration
	templates    map[template.Command]*template.Template
	logger       *slog.Logger

	state       streak
	lockedUntil time.Time
	previous    vector.FeatureVector
}

type Config struct {
	MinFramesRequired int
	MarginFactor      float64
	DeltaWeight       float64
	DeltaEnabled      bool
	Cooldown          time.Duration
	FeatureDimensions int

	// Templates may lack either command; a missing or incomplete template
	// never wins.
	Templates map[template.Command]template.Template

	Logger *slog.Logger
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, config.Errorf("recognizer", "config is nil")
	}

	if cfg.MinFramesRequired <= 0 {
		return nil, config.Errorf("min_frames_required", "must be positive, got %d", cfg.MinFramesRequired)
	}

	if cfg.MarginFactor <= 0 || cfg.MarginFactor > 1 {
		return nil, config.Errorf("margin_factor", "must be in (0, 1], got %g", cfg.MarginFactor)
	}

	if cfg.DeltaWeight < 0 || cfg.DeltaWeight > 1 {
		return nil, config.Errorf("delta_weight", "must be in [0, 1], got %g", cfg.DeltaWeight)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &recognizerImpl{
		minFrames:    cfg.MinFramesRequired,
		margin:       cfg.MarginFactor,
		deltaWeight:  cfg.DeltaWeight,
		deltaEnabled: cfg.DeltaEnabled,
		cooldown:     cfg.Cooldown,
		templates:    make(map[template.Command]*template.Template),
		logger:       logger,
	}

	for _, command := range template.Commands {
		t, ok := cfg.Templates[command]
		switch {
		case !ok:
			logger.Warn("no template, command cannot match until recalibrated", "command", command)
			continue
		case !t.IsComplete():
			logger.Warn("incomplete template, command cannot match until recalibrated",
				"command", command, "frames", len(t.Frames))
			continue
		case !(t.AcceptanceRadius > 0):
			logger.Warn("template has no acceptance radius, command cannot match",
				"command", command, "radius", t.AcceptanceRadius)
			continue
		}

		if cfg.FeatureDimensions > 0 && t.Dimensions() != cfg.FeatureDimensions {
			return nil, config.Errorf("feature_dimensions", "%s template has %d coefficients, pipeline produces %d",
				command, t.Dimensions(), cfg.FeatureDimensions)
		}

		r.templates[command] = &t
	}

	return r, nil
}

// FromConfig builds a recognizer from the pipeline configuration.
func FromConfig(cfg config.Config, templates map[template.Command]template.Template) (Interface, error) {
	return New(&Config{
		MinFramesRequired: cfg.MinFramesRequired,
		MarginFactor:      cfg.MarginFactor,
		DeltaWeight:       cfg.DeltaWeight,
		DeltaEnabled:      cfg.DeltaEnabled,
		Cooldown:          cfg.Cooldown,
		FeatureDimensions: cfg.FeatureDimensions,
		Templates:         templates,
	})
}

func (r *recognizerImpl) Process(v vector.FeatureVector, at time.Time) (Event, bool) {
	if r.Locked(at) {
		return Event{}, false
	}

	current := vector.Normalize(v)

	var delta vector.FeatureVector
	if r.previous != nil && len(r.previous) == len(current) {
		delta = vector.Sub(current, r.previous)
	}
	r.previous = current

	distJump := r.distance(template.Jump, current, delta)
	distTurn := r.distance(template.Turn, current, delta)

	var winner template.Command

	switch {
	case distJump < distTurn:
		winner = template.Jump
	case distTurn < distJump:
		winner = template.Turn
	default:
		// equal (or both unavailable): nobody wins, nobody keeps credit
		r.state = streak{}
		return Event{}, false
	}

	dist := func(c template.Command) float64 {
		if c == template.Jump {
			return distJump
		}
		return distTurn
	}
	winnerDist, loserDist := dist(winner), dist(winner.Other())

	if !(winnerDist < loserDist*r.margin) || !(winnerDist < r.templates[winner].AcceptanceRadius) {
		r.state = streak{}
		return Event{}, false
	}

	r.state = r.state.extend(winner, at)

	if r.state.count < r.minFrames {
		return Event{}, false
	}

	ev := Event{
		Command:      winner,
		FirstMatchAt: r.state.firstAt,
		FiredAt:      at,
		FrameCount:   r.state.count,
	}

	r.state = streak{}
	r.lockedUntil = at.Add(r.cooldown)

	r.logger.Info("command fired",
		"command", ev.Command,
		"frames", ev.FrameCount,
		"latency", ev.Latency(),
		"distance", winnerDist,
		"competitor", loserDist)

	return ev, true
}

// distance is the blended distance from v to command's template, +Inf when
// the command has no usable template.
func (r *recognizerImpl) distance(command template.Command, v, delta vector.FeatureVector) float64 {
	t, ok := r.templates[command]
	if !ok {
		return math.Inf(1)
	}

	d := vector.Distance(v, t.Centroid)

	if r.deltaEnabled && delta != nil && len(delta) == len(t.DeltaCoefficients) {
		d = d*(1-r.deltaWeight) + vector.Distance(delta, t.DeltaCoefficients)*r.deltaWeight
	}

	return d
}

func (r *recognizerImpl) Run(ctx context.Context, in <-chan speech_extraction.Feature) <-chan Event {
	out := make(chan Event)

	go func() {
		defer close(out)

		for {
			var (
				f  speech_extraction.Feature
				ok bool
			)

			select {
			case <-ctx.Done():
				return
			case f, ok = <-in:
				if !ok {
					return
				}
			}

			if ctx.Err() != nil {
				return
			}

			ev, fired := r.Process(f.Vector, f.At)
			if !fired {
				continue
			}

			if ctx.Err() != nil {
				return
			}

			select {
			case <-ctx.Done():
				return
			case out <- ev:
			}
		}
	}()

	return out
}

func (r *recognizerImpl) MatchCount(command template.Command) int {
	return r.state.countFor(command)
}

func (r *recognizerImpl) Locked(at time.Time) bool {
	return at.Before(r.lockedUntil)
}

func (r *recognizerImpl) Reset() {
	r.state = streak{}
	r.lockedUntil = time.Time{}
	r.previous = nil
}

func (r *recognizerImpl) String() string {
	return fmt.Sprintf("recognizer(%s, jump=%d, turn=%d)", r.state.phase,
		r.MatchCount(template.Jump), r.MatchCount(template.Turn))
}

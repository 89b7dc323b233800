package calibration

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"voice-command-detection/config"
	"voice-command-detection/template"
	"voice-command-detection/vector"
)

// Session collects the recordings of one calibration run.
type Session struct {
	id          string
	repetitions int
	dimensions  int
	floor       float64
	recordings  map[template.Command][]template.Template
	logger      *slog.Logger
}

func NewSession(cfg config.Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	id := uuid.NewString()

	return &Session{
		id:          id,
		repetitions: cfg.Repetitions,
		dimensions:  cfg.FeatureDimensions,
		floor:       cfg.ThresholdFloor,
		recordings:  make(map[template.Command][]template.Template, len(template.Commands)),
		logger:      slog.Default().With("session", id),
	}, nil
}

func (s *Session) ID() string {
	return s.id
}

// Add builds a template from one utterance of command. ErrInsufficientData
// means the take was unusable and should be repeated.
func (s *Session) Add(command template.Command, features []vector.FeatureVector) (template.Template, error) {
	if !command.Valid() {
		return template.Template{}, fmt.Errorf("unknown command %q", command)
	}

	for i, f := range features {
		if len(f) != s.dimensions {
			return template.Template{}, fmt.Errorf("feature %d has %d coefficients, expected %d", i, len(f), s.dimensions)
		}
	}

	t, err := template.Build(features)
	if err != nil {
		s.logger.Warn("recording rejected", "command", command, "frames", len(features), "error", err)
		return template.Template{}, err
	}

	s.recordings[command] = append(s.recordings[command], t)
	s.logger.Info("recording accepted",
		"command", command,
		"frames", len(features),
		"take", len(s.recordings[command]),
		"energy", t.SelectedEnergy)

	return t, nil
}

// Remaining is how many more takes of command are wanted.
func (s *Session) Remaining(command template.Command) int {
	return max(s.repetitions-len(s.recordings[command]), 0)
}

// Done reports whether every command has all its takes.
func (s *Session) Done() bool {
	for _, c := range template.Commands {
		if s.Remaining(c) > 0 {
			return false
		}
	}
	return true
}

// Finish merges the takes of each command and assigns both templates the
// shared auto threshold.
func (s *Session) Finish() (Artifact, error) {
	merged := make(map[template.Command]template.Template, len(template.Commands))
	spread := make(map[template.Command]float64, len(template.Commands))

	for _, c := range template.Commands {
		takes := s.recordings[c]
		if len(takes) == 0 {
			return Artifact{}, fmt.Errorf("%w: no recordings of %s", ErrInsufficientData, c)
		}

		m, err := template.Merge(takes)
		if err != nil {
			return Artifact{}, fmt.Errorf("merging %s: %w", c, err)
		}

		merged[c] = m
		spread[c] = template.Spread(takes, m)
	}

	jump, turn := merged[template.Jump], merged[template.Turn]
	threshold := template.AutoThreshold(jump, turn, spread[template.Jump], spread[template.Turn], s.floor)
	jump.AcceptanceRadius = threshold
	turn.AcceptanceRadius = threshold

	s.logger.Info("calibration finished",
		"threshold", threshold,
		"separation", vector.Distance(jump.Centroid, turn.Centroid),
		"spread_jump", spread[template.Jump],
		"spread_turn", spread[template.Turn])

	return Artifact{
		Jump:          jump,
		Turn:          turn,
		AutoThreshold: threshold,
	}, nil
}

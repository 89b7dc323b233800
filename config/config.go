package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Transform names accepted in Config.Transform.
const (
	TransformRadix2 = "radix2"
	TransformGonum  = "gonum"
	TransformDirect = "direct"
)

// Config is the full parameter set of the detection pipeline. Nothing in the
// pipeline reads constants from anywhere else.
type Config struct {
	// SampleRate of the mono input stream in Hz.
	SampleRate int `yaml:"sample_rate"`

	// FrameSize is the number of samples per analysis frame (F).
	FrameSize int `yaml:"frame_size"`

	// HopSize is the number of samples between frame starts (H < F).
	HopSize int `yaml:"hop_size"`

	// VADThreshold is the minimum frame energy (sum of squared samples in
	// [-1, 1]) for a frame to count as voiced.
	VADThreshold float64 `yaml:"vad_threshold"`

	// FeatureDimensions is the number of cepstral coefficients kept (D).
	FeatureDimensions int `yaml:"feature_dimensions"`

	// MelFilters is the number of triangular mel filters (M).
	MelFilters int `yaml:"mel_filters"`

	// Transform selects the spectral transform: radix2, gonum or direct.
	Transform string `yaml:"transform"`

	MinRecordingDuration time.Duration `yaml:"min_recording_duration"`
	MaxRecordingDuration time.Duration `yaml:"max_recording_duration"`

	// SilenceTimeout ends a calibration recording when no voiced frame
	// arrives for this long.
	SilenceTimeout time.Duration `yaml:"silence_timeout"`

	// Repetitions is how many times each command is recorded during calibration.
	Repetitions int `yaml:"repetitions"`

	MinFramesRequired int           `yaml:"min_frames_required"`
	MarginFactor      float64       `yaml:"margin_factor"`
	DeltaWeight       float64       `yaml:"delta_weight"`
	DeltaEnabled      bool          `yaml:"delta_enabled"`
	Cooldown          time.Duration `yaml:"cooldown"`

	// ThresholdFloor is the smallest acceptance radius auto-calibration may produce.
	ThresholdFloor float64 `yaml:"threshold_floor"`
}

// Default returns the reference configuration: 16 kHz audio, 16 ms frames
// with a 8 ms hop, 26 mel filters reduced to 6 coefficients.
func Default() Config {
	return Config{
		SampleRate:           16000,
		FrameSize:            256,
		HopSize:              128,
		VADThreshold:         0.01,
		FeatureDimensions:    6,
		MelFilters:           26,
		Transform:            TransformRadix2,
		MinRecordingDuration: 300 * time.Millisecond,
		MaxRecordingDuration: 2 * time.Second,
		SilenceTimeout:       300 * time.Millisecond,
		Repetitions:          3,
		MinFramesRequired:    2,
		MarginFactor:         0.8,
		DeltaWeight:          0.3,
		DeltaEnabled:         true,
		Cooldown:             150 * time.Millisecond,
		ThresholdFloor:       0.05,
	}
}

// ConfigurationError reports a structurally invalid configuration. It is
// always fatal.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Errorf builds a ConfigurationError for field.
func Errorf(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return Errorf("sample_rate", "must be positive, got %d", c.SampleRate)
	}
	if c.FrameSize <= 0 {
		return Errorf("frame_size", "must be positive, got %d", c.FrameSize)
	}
	if c.FrameSize%2 != 0 {
		return Errorf("frame_size", "must be even, got %d", c.FrameSize)
	}
	if c.HopSize <= 0 || c.HopSize >= c.FrameSize {
		return Errorf("hop_size", "must be in (0, %d), got %d", c.FrameSize, c.HopSize)
	}
	if c.VADThreshold < 0 {
		return Errorf("vad_threshold", "must not be negative, got %g", c.VADThreshold)
	}
	if c.MelFilters <= 0 {
		return Errorf("mel_filters", "must be positive, got %d", c.MelFilters)
	}
	if c.FeatureDimensions <= 0 || c.FeatureDimensions > c.MelFilters {
		return Errorf("feature_dimensions", "must be in [1, %d], got %d", c.MelFilters, c.FeatureDimensions)
	}

	switch c.Transform {
	case TransformRadix2:
		if c.FrameSize&(c.FrameSize-1) != 0 {
			return Errorf("frame_size", "radix2 transform needs a power of two, got %d", c.FrameSize)
		}
	case TransformGonum, TransformDirect:
	default:
		return Errorf("transform", "unknown transform %q", c.Transform)
	}

	if c.MinRecordingDuration < 0 || c.MaxRecordingDuration <= c.MinRecordingDuration {
		return Errorf("max_recording_duration", "must exceed min_recording_duration (%v), got %v",
			c.MinRecordingDuration, c.MaxRecordingDuration)
	}
	if c.SilenceTimeout <= 0 {
		return Errorf("silence_timeout", "must be positive, got %v", c.SilenceTimeout)
	}
	if c.Repetitions <= 0 {
		return Errorf("repetitions", "must be positive, got %d", c.Repetitions)
	}
	if c.MinFramesRequired <= 0 {
		return Errorf("min_frames_required", "must be positive, got %d", c.MinFramesRequired)
	}
	if c.MarginFactor <= 0 || c.MarginFactor > 1 {
		return Errorf("margin_factor", "must be in (0, 1], got %g", c.MarginFactor)
	}
	if c.DeltaWeight < 0 || c.DeltaWeight > 1 {
		return Errorf("delta_weight", "must be in [0, 1], got %g", c.DeltaWeight)
	}
	if c.Cooldown < 0 {
		return Errorf("cooldown", "must not be negative, got %v", c.Cooldown)
	}
	if c.ThresholdFloor <= 0 {
		return Errorf("threshold_floor", "must be positive, got %g", c.ThresholdFloor)
	}

	return nil
}

// Bins is the number of magnitude bins a frame's spectrum has.
func (c *Config) Bins() int {
	return c.FrameSize / 2
}

// HopDuration is the sample-clock time between consecutive frames.
func (c *Config) HopDuration() time.Duration {
	return time.Duration(c.HopSize) * time.Second / time.Duration(c.SampleRate)
}

// Load reads a YAML file from fileSys on top of Default and validates the
// result. An empty path yields the defaults.
func Load(fileSys afero.Fs, path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if fileSys == nil {
			return Config{}, fmt.Errorf("fileSys is nil")
		}

		data, err := afero.ReadFile(fileSys, path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

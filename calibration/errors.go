package calibration

import (
	"errors"

	"voice-command-detection/template"
)

var (
	// ErrInsufficientData means a recording was too short, too long or too
	// sparse. The caller should prompt for another take.
	ErrInsufficientData = template.ErrInsufficientData

	// ErrMissingTemplate means no calibration is stored. The recognizer can
	// still run, but the affected commands never match.
	ErrMissingTemplate = errors.New("no calibration found")
)

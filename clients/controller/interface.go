package controller

import (
	"context"

	"voice-command-detection/recognizer"
)

type ControllerAPI interface {
	// SendCommand delivers one recognized command to the controller.
	SendCommand(ctx context.Context, ev recognizer.Event) error
}

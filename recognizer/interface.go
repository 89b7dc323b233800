package recognizer

import (
	"context"
	"time"

	"voice-command-detection/speech_extraction"
	"voice-command-detection/template"
	"voice-command-detection/vector"
)

// Event is emitted once per recognized command.
type Event struct {
	Command template.Command

	// FirstMatchAt is the time of the first frame of the qualifying streak.
	FirstMatchAt time.Time

	// FiredAt is the time of the frame that completed the streak.
	FiredAt time.Time

	// FrameCount is the number of consecutive qualifying frames used.
	FrameCount int
}

// Latency is the time from the first qualifying frame to the fire.
func (e Event) Latency() time.Duration {
	return e.FiredAt.Sub(e.FirstMatchAt)
}

type Interface interface {
	// Process scores one voiced feature vector observed at at and reports
	// whether it completed a command.
	Process(v vector.FeatureVector, at time.Time) (Event, bool)

	// Run processes features until in closes or ctx is done and closes the
	// returned channel afterwards. Features arriving after ctx is done are
	// not scored; an event already waiting on a ready receiver at the
	// moment of cancellation may still be delivered.
	Run(ctx context.Context, in <-chan speech_extraction.Feature) <-chan Event

	// MatchCount is the current qualifying streak of command.
	MatchCount(command template.Command) int

	// Locked reports whether at falls inside the cooldown after a fire.
	Locked(at time.Time) bool

	// Reset returns to idle, clearing the cooldown and the previous frame.
	Reset()
}

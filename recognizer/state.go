package recognizer

import (
	"time"

	"voice-command-detection/template"
)

type phase int

const (
	phaseIdle phase = iota
	phaseAccumulating
)

func (p phase) String() string {
	switch p {
	case phaseIdle:
		return "idle"
	case phaseAccumulating:
		return "accumulating"
	default:
		return "unknown"
	}
}

// streak is the whole match state. Holding one command at a time means the
// losing command can never carry credit.
type streak struct {
	phase   phase
	command template.Command
	count   int
	firstAt time.Time
}

func (s streak) extend(command template.Command, at time.Time) streak {
	if s.phase == phaseAccumulating && s.command == command {
		s.count++
		return s
	}
	return streak{
		phase:   phaseAccumulating,
		command: command,
		count:   1,
		firstAt: at,
	}
}

func (s streak) countFor(command template.Command) int {
	if s.phase == phaseAccumulating && s.command == command {
		return s.count
	}
	return 0
}

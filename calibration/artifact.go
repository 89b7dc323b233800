package calibration

import (
	"voice-command-detection/template"
)

// Artifact is the persisted result of a calibration session.
type Artifact struct {
	Jump template.Template `json:"jump"`
	Turn template.Template `json:"turn"`

	// AutoThreshold is the shared acceptance radius; each template carries
	// a copy.
	AutoThreshold float64 `json:"autoThreshold"`
}

// Templates returns the artifact's templates keyed by command.
func (a Artifact) Templates() map[template.Command]template.Template {
	return map[template.Command]template.Template{
		template.Jump: a.Jump,
		template.Turn: a.Turn,
	}
}

// Template returns the template stored for command.
func (a Artifact) Template(command template.Command) template.Template {
	if command == template.Turn {
		return a.Turn
	}
	return a.Jump
}

// Complete lists the commands whose templates can match.
func (a Artifact) Complete() []template.Command {
	var out []template.Command
	for _, c := range template.Commands {
		t := a.Template(c)
		if t.IsComplete() {
			out = append(out, c)
		}
	}
	return out
}

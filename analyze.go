package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"voice-command-detection/recognizer"
	"voice-command-detection/recording"
	"voice-command-detection/speech_extraction"
	"voice-command-detection/template"
)

// energyStats counts frames as they pass the voice gate.
type energyStats struct {
	frames, voiced int
	peak           float64
}

func (s *energyStats) ObserveEnergy(index int, energy float64, voiced bool) {
	s.frames++
	if voiced {
		s.voiced++
	}
	s.peak = max(s.peak, energy)
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <wav>",
		Short: "Run recognition over a recorded WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			templates, err := ctx.templates()
			if err != nil {
				return err
			}

			samples, err := recording.ReadWAV(ctx.fileSys, args[0], cfg.SampleRate)
			if err != nil {
				return err
			}

			rec, err := recognizer.FromConfig(cfg, templates)
			if err != nil {
				return err
			}

			// offsets are reported from the start of the file; a zero
			// start would be replaced by the wall clock
			start := time.Unix(0, 0)
			stats := &energyStats{}

			pipeline, err := speech_extraction.FromConfig(cfg, stats, start)
			if err != nil {
				return err
			}

			runCtx := cmd.Context()
			chunks := recording.Chunks(runCtx, samples, cfg.HopSize*8)
			counts := make(map[template.Command]int)
			out := cmd.OutOrStdout()

			for ev := range rec.Run(runCtx, pipeline.Run(runCtx, chunks)) {
				counts[ev.Command]++
				fmt.Fprintf(out, "%8.3fs  %s  (%d frames)\n", ev.FiredAt.Sub(start).Seconds(), ev.Command, ev.FrameCount)
			}

			if err := runCtx.Err(); err != nil {
				return err
			}

			fmt.Fprintf(out, "%d frames, %d voiced, peak energy %.4f\n", stats.frames, stats.voiced, stats.peak)
			for _, c := range template.Commands {
				fmt.Fprintf(out, "%s: %d\n", c, counts[c])
			}

			return nil
		},
	}
}

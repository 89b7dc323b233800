package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"voice-command-detection/calibration"
	"voice-command-detection/config"
	"voice-command-detection/listener"
	"voice-command-detection/recording"
	"voice-command-detection/speech_extraction"
	"voice-command-detection/template"
	"voice-command-detection/vector"
)

func newCalibrateCommand(ctx *commandContext) *cobra.Command {
	var (
		jumpFiles []string
		turnFiles []string
		dumpDir   string
	)

	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Record each command and store the templates",
		Long: "Records every command the configured number of times from the microphone, " +
			"or reads the takes from WAV files given with --jump and --turn.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			session, err := calibration.NewSession(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			if len(jumpFiles) > 0 || len(turnFiles) > 0 {
				takes := map[template.Command][]string{template.Jump: jumpFiles, template.Turn: turnFiles}
				err = calibrateFromFiles(runCtx, ctx, cfg, session, takes, out)
			} else {
				err = calibrateFromMicrophone(runCtx, ctx, cfg, session, dumpDir, out)
			}
			if err != nil {
				return err
			}

			artifact, err := session.Finish()
			if err != nil {
				return err
			}

			store, err := ctx.store()
			if err != nil {
				return err
			}

			if err := store.Save(artifact); err != nil {
				return err
			}

			fmt.Fprintf(out, "templates saved to %s (threshold %.4f)\n", store.Path(), artifact.AutoThreshold)

			return nil
		},
	}

	cmd.Flags().StringSliceVar(&jumpFiles, "jump", nil, "WAV takes of the jump command")
	cmd.Flags().StringSliceVar(&turnFiles, "turn", nil, "WAV takes of the turn command")
	cmd.Flags().StringVar(&dumpDir, "dump-dir", "", "Save the captured microphone audio into this directory")

	return cmd
}

func calibrateFromFiles(
	runCtx context.Context,
	ctx *commandContext,
	cfg config.Config,
	session *calibration.Session,
	takes map[template.Command][]string,
	out io.Writer,
) error {
	for _, command := range template.Commands {
		for _, path := range takes[command] {
			samples, err := recording.ReadWAV(ctx.fileSys, path, cfg.SampleRate)
			if err != nil {
				return err
			}

			features, err := utterance(runCtx, cfg, samples)
			if err == nil {
				_, err = session.Add(command, features)
			}
			if errors.Is(err, calibration.ErrInsufficientData) {
				fmt.Fprintf(out, "%s: skipped, %v\n", path, err)
				continue
			}
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			fmt.Fprintf(out, "%s: %s take with %d voiced frames\n", path, command, len(features))
		}
	}

	return nil
}

// utterance extracts the first utterance of a recorded take.
func utterance(ctx context.Context, cfg config.Config, samples []int16) ([]vector.FeatureVector, error) {
	pipeline, err := speech_extraction.FromConfig(cfg, nil, time.Unix(0, 0))
	if err != nil {
		return nil, err
	}

	recorder, err := calibration.NewRecorder(cfg)
	if err != nil {
		return nil, err
	}

	features := pipeline.Run(ctx, recording.Chunks(ctx, samples, cfg.FrameSize*4))

	vectors, err := recorder.Record(ctx, features)
	drain(features)

	return vectors, err
}

func calibrateFromMicrophone(
	runCtx context.Context,
	ctx *commandContext,
	cfg config.Config,
	session *calibration.Session,
	dumpDir string,
	out io.Writer,
) error {
	mic, err := listener.New(&listener.Config{SampleRate: cfg.SampleRate})
	if err != nil {
		return err
	}

	captureCtx, cancel := context.WithCancel(runCtx)
	defer cancel()

	chunks, err := mic.Start(captureCtx)
	if err != nil {
		return err
	}

	if dumpDir != "" {
		var captured func() []int16
		chunks, captured = tee(captureCtx, chunks)
		defer func() {
			cancel()
			path := filepath.Join(dumpDir, "calibration-"+session.ID()+".wav")
			if err := dump(ctx, path, captured(), cfg.SampleRate); err != nil {
				slog.Warn("saving calibration audio", "path", path, "error", err)
				return
			}
			fmt.Fprintf(out, "audio saved to %s\n", path)
		}()
	}

	pipeline, err := speech_extraction.FromConfig(cfg, nil, time.Now())
	if err != nil {
		return err
	}

	recorder, err := calibration.NewRecorder(cfg)
	if err != nil {
		return err
	}

	features := pipeline.Run(captureCtx, chunks)

	for _, command := range template.Commands {
		for session.Remaining(command) > 0 {
			take := cfg.Repetitions - session.Remaining(command) + 1
			fmt.Fprintf(out, "say %s (%d of %d)\n", strings.ToUpper(string(command)), take, cfg.Repetitions)

			vectors, err := recorder.Record(runCtx, features)
			if err == nil {
				_, err = session.Add(command, vectors)
			}
			if errors.Is(err, calibration.ErrInsufficientData) {
				fmt.Fprintf(out, "  %v, try again\n", err)
				continue
			}
			if err != nil {
				return err
			}
		}
	}

	cancel()
	drain(features)

	if err := mic.Err(); err != nil {
		return err
	}

	if n := mic.Dropped(); n > 0 {
		fmt.Fprintf(out, "%d audio chunks were dropped\n", n)
	}

	return nil
}

// drain discards what is left on features so the pipeline goroutine can
// finish and close it.
func drain(features <-chan speech_extraction.Feature) {
	for range features {
	}
}

// tee passes chunks through and keeps a copy of everything it saw. The
// returned func blocks until ctx is done or in is closed.
func tee(ctx context.Context, in <-chan []int16) (<-chan []int16, func() []int16) {
	out := make(chan []int16)
	done := make(chan struct{})

	var captured []int16

	go func() {
		defer close(done)
		defer close(out)

		for chunk := range in {
			captured = append(captured, chunk...)

			select {
			case <-ctx.Done():
				return
			case out <- chunk:
			}
		}
	}()

	return out, func() []int16 {
		<-done
		return captured
	}
}

func dump(ctx *commandContext, path string, samples []int16, sampleRate int) error {
	if err := ctx.fileSys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return recording.WriteWAV(ctx.fileSys, path, samples, sampleRate)
}

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"voice-command-detection/clients/controller"
	"voice-command-detection/listener"
	"voice-command-detection/recognizer"
	"voice-command-detection/speech_extraction"
)

func newListenCommand(ctx *commandContext) *cobra.Command {
	var controllerURL string

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Recognize commands from the microphone",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			templates, err := ctx.templates()
			if err != nil {
				return err
			}

			rec, err := recognizer.FromConfig(cfg, templates)
			if err != nil {
				return err
			}

			pipeline, err := speech_extraction.FromConfig(cfg, nil, time.Now())
			if err != nil {
				return err
			}

			var client controller.ControllerAPI
			if controllerURL != "" {
				client, err = controller.NewClient(&controller.Config{ApiHost: controllerURL})
				if err != nil {
					return err
				}
			}

			mic, err := listener.New(&listener.Config{SampleRate: cfg.SampleRate})
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			chunks, err := mic.Start(runCtx)
			if err != nil {
				return err
			}

			events := rec.Run(runCtx, pipeline.Run(runCtx, chunks))

			g, gctx := errgroup.WithContext(runCtx)
			commands := make(chan recognizer.Event, 8)

			g.Go(func() error {
				defer close(commands)
				return report(cmd.OutOrStdout(), events, commands)
			})

			g.Go(func() error {
				return forward(gctx, client, commands)
			})

			err = g.Wait()

			if n := mic.Dropped(); n > 0 {
				slog.Warn("audio chunks dropped", "count", n)
			}

			if err != nil {
				return err
			}

			if err := mic.Err(); err != nil {
				return err
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&controllerURL, "controller-url", "", "Send each command to this controller")

	return cmd
}

// report prints every event and hands it to the forwarder when one is
// listening.
func report(out io.Writer, events <-chan recognizer.Event, commands chan<- recognizer.Event) error {
	for ev := range events {
		fmt.Fprintf(out, "%s  %s  (%d frames, %v)\n",
			ev.FiredAt.Format("15:04:05.000"), ev.Command, ev.FrameCount, ev.Latency())

		select {
		case commands <- ev:
		default:
			slog.Warn("controller is behind, command not forwarded", "command", ev.Command)
		}
	}

	return nil
}

// forward sends commands to the controller. Failures are logged and do not
// stop recognition.
func forward(ctx context.Context, client controller.ControllerAPI, commands <-chan recognizer.Event) error {
	for ev := range commands {
		if client == nil {
			continue
		}

		if err := client.SendCommand(ctx, ev); err != nil {
			slog.Warn("sending command", "command", ev.Command, "error", err)
		}
	}

	return nil
}

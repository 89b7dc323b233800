package main

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"voice-command-detection/calibration"
	"voice-command-detection/config"
	"voice-command-detection/logging"
	"voice-command-detection/template"
)

const defaultTemplatesPath = "templates.json"

type commandContext struct {
	fileSys afero.Fs

	configFlag    string
	templatesFlag string
	logOpts       logging.Options

	configOnce sync.Once
	config     config.Config
	configErr  error
}

func newCommandContext(fileSys afero.Fs) *commandContext {
	return &commandContext{fileSys: fileSys}
}

func (c *commandContext) ensureConfig() (config.Config, error) {
	c.configOnce.Do(func() {
		c.config, c.configErr = config.Load(c.fileSys, c.configFlag)
	})
	return c.config, c.configErr
}

func (c *commandContext) store() (*calibration.Store, error) {
	return calibration.NewStore(&calibration.StoreConfig{
		FileSys: c.fileSys,
		Path:    c.templatesFlag,
	})
}

// templates loads the stored calibration. Without one the recognizer still
// runs but never fires.
func (c *commandContext) templates() (map[template.Command]template.Template, error) {
	store, err := c.store()
	if err != nil {
		return nil, err
	}

	artifact, err := store.Load()
	if errors.Is(err, calibration.ErrMissingTemplate) {
		slog.Warn("running uncalibrated, run calibrate first", "path", store.Path())
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	slog.Info("calibration loaded",
		"path", store.Path(),
		"threshold", artifact.AutoThreshold,
		"commands", fmt.Sprint(artifact.Complete()))

	return artifact.Templates(), nil
}

func newRootCommand() *cobra.Command {
	return newRootCommandWithFs(afero.NewOsFs())
}

func newRootCommandWithFs(fileSys afero.Fs) *cobra.Command {
	ctx := newCommandContext(fileSys)

	rootCmd := &cobra.Command{
		Use:           "voice-command-detection",
		Short:         "Detect the spoken commands jump and turn",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := logging.Init(ctx.logOpts); err != nil {
				return err
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path")
	flags.StringVarP(&ctx.templatesFlag, "templates", "t", defaultTemplatesPath, "Calibration file path")
	flags.StringVar(&ctx.logOpts.Level, "log-level", "info", "Log level: debug, info, warn or error")
	flags.StringVar(&ctx.logOpts.Format, "log-format", "", "Log format: text or json (default picks by terminal)")
	flags.StringVar(&ctx.logOpts.File, "log-file", "", "Write logs to a rotating file")

	rootCmd.AddCommand(newCalibrateCommand(ctx))
	rootCmd.AddCommand(newListenCommand(ctx))
	rootCmd.AddCommand(newAnalyzeCommand(ctx))

	return rootCmd
}

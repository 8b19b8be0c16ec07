package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/murmurations/go-murmurations/internal/config"
	"github.com/murmurations/go-murmurations/internal/logging"
	"github.com/murmurations/go-murmurations/internal/prompt"
)

// cli carries what every subcommand shares.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath string
	logLevel   string

	cfg    config.Config
	logger *zap.Logger

	// newDriver is swapped in tests.
	newDriver func(out io.Writer) prompt.Driver
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer, options ...func(*cli)) *cobra.Command {
	c := &cli{
		stdin:     stdin,
		stdout:    stdout,
		stderr:    stderr,
		newDriver: prompt.NewSurveyDriver,
	}
	for _, opt := range options {
		opt(c)
	}

	root := &cobra.Command{
		Use:           "murmurations-tools",
		Short:         "Murmurations profile generator and index tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", os.Getenv("MURMURATIONS_CONFIG"), "YAML config file")
	flags.StringVar(&c.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		c.serveCmd(),
		c.buildCmd(),
		c.promptCmd(),
		c.migrateCmd(),
	)
	return root
}

func (c *cli) setup() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if level := strings.TrimSpace(c.logLevel); level != "" {
		cfg.Log.Level = level
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.JSON)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	c.cfg = cfg
	c.logger = logger
	return nil
}

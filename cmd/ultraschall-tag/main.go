package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/ultraschall/podcast-tools/internal/audio"
	"github.com/ultraschall/podcast-tools/internal/batch"
	"github.com/ultraschall/podcast-tools/internal/config"
	"github.com/ultraschall/podcast-tools/internal/logging"
	"github.com/ultraschall/podcast-tools/internal/version"
)

// app holds what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	verbose    bool

	settings *config.Settings
	log      zerolog.Logger
	closeLog func() error
	tagger   *audio.Tagger
}

func main() {
	// Handle interrupts
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nInterrupted, cancelling...")
		cancel()
	}()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if ctx.Err() != nil {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{closeLog: func() error { return nil }}

	root := &cobra.Command{
		Use:     "ultraschall-tag",
		Short:   "Write podcast metadata into MP3 files",
		Version: version.Version,
		Long: `ultraschall-tag writes ID3v2.4 metadata into MP3 files: text properties,
cover art, and chapters with a table of contents.

Settings are read from settings.json in the user configuration directory
unless --config is given. Every setting can be overridden with an
environment variable prefixed by ULTRASCHALL_, e.g. ULTRASCHALL_LOG_LEVEL.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.closeLog()
		},
	}

	persistent := root.PersistentFlags()
	persistent.StringVarP(&a.configPath, "config", "c", "", "config file path (default "+config.DefaultPath()+")")
	persistent.BoolVarP(&a.verbose, "verbose", "v", false, "show verbose output")

	root.AddCommand(
		newPropertiesCmd(a),
		newCoverCmd(a),
		newChaptersCmd(a),
		newListChaptersCmd(a),
		newExportChaptersCmd(a),
		newDurationCmd(a),
		newRemoveCmd(a),
		newUpdateCheckCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	path := a.configPath
	if path == "" {
		path = config.DefaultPath()
	}

	settings, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.verbose {
		settings.LogLevel = "debug"
	}
	a.settings = settings

	log, closeLog, err := logging.New(settings, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.log = log
	a.closeLog = closeLog

	tagConfig, err := settings.ToTagConfig()
	if err != nil {
		return err
	}
	a.tagger = audio.NewTagger(tagConfig, log)

	a.log.Debug().Str("config", path).Str("version", version.Version).Msg("settings loaded")
	return nil
}

// runBatch applies job to paths and prints progress like the other
// commands. It fails when any file failed.
func (a *app) runBatch(cmd *cobra.Command, paths []string, job batch.Job) error {
	out := cmd.OutOrStdout()
	runner := batch.NewRunner(a.tagger, a.settings.MaxConcurrentFiles, a.log, func(event batch.ProgressEvent) {
		if event.Level == batch.LevelVerbose && !a.verbose {
			return
		}

		prefix := ""
		switch event.Level {
		case batch.LevelError:
			prefix = "✗ "
		case batch.LevelWarning:
			prefix = "! "
		case batch.LevelSuccess:
			prefix = "✓ "
		case batch.LevelInfo:
			prefix = "› "
		default:
			prefix = "  "
		}

		fmt.Fprintln(out, prefix+event.Message)
	})

	summary, err := runner.Run(cmd.Context(), paths, job)
	if err != nil {
		return err
	}
	if n := len(summary.Failures); n > 0 {
		return fmt.Errorf("%d of %d files failed", n, summary.Total)
	}
	return nil
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ultraschall/podcast-tools/internal/audio"
	"github.com/ultraschall/podcast-tools/internal/config"
	"github.com/ultraschall/podcast-tools/internal/logging"
	"github.com/ultraschall/podcast-tools/internal/tui"
	"github.com/ultraschall/podcast-tools/internal/version"
)

func main() {
	var (
		configPath string
		backup     bool
	)

	cmd := &cobra.Command{
		Use:          "ultraschall-tui <file.mp3>...",
		Short:        "Edit the properties of MP3 files interactively",
		Version:      version.Version,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				configPath = config.DefaultPath()
			}
			settings, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			// The alternate screen owns the terminal, so only the log file is written.
			log, closeLog, err := logging.New(settings, nil)
			if err != nil {
				return err
			}
			defer closeLog()

			tagConfig, err := settings.ToTagConfig()
			if err != nil {
				return err
			}

			return tui.Run(args, tui.Options{
				Tagger:             audio.NewTagger(tagConfig, log),
				MaxConcurrentFiles: settings.MaxConcurrentFiles,
				Backup:             backup,
				Logger:             log,
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file path")
	cmd.Flags().BoolVarP(&backup, "backup", "b", false, "copy each file to <name>.bak first")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ultraschall/podcast-tools/internal/http"
	"github.com/ultraschall/podcast-tools/internal/notify"
	"github.com/ultraschall/podcast-tools/internal/store"
	"github.com/ultraschall/podcast-tools/internal/update"
	"github.com/ultraschall/podcast-tools/internal/version"
)

// notificationWidth is the width of the update box in the terminal.
const notificationWidth = 72

func (a *app) httpClient() *http.Client {
	userAgent := a.settings.UserAgent
	if userAgent == "" {
		userAgent = version.UserAgent()
	}
	return http.NewClient(userAgent, a.settings.HTTPTimeout)
}

func newUpdateCheckCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "update-check",
		Short: "Check whether a newer release is available",
		Long: `Fetches the published release version at most once per update_interval
(24 hours by default) and shows a notification when it is newer than this
build. --force ignores the interval.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			props, closeStore, err := store.Open(a.settings, a.log)
			if err != nil {
				return err
			}
			defer closeStore()

			notifier := notify.Multi{
				notify.NewTerminalNotifier(cmd.OutOrStdout(), notificationWidth),
				notify.NewLogNotifier(a.log),
			}

			checker := update.NewChecker(props, update.FetcherFunc(a.httpClient().GetString), notifier, update.Options{
				URL:          a.settings.UpdateURL,
				DownloadURL:  a.settings.DownloadURL,
				Interval:     a.settings.UpdateInterval,
				LocalVersion: version.Version,
				Logger:       a.log,
			})

			var result update.Result
			if force {
				result = checker.CheckNow(cmd.Context())
			} else {
				result = checker.Check(cmd.Context())
			}

			out := cmd.OutOrStdout()
			switch {
			case !result.Checked:
				fmt.Fprintln(out, "Update check skipped, last check was less than", a.settings.UpdateInterval, "ago")
			case result.RemoteVersion != "" && !result.UpdateAvailable:
				fmt.Fprintf(out, "✓ Ultraschall %s is up to date (published: %s)\n", result.LocalVersion, result.RemoteVersion)
			}
			return result.Err
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "check even if the interval has not elapsed")
	return cmd
}

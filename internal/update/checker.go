// Package update checks once per interval whether a newer release has been
// published and notifies the user about it.
//
//	checker := update.NewChecker(props, update.FetcherFunc(client.GetString), notifier, update.Options{
//	    LocalVersion: version.Version,
//	    Logger:       logger,
//	})
//	result := checker.Check(ctx)
package update

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/ultraschall/podcast-tools/internal/notify"
	"github.com/ultraschall/podcast-tools/internal/store"
)

const (
	// LastCheckKey holds the time of the last check in seconds since the
	// Unix epoch.
	LastCheckKey = "last_update_check"

	DefaultURL         = "https://ultraschall.io/ultraschall_release.txt"
	DefaultDownloadURL = "http://ultraschall.fm/download"
	DefaultInterval    = 24 * time.Hour

	notificationTitle = "Ultraschall update"
)

// ErrEmptyVersion is reported when the release document is blank.
var ErrEmptyVersion = errors.New("remote version is empty")

// Fetcher retrieves the release document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) (string, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

// Options configures a Checker. Zero values take the defaults.
type Options struct {
	URL          string
	DownloadURL  string
	Interval     time.Duration
	LocalVersion string
	Now          func() time.Time
	Logger       zerolog.Logger
}

// Result describes one call to Check.
type Result struct {
	// Checked is false when the interval had not elapsed.
	Checked         bool
	LocalVersion    string
	RemoteVersion   string
	UpdateAvailable bool

	// Err collects fetch, notification and store failures. They never
	// abort the check.
	Err error
}

// Checker compares the local version with the published one.
type Checker struct {
	store    store.PropertyStore
	fetcher  Fetcher
	notifier notify.Notifier
	opts     Options
	log      zerolog.Logger

	mu sync.Mutex
}

// NewChecker creates a Checker.
func NewChecker(props store.PropertyStore, fetcher Fetcher, notifier notify.Notifier, opts Options) *Checker {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.DownloadURL == "" {
		opts.DownloadURL = DefaultDownloadURL
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Checker{
		store:    props,
		fetcher:  fetcher,
		notifier: notifier,
		opts:     opts,
		log:      opts.Logger.With().Str("component", "update").Logger(),
	}
}

// Due reports whether the interval since the last check has elapsed. A
// missing or unreadable timestamp is always due.
func (c *Checker) Due() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.due()
}

func (c *Checker) due() bool {
	last, ok := c.lastCheck()
	if !ok {
		return true
	}
	return c.opts.Now().Sub(last) >= c.opts.Interval
}

// lastCheck reads the stored timestamp. Both integer and exponent forms
// such as "1.7e+09" are accepted.
func (c *Checker) lastCheck() (time.Time, bool) {
	if !c.store.Has(LastCheckKey) {
		return time.Time{}, false
	}
	raw := strings.TrimSpace(c.store.Get(LastCheckKey))
	if raw == "" {
		return time.Time{}, false
	}
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		c.log.Warn().Str("value", raw).Msg("ignoring unreadable last check time")
		return time.Time{}, false
	}
	return time.Unix(int64(secs), 0), true
}

// Check fetches the published version when a check is due. The time of
// the check is stored whether or not the fetch succeeds.
func (c *Checker) Check(ctx context.Context) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.due() {
		c.log.Debug().Msg("update check not due")
		return Result{LocalVersion: c.opts.LocalVersion}
	}
	return c.run(ctx)
}

// CheckNow fetches the published version regardless of the interval.
func (c *Checker) CheckNow(ctx context.Context) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.run(ctx)
}

func (c *Checker) run(ctx context.Context) Result {
	result := Result{Checked: true, LocalVersion: c.opts.LocalVersion}
	var errs []error

	remote, err := c.fetcher.Fetch(ctx, c.opts.URL)
	remote = strings.TrimSpace(remote)
	switch {
	case err != nil:
		c.log.Warn().Err(err).Str("url", c.opts.URL).Msg("update check failed")
		errs = append(errs, fmt.Errorf("fetch %s: %w", c.opts.URL, err))
	case remote == "":
		c.log.Warn().Str("url", c.opts.URL).Msg("update check returned no version")
		errs = append(errs, ErrEmptyVersion)
	default:
		result.RemoteVersion = remote
		result.UpdateAvailable = IsNewer(remote, c.opts.LocalVersion)
		c.log.Debug().Str("remote", remote).Str("local", c.opts.LocalVersion).Bool("update", result.UpdateAvailable).Msg("update check done")

		if result.UpdateAvailable {
			if err := c.notifier.Notify(notificationTitle, Message(c.opts.DownloadURL, remote)); err != nil {
				c.log.Warn().Err(err).Msg("failed to show update notification")
				errs = append(errs, fmt.Errorf("notify: %w", err))
			}
		}
	}

	stamp := strconv.FormatInt(c.opts.Now().Unix(), 10)
	if err := c.store.Set(LastCheckKey, stamp); err != nil {
		c.log.Warn().Err(err).Msg("failed to store update check time")
		errs = append(errs, fmt.Errorf("store %s: %w", LastCheckKey, err))
	}

	result.Err = errors.Join(errs...)
	return result
}

// IsNewer reports whether remote sorts after local. Versions are compared
// as plain strings, so "10.0" sorts before "9.0".
func IsNewer(remote, local string) bool {
	return remote > local
}

// Message is the text shown when version is available for download.
func Message(downloadURL, version string) string {
	return fmt.Sprintf("An update for Ultraschall is available. Go to %s to download version %s.", downloadURL, version)
}

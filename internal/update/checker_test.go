package update

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	uhttp "github.com/ultraschall/podcast-tools/internal/http"
	"github.com/ultraschall/podcast-tools/internal/notify"
	"github.com/ultraschall/podcast-tools/internal/store"
)

type fakeFetcher struct {
	version string
	err     error
	calls   int
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.calls++
	return f.version, f.err
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Notify(title, message string) error {
	n.messages = append(n.messages, message)
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestChecker(props store.PropertyStore, f Fetcher, n notify.Notifier, local string) *Checker {
	return NewChecker(props, f, n, Options{
		LocalVersion: local,
		Now:          fixedClock(testNow),
		Logger:       zerolog.Nop(),
	})
}

func TestCheck_NotifiesNewerVersion(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		local      string
		wantNotify bool
	}{
		{"newer", "2.1\n", "2.0", true},
		{"same", "2.0", "2.0", false},
		{"older", "1.9", "2.0", false},
		{"lexicographic", "10.0", "9.0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &recordingNotifier{}
			c := newTestChecker(store.NewMemoryStore(), &fakeFetcher{version: tt.remote}, n, tt.local)

			result := c.Check(context.Background())

			require.NoError(t, result.Err)
			assert.True(t, result.Checked)
			assert.Equal(t, tt.wantNotify, result.UpdateAvailable)
			if tt.wantNotify {
				require.Len(t, n.messages, 1)
				assert.Equal(t, "An update for Ultraschall is available. Go to http://ultraschall.fm/download to download version 2.1.", n.messages[0])
			} else {
				assert.Empty(t, n.messages)
			}
		})
	}
}

func TestCheck_AtMostOneRequestPerInterval(t *testing.T) {
	f := &fakeFetcher{version: "2.0"}
	props := store.NewMemoryStore()
	c := newTestChecker(props, f, &recordingNotifier{}, "2.0")

	first := c.Check(context.Background())
	second := c.Check(context.Background())

	assert.True(t, first.Checked)
	assert.False(t, second.Checked)
	assert.Equal(t, 1, f.calls)
	assert.Equal(t, "1714564800", props.Get(LastCheckKey))
}

func TestCheck_IntervalElapsed(t *testing.T) {
	tests := []struct {
		name      string
		stored    string
		wantFetch bool
	}{
		{"missing", "", true},
		{"garbage", "yesterday", true},
		{"one hour ago", "1714561200", false},
		{"exactly a day ago", "1714478400", true},
		{"two days ago", "1714391600", true},
		{"exponent form", "1.7145612e+09", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			props := store.NewMemoryStore()
			if tt.stored != "" {
				require.NoError(t, props.Set(LastCheckKey, tt.stored))
			}
			f := &fakeFetcher{version: "1.0"}
			c := newTestChecker(props, f, &recordingNotifier{}, "1.0")

			assert.Equal(t, tt.wantFetch, c.Due())
			c.Check(context.Background())
			assert.Equal(t, tt.wantFetch, f.calls == 1)
		})
	}
}

func TestCheck_EmptyStoredTimeIsDue(t *testing.T) {
	for _, stored := range []string{"", "  "} {
		props := store.NewMemoryStore()
		require.NoError(t, props.Set(LastCheckKey, stored))
		require.True(t, props.Has(LastCheckKey))

		f := &fakeFetcher{version: "1.0"}
		c := newTestChecker(props, f, &recordingNotifier{}, "1.0")

		assert.True(t, c.Due(), "stored %q", stored)
		result := c.Check(context.Background())
		assert.True(t, result.Checked)
		assert.Equal(t, 1, f.calls)
		assert.Equal(t, "1714564800", props.Get(LastCheckKey))
	}
}

func TestCheck_FetchFailureStillStoresTime(t *testing.T) {
	props := store.NewMemoryStore()
	n := &recordingNotifier{}
	c := newTestChecker(props, &fakeFetcher{err: errors.New("offline")}, n, "2.0")

	result := c.Check(context.Background())

	assert.True(t, result.Checked)
	assert.Error(t, result.Err)
	assert.False(t, result.UpdateAvailable)
	assert.Empty(t, n.messages)
	assert.Equal(t, "1714564800", props.Get(LastCheckKey))
}

func TestCheck_EmptyVersion(t *testing.T) {
	n := &recordingNotifier{}
	c := newTestChecker(store.NewMemoryStore(), &fakeFetcher{version: " \n"}, n, "2.0")

	result := c.Check(context.Background())

	assert.ErrorIs(t, result.Err, ErrEmptyVersion)
	assert.Empty(t, n.messages)
}

func TestCheckNow_IgnoresInterval(t *testing.T) {
	f := &fakeFetcher{version: "2.0"}
	c := newTestChecker(store.NewMemoryStore(), f, &recordingNotifier{}, "2.0")

	c.Check(context.Background())
	c.CheckNow(context.Background())

	assert.Equal(t, 2, f.calls)
}

func TestCheck_OverHTTP(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte("5.1.0\r\n"))
	}))
	defer srv.Close()

	client := uhttp.NewClient("Ultraschall/test", time.Second)
	n := &recordingNotifier{}
	c := NewChecker(store.NewMemoryStore(), FetcherFunc(client.GetString), n, Options{
		URL:          srv.URL,
		DownloadURL:  "https://example.com/download",
		LocalVersion: "5.0.0",
		Logger:       zerolog.Nop(),
	})

	result := c.Check(context.Background())
	c.Check(context.Background())

	require.NoError(t, result.Err)
	assert.Equal(t, "5.1.0", result.RemoteVersion)
	assert.Equal(t, int32(1), requests.Load())
	require.Len(t, n.messages, 1)
	assert.Contains(t, n.messages[0], "https://example.com/download")
}

func TestIsNewer(t *testing.T) {
	assert.True(t, IsNewer("2.1", "2.0"))
	assert.False(t, IsNewer("2.0", "2.0"))
	assert.False(t, IsNewer("", "2.0"))
}

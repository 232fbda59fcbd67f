package batch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ultraschall/podcast-tools/internal/audio"
	"github.com/ultraschall/podcast-tools/internal/model"
)

// writeTestMP3 writes a tagless MPEG-1 Layer III stream of 24 ms frames.
func writeTestMP3(t *testing.T, dir, name string, frames int) string {
	t.Helper()
	frame := make([]byte, 384)
	copy(frame, []byte{0xFF, 0xFB, 0x94, 0x00})
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, bytes.Repeat(frame, frames), 0644))
	return path
}

func newTestRunner(limit int, events *[]ProgressEvent) *Runner {
	var mu sync.Mutex
	return NewRunner(audio.NewTagger(nil, zerolog.Nop()), limit, zerolog.Nop(), func(e ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()
		*events = append(*events, e)
	})
}

func TestRunner_Run(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeTestMP3(t, dir, "01.mp3", 2500),
		writeTestMP3(t, dir, "02.mp3", 2500),
		writeTestMP3(t, dir, "03.mp3", 2500),
	}

	var events []ProgressEvent
	runner := newTestRunner(2, &events)

	summary, err := runner.Run(context.Background(), paths, Job{
		Properties: "Title\nArtist\nAlbum\n2024\nPodcast\nComment",
		Markers:    []model.Marker{{Name: "Intro", Position: 0}, {Name: "Main", Position: 30}},
	})

	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Empty(t, summary.Failures)

	done, total := runner.Progress()
	assert.Equal(t, int32(3), done)
	assert.Equal(t, int32(3), total)

	for _, path := range paths {
		props, err := audio.ReadProperties(path)
		require.NoError(t, err)
		assert.Equal(t, "Title", props.Title)

		chapters, _, err := audio.ReadChapters(path)
		require.NoError(t, err)
		assert.Len(t, chapters, 2)
	}

	last := events[len(events)-1]
	assert.Equal(t, LevelSuccess, last.Level)
}

func TestRunner_FailureDoesNotStopOthers(t *testing.T) {
	dir := t.TempDir()
	good := writeTestMP3(t, dir, "good.mp3", 100)
	silent := filepath.Join(dir, "silent.mp3")
	require.NoError(t, os.WriteFile(silent, make([]byte, 1024), 0644))

	var events []ProgressEvent
	summary, err := newTestRunner(1, &events).Run(context.Background(), []string{silent, good}, Job{
		Markers: []model.Marker{{Name: "Only", Position: 0}},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, silent, summary.Failures[0].Path)
	assert.ErrorIs(t, summary.Failures[0].Err, audio.ErrNoDuration)

	var sawError bool
	for _, e := range events {
		if e.Level == LevelError && e.Path == silent {
			sawError = true
		}
	}
	assert.True(t, sawError)
}

func TestRunner_Backup(t *testing.T) {
	dir := t.TempDir()
	path := writeTestMP3(t, dir, "episode.mp3", 10)
	original, err := os.ReadFile(path)
	require.NoError(t, err)

	var events []ProgressEvent
	_, err = newTestRunner(1, &events).Run(context.Background(), []string{path}, Job{
		Backup:     true,
		Properties: "T\nA\nB\nD\nG\nC",
	})
	require.NoError(t, err)

	backup, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, original, backup)
}

func TestRunner_Canceled(t *testing.T) {
	dir := t.TempDir()
	path := writeTestMP3(t, dir, "episode.mp3", 10)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	var events []ProgressEvent
	summary, err := newTestRunner(1, &events).Run(ctx, []string{path}, Job{Properties: "T\nA\nB\nD\nG\nC"})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, summary.Succeeded)
}

func TestJob_Empty(t *testing.T) {
	assert.True(t, Job{Backup: true}.Empty())
	assert.False(t, Job{Remove: []string{audio.FrameComment}}.Empty())
}

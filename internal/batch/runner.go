// Package batch applies one tagging job to many MP3 files concurrently.
package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/ultraschall/podcast-tools/internal/audio"
	ioutils "github.com/ultraschall/podcast-tools/internal/io"
	"github.com/ultraschall/podcast-tools/internal/model"
	"golang.org/x/sync/errgroup"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a batch progress update.
type ProgressEvent struct {
	Path    string
	Message string
	Level   ProgressLevel
}

// Job lists the edits applied to every file. Empty fields are skipped.
// Edits run in field order.
type Job struct {
	// Backup copies each file to <name>.bak before it is changed.
	Backup bool

	// Remove lists frame ids to delete.
	Remove []string

	// Properties holds six newline separated fields.
	Properties string

	// Cover is encoded JPEG or PNG data.
	Cover []byte

	// Markers become the chapters of each file.
	Markers []model.Marker
}

// Empty reports whether the job has nothing to do.
func (j Job) Empty() bool {
	return len(j.Remove) == 0 && j.Properties == "" && len(j.Cover) == 0 && len(j.Markers) == 0
}

// Failure records a file that could not be processed.
type Failure struct {
	Path string
	Err  error
}

// Summary is the outcome of Run.
type Summary struct {
	Total     int
	Succeeded int
	Failures  []Failure
}

// Runner coordinates tagging of many files.
//
// A failing file never stops the other files. onProgress is called from
// several goroutines at once.
type Runner struct {
	tagger     *audio.Tagger
	limit      int
	log        zerolog.Logger
	onProgress func(ProgressEvent)

	total int32
	done  int32
}

// NewRunner creates a Runner processing at most limit files at a time.
func NewRunner(tagger *audio.Tagger, limit int, log zerolog.Logger, onProgress func(ProgressEvent)) *Runner {
	if limit < 1 {
		limit = 1
	}
	return &Runner{
		tagger:     tagger,
		limit:      limit,
		log:        log.With().Str("component", "batch").Logger(),
		onProgress: onProgress,
	}
}

// Run applies job to every path. It returns an error only when ctx ends
// before all files were processed.
func (r *Runner) Run(ctx context.Context, paths []string, job Job) (Summary, error) {
	atomic.StoreInt32(&r.total, int32(len(paths)))
	atomic.StoreInt32(&r.done, 0)

	var (
		mu      sync.Mutex
		summary = Summary{Total: len(paths)}
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.limit)

	for _, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			err := r.processFile(ctx, path, job)
			atomic.AddInt32(&r.done, 1)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Failures = append(summary.Failures, Failure{Path: path, Err: err})
				r.progress(ProgressEvent{Path: path, Message: fmt.Sprintf("Error tagging %s: %v", filepath.Base(path), err), Level: LevelError})
				return nil // Continue with other files
			}
			summary.Succeeded++
			r.progress(ProgressEvent{Path: path, Message: fmt.Sprintf("Tagged: %s", filepath.Base(path)), Level: LevelSuccess})
			return nil
		})
	}

	err := g.Wait()

	sort.Slice(summary.Failures, func(i, j int) bool {
		return summary.Failures[i].Path < summary.Failures[j].Path
	})

	if len(summary.Failures) == 0 && err == nil {
		r.progress(ProgressEvent{Message: fmt.Sprintf("Successfully tagged %d files", summary.Succeeded), Level: LevelSuccess})
	} else if err == nil {
		r.progress(ProgressEvent{Message: fmt.Sprintf("Finished, %d of %d files failed", len(summary.Failures), summary.Total), Level: LevelWarning})
	}

	r.log.Info().Int("total", summary.Total).Int("succeeded", summary.Succeeded).Int("failed", len(summary.Failures)).Msg("batch finished")
	return summary, err
}

// Progress returns the number of processed files and the total.
func (r *Runner) Progress() (done, total int32) {
	return atomic.LoadInt32(&r.done), atomic.LoadInt32(&r.total)
}

func (r *Runner) processFile(ctx context.Context, path string, job Job) error {
	r.progress(ProgressEvent{Path: path, Message: fmt.Sprintf("Processing: %s", filepath.Base(path)), Level: LevelVerbose})

	if job.Backup {
		backup, err := ioutils.Backup(ctx, path)
		if err != nil {
			return err
		}
		r.progress(ProgressEvent{Path: path, Message: fmt.Sprintf("Backup written to %s", backup), Level: LevelVerbose})
	}

	for _, id := range job.Remove {
		if err := audio.RemoveMP3Frames(path, id); err != nil {
			return fmt.Errorf("remove %s: %w", id, err)
		}
	}

	if job.Properties != "" {
		if err := r.tagger.InsertProperties(path, job.Properties); err != nil {
			return fmt.Errorf("properties: %w", err)
		}
	}

	if len(job.Cover) > 0 {
		if err := r.tagger.InsertCoverData(path, job.Cover); err != nil {
			return fmt.Errorf("cover: %w", err)
		}
	}

	if len(job.Markers) > 0 {
		if err := r.tagger.InsertChapters(path, job.Markers); err != nil {
			return fmt.Errorf("chapters: %w", err)
		}
	}

	return nil
}

func (r *Runner) progress(event ProgressEvent) {
	if r.onProgress != nil {
		r.onProgress(event)
	}
}

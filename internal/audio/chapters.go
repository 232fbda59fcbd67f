package audio

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/bogem/id3v2/v2"
	"github.com/ultraschall/podcast-tools/internal/model"
)

const (
	// TableOfContentsID is the element id of the CTOC frame.
	TableOfContentsID = "toc"

	// TableOfContentsTitle is the embedded title of the CTOC frame.
	TableOfContentsTitle = "toplevel toc"

	// ignoredOffset marks the byte offsets of a CHAP frame as unused.
	ignoredOffset uint32 = 0xFFFFFFFF
)

// Chapter is a chapter read back from a CHAP frame.
type Chapter struct {
	ElementID string
	Title     string
	Start     time.Duration
	End       time.Duration
}

// Marker converts the chapter back into the marker it was built from.
func (c Chapter) Marker() model.Marker {
	return model.Marker{Name: c.Title, Position: c.Start.Seconds()}
}

// chapterElementID returns the element id of the i-th chapter.
func chapterElementID(i int) string {
	return "chp" + strconv.Itoa(i)
}

func millisDuration(ms uint32) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// BuildChapters turns markers into CHAP frames. Each chapter starts at its
// marker and ends where the next one starts. The last chapter ends at
// totalMillis. Markers are used in the given order.
func BuildChapters(markers []model.Marker, totalMillis uint32) []id3v2.ChapterFrame {
	chapters := make([]id3v2.ChapterFrame, 0, len(markers))
	for i, m := range markers {
		end := totalMillis
		if i < len(markers)-1 {
			end = markers[i+1].StartMillis()
		}

		chapters = append(chapters, id3v2.ChapterFrame{
			ElementID:   chapterElementID(i),
			StartTime:   millisDuration(m.StartMillis()),
			EndTime:     millisDuration(end),
			StartOffset: ignoredOffset,
			EndOffset:   ignoredOffset,
			Title: &id3v2.TextFrame{
				Encoding: id3v2.EncodingUTF16,
				Text:     m.Name,
			},
		})
	}
	return chapters
}

// BuildTableOfContents returns the top-level, ordered CTOC frame listing
// chapters in order.
func BuildTableOfContents(chapters []id3v2.ChapterFrame) TableOfContentsFrame {
	children := make([]string, len(chapters))
	for i, c := range chapters {
		children[i] = c.ElementID
	}
	return TableOfContentsFrame{
		ElementID: TableOfContentsID,
		TopLevel:  true,
		Ordered:   true,
		Children:  children,
		Title: &id3v2.TextFrame{
			Encoding: id3v2.EncodingUTF16,
			Text:     TableOfContentsTitle,
		},
	}
}

// ReadChapters reads the chapters and the first table of contents stored
// in the file at path. Chapters are sorted by start time. The table of
// contents is nil when the file has none.
func ReadChapters(path string) ([]Chapter, *TableOfContentsFrame, error) {
	if path == "" {
		return nil, nil, ErrEmptyPath
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer tag.Close()

	var chapters []Chapter
	for _, f := range tag.GetFrames(FrameChapter) {
		cf, err := asChapterFrame(f)
		if err != nil {
			return nil, nil, err
		}
		c := Chapter{
			ElementID: cf.ElementID,
			Start:     cf.StartTime,
			End:       cf.EndTime,
		}
		if cf.Title != nil {
			c.Title = cf.Title.Text
		}
		chapters = append(chapters, c)
	}
	sort.SliceStable(chapters, func(i, j int) bool {
		return chapters[i].Start < chapters[j].Start
	})

	var toc *TableOfContentsFrame
	for _, f := range tag.GetFrames(FrameTableOfContents) {
		t, err := asTableOfContents(f)
		if err != nil {
			return nil, nil, err
		}
		toc = &t
		break
	}

	return chapters, toc, nil
}

func asChapterFrame(f id3v2.Framer) (id3v2.ChapterFrame, error) {
	switch v := f.(type) {
	case id3v2.ChapterFrame:
		return v, nil
	case *id3v2.ChapterFrame:
		return *v, nil
	case id3v2.UnknownFrame:
		return parseChapterBody(v.Body)
	case *id3v2.UnknownFrame:
		return parseChapterBody(v.Body)
	default:
		return id3v2.ChapterFrame{}, fmt.Errorf("unexpected CHAP frame type %T", f)
	}
}

func asTableOfContents(f id3v2.Framer) (TableOfContentsFrame, error) {
	switch v := f.(type) {
	case TableOfContentsFrame:
		return v, nil
	case id3v2.UnknownFrame:
		return ParseTableOfContents(v.Body)
	case *id3v2.UnknownFrame:
		return ParseTableOfContents(v.Body)
	default:
		return TableOfContentsFrame{}, fmt.Errorf("unexpected CTOC frame type %T", f)
	}
}

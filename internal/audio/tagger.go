package audio

import (
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/bogem/id3v2/v2"
	"github.com/rs/zerolog"
	"github.com/ultraschall/podcast-tools/internal/model"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

var (
	// ErrEmptyPath is returned when a required path argument is empty.
	ErrEmptyPath = errors.New("empty path")

	// ErrNoMarkers is returned by InsertChapters for an empty marker list.
	ErrNoMarkers = errors.New("no markers")

	// ErrNoDuration is returned by InsertChapters when the audio length of
	// the file cannot be determined.
	ErrNoDuration = errors.New("could not determine audio duration")

	// ErrUnknownImageType is returned when cover data is neither JPEG nor PNG.
	ErrUnknownImageType = errors.New("unknown image type")

	// ErrTooManyChapters is returned when the markers do not fit into one
	// table of contents.
	ErrTooManyChapters = errors.New("too many chapters for one table of contents")
)

// TagEditAction defines how an empty property field is applied.
type TagEditAction int

const (
	// TagEmpty removes the frame.
	TagEmpty TagEditAction = iota

	// TagModify writes the frame with an empty value.
	TagModify

	// TagDoNotModify leaves the existing frame unchanged.
	TagDoNotModify
)

// String returns the configuration name of the action.
func (a TagEditAction) String() string {
	switch a {
	case TagEmpty:
		return "empty"
	case TagModify:
		return "modify"
	default:
		return "keep"
	}
}

// ParseTagEditAction parses a configuration name as returned by String.
func ParseTagEditAction(s string) (TagEditAction, error) {
	switch s {
	case "empty":
		return TagEmpty, nil
	case "modify":
		return TagModify, nil
	case "keep", "":
		return TagDoNotModify, nil
	default:
		return TagDoNotModify, fmt.Errorf("unknown tag edit action %q", s)
	}
}

// TagConfig holds tagging configuration.
//
// Example:
//
//	cfg := &TagConfig{
//	    EmptyField:       TagEmpty,           // Clear frames for empty fields
//	    LegacyCharset:    charmap.ISO8859_15, // Input that is not UTF-8
//	    CoverDescription: "Cover",
//	}
type TagConfig struct {
	// EmptyField controls what happens to the frame of an empty property
	// field.
	EmptyField TagEditAction

	// LegacyCharset decodes input text that is not valid UTF-8.
	LegacyCharset encoding.Encoding

	// CoverDescription is the description of the APIC frame.
	CoverDescription string
}

// DefaultTagConfig returns the default tag configuration.
//
// Empty fields leave existing frames alone, and input that is not UTF-8 is
// read as Windows-1252.
func DefaultTagConfig() *TagConfig {
	return &TagConfig{
		EmptyField:       TagDoNotModify,
		LegacyCharset:    charmap.Windows1252,
		CoverDescription: "Cover",
	}
}

// Tagger writes ID3v2 tags to MP3 files.
//
// Each public method opens the file, edits the frames in memory and saves
// once. Text frames are written as UTF-16 with a byte order mark.
//
// Example:
//
//	tagger := NewTagger(DefaultTagConfig(), logger)
//	if err := tagger.InsertChapters(path, markers); err != nil {
//	    logger.Error().Err(err).Str("path", path).Msg("failed to write chapters")
//	}
type Tagger struct {
	config *TagConfig
	log    zerolog.Logger
}

// NewTagger creates a new Tagger with the given configuration.
//
// If config is nil, DefaultTagConfig() is used.
func NewTagger(config *TagConfig, log zerolog.Logger) *Tagger {
	if config == nil {
		config = DefaultTagConfig()
	}
	if config.LegacyCharset == nil {
		config.LegacyCharset = charmap.Windows1252
	}
	return &Tagger{
		config: config,
		log:    log.With().Str("component", "tagger").Logger(),
	}
}

// InsertProperties writes six newline-separated fields to the file at
// path: title, artist, album, date, genre and comment.
//
// The file is not touched when path is empty or the field count is wrong.
func (t *Tagger) InsertProperties(path, properties string) error {
	if path == "" {
		return ErrEmptyPath
	}

	props, err := model.ParseProperties(t.decodeText(properties))
	if err != nil {
		return err
	}

	tag, err := openTag(path)
	if err != nil {
		return err
	}
	defer tag.Close()

	t.updateTextFrames(tag, props)
	t.updateComment(tag, props.Comment)

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}

	t.log.Debug().Str("path", path).Str("title", props.Title).Msg("wrote properties")
	return nil
}

// updateTextFrames replaces the text frames of tag with the property values.
func (t *Tagger) updateTextFrames(tag *id3v2.Tag, props *model.Properties) {
	fields := []struct {
		id    string
		value string
	}{
		{FrameTitle, props.Title},
		{FrameArtist, props.Artist},
		{FrameAlbum, props.Album},
		{FrameDate, props.Date},
		{FrameGenre, props.Genre},
	}

	for _, f := range fields {
		if f.value == "" {
			switch t.config.EmptyField {
			case TagDoNotModify:
				continue
			case TagEmpty:
				RemoveMultipleFrames(tag, f.id)
				continue
			}
		}

		RemoveMultipleFrames(tag, f.id)
		tag.AddTextFrame(f.id, id3v2.EncodingUTF16, f.value)
	}
}

// updateComment replaces the comment frames of tag.
func (t *Tagger) updateComment(tag *id3v2.Tag, text string) {
	if text == "" {
		switch t.config.EmptyField {
		case TagDoNotModify:
			return
		case TagEmpty:
			RemoveMultipleFrames(tag, FrameComment)
			return
		}
	}

	RemoveMultipleFrames(tag, FrameComment)
	tag.AddCommentFrame(id3v2.CommentFrame{
		Encoding:    id3v2.EncodingUTF16,
		Language:    "eng",
		Description: "",
		Text:        text,
	})
}

// InsertCover embeds the image at imagePath as front cover of the file at
// path. Existing pictures are removed first.
func (t *Tagger) InsertCover(path, imagePath string) error {
	if path == "" || imagePath == "" {
		return ErrEmptyPath
	}

	if err := RemoveMP3Frames(path, FramePicture); err != nil {
		return err
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("read cover: %w", err)
	}
	return t.attachCover(path, data)
}

// InsertCoverData embeds image bytes as front cover of the file at path.
// Existing pictures are removed first.
func (t *Tagger) InsertCoverData(path string, data []byte) error {
	if path == "" {
		return ErrEmptyPath
	}

	if err := RemoveMP3Frames(path, FramePicture); err != nil {
		return err
	}
	return t.attachCover(path, data)
}

func (t *Tagger) attachCover(path string, data []byte) error {
	mimeType := QueryMIMEType(data)
	if mimeType == "" {
		return ErrUnknownImageType
	}

	tag, err := openTag(path)
	if err != nil {
		return err
	}
	defer tag.Close()

	tag.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    id3v2.EncodingISO,
		MimeType:    mimeType,
		PictureType: id3v2.PTFrontCover,
		Description: t.config.CoverDescription,
		Picture:     data,
	})

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}

	t.log.Debug().Str("path", path).Str("mime", mimeType).Int("bytes", len(data)).Msg("wrote cover")
	return nil
}

// InsertChapters replaces the chapters of the file at path with one CHAP
// frame per marker and a table of contents listing them in order.
func (t *Tagger) InsertChapters(path string, markers []model.Marker) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(markers) == 0 {
		return ErrNoMarkers
	}
	if len(markers) > maxTOCEntries {
		return ErrTooManyChapters
	}

	total := QueryTargetDuration(path)
	if total == 0 {
		return ErrNoDuration
	}

	decoded := make([]model.Marker, len(markers))
	for i, m := range markers {
		decoded[i] = model.Marker{Name: t.decodeText(m.Name), Position: m.Position}
	}
	chapters := BuildChapters(decoded, total)

	tag, err := openTag(path)
	if err != nil {
		return err
	}
	defer tag.Close()

	RemoveMultipleFrames(tag, FrameChapter)
	for _, c := range chapters {
		tag.AddFrame(FrameChapter, c)
	}

	RemoveMultipleFrames(tag, FrameTableOfContents)
	tag.AddFrame(FrameTableOfContents, BuildTableOfContents(chapters))

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}

	t.log.Debug().Str("path", path).Int("chapters", len(chapters)).Uint32("duration_ms", total).Msg("wrote chapters")
	return nil
}

// decodeText returns s as UTF-8. Input that is not valid UTF-8 is decoded
// with the legacy charset.
func (t *Tagger) decodeText(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	decoded, err := t.config.LegacyCharset.NewDecoder().String(s)
	if err != nil {
		t.log.Warn().Err(err).Msg("could not decode legacy text")
		return s
	}
	return decoded
}

// ReadProperties reads the six property fields from the file at path.
func ReadProperties(path string) (*model.Properties, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer tag.Close()

	props := &model.Properties{
		Title:  tag.GetTextFrame(FrameTitle).Text,
		Artist: tag.GetTextFrame(FrameArtist).Text,
		Album:  tag.GetTextFrame(FrameAlbum).Text,
		Date:   tag.GetTextFrame(FrameDate).Text,
		Genre:  tag.GetTextFrame(FrameGenre).Text,
	}
	for _, f := range tag.GetFrames(FrameComment) {
		if cf, ok := f.(id3v2.CommentFrame); ok {
			props.Comment = cf.Text
			break
		}
	}
	return props, nil
}

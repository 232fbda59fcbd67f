package audio

import (
	"bytes"
	"testing"
	"time"

	"github.com/bogem/id3v2/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableOfContentsFrame_Layout(t *testing.T) {
	toc := TableOfContentsFrame{
		ElementID: "toc",
		TopLevel:  true,
		Ordered:   true,
		Children:  []string{"chp0", "chp1"},
	}

	var buf bytes.Buffer
	n, err := toc.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(toc.Size()), n)

	want := []byte("toc\x00\x03\x02chp0\x00chp1\x00")
	assert.Equal(t, want, buf.Bytes())
}

func TestTableOfContentsFrame_RoundTrip(t *testing.T) {
	chapters := BuildChapters(nil, 0)
	assert.Empty(t, chapters)

	toc := BuildTableOfContents([]id3v2.ChapterFrame{{ElementID: "chp0"}, {ElementID: "chp1"}, {ElementID: "chp2"}})

	var buf bytes.Buffer
	_, err := toc.WriteTo(&buf)
	require.NoError(t, err)

	parsed, err := ParseTableOfContents(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "toc", parsed.ElementID)
	assert.True(t, parsed.TopLevel)
	assert.True(t, parsed.Ordered)
	assert.Equal(t, []string{"chp0", "chp1", "chp2"}, parsed.Children)
	require.NotNil(t, parsed.Title)
	assert.Equal(t, TableOfContentsTitle, parsed.Title.Text)
}

func TestTableOfContentsFrame_TooManyChildren(t *testing.T) {
	toc := TableOfContentsFrame{ElementID: "toc", Children: make([]string, maxTOCEntries+1)}

	var buf bytes.Buffer
	n, err := toc.WriteTo(&buf)
	assert.ErrorIs(t, err, ErrTooManyChapters)
	assert.Zero(t, n)
	assert.Zero(t, buf.Len())
	assert.Zero(t, toc.Size())
}

func TestParseTableOfContents_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body []byte
	}{
		{"empty", nil},
		{"no terminator", []byte("toc")},
		{"missing count", []byte("toc\x00\x03")},
		{"short children", []byte("toc\x00\x03\x02chp0\x00chp1")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTableOfContents(tt.body)
			assert.ErrorIs(t, err, errMalformedFrame)
		})
	}
}

func TestParseChapterBody(t *testing.T) {
	cf := id3v2.ChapterFrame{
		ElementID:   "chp3",
		StartTime:   1500 * time.Millisecond,
		EndTime:     4 * time.Second,
		StartOffset: ignoredOffset,
		EndOffset:   ignoredOffset,
		Title:       &id3v2.TextFrame{Encoding: id3v2.EncodingUTF16, Text: "Übersicht"},
	}

	var body bytes.Buffer
	body.WriteString(cf.ElementID)
	body.WriteByte(0)
	body.Write([]byte{0, 0, 0x05, 0xDC, 0, 0, 0x0F, 0xA0, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})
	require.NoError(t, writeEmbeddedFrame(&body, FrameTitle, *cf.Title))

	parsed, err := parseChapterBody(body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, cf.ElementID, parsed.ElementID)
	assert.Equal(t, cf.StartTime, parsed.StartTime)
	assert.Equal(t, cf.EndTime, parsed.EndTime)
	assert.Equal(t, ignoredOffset, parsed.StartOffset)
	require.NotNil(t, parsed.Title)
	assert.Equal(t, "Übersicht", parsed.Title.Text)
	assert.Nil(t, parsed.Description)
}

func TestParseTextFrameBody(t *testing.T) {
	tests := []struct {
		name string
		body []byte
		want string
	}{
		{"iso-8859-1", []byte{0, 'C', 'a', 'f', 0xE9, 0}, "Café"},
		{"utf-16 le bom", []byte{1, 0xFF, 0xFE, 'H', 0, 'i', 0, 0, 0}, "Hi"},
		{"utf-16 be bom", []byte{1, 0xFE, 0xFF, 0, 'H', 0, 'i'}, "Hi"},
		{"utf-16be", []byte{2, 0, 'O', 0, 'K', 0, 0}, "OK"},
		{"utf-8", []byte{3, 0xC3, 0xA4, 0}, "ä"},
		{"first of many", []byte{3, 'a', 0, 'b'}, "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tf, err := parseTextFrameBody(tt.body)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tf.Text)
		})
	}

	_, err := parseTextFrameBody([]byte{9, 'x'})
	assert.ErrorIs(t, err, errMalformedFrame)
}

func TestParseEmbeddedFrames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeEmbeddedFrame(&buf, FrameTitle, id3v2.TextFrame{Encoding: id3v2.EncodingUTF8, Text: "first"}))
	require.NoError(t, writeEmbeddedFrame(&buf, FrameTitle, id3v2.TextFrame{Encoding: id3v2.EncodingUTF8, Text: "second"}))
	require.NoError(t, writeEmbeddedFrame(&buf, "TIT3", id3v2.TextFrame{Encoding: id3v2.EncodingUTF8, Text: "desc"}))
	buf.Write(make([]byte, 8))

	frames := parseEmbeddedFrames(buf.Bytes())
	require.Len(t, frames, 2)

	title, err := parseTextFrameBody(frames[FrameTitle])
	require.NoError(t, err)
	assert.Equal(t, "first", title.Text)
}

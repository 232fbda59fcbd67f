package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/bogem/id3v2/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

const (
	tocFlagTopLevel = 0x02
	tocFlagOrdered  = 0x01

	// maxTOCEntries is the largest child count the one-byte entry
	// counter of a CTOC frame can hold.
	maxTOCEntries = 255

	frameHeaderSize = 10
)

var errMalformedFrame = errors.New("malformed frame")

// TableOfContentsFrame is a CTOC frame as defined by the ID3v2 chapter
// addendum. It lists the element ids of CHAP frames and carries an
// optional embedded title.
type TableOfContentsFrame struct {
	ElementID string
	TopLevel  bool
	Ordered   bool
	Children  []string
	Title     *id3v2.TextFrame
}

// UniqueIdentifier returns the element id, so that several tables of
// contents can coexist in one tag.
func (tf TableOfContentsFrame) UniqueIdentifier() string {
	return tf.ElementID
}

// Size returns the length of the encoded frame body. It is 0 when the body
// cannot be encoded; WriteTo reports the error.
func (tf TableOfContentsFrame) Size() int {
	body, err := tf.body()
	if err != nil {
		return 0
	}
	return len(body)
}

// WriteTo writes the frame body to w. It fails with ErrTooManyChapters when
// Children does not fit the one-byte entry count.
func (tf TableOfContentsFrame) WriteTo(w io.Writer) (int64, error) {
	body, err := tf.body()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(body)
	return int64(n), err
}

func (tf TableOfContentsFrame) body() ([]byte, error) {
	if len(tf.Children) > maxTOCEntries {
		return nil, ErrTooManyChapters
	}

	var buf bytes.Buffer

	buf.WriteString(tf.ElementID)
	buf.WriteByte(0)

	var flags byte
	if tf.TopLevel {
		flags |= tocFlagTopLevel
	}
	if tf.Ordered {
		flags |= tocFlagOrdered
	}
	buf.WriteByte(flags)
	buf.WriteByte(byte(len(tf.Children)))

	for _, child := range tf.Children {
		buf.WriteString(child)
		buf.WriteByte(0)
	}

	if tf.Title != nil {
		if err := writeEmbeddedFrame(&buf, FrameTitle, *tf.Title); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// writeEmbeddedFrame appends a complete frame (header and body) to buf.
// Sizes are written as ID3v2.4 synchsafe integers.
func writeEmbeddedFrame(buf *bytes.Buffer, id string, f id3v2.Framer) error {
	var body bytes.Buffer
	if _, err := f.WriteTo(&body); err != nil {
		return fmt.Errorf("write %s subframe: %w", id, err)
	}

	buf.WriteString(id)
	buf.Write(synchsafe(uint32(body.Len())))
	buf.Write([]byte{0, 0})
	buf.Write(body.Bytes())
	return nil
}

func synchsafe(n uint32) []byte {
	return []byte{
		byte(n>>21) & 0x7F,
		byte(n>>14) & 0x7F,
		byte(n>>7) & 0x7F,
		byte(n) & 0x7F,
	}
}

// ParseTableOfContents decodes the body of a CTOC frame.
func ParseTableOfContents(body []byte) (TableOfContentsFrame, error) {
	var toc TableOfContentsFrame

	id, rest, ok := bytes.Cut(body, []byte{0})
	if !ok || len(rest) < 2 {
		return toc, fmt.Errorf("CTOC: %w", errMalformedFrame)
	}
	toc.ElementID = string(id)
	toc.TopLevel = rest[0]&tocFlagTopLevel != 0
	toc.Ordered = rest[0]&tocFlagOrdered != 0

	count := int(rest[1])
	rest = rest[2:]
	toc.Children = make([]string, 0, count)
	for i := 0; i < count; i++ {
		var child []byte
		child, rest, ok = bytes.Cut(rest, []byte{0})
		if !ok {
			return toc, fmt.Errorf("CTOC entry %d: %w", i, errMalformedFrame)
		}
		toc.Children = append(toc.Children, string(child))
	}

	if title, ok := parseEmbeddedFrames(rest)[FrameTitle]; ok {
		tf, err := parseTextFrameBody(title)
		if err != nil {
			return toc, fmt.Errorf("CTOC title: %w", err)
		}
		toc.Title = &tf
	}
	return toc, nil
}

// parseChapterBody decodes the body of a CHAP frame. It is used when the
// library hands a chapter back as an unknown frame.
func parseChapterBody(body []byte) (id3v2.ChapterFrame, error) {
	var cf id3v2.ChapterFrame

	id, rest, ok := bytes.Cut(body, []byte{0})
	if !ok || len(rest) < 16 {
		return cf, fmt.Errorf("CHAP: %w", errMalformedFrame)
	}
	cf.ElementID = string(id)
	cf.StartTime = millisDuration(binary.BigEndian.Uint32(rest[0:4]))
	cf.EndTime = millisDuration(binary.BigEndian.Uint32(rest[4:8]))
	cf.StartOffset = binary.BigEndian.Uint32(rest[8:12])
	cf.EndOffset = binary.BigEndian.Uint32(rest[12:16])

	subframes := parseEmbeddedFrames(rest[16:])
	if title, ok := subframes[FrameTitle]; ok {
		tf, err := parseTextFrameBody(title)
		if err != nil {
			return cf, fmt.Errorf("CHAP title: %w", err)
		}
		cf.Title = &tf
	}
	if desc, ok := subframes["TIT3"]; ok {
		tf, err := parseTextFrameBody(desc)
		if err != nil {
			return cf, fmt.Errorf("CHAP description: %w", err)
		}
		cf.Description = &tf
	}
	return cf, nil
}

// parseEmbeddedFrames splits a run of frames into bodies keyed by frame
// id. Only the first frame of each id is kept. Parsing stops at padding or
// at a frame that overruns data.
func parseEmbeddedFrames(data []byte) map[string][]byte {
	frames := make(map[string][]byte)
	for len(data) >= frameHeaderSize {
		if data[0] == 0 {
			break
		}
		id := string(data[:4])
		size := frameSize(data[4:8])
		if size > len(data)-frameHeaderSize {
			break
		}
		if _, seen := frames[id]; !seen {
			frames[id] = data[frameHeaderSize : frameHeaderSize+size]
		}
		data = data[frameHeaderSize+size:]
	}
	return frames
}

// frameSize reads a frame size written either as a synchsafe integer
// (ID3v2.4) or as a plain big-endian integer (ID3v2.3).
func frameSize(b []byte) int {
	for _, c := range b {
		if c&0x80 != 0 {
			return int(binary.BigEndian.Uint32(b))
		}
	}
	return int(b[0])<<21 | int(b[1])<<14 | int(b[2])<<7 | int(b[3])
}

// textEncodings maps ID3v2 encoding keys to the library encodings.
var textEncodings = map[byte]id3v2.Encoding{
	0: id3v2.EncodingISO,
	1: id3v2.EncodingUTF16,
	2: id3v2.EncodingUTF16BE,
	3: id3v2.EncodingUTF8,
}

// parseTextFrameBody decodes a text frame body: one encoding byte followed
// by the encoded text. Only the first string of a multi-value frame is
// returned.
func parseTextFrameBody(body []byte) (id3v2.TextFrame, error) {
	if len(body) == 0 {
		return id3v2.TextFrame{}, errMalformedFrame
	}
	key := body[0]
	enc, ok := textEncodings[key]
	if !ok {
		return id3v2.TextFrame{}, fmt.Errorf("unknown text encoding %d: %w", key, errMalformedFrame)
	}

	raw := body[1:]
	var dec encoding.Encoding
	switch key {
	case 0:
		raw, _, _ = bytes.Cut(raw, []byte{0})
		dec = charmap.ISO8859_1
	case 1:
		raw = cutUTF16(raw)
		dec = unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)
	case 2:
		raw = cutUTF16(raw)
		dec = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	case 3:
		raw, _, _ = bytes.Cut(raw, []byte{0})
		return id3v2.TextFrame{Encoding: enc, Text: string(raw)}, nil
	}

	text, err := dec.NewDecoder().Bytes(raw)
	if err != nil {
		return id3v2.TextFrame{}, fmt.Errorf("decode text: %w", err)
	}
	return id3v2.TextFrame{Encoding: enc, Text: string(text)}, nil
}

// cutUTF16 returns raw up to the first aligned two-byte terminator.
func cutUTF16(raw []byte) []byte {
	for i := 0; i+1 < len(raw); i += 2 {
		if raw[i] == 0 && raw[i+1] == 0 {
			return raw[:i]
		}
	}
	return raw[:len(raw)&^1]
}

package audio

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// testFrameHeader is MPEG-1 Layer III, 128 kbit/s, 48 kHz, no padding:
// 384 bytes and 24 ms per frame.
var testFrameHeader = []byte{0xFF, 0xFB, 0x94, 0x00}

const (
	testFrameSize     = 384
	testFrameDuration = 24 * time.Millisecond
)

// testMP3 returns a tagless MPEG stream of the given length.
func testMP3(length time.Duration) []byte {
	frame := make([]byte, testFrameSize)
	copy(frame, testFrameHeader)
	return bytes.Repeat(frame, int(length/testFrameDuration))
}

// writeTestMP3 writes a tagless MPEG stream of the given length to a
// temporary file and returns its path.
func writeTestMP3(t *testing.T, length time.Duration) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "episode.mp3")
	require.NoError(t, os.WriteFile(path, testMP3(length), 0644))
	return path
}

func writeTestFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func newTestTagger(cfg *TagConfig) *Tagger {
	return NewTagger(cfg, zerolog.Nop())
}

var (
	testJPEG = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01}
	testPNG  = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D}
)

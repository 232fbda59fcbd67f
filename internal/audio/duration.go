package audio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"
)

// ErrNoAudioFrames is returned when a file carries no MPEG audio frames.
var ErrNoAudioFrames = errors.New("no MPEG audio frames found")

const (
	mpeg25 = 0
	mpeg2  = 2
	mpeg1  = 3

	layer3 = 1
	layer2 = 2
	layer1 = 3
)

// Bitrates in kbit/s indexed by the 4-bit bitrate index.
var (
	bitratesV1L1  = [16]int{0, 32, 64, 96, 128, 160, 192, 224, 256, 288, 320, 352, 384, 416, 448, 0}
	bitratesV1L2  = [16]int{0, 32, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384, 0}
	bitratesV1L3  = [16]int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0}
	bitratesV2L1  = [16]int{0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256, 0}
	bitratesV2L23 = [16]int{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0}
)

var sampleRates = map[int][3]int{
	mpeg1:  {44100, 48000, 32000},
	mpeg2:  {22050, 24000, 16000},
	mpeg25: {11025, 12000, 8000},
}

// frameHeader is a decoded 4-byte MPEG audio frame header.
type frameHeader struct {
	version    int
	layer      int
	bitrate    int // bit/s
	sampleRate int
	padding    bool
	mono       bool
}

// parseFrameHeader decodes b as an MPEG audio frame header. Free-format
// and reserved values are rejected.
func parseFrameHeader(b []byte) (frameHeader, bool) {
	header := binary.BigEndian.Uint32(b)
	if header&0xFFE00000 != 0xFFE00000 {
		return frameHeader{}, false
	}

	h := frameHeader{
		version: int(header>>19) & 0x3,
		layer:   int(header>>17) & 0x3,
		padding: (header>>9)&0x1 == 1,
		mono:    (header>>6)&0x3 == 3,
	}
	if h.version == 1 || h.layer == 0 {
		return frameHeader{}, false
	}

	rateIdx := int(header>>10) & 0x3
	if rateIdx == 3 {
		return frameHeader{}, false
	}
	h.sampleRate = sampleRates[h.version][rateIdx]

	kbps := bitrateTable(h.version, h.layer)[int(header>>12)&0xF]
	if kbps == 0 {
		return frameHeader{}, false
	}
	h.bitrate = kbps * 1000
	return h, true
}

func bitrateTable(version, layer int) [16]int {
	if version == mpeg1 {
		switch layer {
		case layer1:
			return bitratesV1L1
		case layer2:
			return bitratesV1L2
		default:
			return bitratesV1L3
		}
	}
	if layer == layer1 {
		return bitratesV2L1
	}
	return bitratesV2L23
}

// samples returns the number of PCM samples per channel in one frame.
func (h frameHeader) samples() int {
	switch {
	case h.layer == layer1:
		return 384
	case h.layer == layer3 && h.version != mpeg1:
		return 576
	default:
		return 1152
	}
}

// length returns the frame length in bytes including the header.
func (h frameHeader) length() int {
	pad := 0
	if h.padding {
		pad = 1
	}
	switch {
	case h.layer == layer1:
		return (12*h.bitrate/h.sampleRate + pad) * 4
	case h.layer == layer3 && h.version != mpeg1:
		return 72*h.bitrate/h.sampleRate + pad
	default:
		return 144*h.bitrate/h.sampleRate + pad
	}
}

// sideInfoSize returns the Layer III side information size, which is where
// a Xing or Info header starts after the frame header.
func (h frameHeader) sideInfoSize() int {
	if h.version == mpeg1 {
		if h.mono {
			return 17
		}
		return 32
	}
	if h.mono {
		return 9
	}
	return 17
}

func samplesDuration(samples int64, sampleRate int) time.Duration {
	return time.Duration(samples * int64(time.Second) / int64(sampleRate))
}

// ProbeDuration returns the playing time of the MPEG audio stream in the
// file at path. A Xing, Info or VBRI header in the first frame is trusted
// when it carries a frame count. Otherwise every frame is counted.
func ProbeDuration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 64*1024)
	if err := skipID3v2(r); err != nil {
		return 0, fmt.Errorf("skip ID3v2 tag: %w", err)
	}
	return scanFrames(r)
}

func skipID3v2(r *bufio.Reader) error {
	header, err := r.Peek(10)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}

	size, ok := id3TagSize(header)
	if !ok {
		return nil
	}
	if _, err := r.Discard(size); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func scanFrames(r *bufio.Reader) (time.Duration, error) {
	// Samples are summed per sample rate so the division happens once.
	samples := make(map[int]int64)
	first := true

	for {
		b, err := r.Peek(4)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, err
		}

		h, ok := parseFrameHeader(b)
		if !ok {
			// resync
			if _, err := r.Discard(1); err != nil {
				break
			}
			continue
		}

		if first {
			first = false
			if d, ok := vbrDuration(r, h); ok {
				return d, nil
			}
		}

		samples[h.sampleRate] += int64(h.samples())
		if _, err := r.Discard(h.length()); err != nil {
			break
		}
	}

	if len(samples) == 0 {
		return 0, ErrNoAudioFrames
	}

	var total time.Duration
	for rate, n := range samples {
		total += samplesDuration(n, rate)
	}
	return total, nil
}

// vbrDuration reads the frame count of a Xing, Info or VBRI header in the
// frame at the head of r without consuming it.
func vbrDuration(r *bufio.Reader, h frameHeader) (time.Duration, bool) {
	if h.layer != layer3 {
		return 0, false
	}
	frame, err := r.Peek(h.length())
	if err != nil {
		return 0, false
	}

	var frames uint32
	if off := 4 + h.sideInfoSize(); len(frame) >= off+12 {
		switch string(frame[off : off+4]) {
		case "Xing", "Info":
			flags := binary.BigEndian.Uint32(frame[off+4 : off+8])
			if flags&0x1 != 0 {
				frames = binary.BigEndian.Uint32(frame[off+8 : off+12])
			}
		}
	}
	if frames == 0 && len(frame) >= 36+18 && string(frame[36:40]) == "VBRI" {
		frames = binary.BigEndian.Uint32(frame[36+14 : 36+18])
	}
	if frames == 0 {
		return 0, false
	}
	return samplesDuration(int64(frames)*int64(h.samples()), h.sampleRate), true
}

// QueryTargetDuration returns the playing time of the MP3 file at path in
// milliseconds. An empty path yields math.MaxUint32. A file that cannot be
// read or carries no audio frames yields 0.
func QueryTargetDuration(path string) uint32 {
	if path == "" {
		return math.MaxUint32
	}

	d, err := ProbeDuration(path)
	if err != nil {
		return 0
	}

	ms := d / time.Millisecond
	if ms > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(ms)
}

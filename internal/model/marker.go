package model

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Marker is a named position on the timeline of an audio file.
//
// Markers are supplied as an ordered slice. Each marker becomes one chapter
// that starts at Position and ends where the next marker starts.
type Marker struct {
	// Name is the chapter title.
	Name string

	// Position is the offset from the start of the file in seconds.
	Position float64
}

// StartMillis returns the marker position in whole milliseconds.
// Negative positions are clamped to zero.
func (m Marker) StartMillis() uint32 {
	ms := m.Position * 1000
	if ms <= 0 || math.IsNaN(ms) {
		return 0
	}
	if ms >= math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(ms)
}

// ParseMarkers reads markers in the mp4chaps text layout:
//
//	00:00:00.000 Intro
//	00:00:30.000 Part 2
//
// Blank lines and lines starting with '#' are skipped. The timestamp may
// also be written as MM:SS(.mmm) or as plain seconds.
func ParseMarkers(r io.Reader) ([]Marker, error) {
	var markers []Marker

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		stamp, name, _ := strings.Cut(text, " ")
		position, err := ParseTimestamp(stamp)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		markers = append(markers, Marker{
			Name:     strings.TrimSpace(name),
			Position: position,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return markers, nil
}

// ParseTimestamp converts HH:MM:SS.mmm, MM:SS.mmm or SS.mmm into seconds.
func ParseTimestamp(s string) (float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}

	var seconds float64
	for _, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid timestamp %q", s)
		}
		seconds = seconds*60 + v
	}

	return seconds, nil
}

// FormatTimestamp renders seconds as HH:MM:SS.mmm.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	ms := int64(math.Round(seconds * 1000))
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	s := ms / 1000 % 60
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms%1000)
}

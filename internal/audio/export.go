package audio

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/ultraschall/podcast-tools/internal/model"
)

// ChapterFormat represents supported chapter file formats.
//
// Each format targets a different consumer:
//   - MP4Chaps: Plain text, one "HH:MM:SS.mmm Title" line per chapter
//   - PSC: Podlove Simple Chapters XML, embedded in podcast feeds
//   - JSON: Podcasting 2.0 chapters file
type ChapterFormat int

const (
	// FormatMP4Chaps creates .chapters.txt files.
	// Readable again with model.ParseMarkers.
	FormatMP4Chaps ChapterFormat = iota

	// FormatPSC creates .psc files (Podlove Simple Chapters).
	FormatPSC

	// FormatJSON creates .chapters.json files (Podcasting 2.0).
	FormatJSON
)

// ParseChapterFormat maps a format name to a ChapterFormat.
func ParseChapterFormat(name string) (ChapterFormat, error) {
	switch strings.ToLower(name) {
	case "mp4chaps", "txt":
		return FormatMP4Chaps, nil
	case "psc", "xml":
		return FormatPSC, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatMP4Chaps, fmt.Errorf("unknown chapter format %q", name)
	}
}

// Extension returns the file name suffix for the format.
func (f ChapterFormat) Extension() string {
	switch f {
	case FormatPSC:
		return ".psc"
	case FormatJSON:
		return ".chapters.json"
	default:
		return ".chapters.txt"
	}
}

// ChapterExporter renders markers as chapter files.
//
// Example:
//
//	exporter := NewChapterExporter(FormatPSC)
//	content := exporter.Export(markers)
//	os.WriteFile("episode.psc", []byte(content), 0644)
//
//	// Result:
//	// <?xml version="1.0" encoding="UTF-8"?>
//	// <psc:chapters version="1.2" xmlns:psc="http://podlove.org/simple-chapters">
//	//   <psc:chapter start="00:00:00.000" title="Intro"/>
//	// </psc:chapters>
type ChapterExporter struct {
	format ChapterFormat
}

// NewChapterExporter creates a new ChapterExporter.
func NewChapterExporter(format ChapterFormat) *ChapterExporter {
	return &ChapterExporter{format: format}
}

// Export renders markers in the exporter's format.
func (e *ChapterExporter) Export(markers []model.Marker) string {
	switch e.format {
	case FormatPSC:
		return e.exportPSC(markers)
	case FormatJSON:
		return e.exportJSON(markers)
	default:
		return e.exportMP4Chaps(markers)
	}
}

// exportMP4Chaps generates mp4chaps text:
//
//	00:00:00.000 Intro
//	00:00:30.000 Part 2
func (e *ChapterExporter) exportMP4Chaps(markers []model.Marker) string {
	var sb strings.Builder

	for _, m := range markers {
		sb.WriteString(fmt.Sprintf("%s %s\n", model.FormatTimestamp(m.Position), oneLine(m.Name)))
	}

	return sb.String()
}

// exportPSC generates Podlove Simple Chapters XML.
func (e *ChapterExporter) exportPSC(markers []model.Marker) string {
	var sb strings.Builder

	sb.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	sb.WriteString("<psc:chapters version=\"1.2\" xmlns:psc=\"http://podlove.org/simple-chapters\">\n")

	for _, m := range markers {
		sb.WriteString(fmt.Sprintf("  <psc:chapter start=\"%s\" title=\"%s\"/>\n",
			model.FormatTimestamp(m.Position),
			escapeXML(m.Name)))
	}

	sb.WriteString("</psc:chapters>\n")

	return sb.String()
}

type jsonChapters struct {
	Version  string        `json:"version"`
	Chapters []jsonChapter `json:"chapters"`
}

type jsonChapter struct {
	StartTime float64 `json:"startTime"`
	Title     string  `json:"title"`
}

// exportJSON generates a Podcasting 2.0 chapters document.
func (e *ChapterExporter) exportJSON(markers []model.Marker) string {
	doc := jsonChapters{
		Version:  "1.2.0",
		Chapters: make([]jsonChapter, 0, len(markers)),
	}
	for _, m := range markers {
		doc.Chapters = append(doc.Chapters, jsonChapter{
			StartTime: math.Round(m.Position*1000) / 1000,
			Title:     m.Name,
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return ""
	}
	return string(data) + "\n"
}

// oneLine folds line breaks so a title stays on its mp4chaps line.
func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\r", " ")
}

// escapeXML escapes special XML characters in a string.
//
// Replaces: & < > " '
// With:     &amp; &lt; &gt; &quot; &apos;
func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "'", "&apos;")
	return s
}

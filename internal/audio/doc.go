// Package audio writes ID3v2 metadata into MP3 files and reads it back.
//
// # Tagging
//
// Use the Tagger to write properties, cover art and chapters:
//
//	tagger := audio.NewTagger(audio.DefaultTagConfig(), logger)
//	err := tagger.InsertProperties("episode.mp3", "Title\nArtist\nAlbum\n2024\nPodcast\nComment")
//	err = tagger.InsertCover("episode.mp3", "cover.jpg")
//	err = tagger.InsertChapters("episode.mp3", markers)
//
// Every call is one transaction: open the file, replace the affected
// frames in memory, save. Text is written as UTF-16 with a byte order mark.
// Frames written:
//   - TIT2, TPE1, TALB, TDRC, TCON (text) and COMM (comment)
//   - APIC (cover art, JPEG or PNG)
//   - CHAP (one per marker) and CTOC (table of contents)
//
// # Duration
//
// QueryTargetDuration returns the audio length in milliseconds, computed
// from the MPEG frame headers:
//
//	ms := audio.QueryTargetDuration("episode.mp3")
//
// # Chapter Export
//
// Markers can be rendered as chapter files:
//
//	exporter := audio.NewChapterExporter(audio.FormatMP4Chaps)
//	content := exporter.Export(markers)
//	os.WriteFile("episode.chapters.txt", []byte(content), 0644)
//
// Supported formats:
//   - mp4chaps (plain text)
//   - Podlove Simple Chapters (XML)
//   - Podcasting 2.0 chapters (JSON)
package audio

package audio

import (
	"errors"
	"fmt"
	"os"

	"github.com/bogem/id3v2/v2"
)

// Frame identifiers written by the Tagger.
const (
	FrameTitle           = "TIT2"
	FrameArtist          = "TPE1"
	FrameAlbum           = "TALB"
	FrameDate            = "TDRC"
	FrameGenre           = "TCON"
	FrameComment         = "COMM"
	FramePicture         = "APIC"
	FrameChapter         = "CHAP"
	FrameTableOfContents = "CTOC"
)

const id3Magic = "ID3"

// openTag opens path for editing. Tags older than ID3v2.3 cannot be
// parsed by the library, so they are stripped and the file is reopened.
func openTag(path string) (*id3v2.Tag, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if errors.Is(err, id3v2.ErrUnsupportedVersion) {
		if stripErr := stripID3v2Tag(path); stripErr != nil {
			return nil, fmt.Errorf("strip unsupported ID3v2 tag: %w", stripErr)
		}
		tag, err = id3v2.Open(path, id3v2.Options{Parse: true})
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	// TDRC and CTOC are ID3v2.4 frames.
	tag.SetVersion(4)
	return tag, nil
}

// RemoveMultipleFrames deletes every frame with the given id from tag.
// It does nothing when tag is nil, id is empty or no such frame exists.
func RemoveMultipleFrames(tag *id3v2.Tag, id string) {
	if tag == nil || id == "" {
		return
	}
	if len(tag.GetFrames(id)) == 0 {
		return
	}
	tag.DeleteFrames(id)
}

// RemoveMP3Frames deletes every frame with the given id from the file at
// path and saves it right away. The file is left untouched when no frame
// matches.
func RemoveMP3Frames(path, id string) error {
	if path == "" || id == "" {
		return ErrEmptyPath
	}

	tag, err := openTag(path)
	if err != nil {
		return err
	}
	defer tag.Close()

	if len(tag.GetFrames(id)) == 0 {
		return nil
	}

	RemoveMultipleFrames(tag, id)
	if err := tag.Save(); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// id3TagSize reports the total size of the ID3v2 tag at the start of
// header, including its header and optional footer. It returns false when
// header does not start with a tag.
func id3TagSize(header []byte) (int, bool) {
	if len(header) < 10 || string(header[:3]) != id3Magic {
		return 0, false
	}
	size := int(header[6])<<21 | int(header[7])<<14 | int(header[8])<<7 | int(header[9])
	size += 10
	if header[5]&0x10 != 0 {
		size += 10
	}
	return size, true
}

// stripID3v2Tag removes the ID3v2 tag from the start of the file.
func stripID3v2Tag(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	size, ok := id3TagSize(data)
	if !ok {
		return nil
	}
	if size >= len(data) {
		return fmt.Errorf("ID3v2 tag size (%d) exceeds file size (%d)", size, len(data))
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}
	if err := os.WriteFile(path, data[size:], info.Mode()); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

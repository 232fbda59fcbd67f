package model

import (
	"errors"
	"strings"
)

// PropertyFieldCount is the number of newline separated fields a
// properties string must contain.
const PropertyFieldCount = 6

// ErrFieldCount is returned when a properties string does not split into
// exactly PropertyFieldCount fields.
var ErrFieldCount = errors.New("properties must contain exactly six newline separated fields")

// Properties holds the text metadata written to an MP3 file.
type Properties struct {
	Title   string
	Artist  string
	Album   string
	Date    string
	Genre   string
	Comment string
}

// ParseProperties splits s into title, artist, album, date, genre and
// comment. Lines may end in "\r\n". A newline after the sixth field is
// ignored, so an empty comment may or may not be followed by one. Any
// other field count returns ErrFieldCount.
func ParseProperties(s string) (*Properties, error) {
	if s == "" {
		return nil, ErrFieldCount
	}

	s = strings.ReplaceAll(s, "\r\n", "\n")

	fields := strings.Split(s, "\n")
	if len(fields) == PropertyFieldCount+1 && fields[PropertyFieldCount] == "" {
		fields = fields[:PropertyFieldCount]
	}
	if len(fields) != PropertyFieldCount {
		return nil, ErrFieldCount
	}

	return &Properties{
		Title:   fields[0],
		Artist:  fields[1],
		Album:   fields[2],
		Date:    fields[3],
		Genre:   fields[4],
		Comment: fields[5],
	}, nil
}

// String joins the fields back into the newline separated form accepted by
// ParseProperties.
func (p *Properties) String() string {
	return strings.Join([]string{p.Title, p.Artist, p.Album, p.Date, p.Genre, p.Comment}, "\n")
}

package audio

import "bytes"

// imageSignature maps a magic number to a MIME type. minLen is the
// shortest buffer that may carry the type.
type imageSignature struct {
	magic    []byte
	minLen   int
	mimeType string
}

var imageSignatures = []imageSignature{
	{magic: []byte{0xFF, 0xD8}, minLen: 2, mimeType: "image/jpeg"},
	{magic: []byte{0x89, 0x50, 0x4E, 0x47}, minLen: 8, mimeType: "image/png"},
}

// QueryMIMEType classifies image data by its leading bytes. It returns
// "image/jpeg", "image/png" or "" when no signature matches.
func QueryMIMEType(data []byte) string {
	for _, sig := range imageSignatures {
		if len(data) < sig.minLen {
			continue
		}
		if bytes.HasPrefix(data, sig.magic) {
			return sig.mimeType
		}
	}
	return ""
}

package mpdprotocol

import (
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DecodeText decodes a complete reply as UTF-8. A leading byte order mark
// is dropped and invalid sequences become U+FFFD.
func DecodeText(b []byte) (string, error) {
	out, _, err := transform.Bytes(unicode.UTF8BOM.NewDecoder(), b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// decodeLenient decodes b for marker detection only and never fails.
func decodeLenient(b []byte) string {
	out, _, err := transform.Bytes(unicode.UTF8.NewDecoder(), b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

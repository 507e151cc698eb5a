package qfx

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Strategy turns raw file bytes into UTF-8 text for the OFX parser.
type Strategy struct {
	Name   string
	Decode func([]byte) (string, error)
}

// DefaultStrategies is the order decodings are attempted in. Bank exports are
// usually UTF-8 or Windows-1252; the lossy strategy recovers files where
// foreign payee names were written in a mix of both.
var DefaultStrategies = []Strategy{
	{Name: "utf-8", Decode: decodeUTF8},
	{Name: "windows-1252", Decode: decodeWindows1252},
	{Name: "utf-8-lossy", Decode: decodeLossy},
}

var errInvalidUTF8 = errors.New("invalid utf-8 byte sequence")

func decodeUTF8(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errInvalidUTF8
	}
	return string(data), nil
}

func decodeWindows1252(data []byte) (string, error) {
	var b strings.Builder
	b.Grow(len(data))
	for i, c := range data {
		r := charmap.Windows1252.DecodeByte(c)
		// The five unassigned bytes decode to C1 controls.
		if r == utf8.RuneError || (r >= 0x80 && r <= 0x9f) {
			return "", fmt.Errorf("byte 0x%02x at offset %d is undefined in windows-1252", c, i)
		}
		b.WriteRune(r)
	}
	return b.String(), nil
}

// decodeLossy keeps only what survives both a UTF-8 read with invalid bytes
// dropped and a round trip through Windows-1252.
func decodeLossy(data []byte) (string, error) {
	text := strings.ToValidUTF8(string(data), "")
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if _, ok := charmap.Windows1252.EncodeRune(r); ok {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

package edid

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var ErrNoBytes = errors.New("edid: no EDID bytes found in input")

func isHexSep(r rune) bool {
	switch r {
	case ' ', '\t', '\r', '\n', ',', ':', ';':
		return true
	}
	return false
}

// ParseHex extracts EDID bytes from hex text: two-digit byte values
// separated by whitespace, commas or colons, with optional 0x prefixes.
// Longer runs of hex digits are split into byte pairs.
func ParseHex(text string) ([]byte, error) {
	var out []byte
	for _, tok := range strings.FieldsFunc(text, isHexSep) {
		tok = strings.TrimPrefix(strings.TrimPrefix(tok, "0x"), "0X")
		if tok == "" {
			continue
		}
		if len(tok)%2 != 0 {
			return nil, fmt.Errorf("edid: odd hex digit count in %q", tok)
		}
		b, err := hex.DecodeString(tok)
		if err != nil {
			return nil, fmt.Errorf("edid: bad hex token %q", tok)
		}
		out = append(out, b...)
	}
	if len(out) == 0 {
		return nil, ErrNoBytes
	}
	return out, nil
}

func looksBinary(b []byte) bool {
	if len(b) >= 8 && string(b[:8]) == string(headerMagic) {
		return true
	}
	for _, v := range b {
		if v >= 0x80 || (v < 0x09 && v != 0) {
			return true
		}
	}
	return false
}

// Load reads an EDID image from r, accepting either raw binary or hex
// text. The returned buffer is not validated beyond the byte extraction;
// Decode does the rest.
func Load(r io.Reader) ([]byte, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, ErrNoBytes
	}
	if looksBinary(b) {
		return b, nil
	}
	return ParseHex(string(b))
}

// LoadFile reads an EDID image from path, or from stdin when path is "-".
func LoadFile(path string) ([]byte, error) {
	if path == "-" {
		return Load(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// DecodeFile loads and decodes one image, naming ledger findings after
// the path.
func DecodeFile(path string) (*EDID, error) {
	data, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeNamed(data, path)
}

package edid

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []byte
	}{
		{name: "spaced", in: "00 ff ff ff", want: []byte{0x00, 0xff, 0xff, 0xff}},
		{name: "prefixed", in: "0x00, 0xFF, 0x10", want: []byte{0x00, 0xff, 0x10}},
		{name: "colons", in: "00:ff:aa", want: []byte{0x00, 0xff, 0xaa}},
		{name: "run", in: "00ffffffffffff00", want: headerMagic},
		{name: "multiline", in: "00 ff\nff ff\r\nff ff\tff 00", want: headerMagic},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseHex(tc.in)
			if err != nil {
				t.Fatalf("ParseHex failed: %v", err)
			}
			if !bytes.Equal(got, tc.want) {
				t.Fatalf("ParseHex = % x, want % x", got, tc.want)
			}
		})
	}
}

func TestParseHexErrors(t *testing.T) {
	if _, err := ParseHex("00 ff f"); err == nil {
		t.Fatalf("odd digit count not rejected")
	}
	if _, err := ParseHex("00 zz"); err == nil {
		t.Fatalf("non-hex token not rejected")
	}
	if _, err := ParseHex("  \n\t "); !errors.Is(err, ErrNoBytes) {
		t.Fatalf("empty input error = %v, want %v", err, ErrNoBytes)
	}
}

func TestLoadBinary(t *testing.T) {
	raw := buildBase()
	got, err := Load(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Fatalf("binary input was not passed through")
	}
}

func TestLoadHexText(t *testing.T) {
	raw := buildBase()
	var sb strings.Builder
	for i, v := range raw {
		if i > 0 && i%16 == 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%02x ", v)
	}
	got, err := Load(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Fatalf("hex text did not round back to the raw bytes")
	}
}

package dict

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseOUI(t *testing.T) {
	tests := []struct {
		in   string
		want uint32
	}{
		{"00-0C-03", 0x000c03},
		{"c4:5d:d8", 0xc45dd8},
		{"00D046", 0x00d046},
	}
	for _, tc := range tests {
		got, err := ParseOUI(tc.in)
		if err != nil {
			t.Fatalf("ParseOUI(%q) failed: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseOUI(%q) = 0x%06x, want 0x%06x", tc.in, got, tc.want)
		}
	}
	if _, err := ParseOUI("00-0C"); err == nil {
		t.Fatalf("short identifier not rejected")
	}
	if _, err := ParseOUI("00-0C-0G"); err == nil {
		t.Fatalf("bad digit not rejected")
	}
}

func TestFromJSONValidation(t *testing.T) {
	tests := []struct {
		name string
		file JSONFile
	}{
		{name: "bad code", file: JSONFile{PNP: []JSONPNPEntry{{Code: "D3L", Name: "x"}}}},
		{name: "short code", file: JSONFile{PNP: []JSONPNPEntry{{Code: "DE", Name: "x"}}}},
		{name: "duplicate code", file: JSONFile{PNP: []JSONPNPEntry{{Code: "DEL", Name: "x"}, {Code: "del", Name: "y"}}}},
		{name: "bad oui", file: JSONFile{OUI: []JSONOUIEntry{{OUI: "nope", Name: "x"}}}},
		{name: "duplicate oui", file: JSONFile{OUI: []JSONOUIEntry{{OUI: "00-0C-03", Name: "x"}, {OUI: "000c03", Name: "y"}}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := FromJSON(tc.file); err == nil {
				t.Fatalf("FromJSON accepted %+v", tc.file)
			}
		})
	}
}

func TestBuiltinLookups(t *testing.T) {
	s := Builtin()
	if e, ok := s.LookupPNP("del"); !ok || e.Name != "Dell Inc." {
		t.Fatalf("LookupPNP(del) = %+v, %v", e, ok)
	}
	if got := s.OUIName(0x000c03); got != "HDMI Licensing, LLC" {
		t.Fatalf("OUIName = %q", got)
	}
	if got := s.OUIName(0x123456); got != "12-34-56" {
		t.Fatalf("unknown OUI fallback = %q, want 12-34-56", got)
	}
	if got := s.PNPName("ZZZ"); got != "ZZZ" {
		t.Fatalf("unknown code fallback = %q, want ZZZ", got)
	}

	var nilStore *Store
	if !nilStore.IsEmpty() {
		t.Fatalf("nil store should be empty")
	}
	if _, ok := nilStore.LookupPNP("DEL"); ok {
		t.Fatalf("nil store lookup succeeded")
	}
}

func TestWithOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vendors.json")
	doc := `{"pnp":[{"code":"del","name":"Dell Technologies"},{"code":"XYZ","name":"Example Displays"}],
	"oui":[{"oui":"AA-BB-CC","name":"Example Silicon"}]}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	s, err := WithOverrides(path)
	if err != nil {
		t.Fatalf("WithOverrides failed: %v", err)
	}
	if got := s.PNPName("DEL"); got != "Dell Technologies" {
		t.Fatalf("override did not win: %q", got)
	}
	if got := s.PNPName("XYZ"); got != "Example Displays" {
		t.Fatalf("added code missing: %q", got)
	}
	if got := s.PNPName("SAM"); got != "Samsung Electric Company" {
		t.Fatalf("built-in entry lost: %q", got)
	}
	if got := s.OUIName(0xaabbcc); got != "Example Silicon" {
		t.Fatalf("added OUI missing: %q", got)
	}

	s, err = WithOverrides("")
	if err != nil {
		t.Fatalf("WithOverrides(\"\") failed: %v", err)
	}
	if s.IsEmpty() {
		t.Fatalf("empty path should yield the built-in table")
	}

	if _, err := WithOverrides(dir); err == nil {
		t.Fatalf("directory path not rejected")
	}
}

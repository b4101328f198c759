package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"example.com/edidgate/internal/dict"
	"example.com/edidgate/internal/edid"
	"example.com/edidgate/internal/ledger"
)

func textDesc(tag byte, s string) []byte {
	d := make([]byte, 18)
	d[3] = tag
	copy(d[5:], s)
	if len(s) < 13 {
		d[5+len(s)] = 0x0a
		for i := 5 + len(s) + 1; i < 18; i++ {
			d[i] = 0x20
		}
	}
	return d
}

func rangeDesc() []byte {
	d := make([]byte, 18)
	d[3] = 0xfd
	d[5] = 50
	d[6] = 75
	d[7] = 30
	d[8] = 85
	d[9] = 25
	d[10] = 0x01
	d[11] = 0x0a
	for i := 12; i < 18; i++ {
		d[i] = 0x20
	}
	return d
}

// sampleBytes is a conformant single block 1.4 image: Dell vendor code,
// 1080p preferred DTD, display name, range limits and a serial string.
func sampleBytes(t *testing.T) []byte {
	t.Helper()
	b := make([]byte, 128)
	copy(b, []byte{0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00})
	b[8], b[9] = 0x10, 0xac
	b[10], b[11] = 0x34, 0x12
	b[12], b[13], b[14], b[15] = 0x78, 0x56, 0x34, 0x12
	b[16], b[17] = 2, 30
	b[18], b[19] = 1, 4
	b[20] = 0xb5
	b[21], b[22] = 0x3c, 0x22
	b[23] = 0x78
	b[24] = 0x0a
	b[35] = 0x20
	for i := 38; i < 54; i += 2 {
		b[i], b[i+1] = 0x01, 0x01
	}
	dtd := []byte{
		0x02, 0x3a, 0x80, 0x18, 0x71, 0x38, 0x2d, 0x40, 0x58, 0x2c,
		0x45, 0x00, 0xfe, 0x1f, 0x11, 0x00, 0x00, 0x1e,
	}
	copy(b[54:72], dtd)
	copy(b[72:90], textDesc(0xfc, "SAMPLE 27"))
	copy(b[90:108], rangeDesc())
	copy(b[108:126], textDesc(0xff, "SN1234"))
	var sum byte
	for _, v := range b[:127] {
		sum += v
	}
	b[127] = -sum
	return b
}

func decodeSample(t *testing.T) *edid.EDID {
	t.Helper()
	e, err := edid.DecodeNamed(sampleBytes(t), "sample.bin")
	if err != nil {
		t.Fatalf("DecodeNamed: %v", err)
	}
	return e
}

func TestWriteTextEnglish(t *testing.T) {
	e := decodeSample(t)
	var buf bytes.Buffer
	if err := WriteText(&buf, e, dict.Builtin(), NewTranslator(LangEnglish)); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"EDID conformance report",
		"DEL (Dell Inc.)",
		"SAMPLE 27",
		"SN1234",
		"DTD 1",
		"1920x1080",
		"preferred",
		"CONFORMANT",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("text output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "NOT CONFORMANT") {
		t.Fatalf("conformant image rendered as failing:\n%s", out)
	}
}

func TestWriteTextTurkish(t *testing.T) {
	e := decodeSample(t)
	var buf bytes.Buffer
	if err := WriteText(&buf, e, dict.Builtin(), NewTranslator(LangTurkish)); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Özet", "Üretici", "UYGUN", "Zamanlamalar"} {
		if !strings.Contains(out, want) {
			t.Fatalf("text output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "DEĞİL") {
		t.Fatalf("conformant image rendered as failing:\n%s", out)
	}
}

func TestConformanceJSONRoundTrip(t *testing.T) {
	e := decodeSample(t)
	path := filepath.Join(t.TempDir(), "report.json")
	if err := SaveConformanceJSON(e, path); err != nil {
		t.Fatalf("SaveConformanceJSON: %v", err)
	}
	got, err := LoadConformanceJSON(path)
	if err != nil {
		t.Fatalf("LoadConformanceJSON: %v", err)
	}
	if got.Base.Vendor != "DEL" {
		t.Fatalf("vendor = %q, want DEL", got.Base.Vendor)
	}
	if got.VersionMajor != 1 || got.VersionMinor != 4 {
		t.Fatalf("version = %d.%d, want 1.4", got.VersionMajor, got.VersionMinor)
	}
	if !got.Conformant {
		t.Fatalf("round tripped report lost the verdict")
	}
	if got.Report.Summary.Total != e.Report.Summary.Total {
		t.Fatalf("summary total = %d, want %d", got.Report.Summary.Total, e.Report.Summary.Total)
	}
	if len(got.Timings) != len(e.Timings) {
		t.Fatalf("timings = %d, want %d", len(got.Timings), len(e.Timings))
	}
	if len(got.Raw) != 0 {
		t.Fatalf("raw bytes should not be serialized")
	}
}

func TestWriteFindingsNDJSON(t *testing.T) {
	b := sampleBytes(t)
	b[127]++
	e, err := edid.DecodeNamed(b, "broken.bin")
	if err != nil {
		t.Fatalf("DecodeNamed: %v", err)
	}
	if len(e.Report.Findings) == 0 {
		t.Fatalf("corrupted checksum produced no findings")
	}
	var buf bytes.Buffer
	if err := WriteFindingsNDJSON(&buf, e.Report.Findings); err != nil {
		t.Fatalf("WriteFindingsNDJSON: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != len(e.Report.Findings) {
		t.Fatalf("lines = %d, want %d", len(lines), len(e.Report.Findings))
	}
	var f ledger.Finding
	if err := json.Unmarshal([]byte(lines[0]), &f); err != nil {
		t.Fatalf("line 0 is not valid JSON: %v", err)
	}
	if f.Severity != ledger.FAIL || !strings.Contains(f.Message, "checksum") {
		t.Fatalf("unexpected first finding: %+v", f)
	}
}

func TestDigestQR(t *testing.T) {
	png, err := DigestQR(strings.Repeat("ab", 32), 64)
	if err != nil {
		t.Fatalf("DigestQR: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")) {
		t.Fatalf("output is not a PNG")
	}
	if _, err := DigestQR("", 0); err == nil {
		t.Fatalf("empty digest accepted")
	}
	if _, err := DigestQR("zz", 128); err == nil {
		t.Fatalf("digest without hex digits accepted")
	}
}

func TestSaveConformancePDF(t *testing.T) {
	e := decodeSample(t)
	out := filepath.Join(t.TempDir(), "report.pdf")
	if err := SaveConformancePDF(e, out, dict.Builtin(), NewTranslator(LangEnglish)); err != nil {
		t.Fatalf("SaveConformancePDF: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("output is not a PDF")
	}
	if len(data) < 1000 {
		t.Fatalf("pdf suspiciously small: %d bytes", len(data))
	}
}

func TestTranslatorFallback(t *testing.T) {
	tr := NewTranslator(Language("de"))
	if tr.Lang() != LangEnglish {
		t.Fatalf("lang = %s, want %s", tr.Lang(), LangEnglish)
	}
	tr = NewTranslator(LangTurkish)
	if got := tr.T("summary.verdict"); got != "Karar" {
		t.Fatalf("T(summary.verdict) = %q, want Karar", got)
	}
	if got := tr.T("no.such.key"); got != "no.such.key" {
		t.Fatalf("missing key = %q, want the key itself", got)
	}
}

func TestParseLanguage(t *testing.T) {
	if lang, err := ParseLanguage("turkish"); err != nil || lang != LangTurkish {
		t.Fatalf("ParseLanguage(turkish) = %s, %v", lang, err)
	}
	if lang, err := ParseLanguage(""); err != nil || lang != LangEnglish {
		t.Fatalf("ParseLanguage(empty) = %s, %v", lang, err)
	}
	if _, err := ParseLanguage("xx"); !errors.Is(err, ErrUnsupportedLanguage) {
		t.Fatalf("ParseLanguage(xx) = %v, want ErrUnsupportedLanguage", err)
	}
}

func TestLocaleParity(t *testing.T) {
	en := locales[LangEnglish]
	trData := locales[LangTurkish]
	for key := range en {
		if _, ok := trData[key]; !ok {
			t.Fatalf("tr.json missing key %s", key)
		}
	}
	for key := range trData {
		if _, ok := en[key]; !ok {
			t.Fatalf("en.json missing key %s", key)
		}
	}
}

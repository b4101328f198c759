package ledger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestScopeAttribution(t *testing.T) {
	l := New()
	l.Push("Block 1 (CTA-861)")
	pop := l.Scope("Video Data Block")
	l.Fail("VIC 0 is reserved")
	pop()
	l.Warn("trailing padding is not zero")
	l.Pop()
	l.Fail("checksum mismatch")

	got := l.Findings()
	if len(got) != 3 {
		t.Fatalf("findings = %d, want 3", len(got))
	}
	if got[0].Block != "Block 1 (CTA-861): Video Data Block" {
		t.Fatalf("finding 0 block = %q", got[0].Block)
	}
	if got[1].Block != "Block 1 (CTA-861)" {
		t.Fatalf("finding 1 block = %q", got[1].Block)
	}
	if got[2].Block != "EDID" {
		t.Fatalf("finding 2 block = %q", got[2].Block)
	}
	if l.Failures() != 2 || l.Warnings() != 1 {
		t.Fatalf("failures/warnings = %d/%d, want 2/1", l.Failures(), l.Warnings())
	}
	if l.Conformant() {
		t.Fatalf("ledger with failures reported conformant")
	}
}

func TestConformantWithWarningsOnly(t *testing.T) {
	l := New()
	l.Warn("deprecated block map extension")
	if !l.Conformant() {
		t.Fatalf("warnings alone must not break conformance")
	}
}

func TestEnvelopeWidening(t *testing.T) {
	cases := []struct {
		name  string
		vert  float64
		hor   float64
		clk   uint32
		wantV [2]float64
		wantH [2]float64
		wantC uint32
	}{
		{"first", 60, 67.5, 148500, [2]float64{60, 60}, [2]float64{67.5, 67.5}, 148500},
		{"lower", 24, 54, 74250, [2]float64{24, 60}, [2]float64{54, 67.5}, 148500},
		{"higher", 120, 135, 297000, [2]float64{24, 120}, [2]float64{54, 135}, 297000},
	}
	l := New()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l.RecordRates(tc.vert, tc.hor, tc.clk)
			e := l.Envelope()
			if !e.Seen {
				t.Fatalf("envelope not marked seen")
			}
			if e.MinVertHz != tc.wantV[0] || e.MaxVertHz != tc.wantV[1] {
				t.Fatalf("vert = [%v, %v], want %v", e.MinVertHz, e.MaxVertHz, tc.wantV)
			}
			if e.MinHorKHz != tc.wantH[0] || e.MaxHorKHz != tc.wantH[1] {
				t.Fatalf("hor = [%v, %v], want %v", e.MinHorKHz, e.MaxHorKHz, tc.wantH)
			}
			if e.MaxPixClkKHz != tc.wantC {
				t.Fatalf("pixclk = %d, want %d", e.MaxPixClkKHz, tc.wantC)
			}
		})
	}
}

func TestBuildReportBlockMatrix(t *testing.T) {
	l := New()
	l.Push("Block 0 (Base EDID)")
	l.Warn("serial number is zero")
	l.Pop()
	l.Push("Block 1 (CTA-861)")
	l.Fail("audio data block length 4 is not a multiple of 3")
	l.Pop()

	rep := l.BuildReport([]string{"Base EDID", "CTA-861"})
	if rep.Summary.Total != 2 || rep.Summary.Failures != 1 || rep.Summary.Warnings != 1 {
		t.Fatalf("summary = %+v", rep.Summary)
	}
	if rep.Summary.Conformant {
		t.Fatalf("report with a failure marked conformant")
	}
	if len(rep.BlockMatrix) != 2 {
		t.Fatalf("block matrix size = %d, want 2", len(rep.BlockMatrix))
	}
	if rep.BlockMatrix[0].Status != "warn" {
		t.Fatalf("block 0 status = %q, want warn", rep.BlockMatrix[0].Status)
	}
	if rep.BlockMatrix[1].Status != "fail" {
		t.Fatalf("block 1 status = %q, want fail", rep.BlockMatrix[1].Status)
	}
}

func TestWriteFindingsNDJSON(t *testing.T) {
	l := New()
	l.SetSource("sample.edid")
	l.Fail("checksum mismatch")
	l.Warn("week of manufacture 0xff without model year flag")

	path := filepath.Join(t.TempDir(), "findings.ndjson")
	if err := l.WriteFindingsNDJSON(path); err != nil {
		t.Fatalf("WriteFindingsNDJSON: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	var lines int
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var got Finding
		if err := json.Unmarshal(sc.Bytes(), &got); err != nil {
			t.Fatalf("line %d: %v", lines, err)
		}
		if got.Source != "sample.edid" {
			t.Fatalf("line %d source = %q", lines, got.Source)
		}
		lines++
	}
	if lines != 2 {
		t.Fatalf("lines = %d, want 2", lines)
	}
}

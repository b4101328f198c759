package edid

import (
	"strings"
	"testing"

	"example.com/edidgate/internal/ledger"
)

// minCTA returns an empty CTA-861 revision 3 extension block.
func minCTA() []byte {
	b := make([]byte, BlockSize)
	b[0] = TagCTA
	b[1] = 3
	b[2] = 4
	b[127] = Checksum(b)
	return b
}

func dataBlock(tag byte, payload ...byte) []byte {
	return append([]byte{tag<<5 | byte(len(payload))}, payload...)
}

func extBlock(sub byte, payload ...byte) []byte {
	return dataBlock(ctaTagExtended, append([]byte{sub}, payload...)...)
}

func videoDB(vics ...byte) []byte {
	return dataBlock(ctaTagVideo, vics...)
}

// hdmiDB builds an HDMI vendor specific data block from the bytes that
// follow the OUI.
func hdmiDB(body ...byte) []byte {
	return dataBlock(ctaTagVendor, append([]byte{0x03, 0x0c, 0x00}, body...)...)
}

// ctaBlock assembles a CTA-861 revision 3 block from data blocks and
// detailed timing descriptors.
func ctaBlock(t *testing.T, dbcs [][]byte, dtds ...[]byte) []byte {
	t.Helper()
	b := make([]byte, BlockSize)
	b[0] = TagCTA
	b[1] = 3
	cur := 4
	for _, dbc := range dbcs {
		if cur+len(dbc) > BlockSize-1 {
			t.Fatalf("data blocks overflow the CTA block at %d bytes", cur+len(dbc))
		}
		copy(b[cur:], dbc)
		cur += len(dbc)
	}
	b[2] = byte(cur)
	for _, dtd := range dtds {
		if len(dtd) != 18 || cur+18 > BlockSize-1 {
			t.Fatalf("detailed timing does not fit at offset %d", cur)
		}
		copy(b[cur:], dtd)
		cur += 18
	}
	b[127] = Checksum(b)
	return b
}

func TestCTAAudioBlock(t *testing.T) {
	// A 4 byte payload cannot hold whole short audio descriptors.
	e, err := Decode(buildEDID(t, ctaBlock(t, [][]byte{dataBlock(ctaTagAudio, 0x09, 0x07, 0x07, 0x00)})))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !hasFinding(e, ledger.FAIL, "not a multiple of 3") {
		t.Fatalf("no audio length failure: %+v", e.Ledger.Findings())
	}

	e, err = Decode(buildEDID(t, ctaBlock(t, [][]byte{dataBlock(ctaTagAudio, 0x09, 0x07, 0x07)})))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !e.Conformant {
		t.Fatalf("Conformant = false, findings: %+v", e.Ledger.Findings())
	}
	audio := e.Blocks[1].CTA.Audio
	if len(audio) != 1 {
		t.Fatalf("audio descriptors = %d, want 1", len(audio))
	}
	sad := audio[0]
	if sad.Format != 1 || sad.Channels != 2 || sad.RateMask != 0x07 || sad.DepthMask != 0x07 {
		t.Fatalf("SAD = %+v, want 2 channel LPCM at 32/44.1/48 kHz", sad)
	}
}

func TestCTADuplicateVIC(t *testing.T) {
	e, err := Decode(buildEDID(t, ctaBlock(t, [][]byte{videoDB(16, 16)})))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if e.Conformant {
		t.Fatalf("Conformant = true, want false")
	}
	if !hasFinding(e, ledger.FAIL, "duplicate VIC 16") {
		t.Fatalf("no duplicate VIC failure: %+v", e.Ledger.Findings())
	}
	if got := len(e.Blocks[1].CTA.VICs); got != 2 {
		t.Fatalf("decoded SVDs = %d, want 2", got)
	}
}

// TestCTAVFPDBReferences puts the preference block before the video
// block and the detailed timings it points at, which only works when
// the counts are collected up front.
func TestCTAVFPDBReferences(t *testing.T) {
	cta := ctaBlock(t, [][]byte{
		extBlock(extVFPDB, 131, 132),
		videoDB(16),
	}, dtd1080p(), dtd1080p())
	e, err := Decode(buildEDID(t, cta))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	// One DTD in the base block plus two here makes three.
	if !hasFinding(e, ledger.FAIL, "SVR 132 references DTD 4 but the EDID has 3") {
		t.Fatalf("no out of range SVR failure: %+v", e.Ledger.Findings())
	}
	for _, f := range e.Ledger.Findings() {
		if strings.Contains(f.Message, "SVR 131") {
			t.Fatalf("SVR 131 flagged despite being in range: %+v", f)
		}
	}
	if got := e.Blocks[1].CTA.Preference; len(got) != 2 || got[0] != 131 || got[1] != 132 {
		t.Fatalf("preference order = %v, want [131 132]", got)
	}
}

func TestCTAY420Disjoint(t *testing.T) {
	cta := ctaBlock(t, [][]byte{
		videoDB(16),
		extBlock(extY420VDB, 16),
	})
	e, err := Decode(buildEDID(t, cta))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !hasFinding(e, ledger.FAIL, "both the regular and 4:2:0-only lists") {
		t.Fatalf("no overlap failure: %+v", e.Ledger.Findings())
	}
	te, ok := findOrigin(e, "VIC 16 (4:2:0)")
	if !ok {
		t.Fatalf("4:2:0 timing not recorded: %+v", e.Timings)
	}
	if !te.T.YCbCr420 {
		t.Fatalf("recorded timing is not marked 4:2:0")
	}
}

func TestCTAY420CapMap(t *testing.T) {
	cta := ctaBlock(t, [][]byte{
		videoDB(16, 31),
		extBlock(extY420CMDB, 0x0f),
	})
	e, err := Decode(buildEDID(t, cta))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !hasFinding(e, ledger.FAIL, "capability map bit 2 exceeds the 2 announced SVDs") {
		t.Fatalf("no overflow failure: %+v", e.Ledger.Findings())
	}
	if got := e.Blocks[1].CTA.Cap420; len(got) != 2 || got[0] != 16 || got[1] != 31 {
		t.Fatalf("capable VICs = %v, want [16 31]", got)
	}

	cta = ctaBlock(t, [][]byte{
		videoDB(16, 31),
		extBlock(extY420CMDB),
	})
	e, err = Decode(buildEDID(t, cta))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !e.Conformant {
		t.Fatalf("Conformant = false, findings: %+v", e.Ledger.Findings())
	}
	if !e.Blocks[1].CTA.Cap420All {
		t.Fatalf("empty capability map should mean all SVDs")
	}
}

// TestCTAEEODBRaisesBlockCount checks that an extension override in the
// first extension replaces the base block's count of one before the
// block split, so the trailing blocks are neither truncation nor
// undeclared extras.
func TestCTAEEODBRaisesBlockCount(t *testing.T) {
	base := buildBase()
	base[126] = 1
	base[127] = Checksum(base)
	cta := ctaBlock(t, [][]byte{
		extBlock(extEEODB, 3),
		videoDB(16),
	})
	data := append(base, cta...)
	data = append(data, minCTA()...)
	data = append(data, minCTA()...)

	e, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(e.Blocks) != 4 {
		t.Fatalf("blocks = %d, want 4", len(e.Blocks))
	}
	if e.Blocks[1].CTA.OverrideBlocks != 3 {
		t.Fatalf("override count = %d, want 3", e.Blocks[1].CTA.OverrideBlocks)
	}
	if !e.Conformant {
		t.Fatalf("Conformant = false, findings: %+v", e.Ledger.Findings())
	}
}

func TestCTAEEODBPlacement(t *testing.T) {
	base := buildBase()
	base[126] = 1
	base[127] = Checksum(base)
	cta := ctaBlock(t, [][]byte{
		videoDB(16),
		extBlock(extEEODB, 1),
	})
	e, err := Decode(append(base, cta...))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !hasFinding(e, ledger.FAIL, "must be the first data block") {
		t.Fatalf("no placement failure: %+v", e.Ledger.Findings())
	}

	base[126] = 2
	base[127] = Checksum(base)
	cta = ctaBlock(t, [][]byte{
		extBlock(extEEODB, 3),
		videoDB(16),
	})
	data := append(base, cta...)
	data = append(data, minCTA()...)
	data = append(data, minCTA()...)
	e, err = Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !hasFinding(e, ledger.FAIL, "declared extension count of 1, got 2") {
		t.Fatalf("no count failure: %+v", e.Ledger.Findings())
	}
}

func TestCTAPhysicalAddress(t *testing.T) {
	e, err := Decode(buildEDID(t, ctaBlock(t, [][]byte{hdmiDB(0x10, 0x10)})))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !hasFinding(e, ledger.FAIL, "zero before a non-zero part") {
		t.Fatalf("no gap failure: %+v", e.Ledger.Findings())
	}
	if got := e.Blocks[1].CTA.HDMI.PhysAddr; got != "1.0.1.0" {
		t.Fatalf("physical address = %q, want 1.0.1.0", got)
	}

	e, err = Decode(buildEDID(t, ctaBlock(t, [][]byte{hdmiDB(0x10, 0x00)})))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !e.Conformant {
		t.Fatalf("Conformant = false, findings: %+v", e.Ledger.Findings())
	}
	if got := e.Blocks[1].CTA.HDMI.PhysAddr; got != "1.0.0.0" {
		t.Fatalf("physical address = %q, want 1.0.0.0", got)
	}
}

func TestCTAHDMIVICRequiresVIC(t *testing.T) {
	// Physical address, flags, max TMDS, HDMI video present, no 3D,
	// one extended resolution code: 3840x2160p30.
	vsdb := hdmiDB(0x10, 0x00, 0x00, 30, 0x20, 0x00, 0x20, 0x01)

	e, err := Decode(buildEDID(t, ctaBlock(t, [][]byte{vsdb})))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !hasFinding(e, ledger.FAIL, "HDMI VIC 1 requires VIC 95") {
		t.Fatalf("no alias failure: %+v", e.Ledger.Findings())
	}
	if _, ok := findOrigin(e, "HDMI VIC 1"); !ok {
		t.Fatalf("HDMI VIC timing not recorded: %+v", e.Timings)
	}

	e, err = Decode(buildEDID(t, ctaBlock(t, [][]byte{videoDB(95), vsdb})))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if e.Ledger.Failures() != 0 {
		t.Fatalf("failures = %d, want 0: %+v", e.Ledger.Failures(), e.Ledger.Findings())
	}
	if got := e.Blocks[1].CTA.HDMI.HDMIVICs; len(got) != 1 || got[0] != 1 {
		t.Fatalf("HDMI VICs = %v, want [1]", got)
	}
}

func TestCTARequires640(t *testing.T) {
	base := buildBase()
	base[35] = 0 // clear the established 640x480@60 bit
	base[126] = 1
	base[127] = Checksum(base)

	e, err := Decode(append(base, ctaBlock(t, [][]byte{videoDB(16)})...))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !hasFinding(e, ledger.FAIL, "must support 640x480@60") {
		t.Fatalf("no baseline failure: %+v", e.Ledger.Findings())
	}

	e, err = Decode(append(base, ctaBlock(t, [][]byte{videoDB(16, 1)})...))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !e.Conformant {
		t.Fatalf("VIC 1 should satisfy the baseline: %+v", e.Ledger.Findings())
	}
}

func TestCTAHDMIForumOrdering(t *testing.T) {
	hf := dataBlock(ctaTagVendor, 0xd8, 0x5d, 0xc4, 0x01, 40, 0x80, 0x00)
	e, err := Decode(buildEDID(t, ctaBlock(t, [][]byte{hf})))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !hasFinding(e, ledger.FAIL, "without a preceding HDMI VSDB") {
		t.Fatalf("no ordering failure: %+v", e.Ledger.Findings())
	}
	sink := e.Blocks[1].CTA.HDMIForum
	if sink == nil || sink.Version != 1 || sink.MaxTMDSMHz != 200 || !sink.SCDC {
		t.Fatalf("sink capabilities = %+v", sink)
	}

	// A Forum VSDB followed by an SCDB is the same capability set twice.
	cta := ctaBlock(t, [][]byte{
		hdmiDB(0x10, 0x00),
		hf,
		extBlock(extSCDB, 0x01, 40, 0x80, 0x00),
	})
	e, err = Decode(buildEDID(t, cta))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !hasFinding(e, ledger.FAIL, "duplicate HDMI Forum sink capabilities") {
		t.Fatalf("no duplicate failure: %+v", e.Ledger.Findings())
	}
}

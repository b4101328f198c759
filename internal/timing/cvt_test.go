package timing

import "testing"

func TestCVT1080pRB(t *testing.T) {
	got := CalcCVT(&CVTOptions{HAct: 1920, VAct: 1080, RefreshHz: 60, RB: RBCVTv1})

	want := Timing{
		HAct: 1920, VAct: 1080, HRatio: 16, VRatio: 9,
		PixClkKHz: 138500,
		HFP:       48, HSync: 32, HBP: 80,
		VFP: 3, VSync: 5, VBP: 23,
		PosPolHSync: true,
		RB:          RBCVTv1,
	}
	if got != want {
		t.Fatalf("CVT 1920x1080@60 RB = %+v, want %+v", got, want)
	}
	if ht, vt := got.HTotal(), got.VTotal(); ht != 2080 || vt != 1111 {
		t.Fatalf("totals = %dx%v, want 2080x1111", ht, vt)
	}
}

func TestCVT1080pFullBlank(t *testing.T) {
	got := CalcCVT(&CVTOptions{HAct: 1920, VAct: 1080, RefreshHz: 60})
	if got.PixClkKHz != 173000 {
		t.Fatalf("pixel clock = %d kHz, want 173000", got.PixClkKHz)
	}
	if got.HFP != 128 || got.HSync != 200 || got.HBP != 328 {
		t.Fatalf("horizontal blanking = %d/%d/%d, want 128/200/328", got.HFP, got.HSync, got.HBP)
	}
	if got.VFP != 3 || got.VSync != 5 || got.VBP != 32 {
		t.Fatalf("vertical blanking = %d/%d/%d, want 3/5/32", got.VFP, got.VSync, got.VBP)
	}
	if got.PosPolHSync || !got.PosPolVSync {
		t.Fatalf("polarities = %v/%v, want negative/positive", got.PosPolHSync, got.PosPolVSync)
	}
	if got.RB != RBNone {
		t.Fatalf("reduced blanking tag = %d, want none", got.RB)
	}
}

func TestCVTVSyncWidths(t *testing.T) {
	cases := []struct {
		h, v  uint
		rb    uint8
		vsync uint
	}{
		{1600, 1200, RBNone, 4},  // 4:3
		{1920, 1080, RBNone, 5},  // 16:9
		{1920, 1200, RBNone, 6},  // 16:10
		{1280, 1024, RBNone, 7},  // 5:4
		{1280, 768, RBNone, 7},   // 15:9
		{1366, 768, RBNone, 10},  // custom
		{1920, 1080, RBCVTv2, 8},
		{1920, 1080, RBCVTv3, 8},
	}
	for _, c := range cases {
		got := CalcCVT(&CVTOptions{HAct: c.h, VAct: c.v, RefreshHz: 60, RB: c.rb})
		if got.VSync != c.vsync {
			t.Fatalf("%dx%d rb=%d vsync = %d, want %d", c.h, c.v, c.rb, got.VSync, c.vsync)
		}
	}
}

func TestCVTv2(t *testing.T) {
	got := CalcCVT(&CVTOptions{HAct: 1920, VAct: 1080, RefreshHz: 60, RB: RBCVTv2})
	if got.PixClkKHz != 133320 {
		t.Fatalf("pixel clock = %d kHz, want 133320", got.PixClkKHz)
	}
	if got.HFP != 8 || got.HSync != 32 || got.HBP != 40 {
		t.Fatalf("horizontal blanking = %d/%d/%d, want 8/32/40", got.HFP, got.HSync, got.HBP)
	}

	// The video-optimized flag scales the clock by 1000/1001 and is
	// recorded alongside the variant.
	alt := CalcCVT(&CVTOptions{HAct: 1920, VAct: 1080, RefreshHz: 60, RB: RBCVTv2, Alt: true})
	if alt.PixClkKHz != 133186 {
		t.Fatalf("video-optimized clock = %d kHz, want 133186", alt.PixClkKHz)
	}
	if alt.RBVariant() != RBCVTv2 || !alt.RBIsAlt() {
		t.Fatalf("tag = %#x, want v2 with alternate flag", alt.RB)
	}

	// Cell granularity 1: widths no longer snap to multiples of 8.
	wide := CalcCVT(&CVTOptions{HAct: 1366, VAct: 768, RefreshHz: 60, RB: RBCVTv2})
	if wide.HAct != 1366 {
		t.Fatalf("active width = %d, want 1366", wide.HAct)
	}
}

func TestCVTv3HBlank(t *testing.T) {
	std := CalcCVT(&CVTOptions{HAct: 2560, VAct: 1440, RefreshHz: 60, RB: RBCVTv3})
	if std.HBlankPx() != 80 {
		t.Fatalf("v3 hblank = %d, want 80", std.HBlankPx())
	}
	if std.VFP != 1 {
		t.Fatalf("v3 front porch = %d, want 1", std.VFP)
	}
	alt := CalcCVT(&CVTOptions{HAct: 2560, VAct: 1440, RefreshHz: 60, RB: RBCVTv3, Alt: true})
	if alt.HBlankPx() != 160 {
		t.Fatalf("v3 alternate hblank = %d, want 160", alt.HBlankPx())
	}
	if alt.RBVariant() != RBCVTv3 || !alt.RBIsAlt() {
		t.Fatalf("tag = %#x, want v3 with alternate flag", alt.RB)
	}
}

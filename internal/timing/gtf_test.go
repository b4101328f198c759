package timing

import "testing"

func TestGTF640x480(t *testing.T) {
	got := CalcGTF(&GTFOptions{HAct: 640, VAct: 480, Rate: 60, RateType: GTFRateVert})

	want := Timing{
		HAct: 640, VAct: 480, HRatio: 4, VRatio: 3,
		PixClkKHz: 23856,
		HFP:       16, HSync: 64, HBP: 80,
		VFP: 1, VSync: 3, VBP: 13,
		PosPolVSync: true,
	}
	if got != want {
		t.Fatalf("GTF 640x480@60 = %+v, want %+v", got, want)
	}
	if ht := got.HTotal(); ht != 800 {
		t.Fatalf("htotal = %d, want 800", ht)
	}
	if vt := got.VTotal(); vt != 497 {
		t.Fatalf("vtotal = %v, want 497", vt)
	}
}

func TestGTFSecondaryCurve(t *testing.T) {
	got := CalcGTF(&GTFOptions{HAct: 640, VAct: 480, Rate: 60, RateType: GTFRateVert, Secondary: true})
	if got.RB != RBGTF {
		t.Fatalf("secondary curve tag = %d, want %d", got.RB, RBGTF)
	}
	if !got.PosPolHSync || got.PosPolVSync {
		t.Fatalf("secondary curve polarities = %v/%v, want positive/negative", got.PosPolHSync, got.PosPolVSync)
	}
}

func TestGTFDrivingParameters(t *testing.T) {
	byVert := CalcGTF(&GTFOptions{HAct: 640, VAct: 480, Rate: 60, RateType: GTFRateVert})

	// Feeding the realized rates back in must reproduce the same raster.
	byHor := CalcGTF(&GTFOptions{HAct: 640, VAct: 480, Rate: byVert.HorFreqKHz(), RateType: GTFRateHor})
	if byHor.HTotal() != byVert.HTotal() || byHor.VTotal() != byVert.VTotal() {
		t.Fatalf("horizontal-driven totals = %dx%v, want %dx%v",
			byHor.HTotal(), byHor.VTotal(), byVert.HTotal(), byVert.VTotal())
	}

	byClk := CalcGTF(&GTFOptions{HAct: 640, VAct: 480, Rate: float64(byVert.PixClkKHz) / 1000, RateType: GTFRatePixClk})
	if byClk.HTotal() != byVert.HTotal() || byClk.VTotal() != byVert.VTotal() {
		t.Fatalf("clock-driven totals = %dx%v, want %dx%v",
			byClk.HTotal(), byClk.VTotal(), byVert.HTotal(), byVert.VTotal())
	}
}

func TestGTFClockMonotonic(t *testing.T) {
	var last uint32
	for hz := uint(50); hz <= 120; hz += 5 {
		got := CalcGTF(&GTFOptions{HAct: 1024, VAct: 768, Rate: float64(hz), RateType: GTFRateVert})
		if got.PixClkKHz <= last {
			t.Fatalf("pixel clock at %d Hz = %d kHz, not above %d", hz, got.PixClkKHz, last)
		}
		last = got.PixClkKHz
	}
}

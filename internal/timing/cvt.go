package timing

import "math"

// CVTOptions are the inputs to CalcCVT. RefreshHz is the frame rate even
// for interlaced requests. Alt selects the 1000/1001 video-optimized clock
// for RBCVTv2 and the 160 pixel horizontal blank for RBCVTv3.
type CVTOptions struct {
	HAct       uint
	VAct       uint
	RefreshHz  float64
	RB         uint8
	Interlaced bool
	Margins    bool
	Alt        bool
}

const (
	cvtCPrime        = 30.0
	cvtMPrime        = 300.0
	cvtMinVPorch     = 3.0   // lines
	cvtMinVSyncBPUS  = 550.0 // µs
	cvtRBMinVBlankUS = 460.0 // µs
	cvtRBHSync       = 32.0
	cvtMarginPercent = 1.8
)

func cvtVSyncWidth(hact, vact uint, rb uint8) float64 {
	if rb == RBCVTv2 || rb == RBCVTv3 {
		return 8
	}
	switch {
	case vact*4 == hact*3:
		return 4
	case vact*16 == hact*9:
		return 5
	case vact*16 == hact*10:
		return 6
	case vact*5 == hact*4, vact*15 == hact*9:
		return 7
	default:
		return 10
	}
}

// CalcCVT synthesizes a timing with the VESA coordinated video timing
// formula, with or without reduced blanking.
func CalcCVT(o *CVTOptions) Timing {
	cellGran := 8.0
	clockStepKHz := 250.0
	if o.RB == RBCVTv2 {
		cellGran = 1
		clockStepKHz = 1
	} else if o.RB == RBCVTv3 {
		clockStepKHz = 1
	}

	vLines := float64(o.VAct)
	vFieldRate := o.RefreshHz
	interlace := 0.0
	if o.Interlaced {
		vLines = math.Round(vLines / 2)
		vFieldRate *= 2
		interlace = 0.5
	}
	hPixelsRnd := math.Floor(float64(o.HAct)/cellGran) * cellGran

	vMargin, hMargin := 0.0, 0.0
	if o.Margins {
		vMargin = math.Round(cvtMarginPercent / 100 * vLines)
		hMargin = math.Round(hPixelsRnd*cvtMarginPercent/100/cellGran) * cellGran
	}
	totalActive := hPixelsRnd + 2*hMargin

	vSync := cvtVSyncWidth(o.HAct, o.VAct, o.RB)

	t := Timing{
		HAct:       uint(hPixelsRnd),
		VAct:       o.VAct,
		Interlaced: o.Interlaced,
		VSync:      uint(vSync),
		HBorder:    uint(hMargin),
		VBorder:    uint(vMargin),
	}

	if o.RB == RBNone {
		hPeriodEst := (1/vFieldRate - cvtMinVSyncBPUS/1e6) /
			(vLines + 2*vMargin + cvtMinVPorch + interlace) * 1e6
		vSyncBP := math.Floor(cvtMinVSyncBPUS/hPeriodEst) + 1
		if vSyncBP < vSync+6 {
			vSyncBP = vSync + 6
		}
		dutyCycle := cvtCPrime - cvtMPrime*hPeriodEst/1000
		if dutyCycle < 20 {
			dutyCycle = 20
		}
		hBlank := math.Floor(totalActive*dutyCycle/(100-dutyCycle)/(2*cellGran)) *
			2 * cellGran
		totalPixels := totalActive + hBlank
		hSync := math.Floor(0.08*totalPixels/cellGran) * cellGran

		t.PixClkKHz = uint32(math.Floor(totalPixels/hPeriodEst*1000/clockStepKHz) *
			clockStepKHz)
		t.HFP = int(hBlank/2 - hSync)
		t.HSync = uint(hSync)
		t.HBP = int(hBlank / 2)
		t.VFP = uint(cvtMinVPorch)
		t.VBP = int(vSyncBP - vSync)
		t.PosPolVSync = true
		t.CalcRatio()
		return t
	}

	// Reduced blanking.
	hBlank := 80.0
	if o.RB == RBCVTv1 || (o.RB == RBCVTv3 && o.Alt) {
		hBlank = 160
	}
	vFPorch := cvtMinVPorch
	if o.RB == RBCVTv3 {
		vFPorch = 1
	}

	hPeriodEst := (1e6/vFieldRate - cvtRBMinVBlankUS) / (vLines + 2*vMargin)
	vbi := math.Floor(cvtRBMinVBlankUS/hPeriodEst) + 1
	if vbi < vFPorch+vSync+6 {
		vbi = vFPorch + vSync + 6
	}
	totalVLines := vLines + 2*vMargin + vbi + interlace
	totalPixels := totalActive + hBlank

	freqHz := vFieldRate * totalVLines * totalPixels
	if o.RB == RBCVTv2 && o.Alt {
		freqHz *= 1000.0 / 1001.0
	}

	t.PixClkKHz = uint32(math.Floor(freqHz/1000/clockStepKHz) * clockStepKHz)
	t.HFP = int(hBlank/2 - cvtRBHSync)
	t.HSync = uint(cvtRBHSync)
	t.HBP = int(hBlank / 2)
	t.VFP = uint(vFPorch)
	t.VBP = int(vbi - vFPorch - vSync)
	t.PosPolHSync = true
	t.RB = o.RB
	if o.Alt && (o.RB == RBCVTv2 || o.RB == RBCVTv3) {
		t.RB |= RBAlt
	}
	t.CalcRatio()
	return t
}

package timing

import "math"

// Default GTF curve constants. A range descriptor can replace them with a
// secondary curve (start frequency plus C/M/K/J bytes).
const (
	DefaultGTFC = 40.0
	DefaultGTFM = 600.0
	DefaultGTFK = 128.0
	DefaultGTFJ = 20.0
)

// GTFRate selects which rate the caller fixes; the other two follow.
type GTFRate int

const (
	GTFRateVert   GTFRate = iota // Rate is the vertical refresh in Hz
	GTFRateHor                   // Rate is the horizontal frequency in kHz
	GTFRatePixClk                // Rate is the pixel clock in MHz
)

// GTFOptions are the inputs to CalcGTF. A zero M selects the default curve
// constants. Interlaced rates are frame rates; the formula works on fields.
type GTFOptions struct {
	HAct       uint
	VAct       uint
	Rate       float64
	RateType   GTFRate
	Interlaced bool
	Margins    bool
	Secondary  bool

	C, M, K, J float64
}

const (
	gtfCellGran      = 8.0
	gtfMinPorch      = 1.0 // lines
	gtfVSyncRqd      = 3.0 // lines
	gtfHSyncPercent  = 8.0
	gtfMinVSyncBPUS  = 550.0 // µs
	gtfMarginPercent = 1.8
)

// CalcGTF synthesizes a timing with the VESA generalized timing formula.
// The primary curve gives -hsync/+vsync; the secondary curve, used for
// reduced blanking, gives +hsync/-vsync and tags the result RBGTF.
func CalcGTF(o *GTFOptions) Timing {
	c, m, k, j := o.C, o.M, o.K, o.J
	if m == 0 {
		c, m, k, j = DefaultGTFC, DefaultGTFM, DefaultGTFK, DefaultGTFJ
	}
	cPrime := (c-j)*k/256 + j
	mPrime := k / 256 * m

	vLines := float64(o.VAct)
	interlace := 0.0
	if o.Interlaced {
		vLines /= 2
		interlace = 0.5
	}
	hPixelsRnd := math.Round(float64(o.HAct)/gtfCellGran) * gtfCellGran

	topMargin, botMargin := 0.0, 0.0
	horMargin := 0.0
	if o.Margins {
		topMargin = math.Round(gtfMarginPercent / 100 * vLines)
		botMargin = topMargin
		horMargin = math.Round(hPixelsRnd*gtfMarginPercent/100/gtfCellGran) * gtfCellGran
	}
	totalActive := hPixelsRnd + 2*horMargin

	var hPeriod float64 // µs
	var vSyncBP float64 // lines
	switch o.RateType {
	case GTFRateHor:
		hPeriod = 1000 / o.Rate
		vSyncBP = math.Round(o.Rate * gtfMinVSyncBPUS / 1000)
	case GTFRatePixClk:
		// Solve the blanking duty cycle equation for the line period at
		// the requested clock.
		hPeriod = ((cPrime - 100) +
			math.Sqrt((100-cPrime)*(100-cPrime)+0.4*mPrime*totalActive/o.Rate)) /
			(2 * mPrime) * 1000
		vSyncBP = math.Round(gtfMinVSyncBPUS / hPeriod)
	default:
		vFieldRate := o.Rate
		if o.Interlaced {
			vFieldRate *= 2
		}
		hPeriodEst := (1/vFieldRate - gtfMinVSyncBPUS/1e6) /
			(vLines + 2*topMargin + gtfMinPorch + interlace) * 1e6
		vSyncBP = math.Round(gtfMinVSyncBPUS / hPeriodEst)
		totalVLines := vLines + topMargin + botMargin + vSyncBP + interlace + gtfMinPorch
		vFieldRateEst := 1e6 / (hPeriodEst * totalVLines)
		hPeriod = hPeriodEst * vFieldRateEst / vFieldRate
	}

	dutyCycle := cPrime - mPrime*hPeriod/1000
	hBlank := math.Round(totalActive*dutyCycle/(100-dutyCycle)/(2*gtfCellGran)) *
		2 * gtfCellGran
	totalPixels := totalActive + hBlank
	hSync := math.Round(gtfHSyncPercent/100*totalPixels/gtfCellGran) * gtfCellGran
	hFront := hBlank/2 - hSync

	t := Timing{
		HAct:      uint(hPixelsRnd),
		VAct:      o.VAct,
		PixClkKHz: uint32(math.Round(totalPixels / hPeriod * 1000)),

		Interlaced: o.Interlaced,

		HFP:   int(hFront),
		HSync: uint(hSync),
		HBP:   int(hFront + hSync),

		VFP:   uint(gtfMinPorch),
		VSync: uint(gtfVSyncRqd),
		VBP:   int(vSyncBP - gtfVSyncRqd),

		HBorder: uint(horMargin),
		VBorder: uint(topMargin),

		PosPolVSync: true,
	}
	if o.Secondary {
		t.RB = RBGTF
		t.PosPolHSync = true
		t.PosPolVSync = false
	}
	t.CalcRatio()
	return t
}

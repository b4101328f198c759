// Package timing holds the video timing record shared by every producer in
// the decoder: detailed timing descriptors, DisplayID timing blocks, the
// DMT/VIC catalogs and the GTF/CVT synthesis formulas all yield the same
// record type, so equality and range bookkeeping work uniformly.
package timing

// Reduced blanking variants. RBAlt is a modifier bit: for CVT v2 it selects
// the 1000/1001 video-optimized clock, for CVT v3 the 160 pixel fixed blank.
const (
	RBNone  uint8 = 0
	RBGTF   uint8 = 1
	RBCVTv1 uint8 = 2
	RBCVTv2 uint8 = 3
	RBCVTv3 uint8 = 4

	RBAlt uint8 = 1 << 7
)

// Timing is one video timing. For interlaced timings VAct is the frame
// height and the porch/sync values are per field; the odd field adds the
// extra half line unless EvenVTotal is set.
//
// HFP and HBP are signed: GTF can produce a negative front porch for very
// small formats, and keeping the sign preserves blanking sums.
type Timing struct {
	HAct   uint
	VAct   uint
	HRatio uint
	VRatio uint

	PixClkKHz uint32
	RB        uint8

	Interlaced bool

	HFP         int
	HSync       uint
	HBP         int
	PosPolHSync bool

	VFP         uint
	VSync       uint
	VBP         int
	PosPolVSync bool

	HBorder uint
	VBorder uint

	EvenVTotal bool

	HSizeMM uint
	VSizeMM uint

	YCbCr420 bool
}

func gcd(a, b uint) uint {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// ReduceRatio reduces h:v by their greatest common divisor. (0,0) stays
// (0,0) rather than dividing by zero.
func ReduceRatio(h, v uint) (uint, uint) {
	d := gcd(h, v)
	if d == 0 {
		return 0, 0
	}
	return h / d, v / d
}

// CalcRatio fills HRatio/VRatio from the active sizes.
func (t *Timing) CalcRatio() {
	t.HRatio, t.VRatio = ReduceRatio(t.HAct, t.VAct)
}

// RBVariant strips the alternate modifier bit.
func (t *Timing) RBVariant() uint8 {
	return t.RB &^ RBAlt
}

// RBIsAlt reports the alternate modifier bit.
func (t *Timing) RBIsAlt() bool {
	return t.RB&RBAlt != 0
}

// HBlankPx is the total horizontal blanking including both borders.
func (t *Timing) HBlankPx() int {
	return t.HFP + int(t.HSync) + t.HBP + 2*int(t.HBorder)
}

// VBlankLines is the total vertical blanking per field including both
// borders, without the interlace half line.
func (t *Timing) VBlankLines() int {
	return int(t.VFP) + int(t.VSync) + t.VBP + 2*int(t.VBorder)
}

func (t *Timing) HTotal() int {
	return int(t.HAct) + t.HBlankPx()
}

// VTotal is the line count of one vertical period. For interlaced timings
// this is the field total including the odd field's extra half line, except
// when EvenVTotal marks the rare even-total interlaced case.
func (t *Timing) VTotal() float64 {
	vact := float64(t.VAct)
	if t.Interlaced {
		vact /= 2
	}
	total := vact + float64(t.VBlankLines())
	if t.Interlaced && !t.EvenVTotal {
		total += 0.5
	}
	return total
}

// HorFreqKHz is the horizontal frequency in kHz.
func (t *Timing) HorFreqKHz() float64 {
	ht := t.HTotal()
	if ht <= 0 {
		return 0
	}
	return float64(t.PixClkKHz) / float64(ht)
}

// HorFreqHz is the horizontal frequency in Hz.
func (t *Timing) HorFreqHz() float64 {
	return t.HorFreqKHz() * 1000
}

// VertFreqHz is the vertical refresh in Hz. For interlaced timings this is
// the field rate.
func (t *Timing) VertFreqHz() float64 {
	vt := t.VTotal()
	ht := t.HTotal()
	if vt <= 0 || ht <= 0 {
		return 0
	}
	return float64(t.PixClkKHz) * 1000 / (float64(ht) * vt)
}

// WellFormed reports whether the record can drive the shared checks: active
// sizes and sync widths must be nonzero, and the vertical front porch must
// be nonzero unless the timing is interlaced or has an even vertical total.
func (t *Timing) WellFormed() bool {
	if t.HAct == 0 || t.VAct == 0 || t.HSync == 0 || t.VSync == 0 {
		return false
	}
	if t.VFP == 0 && !t.Interlaced && !t.EvenVTotal {
		return false
	}
	return true
}

// ExactMatch compares every signal-defining field: active sizes, ratio,
// pixel clock, all six porch/sync values, both polarities, the reduced
// blanking tag and the interlace flag. Physical size and 4:2:0 capability
// are descriptive, not signal-defining, and are excluded.
func ExactMatch(t1, t2 *Timing) bool {
	if t1.HAct != t2.HAct ||
		t1.VAct != t2.VAct ||
		t1.HRatio != t2.HRatio ||
		t1.VRatio != t2.VRatio ||
		t1.PixClkKHz != t2.PixClkKHz ||
		t1.RB != t2.RB ||
		t1.Interlaced != t2.Interlaced {
		return false
	}
	if t1.HFP != t2.HFP ||
		t1.HSync != t2.HSync ||
		t1.HBP != t2.HBP ||
		t1.PosPolHSync != t2.PosPolHSync {
		return false
	}
	if t1.VFP != t2.VFP ||
		t1.VSync != t2.VSync ||
		t1.VBP != t2.VBP ||
		t1.PosPolVSync != t2.PosPolVSync {
		return false
	}
	return true
}

// CloseMatch reports whether two timings describe the same raster with the
// blanking distributed differently: equal active sizes, interlace, pixel
// clock and total blanking on both axes, while at least one porch, sync
// width or polarity differs. Timings with borders never close-match, and
// identical timings are not "close".
func CloseMatch(t1, t2 *Timing) bool {
	if t1.HBorder != 0 || t1.VBorder != 0 || t2.HBorder != 0 || t2.VBorder != 0 {
		return false
	}
	if t1.HAct != t2.HAct || t1.VAct != t2.VAct ||
		t1.Interlaced != t2.Interlaced ||
		t1.PixClkKHz != t2.PixClkKHz ||
		t1.HFP+int(t1.HSync)+t1.HBP != t2.HFP+int(t2.HSync)+t2.HBP ||
		int(t1.VFP)+int(t1.VSync)+t1.VBP != int(t2.VFP)+int(t2.VSync)+t2.VBP {
		return false
	}
	if t1.HFP == t2.HFP &&
		t1.HSync == t2.HSync &&
		t1.HBP == t2.HBP &&
		t1.PosPolHSync == t2.PosPolHSync &&
		t1.VFP == t2.VFP &&
		t1.VSync == t2.VSync &&
		t1.VBP == t2.VBP &&
		t1.PosPolVSync == t2.PosPolVSync {
		return false
	}
	return true
}

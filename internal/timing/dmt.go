package timing

import "math"

// Row flags for the catalog tables.
const (
	fPosH uint16 = 1 << iota
	fPosV
	fInt
	fEvenVT
	fRBv1
	fRBv2
)

func mode(hact, vact uint, clkKHz uint32, hfp int, hs uint, hbp int, vfp, vs uint, vbp int, f uint16) Timing {
	t := Timing{
		HAct:      hact,
		VAct:      vact,
		PixClkKHz: clkKHz,
		HFP:       hfp,
		HSync:     hs,
		HBP:       hbp,
		VFP:       vfp,
		VSync:     vs,
		VBP:       vbp,
	}
	t.PosPolHSync = f&fPosH != 0
	t.PosPolVSync = f&fPosV != 0
	t.Interlaced = f&fInt != 0
	t.EvenVTotal = f&fEvenVT != 0
	if f&fRBv1 != 0 {
		t.RB = RBCVTv1
	} else if f&fRBv2 != 0 {
		t.RB = RBCVTv2
	}
	return t
}

type dmtEntry struct {
	id byte
	t  Timing
}

// The VESA display monitor timing catalog. Reduced blanking rows keep the
// blanking the standard assigns, which can differ from a fresh CVT
// calculation.
var dmtModes = []dmtEntry{
	{0x01, mode(640, 350, 31500, 32, 64, 96, 32, 3, 60, fPosH)},
	{0x02, mode(640, 400, 31500, 32, 64, 96, 1, 3, 41, fPosV)},
	{0x03, mode(720, 400, 35500, 36, 72, 108, 1, 3, 42, fPosV)},
	{0x04, mode(640, 480, 25175, 16, 96, 48, 10, 2, 33, 0)},
	{0x05, mode(640, 480, 31500, 24, 40, 128, 9, 3, 28, 0)},
	{0x06, mode(640, 480, 31500, 16, 64, 120, 1, 3, 16, 0)},
	{0x07, mode(640, 480, 36000, 56, 56, 80, 1, 3, 25, 0)},
	{0x08, mode(800, 600, 36000, 24, 72, 128, 1, 2, 22, fPosH|fPosV)},
	{0x09, mode(800, 600, 40000, 40, 128, 88, 1, 4, 23, fPosH|fPosV)},
	{0x0a, mode(800, 600, 50000, 56, 120, 64, 37, 6, 23, fPosH|fPosV)},
	{0x0b, mode(800, 600, 49500, 16, 80, 160, 1, 3, 21, fPosH|fPosV)},
	{0x0c, mode(800, 600, 56250, 32, 64, 152, 1, 3, 27, fPosH|fPosV)},
	{0x0d, mode(800, 600, 73250, 48, 32, 80, 3, 4, 29, fPosH|fRBv1)},
	{0x0e, mode(848, 480, 33750, 16, 112, 112, 6, 8, 23, fPosH|fPosV)},
	{0x0f, mode(1024, 768, 44900, 8, 176, 56, 0, 4, 20, fPosH|fPosV|fInt)},
	{0x10, mode(1024, 768, 65000, 24, 136, 160, 3, 6, 29, 0)},
	{0x11, mode(1024, 768, 75000, 24, 136, 144, 3, 6, 29, 0)},
	{0x12, mode(1024, 768, 78750, 16, 96, 176, 1, 3, 28, fPosH|fPosV)},
	{0x13, mode(1024, 768, 94500, 48, 96, 208, 1, 3, 36, fPosH|fPosV)},
	{0x14, mode(1024, 768, 115500, 48, 32, 80, 3, 4, 38, fPosH|fRBv1)},
	{0x15, mode(1152, 864, 108000, 64, 128, 256, 1, 3, 32, fPosH|fPosV)},
	{0x16, mode(1280, 768, 68250, 48, 32, 80, 3, 7, 12, fPosH|fRBv1)},
	{0x17, mode(1280, 768, 79500, 64, 128, 192, 3, 7, 20, fPosV)},
	{0x18, mode(1280, 768, 102250, 80, 128, 208, 3, 7, 27, fPosV)},
	{0x19, mode(1280, 768, 117500, 80, 136, 216, 3, 7, 31, fPosV)},
	{0x1a, mode(1280, 768, 140250, 48, 32, 80, 3, 7, 35, fPosH|fRBv1)},
	{0x1b, mode(1280, 800, 71000, 48, 32, 80, 3, 6, 14, fPosH|fRBv1)},
	{0x1c, mode(1280, 800, 83500, 72, 128, 200, 3, 6, 22, fPosV)},
	{0x1d, mode(1280, 800, 106500, 80, 128, 208, 3, 6, 29, fPosV)},
	{0x1e, mode(1280, 800, 122500, 80, 136, 216, 3, 6, 34, fPosV)},
	{0x1f, mode(1280, 800, 146250, 48, 32, 80, 3, 6, 38, fPosH|fRBv1)},
	{0x20, mode(1280, 960, 108000, 96, 112, 312, 1, 3, 36, fPosH|fPosV)},
	{0x21, mode(1280, 960, 148500, 64, 160, 224, 1, 3, 47, fPosH|fPosV)},
	{0x22, mode(1280, 960, 175500, 48, 32, 80, 3, 4, 50, fPosH|fRBv1)},
	{0x23, mode(1280, 1024, 108000, 48, 112, 248, 1, 3, 38, fPosH|fPosV)},
	{0x24, mode(1280, 1024, 135000, 16, 144, 248, 1, 3, 38, fPosH|fPosV)},
	{0x25, mode(1280, 1024, 157500, 64, 160, 224, 1, 3, 44, fPosH|fPosV)},
	{0x26, mode(1280, 1024, 187250, 48, 32, 80, 3, 7, 50, fPosH|fRBv1)},
	{0x27, mode(1360, 768, 85500, 64, 112, 256, 3, 6, 18, fPosH|fPosV)},
	{0x28, mode(1360, 768, 148250, 48, 32, 80, 3, 5, 37, fPosH|fRBv1)},
	{0x29, mode(1400, 1050, 101000, 48, 32, 80, 3, 4, 23, fPosH|fRBv1)},
	{0x2a, mode(1400, 1050, 121750, 88, 144, 232, 3, 4, 32, fPosV)},
	{0x2b, mode(1400, 1050, 156000, 104, 144, 248, 3, 4, 42, fPosV)},
	{0x2c, mode(1400, 1050, 179500, 104, 152, 256, 3, 4, 48, fPosV)},
	{0x2d, mode(1400, 1050, 208000, 48, 32, 80, 3, 4, 55, fPosH|fRBv1)},
	{0x2e, mode(1440, 900, 88750, 48, 32, 80, 3, 6, 17, fPosH|fRBv1)},
	{0x2f, mode(1440, 900, 106500, 80, 152, 232, 3, 6, 25, fPosV)},
	{0x30, mode(1440, 900, 136750, 96, 152, 248, 3, 6, 33, fPosV)},
	{0x31, mode(1440, 900, 157000, 104, 152, 256, 3, 6, 39, fPosV)},
	{0x32, mode(1440, 900, 182750, 48, 32, 80, 3, 6, 44, fPosH|fRBv1)},
	{0x33, mode(1600, 1200, 162000, 64, 192, 304, 1, 3, 46, fPosH|fPosV)},
	{0x34, mode(1600, 1200, 175500, 64, 192, 304, 1, 3, 46, fPosH|fPosV)},
	{0x35, mode(1600, 1200, 189000, 64, 192, 304, 1, 3, 46, fPosH|fPosV)},
	{0x36, mode(1600, 1200, 202500, 64, 192, 304, 1, 3, 46, fPosH|fPosV)},
	{0x37, mode(1600, 1200, 229500, 64, 192, 304, 1, 3, 46, fPosH|fPosV)},
	{0x38, mode(1600, 1200, 268250, 48, 32, 80, 3, 4, 64, fPosH|fRBv1)},
	{0x39, mode(1680, 1050, 119000, 48, 32, 80, 3, 6, 21, fPosH|fRBv1)},
	{0x3a, mode(1680, 1050, 146250, 104, 176, 280, 3, 6, 30, fPosV)},
	{0x3b, mode(1680, 1050, 187000, 120, 176, 296, 3, 6, 40, fPosV)},
	{0x3c, mode(1680, 1050, 214750, 128, 176, 304, 3, 6, 46, fPosV)},
	{0x3d, mode(1680, 1050, 245500, 48, 32, 80, 3, 6, 53, fPosH|fRBv1)},
	{0x3e, mode(1792, 1344, 204750, 128, 200, 328, 1, 3, 46, fPosV)},
	{0x3f, mode(1792, 1344, 261000, 96, 216, 352, 1, 3, 69, fPosV)},
	{0x40, mode(1792, 1344, 333250, 48, 32, 80, 3, 4, 72, fPosH|fRBv1)},
	{0x41, mode(1856, 1392, 218250, 96, 224, 352, 1, 3, 43, fPosV)},
	{0x42, mode(1856, 1392, 288000, 128, 224, 352, 1, 3, 104, fPosV)},
	{0x43, mode(1856, 1392, 356500, 48, 32, 80, 3, 4, 75, fPosH|fRBv1)},
	{0x44, mode(1920, 1200, 154000, 48, 32, 80, 3, 6, 26, fPosH|fRBv1)},
	{0x45, mode(1920, 1200, 193250, 136, 200, 336, 3, 6, 36, fPosV)},
	{0x46, mode(1920, 1200, 245250, 136, 208, 344, 3, 6, 46, fPosV)},
	{0x47, mode(1920, 1200, 281250, 144, 208, 352, 3, 6, 53, fPosV)},
	{0x48, mode(1920, 1200, 317000, 48, 32, 80, 3, 6, 62, fPosH|fRBv1)},
	{0x49, mode(1920, 1440, 234000, 128, 208, 344, 1, 3, 56, fPosV)},
	{0x4a, mode(1920, 1440, 297000, 144, 224, 352, 1, 3, 56, fPosV)},
	{0x4b, mode(1920, 1440, 380500, 48, 32, 80, 3, 4, 78, fPosH|fRBv1)},
	{0x4c, mode(2560, 1600, 268500, 48, 32, 80, 3, 6, 37, fPosH|fRBv1)},
	{0x4d, mode(2560, 1600, 348500, 192, 280, 472, 3, 6, 49, fPosV)},
	{0x4e, mode(2560, 1600, 443250, 208, 280, 488, 3, 6, 63, fPosV)},
	{0x4f, mode(2560, 1600, 505250, 208, 280, 488, 3, 6, 73, fPosV)},
	{0x50, mode(2560, 1600, 552750, 48, 32, 80, 3, 6, 85, fPosH|fRBv1)},
	{0x51, mode(4096, 2160, 556744, 8, 32, 40, 48, 8, 6, fPosH|fRBv2)},
	{0x52, mode(4096, 2160, 556188, 8, 32, 40, 48, 8, 6, fPosH|fRBv2)},
}

func init() {
	for i := range dmtModes {
		dmtModes[i].t.CalcRatio()
	}
}

// FindDMT looks up a timing by its DMT ID.
func FindDMT(id byte) (Timing, bool) {
	for _, e := range dmtModes {
		if e.id == id {
			return e.t, true
		}
	}
	return Timing{}, false
}

// FindDMTByTiming looks up a DMT by active size and nominal refresh. A
// refresh is considered nominal when the actual field rate is within 1 Hz.
// With rb set only reduced blanking entries match, otherwise only full
// blanking ones.
func FindDMTByTiming(hact, vact, refreshHz uint, rb bool) (Timing, bool) {
	for _, e := range dmtModes {
		if e.t.HAct != hact || e.t.VAct != vact {
			continue
		}
		if (e.t.RBVariant() != RBNone) != rb {
			continue
		}
		if math.Abs(e.t.VertFreqHz()-float64(refreshHz)) < 1 {
			return e.t, true
		}
	}
	return Timing{}, false
}

// FindDMTByStd resolves a standard timing code against the catalog. The
// vertical size named by a standard timing follows from the aspect ratio
// and can disagree with the catalog's by a few lines (848x480 and 1360x768
// are nominally 16:9), so a full blanking candidate within eight lines of
// the requested height still matches.
func FindDMTByStd(hact, vact, refreshHz uint) (Timing, bool) {
	var cand Timing
	n := 0
	for _, e := range dmtModes {
		if e.t.HAct != hact || e.t.RBVariant() != RBNone {
			continue
		}
		if math.Abs(e.t.VertFreqHz()-float64(refreshHz)) >= 1 {
			continue
		}
		if e.t.VAct == vact {
			return e.t, true
		}
		if math.Abs(float64(e.t.VAct)-float64(vact)) <= 8 {
			cand = e.t
			n++
		}
	}
	if n == 1 {
		return cand, true
	}
	return Timing{}, false
}

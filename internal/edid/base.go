package edid

import (
	"fmt"
	"math"
	"strings"

	"example.com/edidgate/internal/timing"
)

func pnpLetters(v uint16) string {
	out := make([]byte, 3)
	for i := 0; i < 3; i++ {
		c := byte(v >> (10 - 5*i) & 0x1f)
		if c == 0 || c > 26 {
			out[i] = '?'
		} else {
			out[i] = 'A' + c - 1
		}
	}
	return string(out)
}

var analogLevelNames = [4]string{"0.700/0.300", "0.714/0.286", "1.000/0.400", "0.700/0.000"}

var srgbChroma = Chromaticity{
	RedX: 0.640, RedY: 0.330,
	GreenX: 0.300, GreenY: 0.600,
	BlueX: 0.150, BlueY: 0.060,
	WhiteX: 0.3127, WhiteY: 0.3290,
}

func chromaCoord(hi, lo byte) float64 {
	return float64(uint(hi)<<2|uint(lo)) / 1024
}

func chromaNear(a, b Chromaticity) bool {
	near := func(x, y float64) bool { return math.Abs(x-y) < 0.01 }
	return near(a.RedX, b.RedX) && near(a.RedY, b.RedY) &&
		near(a.GreenX, b.GreenX) && near(a.GreenY, b.GreenY) &&
		near(a.BlueX, b.BlueX) && near(a.BlueY, b.BlueY) &&
		near(a.WhiteX, b.WhiteX) && near(a.WhiteY, b.WhiteY)
}

func (d *decoder) decodeBase() {
	b := d.data[:BlockSize]
	base := &d.out.Base

	d.out.VersionMajor = int(b[18])
	d.out.VersionMinor = int(b[19])
	d.minor = int(b[19])
	if b[18] != 1 {
		d.led.Fail("unknown EDID version %d.%d", b[18], b[19])
		d.minor = 2
	} else if d.minor > 4 {
		d.led.Warn("unknown EDID revision 1.%d", d.minor)
	}

	v := uint16(b[8])<<8 | uint16(b[9])
	if v&0x8000 != 0 {
		d.led.Fail("PNP id reserved bit set")
	}
	base.Vendor = pnpLetters(v)
	if strings.ContainsRune(base.Vendor, '?') {
		d.led.Fail("invalid PNP id letters")
	}
	base.Product = uint16(b[10]) | uint16(b[11])<<8
	base.Serial = uint32(b[12]) | uint32(b[13])<<8 | uint32(b[14])<<16 | uint32(b[15])<<24

	week := int(b[16])
	base.Year = int(b[17]) + 1990
	switch {
	case week == 0xff:
		base.ModelYear = true
		if d.minor < 4 {
			d.led.Fail("model year flag requires EDID 1.4")
		}
	case week > 53:
		d.led.Fail("invalid week of manufacture %d", week)
	default:
		base.Week = week
	}

	in := b[20]
	base.Digital = in&0x80 != 0
	if base.Digital {
		switch {
		case d.minor >= 4:
			depth := in >> 4 & 0x07
			switch depth {
			case 0:
				// undefined
			case 7:
				d.led.Fail("reserved color depth")
			default:
				base.BitsPerColor = int(depth)*2 + 4
			}
			iface := in & 0x0f
			names := [...]string{"", "DVI", "HDMI-a", "HDMI-b", "MDDI", "DisplayPort"}
			if int(iface) < len(names) {
				base.Interface = names[iface]
			} else {
				d.led.Fail("reserved digital interface 0x%x", iface)
			}
		case d.minor == 3:
			if in&0x7e != 0 {
				d.led.Fail("reserved video input bits set: 0x%02x", in)
			}
			if in&0x01 != 0 {
				base.Interface = "DFP 1.x"
			}
		}
	} else {
		base.AnalogLevels = analogLevelNames[in>>5&0x03]
		base.BlankSetup = in&0x10 != 0
		base.SeparateSync = in&0x08 != 0
		base.CompositeSync = in&0x04 != 0
		base.SyncOnGreen = in&0x02 != 0
		base.SerrationVSync = in&0x01 != 0
	}

	w, h := int(b[21]), int(b[22])
	switch {
	case w > 0 && h > 0:
		base.WidthCm, base.HeightCm = w, h
	case w == 0 && h == 0:
		// size unknown, e.g. a projector
	case d.minor >= 4 && w > 0:
		base.Aspect = float64(w+99) / 100
	case d.minor >= 4:
		base.Aspect = 100 / float64(h+99)
	default:
		d.led.Warn("one image size dimension is zero")
	}

	if b[23] != 0xff {
		base.Gamma = float64(uint(b[23])+100) / 100
	}

	f := b[24]
	base.Standby = f&0x80 != 0
	base.Suspend = f&0x40 != 0
	base.ActiveOff = f&0x20 != 0
	dt := f >> 3 & 0x03
	if base.Digital {
		if d.minor >= 4 {
			base.DisplayType = [4]string{
				"RGB 4:4:4",
				"RGB 4:4:4 + YCrCb 4:4:4",
				"RGB 4:4:4 + YCrCb 4:2:2",
				"RGB 4:4:4 + YCrCb 4:4:4 + YCrCb 4:2:2",
			}[dt]
		}
	} else {
		base.DisplayType = [4]string{"monochrome", "RGB color", "non-RGB color", "undefined"}[dt]
	}
	base.SRGB = f&0x04 != 0
	if d.minor >= 4 {
		base.PreferredIsNative = f&0x02 != 0
		base.ContinuousFreq = f&0x01 != 0
	} else {
		base.HasPreferredTiming = f&0x02 != 0
		if !base.HasPreferredTiming && d.minor == 3 {
			d.led.Warn("the preferred timing bit is required in EDID 1.3")
		}
		base.DefaultGTF = f&0x01 != 0
		if base.DefaultGTF {
			d.gtfSupported = true
		}
	}

	base.Chroma = Chromaticity{
		RedX:   chromaCoord(b[27], b[25]>>6&0x03),
		RedY:   chromaCoord(b[28], b[25]>>4&0x03),
		GreenX: chromaCoord(b[29], b[25]>>2&0x03),
		GreenY: chromaCoord(b[30], b[25]&0x03),
		BlueX:  chromaCoord(b[31], b[26]>>6&0x03),
		BlueY:  chromaCoord(b[32], b[26]>>4&0x03),
		WhiteX: chromaCoord(b[33], b[26]>>2&0x03),
		WhiteY: chromaCoord(b[34], b[26]&0x03),
	}
	if base.SRGB && !chromaNear(base.Chroma, srgbChroma) {
		d.led.Warn("sRGB declared as the default color space but the chromaticities differ")
	}

	for i := uint(0); i < 17; i++ {
		if b[35+i/8]&(0x80>>(i%8)) == 0 {
			continue
		}
		t, ok := timing.FindEstablished(i)
		if !ok {
			continue
		}
		d.record(fmt.Sprintf("EST %dx%d@%.0f", t.HAct, t.VAct, t.VertFreqHz()), t, false, false)
	}
	// byte 37 bits 6-0 are manufacturer reserved timings

	for i := 0; i < 8; i++ {
		d.stdTiming(b[38+2*i], b[39+2*i], fmt.Sprintf("STD %d", i+1))
	}

	for i := 0; i < 4; i++ {
		raw := b[54+18*i : 72+18*i]
		if raw[0] == 0 && raw[1] == 0 {
			if i == 0 && d.minor >= 3 {
				d.led.Fail("the first descriptor must be the preferred timing")
			}
			d.displayDescriptor(raw, i+1)
			continue
		}
		d.dtdIndex++
		pref := i == 0 && (d.minor >= 3 || base.HasPreferredTiming)
		native := i == 0 && d.minor >= 4 && base.PreferredIsNative
		d.dtd(raw, fmt.Sprintf("DTD %d", d.dtdIndex), pref, native)
	}

	if d.minor >= 3 {
		if !d.sawName {
			d.led.Fail("missing display product name descriptor")
		}
		if !d.sawRange {
			if d.minor < 4 {
				d.led.Fail("missing display range limits descriptor")
			} else if base.ContinuousFreq {
				d.led.Fail("continuous frequency display without a range limits descriptor")
			}
		}
	}
}

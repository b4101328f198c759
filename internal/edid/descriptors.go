package edid

import (
	"bytes"
	"fmt"
	"strings"

	"example.com/edidgate/internal/timing"
)

// Display descriptor tags.
const (
	descSerial     = 0xff
	descText       = 0xfe
	descRange      = 0xfd
	descName       = 0xfc
	descColorPoint = 0xfb
	descStdTimings = 0xfa
	descColorMgmt  = 0xf9
	descCVTCodes   = 0xf8
	descEstIII     = 0xf7
	descDummy      = 0x10
)

// descString decodes the 13 byte text payload of a display descriptor:
// terminated by 0x0a, padded with spaces.
func (d *decoder) descString(raw []byte, what string) string {
	s := raw[5:18]
	n := bytes.IndexByte(s, 0x0a)
	if n < 0 {
		n = len(s)
	} else {
		for _, c := range s[n+1:] {
			if c != 0x20 {
				d.led.Warn("%s not padded with spaces after the terminator", what)
				break
			}
		}
	}
	var b strings.Builder
	bad := false
	for _, c := range s[:n] {
		if c < 0x20 || c >= 0x7f {
			bad = true
			continue
		}
		b.WriteByte(c)
	}
	if bad {
		d.led.Warn("non-printable characters in %s", what)
	}
	return strings.TrimRight(b.String(), " ")
}

// displayDescriptor dispatches one of the four 18 byte descriptor slots
// when it is not a detailed timing.
func (d *decoder) displayDescriptor(raw []byte, idx int) {
	defer d.led.Scope(fmt.Sprintf("Descriptor %d", idx))()
	if raw[2] != 0 {
		d.led.Fail("reserved byte 2 is 0x%02x", raw[2])
	}
	tag := raw[3]
	if tag != descRange && raw[4] != 0 {
		d.led.Fail("reserved byte 4 is 0x%02x", raw[4])
	}
	switch tag {
	case descSerial:
		s := d.descString(raw, "serial string")
		if d.out.Base.SerialString == "" {
			d.out.Base.SerialString = s
		}
		d.serialStrings = append(d.serialStrings, s)
	case descText:
		d.out.Base.Texts = append(d.out.Base.Texts, d.descString(raw, "text string"))
	case descRange:
		d.rangeLimits(raw)
	case descName:
		s := d.descString(raw, "display name")
		if d.out.Base.DisplayName == "" {
			d.out.Base.DisplayName = s
		} else {
			d.out.Base.DisplayName += " " + s
		}
		d.sawName = true
	case descColorPoint:
		d.colorPoint(raw)
	case descStdTimings:
		for i := 0; i < 6; i++ {
			d.stdTiming(raw[5+2*i], raw[6+2*i], fmt.Sprintf("STD %d", 9+i))
		}
		if raw[17] != 0x0a {
			d.led.Warn("missing 0x0a terminator")
		}
	case descColorMgmt:
		if raw[5] != 0x03 {
			d.led.Warn("unknown color management version 0x%02x", raw[5])
		}
		d.out.Base.HasColorManagement = true
	case descCVTCodes:
		if raw[5] != 0x01 {
			d.led.Warn("unknown CVT code version 0x%02x", raw[5])
		}
		for i := 0; i < 4; i++ {
			d.cvtCode(raw[6+3*i:9+3*i], i+1)
		}
	case descEstIII:
		d.estIII(raw)
	case descDummy:
		for _, c := range raw[5:] {
			if c != 0 {
				d.led.Warn("dummy descriptor is not empty")
				break
			}
		}
	default:
		if tag > 0x0f {
			d.led.Warn("unknown descriptor tag 0x%02x: % x", tag, raw[5:])
		}
		// 0x00..0x0f is reserved for the manufacturer; nothing to decode
	}
}

// rangeLimits decodes the Display Range Limits descriptor (0xfd) and
// stashes the declared envelope for the final containment check.
func (d *decoder) rangeLimits(raw []byte) {
	var vminOff, vmaxOff, hminOff, hmaxOff uint
	off := raw[4]
	if d.minor < 4 {
		if off != 0 {
			d.led.Fail("rate offsets require EDID 1.4, got 0x%02x", off)
		}
	} else {
		if off&0xf0 != 0 {
			d.led.Fail("reserved offset bits set: 0x%02x", off)
		}
		switch off & 0x03 {
		case 1:
			d.led.Fail("reserved vertical rate offset 01")
		case 2:
			vmaxOff = 255
		case 3:
			vminOff, vmaxOff = 255, 255
		}
		switch off >> 2 & 0x03 {
		case 1:
			d.led.Fail("reserved horizontal rate offset 01")
		case 2:
			hmaxOff = 255
		case 3:
			hminOff, hmaxOff = 255, 255
		}
	}
	rl := &RangeLimits{
		VertMinHz: uint(raw[5]) + vminOff,
		VertMaxHz: uint(raw[6]) + vmaxOff,
		HorMinKHz: uint(raw[7]) + hminOff,
		HorMaxKHz: uint(raw[8]) + hmaxOff,
	}
	if raw[5] == 0 || raw[6] == 0 || raw[7] == 0 || raw[8] == 0 {
		d.led.Fail("zero rate bound in range limits")
	}
	if rl.VertMinHz > rl.VertMaxHz {
		d.led.Fail("vertical rate range %d-%d Hz is inverted", rl.VertMinHz, rl.VertMaxHz)
	}
	if rl.HorMinKHz > rl.HorMaxKHz {
		d.led.Fail("horizontal rate range %d-%d kHz is inverted", rl.HorMinKHz, rl.HorMaxKHz)
	}
	if raw[9] == 0 {
		d.led.Fail("max pixel clock 0x00 is reserved")
	}
	rl.MaxPixClkMHz = uint(raw[9]) * 10

	switch raw[10] {
	case 0x00:
		rl.Support = RangeDefaultGTF
		d.gtfSupported = true
		if d.minor >= 4 {
			d.led.Warn("GTF support is deprecated in EDID 1.4")
		}
		d.rangePadding(raw)
	case 0x01:
		rl.Support = RangeLimitsOnly
		if d.minor < 4 {
			d.led.Fail("range-limits-only requires EDID 1.4")
		}
		d.rangePadding(raw)
	case 0x02:
		rl.Support = RangeSecondaryGTF
		d.gtfSupported = true
		if d.minor >= 4 {
			d.led.Warn("GTF support is deprecated in EDID 1.4")
		}
		if raw[11] != 0 {
			d.led.Fail("reserved byte 11 is 0x%02x", raw[11])
		}
		d.secondary = &GTFCurve{
			StartKHz: uint(raw[12]) * 2,
			C:        float64(raw[13]) / 2,
			M:        float64(uint(raw[14]) | uint(raw[15])<<8),
			K:        float64(raw[16]),
			J:        float64(raw[17]) / 2,
		}
		rl.GTF = d.secondary
	case 0x04:
		rl.Support = RangeCVT
		if d.minor < 4 {
			d.led.Fail("CVT support byte requires EDID 1.4")
		}
		rl.CVT = d.cvtSupport(raw, rl)
		d.cvtSupported = true
	default:
		d.led.Fail("unknown timing support byte 0x%02x", raw[10])
	}
	d.rng = rl
	d.out.Base.Range = rl
	d.sawRange = true
}

func (d *decoder) rangePadding(raw []byte) {
	if raw[11] != 0x0a {
		d.led.Warn("missing 0x0a terminator")
		return
	}
	for _, c := range raw[12:] {
		if c != 0x20 {
			d.led.Warn("padding after terminator is not spaces")
			return
		}
	}
}

var cvtAspectNames = []string{"4:3", "16:9", "16:10", "5:4", "15:9"}

func (d *decoder) cvtSupport(raw []byte, rl *RangeLimits) *CVTSupport {
	cs := &CVTSupport{
		Version: fmt.Sprintf("%d.%d", raw[11]>>4, raw[11]&0x0f),
	}
	prec := uint(raw[12] >> 2)
	cs.MaxClockMHz = float64(rl.MaxPixClkMHz) - 0.25*float64(prec)
	cs.MaxActivePerLine = (uint(raw[12]&0x03)<<8 | uint(raw[13])) * 8
	for i, name := range cvtAspectNames {
		if raw[14]&(0x80>>i) != 0 {
			cs.AspectRatios = append(cs.AspectRatios, name)
		}
	}
	if raw[14]&0x07 != 0 {
		d.led.Fail("reserved aspect ratio bits set: 0x%02x", raw[14])
	}
	if p := int(raw[15] >> 5); p < len(cvtAspectNames) {
		cs.PreferredAspect = cvtAspectNames[p]
	} else {
		d.led.Fail("reserved preferred aspect ratio %d", p)
	}
	cs.ReducedBlanking = raw[15]&0x10 != 0
	cs.StandardBlanking = raw[15]&0x08 != 0
	if raw[15]&0x07 != 0 {
		d.led.Fail("reserved blanking support bits set: 0x%02x", raw[15])
	}
	cs.HShrink = raw[16]&0x80 != 0
	cs.HStretch = raw[16]&0x40 != 0
	cs.VShrink = raw[16]&0x20 != 0
	cs.VStretch = raw[16]&0x10 != 0
	if raw[16]&0x0f != 0 {
		d.led.Fail("reserved scaling bits set: 0x%02x", raw[16])
	}
	cs.PreferredRefreshHz = uint(raw[17])
	if raw[17] == 0 {
		d.led.Fail("zero preferred refresh rate")
	}
	return cs
}

// colorPoint decodes the additional white point descriptor (0xfb).
func (d *decoder) colorPoint(raw []byte) {
	for _, p := range [][]byte{raw[5:10], raw[10:15]} {
		if p[0] == 0 {
			continue
		}
		wp := WhitePoint{
			Index: int(p[0]),
			X:     float64(uint(p[2])<<2|uint(p[1]>>2&0x03)) / 1024,
			Y:     float64(uint(p[3])<<2|uint(p[1]&0x03)) / 1024,
		}
		if p[4] != 0xff {
			wp.Gamma = float64(uint(p[4])+100) / 100
		}
		d.out.Base.WhitePoints = append(d.out.Base.WhitePoints, wp)
	}
}

// stdTiming resolves one 2 byte standard timing code: DMT first, then the
// formula the display declares.
func (d *decoder) stdTiming(b1, b2 byte, origin string) {
	if b1 == 0x01 && b2 == 0x01 {
		return
	}
	if b1 == 0 {
		d.led.Fail("%s: byte value 0x00 is reserved", origin)
		return
	}
	hact := (uint(b1) + 31) * 8
	var hr, vr uint
	switch b2 >> 6 {
	case 0:
		if d.minor < 3 {
			hr, vr = 1, 1
		} else {
			hr, vr = 16, 10
		}
	case 1:
		hr, vr = 4, 3
	case 2:
		hr, vr = 5, 4
	case 3:
		hr, vr = 16, 9
	}
	refresh := uint(b2&0x3f) + 60
	vact := hact * vr / hr
	if t, ok := timing.FindDMTByStd(hact, vact, refresh); ok {
		d.record(origin, t, false, false)
		return
	}
	if !d.cvtSupported && !d.gtfSupported {
		d.led.Warn("%s: %dx%d@%d is not a DMT and no formula support is declared",
			origin, hact, vact, refresh)
	}
	t, formula := d.synth(hact, vact, refresh)
	d.record(fmt.Sprintf("%s (%s)", origin, formula), t, false, false)
}

// synth generates a timing for an indirectly declared mode using
// whichever formula the display claims to support, defaulting to GTF.
func (d *decoder) synth(hact, vact, refresh uint) (timing.Timing, string) {
	if d.cvtSupported {
		t := timing.CalcCVT(&timing.CVTOptions{HAct: hact, VAct: vact, RefreshHz: float64(refresh)})
		return t, "CVT"
	}
	o := timing.GTFOptions{HAct: hact, VAct: vact, Rate: float64(refresh), RateType: timing.GTFRateVert}
	t := timing.CalcGTF(&o)
	if d.secondary != nil && t.HorFreqKHz() >= float64(d.secondary.StartKHz) {
		o.Secondary = true
		o.C, o.M, o.K, o.J = d.secondary.C, d.secondary.M, d.secondary.K, d.secondary.J
		return timing.CalcGTF(&o), "GTF secondary"
	}
	return t, "GTF"
}

// cvtCode decodes one 3 byte CVT code from a 0xf8 descriptor.
func (d *decoder) cvtCode(c []byte, idx int) {
	if c[0] == 0 && c[1] == 0 && c[2] == 0 {
		return
	}
	vact := ((uint(c[0]) | uint(c[1]>>4)<<8) + 1) * 2
	var hr, vr uint
	switch c[1] >> 2 & 0x03 {
	case 0:
		hr, vr = 4, 3
	case 1:
		hr, vr = 16, 9
	case 2:
		hr, vr = 16, 10
	case 3:
		hr, vr = 15, 9
	}
	if c[1]&0x03 != 0 {
		d.led.Fail("CVT code %d: reserved bits set in byte 1", idx)
	}
	if c[2]&0x80 != 0 {
		d.led.Fail("CVT code %d: reserved bit set in byte 2", idx)
	}
	hact := vact * hr / vr / 8 * 8
	rates := []struct {
		bit  byte
		hz   uint
		rb   uint8
	}{
		{0x10, 50, timing.RBNone},
		{0x08, 60, timing.RBNone},
		{0x04, 75, timing.RBNone},
		{0x02, 85, timing.RBNone},
		{0x01, 60, timing.RBCVTv1},
	}
	// The preferred rate field names 50/60/75/85 Hz; a preferred 60 Hz
	// is also satisfied by the reduced blanking variant.
	prefBit := byte(0x10) >> (c[2] >> 5 & 0x03)
	if prefBit == 0x08 && c[2]&0x08 == 0 {
		prefBit = 0x01
	}
	if c[2]&prefBit == 0 {
		d.led.Fail("CVT code %d: preferred refresh is not in the supported set", idx)
	}
	for _, r := range rates {
		if c[2]&r.bit == 0 {
			continue
		}
		t := timing.CalcCVT(&timing.CVTOptions{
			HAct: hact, VAct: vact, RefreshHz: float64(r.hz), RB: r.rb,
		})
		origin := fmt.Sprintf("CVT %dx%d@%d", hact, vact, r.hz)
		if r.rb != timing.RBNone {
			origin += " RB"
		}
		d.record(origin, t, r.bit == prefBit, false)
	}
}

// estIII resolves the Established Timings III descriptor (0xf7) bitmap
// to DMT modes.
func (d *decoder) estIII(raw []byte) {
	if raw[5] != 0x0a {
		d.led.Warn("unknown version 0x%02x", raw[5])
	}
	for i := uint(0); i < 44; i++ {
		if raw[6+i/8]&(0x80>>(i%8)) == 0 {
			continue
		}
		id, _ := timing.EstIIIDMT(i)
		t, ok := timing.FindDMT(id)
		if !ok {
			continue
		}
		d.record(fmt.Sprintf("EST III (DMT 0x%02x)", id), t, false, false)
	}
	if raw[11]&0x0f != 0 {
		d.led.Fail("reserved bits set in byte 11")
	}
}

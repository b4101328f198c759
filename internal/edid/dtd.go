package edid

import (
	"example.com/edidgate/internal/timing"
)

// ParseDTD decodes an 18 byte detailed timing descriptor into a timing
// record. It performs no conformance checks; the decode pass validates
// the result. A descriptor whose pixel clock field is zero is a display
// descriptor, not a timing, and reports false.
func ParseDTD(raw []byte) (timing.Timing, bool) {
	var t timing.Timing
	if len(raw) < 18 || (raw[0] == 0 && raw[1] == 0) {
		return t, false
	}
	t.PixClkKHz = (uint32(raw[0]) | uint32(raw[1])<<8) * 10
	t.HAct = uint(raw[2]) | uint(raw[4]>>4)<<8
	hblank := int(raw[3]) | int(raw[4]&0x0f)<<8
	t.VAct = uint(raw[5]) | uint(raw[7]>>4)<<8
	vblank := int(raw[6]) | int(raw[7]&0x0f)<<8
	t.HFP = int(raw[8]) | int(raw[11]>>6)<<8
	t.HSync = uint(raw[9]) | uint(raw[11]>>4&0x03)<<8
	t.VFP = uint(raw[10]>>4) | uint(raw[11]>>2&0x03)<<4
	t.VSync = uint(raw[10]&0x0f) | uint(raw[11]&0x03)<<4
	t.HBP = hblank - t.HFP - int(t.HSync)
	t.VBP = vblank - int(t.VFP) - int(t.VSync)
	t.HSizeMM = uint(raw[12]) | uint(raw[14]>>4)<<8
	t.VSizeMM = uint(raw[13]) | uint(raw[14]&0x0f)<<8
	t.HBorder = uint(raw[15])
	t.VBorder = uint(raw[16])
	flags := raw[17]
	t.Interlaced = flags&0x80 != 0
	if t.Interlaced {
		// the descriptor stores lines per field
		t.VAct *= 2
	}
	switch flags >> 3 & 0x03 {
	case 3: // digital separate syncs
		t.PosPolVSync = flags&0x04 != 0
		t.PosPolHSync = flags&0x02 != 0
	case 2: // digital composite
		t.PosPolHSync = flags&0x02 != 0
	}
	t.CalcRatio()
	return t, true
}

// dtd validates one detailed timing descriptor and records it. The bool
// is false when raw is a display descriptor instead of a timing.
func (d *decoder) dtd(raw []byte, origin string, pref, native bool) (timing.Timing, bool) {
	t, ok := ParseDTD(raw)
	if !ok {
		return t, false
	}
	if t.PixClkKHz < 10000 {
		d.led.Warn("%s: pixel clock %.2f MHz is below the 10 MHz floor", origin, float64(t.PixClkKHz)/1000)
	}
	if !t.WellFormed() {
		switch {
		case t.HAct == 0 || t.VAct == 0:
			d.led.Fail("%s: zero active area %dx%d", origin, t.HAct, t.VAct)
		case t.HSync == 0:
			d.led.Fail("%s: zero horizontal sync width", origin)
		case t.VSync == 0:
			d.led.Fail("%s: zero vertical sync width", origin)
		default:
			d.led.Fail("%s: zero vertical front porch", origin)
		}
	}
	if t.HBP < 0 {
		d.led.Fail("%s: horizontal blanking smaller than front porch plus sync", origin)
	}
	if t.VBP < 0 {
		d.led.Fail("%s: vertical blanking smaller than front porch plus sync", origin)
	}
	if d.out.Base.Digital && raw[17]>>3&0x03 < 2 {
		d.led.Warn("%s: analog sync type on a digital display", origin)
	}
	bw, bh := d.out.Base.WidthCm*10, d.out.Base.HeightCm*10
	if bw > 0 && bh > 0 && t.HSizeMM > 0 && t.VSizeMM > 0 {
		if int(t.HSizeMM) > bw+9 || int(t.VSizeMM) > bh+9 {
			d.led.Warn("%s: image size %dx%d mm exceeds the %dx%d cm display size",
				origin, t.HSizeMM, t.VSizeMM, d.out.Base.WidthCm, d.out.Base.HeightCm)
		}
	}
	d.record(origin, t, pref, native)
	return t, true
}

package edid

import (
	"fmt"
	"strings"

	"example.com/edidgate/internal/timing"
)

// asciiString keeps the printable characters of a raw string payload.
func asciiString(p []byte) string {
	var b strings.Builder
	for _, c := range p {
		if c >= 0x20 && c < 0x7f {
			b.WriteByte(c)
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// DisplayID data block tags. Tags 0x00-0x1f belong to version 1.x
// sections, 0x20-0x7d to version 2.x. A few are shared.
const (
	didTagProduct    = 0x00
	didTagParams     = 0x01
	didTagColor      = 0x02
	didTagTypeI      = 0x03
	didTagTypeII     = 0x04
	didTagTypeIII    = 0x05
	didTagTypeIV     = 0x06
	didTagVESATiming = 0x07
	didTagCTATiming  = 0x08
	didTagRange      = 0x09
	didTagSerial     = 0x0a
	didTagString     = 0x0b
	didTagDevice     = 0x0c
	didTagTransfer   = 0x0e
	didTagInterface  = 0x0f
	didTagStereo     = 0x10
	didTagTypeV      = 0x11
	didTagTiledV1    = 0x12
	didTagTypeVI     = 0x13

	didTagProductV2   = 0x20
	didTagParamsV2    = 0x21
	didTagType7       = 0x22
	didTagType8       = 0x23
	didTagType9       = 0x24
	didTagDynRange    = 0x25
	didTagFeatures    = 0x26
	didTagStereoV2    = 0x27
	didTagTiledV2     = 0x28
	didTagContainerID = 0x29
	didTagType10      = 0x2a
	didTagVendorV2    = 0x7e
	didTagVendor      = 0x7f
	didTagCTAEmbed    = 0x81
)

func didBlockName(tag byte) string {
	switch tag {
	case didTagProduct, didTagProductV2:
		return "Product Identification"
	case didTagParams, didTagParamsV2:
		return "Display Parameters"
	case didTagColor:
		return "Color Characteristics"
	case didTagTypeI:
		return "Type I Timing"
	case didTagTypeII:
		return "Type II Timing"
	case didTagTypeIII:
		return "Type III Timing"
	case didTagTypeIV:
		return "Type IV Timing"
	case didTagVESATiming:
		return "VESA Timing Bitmap"
	case didTagCTATiming:
		return "CTA Timing Bitmap"
	case didTagRange:
		return "Video Timing Range"
	case didTagSerial:
		return "Serial Number"
	case didTagString:
		return "General Purpose String"
	case didTagDevice:
		return "Display Device Data"
	case didTagTransfer:
		return "Transfer Characteristics"
	case didTagInterface:
		return "Display Interface"
	case didTagStereo, didTagStereoV2:
		return "Stereo Interface"
	case didTagTypeV:
		return "Type V Timing"
	case didTagTiledV1, didTagTiledV2:
		return "Tiled Display Topology"
	case didTagTypeVI:
		return "Type VI Timing"
	case didTagType7:
		return "Type VII Timing"
	case didTagType8:
		return "Type VIII Timing"
	case didTagType9:
		return "Type IX Timing"
	case didTagDynRange:
		return "Dynamic Video Timing Range"
	case didTagFeatures:
		return "Display Interface Features"
	case didTagContainerID:
		return "ContainerID"
	case didTagType10:
		return "Type X Timing"
	case didTagVendorV2, didTagVendor:
		return "Vendor-Specific"
	case didTagCTAEmbed:
		return "CTA-861 Data"
	}
	return fmt.Sprintf("Data Block (tag 0x%02x)", tag)
}

func (d *decoder) decodeDisplayID(blk *Block) {
	b := blk.Raw
	info := &DisplayIDInfo{
		VersionMajor: int(b[1] >> 4),
		VersionMinor: int(b[1] & 0x0f),
		SectionSize:  int(b[2]),
		ProductType:  int(b[3]),
		ExtCount:     int(b[4]),
	}
	blk.DisplayID = info
	if info.VersionMajor == 0 {
		d.led.Fail("structure version 0 is reserved")
		return
	}
	if info.SectionSize > BlockSize-7 {
		d.led.Fail("section size %d exceeds the %d payload bytes", info.SectionSize, BlockSize-7)
		info.SectionSize = BlockSize - 7
	}
	v2 := info.VersionMajor >= 2
	maxType := 6
	if v2 {
		maxType = 8
	}
	if info.ProductType > maxType {
		d.led.Warn("unknown product type %d", info.ProductType)
	}

	sum := byte(0)
	for _, c := range b[1 : 5+info.SectionSize+1] {
		sum += c
	}
	if sum != 0 {
		d.led.Fail("section checksum mismatch")
	}

	data := b[5 : 5+info.SectionSize]
	cur := 0
	for cur < len(data) {
		if cur+3 > len(data) {
			for _, c := range data[cur:] {
				if c != 0 {
					d.led.Warn("non-zero section padding")
					break
				}
			}
			break
		}
		tag := data[cur]
		revFlags := data[cur+1]
		n := int(data[cur+2])
		if tag == 0 && revFlags == 0 && n == 0 {
			for _, c := range data[cur:] {
				if c != 0 {
					d.led.Warn("non-zero section padding")
					break
				}
			}
			break
		}
		if cur+3+n > len(data) {
			d.led.Fail("data block length %d exceeds the remaining %d section bytes", n, len(data)-cur-3)
			break
		}
		info.Blocks = append(info.Blocks, DIDBlockHeader{Tag: tag, Revision: int(revFlags & 0x07), Len: n})
		d.didBlock(info, tag, revFlags, data[cur+3:cur+3+n], v2)
		cur += 3 + n
	}
}

func (d *decoder) didBlock(info *DisplayIDInfo, tag, revFlags byte, p []byte, v2 bool) {
	defer d.led.Scope(didBlockName(tag))()
	if v2 && tag < 0x20 && tag != didTagProduct {
		d.led.Fail("tag 0x%02x is not valid in a version 2 section", tag)
		return
	}
	if !v2 && tag >= 0x20 && tag <= 0x7d {
		d.led.Fail("tag 0x%02x is not valid in a version 1 section", tag)
		return
	}
	rev := int(revFlags & 0x07)
	switch tag {
	case didTagProduct, didTagProductV2:
		d.didProduct(info, p)
	case didTagParams:
		d.didParams(info, p)
	case didTagParamsV2:
		d.didParamsV2(info, p)
	case didTagColor:
		d.didColor(info, revFlags, p, false)
	case didTagTransfer:
		d.didColor(info, revFlags, p, true)
	case didTagTypeI:
		for i := 0; i+20 <= len(p); i += 20 {
			t := didDetailed(p[i:i+20], false)
			origin := fmt.Sprintf("Type I timing %d", i/20+1)
			d.validateDetailed(t, origin)
			d.record(origin, t, p[i+3]&0x80 != 0, false)
		}
	case didTagType7:
		for i := 0; i+20 <= len(p); i += 20 {
			t := didDetailed(p[i:i+20], true)
			origin := fmt.Sprintf("Type VII timing %d", i/20+1)
			d.validateDetailed(t, origin)
			d.record(origin, t, false, false)
		}
	case didTagTypeII, didTagTypeV, didTagTypeVI:
		// short-form timings, not expanded into the timing list
	case didTagTypeIII:
		for i := 0; i+3 <= len(p); i += 3 {
			d.didTypeIII(p[i:i+3], rev, i/3+1)
		}
	case didTagTypeIV, didTagType8:
		d.didCodes(tag, revFlags, p)
	case didTagType9:
		for i := 0; i+6 <= len(p); i += 6 {
			d.didTypeIX(p[i:i+6], i/6+1)
		}
	case didTagVESATiming:
		for i := 0; i < len(p)*8 && i < 44; i++ {
			if p[i/8]&(0x01<<(i%8)) == 0 {
				continue
			}
			t, ok := timing.FindDMT(byte(i + 1))
			if !ok {
				d.led.Warn("no DMT 0x%02x in the timing catalog", i+1)
				continue
			}
			d.record(fmt.Sprintf("DMT 0x%02x", i+1), t, false, false)
		}
	case didTagCTATiming:
		for i := 0; i < len(p)*8; i++ {
			if p[i/8]&(0x01<<(i%8)) == 0 {
				continue
			}
			vic := i + 1
			t, ok := timing.FindVIC(byte(vic))
			if !ok {
				d.led.Warn("VIC %d is not in the timing catalog", vic)
				continue
			}
			d.record(fmt.Sprintf("VIC %d", vic), t, false, false)
		}
	case didTagRange, didTagDynRange:
		d.didRange(info, p)
	case didTagSerial, didTagString:
		info.Strings = append(info.Strings, asciiString(p))
	case didTagDevice:
		// device technology details carry no conformance rules
	case didTagInterface:
		if len(p) >= 1 {
			info.Interface = &DIDInterface{
				Type:    int(p[0] >> 4),
				Links:   int(p[0] & 0x0f),
				Version: rev,
			}
		}
	case didTagStereo, didTagStereoV2:
		if len(p) >= 1 {
			info.StereoCode = int(p[0])
		}
	case didTagTiledV1, didTagTiledV2:
		d.didTiled(info, p)
	case didTagFeatures:
		d.didFeatures(info, p)
	case didTagContainerID:
		if len(p) < 16 {
			d.led.Fail("length %d, want 16", len(p))
			return
		}
		info.ContainerID = fmt.Sprintf("%x-%x-%x-%x-%x", p[0:4], p[4:6], p[6:8], p[8:10], p[10:16])
	case didTagVendor, didTagVendorV2:
		if len(p) < 3 {
			d.led.Fail("shorter than the 3 byte OUI")
			return
		}
		oui := uint32(p[0])<<16 | uint32(p[1])<<8 | uint32(p[2])
		info.Vendors = append(info.Vendors, VendorData{OUI: oui, Data: append([]byte(nil), p[3:]...)})
	case didTagCTAEmbed:
		if info.CTA == nil {
			info.CTA = &CTAInfo{}
		}
		d.ctaDataBlocks(info.CTA, p, false)
	default:
		d.led.Warn("unknown data block tag 0x%02x: % x", tag, p)
	}
}

// didDetailed decodes the 20 byte detailed timing record shared by the
// Type I and Type VII blocks. Type VII stores the pixel clock in kHz
// units and repurposes the preferred bit as the 4:2:0 flag.
func didDetailed(rec []byte, typeVII bool) timing.Timing {
	var t timing.Timing
	clk := uint32(rec[0]) | uint32(rec[1])<<8 | uint32(rec[2])<<16
	if typeVII {
		t.PixClkKHz = clk + 1
	} else {
		t.PixClkKHz = (clk + 1) * 10
	}
	fl := rec[3]
	t.Interlaced = fl&0x10 != 0
	switch fl & 0x0f {
	case 0:
		t.HRatio, t.VRatio = 1, 1
	case 1:
		t.HRatio, t.VRatio = 5, 4
	case 2:
		t.HRatio, t.VRatio = 4, 3
	case 3:
		t.HRatio, t.VRatio = 15, 9
	case 4:
		t.HRatio, t.VRatio = 16, 9
	case 5:
		t.HRatio, t.VRatio = 16, 10
	case 6:
		t.HRatio, t.VRatio = 64, 27
	case 7:
		t.HRatio, t.VRatio = 256, 135
	}
	le := func(off int) uint {
		return uint(rec[off]) | uint(rec[off+1])<<8
	}
	t.HAct = le(4) + 1
	hblank := int(le(6)) + 1
	hfp := int(le(8)&0x7fff) + 1
	t.PosPolHSync = rec[9]&0x80 != 0
	t.HSync = le(10) + 1
	t.HFP = hfp
	t.HBP = hblank - hfp - int(t.HSync)
	t.VAct = le(12) + 1
	vblank := int(le(14)) + 1
	vfp := int(le(16)&0x7fff) + 1
	t.PosPolVSync = rec[17]&0x80 != 0
	t.VSync = le(18) + 1
	t.VFP = uint(vfp)
	t.VBP = vblank - vfp - int(t.VSync)
	if t.Interlaced {
		// stored per field
		t.VAct *= 2
	}
	if typeVII {
		t.YCbCr420 = fl&0x80 != 0
	}
	if t.HRatio == 0 {
		t.CalcRatio()
	}
	return t
}

// validateDetailed applies the well-formedness rules shared with the
// 18 byte detailed timing descriptors.
func (d *decoder) validateDetailed(t timing.Timing, origin string) {
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
}

func (d *decoder) didTypeIII(rec []byte, rev, idx int) {
	pref := rec[0]&0x80 != 0
	var hr, vr uint
	switch rec[0] >> 4 & 0x07 {
	case 0:
		hr, vr = 1, 1
	case 1:
		hr, vr = 5, 4
	case 2:
		hr, vr = 4, 3
	case 3:
		hr, vr = 15, 9
	case 4:
		hr, vr = 16, 9
	case 5:
		hr, vr = 16, 10
	default:
		d.led.Fail("Type III timing %d: reserved aspect ratio", idx)
		return
	}
	hact := (uint(rec[1]) + 1) * 8
	vact := hact * vr / hr
	rb := rec[2]&0x80 != 0
	rate := float64(rec[2]&0x7f) + 1

	var t timing.Timing
	if rev == 0 {
		t = timing.CalcGTF(&timing.GTFOptions{
			HAct: hact, VAct: vact, Rate: rate,
			RateType: timing.GTFRateVert, Secondary: rb,
		})
	} else {
		var v uint8
		if rb {
			v = timing.RBCVTv1
		}
		t = timing.CalcCVT(&timing.CVTOptions{
			HAct: hact, VAct: vact, RefreshHz: rate, RB: v,
		})
	}
	d.record(fmt.Sprintf("Type III %dx%d@%.0f", hact, vact, rate), t, pref, false)
}

// didCodes handles the code list blocks: Type IV carries DMT IDs,
// Type VIII carries DMT, VIC or HDMI VIC codes of one or two bytes.
func (d *decoder) didCodes(tag, revFlags byte, p []byte) {
	codeSize := 1
	kind := 0 // DMT
	if tag == didTagType8 {
		if revFlags&0x08 != 0 {
			codeSize = 2
		}
		kind = int(revFlags >> 4 & 0x03)
	}
	for i := 0; i+codeSize <= len(p); i += codeSize {
		code := int(p[i])
		if codeSize == 2 {
			code |= int(p[i+1]) << 8
		}
		if code == 0 || code > 0xff {
			d.led.Fail("timing code %d is out of range", code)
			continue
		}
		var (
			t      timing.Timing
			ok     bool
			origin string
		)
		switch kind {
		case 0:
			t, ok = timing.FindDMT(byte(code))
			origin = fmt.Sprintf("DMT 0x%02x", code)
		case 1:
			t, ok = timing.FindVIC(byte(code))
			origin = fmt.Sprintf("VIC %d", code)
		case 2:
			t, ok = timing.FindHDMIVIC(byte(code))
			origin = fmt.Sprintf("HDMI VIC %d", code)
		default:
			d.led.Fail("reserved code type %d", kind)
			return
		}
		if !ok {
			d.led.Warn("%s is not in the timing catalog", origin)
			continue
		}
		d.record(origin, t, false, false)
	}
}

func (d *decoder) didTypeIX(rec []byte, idx int) {
	var rb uint8
	switch rec[0] & 0x07 {
	case 1:
		rb = timing.RBNone
	case 2:
		rb = timing.RBCVTv1
	case 3:
		rb = timing.RBCVTv2
	case 4:
		rb = timing.RBCVTv3
	default:
		d.led.Fail("Type IX timing %d: reserved timing formula", idx)
		return
	}
	if rec[0]&0x10 != 0 {
		rb |= timing.RBAlt
	}
	hact := (uint(rec[1]) | uint(rec[2])<<8) + 1
	vact := (uint(rec[3]) | uint(rec[4])<<8) + 1
	rate := float64(rec[5]) + 1
	t := timing.CalcCVT(&timing.CVTOptions{
		HAct: hact, VAct: vact, RefreshHz: rate,
		RB: rb &^ timing.RBAlt, Alt: rb&timing.RBAlt != 0,
	})
	d.record(fmt.Sprintf("Type IX %dx%d@%.0f", hact, vact, rate), t, false, false)
}

func (d *decoder) didProduct(info *DisplayIDInfo, p []byte) {
	if len(p) < 12 {
		d.led.Fail("length %d, want at least 12", len(p))
		return
	}
	pr := &DIDProduct{
		Product: uint16(p[3]) | uint16(p[4])<<8,
		Serial:  uint32(p[5]) | uint32(p[6])<<8 | uint32(p[7])<<16 | uint32(p[8])<<24,
		Week:    int(p[9]),
	}
	if p[10] != 0xff {
		pr.Year = int(p[10]) + 2000
	}
	ascii := true
	for _, c := range p[0:3] {
		if c < 'A' || c > 'Z' {
			ascii = false
			break
		}
	}
	if ascii {
		pr.Vendor = string(p[0:3])
	} else {
		pr.Vendor = fmt.Sprintf("%02X-%02X-%02X", p[0], p[1], p[2])
	}
	if n := int(p[11]); n > 0 {
		if 12+n > len(p) {
			d.led.Fail("product name overruns the block")
		} else {
			pr.Name = asciiString(p[12 : 12+n])
		}
	}
	info.Product = pr
}

func (d *decoder) didParams(info *DisplayIDInfo, p []byte) {
	if len(p) < 12 {
		d.led.Fail("length %d, want 12", len(p))
		return
	}
	pa := &DIDParams{
		WidthMM:  float64(uint(p[0])|uint(p[1])<<8) / 10,
		HeightMM: float64(uint(p[2])|uint(p[3])<<8) / 10,
		HPixels:  uint(p[4]) | uint(p[5])<<8,
		VPixels:  uint(p[6]) | uint(p[7])<<8,
		Features: p[8],
	}
	if p[11] != 0xff {
		pa.Gamma = float64(p[11])/100 + 1
	}
	info.Params = pa
}

func (d *decoder) didParamsV2(info *DisplayIDInfo, p []byte) {
	if len(p) < 10 {
		d.led.Fail("length %d, want at least 10", len(p))
		return
	}
	scale := 0.1
	if p[0]&0x80 != 0 {
		scale = 1
	}
	info.Params = &DIDParams{
		WidthMM:  float64(uint(p[1])|uint(p[2])<<8) * scale,
		HeightMM: float64(uint(p[3])|uint(p[4])<<8) * scale,
		HPixels:  uint(p[5]) | uint(p[6])<<8,
		VPixels:  uint(p[7]) | uint(p[8])<<8,
		Features: p[9],
	}
}

// didColor decodes the v1 color characteristics block, which packs
// chromaticity coordinates as 12 bit fractions. Transfer characteristic
// blocks reuse the header layout and must name a color block of the
// same identity.
func (d *decoder) didColor(info *DisplayIDInfo, revFlags byte, p []byte, transfer bool) {
	id := int(revFlags >> 4)
	if transfer {
		if len(p) >= 1 {
			if assoc := int(p[0] >> 4); assoc != 0 && d.ccMask&(1<<assoc) == 0 {
				d.led.Fail("references color characteristics identity %d which is not present", assoc)
			}
		}
		return
	}
	d.ccMask |= 1 << id
	if len(p) < 1 {
		return
	}
	primaries := int(p[0] & 0x07)
	whites := int(p[0] >> 3 & 0x07)
	col := &DIDColor{ID: id}
	cur := 1
	read := func() (XY, bool) {
		if cur+3 > len(p) {
			return XY{}, false
		}
		x := uint(p[cur]) | uint(p[cur+1]&0x0f)<<8
		y := uint(p[cur+1])>>4 | uint(p[cur+2])<<4
		cur += 3
		return XY{X: float64(x) / 4096, Y: float64(y) / 4096}, true
	}
	for i := 0; i < primaries; i++ {
		xy, ok := read()
		if !ok {
			d.led.Fail("chromaticity coordinates overrun the block")
			return
		}
		col.Primaries = append(col.Primaries, xy)
	}
	for i := 0; i < whites; i++ {
		xy, ok := read()
		if !ok {
			d.led.Fail("chromaticity coordinates overrun the block")
			return
		}
		col.WhitePoints = append(col.WhitePoints, xy)
	}
	info.Color = col
}

func (d *decoder) didRange(info *DisplayIDInfo, p []byte) {
	if len(p) < 13 {
		d.led.Fail("length %d, want at least 13", len(p))
		return
	}
	r := &DIDRange{
		PixClkMinKHz: (uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16) * 10,
		PixClkMaxKHz: (uint32(p[3]) | uint32(p[4])<<8 | uint32(p[5])<<16) * 10,
		HorMinKHz:    uint(p[6]),
		HorMaxKHz:    uint(p[7]),
		VertMinHz:    uint(p[10]),
		VertMaxHz:    uint(p[11]),
		Flags:        p[12],
		Seamless:     p[12]&0x80 != 0,
	}
	if r.PixClkMinKHz > r.PixClkMaxKHz {
		d.led.Fail("minimum pixel clock exceeds the maximum")
	}
	if r.HorMinKHz > r.HorMaxKHz || r.VertMinHz > r.VertMaxHz {
		d.led.Fail("minimum rate exceeds the maximum")
	}
	info.Ranges = r
}

func (d *decoder) didTiled(info *DisplayIDInfo, p []byte) {
	if len(p) < 22 {
		d.led.Fail("length %d, want at least 22", len(p))
		return
	}
	ti := &DIDTile{
		Caps:     p[0],
		HTiles:   int(p[1]&0x0f) + 1,
		VTiles:   int(p[1]>>4) + 1,
		HLoc:     int(p[2] & 0x0f),
		VLoc:     int(p[2] >> 4),
		WidthPx:  (uint(p[4]) | uint(p[5])<<8) + 1,
		HeightPx: (uint(p[6]) | uint(p[7])<<8) + 1,
	}
	ascii := true
	for _, c := range p[13:16] {
		if c < 'A' || c > 'Z' {
			ascii = false
			break
		}
	}
	if ascii {
		ti.Vendor = string(p[13:16])
	} else {
		ti.Vendor = fmt.Sprintf("%02X-%02X-%02X", p[13], p[14], p[15])
	}
	if ti.HLoc >= ti.HTiles || ti.VLoc >= ti.VTiles {
		d.led.Fail("tile location %d,%d is outside the %dx%d topology", ti.HLoc, ti.VLoc, ti.HTiles, ti.VTiles)
	}
	info.Tiled = ti
}

func (d *decoder) didFeatures(info *DisplayIDInfo, p []byte) {
	if len(p) < 6 {
		d.led.Fail("length %d, want at least 6", len(p))
		return
	}
	info.Features = &DIDFeatures{
		RGBDepths:      p[0] & 0x7f,
		YCbCr444Depths: p[1] & 0x7f,
		YCbCr422Depths: p[2] & 0x7f,
		YCbCr420Depths: p[3] & 0x7f,
		Min420RateMHz:  int(p[4]) * 74,
		AudioRates:     p[5] & 0x7f,
	}
}

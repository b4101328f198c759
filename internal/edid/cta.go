package edid

import (
	"fmt"
	"math"

	"example.com/edidgate/internal/timing"
)

// CTA-861 data block tags.
const (
	ctaTagAudio    = 1
	ctaTagVideo    = 2
	ctaTagVendor   = 3
	ctaTagSpeaker  = 4
	ctaTagVESADTC  = 5
	ctaTagExtended = 7
)

// Extended tag subtypes.
const (
	extVideoCap    = 0
	extVSVDB       = 1
	extDDDB        = 2
	extColorimetry = 5
	extHDRStatic   = 6
	extHDRDynamic  = 7
	extVFPDB       = 13
	extY420VDB     = 14
	extY420CMDB    = 15
	extVSADB       = 17
	extHDMIAudio   = 18
	extRoom        = 19
	extSpeakerLoc  = 20
	extInfoFrame   = 32
	extT7VTDB      = 34
	extT8VTDB      = 35
	extT10VTDB     = 42
	extEEODB       = 0x78
	extSCDB        = 0x79
)

const (
	ouiHDMI = 0x000c03
	ouiHF   = 0xc45dd8
)

func ctaBlockName(tag byte) string {
	switch tag {
	case ctaTagAudio:
		return "Audio Data Block"
	case ctaTagVideo:
		return "Video Data Block"
	case ctaTagVendor:
		return "Vendor-Specific Data Block"
	case ctaTagSpeaker:
		return "Speaker Allocation Data Block"
	case ctaTagVESADTC:
		return "VESA Display Transfer Characteristic Data Block"
	}
	return fmt.Sprintf("Data Block (tag %d)", tag)
}

func ctaExtName(sub byte) string {
	switch sub {
	case extVideoCap:
		return "Video Capability Data Block"
	case extVSVDB:
		return "Vendor-Specific Video Data Block"
	case extDDDB:
		return "VESA Display Device Data Block"
	case extColorimetry:
		return "Colorimetry Data Block"
	case extHDRStatic:
		return "HDR Static Metadata Data Block"
	case extHDRDynamic:
		return "HDR Dynamic Metadata Data Block"
	case extVFPDB:
		return "Video Format Preference Data Block"
	case extY420VDB:
		return "YCbCr 4:2:0 Video Data Block"
	case extY420CMDB:
		return "YCbCr 4:2:0 Capability Map Data Block"
	case extVSADB:
		return "Vendor-Specific Audio Data Block"
	case extHDMIAudio:
		return "HDMI Audio Data Block"
	case extRoom:
		return "Room Configuration Data Block"
	case extSpeakerLoc:
		return "Speaker Location Data Block"
	case extInfoFrame:
		return "InfoFrame Data Block"
	case extT7VTDB:
		return "Type VII Video Timing Data Block"
	case extT8VTDB:
		return "Type VIII Video Timing Data Block"
	case extT10VTDB:
		return "Type X Video Timing Data Block"
	case extEEODB:
		return "EDID Extension Override Data Block"
	case extSCDB:
		return "HDMI Forum Sink Capability Data Block"
	}
	return fmt.Sprintf("Extended Tag %d", sub)
}

func (d *decoder) decodeCTA(blk *Block) {
	b := blk.Raw
	info := &CTAInfo{Revision: int(b[1])}
	blk.CTA = info
	d.hasCTA = true

	switch {
	case info.Revision == 0 || info.Revision > 3:
		d.led.Fail("unknown CTA-861 revision %d", info.Revision)
		if info.Revision == 0 {
			return
		}
	case info.Revision < 3:
		d.led.Warn("CTA-861 revision %d is deprecated", info.Revision)
	}

	offset := int(b[2])
	if info.Revision >= 2 {
		flags := b[3]
		info.Underscan = flags&0x80 != 0
		info.BasicAudio = flags&0x40 != 0
		info.YCbCr444 = flags&0x20 != 0
		info.YCbCr422 = flags&0x10 != 0
		info.NativeDTDCount = int(flags & 0x0f)
		if info.NativeDTDCount > d.nativeDTDs {
			d.nativeDTDs = info.NativeDTDCount
		}
	}
	switch {
	case offset == 0:
		// no data blocks and no detailed timings
		return
	case offset < 4:
		d.led.Fail("invalid detailed timing offset %d", offset)
		return
	}
	if info.Revision >= 2 && offset > 4 {
		d.ctaDataBlocks(info, b[4:offset], true)
	}

	cur := offset
	for cur+18 <= BlockSize-1 {
		raw := b[cur : cur+18]
		if raw[0] == 0 && raw[1] == 0 {
			for _, c := range b[cur : BlockSize-1] {
				if c != 0 {
					d.led.Warn("non-zero padding after the detailed timings")
					break
				}
			}
			break
		}
		d.dtdIndex++
		info.DTDCount++
		d.ctaVideo = true
		d.dtd(raw, fmt.Sprintf("DTD %d", d.dtdIndex), false, false)
		cur += 18
	}
}

// ctaDataBlocks walks one data block collection. Embedded collections
// (inside a DisplayID section) pass topLevel false.
func (d *decoder) ctaDataBlocks(info *CTAInfo, window []byte, topLevel bool) {
	cur := 0
	first := true
	for cur < len(window) {
		tag := window[cur] >> 5
		n := int(window[cur] & 0x1f)
		if cur+1+n > len(window) {
			d.led.Fail("data block length %d exceeds the remaining %d bytes", n, len(window)-cur-1)
			return
		}
		d.ctaDataBlock(info, tag, window[cur+1:cur+1+n], first && topLevel)
		first = false
		cur += 1 + n
	}
}

func (d *decoder) ctaDataBlock(info *CTAInfo, tag byte, p []byte, first bool) {
	if tag == ctaTagExtended {
		if len(p) == 0 {
			d.led.Fail("empty extended tag data block")
			return
		}
		d.ctaExtended(info, p[0], p[1:], first)
		return
	}
	defer d.led.Scope(ctaBlockName(tag))()
	switch tag {
	case ctaTagAudio:
		d.audioBlock(info, p)
	case ctaTagVideo:
		d.videoBlock(info, p)
	case ctaTagVendor:
		d.vendorBlock(info, p)
	case ctaTagSpeaker:
		d.speakerBlock(info, p)
	case ctaTagVESADTC:
		info.HasDTC = true
	default:
		d.led.Warn("unknown data block tag %d: % x", tag, p)
	}
}

func (d *decoder) audioBlock(info *CTAInfo, p []byte) {
	if len(p)%3 != 0 {
		d.led.Fail("length %d is not a multiple of 3", len(p))
		return
	}
	for i := 0; i+3 <= len(p); i += 3 {
		n := i/3 + 1
		sad := SAD{
			Format:   int(p[i] >> 3 & 0x1f),
			Channels: int(p[i]&0x07) + 1,
			RateMask: p[i+1] & 0x7f,
		}
		if p[i+1]&0x80 != 0 {
			d.led.Fail("SAD %d: reserved sample rate bit set", n)
		}
		switch {
		case sad.Format == 0:
			d.led.Fail("SAD %d: audio format 0 is reserved", n)
			continue
		case sad.Format == 1: // LPCM
			sad.DepthMask = p[i+2] & 0x07
			if p[i+2]&0xf8 != 0 {
				d.led.Fail("SAD %d: reserved LPCM depth bits set", n)
			}
		case sad.Format <= 8:
			sad.MaxKbps = int(p[i+2]) * 8
		case sad.Format == 15:
			sad.ExtFormat = int(p[i+2] >> 3)
			sad.FormatData = p[i+2] & 0x07
		default:
			sad.FormatData = p[i+2]
		}
		info.Audio = append(info.Audio, sad)
	}
}

func (d *decoder) videoBlock(info *CTAInfo, p []byte) {
	for _, v := range p {
		d.ctaVideo = true
		vic := int(v)
		native := false
		switch {
		case vic == 0 || vic == 128 || vic >= 254:
			d.led.Fail("SVD value %d is reserved", vic)
			continue
		case vic >= 129 && vic <= 192:
			vic -= 128
			native = true
		}
		if d.vicSeen[vic] {
			d.led.Fail("duplicate VIC %d", vic)
		} else if d.vic420Seen[vic] {
			d.led.Fail("VIC %d is in both the regular and 4:2:0-only lists", vic)
		}
		d.vicSeen[vic] = true
		info.VICs = append(info.VICs, SVD{VIC: vic, Native: native})
		t, ok := timing.FindVIC(byte(vic))
		if !ok {
			d.led.Warn("VIC %d is not in the timing catalog", vic)
			continue
		}
		d.record(fmt.Sprintf("VIC %d", vic), t, false, native)
	}
}

func (d *decoder) vendorBlock(info *CTAInfo, p []byte) {
	if len(p) < 3 {
		d.led.Fail("shorter than the 3 byte OUI")
		return
	}
	oui := uint32(p[2])<<16 | uint32(p[1])<<8 | uint32(p[0])
	switch oui {
	case ouiHDMI:
		d.hdmiVSDB(info, p[3:])
	case ouiHF:
		if !d.sawHDMIVSDB {
			d.led.Fail("HDMI Forum VSDB without a preceding HDMI VSDB")
		}
		if d.sawHFVSDB || d.sawSCDB {
			d.led.Fail("duplicate HDMI Forum sink capabilities")
		}
		d.sawHFVSDB = true
		info.HDMIForum = d.hfSink(p[3:], false)
	default:
		info.Vendors = append(info.Vendors, VendorData{OUI: oui, Data: append([]byte(nil), p[3:]...)})
	}
}

func latencyMs(v byte) int {
	if v == 0 || v == 0xff {
		return 0
	}
	return (int(v) - 1) * 2
}

func (d *decoder) hdmiVSDB(info *CTAInfo, p []byte) {
	d.sawHDMIVSDB = true
	d.hasHDMI = true
	if len(p) < 2 {
		d.led.Fail("HDMI VSDB shorter than the physical address")
		return
	}
	h := &HDMIVSDB{}
	info.HDMI = h
	nib := [4]byte{p[0] >> 4, p[0] & 0x0f, p[1] >> 4, p[1] & 0x0f}
	h.PhysAddr = fmt.Sprintf("%x.%x.%x.%x", nib[0], nib[1], nib[2], nib[3])
	zero := false
	for _, v := range nib {
		if v == 0 {
			zero = true
		} else if zero {
			d.led.Fail("physical address %s has a zero before a non-zero part", h.PhysAddr)
			break
		}
	}
	if len(p) > 2 {
		fl := p[2]
		h.SupportsAI = fl&0x80 != 0
		h.DC48 = fl&0x40 != 0
		h.DC36 = fl&0x20 != 0
		h.DC30 = fl&0x10 != 0
		h.DCY444 = fl&0x08 != 0
		h.DualDVI = fl&0x01 != 0
		if fl&0x06 != 0 {
			d.led.Fail("reserved flag bits set: 0x%02x", fl)
		}
	}
	if len(p) > 3 {
		h.MaxTMDSMHz = int(p[3]) * 5
	}
	if len(p) <= 4 {
		return
	}
	fl := p[4]
	h.ContentTypes = fl & 0x0f
	latency := fl&0x80 != 0
	ilatency := fl&0x40 != 0
	if ilatency && !latency {
		d.led.Fail("interlaced latency fields without the latency fields")
		ilatency = false
	}
	cur := 5
	if latency {
		if len(p) < cur+2 {
			d.led.Fail("latency fields truncated")
			return
		}
		h.VideoLatencyMs = latencyMs(p[cur])
		h.AudioLatencyMs = latencyMs(p[cur+1])
		cur += 2
	}
	if ilatency {
		if len(p) < cur+2 {
			d.led.Fail("interlaced latency fields truncated")
			return
		}
		h.VideoLatencyIMs = latencyMs(p[cur])
		h.AudioLatencyIMs = latencyMs(p[cur+1])
		cur += 2
	}
	if fl&0x20 == 0 {
		return
	}
	if len(p) < cur+2 {
		d.led.Fail("HDMI video fields truncated")
		return
	}
	h.Has3D = p[cur]&0x80 != 0
	vicLen := int(p[cur+1] >> 5)
	len3D := int(p[cur+1] & 0x1f)
	cur += 2
	if len(p) < cur+vicLen {
		d.led.Fail("HDMI VIC list truncated")
		return
	}
	for i := 0; i < vicLen; i++ {
		code := int(p[cur+i])
		if code == 0 {
			d.led.Fail("HDMI VIC 0 is reserved")
			continue
		}
		h.HDMIVICs = append(h.HDMIVICs, code)
		d.hdmiVICs = append(d.hdmiVICs, code)
		t, ok := timing.FindHDMIVIC(byte(code))
		if !ok {
			d.led.Warn("unknown HDMI VIC %d", code)
			continue
		}
		d.record(fmt.Sprintf("HDMI VIC %d", code), t, false, false)
	}
	cur += vicLen
	if len(p) < cur+len3D {
		d.led.Fail("3D fields truncated")
	}
}

func (d *decoder) hfSink(p []byte, scdb bool) *HFSink {
	h := &HFSink{FromSCDB: scdb}
	if len(p) < 4 {
		d.led.Fail("HDMI Forum capabilities truncated")
		return h
	}
	h.Version = int(p[0])
	if h.Version != 1 {
		d.led.Warn("unknown HDMI Forum version %d", h.Version)
	}
	h.MaxTMDSMHz = int(p[1]) * 5
	h.SCDC = p[2]&0x80 != 0
	h.SCDCRR = p[2]&0x40 != 0
	h.LTE340 = p[2]&0x08 != 0
	h.MaxFRLRate = int(p[3] >> 4)
	h.DC48_420 = p[3]&0x04 != 0
	h.DC36_420 = p[3]&0x02 != 0
	h.DC30_420 = p[3]&0x01 != 0
	if len(p) > 4 {
		h.ALLM = p[4]&0x02 != 0
	}
	if len(p) > 6 {
		h.VRRMinHz = int(p[5] & 0x3f)
		h.VRRMaxHz = int(p[5]>>6)<<8 | int(p[6])
	}
	if len(p) > 7 {
		h.DSC12 = p[7]&0x80 != 0
	}
	if h.SCDCRR && !h.SCDC {
		d.led.Fail("SCDC read request without SCDC support")
	}
	return h
}

func (d *decoder) speakerBlock(info *CTAInfo, p []byte) {
	if len(p) != 3 {
		d.led.Fail("length %d, want 3", len(p))
		return
	}
	info.Speakers = uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16
	if p[2] != 0 || p[1]&0xf8 != 0 {
		d.led.Fail("reserved speaker bits set")
	}
}

func (d *decoder) ctaExtended(info *CTAInfo, sub byte, p []byte, first bool) {
	defer d.led.Scope(ctaExtName(sub))()
	switch sub {
	case extVideoCap:
		if len(p) < 1 {
			d.led.Fail("empty payload")
			return
		}
		info.VideoCap = &VideoCap{
			QuantYCCSelectable: p[0]&0x80 != 0,
			QuantRGBSelectable: p[0]&0x40 != 0,
			PTBehavior:         int(p[0] >> 4 & 0x03),
			ITBehavior:         int(p[0] >> 2 & 0x03),
			CEBehavior:         int(p[0] & 0x03),
		}
	case extVSVDB, extVSADB:
		if len(p) < 3 {
			d.led.Fail("shorter than the 3 byte OUI")
			return
		}
		oui := uint32(p[2])<<16 | uint32(p[1])<<8 | uint32(p[0])
		info.Vendors = append(info.Vendors, VendorData{OUI: oui, Data: append([]byte(nil), p[3:]...)})
	case extDDDB:
		// display device details carry no conformance rules of their own
	case extColorimetry:
		if len(p) < 2 {
			d.led.Fail("length %d, want 2", len(p))
			return
		}
		info.Colorimetry = &Colorimetry{Mask: uint16(p[0]) | uint16(p[1])<<8}
	case extHDRStatic:
		d.hdrStatic(info, p)
	case extHDRDynamic:
		d.hdrDynamic(info, p)
	case extVFPDB:
		d.vfpdb(info, p)
	case extY420VDB:
		d.y420VDB(info, p)
	case extY420CMDB:
		d.y420CMDB(info, p)
	case extHDMIAudio:
		info.HasHDMIAudio = true
	case extRoom:
		if len(p) >= 1 {
			info.SpeakerCount = int(p[0]&0x1f) + 1
		}
	case extSpeakerLoc:
		info.SpeakerLocs = len(p) / 2
	case extInfoFrame:
		d.infoFrameBlock(info, p)
	case extT7VTDB:
		if len(p) < 21 {
			d.led.Fail("length %d, want 21", len(p))
			return
		}
		t := didDetailed(p[1:21], true)
		d.validateDetailed(t, "Type VII timing")
		d.record("Type VII timing", t, false, false)
	case extT8VTDB, extT10VTDB:
		// tracked for preference references, contents not modeled
	case extEEODB:
		if len(p) != 1 {
			d.led.Fail("length %d, want 1", len(p))
			return
		}
		info.OverrideBlocks = int(p[0])
		if !first || d.curBlock != 1 {
			d.led.Fail("must be the first data block of the first extension")
		}
		if int(d.data[126]) != 1 {
			d.led.Fail("requires a declared extension count of 1, got %d", d.data[126])
		}
	case extSCDB:
		if d.sawHFVSDB || d.sawSCDB {
			d.led.Fail("duplicate HDMI Forum sink capabilities")
		}
		d.sawSCDB = true
		info.HDMIForum = d.hfSink(p, true)
	default:
		d.led.Warn("unknown extended tag %d: % x", sub, p)
	}
}

func (d *decoder) hdrStatic(info *CTAInfo, p []byte) {
	if len(p) < 2 {
		d.led.Fail("length %d, want at least 2", len(p))
		return
	}
	hs := &HDRStatic{EOTFMask: p[0] & 0x3f, SMMask: p[1]}
	if p[0]&0xc0 != 0 {
		d.led.Fail("reserved EOTF bits set: 0x%02x", p[0])
	}
	if len(p) > 2 && p[2] > 0 {
		hs.MaxLumCdM2 = 50 * math.Pow(2, float64(p[2])/32)
	}
	if len(p) > 3 && p[3] > 0 {
		hs.MaxFALLCdM2 = 50 * math.Pow(2, float64(p[3])/32)
	}
	if len(p) > 4 && p[4] > 0 && hs.MaxLumCdM2 > 0 {
		f := float64(p[4]) / 255
		hs.MinLumCdM2 = hs.MaxLumCdM2 * f * f / 100
	}
	info.HDRStatic = hs
}

func (d *decoder) hdrDynamic(info *CTAInfo, p []byte) {
	cur := 0
	for cur < len(p) {
		n := int(p[cur])
		if n < 2 || cur+1+n > len(p) {
			d.led.Fail("metadata descriptor overruns the block")
			return
		}
		md := HDRDynamic{Type: uint16(p[cur+1]) | uint16(p[cur+2])<<8}
		if n > 2 {
			md.Version = int(p[cur+3] & 0x0f)
		}
		info.HDRDynamic = append(info.HDRDynamic, md)
		cur += 1 + n
	}
}

func (d *decoder) vfpdb(info *CTAInfo, p []byte) {
	for _, v := range p {
		svr := int(v)
		info.Preference = append(info.Preference, svr)
		switch {
		case svr == 0 || svr == 128 || svr == 255 || (svr >= 161 && svr <= 192):
			d.led.Fail("SVR %d is reserved", svr)
		case svr >= 129 && svr <= 144:
			if k := svr - 128; k > d.dtdTotal {
				d.led.Fail("SVR %d references DTD %d but the EDID has %d", svr, k, d.dtdTotal)
			}
		case svr >= 145 && svr <= 160:
			if n := svr - 144; n > d.didTimings {
				d.led.Fail("SVR %d references DisplayID timing %d but the EDID has %d", svr, n, d.didTimings)
			}
		case svr == 254:
			if !d.hasT8VTDB {
				d.led.Fail("SVR 254 without a Type VIII timing data block")
			}
		default:
			if !timing.VICAssigned(byte(svr)) {
				d.led.Warn("SVR %d names an unassigned VIC", svr)
			}
		}
	}
}

func (d *decoder) y420VDB(info *CTAInfo, p []byte) {
	for _, v := range p {
		d.ctaVideo = true
		vic := int(v)
		if vic == 0 || vic >= 254 || (vic >= 128 && vic <= 192) {
			d.led.Fail("SVD value %d is reserved in a 4:2:0-only list", vic)
			continue
		}
		if d.vic420Seen[vic] {
			d.led.Fail("duplicate 4:2:0-only VIC %d", vic)
		} else if d.vicSeen[vic] {
			d.led.Fail("VIC %d is in both the regular and 4:2:0-only lists", vic)
		}
		d.vic420Seen[vic] = true
		info.VICs420 = append(info.VICs420, vic)
		t, ok := timing.FindVIC(byte(vic))
		if !ok {
			d.led.Warn("VIC %d is not in the timing catalog", vic)
			continue
		}
		t.YCbCr420 = true
		d.record(fmt.Sprintf("VIC %d (4:2:0)", vic), t, false, false)
	}
}

func (d *decoder) y420CMDB(info *CTAInfo, p []byte) {
	if len(p) == 0 {
		info.Cap420All = true
		return
	}
	for i := 0; i < len(p)*8; i++ {
		if p[i/8]&(1<<(i%8)) == 0 {
			continue
		}
		if i >= len(d.svds) {
			d.led.Fail("capability map bit %d exceeds the %d announced SVDs", i, len(d.svds))
			break
		}
		info.Cap420 = append(info.Cap420, d.svds[i])
	}
}

func (d *decoder) infoFrameBlock(info *CTAInfo, p []byte) {
	if len(p) < 2 {
		d.led.Fail("processing descriptor truncated")
		return
	}
	skip := int(p[0] >> 5)
	ifr := &InfoFrames{Simultaneous: int(p[1]) + 1}
	cur := 2 + skip
	for cur < len(p) {
		typ := int(p[cur] & 0x1f)
		n := int(p[cur] >> 5)
		cur++
		if typ == 1 {
			// vendor specific InfoFrames carry an OUI
			n += 3
		}
		if cur+n > len(p) {
			d.led.Fail("InfoFrame descriptor overruns the block")
			break
		}
		ifr.Types = append(ifr.Types, typ)
		cur += n
	}
	info.InfoFrames = ifr
}

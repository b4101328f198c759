package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"example.com/edidgate/internal/common"
	"example.com/edidgate/internal/dict"
	"example.com/edidgate/internal/edid"
	"example.com/edidgate/internal/timing"
)

// WriteText renders the decoded model as a human readable report: identity
// from the base block, per extension block details, the collected timings
// with their computed rates, findings grouped by attribution label and the
// verdict summary.
func WriteText(w io.Writer, e *edid.EDID, vendors *dict.Store, tr Translator) error {
	bw := bufio.NewWriter(w)
	r := textRenderer{w: bw, tr: tr, vendors: vendors}
	r.header(e)
	r.base(e)
	r.blocks(e)
	r.timings(e)
	r.findings(e)
	r.summary(e)
	return bw.Flush()
}

type textRenderer struct {
	w       *bufio.Writer
	tr      Translator
	vendors *dict.Store
}

func (r *textRenderer) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.w, format, args...)
}

func (r *textRenderer) section(key string) {
	r.printf("\n%s\n", r.tr.T(key))
}

// pairs collects label/value rows and prints them aligned on the longest
// label. Rows with empty values are dropped.
type pairs struct {
	rows [][2]string
}

func (p *pairs) add(label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	p.rows = append(p.rows, [2]string{label, value})
}

func (p *pairs) writeTo(r *textRenderer) {
	width := 0
	for _, row := range p.rows {
		if n := utf8.RuneCountInString(row[0]); n > width {
			width = n
		}
	}
	for _, row := range p.rows {
		pad := width - utf8.RuneCountInString(row[0])
		r.printf("  %s:%s %s\n", row[0], strings.Repeat(" ", pad+1), row[1])
	}
}

func (r *textRenderer) header(e *edid.EDID) {
	r.printf("%s\n", r.tr.T("report.title"))
	var p pairs
	p.add(r.tr.T("label.source"), e.SourceName)
	if len(e.Raw) > 0 {
		p.add(r.tr.T("label.digest"), common.Sha256OfBytes(e.Raw))
		p.add(r.tr.T("label.size"), r.tr.Format("format.size", len(e.Raw), len(e.Blocks)))
	}
	p.writeTo(r)
}

func (r *textRenderer) base(e *edid.EDID) {
	r.section("section.base")
	b := &e.Base
	var p pairs
	p.add(r.tr.T("label.vendor"), vendorLabel(r.vendors, b.Vendor))
	p.add(r.tr.T("label.product"), fmt.Sprintf("0x%04X", b.Product))
	if b.Serial != 0 {
		p.add(r.tr.T("label.serial"), strconv.FormatUint(uint64(b.Serial), 10))
	}
	p.add(r.tr.T("label.serial_string"), b.SerialString)
	p.add(r.tr.T("label.display_name"), b.DisplayName)
	p.add(r.tr.T("label.manufactured"), manufacturedLabel(r.tr, b))
	p.add(r.tr.T("label.edid_version"), fmt.Sprintf("%d.%d", e.VersionMajor, e.VersionMinor))
	p.add(r.tr.T("label.video_input"), videoInputLabel(r.tr, b))
	p.add(r.tr.T("label.screen_size"), screenLabel(b))
	if b.Gamma > 0 {
		p.add(r.tr.T("label.gamma"), fmt.Sprintf("%.2f", b.Gamma))
	}
	if b.Range != nil {
		p.add(r.tr.T("label.range_limits"), rangeLabel(b.Range))
	}
	p.writeTo(r)
}

func (r *textRenderer) blocks(e *edid.EDID) {
	if len(e.Blocks) < 2 {
		return
	}
	r.section("section.blocks")
	for _, blk := range e.Blocks[1:] {
		sum := r.tr.T("checksum.ok")
		if !blk.ChecksumOK {
			sum = r.tr.T("checksum.bad")
		}
		r.printf("  %s %d: %s (%s)\n", r.tr.T("label.block"), blk.Index, blk.Name, sum)
		switch {
		case blk.CTA != nil:
			r.cta(blk.CTA)
		case blk.DisplayID != nil:
			r.displayID(blk.DisplayID)
		case blk.VTB != nil:
			r.printf("    %s\n", r.tr.Format("format.vtb", blk.VTB.DTDs, blk.VTB.CVTCodes, blk.VTB.StdCodes))
		case blk.BlockMap != nil:
			r.printf("    %s\n", r.tr.Format("format.block_map", tagsLabel(blk.BlockMap.Tags)))
		}
	}
}

func (r *textRenderer) cta(c *edid.CTAInfo) {
	line := fmt.Sprintf("CTA-861 revision %d", c.Revision)
	flags := make([]string, 0, 4)
	if c.Underscan {
		flags = append(flags, "underscan")
	}
	if c.BasicAudio {
		flags = append(flags, "basic audio")
	}
	if c.YCbCr444 {
		flags = append(flags, "YCbCr 4:4:4")
	}
	if c.YCbCr422 {
		flags = append(flags, "YCbCr 4:2:2")
	}
	if len(flags) > 0 {
		line += ", " + strings.Join(flags, ", ")
	}
	r.printf("    %s\n", line)
	if len(c.VICs) > 0 {
		r.printf("    VICs: %s\n", svdLabel(c.VICs))
	}
	if len(c.VICs420) > 0 {
		r.printf("    VICs (4:2:0 only): %s\n", intsLabel(c.VICs420))
	}
	if c.Cap420All {
		r.printf("    4:2:0 capable: all SVDs\n")
	} else if len(c.Cap420) > 0 {
		r.printf("    4:2:0 capable: %s\n", intsLabel(c.Cap420))
	}
	if len(c.Audio) > 0 {
		r.printf("    audio: %s\n", sadLabel(c.Audio))
	}
	if c.Speakers != 0 {
		r.printf("    speaker allocation 0x%06X\n", c.Speakers)
	}
	if c.HDMI != nil {
		r.printf("    HDMI: %s\n", hdmiLabel(c.HDMI))
	}
	if c.HDMIForum != nil {
		r.printf("    HDMI Forum: %s\n", hfLabel(c.HDMIForum))
	}
	if c.HDRStatic != nil {
		r.printf("    HDR: %s\n", hdrLabel(c.HDRStatic))
	}
	for _, v := range c.Vendors {
		r.printf("    vendor block: %s, %d bytes\n", r.vendors.OUIName(v.OUI), len(v.Data))
	}
}

func (r *textRenderer) displayID(d *edid.DisplayIDInfo) {
	r.printf("    DisplayID %d.%d, product type %d, %d data blocks\n",
		d.VersionMajor, d.VersionMinor, d.ProductType, len(d.Blocks))
	if d.Product != nil {
		line := fmt.Sprintf("%s 0x%04X", vendorLabel(r.vendors, d.Product.Vendor), d.Product.Product)
		if d.Product.Name != "" {
			line += " " + d.Product.Name
		}
		r.printf("    product: %s\n", line)
	}
	if d.Tiled != nil {
		r.printf("    tile: %dx%d at %d,%d\n", d.Tiled.HTiles, d.Tiled.VTiles, d.Tiled.HLoc, d.Tiled.VLoc)
	}
	if d.ContainerID != "" {
		r.printf("    container id: %s\n", d.ContainerID)
	}
	if d.CTA != nil {
		r.cta(d.CTA)
	}
}

func (r *textRenderer) timings(e *edid.EDID) {
	if len(e.Timings) == 0 {
		return
	}
	r.section("section.timings")
	for _, te := range e.Timings {
		r.printf("  %s\n", timingLine(r.tr, te))
	}
}

func (r *textRenderer) findings(e *edid.EDID) {
	r.section("section.findings")
	if len(e.Report.Findings) == 0 {
		r.printf("  %s\n", r.tr.T("findings.none"))
		return
	}
	last := ""
	for _, f := range e.Report.Findings {
		if f.Block != last {
			r.printf("  %s\n", f.Block)
			last = f.Block
		}
		r.printf("    %-4s %s\n", string(f.Severity), f.Message)
	}
}

func (r *textRenderer) summary(e *edid.EDID) {
	r.section("section.summary")
	s := e.Report.Summary
	var p pairs
	p.add(r.tr.T("summary.total"), strconv.Itoa(s.Total))
	p.add(r.tr.T("summary.failures"), strconv.Itoa(s.Failures))
	p.add(r.tr.T("summary.warnings"), strconv.Itoa(s.Warnings))
	p.add(r.tr.T("summary.verdict"), verdictLabel(r.tr, s.Conformant))
	p.writeTo(r)
}

func vendorLabel(vendors *dict.Store, code string) string {
	name := vendors.PNPName(code)
	if name == code {
		return code
	}
	return fmt.Sprintf("%s (%s)", code, name)
}

func verdictLabel(tr Translator, conformant bool) string {
	if conformant {
		return tr.T("verdict.pass")
	}
	return tr.T("verdict.fail")
}

func manufacturedLabel(tr Translator, b *edid.BaseInfo) string {
	if b.Year == 0 {
		return ""
	}
	if b.ModelYear {
		return tr.Format("format.model_year", b.Year)
	}
	if b.Week > 0 {
		return tr.Format("format.week_year", b.Week, b.Year)
	}
	return strconv.Itoa(b.Year)
}

func videoInputLabel(tr Translator, b *edid.BaseInfo) string {
	if b.Digital {
		parts := []string{tr.T("label.digital")}
		if b.BitsPerColor > 0 {
			parts = append(parts, tr.Format("format.bpc", b.BitsPerColor))
		}
		if b.Interface != "" {
			parts = append(parts, b.Interface)
		}
		return strings.Join(parts, ", ")
	}
	parts := []string{tr.T("label.analog")}
	if b.AnalogLevels != "" {
		parts = append(parts, b.AnalogLevels)
	}
	return strings.Join(parts, ", ")
}

func screenLabel(b *edid.BaseInfo) string {
	if b.WidthCm > 0 && b.HeightCm > 0 {
		return fmt.Sprintf("%d cm x %d cm", b.WidthCm, b.HeightCm)
	}
	if b.Aspect > 0 {
		return fmt.Sprintf("%.2f:1", b.Aspect)
	}
	return ""
}

func rangeLabel(rl *edid.RangeLimits) string {
	s := fmt.Sprintf("%d-%d Hz, %d-%d kHz", rl.VertMinHz, rl.VertMaxHz, rl.HorMinKHz, rl.HorMaxKHz)
	if rl.MaxPixClkMHz > 0 {
		s += fmt.Sprintf(", %d MHz", rl.MaxPixClkMHz)
	}
	return s + " (" + rl.Support + ")"
}

func timingLine(tr Translator, te edid.TimingEntry) string {
	t := te.T
	mode := fmt.Sprintf("%dx%d", t.HAct, t.VAct)
	if t.Interlaced {
		mode += "i"
	}
	line := fmt.Sprintf("%-24s %-11s %8.3f Hz %9.3f kHz %9.3f MHz",
		te.Origin+":", mode, t.VertFreqHz(), t.HorFreqKHz(), float64(t.PixClkKHz)/1000)
	if flags := timingFlags(tr, te); flags != "" {
		line += "  (" + flags + ")"
	}
	return line
}

func timingFlags(tr Translator, te edid.TimingEntry) string {
	var flags []string
	if te.Preferred {
		flags = append(flags, tr.T("timing.preferred"))
	}
	if te.Native {
		flags = append(flags, tr.T("timing.native"))
	}
	if lbl := rbLabel(te.T.RBVariant(), te.T.RBIsAlt()); lbl != "" {
		flags = append(flags, lbl)
	}
	if te.T.YCbCr420 {
		flags = append(flags, "4:2:0")
	}
	return strings.Join(flags, ", ")
}

func rbLabel(variant uint8, alt bool) string {
	var s string
	switch variant {
	case timing.RBGTF:
		s = "GTF secondary"
	case timing.RBCVTv1:
		s = "RBv1"
	case timing.RBCVTv2:
		s = "RBv2"
	case timing.RBCVTv3:
		s = "RBv3"
	default:
		return ""
	}
	if alt {
		s += " alt"
	}
	return s
}

func svdLabel(svds []edid.SVD) string {
	parts := make([]string, 0, len(svds))
	for _, s := range svds {
		v := strconv.Itoa(s.VIC)
		if s.Native {
			v += "*"
		}
		parts = append(parts, v)
	}
	return strings.Join(parts, " ")
}

func intsLabel(vals []int) string {
	parts := make([]string, 0, len(vals))
	for _, v := range vals {
		parts = append(parts, strconv.Itoa(v))
	}
	return strings.Join(parts, " ")
}

func tagsLabel(tags []int) string {
	parts := make([]string, 0, len(tags))
	for _, v := range tags {
		parts = append(parts, fmt.Sprintf("0x%02x", v))
	}
	return strings.Join(parts, " ")
}

func audioFormatName(format int) string {
	switch format {
	case 1:
		return "LPCM"
	case 2:
		return "AC-3"
	case 3:
		return "MPEG-1"
	case 4:
		return "MP3"
	case 5:
		return "MPEG-2"
	case 6:
		return "AAC LC"
	case 7:
		return "DTS"
	case 8:
		return "ATRAC"
	case 9:
		return "One Bit Audio"
	case 10:
		return "Enhanced AC-3"
	case 11:
		return "DTS-HD"
	case 12:
		return "MAT"
	case 13:
		return "DST"
	case 14:
		return "WMA Pro"
	case 15:
		return "Extension"
	}
	return fmt.Sprintf("format %d", format)
}

func sadLabel(sads []edid.SAD) string {
	parts := make([]string, 0, len(sads))
	for _, s := range sads {
		parts = append(parts, fmt.Sprintf("%s %dch", audioFormatName(s.Format), s.Channels))
	}
	return strings.Join(parts, ", ")
}

func hdmiLabel(h *edid.HDMIVSDB) string {
	parts := []string{"physical address " + h.PhysAddr}
	if h.MaxTMDSMHz > 0 {
		parts = append(parts, fmt.Sprintf("max TMDS %d MHz", h.MaxTMDSMHz))
	}
	if len(h.HDMIVICs) > 0 {
		parts = append(parts, "HDMI VICs "+intsLabel(h.HDMIVICs))
	}
	if h.Has3D {
		parts = append(parts, "3D")
	}
	return strings.Join(parts, ", ")
}

func hfLabel(h *edid.HFSink) string {
	parts := []string{fmt.Sprintf("version %d", h.Version)}
	if h.MaxTMDSMHz > 0 {
		parts = append(parts, fmt.Sprintf("max TMDS %d MHz", h.MaxTMDSMHz))
	}
	if h.MaxFRLRate > 0 {
		parts = append(parts, fmt.Sprintf("FRL rate %d", h.MaxFRLRate))
	}
	if h.SCDC {
		parts = append(parts, "SCDC")
	}
	if h.ALLM {
		parts = append(parts, "ALLM")
	}
	if h.VRRMaxHz > 0 {
		parts = append(parts, fmt.Sprintf("VRR %d-%d Hz", h.VRRMinHz, h.VRRMaxHz))
	}
	return strings.Join(parts, ", ")
}

func hdrLabel(h *edid.HDRStatic) string {
	parts := []string{fmt.Sprintf("EOTF mask 0x%02x", h.EOTFMask)}
	if h.MaxLumCdM2 > 0 {
		parts = append(parts, fmt.Sprintf("max %.1f cd/m2", h.MaxLumCdM2))
	}
	if h.MinLumCdM2 > 0 {
		parts = append(parts, fmt.Sprintf("min %.4f cd/m2", h.MinLumCdM2))
	}
	return strings.Join(parts, ", ")
}

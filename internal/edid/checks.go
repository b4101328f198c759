package edid

import (
	"math"
	"strconv"
	"strings"

	"example.com/edidgate/internal/timing"
)

// check is one document-level rule applied after every block has been
// decoded. The name doubles as the finding attribution label.
type check struct {
	name string
	fn   func()
}

func (d *decoder) finalChecks() {
	checks := []check{
		{"Range limits", d.checkEnvelope},
		{"HDMI extended resolutions", d.checkHDMIVICs},
		{"Serial numbers", d.checkSerials},
		{"Required video format", d.check640},
		{"Block map", d.checkBlockMap},
	}
	for _, c := range checks {
		done := d.led.Scope(c.name)
		c.fn()
		done()
	}
}

// markNatives flags the first n detailed timings of the document as
// native, where n is the largest native count any CTA-861 extension
// declared. The count spans the whole EDID, base block included.
func (d *decoder) markNatives() {
	n := d.nativeDTDs
	if n == 0 {
		return
	}
	for i := range d.out.Timings {
		e := &d.out.Timings[i]
		if !strings.HasPrefix(e.Origin, "DTD ") {
			continue
		}
		if !e.Native {
			e.Native = true
			d.out.Native = append(d.out.Native, *e)
		}
		if n--; n == 0 {
			return
		}
	}
}

// checkEnvelope compares the observed rate envelope against the
// declared range limits. Before EDID 1.4 a timing outside the limits is
// a failure; 1.4 relaxed the limits to a hint, so it only warns.
func (d *decoder) checkEnvelope() {
	r := d.rng
	env := d.led.Envelope()
	if r == nil || !env.Seen {
		return
	}
	report := d.led.Warn
	if d.minor < 4 {
		report = d.led.Fail
	}
	if math.Round(env.MinVertHz) < float64(r.VertMinHz) {
		report("refresh %.3f Hz is below the declared minimum %d Hz", env.MinVertHz, r.VertMinHz)
	}
	if math.Round(env.MaxVertHz) > float64(r.VertMaxHz) {
		report("refresh %.3f Hz is above the declared maximum %d Hz", env.MaxVertHz, r.VertMaxHz)
	}
	if math.Round(env.MinHorKHz) < float64(r.HorMinKHz) {
		report("horizontal frequency %.3f kHz is below the declared minimum %d kHz", env.MinHorKHz, r.HorMinKHz)
	}
	if math.Round(env.MaxHorKHz) > float64(r.HorMaxKHz) {
		report("horizontal frequency %.3f kHz is above the declared maximum %d kHz", env.MaxHorKHz, r.HorMaxKHz)
	}
	if r.MaxPixClkMHz > 0 && env.MaxPixClkKHz > uint32(r.MaxPixClkMHz)*1000 {
		report("pixel clock %.3f MHz exceeds the declared maximum %d MHz",
			float64(env.MaxPixClkKHz)/1000, r.MaxPixClkMHz)
	}
}

// checkHDMIVICs ties the HDMI extended resolution codes to their VIC
// aliases: an HDMI VIC without its VIC is an error, a VIC without its
// HDMI VIC is only worth a note.
func (d *decoder) checkHDMIVICs() {
	if !d.hasHDMI {
		return
	}
	for _, code := range d.hdmiVICs {
		vic := timing.VICForHDMIVIC(byte(code))
		if vic != 0 && !d.vicSeen[vic] {
			d.led.Fail("HDMI VIC %d requires VIC %d in a video data block", code, vic)
		}
	}
	for code := byte(1); code <= 4; code++ {
		vic := timing.VICForHDMIVIC(code)
		if !d.vicSeen[vic] {
			continue
		}
		seen := false
		for _, c := range d.hdmiVICs {
			if c == int(code) {
				seen = true
				break
			}
		}
		if !seen {
			d.led.Warn("VIC %d is not also exposed as HDMI VIC %d", vic, code)
		}
	}
}

func (d *decoder) checkSerials() {
	if len(d.serialStrings) > 1 {
		d.led.Warn("%d serial number descriptors", len(d.serialStrings))
	}
	if d.out.Base.Serial == 0 {
		return
	}
	num := strconv.FormatUint(uint64(d.out.Base.Serial), 10)
	for _, s := range d.serialStrings {
		if s == num {
			d.led.Warn("serial number %s appears both as a number and a string", s)
			break
		}
	}
}

// check640 enforces the CTA-861 baseline: a sink that advertises video
// formats must support 640x480@60, via the established bit, VIC 1 or an
// equivalent detailed timing.
func (d *decoder) check640() {
	if !d.hasCTA || !d.ctaVideo {
		return
	}
	if d.est640 || d.vicSeen[1] {
		return
	}
	for _, e := range d.out.Timings {
		if e.T.HAct != 640 || e.T.VAct != 480 || e.T.Interlaced {
			continue
		}
		if v := e.T.VertFreqHz(); v > 59 && v < 61 {
			return
		}
	}
	d.led.Fail("a sink with CTA-861 video formats must support 640x480@60")
}

func (d *decoder) checkBlockMap() {
	if d.mapBlock <= 0 {
		return
	}
	follow := d.blockCount - d.mapBlock - 1
	if len(d.mapTags) != follow {
		d.led.Fail("block map declares %d extensions but %d follow it", len(d.mapTags), follow)
	}
	for i, want := range d.mapTags {
		idx := d.mapBlock + 1 + i
		if idx >= d.blockCount {
			break
		}
		if got := int(d.data[idx*BlockSize]); got != want {
			d.led.Fail("block map entry %d declares tag 0x%02x but block %d carries 0x%02x", i+1, want, idx, got)
		}
	}
}

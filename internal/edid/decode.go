package edid

import (
	"bytes"
	"errors"
	"fmt"

	"example.com/edidgate/internal/ledger"
	"example.com/edidgate/internal/timing"
)

var headerMagic = []byte{0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00}

// The three conditions that abort a decode entirely. Everything else
// yields a model plus findings.
var (
	ErrTooShort  = errors.New("edid: shorter than one block")
	ErrNoHeader  = errors.New("edid: header magic not found")
	ErrTruncated = errors.New("edid: declared extensions exceed the data")
)

// decoder carries the state of one decode: the silent preparse facts,
// the cross-block bookkeeping of the informative pass and the base
// block capabilities that later blocks depend on.
type decoder struct {
	data []byte
	led  *ledger.Ledger
	out  *EDID

	blockCount int
	curBlock   int
	minor      int

	// preparse facts
	dtdTotal   int
	svds       []int
	ccMask     uint16
	didTimings int
	hasT8VTDB  bool
	est640     bool
	mapBlock   int
	mapTags    []int
	hasHDMI    bool

	// informative pass bookkeeping
	vicSeen       [256]bool
	vic420Seen    [256]bool
	hdmiVICs      []int
	hasCTA        bool
	ctaVideo      bool
	sawHDMIVSDB   bool
	sawHFVSDB     bool
	sawSCDB       bool
	dtdIndex      int
	nativeDTDs    int
	serialStrings []string

	// base block capabilities
	rng          *RangeLimits
	secondary    *GTFCurve
	cvtSupported bool
	gtfSupported bool
	sawName      bool
	sawRange     bool
}

// record appends one decoded timing to the model and widens the rate
// envelope. A 4:2:0 timing is transported at half the sample rate, so
// only half its horizontal frequency counts against the range limits.
func (d *decoder) record(origin string, t timing.Timing, pref, native bool) {
	e := TimingEntry{
		Origin:    origin,
		Block:     d.curBlock,
		Preferred: pref,
		Native:    native,
		T:         t,
	}
	d.out.Timings = append(d.out.Timings, e)
	if pref {
		d.out.Preferred = append(d.out.Preferred, e)
	}
	if native {
		d.out.Native = append(d.out.Native, e)
	}
	if t.WellFormed() && t.HTotal() > 0 {
		hor := t.HorFreqKHz()
		if t.YCbCr420 {
			hor /= 2
		}
		d.led.RecordRates(t.VertFreqHz(), hor, t.PixClkKHz)
	}
}

// scanEEODB looks for an extension override in the first data block of
// a CTA-861 block 1. When present, its count replaces the base block's
// extension count before the blocks are split.
func scanEEODB(data []byte) int {
	if len(data) < 2*BlockSize || data[BlockSize] != TagCTA {
		return 0
	}
	b := data[BlockSize : 2*BlockSize]
	offset := int(b[2])
	if int(b[1]) < 3 || offset < 4 || offset > BlockSize-1 {
		return 0
	}
	n := int(b[4] & 0x1f)
	if b[4]>>5 == ctaTagExtended && n == 2 && 4+1+n <= offset && b[5] == extEEODB {
		return int(b[6])
	}
	return 0
}

// Decode parses and validates one EDID. The returned model is complete
// even for non-conformant data; an error is returned only when the
// bytes cannot be an EDID at all.
func Decode(data []byte) (*EDID, error) {
	return DecodeNamed(data, "")
}

func DecodeNamed(data []byte, source string) (*EDID, error) {
	if len(data) < BlockSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooShort, len(data))
	}
	if !bytes.Equal(data[:8], headerMagic) {
		return nil, ErrNoHeader
	}

	led := ledger.New()
	led.SetSource(source)
	out := &EDID{SourceName: source, Raw: data}
	d := &decoder{data: data, led: led, out: out}

	declared := 1 + int(data[126])
	if n := scanEEODB(data); n > 0 {
		declared = 1 + n
	}
	avail := len(data) / BlockSize
	if declared > avail {
		return nil, fmt.Errorf("%w: %d blocks declared, %d present", ErrTruncated, declared, avail)
	}
	if rem := len(data) % BlockSize; rem != 0 {
		led.Warn("%d trailing bytes beyond the last whole block", rem)
	}
	if avail > declared {
		led.Fail("%d extension blocks present but only %d declared", avail-1, declared-1)
	}
	d.blockCount = avail

	names := make([]string, d.blockCount)
	for i := 0; i < d.blockCount; i++ {
		raw := data[i*BlockSize : (i+1)*BlockSize]
		blk := &Block{Index: i, Raw: raw, ChecksumOK: ChecksumOK(raw)}
		if i == 0 {
			blk.Name = "Base"
		} else {
			blk.Tag = raw[0]
			blk.Name = TagName(raw[0])
		}
		names[i] = blk.Name
		out.Blocks = append(out.Blocks, blk)
	}

	d.preparse()

	for i, blk := range out.Blocks {
		d.curBlock = i
		done := led.Scope(fmt.Sprintf("Block %d (%s)", i, blk.Name))
		if !blk.ChecksumOK {
			led.Fail("checksum mismatch, expected 0x%02x", Checksum(blk.Raw))
		}
		if i == 0 {
			d.decodeBase()
			done()
			continue
		}
		switch blk.Tag {
		case TagCTA:
			d.decodeCTA(blk)
		case TagVTB:
			d.decodeVTB(blk)
		case TagDisplayID:
			d.decodeDisplayID(blk)
		case TagBlockMap:
			d.decodeBlockMap(blk)
		case TagDI, TagLS, TagManufacturer:
			// recognized, no conformance rules modeled
		default:
			led.Warn("unknown extension tag 0x%02x: % x", blk.Tag, blk.Raw)
		}
		done()
	}

	d.markNatives()
	d.finalChecks()

	out.Conformant = led.Conformant()
	out.Report = led.BuildReport(names)
	out.Ledger = led
	return out, nil
}

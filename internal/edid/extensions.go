package edid

import "fmt"

// decodeVTB handles the video timing block extension: extra detailed
// timings plus CVT and standard timing codes that did not fit in the
// base block.
func (d *decoder) decodeVTB(blk *Block) {
	b := blk.Raw
	info := &VTBInfo{Version: int(b[1])}
	blk.VTB = info
	if info.Version != 1 {
		d.led.Fail("unknown version %d", info.Version)
		return
	}
	nDTD, nCVT, nStd := int(b[2]), int(b[3]), int(b[4])
	if 5+nDTD*18+nCVT*3+nStd*2 > BlockSize-1 {
		d.led.Fail("%d+%d+%d declared timings exceed the block", nDTD, nCVT, nStd)
		return
	}
	info.DTDs, info.CVTCodes, info.StdCodes = nDTD, nCVT, nStd
	cur := 5
	for i := 0; i < nDTD; i++ {
		d.dtdIndex++
		d.dtd(b[cur:cur+18], fmt.Sprintf("DTD %d", d.dtdIndex), false, false)
		cur += 18
	}
	for i := 0; i < nCVT; i++ {
		d.cvtCode(b[cur:cur+3], i+1)
		cur += 3
	}
	for i := 0; i < nStd; i++ {
		d.stdTiming(b[cur], b[cur+1], fmt.Sprintf("VTB STD %d", i+1))
		cur += 2
	}
}

// decodeBlockMap records the declared tag list. The map contents are
// compared against the actual block tags in the final checks.
func (d *decoder) decodeBlockMap(blk *Block) {
	info := &BlockMapInfo{}
	blk.BlockMap = info
	for _, t := range blk.Raw[1:127] {
		if t == 0 {
			break
		}
		info.Tags = append(info.Tags, int(t))
	}
	if blk.Index != 1 && blk.Index != 128 {
		d.led.Fail("a block map is only valid as block 1 or block 128")
	}
}

package edid

// preparse is the silent forward scan that collects facts the informative
// pass needs before it reaches them: total DTD counts for VFPDB index
// references, SVD order for the 4:2:0 capability map, DisplayID color
// characteristics block ids and the declared formula support for standard
// timing resolution. It never writes to the ledger; every violation it
// skips over is reported by the informative pass.
func (d *decoder) preparse() {
	b := d.data[:BlockSize]
	d.est640 = b[35]&0x20 != 0
	if b[18] == 1 {
		d.minor = int(b[19])
	} else {
		d.minor = 2
	}
	if d.minor < 4 && b[24]&0x01 != 0 {
		d.gtfSupported = true
	}
	for i := 0; i < 4; i++ {
		raw := b[54+18*i : 72+18*i]
		if raw[0] != 0 || raw[1] != 0 {
			d.dtdTotal++
			continue
		}
		if raw[3] != descRange {
			continue
		}
		switch raw[10] {
		case 0x00:
			d.gtfSupported = true
		case 0x02:
			d.gtfSupported = true
			d.secondary = &GTFCurve{
				StartKHz: uint(raw[12]) * 2,
				C:        float64(raw[13]) / 2,
				M:        float64(uint(raw[14]) | uint(raw[15])<<8),
				K:        float64(raw[16]),
				J:        float64(raw[17]) / 2,
			}
		case 0x04:
			d.cvtSupported = true
		}
	}
	for i := 1; i < d.blockCount; i++ {
		blk := d.data[i*BlockSize : (i+1)*BlockSize]
		switch blk[0] {
		case TagCTA:
			d.preparseCTA(blk)
		case TagVTB:
			d.preparseVTB(blk)
		case TagDisplayID:
			d.preparseDID(blk)
		case TagBlockMap:
			if len(d.mapTags) == 0 {
				d.mapBlock = i
				for _, t := range blk[1 : BlockSize-1] {
					if t == 0 {
						break
					}
					d.mapTags = append(d.mapTags, int(t))
				}
			}
		}
	}
}

func (d *decoder) preparseCTA(b []byte) {
	offset := int(b[2])
	if int(b[1]) >= 2 && offset >= 4 {
		cur := 4
		for cur < offset && cur < BlockSize-1 {
			tag := b[cur] >> 5
			n := int(b[cur] & 0x1f)
			if cur+1+n > offset {
				break
			}
			payload := b[cur+1 : cur+1+n]
			switch tag {
			case ctaTagVideo:
				for _, v := range payload {
					vic := int(v)
					if vic >= 129 && vic <= 192 {
						vic -= 128
					}
					d.svds = append(d.svds, vic)
				}
			case ctaTagVendor:
				if n >= 5 {
					oui := uint32(payload[2])<<16 | uint32(payload[1])<<8 | uint32(payload[0])
					if oui == ouiHDMI {
						d.hasHDMI = true
					}
				}
			case ctaTagExtended:
				if n >= 1 {
					switch payload[0] {
					case extT7VTDB:
						d.didTimings += (n - 2) / 20
					case extT8VTDB:
						d.hasT8VTDB = true
					case extT10VTDB:
						d.didTimings += (n - 2) / 6
					}
				}
			}
			cur += 1 + n
		}
	}
	if offset >= 4 {
		for cur := offset; cur+18 <= BlockSize-1; cur += 18 {
			if b[cur] == 0 && b[cur+1] == 0 {
				break
			}
			d.dtdTotal++
		}
	}
}

func (d *decoder) preparseVTB(b []byte) {
	if b[1] != 1 {
		return
	}
	cur := 5
	for i := 0; i < int(b[2]) && cur+18 <= BlockSize-1; i++ {
		if b[cur] != 0 || b[cur+1] != 0 {
			d.dtdTotal++
		}
		cur += 18
	}
}

func (d *decoder) preparseDID(b []byte) {
	size := int(b[2])
	if size > BlockSize-7 {
		size = BlockSize - 7
	}
	data := b[5 : 5+size]
	cur := 0
	for cur+3 <= len(data) {
		tag, rf, n := data[cur], data[cur+1], int(data[cur+2])
		if tag == 0 && rf == 0 && n == 0 {
			break
		}
		if cur+3+n > len(data) {
			break
		}
		switch tag {
		case didTagColor:
			d.ccMask |= 1 << (rf >> 4)
		case didTagType7:
			d.didTimings += n / 20
		case didTagType8:
			code := 1
			if rf&0x08 != 0 {
				code = 2
			}
			d.didTimings += n / code
		case didTagType9:
			d.didTimings += n / 6
		}
		cur += 3 + n
	}
}

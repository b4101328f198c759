package edid

func sumZero(b []byte) bool {
	var sum byte
	for _, v := range b {
		sum += v
	}
	return sum == 0
}

// ChecksumOK reports whether a 128 byte block satisfies the EDID checksum:
// the byte-wise sum of the whole block is 0 mod 256, i.e. the final byte
// stores the two's complement of the first 127.
func ChecksumOK(block []byte) bool {
	if len(block) != BlockSize {
		return false
	}
	return sumZero(block)
}

// Checksum returns the value the final byte must hold for the first 127
// bytes of block.
func Checksum(block []byte) byte {
	var sum byte
	for _, v := range block[:BlockSize-1] {
		sum += v
	}
	return -sum
}

package edid

import "testing"

func TestChecksumZeroBlock(t *testing.T) {
	blk := make([]byte, BlockSize)
	if !ChecksumOK(blk) {
		t.Fatalf("ChecksumOK(zero block) = false, want true")
	}
}

func TestChecksumSingleFlip(t *testing.T) {
	blk := make([]byte, BlockSize)
	for i := 0; i < BlockSize; i++ {
		blk[i] = 0x01
		if ChecksumOK(blk) {
			t.Fatalf("ChecksumOK with byte %d flipped = true, want false", i)
		}
		blk[i] = 0x00
	}
}

func TestChecksumCompletesBlock(t *testing.T) {
	blk := make([]byte, BlockSize)
	for i := range blk[:BlockSize-1] {
		blk[i] = byte(i * 7)
	}
	blk[BlockSize-1] = Checksum(blk)
	if !ChecksumOK(blk) {
		t.Fatalf("ChecksumOK after Checksum fill = false, want true")
	}
}

func TestChecksumWrongLength(t *testing.T) {
	if ChecksumOK(make([]byte, 64)) {
		t.Fatalf("ChecksumOK(64 bytes) = true, want false")
	}
}

package timing

// Established timings I and II plus the one defined bit of the third byte,
// in bit order (bit 7 of the first byte is index 0). Most refer to DMT
// modes; the 67 Hz and 75 Hz Apple formats and the two 720x400 text modes
// exist only here.
var estModes = []Timing{
	mode(720, 400, 28320, 18, 108, 54, 21, 2, 26, fPosV),    // 720x400 70 Hz
	mode(720, 400, 35500, 18, 108, 54, 21, 2, 25, fPosV),    // 720x400 88 Hz
	mode(640, 480, 25175, 16, 96, 48, 10, 2, 33, 0),         // 640x480 60 Hz
	mode(640, 480, 30240, 64, 64, 96, 3, 3, 39, 0),          // 640x480 67 Hz
	mode(640, 480, 31500, 24, 40, 128, 9, 3, 28, 0),         // 640x480 72 Hz
	mode(640, 480, 31500, 16, 64, 120, 1, 3, 16, 0),         // 640x480 75 Hz
	mode(800, 600, 36000, 24, 72, 128, 1, 2, 22, fPosH|fPosV),   // 800x600 56 Hz
	mode(800, 600, 40000, 40, 128, 88, 1, 4, 23, fPosH|fPosV),   // 800x600 60 Hz
	mode(800, 600, 50000, 56, 120, 64, 37, 6, 23, fPosH|fPosV),  // 800x600 72 Hz
	mode(800, 600, 49500, 16, 80, 160, 1, 3, 21, fPosH|fPosV),   // 800x600 75 Hz
	mode(832, 624, 57284, 32, 64, 224, 1, 3, 39, 0),             // 832x624 75 Hz
	mode(1024, 768, 44900, 8, 176, 56, 0, 4, 20, fPosH|fPosV|fInt), // 1024x768i 43 Hz
	mode(1024, 768, 65000, 24, 136, 160, 3, 6, 29, 0),           // 1024x768 60 Hz
	mode(1024, 768, 75000, 24, 136, 144, 3, 6, 29, 0),           // 1024x768 70 Hz
	mode(1024, 768, 78750, 16, 96, 176, 1, 3, 28, fPosH|fPosV),  // 1024x768 75 Hz
	mode(1280, 1024, 135000, 16, 144, 248, 1, 3, 38, fPosH|fPosV), // 1280x1024 75 Hz
	mode(1152, 870, 100000, 48, 128, 128, 3, 3, 39, 0),          // 1152x870 75 Hz
}

func init() {
	for i := range estModes {
		estModes[i].CalcRatio()
	}
}

// FindEstablished returns the established timing for bit index 0-16.
func FindEstablished(idx uint) (Timing, bool) {
	if idx >= uint(len(estModes)) {
		return Timing{}, false
	}
	return estModes[idx], true
}

// Established timings III maps 44 bit positions to DMT IDs. Index 0 is bit
// 7 of the first payload byte; the last four bits of the sixth byte are
// reserved.
var estIIIDMT = [44]byte{
	0x01, 0x02, 0x03, 0x07, 0x0e, 0x0c, 0x13, 0x15,
	0x16, 0x17, 0x18, 0x19, 0x20, 0x21, 0x23, 0x25,
	0x27, 0x2e, 0x2f, 0x30, 0x31, 0x29, 0x2a, 0x2b,
	0x2c, 0x39, 0x3a, 0x3b, 0x3c, 0x33, 0x34, 0x35,
	0x36, 0x37, 0x3e, 0x3f, 0x41, 0x42, 0x44, 0x45,
	0x46, 0x47, 0x49, 0x4a,
}

// EstIIIDMT returns the DMT ID referenced by an established timings III
// bit index.
func EstIIIDMT(idx uint) (byte, bool) {
	if idx >= uint(len(estIIIDMT)) {
		return 0, false
	}
	return estIIIDMT[idx], true
}

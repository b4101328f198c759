package timing

func cea(hact, vact, hr, vr uint, clkKHz uint32, hfp int, hs uint, hbp int, vfp, vs uint, vbp int, f uint16) Timing {
	t := mode(hact, vact, clkKHz, hfp, hs, hbp, vfp, vs, vbp, f)
	t.HRatio, t.VRatio = hr, vr
	return t
}

// The CTA-861 video identification code catalog. Aspect ratios are the
// declared picture ratios, not reductions of the active sizes, and the
// pixel doubled 1440/2880 formats store the doubled width. VICs 128-192
// cannot exist because bit 7 of a short video descriptor marks the first
// 64 codes as native.
var vicModes = map[byte]Timing{
	1:   cea(640, 480, 4, 3, 25175, 16, 96, 48, 10, 2, 33, 0),
	2:   cea(720, 480, 4, 3, 27000, 16, 62, 60, 9, 6, 30, 0),
	3:   cea(720, 480, 16, 9, 27000, 16, 62, 60, 9, 6, 30, 0),
	4:   cea(1280, 720, 16, 9, 74250, 110, 40, 220, 5, 5, 20, fPosH|fPosV),
	5:   cea(1920, 1080, 16, 9, 74250, 88, 44, 148, 2, 5, 15, fPosH|fPosV|fInt),
	6:   cea(1440, 480, 4, 3, 27000, 38, 124, 114, 4, 3, 15, fInt),
	7:   cea(1440, 480, 16, 9, 27000, 38, 124, 114, 4, 3, 15, fInt),
	8:   cea(1440, 240, 4, 3, 27000, 38, 124, 114, 4, 3, 15, 0),
	9:   cea(1440, 240, 16, 9, 27000, 38, 124, 114, 4, 3, 15, 0),
	10:  cea(2880, 480, 4, 3, 54000, 76, 248, 228, 4, 3, 15, fInt),
	11:  cea(2880, 480, 16, 9, 54000, 76, 248, 228, 4, 3, 15, fInt),
	12:  cea(2880, 240, 4, 3, 54000, 76, 248, 228, 4, 3, 15, 0),
	13:  cea(2880, 240, 16, 9, 54000, 76, 248, 228, 4, 3, 15, 0),
	14:  cea(1440, 480, 4, 3, 54000, 32, 124, 120, 9, 6, 30, 0),
	15:  cea(1440, 480, 16, 9, 54000, 32, 124, 120, 9, 6, 30, 0),
	16:  cea(1920, 1080, 16, 9, 148500, 88, 44, 148, 4, 5, 36, fPosH|fPosV),
	17:  cea(720, 576, 4, 3, 27000, 12, 64, 68, 5, 5, 39, 0),
	18:  cea(720, 576, 16, 9, 27000, 12, 64, 68, 5, 5, 39, 0),
	19:  cea(1280, 720, 16, 9, 74250, 440, 40, 220, 5, 5, 20, fPosH|fPosV),
	20:  cea(1920, 1080, 16, 9, 74250, 528, 44, 148, 2, 5, 15, fPosH|fPosV|fInt),
	21:  cea(1440, 576, 4, 3, 27000, 24, 126, 138, 2, 3, 19, fInt),
	22:  cea(1440, 576, 16, 9, 27000, 24, 126, 138, 2, 3, 19, fInt),
	23:  cea(1440, 288, 4, 3, 27000, 24, 126, 138, 2, 3, 19, 0),
	24:  cea(1440, 288, 16, 9, 27000, 24, 126, 138, 2, 3, 19, 0),
	25:  cea(2880, 576, 4, 3, 54000, 48, 252, 276, 2, 3, 19, fInt),
	26:  cea(2880, 576, 16, 9, 54000, 48, 252, 276, 2, 3, 19, fInt),
	27:  cea(2880, 288, 4, 3, 54000, 48, 252, 276, 2, 3, 19, 0),
	28:  cea(2880, 288, 16, 9, 54000, 48, 252, 276, 2, 3, 19, 0),
	29:  cea(1440, 576, 4, 3, 54000, 24, 128, 136, 5, 5, 39, 0),
	30:  cea(1440, 576, 16, 9, 54000, 24, 128, 136, 5, 5, 39, 0),
	31:  cea(1920, 1080, 16, 9, 148500, 528, 44, 148, 4, 5, 36, fPosH|fPosV),
	32:  cea(1920, 1080, 16, 9, 74250, 638, 44, 148, 4, 5, 36, fPosH|fPosV),
	33:  cea(1920, 1080, 16, 9, 74250, 528, 44, 148, 4, 5, 36, fPosH|fPosV),
	34:  cea(1920, 1080, 16, 9, 74250, 88, 44, 148, 4, 5, 36, fPosH|fPosV),
	35:  cea(2880, 480, 4, 3, 108000, 64, 248, 240, 9, 6, 30, 0),
	36:  cea(2880, 480, 16, 9, 108000, 64, 248, 240, 9, 6, 30, 0),
	37:  cea(2880, 576, 4, 3, 108000, 48, 256, 272, 5, 5, 39, 0),
	38:  cea(2880, 576, 16, 9, 108000, 48, 256, 272, 5, 5, 39, 0),
	39:  cea(1920, 1080, 16, 9, 72000, 32, 168, 184, 23, 5, 57, fPosH|fInt|fEvenVT),
	40:  cea(1920, 1080, 16, 9, 148500, 528, 44, 148, 2, 5, 15, fPosH|fPosV|fInt),
	41:  cea(1280, 720, 16, 9, 148500, 440, 40, 220, 5, 5, 20, fPosH|fPosV),
	42:  cea(720, 576, 4, 3, 54000, 12, 64, 68, 5, 5, 39, 0),
	43:  cea(720, 576, 16, 9, 54000, 12, 64, 68, 5, 5, 39, 0),
	44:  cea(1440, 576, 4, 3, 54000, 24, 126, 138, 2, 3, 19, fInt),
	45:  cea(1440, 576, 16, 9, 54000, 24, 126, 138, 2, 3, 19, fInt),
	46:  cea(1920, 1080, 16, 9, 148500, 88, 44, 148, 2, 5, 15, fPosH|fPosV|fInt),
	47:  cea(1280, 720, 16, 9, 148500, 110, 40, 220, 5, 5, 20, fPosH|fPosV),
	48:  cea(720, 480, 4, 3, 54000, 16, 62, 60, 9, 6, 30, 0),
	49:  cea(720, 480, 16, 9, 54000, 16, 62, 60, 9, 6, 30, 0),
	50:  cea(1440, 480, 4, 3, 54000, 38, 124, 114, 4, 3, 15, fInt),
	51:  cea(1440, 480, 16, 9, 54000, 38, 124, 114, 4, 3, 15, fInt),
	52:  cea(720, 576, 4, 3, 108000, 12, 64, 68, 5, 5, 39, 0),
	53:  cea(720, 576, 16, 9, 108000, 12, 64, 68, 5, 5, 39, 0),
	54:  cea(1440, 576, 4, 3, 108000, 24, 126, 138, 2, 3, 19, fInt),
	55:  cea(1440, 576, 16, 9, 108000, 24, 126, 138, 2, 3, 19, fInt),
	56:  cea(720, 480, 4, 3, 108000, 16, 62, 60, 9, 6, 30, 0),
	57:  cea(720, 480, 16, 9, 108000, 16, 62, 60, 9, 6, 30, 0),
	58:  cea(1440, 480, 4, 3, 108000, 38, 124, 114, 4, 3, 15, fInt),
	59:  cea(1440, 480, 16, 9, 108000, 38, 124, 114, 4, 3, 15, fInt),
	60:  cea(1280, 720, 16, 9, 59400, 1760, 40, 220, 5, 5, 20, fPosH|fPosV),
	61:  cea(1280, 720, 16, 9, 74250, 2420, 40, 220, 5, 5, 20, fPosH|fPosV),
	62:  cea(1280, 720, 16, 9, 74250, 1760, 40, 220, 5, 5, 20, fPosH|fPosV),
	63:  cea(1920, 1080, 16, 9, 297000, 88, 44, 148, 4, 5, 36, fPosH|fPosV),
	64:  cea(1920, 1080, 16, 9, 297000, 528, 44, 148, 4, 5, 36, fPosH|fPosV),
	65:  cea(1280, 720, 64, 27, 59400, 1760, 40, 220, 5, 5, 20, fPosH|fPosV),
	66:  cea(1280, 720, 64, 27, 74250, 2420, 40, 220, 5, 5, 20, fPosH|fPosV),
	67:  cea(1280, 720, 64, 27, 74250, 1760, 40, 220, 5, 5, 20, fPosH|fPosV),
	68:  cea(1280, 720, 64, 27, 74250, 440, 40, 220, 5, 5, 20, fPosH|fPosV),
	69:  cea(1280, 720, 64, 27, 74250, 110, 40, 220, 5, 5, 20, fPosH|fPosV),
	70:  cea(1280, 720, 64, 27, 148500, 440, 40, 220, 5, 5, 20, fPosH|fPosV),
	71:  cea(1280, 720, 64, 27, 148500, 110, 40, 220, 5, 5, 20, fPosH|fPosV),
	72:  cea(1920, 1080, 64, 27, 74250, 638, 44, 148, 4, 5, 36, fPosH|fPosV),
	73:  cea(1920, 1080, 64, 27, 74250, 528, 44, 148, 4, 5, 36, fPosH|fPosV),
	74:  cea(1920, 1080, 64, 27, 74250, 88, 44, 148, 4, 5, 36, fPosH|fPosV),
	75:  cea(1920, 1080, 64, 27, 148500, 528, 44, 148, 4, 5, 36, fPosH|fPosV),
	76:  cea(1920, 1080, 64, 27, 148500, 88, 44, 148, 4, 5, 36, fPosH|fPosV),
	77:  cea(1920, 1080, 64, 27, 297000, 528, 44, 148, 4, 5, 36, fPosH|fPosV),
	78:  cea(1920, 1080, 64, 27, 297000, 88, 44, 148, 4, 5, 36, fPosH|fPosV),
	79:  cea(1680, 720, 64, 27, 59400, 1360, 40, 220, 5, 5, 20, fPosH|fPosV),
	80:  cea(1680, 720, 64, 27, 59400, 1228, 40, 220, 5, 5, 20, fPosH|fPosV),
	81:  cea(1680, 720, 64, 27, 59400, 700, 40, 220, 5, 5, 20, fPosH|fPosV),
	82:  cea(1680, 720, 64, 27, 82500, 260, 40, 220, 5, 5, 20, fPosH|fPosV),
	83:  cea(1680, 720, 64, 27, 99000, 260, 40, 220, 5, 5, 20, fPosH|fPosV),
	84:  cea(1680, 720, 64, 27, 165000, 60, 40, 220, 5, 5, 95, fPosH|fPosV),
	85:  cea(1680, 720, 64, 27, 198000, 60, 40, 220, 5, 5, 95, fPosH|fPosV),
	86:  cea(2560, 1080, 64, 27, 99000, 998, 44, 148, 4, 5, 11, fPosH|fPosV),
	87:  cea(2560, 1080, 64, 27, 90000, 448, 44, 148, 4, 5, 36, fPosH|fPosV),
	88:  cea(2560, 1080, 64, 27, 118800, 768, 44, 148, 4, 5, 36, fPosH|fPosV),
	89:  cea(2560, 1080, 64, 27, 185625, 548, 44, 148, 4, 5, 36, fPosH|fPosV),
	90:  cea(2560, 1080, 64, 27, 198000, 248, 44, 148, 4, 5, 11, fPosH|fPosV),
	91:  cea(2560, 1080, 64, 27, 371250, 218, 44, 148, 4, 5, 161, fPosH|fPosV),
	92:  cea(2560, 1080, 64, 27, 495000, 548, 44, 148, 4, 5, 161, fPosH|fPosV),
	93:  cea(3840, 2160, 16, 9, 297000, 1276, 88, 296, 8, 10, 72, fPosH|fPosV),
	94:  cea(3840, 2160, 16, 9, 297000, 1056, 88, 296, 8, 10, 72, fPosH|fPosV),
	95:  cea(3840, 2160, 16, 9, 297000, 176, 88, 296, 8, 10, 72, fPosH|fPosV),
	96:  cea(3840, 2160, 16, 9, 594000, 1056, 88, 296, 8, 10, 72, fPosH|fPosV),
	97:  cea(3840, 2160, 16, 9, 594000, 176, 88, 296, 8, 10, 72, fPosH|fPosV),
	98:  cea(4096, 2160, 256, 135, 297000, 1020, 88, 296, 8, 10, 72, fPosH|fPosV),
	99:  cea(4096, 2160, 256, 135, 297000, 968, 88, 128, 8, 10, 72, fPosH|fPosV),
	100: cea(4096, 2160, 256, 135, 297000, 88, 88, 128, 8, 10, 72, fPosH|fPosV),
	101: cea(4096, 2160, 256, 135, 594000, 968, 88, 128, 8, 10, 72, fPosH|fPosV),
	102: cea(4096, 2160, 256, 135, 594000, 88, 88, 128, 8, 10, 72, fPosH|fPosV),
	103: cea(3840, 2160, 64, 27, 297000, 1276, 88, 296, 8, 10, 72, fPosH|fPosV),
	104: cea(3840, 2160, 64, 27, 297000, 1056, 88, 296, 8, 10, 72, fPosH|fPosV),
	105: cea(3840, 2160, 64, 27, 297000, 176, 88, 296, 8, 10, 72, fPosH|fPosV),
	106: cea(3840, 2160, 64, 27, 594000, 1056, 88, 296, 8, 10, 72, fPosH|fPosV),
	107: cea(3840, 2160, 64, 27, 594000, 176, 88, 296, 8, 10, 72, fPosH|fPosV),
	108: cea(1280, 720, 16, 9, 90000, 960, 40, 220, 5, 5, 20, fPosH|fPosV),
	109: cea(1280, 720, 64, 27, 90000, 960, 40, 220, 5, 5, 20, fPosH|fPosV),
	110: cea(1680, 720, 64, 27, 99000, 810, 40, 220, 5, 5, 20, fPosH|fPosV),
	111: cea(1920, 1080, 16, 9, 148500, 638, 44, 148, 4, 5, 36, fPosH|fPosV),
	112: cea(1920, 1080, 64, 27, 148500, 638, 44, 148, 4, 5, 36, fPosH|fPosV),
	113: cea(2560, 1080, 64, 27, 198000, 998, 44, 148, 4, 5, 11, fPosH|fPosV),
	114: cea(3840, 2160, 16, 9, 594000, 1276, 88, 296, 8, 10, 72, fPosH|fPosV),
	115: cea(4096, 2160, 256, 135, 594000, 1020, 88, 296, 8, 10, 72, fPosH|fPosV),
	116: cea(3840, 2160, 64, 27, 594000, 1276, 88, 296, 8, 10, 72, fPosH|fPosV),
	117: cea(3840, 2160, 16, 9, 1188000, 1056, 88, 296, 8, 10, 72, fPosH|fPosV),
	118: cea(3840, 2160, 16, 9, 1188000, 176, 88, 296, 8, 10, 72, fPosH|fPosV),
	119: cea(3840, 2160, 64, 27, 1188000, 1056, 88, 296, 8, 10, 72, fPosH|fPosV),
	120: cea(3840, 2160, 64, 27, 1188000, 176, 88, 296, 8, 10, 72, fPosH|fPosV),
	121: cea(5120, 2160, 64, 27, 396000, 1996, 88, 296, 8, 10, 22, fPosH|fPosV),
	122: cea(5120, 2160, 64, 27, 396000, 1696, 88, 296, 8, 10, 22, fPosH|fPosV),
	123: cea(5120, 2160, 64, 27, 396000, 496, 88, 296, 8, 10, 22, fPosH|fPosV),
	124: cea(5120, 2160, 64, 27, 742500, 746, 88, 296, 8, 10, 297, fPosH|fPosV),
	125: cea(5120, 2160, 64, 27, 742500, 1096, 88, 296, 8, 10, 72, fPosH|fPosV),
	126: cea(5120, 2160, 64, 27, 742500, 164, 88, 128, 8, 10, 72, fPosH|fPosV),
	127: cea(5120, 2160, 64, 27, 1485000, 1096, 88, 296, 8, 10, 72, fPosH|fPosV),
	193: cea(5120, 2160, 64, 27, 1485000, 164, 88, 128, 8, 10, 72, fPosH|fPosV),
	194: cea(7680, 4320, 16, 9, 1188000, 2552, 176, 592, 16, 20, 144, fPosH|fPosV),
	195: cea(7680, 4320, 16, 9, 1188000, 2352, 176, 592, 16, 20, 44, fPosH|fPosV),
	196: cea(7680, 4320, 16, 9, 1188000, 552, 176, 592, 16, 20, 44, fPosH|fPosV),
	197: cea(7680, 4320, 16, 9, 2376000, 2552, 176, 592, 16, 20, 144, fPosH|fPosV),
	198: cea(7680, 4320, 16, 9, 2376000, 2352, 176, 592, 16, 20, 44, fPosH|fPosV),
	199: cea(7680, 4320, 16, 9, 2376000, 552, 176, 592, 16, 20, 44, fPosH|fPosV),
	200: cea(7680, 4320, 16, 9, 4752000, 2112, 176, 592, 16, 20, 144, fPosH|fPosV),
	201: cea(7680, 4320, 16, 9, 4752000, 352, 176, 592, 16, 20, 144, fPosH|fPosV),
	202: cea(7680, 4320, 64, 27, 1188000, 2552, 176, 592, 16, 20, 144, fPosH|fPosV),
	203: cea(7680, 4320, 64, 27, 1188000, 2352, 176, 592, 16, 20, 44, fPosH|fPosV),
	204: cea(7680, 4320, 64, 27, 1188000, 552, 176, 592, 16, 20, 44, fPosH|fPosV),
	205: cea(7680, 4320, 64, 27, 2376000, 2552, 176, 592, 16, 20, 144, fPosH|fPosV),
	206: cea(7680, 4320, 64, 27, 2376000, 2352, 176, 592, 16, 20, 44, fPosH|fPosV),
	207: cea(7680, 4320, 64, 27, 2376000, 552, 176, 592, 16, 20, 44, fPosH|fPosV),
	208: cea(7680, 4320, 64, 27, 4752000, 2112, 176, 592, 16, 20, 144, fPosH|fPosV),
	209: cea(7680, 4320, 64, 27, 4752000, 352, 176, 592, 16, 20, 144, fPosH|fPosV),
	210: cea(10240, 4320, 64, 27, 1485000, 1492, 176, 592, 16, 20, 594, fPosH|fPosV),
	211: cea(10240, 4320, 64, 27, 1485000, 2492, 176, 592, 16, 20, 44, fPosH|fPosV),
	212: cea(10240, 4320, 64, 27, 1485000, 288, 176, 296, 16, 20, 144, fPosH|fPosV),
	213: cea(10240, 4320, 64, 27, 2970000, 1492, 176, 592, 16, 20, 594, fPosH|fPosV),
	214: cea(10240, 4320, 64, 27, 2970000, 2492, 176, 592, 16, 20, 44, fPosH|fPosV),
	215: cea(10240, 4320, 64, 27, 2970000, 288, 176, 296, 16, 20, 144, fPosH|fPosV),
	216: cea(10240, 4320, 64, 27, 5940000, 2492, 176, 592, 16, 20, 44, fPosH|fPosV),
	217: cea(10240, 4320, 64, 27, 5940000, 288, 176, 296, 16, 20, 144, fPosH|fPosV),
	218: cea(4096, 2160, 256, 135, 1188000, 800, 88, 416, 8, 10, 22, fPosH|fPosV),
	219: cea(4096, 2160, 256, 135, 1188000, 88, 88, 228, 8, 10, 22, fPosH|fPosV),
}

// FindVIC looks up a CTA-861 video identification code. Codes inside the
// assigned ranges can still miss when the catalog predates them.
func FindVIC(vic byte) (Timing, bool) {
	t, ok := vicModes[vic]
	return t, ok
}

// VICAssigned reports whether a code falls in the ranges CTA-861 assigns
// to video formats (1-127 and 193-253). Codes 128-192 alias the native
// bit and 0/255 are forbidden.
func VICAssigned(vic byte) bool {
	return (vic >= 1 && vic <= 127) || (vic >= 193 && vic <= 253)
}

// HDMI 1.4b extended resolution formats and their CTA-861 equivalents.
var hdmiVICToVIC = map[byte]byte{
	1: 95, // 3840x2160p30
	2: 94, // 3840x2160p25
	3: 93, // 3840x2160p24
	4: 98, // 4096x2160p24
}

// FindHDMIVIC looks up an HDMI 1.4b extended resolution code.
func FindHDMIVIC(code byte) (Timing, bool) {
	vic, ok := hdmiVICToVIC[code]
	if !ok {
		return Timing{}, false
	}
	return FindVIC(vic)
}

// VICForHDMIVIC maps an HDMI extended resolution code to the equivalent
// video identification code, 0 when the code is unassigned.
func VICForHDMIVIC(code byte) byte {
	return hdmiVICToVIC[code]
}

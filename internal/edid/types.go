// Package edid decodes EDID images: the 128 byte base block plus the
// standard extension blocks (CTA-861, DisplayID, VTB and the rest).
// Decoding never prints; it yields a structured model and a conformance
// ledger that the report and server layers render.
package edid

import (
	"fmt"

	"example.com/edidgate/internal/ledger"
	"example.com/edidgate/internal/timing"
)

// BlockSize is the fixed EDID block length.
const BlockSize = 128

// Extension block tags.
const (
	TagCTA          = 0x02
	TagVTB          = 0x10
	TagDI           = 0x40
	TagLS           = 0x50
	TagDisplayID    = 0x70
	TagBlockMap     = 0xf0
	TagManufacturer = 0xff
)

// TagName returns the well-known name of an extension tag.
func TagName(tag byte) string {
	switch tag {
	case TagCTA:
		return "CTA-861"
	case TagVTB:
		return "Video Timing Block"
	case TagDI:
		return "Display Information"
	case TagLS:
		return "Localized Strings"
	case TagDisplayID:
		return "DisplayID"
	case TagBlockMap:
		return "Block Map"
	case TagManufacturer:
		return "Manufacturer-Specific"
	}
	return fmt.Sprintf("Unknown (0x%02x)", tag)
}

// EDID is the decoded model of one image.
type EDID struct {
	SourceName string `json:"source,omitempty"`
	Raw        []byte `json:"-"`

	VersionMajor int `json:"versionMajor"`
	VersionMinor int `json:"versionMinor"`

	Base   BaseInfo `json:"base"`
	Blocks []*Block `json:"blocks"`

	Timings   []TimingEntry `json:"timings,omitempty"`
	Preferred []TimingEntry `json:"preferred,omitempty"`
	Native    []TimingEntry `json:"native,omitempty"`

	Ledger     *ledger.Ledger `json:"-"`
	Report     ledger.Report  `json:"report"`
	Conformant bool           `json:"conformant"`
}

// Block is one 128 byte block. The typed pointers are set for the
// extension kinds the decoder models in depth; at most one is non-nil.
type Block struct {
	Index      int    `json:"index"`
	Tag        byte   `json:"tag"`
	Name       string `json:"name"`
	ChecksumOK bool   `json:"checksumOk"`
	Raw        []byte `json:"-"`

	CTA       *CTAInfo       `json:"cta,omitempty"`
	DisplayID *DisplayIDInfo `json:"displayId,omitempty"`
	VTB       *VTBInfo       `json:"vtb,omitempty"`
	BlockMap  *BlockMapInfo  `json:"blockMap,omitempty"`
}

// TimingEntry ties a timing to the place it was declared.
type TimingEntry struct {
	Origin    string        `json:"origin"`
	Block     int           `json:"block"`
	Preferred bool          `json:"preferred,omitempty"`
	Native    bool          `json:"native,omitempty"`
	T         timing.Timing `json:"timing"`
}

// Chromaticity is the CIE 1931 color point set from the base block,
// 10 bit fixed point scaled to [0,1).
type Chromaticity struct {
	RedX   float64 `json:"redX"`
	RedY   float64 `json:"redY"`
	GreenX float64 `json:"greenX"`
	GreenY float64 `json:"greenY"`
	BlueX  float64 `json:"blueX"`
	BlueY  float64 `json:"blueY"`
	WhiteX float64 `json:"whiteX"`
	WhiteY float64 `json:"whiteY"`
}

// WhitePoint is one additional white point from a color point descriptor.
type WhitePoint struct {
	Index int     `json:"index"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Gamma float64 `json:"gamma,omitempty"`
}

// BaseInfo is the decoded base block.
type BaseInfo struct {
	Vendor    string `json:"vendor"`
	Product   uint16 `json:"product"`
	Serial    uint32 `json:"serial,omitempty"`
	Week      int    `json:"week,omitempty"`
	Year      int    `json:"year,omitempty"`
	ModelYear bool   `json:"modelYear,omitempty"`

	Digital      bool   `json:"digital"`
	BitsPerColor int    `json:"bitsPerColor,omitempty"`
	Interface    string `json:"interface,omitempty"`

	AnalogLevels   string `json:"analogLevels,omitempty"`
	BlankSetup     bool   `json:"blankSetup,omitempty"`
	SeparateSync   bool   `json:"separateSync,omitempty"`
	CompositeSync  bool   `json:"compositeSync,omitempty"`
	SyncOnGreen    bool   `json:"syncOnGreen,omitempty"`
	SerrationVSync bool   `json:"serrationVsync,omitempty"`

	WidthCm  int     `json:"widthCm,omitempty"`
	HeightCm int     `json:"heightCm,omitempty"`
	Aspect   float64 `json:"aspect,omitempty"`
	Gamma    float64 `json:"gamma,omitempty"`

	Standby   bool `json:"standby,omitempty"`
	Suspend   bool `json:"suspend,omitempty"`
	ActiveOff bool `json:"activeOff,omitempty"`

	DisplayType        string `json:"displayType,omitempty"`
	SRGB               bool   `json:"srgb,omitempty"`
	HasPreferredTiming bool   `json:"hasPreferredTiming,omitempty"`
	PreferredIsNative  bool   `json:"preferredIsNative,omitempty"`
	ContinuousFreq     bool   `json:"continuousFreq,omitempty"`
	DefaultGTF         bool   `json:"defaultGtf,omitempty"`

	Chroma Chromaticity `json:"chromaticity"`

	DisplayName  string       `json:"displayName,omitempty"`
	SerialString string       `json:"serialString,omitempty"`
	Texts        []string     `json:"texts,omitempty"`
	WhitePoints  []WhitePoint `json:"whitePoints,omitempty"`

	HasColorManagement bool `json:"hasColorManagement,omitempty"`

	Range *RangeLimits `json:"range,omitempty"`
}

// Range limits support byte values.
const (
	RangeDefaultGTF   = "default-gtf"
	RangeLimitsOnly   = "range-only"
	RangeSecondaryGTF = "secondary-gtf"
	RangeCVT          = "cvt"
)

// RangeLimits is the Display Range Limits descriptor (tag 0xfd).
type RangeLimits struct {
	VertMinHz    uint   `json:"vertMinHz"`
	VertMaxHz    uint   `json:"vertMaxHz"`
	HorMinKHz    uint   `json:"horMinKHz"`
	HorMaxKHz    uint   `json:"horMaxKHz"`
	MaxPixClkMHz uint   `json:"maxPixClkMhz,omitempty"`
	Support      string `json:"support"`

	GTF *GTFCurve   `json:"gtf,omitempty"`
	CVT *CVTSupport `json:"cvt,omitempty"`
}

// GTFCurve holds the secondary curve constants from a range limits
// descriptor. The curve applies at horizontal frequencies of StartKHz
// and above.
type GTFCurve struct {
	StartKHz uint    `json:"startKhz"`
	C        float64 `json:"c"`
	M        float64 `json:"m"`
	K        float64 `json:"k"`
	J        float64 `json:"j"`
}

// CVTSupport is the CVT subtype of a range limits descriptor.
type CVTSupport struct {
	Version            string   `json:"version"`
	MaxActivePerLine   uint     `json:"maxActivePerLine,omitempty"`
	MaxClockMHz        float64  `json:"maxClockMhz,omitempty"`
	AspectRatios       []string `json:"aspectRatios,omitempty"`
	PreferredAspect    string   `json:"preferredAspect,omitempty"`
	ReducedBlanking    bool     `json:"reducedBlanking,omitempty"`
	StandardBlanking   bool     `json:"standardBlanking,omitempty"`
	HShrink            bool     `json:"hShrink,omitempty"`
	HStretch           bool     `json:"hStretch,omitempty"`
	VShrink            bool     `json:"vShrink,omitempty"`
	VStretch           bool     `json:"vStretch,omitempty"`
	PreferredRefreshHz uint     `json:"preferredRefreshHz,omitempty"`
}

// CTAInfo is a decoded CTA-861 extension block.
type CTAInfo struct {
	Revision       int  `json:"revision"`
	Underscan      bool `json:"underscan,omitempty"`
	BasicAudio     bool `json:"basicAudio,omitempty"`
	YCbCr444       bool `json:"ycbcr444,omitempty"`
	YCbCr422       bool `json:"ycbcr422,omitempty"`
	NativeDTDCount int  `json:"nativeDtdCount,omitempty"`
	DTDCount       int  `json:"dtdCount"`

	VICs      []SVD `json:"vics,omitempty"`
	VICs420   []int `json:"vics420,omitempty"`
	Cap420All bool  `json:"cap420All,omitempty"`
	Cap420    []int `json:"cap420,omitempty"`

	Audio    []SAD  `json:"audio,omitempty"`
	Speakers uint32 `json:"speakers,omitempty"`
	HasDTC   bool   `json:"hasDtc,omitempty"`

	HDMI      *HDMIVSDB `json:"hdmi,omitempty"`
	HDMIForum *HFSink   `json:"hdmiForum,omitempty"`

	VideoCap    *VideoCap    `json:"videoCap,omitempty"`
	Colorimetry *Colorimetry `json:"colorimetry,omitempty"`
	HDRStatic   *HDRStatic   `json:"hdrStatic,omitempty"`
	HDRDynamic  []HDRDynamic `json:"hdrDynamic,omitempty"`
	Preference  []int        `json:"preference,omitempty"`
	InfoFrames  *InfoFrames  `json:"infoFrames,omitempty"`

	HasHDMIAudio    bool `json:"hasHdmiAudio,omitempty"`
	SpeakerCount    int  `json:"speakerCount,omitempty"`
	SpeakerLocs     int  `json:"speakerLocs,omitempty"`
	OverrideBlocks  int  `json:"overrideBlocks,omitempty"`

	Vendors []VendorData `json:"vendors,omitempty"`
}

// SVD is one Short Video Descriptor from a Video Data Block.
type SVD struct {
	VIC    int  `json:"vic"`
	Native bool `json:"native,omitempty"`
}

// SAD is a 3 byte Short Audio Descriptor. Rates and depths stay raw
// bitmasks; naming them is the renderer's business.
type SAD struct {
	Format     int  `json:"format"`
	ExtFormat  int  `json:"extFormat,omitempty"`
	Channels   int  `json:"channels"`
	RateMask   byte `json:"rateMask"`
	DepthMask  byte `json:"depthMask,omitempty"`
	MaxKbps    int  `json:"maxKbps,omitempty"`
	FormatData byte `json:"formatData,omitempty"`
}

// HDMIVSDB is the HDMI 1.4 vendor specific data block.
type HDMIVSDB struct {
	PhysAddr        string `json:"physAddr"`
	DualDVI         bool   `json:"dualDvi,omitempty"`
	DCY444          bool   `json:"dcY444,omitempty"`
	DC30            bool   `json:"dc30,omitempty"`
	DC36            bool   `json:"dc36,omitempty"`
	DC48            bool   `json:"dc48,omitempty"`
	SupportsAI      bool   `json:"supportsAi,omitempty"`
	MaxTMDSMHz      int    `json:"maxTmdsMhz,omitempty"`
	ContentTypes    byte   `json:"contentTypes,omitempty"`
	VideoLatencyMs  int    `json:"videoLatencyMs,omitempty"`
	AudioLatencyMs  int    `json:"audioLatencyMs,omitempty"`
	VideoLatencyIMs int    `json:"videoLatencyIMs,omitempty"`
	AudioLatencyIMs int    `json:"audioLatencyIMs,omitempty"`
	HDMIVICs        []int  `json:"hdmiVics,omitempty"`
	Has3D           bool   `json:"has3d,omitempty"`
}

// HFSink is the HDMI Forum VSDB or SCDB payload; both carry the same
// sink capability fields.
type HFSink struct {
	FromSCDB     bool `json:"fromScdb,omitempty"`
	Version      int  `json:"version"`
	MaxTMDSMHz   int  `json:"maxTmdsMhz,omitempty"`
	SCDC         bool `json:"scdc,omitempty"`
	SCDCRR       bool `json:"scdcRr,omitempty"`
	LTE340       bool `json:"lte340,omitempty"`
	DC30_420     bool `json:"dc30_420,omitempty"`
	DC36_420     bool `json:"dc36_420,omitempty"`
	DC48_420     bool `json:"dc48_420,omitempty"`
	MaxFRLRate   int  `json:"maxFrlRate,omitempty"`
	ALLM         bool `json:"allm,omitempty"`
	VRRMinHz     int  `json:"vrrMinHz,omitempty"`
	VRRMaxHz     int  `json:"vrrMaxHz,omitempty"`
	DSC12        bool `json:"dsc12,omitempty"`
}

// VideoCap is the Video Capability Data Block.
type VideoCap struct {
	QuantRGBSelectable bool `json:"qs,omitempty"`
	QuantYCCSelectable bool `json:"qy,omitempty"`
	PTBehavior         int  `json:"ptBehavior"`
	ITBehavior         int  `json:"itBehavior"`
	CEBehavior         int  `json:"ceBehavior"`
}

// Colorimetry is the Colorimetry Data Block: the low byte carries the
// colorimetry support bits, the high byte the metadata profile bits.
type Colorimetry struct {
	Mask uint16 `json:"mask"`
}

// HDRStatic is the HDR Static Metadata Data Block. Luminance values are
// decoded from their CTA-861.3 code points; zero means not given.
type HDRStatic struct {
	EOTFMask    byte    `json:"eotfMask"`
	SMMask      byte    `json:"smMask"`
	MaxLumCdM2  float64 `json:"maxLum,omitempty"`
	MaxFALLCdM2 float64 `json:"maxFall,omitempty"`
	MinLumCdM2  float64 `json:"minLum,omitempty"`
}

// HDRDynamic is one metadata type from the HDR Dynamic Metadata Data Block.
type HDRDynamic struct {
	Type    uint16 `json:"type"`
	Version int    `json:"version,omitempty"`
}

// InfoFrames summarizes an InfoFrame Data Block.
type InfoFrames struct {
	Simultaneous int   `json:"simultaneous"`
	Types        []int `json:"types,omitempty"`
}

// VendorData is a vendor specific escape the decoder does not interpret.
type VendorData struct {
	OUI  uint32 `json:"oui"`
	Data []byte `json:"data,omitempty"`
}

// DisplayIDInfo is a decoded DisplayID extension section.
type DisplayIDInfo struct {
	VersionMajor int `json:"versionMajor"`
	VersionMinor int `json:"versionMinor"`
	SectionSize  int `json:"sectionSize"`
	ProductType  int `json:"productType"`
	ExtCount     int `json:"extCount"`

	Product     *DIDProduct      `json:"product,omitempty"`
	Params      *DIDParams       `json:"params,omitempty"`
	Color       *DIDColor        `json:"color,omitempty"`
	Ranges      *DIDRange        `json:"ranges,omitempty"`
	Interface   *DIDInterface    `json:"interface,omitempty"`
	Features    *DIDFeatures     `json:"features,omitempty"`
	Tiled       *DIDTile         `json:"tiled,omitempty"`
	Strings     []string         `json:"strings,omitempty"`
	ContainerID string           `json:"containerId,omitempty"`
	StereoCode  int              `json:"stereoCode,omitempty"`
	CTA         *CTAInfo         `json:"cta,omitempty"`
	Vendors     []VendorData     `json:"vendors,omitempty"`
	Blocks      []DIDBlockHeader `json:"blocks"`
}

// DIDBlockHeader records one data block seen during the section walk.
type DIDBlockHeader struct {
	Tag      byte `json:"tag"`
	Revision int  `json:"revision"`
	Len      int  `json:"len"`
}

// DIDProduct is a DisplayID product identification block.
type DIDProduct struct {
	Vendor  string `json:"vendor"`
	Product uint16 `json:"product"`
	Serial  uint32 `json:"serial,omitempty"`
	Week    int    `json:"week,omitempty"`
	Year    int    `json:"year"`
	Name    string `json:"name,omitempty"`
}

// DIDParams is a DisplayID display parameters block.
type DIDParams struct {
	WidthMM  float64 `json:"widthMm,omitempty"`
	HeightMM float64 `json:"heightMm,omitempty"`
	HPixels  uint    `json:"hPixels"`
	VPixels  uint    `json:"vPixels"`
	Features byte    `json:"features"`
	Gamma    float64 `json:"gamma,omitempty"`
}

// XY is one CIE chromaticity coordinate pair, 12 bit fixed point.
type XY struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DIDColor is a DisplayID color characteristics block.
type DIDColor struct {
	ID          int  `json:"id"`
	Primaries   []XY `json:"primaries,omitempty"`
	WhitePoints []XY `json:"whitePoints,omitempty"`
}

// DIDRange is a DisplayID video timing range block.
type DIDRange struct {
	PixClkMinKHz uint32 `json:"pixClkMinKhz"`
	PixClkMaxKHz uint32 `json:"pixClkMaxKhz"`
	HorMinKHz    uint   `json:"horMinKhz,omitempty"`
	HorMaxKHz    uint   `json:"horMaxKhz,omitempty"`
	VertMinHz    uint   `json:"vertMinHz,omitempty"`
	VertMaxHz    uint   `json:"vertMaxHz,omitempty"`
	Flags        byte   `json:"flags,omitempty"`
	Seamless     bool   `json:"seamless,omitempty"`
}

// DIDInterface is a DisplayID display interface block.
type DIDInterface struct {
	Type    int `json:"type"`
	Links   int `json:"links"`
	Version int `json:"version,omitempty"`
}

// DIDFeatures is a DisplayID 2.0 interface features block.
type DIDFeatures struct {
	RGBDepths      byte `json:"rgbDepths"`
	YCbCr444Depths byte `json:"ycbcr444Depths,omitempty"`
	YCbCr422Depths byte `json:"ycbcr422Depths,omitempty"`
	YCbCr420Depths byte `json:"ycbcr420Depths,omitempty"`
	Min420RateMHz  int  `json:"min420RateMhz,omitempty"`
	AudioRates     byte `json:"audioRates,omitempty"`
}

// DIDTile is a DisplayID tiled display topology block.
type DIDTile struct {
	Caps     byte   `json:"caps"`
	HTiles   int    `json:"hTiles"`
	VTiles   int    `json:"vTiles"`
	HLoc     int    `json:"hLoc"`
	VLoc     int    `json:"vLoc"`
	WidthPx  uint   `json:"widthPx"`
	HeightPx uint   `json:"heightPx"`
	Vendor   string `json:"vendor,omitempty"`
}

// VTBInfo summarizes a Video Timing Block extension; the timings it
// declares land in the shared timing lists.
type VTBInfo struct {
	Version  int `json:"version"`
	DTDs     int `json:"dtds"`
	CVTCodes int `json:"cvtCodes"`
	StdCodes int `json:"stdCodes"`
}

// BlockMapInfo is a Block Map extension (tag 0xf0).
type BlockMapInfo struct {
	Tags []int `json:"tags"`
}

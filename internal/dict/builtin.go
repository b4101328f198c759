package dict

// The built-in tables cover the vendors that show up in practice. The
// PNP codes come from the UEFI registry, the OUIs from the IEEE one;
// both lists are deliberately short and an override file extends them.

var builtinPNP = []PNPEntry{
	{"ACI", "Ancor Communications Inc"},
	{"ACR", "Acer Technologies"},
	{"AOC", "AOC International"},
	{"APP", "Apple Inc."},
	{"AUO", "AU Optronics"},
	{"AUS", "ASUSTek Computer Inc."},
	{"BNQ", "BenQ Corporation"},
	{"BOE", "BOE Technology Group"},
	{"CMN", "Chimei Innolux Corporation"},
	{"DEL", "Dell Inc."},
	{"ENC", "Eizo Nanao Corporation"},
	{"GSM", "Goldstar Company Ltd"},
	{"HPN", "HP Inc."},
	{"HWP", "Hewlett-Packard Company"},
	{"IVM", "Iiyama North America"},
	{"LEN", "Lenovo Group Limited"},
	{"LGD", "LG Display"},
	{"NEC", "NEC Corporation"},
	{"PHL", "Philips Consumer Electronics"},
	{"SAM", "Samsung Electric Company"},
	{"SEC", "Seiko Epson Corporation"},
	{"SHP", "Sharp Corporation"},
	{"SNY", "Sony"},
	{"VSC", "ViewSonic Corporation"},
}

var builtinOUI = []OUIEntry{
	{0x000c03, "HDMI Licensing, LLC"},
	{0xc45dd8, "HDMI Forum, Inc."},
	{0x00d046, "Dolby Laboratories, Inc."},
	{0x90848b, "HDR10+ Technologies, LLC"},
	{0x00044b, "NVIDIA Corporation"},
	{0x0010fa, "Apple, Inc."},
}

var builtin = &Store{
	pnp: make(map[string]PNPEntry, len(builtinPNP)),
	oui: make(map[uint32]OUIEntry, len(builtinOUI)),
}

func init() {
	for _, e := range builtinPNP {
		builtin.pnp[e.Code] = e
	}
	for _, e := range builtinOUI {
		builtin.oui[e.OUI] = e
	}
}

// Builtin returns the compiled-in table. Callers must not mutate it;
// use Merged to layer overrides on top.
func Builtin() *Store {
	return builtin
}

// Package dict maps the vendor identifiers found in EDID images to
// readable names: the three letter PNP manufacturer IDs of the base
// block and the IEEE OUIs of vendor specific data blocks. A built-in
// table covers the common vendors; a JSON file can add to or override
// it.
package dict

import (
	"fmt"
	"strings"
)

type PNPEntry struct {
	Code string
	Name string
}

type OUIEntry struct {
	OUI  uint32
	Name string
}

type Store struct {
	pnp map[string]PNPEntry
	oui map[uint32]OUIEntry
}

type JSONFile struct {
	PNP []JSONPNPEntry `json:"pnp"`
	OUI []JSONOUIEntry `json:"oui"`
}

type JSONPNPEntry struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type JSONOUIEntry struct {
	OUI  string `json:"oui"`
	Name string `json:"name"`
}

// ParseOUI accepts the usual spellings of a 24 bit identifier: six hex
// digits, optionally split into byte pairs by dashes or colons.
func ParseOUI(s string) (uint32, error) {
	clean := strings.NewReplacer("-", "", ":", "").Replace(strings.TrimSpace(s))
	if len(clean) != 6 {
		return 0, fmt.Errorf("oui %q: want 6 hex digits", s)
	}
	var v uint32
	for _, c := range clean {
		var d uint32
		switch {
		case c >= '0' && c <= '9':
			d = uint32(c - '0')
		case c >= 'a' && c <= 'f':
			d = uint32(c-'a') + 10
		case c >= 'A' && c <= 'F':
			d = uint32(c-'A') + 10
		default:
			return 0, fmt.Errorf("oui %q: bad hex digit %q", s, c)
		}
		v = v<<4 | d
	}
	return v, nil
}

// FormatOUI renders an identifier in the registry's dashed form.
func FormatOUI(oui uint32) string {
	return fmt.Sprintf("%02X-%02X-%02X", oui>>16&0xff, oui>>8&0xff, oui&0xff)
}

func validPNPCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

// FromJSON builds a store from a parsed override file. Entries are
// validated but not merged with the built-in table; see Merged.
func FromJSON(file JSONFile) (*Store, error) {
	store := &Store{
		pnp: make(map[string]PNPEntry),
		oui: make(map[uint32]OUIEntry),
	}
	for i, entry := range file.PNP {
		code := strings.ToUpper(strings.TrimSpace(entry.Code))
		if !validPNPCode(code) {
			return nil, fmt.Errorf("pnp[%d]: code %q is not three letters", i, entry.Code)
		}
		if _, exists := store.pnp[code]; exists {
			return nil, fmt.Errorf("pnp[%d]: duplicate code %s", i, code)
		}
		store.pnp[code] = PNPEntry{Code: code, Name: strings.TrimSpace(entry.Name)}
	}
	for i, entry := range file.OUI {
		oui, err := ParseOUI(entry.OUI)
		if err != nil {
			return nil, fmt.Errorf("oui[%d]: %w", i, err)
		}
		if _, exists := store.oui[oui]; exists {
			return nil, fmt.Errorf("oui[%d]: duplicate identifier %s", i, FormatOUI(oui))
		}
		store.oui[oui] = OUIEntry{OUI: oui, Name: strings.TrimSpace(entry.Name)}
	}
	return store, nil
}

func (s *Store) LookupPNP(code string) (PNPEntry, bool) {
	if s == nil {
		return PNPEntry{}, false
	}
	entry, ok := s.pnp[strings.ToUpper(code)]
	return entry, ok
}

func (s *Store) LookupOUI(oui uint32) (OUIEntry, bool) {
	if s == nil {
		return OUIEntry{}, false
	}
	entry, ok := s.oui[oui]
	return entry, ok
}

func (s *Store) IsEmpty() bool {
	if s == nil {
		return true
	}
	return len(s.pnp) == 0 && len(s.oui) == 0
}

// Merged returns a store with the overlay's entries replacing the
// receiver's on collisions. Either side may be nil.
func (s *Store) Merged(overlay *Store) *Store {
	out := &Store{
		pnp: make(map[string]PNPEntry),
		oui: make(map[uint32]OUIEntry),
	}
	for _, src := range []*Store{s, overlay} {
		if src == nil {
			continue
		}
		for k, v := range src.pnp {
			out.pnp[k] = v
		}
		for k, v := range src.oui {
			out.oui[k] = v
		}
	}
	return out
}

// PNPName resolves a manufacturer code, falling back to the code itself.
func (s *Store) PNPName(code string) string {
	if e, ok := s.LookupPNP(code); ok && e.Name != "" {
		return e.Name
	}
	return code
}

// OUIName resolves a vendor identifier, falling back to the dashed hex.
func (s *Store) OUIName(oui uint32) string {
	if e, ok := s.LookupOUI(oui); ok && e.Name != "" {
		return e.Name
	}
	return FormatOUI(oui)
}

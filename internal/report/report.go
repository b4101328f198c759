// Package report renders decoded EDID models: human readable text, the
// conformance JSON document, an NDJSON findings stream and a PDF with the
// image digest embedded as a QR code. Labels are localized through embedded
// locale files; decoder finding messages pass through untranslated.
package report

import (
	"bufio"
	"encoding/json"
	"io"
	"os"

	"example.com/edidgate/internal/edid"
	"example.com/edidgate/internal/ledger"
)

// SaveConformanceJSON writes the decoded model with its conformance report
// as indented JSON. The raw bytes and the live ledger are not serialized.
func SaveConformanceJSON(e *edid.EDID, out string) error {
	b, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(out, b, 0644)
}

// LoadConformanceJSON reads back a document written by SaveConformanceJSON.
func LoadConformanceJSON(path string) (*edid.EDID, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var e edid.EDID
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// WriteFindingsNDJSON streams findings to w, one JSON object per line.
func WriteFindingsNDJSON(w io.Writer, findings []ledger.Finding) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for i := range findings {
		if err := enc.Encode(&findings[i]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

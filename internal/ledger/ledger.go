// Package ledger accumulates conformance findings while an EDID image is
// decoded. Decoders push a label when they enter a block or data block and
// every finding emitted until the matching pop is attributed to that label,
// so nested structures report against the right scope no matter how deep
// the decode recursion goes.
package ledger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

type Severity string

const (
	FAIL Severity = "FAIL"
	WARN Severity = "WARN"
)

type Finding struct {
	Ts       time.Time `json:"ts"`
	Source   string    `json:"source,omitempty"`
	Block    string    `json:"block"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
}

// RangeEnvelope tracks the extreme rates seen across every well-formed
// timing of an image. It feeds the final check against the declared
// Display Range Limits.
type RangeEnvelope struct {
	MinVertHz    float64
	MaxVertHz    float64
	MinHorKHz    float64
	MaxHorKHz    float64
	MaxPixClkKHz uint32
	Seen         bool
}

type Ledger struct {
	source   string
	scopes   []string
	findings []Finding
	failures int
	warnings int
	envelope RangeEnvelope
}

func New() *Ledger {
	return &Ledger{}
}

func (l *Ledger) SetSource(path string) {
	l.source = path
}

// Push enters a new attribution scope. Pop must be called when the scope is
// left; Scope returns the matching pop for use with defer.
func (l *Ledger) Push(label string) {
	l.scopes = append(l.scopes, label)
}

func (l *Ledger) Pop() {
	if len(l.scopes) > 0 {
		l.scopes = l.scopes[:len(l.scopes)-1]
	}
}

func (l *Ledger) Scope(label string) func() {
	l.Push(label)
	return l.Pop
}

// Label is the current attribution label, outermost scope first.
func (l *Ledger) Label() string {
	if len(l.scopes) == 0 {
		return "EDID"
	}
	return strings.Join(l.scopes, ": ")
}

func (l *Ledger) Fail(format string, args ...interface{}) {
	l.add(FAIL, fmt.Sprintf(format, args...))
	l.failures++
}

func (l *Ledger) Warn(format string, args ...interface{}) {
	l.add(WARN, fmt.Sprintf(format, args...))
	l.warnings++
}

func (l *Ledger) add(sev Severity, msg string) {
	l.findings = append(l.findings, Finding{
		Ts:       time.Now().UTC(),
		Source:   l.source,
		Block:    l.Label(),
		Severity: sev,
		Message:  msg,
	})
}

func (l *Ledger) Findings() []Finding {
	return l.findings
}

func (l *Ledger) Failures() int { return l.failures }
func (l *Ledger) Warnings() int { return l.warnings }

// Conformant reports the verdict: no failures. Warnings do not affect it.
func (l *Ledger) Conformant() bool {
	return l.failures == 0
}

// RecordRates widens the observed envelope with one timing's vertical
// refresh (Hz), horizontal frequency (kHz) and pixel clock (kHz).
func (l *Ledger) RecordRates(vertHz, horKHz float64, pixClkKHz uint32) {
	e := &l.envelope
	if !e.Seen {
		e.MinVertHz, e.MaxVertHz = vertHz, vertHz
		e.MinHorKHz, e.MaxHorKHz = horKHz, horKHz
		e.MaxPixClkKHz = pixClkKHz
		e.Seen = true
		return
	}
	if vertHz < e.MinVertHz {
		e.MinVertHz = vertHz
	}
	if vertHz > e.MaxVertHz {
		e.MaxVertHz = vertHz
	}
	if horKHz < e.MinHorKHz {
		e.MinHorKHz = horKHz
	}
	if horKHz > e.MaxHorKHz {
		e.MaxHorKHz = horKHz
	}
	if pixClkKHz > e.MaxPixClkKHz {
		e.MaxPixClkKHz = pixClkKHz
	}
}

func (l *Ledger) Envelope() RangeEnvelope {
	return l.envelope
}

// Report is the serializable conformance result.
type Report struct {
	Summary struct {
		Total      int  `json:"total"`
		Failures   int  `json:"failures"`
		Warnings   int  `json:"warnings"`
		Conformant bool `json:"conformant"`
	} `json:"summary"`
	BlockMatrix []BlockStatus `json:"blockMatrix"`
	Findings    []Finding     `json:"findings,omitempty"`
}

type BlockStatus struct {
	Index    int    `json:"index"`
	Tag      string `json:"tag"`
	Failures int    `json:"failures"`
	Warnings int    `json:"warnings"`
	Status   string `json:"status"`
}

// BuildReport assembles the report for the given block labels. A finding is
// charged to the first block whose label prefixes its attribution.
func (l *Ledger) BuildReport(blocks []string) Report {
	var rep Report
	rep.Summary.Total = len(l.findings)
	rep.Summary.Failures = l.failures
	rep.Summary.Warnings = l.warnings
	rep.Summary.Conformant = l.failures == 0
	rep.Findings = l.findings
	for i, tag := range blocks {
		st := BlockStatus{Index: i, Tag: tag, Status: "pass"}
		prefix := fmt.Sprintf("Block %d", i)
		for _, f := range l.findings {
			if !strings.HasPrefix(f.Block, prefix) {
				continue
			}
			// "Block 1" must not absorb findings for "Block 10".
			if rest := f.Block[len(prefix):]; rest != "" && rest[0] != ' ' && rest[0] != ':' {
				continue
			}
			switch f.Severity {
			case FAIL:
				st.Failures++
			case WARN:
				st.Warnings++
			}
		}
		if st.Failures > 0 {
			st.Status = "fail"
		} else if st.Warnings > 0 {
			st.Status = "warn"
		}
		rep.BlockMatrix = append(rep.BlockMatrix, st)
	}
	return rep
}

// WriteFindingsNDJSON writes one finding per line, newline delimited.
func (l *Ledger) WriteFindingsNDJSON(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()
	for _, d := range l.findings {
		b, _ := json.Marshal(d)
		w.Write(b)
		w.WriteString("\n")
	}
	return nil
}

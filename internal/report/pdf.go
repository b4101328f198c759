package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"example.com/edidgate/internal/common"
	"example.com/edidgate/internal/dict"
	"example.com/edidgate/internal/edid"
	"example.com/edidgate/internal/ledger"
)

// SaveConformancePDF renders the decoded model into a PDF document: identity
// summary, verdict, per block matrix, timing inventory, findings and the
// image digest as a QR code. Core fonts limit output to Latin glyphs, so
// localized labels outside cp1252 degrade.
func SaveConformancePDF(e *edid.EDID, out string, vendors *dict.Store, tr Translator) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(tr.T("pdf.title"), true)
	pdf.SetAuthor("edidctl", false)
	pdf.SetCreator("edidctl", false)
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	r := pdfRenderer{
		pdf:     pdf,
		tr:      tr,
		vendors: vendors,
		enc:     pdf.UnicodeTranslatorFromDescriptor(""),
	}
	r.title()
	r.identity(e)
	r.verdict(e)
	r.blockMatrix(e.Report.BlockMatrix)
	r.timings(e.Timings)
	r.findings(e.Report.Findings)
	r.digest(e)

	if pdf.Err() {
		return pdf.Error()
	}
	return pdf.OutputFileAndClose(out)
}

type pdfRenderer struct {
	pdf     *gofpdf.Fpdf
	tr      Translator
	vendors *dict.Store
	enc     func(string) string
}

func (r *pdfRenderer) title() {
	r.pdf.SetFont("Helvetica", "B", 18)
	r.pdf.Cell(0, 10, r.enc(r.tr.T("pdf.title")))
	r.pdf.Ln(12)
}

func (r *pdfRenderer) heading(key string) {
	r.pdf.SetFont("Helvetica", "B", 12)
	r.pdf.Cell(0, 8, r.enc(r.tr.T(key)))
	r.pdf.Ln(9)
}

// items prints label/value rows, skipping empty values.
func (r *pdfRenderer) items(rows [][2]string) {
	r.pdf.SetFont("Helvetica", "", 11)
	for _, row := range rows {
		if strings.TrimSpace(row[1]) == "" {
			continue
		}
		r.pdf.CellFormat(50, 6, r.enc(row[0]), "", 0, "L", false, 0, "")
		r.pdf.CellFormat(0, 6, r.enc(row[1]), "", 1, "L", false, 0, "")
	}
	r.pdf.Ln(4)
}

func (r *pdfRenderer) identity(e *edid.EDID) {
	r.heading("pdf.identity")
	b := &e.Base
	r.items([][2]string{
		{r.tr.T("label.source"), e.SourceName},
		{r.tr.T("label.vendor"), vendorLabel(r.vendors, b.Vendor)},
		{r.tr.T("label.product"), fmt.Sprintf("0x%04X", b.Product)},
		{r.tr.T("label.serial_string"), b.SerialString},
		{r.tr.T("label.display_name"), b.DisplayName},
		{r.tr.T("label.edid_version"), fmt.Sprintf("%d.%d", e.VersionMajor, e.VersionMinor)},
		{r.tr.T("label.blocks"), strconv.Itoa(len(e.Blocks))},
	})
}

func (r *pdfRenderer) verdict(e *edid.EDID) {
	r.heading("section.summary")
	s := e.Report.Summary
	r.items([][2]string{
		{r.tr.T("summary.total"), strconv.Itoa(s.Total)},
		{r.tr.T("summary.failures"), strconv.Itoa(s.Failures)},
		{r.tr.T("summary.warnings"), strconv.Itoa(s.Warnings)},
		{r.tr.T("summary.verdict"), verdictLabel(r.tr, s.Conformant)},
	})
}

func (r *pdfRenderer) tableHeader(headers []string, widths []float64) {
	r.pdf.SetFillColor(240, 240, 240)
	r.pdf.SetFont("Helvetica", "B", 10)
	for i, h := range headers {
		r.pdf.CellFormat(widths[i], 7, r.enc(h), "1", 0, "L", true, 0, "")
	}
	r.pdf.Ln(-1)
	r.pdf.SetFont("Helvetica", "", 9)
}

func (r *pdfRenderer) blockMatrix(rows []ledger.BlockStatus) {
	r.heading("pdf.block_matrix")
	headers := []string{
		r.tr.T("pdf.col.block"),
		r.tr.T("pdf.col.tag"),
		r.tr.T("pdf.col.failures"),
		r.tr.T("pdf.col.warnings"),
		r.tr.T("pdf.col.status"),
	}
	widths := []float64{20, 72, 28, 28, 32}
	r.tableHeader(headers, widths)
	for _, row := range rows {
		values := []string{
			strconv.Itoa(row.Index),
			row.Tag,
			strconv.Itoa(row.Failures),
			strconv.Itoa(row.Warnings),
			statusLabel(r.tr, row.Status),
		}
		r.tableRow(widths, values, 5)
	}
	r.pdf.Ln(4)
}

func (r *pdfRenderer) timings(entries []edid.TimingEntry) {
	if len(entries) == 0 {
		return
	}
	r.heading("section.timings")
	headers := []string{
		r.tr.T("pdf.col.origin"),
		r.tr.T("pdf.col.mode"),
		r.tr.T("pdf.col.refresh"),
		r.tr.T("pdf.col.hfreq"),
		r.tr.T("pdf.col.clock"),
		r.tr.T("pdf.col.flags"),
	}
	widths := []float64{40, 30, 24, 26, 26, 34}
	r.tableHeader(headers, widths)
	for _, te := range entries {
		t := te.T
		mode := fmt.Sprintf("%dx%d", t.HAct, t.VAct)
		if t.Interlaced {
			mode += "i"
		}
		values := []string{
			te.Origin,
			mode,
			fmt.Sprintf("%.3f Hz", t.VertFreqHz()),
			fmt.Sprintf("%.3f kHz", t.HorFreqKHz()),
			fmt.Sprintf("%.3f MHz", float64(t.PixClkKHz)/1000),
			timingFlags(r.tr, te),
		}
		r.tableRow(widths, values, 5)
	}
	r.pdf.Ln(4)
}

func (r *pdfRenderer) findings(findings []ledger.Finding) {
	r.heading("section.findings")
	if len(findings) == 0 {
		r.pdf.SetFont("Helvetica", "", 11)
		r.pdf.MultiCell(0, 6, r.enc(r.tr.T("findings.none")), "", "L", false)
		return
	}
	for i, f := range findings {
		r.pdf.SetFont("Helvetica", "B", 10)
		header := fmt.Sprintf("%d. %s (%s)", i+1, f.Block, f.Severity)
		r.pdf.MultiCell(0, 5, r.enc(header), "", "L", false)

		if msg := strings.TrimSpace(f.Message); msg != "" {
			r.pdf.SetFont("Helvetica", "", 10)
			r.pdf.MultiCell(0, 5, r.enc(msg), "", "L", false)
		}

		if meta := findingMeta(f); meta != "" {
			r.pdf.SetFont("Helvetica", "", 9)
			r.pdf.MultiCell(0, 4, r.enc(meta), "", "L", false)
		}

		r.pdf.Ln(2)
	}
}

func (r *pdfRenderer) digest(e *edid.EDID) {
	if len(e.Raw) == 0 {
		return
	}
	sum := common.Sha256OfBytes(e.Raw)
	png, err := DigestQR(sum, 256)
	if err != nil {
		return
	}
	r.pdf.Ln(4)
	r.heading("pdf.digest")
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	r.pdf.RegisterImageOptionsReader("digest-qr", opts, bytes.NewReader(png))
	x, y := r.pdf.GetX(), r.pdf.GetY()
	r.pdf.ImageOptions("digest-qr", x, y, 30, 30, false, opts, 0, "")
	r.pdf.SetXY(x, y+32)
	r.pdf.SetFont("Courier", "", 8)
	r.pdf.MultiCell(0, 4, sum, "", "L", false)
}

// tableRow renders one bordered row, wrapping every column and growing the
// row to the tallest cell.
func (r *pdfRenderer) tableRow(widths []float64, values []string, lineHeight float64) {
	pdf := r.pdf
	xStart := pdf.GetX()
	yStart := pdf.GetY()
	maxLines := 1
	splitCols := make([][]string, len(values))
	for i, val := range values {
		text := strings.TrimSpace(val)
		if text == "" {
			text = "-"
		}
		lines := pdf.SplitText(r.enc(text), widths[i]-2)
		if len(lines) == 0 {
			lines = []string{""}
		}
		splitCols[i] = lines
		if len(lines) > maxLines {
			maxLines = len(lines)
		}
	}
	rowHeight := float64(maxLines) * lineHeight
	x := xStart
	for i, lines := range splitCols {
		pdf.SetXY(x, yStart)
		pdf.MultiCell(widths[i], lineHeight, strings.Join(lines, "\n"), "1", "L", false)
		x += widths[i]
	}
	pdf.SetXY(xStart, yStart+rowHeight)
}

func statusLabel(tr Translator, status string) string {
	switch status {
	case "pass":
		return tr.T("status.pass")
	case "warn":
		return tr.T("status.warn")
	case "fail":
		return tr.T("status.fail")
	}
	return status
}

func findingMeta(f ledger.Finding) string {
	parts := make([]string, 0, 2)
	if !f.Ts.IsZero() {
		parts = append(parts, f.Ts.Format(time.RFC3339))
	}
	if f.Source != "" {
		parts = append(parts, f.Source)
	}
	return strings.Join(parts, " · ")
}

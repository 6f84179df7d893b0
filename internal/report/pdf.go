package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"example.com/segygate/internal/analysis"
	"example.com/segygate/internal/checks"
)

// PDFOptions carries the optional extras rendered alongside the report.
type PDFOptions struct {
	Summary *analysis.Summary
	// OutputHash is the SHA-256 of the standardized file; when set it is
	// printed and embedded as a QR code.
	OutputHash string
}

// SaveReportPDF renders the validation report into a PDF document.
func SaveReportPDF(rep checks.ValidationReport, opts PDFOptions, out string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("SEG-Y Validation Report", false)
	pdf.SetAuthor("segyctl", false)
	pdf.SetCreator("segyctl", false)
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	addPDFTitle(pdf, "SEG-Y Validation Report")
	addSummarySection(pdf, rep)
	addCheckMatrixSection(pdf, rep.Checks)
	if opts.Summary != nil {
		addAnalysisSection(pdf, *opts.Summary)
	}
	addFindingsSection(pdf, rep.Findings)
	if opts.OutputHash != "" {
		addHashSection(pdf, opts.OutputHash)
	}

	if pdf.Err() {
		return pdf.Error()
	}
	return pdf.OutputFileAndClose(out)
}

func addPDFTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, title)
	pdf.Ln(12)
}

func addSummarySection(pdf *gofpdf.Fpdf, rep checks.ValidationReport) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	items := []struct {
		label string
		value string
	}{
		{label: "Checks Run", value: strconv.Itoa(rep.Summary.Total)},
		{label: "Errors", value: strconv.Itoa(rep.Summary.Errors)},
		{label: "Warnings", value: strconv.Itoa(rep.Summary.Warnings)},
		{label: "Overall", value: passLabel(rep.Summary.Pass)},
	}
	for _, item := range items {
		pdf.CellFormat(50, 6, item.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, item.value, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func addCheckMatrixSection(pdf *gofpdf.Fpdf, rows []checks.CheckOutcome) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Check Matrix")
	pdf.Ln(9)

	headers := []string{"Check", "Name", "Severity", "Pass", "Detail"}
	widths := []float64{28, 44, 20, 14, 74}

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	lineHeight := 5.0
	for _, row := range rows {
		values := []string{
			row.CheckId,
			emptyFallback(row.Name, "-"),
			severityLabel(row.Severity),
			passLabel(row.Passed),
			emptyFallback(row.Detail, "-"),
		}
		renderTableRow(pdf, widths, values, lineHeight)
	}
	pdf.Ln(4)
}

func addAnalysisSection(pdf *gofpdf.Fpdf, s analysis.Summary) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Analysis")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	rows := []struct {
		label string
		value string
	}{
		{"Format", fmt.Sprintf("code %d (%s), revision %d.%d", s.FormatCode, s.FormatName, s.RevMajor, s.RevMinor)},
		{"Sample interval", fmt.Sprintf("%d us", s.SampleIntervalUs)},
		{"Samples per trace", strconv.Itoa(int(s.SamplesPerTrace))},
		{"Traces", fmt.Sprintf("%d found, %d expected", s.ActualTraces, s.ExpectedTraces)},
		{"Trace sizes", uniformityLabel(s)},
		{"Inline range", fmt.Sprintf("%d to %d", s.InlineMin, s.InlineMax)},
		{"Crossline range", fmt.Sprintf("%d to %d", s.CrosslineMin, s.CrosslineMax)},
		{"Grid", gridLabel(s)},
	}
	for _, row := range rows {
		pdf.CellFormat(50, 6, row.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, row.value, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func addFindingsSection(pdf *gofpdf.Fpdf, findings []checks.Diagnostic) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Findings")
	pdf.Ln(9)

	if len(findings) == 0 {
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, "No findings recorded.", "", "L", false)
		return
	}

	for i, d := range findings {
		pdf.SetFont("Helvetica", "B", 10)
		header := fmt.Sprintf("%d. %s (%s)", i+1, d.CheckId, severityLabel(d.Severity))
		pdf.MultiCell(0, 5, header, "", "L", false)

		if msg := strings.TrimSpace(d.Message); msg != "" {
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, msg, "", "L", false)
		}

		meta := findingMetadata(d)
		if meta != "" {
			pdf.SetFont("Helvetica", "", 9)
			pdf.MultiCell(0, 4, meta, "", "L", false)
		}

		pdf.Ln(2)
	}
}

func addHashSection(pdf *gofpdf.Fpdf, hash string) {
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Output File")
	pdf.Ln(8)
	pdf.SetFont("Courier", "", 9)
	pdf.MultiCell(0, 5, "SHA-256: "+hash, "", "L", false)

	png, err := FileHashToQR(hash, 256)
	if err != nil {
		return
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("output-hash-qr", opts, bytes.NewReader(png))
	pdf.ImageOptions("output-hash-qr", pdf.GetX(), pdf.GetY()+2, 30, 30, false, opts, 0, "")
	pdf.Ln(34)
}

func renderTableRow(pdf *gofpdf.Fpdf, widths []float64, values []string, lineHeight float64) {
	xStart := pdf.GetX()
	yStart := pdf.GetY()
	maxLines := 1
	splitCols := make([][]string, len(values))
	for i, val := range values {
		text := strings.TrimSpace(val)
		if text == "" {
			text = "-"
		}
		lines := pdf.SplitText(text, widths[i]-2)
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
		cellText := strings.Join(lines, "\n")
		pdf.MultiCell(widths[i], lineHeight, cellText, "1", "L", false)
		x += widths[i]
	}
	pdf.SetXY(xStart, yStart+rowHeight)
}

func passLabel(pass bool) string {
	if pass {
		return "PASS"
	}
	return "FAIL"
}

func severityLabel(sev checks.Severity) string {
	if s := strings.TrimSpace(string(sev)); s != "" {
		return s
	}
	return "UNKNOWN"
}

func emptyFallback(val, fallback string) string {
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	return val
}

func uniformityLabel(s analysis.Summary) string {
	if s.Uniform {
		return "uniform"
	}
	return fmt.Sprintf("non-uniform: %v", s.DistinctSizes)
}

func gridLabel(s analysis.Summary) string {
	if s.HasGrid {
		return fmt.Sprintf("%dx%d", s.GridInlines, s.GridCrosslines)
	}
	return "not inferable"
}

func findingMetadata(d checks.Diagnostic) string {
	parts := make([]string, 0, 4)
	if !d.Ts.IsZero() {
		parts = append(parts, d.Ts.Format(time.RFC3339))
	}
	if d.File != "" {
		parts = append(parts, d.File)
	}
	if d.TraceIndex != 0 {
		parts = append(parts, fmt.Sprintf("Trace %d", d.TraceIndex))
	}
	if d.Offset != "" {
		parts = append(parts, "Offset "+d.Offset)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, " - ")
}

package export

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"designreport/internal/domain/report"
)

//go:embed fonts/DejaVuSansCondensed.ttf
var regularFont []byte

//go:embed fonts/DejaVuSansCondensed-Bold.ttf
var boldFont []byte

const fontFamily = "ReportSans"

// PDFOptions selects the font for the PDF export. The bundled DejaVu Sans
// covers Latin and Cyrillic; FontPath replaces it with another UTF-8
// TrueType font used for both weights.
type PDFOptions struct {
	FontPath string

	uncompressed bool
}

var pdfColumns = []struct {
	width float64
	align string
}{
	{70, "L"},
	{25, "R"},
	{25, "R"},
	{25, "R"},
	{35, "R"},
}

// WritePDF renders the text summary and the report table on A4.
func WritePDF(w io.Writer, out report.Output, opts PDFOptions) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(!opts.uncompressed)
	regular, bold := regularFont, boldFont
	if opts.FontPath != "" {
		custom, err := os.ReadFile(opts.FontPath)
		if err != nil {
			return fmt.Errorf("read pdf font: %w", err)
		}
		regular, bold = custom, custom
	}
	pdf.AddUTF8FontFromBytes(fontFamily, "", regular)
	pdf.AddUTF8FontFromBytes(fontFamily, "B", bold)

	pdf.SetTitle(fmt.Sprintf("Design report %s", out.Period), true)
	pdf.AddPage()
	pdf.SetFont(fontFamily, "B", 14)
	pdf.Cell(0, 10, fmt.Sprintf("Design report %s", out.Period))
	pdf.Ln(12)

	pdf.SetFont(fontFamily, "", 10)
	for _, line := range strings.Split(out.TextReport, "\n") {
		pdf.Cell(0, 5, line)
		pdf.Ln(5)
	}
	pdf.Ln(4)

	pdf.SetFont(fontFamily, "B", 10)
	for i, col := range pdfColumns {
		pdf.CellFormat(col.width, 7, ReportHeaders[i], "1", 0, col.align, false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(fontFamily, "", 10)
	for _, row := range out.Report {
		if row.Responsible == report.TotalLabel {
			pdf.SetFont(fontFamily, "B", 10)
		}
		cells := []string{
			row.Responsible,
			strconv.Itoa(row.TaskCount),
			strconv.Itoa(row.DesignTotal),
			strconv.Itoa(row.VariantTotal),
			row.AverageScore.String(),
		}
		for i, col := range pdfColumns {
			pdf.CellFormat(col.width, 6, cells[i], "1", 0, col.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.Output(w)
}

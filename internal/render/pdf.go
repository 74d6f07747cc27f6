package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
)

// PDFRenderer lays descriptors out as a single A4 page.
type PDFRenderer struct{}

// NewPDFRenderer creates a PDFRenderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// ContentType implements Renderer.
func (r *PDFRenderer) ContentType() string { return "application/pdf" }

// Extension implements Renderer.
func (r *PDFRenderer) Extension() string { return ".pdf" }

// Render implements Renderer.
func (r *PDFRenderer) Render(ctx context.Context, d model.LiabilityDescriptor) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(title(d), true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(0, 10, tr(title(d)), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 10)
	field := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(45, 6, tr(label), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, tr(value), "", 1, "L", false, 0, "")
	}
	field("Payer", d.Payer.Name)
	field("Tax ID", d.Payer.TaxID)
	field("Period", d.PeriodLabel)
	field("Due date", d.DueDate.Format("02/01/2006"))
	pdf.Ln(4)

	for _, s := range d.Sections {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, tr(s.Title), "B", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(30, 7, "Code", "1", 0, "C", false, 0, "")
		pdf.CellFormat(110, 7, "Categories", "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, "Amount", "1", 1, "R", false, 0, "")

		pdf.SetFont("Helvetica", "", 10)
		for _, l := range s.Lines {
			pdf.CellFormat(30, 7, l.RevenueCode, "1", 0, "C", false, 0, "")
			pdf.CellFormat(110, 7, categoryList(l.Categories), "1", 0, "L", false, 0, "")
			pdf.CellFormat(40, 7, l.Amount.StringFixed(2), "1", 1, "R", false, 0, "")
		}
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(140, 7, "Subtotal", "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 7, s.Subtotal.StringFixed(2), "1", 1, "R", false, 0, "")
		pdf.Ln(4)
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(140, 9, "Total due", "T", 0, "R", false, 0, "")
	pdf.CellFormat(40, 9, d.Total.StringFixed(2), "T", 1, "R", false, 0, "")

	if len(d.Notes) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 9)
		for _, n := range d.Notes {
			pdf.MultiCell(0, 5, tr(n), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func categoryList(categories []model.Category) string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.String()
	}
	return strings.Join(names, ", ")
}

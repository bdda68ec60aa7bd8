package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// RoomGrid is a rendered seat layout for one room. Cells hold the student
// number for occupied seats, an empty string for unfilled seats, and "|" for
// corridor lanes between desk groups.
type RoomGrid struct {
	Room  string
	Cells [][]string
}

// PDFExporter renders datasets and seating charts into basic PDFs.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	pdf.SetFont("Arial", "B", 10)
	colWidth := 190.0 / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			value := row[header]
			pdf.CellFormat(colWidth, 7, value, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderSeating creates a landscape PDF with one seating chart per room.
func (e *PDFExporter) RenderSeating(title string, grids []RoomGrid) ([]byte, error) {
	if len(grids) == 0 {
		return nil, fmt.Errorf("seating pdf requires at least one room grid")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)

	for _, grid := range grids {
		pdf.AddPage()
		pdf.SetFont("Arial", "B", 14)
		header := title
		if grid.Room != "" {
			header = fmt.Sprintf("%s - %s", title, grid.Room)
		}
		pdf.CellFormat(0, 10, strings.ToUpper(header), "", 1, "C", false, 0, "")
		pdf.Ln(3)

		cols := 0
		for _, row := range grid.Cells {
			if len(row) > cols {
				cols = len(row)
			}
		}
		if cols == 0 {
			pdf.SetFont("Arial", "", 10)
			pdf.CellFormat(0, 8, "no seating data for this room", "", 1, "C", false, 0, "")
			continue
		}

		cellWidth := 277.0 / float64(cols)
		if cellWidth > 30 {
			cellWidth = 30
		}
		pdf.SetFont("Arial", "", 8)
		for _, row := range grid.Cells {
			for _, cell := range row {
				border := "1"
				fill := false
				if cell == "|" {
					// corridor lanes are drawn without a border
					border = ""
					cell = ""
				}
				pdf.CellFormat(cellWidth, 8, cell, border, 0, "C", fill, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render seating pdf: %w", err)
	}
	return buf.Bytes(), nil
}

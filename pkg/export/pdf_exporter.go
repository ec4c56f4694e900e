package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Receipt carries the fields rendered onto a payment receipt document.
type Receipt struct {
	ReceiptNo   string
	StudentName string
	Email       string
	Programs    string
	AmountPaid  string
	SenderName  string
	PaidAt      string
	NextDueAt   string
}

// PDFExporter renders payment receipts for approved records.
type PDFExporter struct {
	title string
}

// NewPDFExporter constructs a PDF exporter with the organisation title used
// in the receipt header.
func NewPDFExporter(title string) *PDFExporter {
	if title == "" {
		title = "First Class Tutorials"
	}
	return &PDFExporter{title: title}
}

// RenderReceipt creates a single-page receipt PDF.
func (e *PDFExporter) RenderReceipt(r Receipt) ([]byte, error) {
	if r.ReceiptNo == "" {
		return nil, fmt.Errorf("receipt requires a receipt number")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, e.title, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 8, "Payment Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	rows := [][2]string{
		{"Receipt No.", r.ReceiptNo},
		{"Student", r.StudentName},
		{"Email", r.Email},
		{"Programs", r.Programs},
		{"Amount Paid", r.AmountPaid},
		{"Sender Name", r.SenderName},
		{"Payment Date", r.PaidAt},
		{"Next Payment Due", r.NextDueAt},
	}

	pdf.SetFont("Arial", "", 10)
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(55, 8, row[0], "1", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(125, 8, row[1], "1", 1, "", false, 0, "")
	}

	pdf.Ln(8)
	pdf.SetFont("Arial", "I", 9)
	pdf.CellFormat(0, 6, "Payments are verified manually by an administrator. Keep this receipt for your records.", "", 1, "", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render receipt pdf: %w", err)
	}
	return buf.Bytes(), nil
}

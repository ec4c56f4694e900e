package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/firstclass-tutorials/fct-api/internal/models"
	appErrors "github.com/firstclass-tutorials/fct-api/pkg/errors"
	"github.com/firstclass-tutorials/fct-api/pkg/export"
)

const exportPageSize = 200

type studentLister interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentRecord, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.StudentRecord, error)
}

// ExportService renders listing CSVs and payment receipt PDFs.
type ExportService struct {
	students studentLister
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(students studentLister, csv *export.CSVExporter, pdf *export.PDFExporter, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{students: students, csv: csv, pdf: pdf, logger: logger}
}

var studentCSVHeaders = []string{
	"Full Name", "Email", "Phone", "Address", "Date of Birth", "Programs",
	"Class Timing", "Registered", "Amount Paid", "Sender Name",
	"Payment Status", "Last Payment", "Next Payment Due",
}

// StudentsCSV renders the filtered listing as CSV. Pagination on the filter
// is ignored; the export walks the full result set.
func (s *ExportService) StudentsCSV(ctx context.Context, filter models.StudentFilter) ([]byte, error) {
	filter.PageSize = exportPageSize
	rows := make([]map[string]string, 0)
	for page := 1; ; page++ {
		filter.Page = page
		students, pagination, err := s.students.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		for _, student := range students {
			rows = append(rows, studentCSVRow(student))
		}
		if len(students) == 0 || page*exportPageSize >= pagination.TotalCount {
			break
		}
	}

	data, err := s.csv.Render(export.Dataset{Headers: studentCSVHeaders, Rows: rows})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
	}
	return data, nil
}

func studentCSVRow(student models.StudentRecord) map[string]string {
	row := map[string]string{
		"Full Name":      student.FullName,
		"Email":          student.Email,
		"Phone":          student.Phone,
		"Address":        student.Address,
		"Date of Birth":  student.DateOfBirth.Format("2006-01-02"),
		"Programs":       strings.Join(student.SelectedPrograms, " "),
		"Class Timing":   student.ClassTiming,
		"Registered":     student.RegistrationDate.Format(time.RFC3339),
		"Amount Paid":    fmt.Sprintf("%.2f", student.AmountPaid),
		"Payment Status": string(student.PaymentStatus),
	}
	if student.SenderName != nil {
		row["Sender Name"] = *student.SenderName
	}
	if student.LastPaymentDate != nil {
		row["Last Payment"] = student.LastPaymentDate.Format(time.RFC3339)
	}
	if student.NextPaymentDueDate != nil {
		row["Next Payment Due"] = student.NextPaymentDueDate.Format(time.RFC3339)
	}
	return row
}

// Receipt renders a payment receipt PDF for an approved record.
func (s *ExportService) Receipt(ctx context.Context, id string) ([]byte, error) {
	student, err := s.students.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if student.PaymentStatus != models.PaymentApproved {
		return nil, appErrors.Clone(appErrors.ErrValidation, "receipt is only available for approved payments")
	}

	receipt := export.Receipt{
		ReceiptNo:   receiptNumber(student),
		StudentName: student.FullName,
		Email:       student.Email,
		Programs:    strings.ToUpper(strings.Join(student.SelectedPrograms, ", ")),
		AmountPaid:  fmt.Sprintf("NGN %.2f", student.AmountPaid),
	}
	if student.SenderName != nil {
		receipt.SenderName = *student.SenderName
	}
	if student.LastPaymentDate != nil {
		receipt.PaidAt = student.LastPaymentDate.Format("2 January 2006")
	}
	if student.NextPaymentDueDate != nil {
		receipt.NextDueAt = student.NextPaymentDueDate.Format("2 January 2006")
	}

	data, err := s.pdf.RenderReceipt(receipt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render receipt")
	}
	return data, nil
}

func receiptNumber(student *models.StudentRecord) string {
	hex := student.ID.Hex()
	suffix := hex
	if len(hex) > 8 {
		suffix = hex[len(hex)-8:]
	}
	return "FCT-" + strings.ToUpper(suffix)
}

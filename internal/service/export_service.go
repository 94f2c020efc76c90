package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"imtr/backend/config"
	"imtr/backend/internal/dto"
	"imtr/backend/internal/model"
	"imtr/backend/internal/repository"
)

// ── export module errors ──

var ErrExportGenerateFail = errors.New("failed to generate export file")

const maxExportRows = 5000

// ExportService file exports of finance data
//
//   - invoices as an .xlsx workbook, filtered like the invoice list
//   - open invoices as an iCalendar feed of all-day due-date events
//
// Results are returned as bytes; the handler sets the download headers.
type ExportService interface {
	ExportInvoices(ctx context.Context, req *dto.InvoiceListRequest) (*bytes.Buffer, string, error)
	InvoiceCalendar(ctx context.Context, studentID string) ([]byte, error)
	MyInvoiceCalendar(ctx context.Context, userID string) ([]byte, error)
}

type exportService struct {
	cfg    *config.Config
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService creates an ExportService
func NewExportService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{cfg: cfg, repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportInvoices
// ═══════════════════════════════════════════════════════════
//
// Layout: title row, header row, one row per invoice, totals row.

var invoiceColumns = []struct {
	title string
	width float64
}{
	{"Invoice #", 22},
	{"Student #", 18},
	{"Student", 26},
	{"Items", 40},
	{"Total (KES)", 14},
	{"Paid (KES)", 14},
	{"Balance (KES)", 14},
	{"Status", 12},
	{"Due date", 12},
	{"Created", 20},
}

func (s *exportService) ExportInvoices(ctx context.Context, req *dto.InvoiceListRequest) (*bytes.Buffer, string, error) {
	filters, err := invoiceFilters(req)
	if err != nil {
		return nil, "", err
	}

	invoices, err := s.repo.Invoice.ListForExport(ctx, filters, maxExportRows)
	if err != nil {
		s.logger.Error("failed to load invoices for export", zap.Error(err))
		return nil, "", err
	}

	ids := make([]string, 0, len(invoices))
	for _, inv := range invoices {
		ids = append(ids, inv.ID)
	}
	paid, err := s.repo.Payment.SumCompletedByInvoices(ctx, ids)
	if err != nil {
		s.logger.Error("failed to sum payments for export", zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Invoices"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		s.logger.Error("failed to create sheet", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	for i, c := range invoiceColumns {
		col := colName(i)
		f.SetColWidth(sheet, col, col, c.width)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1F4E79"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	moneyFmt := "#,##0.00"
	moneyStyle, _ := f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})

	now := time.Now()
	f.SetCellValue(sheet, "A1", fmt.Sprintf("Invoices, exported %s", now.Format("2006-01-02 15:04")))
	f.MergeCell(sheet, "A1", cell(colName(len(invoiceColumns)-1), 1))

	for i, c := range invoiceColumns {
		f.SetCellValue(sheet, cell(colName(i), 2), c.title)
	}
	f.SetCellStyle(sheet, "A2", cell(colName(len(invoiceColumns)-1), 2), headerStyle)

	row := 3
	var sumTotal, sumPaid float64
	for i := range invoices {
		inv := &invoices[i]
		p := model.RoundKES(paid[inv.ID])

		studentNumber, studentName := "", ""
		if inv.Student != nil {
			studentNumber = inv.Student.StudentNumber
			if inv.Student.User != nil {
				studentName = inv.Student.User.FullName()
			}
		}

		values := []interface{}{
			inv.InvoiceNumber,
			studentNumber,
			studentName,
			itemSummary(inv.Items),
			inv.TotalKES,
			p,
			balance(inv.TotalKES, p),
			inv.Status,
			formatDate(inv.DueDate),
			inv.CreatedAt.Format("2006-01-02 15:04"),
		}
		for c, v := range values {
			f.SetCellValue(sheet, cell(colName(c), row), v)
		}
		if inv.Status != model.InvoiceStatusCancelled {
			sumTotal += inv.TotalKES
			sumPaid += p
		}
		row++
	}

	f.SetCellValue(sheet, cell("D", row), "Total (excluding cancelled)")
	f.SetCellValue(sheet, cell("E", row), model.RoundKES(sumTotal))
	f.SetCellValue(sheet, cell("F", row), model.RoundKES(sumPaid))
	f.SetCellValue(sheet, cell("G", row), balance(sumTotal, sumPaid))
	f.SetCellStyle(sheet, "E3", cell("G", row), moneyStyle)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("failed to write workbook", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("invoices_%s.xlsx", now.Format("20060102"))
	return buf, filename, nil
}

// itemSummary "Tuition 45,000.00; Library 2,000.00"
func itemSummary(items []model.InvoiceItem) string {
	var buf bytes.Buffer
	for i, it := range items {
		if i > 0 {
			buf.WriteString("; ")
		}
		fmt.Fprintf(&buf, "%s %.2f", it.Item, it.AmountKES)
	}
	return buf.String()
}

// ═══════════════════════════════════════════════════════════
// InvoiceCalendar
// ═══════════════════════════════════════════════════════════

// InvoiceCalendar feed of open invoices; every student's when studentID is empty
func (s *exportService) InvoiceCalendar(ctx context.Context, studentID string) ([]byte, error) {
	invoices, err := s.repo.Invoice.ListOpen(ctx, studentID)
	if err != nil {
		s.logger.Error("failed to load open invoices", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	return []byte(s.buildCalendar(invoices, time.Now())), nil
}

// MyInvoiceCalendar feed for the student record owned by userID
func (s *exportService) MyInvoiceCalendar(ctx context.Context, userID string) ([]byte, error) {
	student, err := s.repo.Student.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("failed to load student", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return s.InvoiceCalendar(ctx, student.ID)
}

func (s *exportService) buildCalendar(invoices []model.Invoice, now time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//IMTR//Fee Due Dates//EN")
	cal.SetXWRCalName("IMTR fee due dates")

	for i := range invoices {
		inv := &invoices[i]
		event := cal.AddEvent(inv.ID + "@imtr")
		event.SetDtStampTime(now)
		event.SetAllDayStartAt(inv.DueDate)
		event.SetAllDayEndAt(inv.DueDate.AddDate(0, 0, 1))
		event.SetSummary(fmt.Sprintf("Fee due: %s (KES %.2f)", inv.InvoiceNumber, inv.TotalKES))

		desc := fmt.Sprintf("Invoice %s, status %s. %s", inv.InvoiceNumber, inv.Status, itemSummary(inv.Items))
		if inv.Student != nil {
			desc = fmt.Sprintf("Student %s. %s", inv.Student.StudentNumber, desc)
		}
		event.SetDescription(desc)
		if base := s.cfg.Server.BaseURL; base != "" {
			event.SetURL(fmt.Sprintf("%s/api/v1/finance/invoices/%s", base, inv.ID))
		}
	}
	return cal.Serialize()
}

// ── helpers ──

// colName zero-based column index to letters
func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

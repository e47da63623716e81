package services

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/draftsign/draftsign-api/internal/models"
	"github.com/draftsign/draftsign-api/internal/repository"
)

// ExportService produces operator-facing spreadsheet exports
type ExportService struct {
	docRepo repository.DocumentRepository
}

// NewExportService creates a new export service
func NewExportService(docRepo repository.DocumentRepository) *ExportService {
	return &ExportService{docRepo: docRepo}
}

// ExportInvoicesXLSX builds an invoice aging workbook for a tenant: one row
// per open invoice with days overdue, plus a totals block.
func (s *ExportService) ExportInvoicesXLSX(ctx context.Context, tenantID uint) ([]byte, string, error) {
	query := &repository.DocumentQuery{
		ListQuery: &repository.ListQuery{
			Page:    1,
			PerPage: 10000,
			Filters: map[string]string{"status_in": "sent,viewed,partially_paid,overdue,paid"},
		},
		TenantID: tenantID,
		Type:     models.DocTypeInvoice,
	}
	invoices, _, err := s.docRepo.List(ctx, query)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	sheet := "Invoices"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"ID", "Title", "Client", "Status", "Due Date", "Days Overdue", "Total", "Paid", "Due"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	now := time.Now()
	var totalBilled, totalPaid, totalDue float64
	row := 2
	for i := range invoices {
		inv := &invoices[i]

		dueDate := ""
		daysOverdue := 0
		if inv.DueDate != nil {
			dueDate = inv.DueDate.Format("2006-01-02")
			if inv.Status != models.StatusPaid && now.After(*inv.DueDate) {
				daysOverdue = int(now.Sub(*inv.DueDate).Hours() / 24)
			}
		}

		values := []interface{}{
			inv.ID,
			inv.Title,
			inv.Client.FullName,
			inv.Status,
			dueDate,
			daysOverdue,
			inv.Total,
			inv.AmountPaid,
			inv.AmountDue,
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		totalBilled += inv.Total
		totalPaid += inv.AmountPaid
		totalDue += inv.AmountDue
		row++
	}

	row++
	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Totals")
	_ = f.SetCellValue(sheet, fmt.Sprintf("G%d", row), models.RoundCents(totalBilled))
	_ = f.SetCellValue(sheet, fmt.Sprintf("H%d", row), models.RoundCents(totalPaid))
	_ = f.SetCellValue(sheet, fmt.Sprintf("I%d", row), models.RoundCents(totalDue))

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("invoices_%s.xlsx", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

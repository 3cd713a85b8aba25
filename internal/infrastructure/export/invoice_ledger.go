package export

import (
	"context"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/training-procurement/internal/application/port"
	"github.com/garyjia/training-procurement/internal/domain/entity"
)

const (
	ledgerSheet = "Invoices"
	dateLayout  = "2006-01-02"
)

var ledgerHeader = []interface{}{
	"Invoice ID", "Type", "Status", "Purchase Order", "Training Request",
	"Technology", "Duration", "Trainer", "Client",
	"Training Amount", "Commission %", "Commission", "Total",
	"Created", "Approved", "Paid",
}

// InvoiceLedger renders invoices into an xlsx workbook
type InvoiceLedger struct {
	logger *zap.Logger
}

// NewInvoiceLedger creates a new ledger exporter
func NewInvoiceLedger(logger *zap.Logger) *InvoiceLedger {
	return &InvoiceLedger{logger: logger}
}

// WriteLedger writes one row per invoice followed by a totals row
func (l *InvoiceLedger) WriteLedger(ctx context.Context, invoices []*entity.Invoice, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ledgerSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(ledgerSheet, "A1", &ledgerHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(ledgerHeader))
	if err := f.SetCellStyle(ledgerSheet, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	var training, total decimal.Decimal
	for i, inv := range invoices {
		if err := ctx.Err(); err != nil {
			return err
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := ledgerRow(inv)
		if err := f.SetSheetRow(ledgerSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write invoice %d: %w", inv.ID, err)
		}
		training = training.Add(decimal.NewFromFloat(inv.TrainingAmount))
		total = total.Add(decimal.NewFromFloat(inv.TotalAmount))
	}

	totalsRow := len(invoices) + 2
	cell, _ := excelize.CoordinatesToCellName(1, totalsRow)
	totals := []interface{}{"Total", "", "", "", "", "", "", "", "", training.InexactFloat64(), "", "", total.InexactFloat64()}
	if err := f.SetSheetRow(ledgerSheet, cell, &totals); err != nil {
		return fmt.Errorf("failed to write totals: %w", err)
	}
	end, _ := excelize.CoordinatesToCellName(len(ledgerHeader), totalsRow)
	if err := f.SetCellStyle(ledgerSheet, cell, end, bold); err != nil {
		return fmt.Errorf("failed to style totals: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	l.logger.Info("Invoice ledger exported", zap.Int("invoice_count", len(invoices)))
	return nil
}

func ledgerRow(inv *entity.Invoice) []interface{} {
	row := []interface{}{
		inv.ID,
		string(inv.Type),
		inv.Status.String(),
		inv.PurchaseOrderID,
		inv.TrainingRequestID,
		inv.Technology,
		inv.Duration,
		inv.TrainerName,
		inv.ClientName,
		inv.TrainingAmount,
		optional(inv.CommissionPercent),
		optional(inv.CommissionAmount),
		inv.TotalAmount,
		inv.CreatedAt.Format(dateLayout),
		"",
		"",
	}
	if inv.ApprovedAt != nil {
		row[14] = inv.ApprovedAt.Format(dateLayout)
	}
	if inv.PaidAt != nil {
		row[15] = inv.PaidAt.Format(dateLayout)
	}
	return row
}

func optional(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

// Verify interface compliance
var _ port.LedgerExporter = (*InvoiceLedger)(nil)

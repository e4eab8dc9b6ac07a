package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"order-service/internal/invoicing"
	"order-service/internal/model"
	"order-service/prometheus"

	"gorm.io/gorm"
)

// maxInvoiceAttempts bounds how often a transaction that lost an invoice
// number race is replayed.
const maxInvoiceAttempts = 3

// allocateInvoiceNumber hands out the next FACT-YYYYMM-NNNN number for the
// month of now. It must run inside the transaction that inserts the invoice:
// the counter row stays locked until that transaction ends, so concurrent
// issuers for the same month are serialised by the database.
func allocateInvoiceNumber(tx *gorm.DB, now time.Time) (string, error) {
	period := invoicing.PeriodKey(now)

	result := tx.Model(&model.InvoiceSequence{}).
		Where("period = ?", period).
		UpdateColumn("last_value", gorm.Expr("last_value + 1"))
	if result.Error != nil {
		return "", fmt.Errorf("advance invoice sequence %s: %w", period, result.Error)
	}

	if result.RowsAffected == 0 {
		// First invoice of the month for this counter. Seed from any numbers
		// already issued so a reset counter never reuses one.
		var numbers []string
		if err := tx.Model(&model.Invoice{}).
			Where("number LIKE ?", invoicing.Prefix(period)+"%").
			Pluck("number", &numbers).Error; err != nil {
			return "", fmt.Errorf("read invoice numbers %s: %w", period, err)
		}

		seq := model.InvoiceSequence{Period: period, LastValue: invoicing.NextSequence(numbers, period)}
		if err := tx.Create(&seq).Error; err != nil {
			// A concurrent issuer created the row first; the caller retries.
			return "", fmt.Errorf("seed invoice sequence %s: %w", period, err)
		}
		return invoicing.FormatNumber(period, seq.LastValue), nil
	}

	var seq model.InvoiceSequence
	if err := tx.Where("period = ?", period).First(&seq).Error; err != nil {
		return "", fmt.Errorf("read invoice sequence %s: %w", period, err)
	}
	return invoicing.FormatNumber(period, seq.LastValue), nil
}

// inInvoiceTx runs fn in a transaction and replays it when an insert hit a
// unique constraint, which is how a lost invoice number race surfaces.
func inInvoiceTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= maxInvoiceAttempts; attempt++ {
		err = db.WithContext(ctx).Transaction(fn)
		if err == nil || !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		prometheus.RecordInvoiceNumberRetry()
	}
	return err
}

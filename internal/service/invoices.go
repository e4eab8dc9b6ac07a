package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"order-service/internal/invoicing"
	"order-service/internal/model"
	"order-service/prometheus"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GenerateInvoiceInput is the payload for issuing an invoice by hand
type GenerateInvoiceInput struct {
	OrderID uint `json:"orderId"`
}

// InvoiceService issues and reads invoices
type InvoiceService struct {
	db  *gorm.DB
	tax invoicing.TaxCalculator
	log *zap.Logger
	now func() time.Time
}

// NewInvoiceService returns an InvoiceService applying taxRate
func NewInvoiceService(db *gorm.DB, taxRate float64, log *zap.Logger) *InvoiceService {
	return &InvoiceService{
		db:  db,
		tax: invoicing.NewTaxCalculator(taxRate),
		log: log,
		now: time.Now,
	}
}

// issue allocates a number and inserts the invoice for order inside tx
func (s *InvoiceService) issue(tx *gorm.DB, order *model.Order, now time.Time) (*model.Invoice, error) {
	tax, total := s.tax.Totals(order.Total)
	if !invoicing.FitsAmount(total) {
		return nil, invalid("El total de la orden excede el máximo permitido")
	}

	number, err := allocateInvoiceNumber(tx, now)
	if err != nil {
		return nil, err
	}

	invoice := model.Invoice{
		Number:   number,
		Date:     now,
		ClientID: order.ClientID,
		OrderID:  order.ID,
		Subtotal: order.Total,
		Tax:      tax,
		Total:    total,
	}
	if err := tx.Omit("Client", "Order").Create(&invoice).Error; err != nil {
		return nil, fmt.Errorf("create invoice %s: %w", number, err)
	}
	return &invoice, nil
}

// Generate issues an invoice for an order that does not have one yet
func (s *InvoiceService) Generate(ctx context.Context, in GenerateInvoiceInput) (*model.Invoice, error) {
	if in.OrderID == 0 {
		return nil, invalid("El ID de la orden es requerido")
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	var invoice *model.Invoice
	err := inInvoiceTx(ctx, s.db, func(tx *gorm.DB) error {
		var order model.Order
		if err := tx.First(&order, in.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("Orden no encontrada")
			}
			return fmt.Errorf("get order %d: %w", in.OrderID, err)
		}

		var existing int64
		if err := tx.Model(&model.Invoice{}).Where("order_id = ?", order.ID).Count(&existing).Error; err != nil {
			return fmt.Errorf("check invoice for order %d: %w", order.ID, err)
		}
		if existing > 0 {
			return newError(ErrAlreadyInvoiced, "La orden ya tiene una factura")
		}

		var err error
		invoice, err = s.issue(tx, &order, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	prometheus.RecordInvoiceIssued("manual")
	s.log.Info("Invoice generated",
		zap.String("number", invoice.Number),
		zap.Uint("order_id", invoice.OrderID))
	return s.Get(ctx, invoice.ID)
}

// List returns every invoice with its client and order
func (s *InvoiceService) List(ctx context.Context) ([]model.Invoice, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var invoices []model.Invoice
	if err := s.db.WithContext(ctx).
		Preload("Client").
		Preload("Order").
		Order("id").
		Find(&invoices).Error; err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, nil
}

// Get returns one invoice with its client and order lines
func (s *InvoiceService) Get(ctx context.Context, id uint) (*model.Invoice, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var invoice model.Invoice
	if err := s.db.WithContext(ctx).
		Preload("Client").
		Preload("Order.Items.Product").
		First(&invoice, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Factura no encontrada")
		}
		return nil, fmt.Errorf("get invoice %d: %w", id, err)
	}
	return &invoice, nil
}

package service

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"order-service/internal/model"
	"order-service/pkg/mailer"
	"order-service/prometheus"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed templates/invoice.html
var templateFS embed.FS

var invoiceTemplate = template.Must(template.ParseFS(templateFS, "templates/invoice.html"))

type invoiceEmailLine struct {
	Name      string
	Quantity  int
	UnitPrice string
	Subtotal  string
}

type invoiceEmailData struct {
	Subject     string
	Number      string
	OrderID     uint
	Date        string
	ClientName  string
	ClientEmail string
	ClientPhone string
	Lines       []invoiceEmailLine
	Subtotal    string
	Tax         string
	Total       string
}

// EmailService sends invoice emails and keeps the delivery log
type EmailService struct {
	db          *gorm.DB
	sender      mailer.Sender
	maxAttempts int
	log         *zap.Logger
}

// NewEmailService returns an EmailService delivering through sender
func NewEmailService(db *gorm.DB, sender mailer.Sender, maxAttempts int, log *zap.Logger) *EmailService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &EmailService{db: db, sender: sender, maxAttempts: maxAttempts, log: log}
}

// InvoiceSubject returns the subject line used for an order's invoice email
func InvoiceSubject(orderID uint) string {
	return fmt.Sprintf("Factura #%d - Tu Compra", orderID)
}

// SendInvoice renders and sends the invoice email for order, which must have
// its client and line products loaded. Every call appends one EmailLog row.
func (s *EmailService) SendInvoice(ctx context.Context, order *model.Order, invoice *model.Invoice) error {
	_, err := s.deliver(ctx, order, invoice)
	return err
}

func (s *EmailService) deliver(ctx context.Context, order *model.Order, invoice *model.Invoice) (*model.EmailLog, error) {
	if order.Client == nil {
		return nil, fmt.Errorf("order %d has no client loaded", order.ID)
	}

	subject := InvoiceSubject(order.ID)
	html, err := renderInvoice(subject, order, invoice)
	if err != nil {
		return s.record(ctx, order.Client.Email, subject, err, 0), err
	}

	msg := mailer.Message{
		ToEmail:   order.Client.Email,
		ToName:    order.Client.FullName(),
		Subject:   subject,
		PlainText: plainInvoice(order, invoice),
		HTML:      html,
	}

	attempts := 0
	for attempts < s.maxAttempts {
		attempts++
		if err = s.sender.Send(ctx, msg); err == nil {
			break
		}
		s.log.Warn("Invoice email attempt failed",
			zap.Uint("order_id", order.ID),
			zap.Int("attempt", attempts),
			zap.Error(err))
		if ctx.Err() != nil {
			break
		}
	}

	entry := s.record(ctx, msg.ToEmail, subject, err, attempts)
	if err != nil {
		return entry, fmt.Errorf("send invoice email for order %d: %w", order.ID, err)
	}

	s.log.Info("Invoice email sent",
		zap.Uint("order_id", order.ID),
		zap.String("to", msg.ToEmail),
		zap.Int("attempts", attempts))
	return entry, nil
}

// ResendInvoice sends the email for an existing invoice again and returns
// the log entry it produced. A delivery failure is returned with the entry.
func (s *EmailService) ResendInvoice(ctx context.Context, invoiceID uint) (*model.EmailLog, error) {
	var invoice model.Invoice
	if err := s.db.WithContext(ctx).
		Preload("Order.Client").
		Preload("Order.Items.Product").
		First(&invoice, invoiceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Factura no encontrada")
		}
		return nil, fmt.Errorf("get invoice %d: %w", invoiceID, err)
	}
	if invoice.Order == nil {
		return nil, notFound("Orden no encontrada")
	}

	return s.deliver(ctx, invoice.Order, &invoice)
}

// ListLogs returns the email log, newest first
func (s *EmailService) ListLogs(ctx context.Context) ([]model.EmailLog, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var logs []model.EmailLog
	if err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list email logs: %w", err)
	}
	return logs, nil
}

// GetLog returns one email log entry
func (s *EmailService) GetLog(ctx context.Context, id uint) (*model.EmailLog, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var entry model.EmailLog
	if err := s.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Log de email no encontrado")
		}
		return nil, fmt.Errorf("get email log %d: %w", id, err)
	}
	return &entry, nil
}

// record appends the outcome to the email log. Failures to write the log
// are only logged.
func (s *EmailService) record(ctx context.Context, to, subject string, sendErr error, attempts int) *model.EmailLog {
	entry := model.EmailLog{
		To:       to,
		Subject:  subject,
		Status:   model.EmailStatusSuccess,
		Attempts: attempts,
	}
	if entry.Attempts < 1 {
		entry.Attempts = 1
	}
	if sendErr != nil {
		entry.Status = model.EmailStatusError
		entry.Error = sendErr.Error()
	}
	prometheus.RecordEmail(entry.Status)

	// The log row is written even when the request context is already done.
	if err := s.db.WithContext(context.WithoutCancel(ctx)).Create(&entry).Error; err != nil {
		s.log.Error("Failed to write email log",
			zap.String("to", to),
			zap.String("status", entry.Status),
			zap.Error(err))
	}
	return &entry
}

func renderInvoice(subject string, order *model.Order, invoice *model.Invoice) (string, error) {
	data := invoiceEmailData{
		Subject:     subject,
		OrderID:     order.ID,
		Date:        order.CreatedAt.Format("02/01/2006"),
		ClientName:  order.Client.FullName(),
		ClientEmail: order.Client.Email,
		ClientPhone: order.Client.Phone,
		Subtotal:    order.Total.StringFixed(2),
		Total:       order.Total.StringFixed(2),
		Tax:         "0.00",
	}
	if invoice != nil {
		data.Number = invoice.Number
		data.Date = invoice.Date.Format("02/01/2006")
		data.Subtotal = invoice.Subtotal.StringFixed(2)
		data.Tax = invoice.Tax.StringFixed(2)
		data.Total = invoice.Total.StringFixed(2)
	}
	for _, item := range order.Items {
		name := fmt.Sprintf("Producto #%d", item.ProductID)
		if item.Product != nil {
			name = item.Product.Name
		}
		data.Lines = append(data.Lines, invoiceEmailLine{
			Name:      name,
			Quantity:  item.Quantity,
			UnitPrice: item.Price.StringFixed(2),
			Subtotal:  item.LineTotal().StringFixed(2),
		})
	}

	var buf bytes.Buffer
	if err := invoiceTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render invoice email: %w", err)
	}
	return buf.String(), nil
}

func plainInvoice(order *model.Order, invoice *model.Invoice) string {
	var b strings.Builder
	if invoice != nil {
		fmt.Fprintf(&b, "Factura %s\n", invoice.Number)
	}
	fmt.Fprintf(&b, "Orden #%d\n\n", order.ID)
	for _, item := range order.Items {
		name := fmt.Sprintf("Producto #%d", item.ProductID)
		if item.Product != nil {
			name = item.Product.Name
		}
		fmt.Fprintf(&b, "%s x%d  $%s\n", name, item.Quantity, item.LineTotal().StringFixed(2))
	}
	if invoice != nil {
		fmt.Fprintf(&b, "\nSubtotal: $%s\nIVA: $%s\nTotal: $%s\n",
			invoice.Subtotal.StringFixed(2), invoice.Tax.StringFixed(2), invoice.Total.StringFixed(2))
	} else {
		fmt.Fprintf(&b, "\nTotal: $%s\n", order.Total.StringFixed(2))
	}
	return b.String()
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"order-service/internal/model"
)

func TestSendInvoiceRetries(t *testing.T) {
	s := newTestServices(t, false)
	ctx := context.Background()
	client := createClient(t, s.db, "ana@example.com")
	widget := createProduct(t, s.db, "Widget", "5.00")
	order, invoice, err := s.orders.Create(ctx, CreateOrderInput{
		ClientID: client.ID,
		Products: []OrderLineInput{{ProductID: widget.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	sender := &fakeSender{failN: 2}
	emails := NewEmailService(s.db, sender, 3, zap.NewNop())
	require.NoError(t, emails.SendInvoice(ctx, order, invoice))

	logs, err := emails.ListLogs(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	assert.Equal(t, model.EmailStatusSuccess, logs[0].Status)
	assert.Equal(t, 3, logs[0].Attempts)
	assert.Equal(t, 3, sender.calls)
}

func TestSendInvoiceGivesUp(t *testing.T) {
	s := newTestServices(t, false)
	ctx := context.Background()
	client := createClient(t, s.db, "ana@example.com")
	widget := createProduct(t, s.db, "Widget", "5.00")
	order, invoice, err := s.orders.Create(ctx, CreateOrderInput{
		ClientID: client.ID,
		Products: []OrderLineInput{{ProductID: widget.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	sender := &fakeSender{failN: 10}
	emails := NewEmailService(s.db, sender, 2, zap.NewNop())
	err = emails.SendInvoice(ctx, order, invoice)
	require.Error(t, err)

	logs, err := emails.ListLogs(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.EmailStatusError, logs[0].Status)
	assert.Equal(t, 2, logs[0].Attempts)

	entry, err := emails.GetLog(ctx, logs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, logs[0].ID, entry.ID)

	_, err = emails.GetLog(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResendInvoice(t *testing.T) {
	s := newTestServices(t, false)
	ctx := context.Background()
	client := createClient(t, s.db, "ana@example.com")
	widget := createProduct(t, s.db, "Widget", "5.00")
	_, invoice, err := s.orders.Create(ctx, CreateOrderInput{
		ClientID: client.ID,
		Products: []OrderLineInput{{ProductID: widget.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	entry, err := s.emails.ResendInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EmailStatusSuccess, entry.Status)
	assert.Len(t, s.sender.sent(), 2)

	_, err = s.emails.ResendInvoice(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRenderInvoiceEscapesContent(t *testing.T) {
	order := &model.Order{
		ID:     7,
		Total:  dec("10.00"),
		Client: &model.Client{Name: "<script>", Lastname: "x", Email: "a@b.co"},
		Items:  []model.OrderProduct{{ProductID: 1, Quantity: 1, Price: dec("10.00"), Product: &model.Product{Name: "Mouse & Pad"}}},
	}

	html, err := renderInvoice(InvoiceSubject(order.ID), order, nil)
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "Mouse &amp; Pad")
	assert.Contains(t, html, "Orden #7")
}

package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"order-service/internal/model"
	"order-service/pkg/mailer"
	"order-service/pkg/validator"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Use a unique in-memory database per test to avoid cross-test collisions.
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(model.All()...))
	return db
}

type fakeSender struct {
	mu       sync.Mutex
	messages []mailer.Message
	calls    int
	failN    int // fail the first failN calls
	err      error
}

func (f *fakeSender) Send(_ context.Context, msg mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failN {
		if f.err != nil {
			return f.err
		}
		return errors.New("provider unavailable")
	}
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeSender) sent() []mailer.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mailer.Message(nil), f.messages...)
}

type testServices struct {
	db       *gorm.DB
	sender   *fakeSender
	clients  *ClientService
	products *ProductService
	invoices *InvoiceService
	emails   *EmailService
	orders   *OrderService
	reports  *ReportService
}

func newTestServices(t *testing.T, strict bool) *testServices {
	t.Helper()
	db := setupTestDB(t)
	log := zap.NewNop()
	sender := &fakeSender{}

	v := validator.New()
	invoices := NewInvoiceService(db, 0.19, log)
	emails := NewEmailService(db, sender, 1, log)
	return &testServices{
		db:       db,
		sender:   sender,
		clients:  NewClientService(db, v, log),
		products: NewProductService(db, v, log),
		invoices: invoices,
		emails:   emails,
		orders:   NewOrderService(db, invoices, emails, v, strict, log),
		reports:  NewReportService(db),
	}
}

// at pins both order and invoice clocks
func (s *testServices) at(t time.Time) {
	s.orders.now = func() time.Time { return t }
	s.invoices.now = func() time.Time { return t }
}

func createClient(t *testing.T, db *gorm.DB, email string) model.Client {
	t.Helper()
	c := model.Client{Name: "Ana", Lastname: "Pérez", Email: email, Phone: "555-0100"}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func createProduct(t *testing.T, db *gorm.DB, name, price string) model.Product {
	t.Helper()
	p := model.Product{Name: name, Price: decimal.RequireFromString(price), Stock: 10}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func strPtr(s string) *string { return &s }

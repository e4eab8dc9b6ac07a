package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"order-service/internal/model"
	"order-service/prometheus"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// DateRange filters reports. The filter applies only when both ends are set;
// To covers its whole day.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// ParseDateRange reads the desde/hasta query values (YYYY-MM-DD or RFC 3339)
func ParseDateRange(desde, hasta string) (DateRange, error) {
	var r DateRange
	from, err := parseReportDate(desde)
	if err != nil {
		return r, invalid("Fecha 'desde' inválida: %s", desde)
	}
	to, err := parseReportDate(hasta)
	if err != nil {
		return r, invalid("Fecha 'hasta' inválida: %s", hasta)
	}
	if from != nil && to != nil && to.Before(*from) {
		return r, invalid("La fecha 'hasta' debe ser posterior a 'desde'")
	}
	r.From, r.To = from, to
	return r, nil
}

func parseReportDate(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Active reports whether the range filters anything
func (r DateRange) Active() bool {
	return r.From != nil && r.To != nil
}

// apply adds a [From, end of To] condition on column when the range is active
func (r DateRange) apply(db *gorm.DB, column string) *gorm.DB {
	if !r.Active() {
		return db
	}
	end := *r.To
	if end.Hour() == 0 && end.Minute() == 0 && end.Second() == 0 && end.Nanosecond() == 0 {
		end = end.AddDate(0, 0, 1)
		return db.Where(column+" >= ? AND "+column+" < ?", *r.From, end)
	}
	return db.Where(column+" BETWEEN ? AND ?", *r.From, end)
}

// SalesReport is the total invoiced in a range
type SalesReport struct {
	Cantidad int64           `json:"cantidad"`
	Total    decimal.Decimal `json:"total"`
	Facturas []model.Invoice `json:"facturas"`
}

// ProductSales is the quantity and revenue of one product
type ProductSales struct {
	ProductoID uint            `json:"productoId"`
	Nombre     string          `json:"nombre"`
	Cantidad   int64           `json:"cantidad"`
	Total      decimal.Decimal `json:"total"`
}

// ClientSales is the number of invoices and amount billed to one client
type ClientSales struct {
	ClienteID uint            `json:"clienteId"`
	Cliente   string          `json:"cliente"`
	Cantidad  int64           `json:"cantidad"`
	Total     decimal.Decimal `json:"total"`
}

// Summary is the global dashboard figure set
type Summary struct {
	TotalFacturas      int64           `json:"totalFacturas"`
	TotalIngresos      decimal.Decimal `json:"totalIngresos"`
	FacturasPendientes int64           `json:"facturasPendientes"`
}

// ReportService aggregates sales figures
type ReportService struct {
	db *gorm.DB
}

// NewReportService returns a ReportService backed by db
func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

// Sales returns the invoices in range with their count and summed totals
func (s *ReportService) Sales(ctx context.Context, r DateRange) (*SalesReport, error) {
	defer prometheus.TrackDBOperation("report")(time.Now())

	var invoices []model.Invoice
	q := r.apply(s.db.WithContext(ctx).Model(&model.Invoice{}), "date")
	if err := q.Preload("Client").Order("date").Order("id").Find(&invoices).Error; err != nil {
		return nil, fmt.Errorf("sales report: %w", err)
	}

	report := &SalesReport{Total: decimal.Zero, Facturas: invoices}
	for _, inv := range invoices {
		report.Total = report.Total.Add(inv.Total)
	}
	report.Cantidad = int64(len(invoices))
	return report, nil
}

// SalesByProduct sums line quantities and snapshot amounts per product for
// orders created in range
func (s *ReportService) SalesByProduct(ctx context.Context, r DateRange) ([]ProductSales, error) {
	defer prometheus.TrackDBOperation("report")(time.Now())

	var lines []model.OrderProduct
	q := s.db.WithContext(ctx).
		Joins("JOIN orders ON orders.id = order_products.order_id").
		Preload("Product")
	q = r.apply(q, "orders.created_at")
	if err := q.Order("order_products.product_id").Find(&lines).Error; err != nil {
		return nil, fmt.Errorf("sales by product report: %w", err)
	}

	result := []ProductSales{}
	index := map[uint]int{}
	for _, line := range lines {
		i, ok := index[line.ProductID]
		if !ok {
			name := ""
			if line.Product != nil {
				name = line.Product.Name
			}
			i = len(result)
			index[line.ProductID] = i
			result = append(result, ProductSales{ProductoID: line.ProductID, Nombre: name, Total: decimal.Zero})
		}
		result[i].Cantidad += int64(line.Quantity)
		result[i].Total = result[i].Total.Add(line.LineTotal())
	}
	return result, nil
}

// SalesByClient counts invoices and sums invoice totals per client in range
func (s *ReportService) SalesByClient(ctx context.Context, r DateRange) ([]ClientSales, error) {
	defer prometheus.TrackDBOperation("report")(time.Now())

	var invoices []model.Invoice
	q := r.apply(s.db.WithContext(ctx).Model(&model.Invoice{}), "date")
	if err := q.Preload("Client").Order("client_id").Order("id").Find(&invoices).Error; err != nil {
		return nil, fmt.Errorf("sales by client report: %w", err)
	}

	result := []ClientSales{}
	index := map[uint]int{}
	for _, inv := range invoices {
		i, ok := index[inv.ClientID]
		if !ok {
			name := ""
			if inv.Client != nil {
				name = inv.Client.FullName()
			}
			i = len(result)
			index[inv.ClientID] = i
			result = append(result, ClientSales{ClienteID: inv.ClientID, Cliente: name, Total: decimal.Zero})
		}
		result[i].Cantidad++
		result[i].Total = result[i].Total.Add(inv.Total)
	}
	return result, nil
}

// Summary returns invoice count, summed invoice totals and the number of
// pending orders. The three aggregates run concurrently.
func (s *ReportService) Summary(ctx context.Context) (*Summary, error) {
	defer prometheus.TrackDBOperation("report")(time.Now())

	summary := &Summary{TotalIngresos: decimal.Zero}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.db.WithContext(ctx).Model(&model.Invoice{}).Count(&summary.TotalFacturas).Error
	})

	g.Go(func() error {
		var totals []decimal.Decimal
		if err := s.db.WithContext(ctx).Model(&model.Invoice{}).Pluck("total", &totals).Error; err != nil {
			return err
		}
		for _, t := range totals {
			summary.TotalIngresos = summary.TotalIngresos.Add(t)
		}
		return nil
	})

	g.Go(func() error {
		return s.db.WithContext(ctx).Model(&model.Order{}).
			Where("status = ?", model.OrderStatusPending).
			Count(&summary.FacturasPendientes).Error
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("summary report: %w", err)
	}
	return summary, nil
}

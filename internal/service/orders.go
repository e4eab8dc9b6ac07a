package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"order-service/internal/invoicing"
	"order-service/internal/model"
	"order-service/pkg/validator"
	"order-service/prometheus"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxLineQuantity caps one product's quantity in an order, after repeated
// products are merged. Keep it in step with the lte tag on Quantity.
const maxLineQuantity = 100000

// OrderLineInput is one requested product and quantity
type OrderLineInput struct {
	ProductID uint `json:"productId" validate:"required"`
	Quantity  int  `json:"quantity" validate:"required,gt=0,lte=100000"`
}

// CreateOrderInput is the payload for placing an order
type CreateOrderInput struct {
	ClientID uint             `json:"clientId" validate:"required"`
	Products []OrderLineInput `json:"products" validate:"required,min=1,dive"`
}

// UpdateOrderInput is the payload for changing an order. A non-empty
// Products replaces every line; a nil or empty Status leaves the status
// unchanged.
type UpdateOrderInput struct {
	Products []OrderLineInput `json:"products" validate:"omitempty,dive"`
	Status   *string          `json:"status"`
}

// OrderService runs the order workflows
type OrderService struct {
	db                *gorm.DB
	invoices          *InvoiceService
	emails            *EmailService
	validator         *validator.Validator
	strictTransitions bool
	log               *zap.Logger
	now               func() time.Time
}

// NewOrderService returns an OrderService. With strictTransitions set, status
// changes must follow pending→completed or pending→cancelled.
func NewOrderService(db *gorm.DB, invoices *InvoiceService, emails *EmailService, v *validator.Validator, strictTransitions bool, log *zap.Logger) *OrderService {
	return &OrderService{
		db:                db,
		invoices:          invoices,
		emails:            emails,
		validator:         v,
		strictTransitions: strictTransitions,
		log:               log,
		now:               time.Now,
	}
}

// Create stores the order, its lines and its invoice in one transaction and
// then emails the invoice. Email failures are logged, never returned.
func (s *OrderService) Create(ctx context.Context, in CreateOrderInput) (*model.Order, *model.Invoice, error) {
	if err := validateInput(s.validator, in); err != nil {
		return nil, nil, err
	}
	requested, err := mergeLines(in.Products)
	if err != nil {
		return nil, nil, err
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	var orderID uint
	var invoice *model.Invoice
	err = inInvoiceTx(ctx, s.db, func(tx *gorm.DB) error {
		var client model.Client
		if err := tx.First(&client, in.ClientID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("Cliente no encontrado")
			}
			return fmt.Errorf("get client %d: %w", in.ClientID, err)
		}

		lines, err := priceLines(tx, requested)
		if err != nil {
			return err
		}

		total, err := checkedTotal(lines)
		if err != nil {
			return err
		}

		order := model.Order{
			ClientID: client.ID,
			Total:    total,
			Status:   model.OrderStatusPending,
		}
		if err := tx.Omit(clause.Associations).Create(&order).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if err := insertLines(tx, order.ID, lines); err != nil {
			return err
		}

		invoice, err = s.invoices.issue(tx, &order, s.now())
		if err != nil {
			return err
		}
		orderID = order.ID
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	prometheus.RecordOrderCreated()
	prometheus.RecordInvoiceIssued("order")

	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	invoice.Client = order.Client

	s.log.Info("Order created",
		zap.Uint("order_id", order.ID),
		zap.Uint("client_id", order.ClientID),
		zap.String("total", order.Total.StringFixed(2)),
		zap.String("invoice_number", invoice.Number))

	if err := s.emails.SendInvoice(ctx, order, invoice); err != nil {
		s.log.Error("Invoice email could not be delivered",
			zap.Uint("order_id", order.ID),
			zap.Error(err))
	}

	return order, invoice, nil
}

// Update replaces the order's lines and/or status in one transaction
func (s *OrderService) Update(ctx context.Context, id uint, in UpdateOrderInput) (*model.Order, error) {
	if in.Status != nil && *in.Status == "" {
		in.Status = nil
	}
	if err := validateInput(s.validator, in); err != nil {
		return nil, err
	}

	var requested []OrderLineInput
	if len(in.Products) > 0 {
		var err error
		if requested, err = mergeLines(in.Products); err != nil {
			return nil, err
		}
	}

	var next model.OrderStatus
	if in.Status != nil {
		next = model.OrderStatus(*in.Status)
		if !next.Valid() {
			return nil, invalid("Estado de orden inválido: %s", *in.Status)
		}
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order model.Order
		if err := tx.First(&order, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("Orden no encontrada")
			}
			return fmt.Errorf("get order %d: %w", id, err)
		}

		updates := map[string]interface{}{}

		if requested != nil {
			lines, err := priceLines(tx, requested)
			if err != nil {
				return err
			}
			if err := tx.Where("order_id = ?", order.ID).Delete(&model.OrderProduct{}).Error; err != nil {
				return fmt.Errorf("delete lines of order %d: %w", order.ID, err)
			}
			if err := insertLines(tx, order.ID, lines); err != nil {
				return err
			}
			total, err := checkedTotal(lines)
			if err != nil {
				return err
			}
			updates["total"] = total
		}

		if in.Status != nil {
			if s.strictTransitions && !order.Status.CanTransitionTo(next) {
				return newError(ErrInvalidTransition,
					fmt.Sprintf("No se puede cambiar el estado de %s a %s", order.Status, next))
			}
			updates["status"] = next
		}

		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return fmt.Errorf("update order %d: %w", order.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Order updated",
		zap.Uint("order_id", id),
		zap.Bool("lines_replaced", requested != nil),
		zap.Bool("status_changed", in.Status != nil))
	return s.Get(ctx, id)
}

// Delete removes an order together with its lines and invoice
func (s *OrderService) Delete(ctx context.Context, id uint) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order model.Order
		if err := tx.First(&order, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("Orden no encontrada")
			}
			return fmt.Errorf("get order %d: %w", id, err)
		}
		if err := tx.Where("order_id = ?", id).Delete(&model.Invoice{}).Error; err != nil {
			return fmt.Errorf("delete invoice of order %d: %w", id, err)
		}
		if err := tx.Where("order_id = ?", id).Delete(&model.OrderProduct{}).Error; err != nil {
			return fmt.Errorf("delete lines of order %d: %w", id, err)
		}
		if err := tx.Delete(&order).Error; err != nil {
			return fmt.Errorf("delete order %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("Order deleted", zap.Uint("order_id", id))
	return nil
}

// List returns every order with client, lines and invoice
func (s *OrderService) List(ctx context.Context) ([]model.Order, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var orders []model.Order
	if err := withOrderAssociations(s.db.WithContext(ctx)).Order("id").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// Get returns one order with client, lines and invoice
func (s *OrderService) Get(ctx context.Context, id uint) (*model.Order, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var order model.Order
	if err := withOrderAssociations(s.db.WithContext(ctx)).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Orden no encontrada")
		}
		return nil, fmt.Errorf("get order %d: %w", id, err)
	}
	return &order, nil
}

func withOrderAssociations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Client").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("product_id") }).
		Preload("Items.Product").
		Preload("Invoice")
}

// mergeLines folds repeated products into one line, keeping first-seen
// order. Lines must already be validated.
func mergeLines(in []OrderLineInput) ([]OrderLineInput, error) {
	if len(in) == 0 {
		return nil, invalid(defaultInvalidMessage)
	}

	merged := make([]OrderLineInput, 0, len(in))
	index := make(map[uint]int, len(in))
	for _, line := range in {
		if line.Quantity <= 0 || line.Quantity > maxLineQuantity {
			return nil, invalid(defaultInvalidMessage)
		}
		if i, ok := index[line.ProductID]; ok {
			if merged[i].Quantity > maxLineQuantity-line.Quantity {
				return nil, invalid(defaultInvalidMessage)
			}
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}
	return merged, nil
}

// priceLines looks up each product and snapshots its current price
func priceLines(tx *gorm.DB, requested []OrderLineInput) ([]model.OrderProduct, error) {
	lines := make([]model.OrderProduct, 0, len(requested))
	for _, r := range requested {
		var product model.Product
		if err := tx.First(&product, r.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, notFound("Producto con ID %d no encontrado", r.ProductID)
			}
			return nil, fmt.Errorf("get product %d: %w", r.ProductID, err)
		}
		lines = append(lines, model.OrderProduct{
			ProductID: product.ID,
			Quantity:  r.Quantity,
			Price:     product.Price,
		})
	}
	return lines, nil
}

// checkedTotal sums the lines and rejects totals a money column cannot hold
func checkedTotal(lines []model.OrderProduct) (decimal.Decimal, error) {
	total := invoicing.OrderTotal(lines)
	if !invoicing.FitsAmount(total) {
		return decimal.Zero, invalid("El total de la orden excede el máximo permitido")
	}
	return total, nil
}

func insertLines(tx *gorm.DB, orderID uint, lines []model.OrderProduct) error {
	for i := range lines {
		lines[i].OrderID = orderID
	}
	if err := tx.Omit(clause.Associations).Create(&lines).Error; err != nil {
		return fmt.Errorf("create lines of order %d: %w", orderID, err)
	}
	return nil
}

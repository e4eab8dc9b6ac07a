package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"order-service/internal/model"
	"order-service/pkg/validator"
	"order-service/prometheus"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProductInput is the payload for creating a product
type ProductInput struct {
	Name        string           `json:"name" validate:"required"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price" validate:"required,gte=0,lte=99999999.99"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
}

// ProductPatch is the payload for updating a product; nil fields are left unchanged
type ProductPatch struct {
	Name        *string          `json:"name" validate:"omitempty,min=1"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price" validate:"omitempty,gte=0,lte=99999999.99"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
}

// ProductService manages the product catalogue
type ProductService struct {
	db        *gorm.DB
	validator *validator.Validator
	log       *zap.Logger
}

// NewProductService returns a ProductService backed by db
func NewProductService(db *gorm.DB, v *validator.Validator, log *zap.Logger) *ProductService {
	return &ProductService{db: db, validator: v, log: log}
}

// List returns every product
func (s *ProductService) List(ctx context.Context) ([]model.Product, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var products []model.Product
	if err := s.db.WithContext(ctx).Order("id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Get returns one product
func (s *ProductService) Get(ctx context.Context, id uint) (*model.Product, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var product model.Product
	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Producto no encontrado")
		}
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return &product, nil
}

// Create validates and stores a new product
func (s *ProductService) Create(ctx context.Context, in ProductInput) (*model.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(s.validator, in); err != nil {
		return nil, err
	}

	product := model.Product{
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price.Round(2),
	}
	if in.Stock != nil {
		product.Stock = *in.Stock
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.log.Info("Product created",
		zap.Uint("product_id", product.ID),
		zap.String("name", product.Name),
		zap.String("price", product.Price.StringFixed(2)))
	return &product, nil
}

// Update applies the non-nil fields of patch. Existing order lines keep
// the price they were written with.
func (s *ProductService) Update(ctx context.Context, id uint, patch ProductPatch) (*model.Product, error) {
	patch.Name = trimmed(patch.Name)
	if err := validateInput(s.validator, patch); err != nil {
		return nil, err
	}

	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	oldPrice := product.Price
	if patch.Name != nil {
		product.Name = *patch.Name
	}
	if patch.Description != nil {
		product.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Price != nil {
		product.Price = patch.Price.Round(2)
	}
	if patch.Stock != nil {
		product.Stock = *patch.Stock
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := s.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, fmt.Errorf("update product %d: %w", id, err)
	}

	s.log.Info("Product updated",
		zap.Uint("product_id", product.ID),
		zap.String("old_price", oldPrice.StringFixed(2)),
		zap.String("new_price", product.Price.StringFixed(2)))
	return product, nil
}

// Delete removes a product that no order line references
func (s *ProductService) Delete(ctx context.Context, id uint) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())
	db := s.db.WithContext(ctx)

	var lines int64
	if err := db.Model(&model.OrderProduct{}).Where("product_id = ?", id).Count(&lines).Error; err != nil {
		return fmt.Errorf("count order lines for product %d: %w", id, err)
	}
	if lines > 0 {
		return newError(ErrInUse, "El producto está incluido en órdenes")
	}

	result := db.Delete(&model.Product{}, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrForeignKeyViolated) {
			return newError(ErrInUse, "El producto está incluido en órdenes")
		}
		return fmt.Errorf("delete product %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound("Producto no encontrado")
	}

	s.log.Info("Product deleted", zap.Uint("product_id", id))
	return nil
}

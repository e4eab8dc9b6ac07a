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

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ClientInput is the payload for creating a client
type ClientInput struct {
	Name     string `json:"name" validate:"required"`
	Lastname string `json:"lastname" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
}

// ClientPatch is the payload for updating a client; nil fields are left unchanged
type ClientPatch struct {
	Name     *string `json:"name" validate:"omitempty,min=1"`
	Lastname *string `json:"lastname" validate:"omitempty,min=1"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone" validate:"omitempty,min=1"`
}

// ClientService manages clients
type ClientService struct {
	db        *gorm.DB
	validator *validator.Validator
	log       *zap.Logger
}

// NewClientService returns a ClientService backed by db
func NewClientService(db *gorm.DB, v *validator.Validator, log *zap.Logger) *ClientService {
	return &ClientService{db: db, validator: v, log: log}
}

// List returns every client
func (s *ClientService) List(ctx context.Context) ([]model.Client, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var clients []model.Client
	if err := s.db.WithContext(ctx).Order("id").Find(&clients).Error; err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return clients, nil
}

// Get returns one client
func (s *ClientService) Get(ctx context.Context, id uint) (*model.Client, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var client model.Client
	if err := s.db.WithContext(ctx).First(&client, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Cliente no encontrado")
		}
		return nil, fmt.Errorf("get client %d: %w", id, err)
	}
	return &client, nil
}

// Create validates and stores a new client
func (s *ClientService) Create(ctx context.Context, in ClientInput) (*model.Client, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Lastname = strings.TrimSpace(in.Lastname)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)

	if err := validateInput(s.validator, in); err != nil {
		return nil, err
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	db := s.db.WithContext(ctx)
	if err := s.ensureEmailFree(db, in.Email, 0); err != nil {
		return nil, err
	}

	client := model.Client{Name: in.Name, Lastname: in.Lastname, Email: in.Email, Phone: in.Phone}
	if err := db.Create(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, newError(ErrDuplicateEmail, "El email ya está registrado")
		}
		return nil, fmt.Errorf("create client: %w", err)
	}

	s.log.Info("Client created", zap.Uint("client_id", client.ID), zap.String("email", client.Email))
	return &client, nil
}

// Update applies the non-nil fields of patch
func (s *ClientService) Update(ctx context.Context, id uint, patch ClientPatch) (*model.Client, error) {
	patch.Name = trimmed(patch.Name)
	patch.Lastname = trimmed(patch.Lastname)
	patch.Email = trimmed(patch.Email)
	patch.Phone = trimmed(patch.Phone)
	if err := validateInput(s.validator, patch); err != nil {
		return nil, err
	}

	client, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	db := s.db.WithContext(ctx)

	if patch.Email != nil {
		if *patch.Email != client.Email {
			if err := s.ensureEmailFree(db, *patch.Email, client.ID); err != nil {
				return nil, err
			}
		}
		client.Email = *patch.Email
	}
	for _, f := range []struct{ dst, src *string }{
		{&client.Name, patch.Name},
		{&client.Lastname, patch.Lastname},
		{&client.Phone, patch.Phone},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}

	if err := db.Save(client).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, newError(ErrDuplicateEmail, "El email ya está registrado")
		}
		return nil, fmt.Errorf("update client %d: %w", id, err)
	}

	s.log.Info("Client updated", zap.Uint("client_id", client.ID))
	return client, nil
}

// Delete removes a client that has no orders
func (s *ClientService) Delete(ctx context.Context, id uint) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())
	db := s.db.WithContext(ctx)

	var orders int64
	if err := db.Model(&model.Order{}).Where("client_id = ?", id).Count(&orders).Error; err != nil {
		return fmt.Errorf("count orders for client %d: %w", id, err)
	}
	if orders > 0 {
		return newError(ErrInUse, "El cliente tiene órdenes asociadas")
	}

	result := db.Delete(&model.Client{}, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrForeignKeyViolated) {
			return newError(ErrInUse, "El cliente tiene órdenes asociadas")
		}
		return fmt.Errorf("delete client %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound("Cliente no encontrado")
	}

	s.log.Info("Client deleted", zap.Uint("client_id", id))
	return nil
}

func (s *ClientService) ensureEmailFree(db *gorm.DB, email string, exceptID uint) error {
	var count int64
	q := db.Model(&model.Client{}).Where("email = ?", email)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("check client email: %w", err)
	}
	if count > 0 {
		return newError(ErrDuplicateEmail, "El email ya está registrado")
	}
	return nil
}

// trimmed returns a copy of p without surrounding spaces; nil stays nil
func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}

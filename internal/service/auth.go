package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"order-service/internal/model"
	"order-service/pkg/config"
	"order-service/pkg/jwtutil"
	"order-service/pkg/validator"
	"order-service/prometheus"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// RegisterInput is the payload for creating a user
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=admin empleado"`
}

// LoginInput is the payload for signing in
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult carries the issued token and the signed-in user
type LoginResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// AuthService manages operator accounts and issues tokens
type AuthService struct {
	db        *gorm.DB
	jwt       *jwtutil.JWTUtil
	validator *validator.Validator
	log       *zap.Logger
}

// NewAuthService returns an AuthService backed by db
func NewAuthService(db *gorm.DB, jwt *jwtutil.JWTUtil, v *validator.Validator, log *zap.Logger) *AuthService {
	return &AuthService{db: db, jwt: jwt, validator: v, log: log}
}

// Register creates an empleado account
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Role = model.RoleEmpleado
	return s.CreateUser(ctx, in)
}

// CreateUser creates an account with the requested role (empleado when empty)
func (s *AuthService) CreateUser(ctx context.Context, in RegisterInput) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	in.Email = email
	if err := validateInput(s.validator, in); err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = model.RoleEmpleado
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	db := s.db.WithContext(ctx)

	var existing int64
	if err := db.Model(&model.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("check user email: %w", err)
	}
	if existing > 0 {
		prometheus.RecordAuthError("email_already_exists")
		return nil, newError(ErrDuplicateEmail, "El email ya está registrado")
	}

	user := model.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    email,
		Password: string(hashed),
		Role:     role,
	}
	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, newError(ErrDuplicateEmail, "El email ya está registrado")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("User created", zap.Uint("user_id", user.ID), zap.String("role", user.Role))
	return &user, nil
}

// Login checks the credentials and issues a token
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	prometheus.RecordAuthAttempt()
	email := strings.ToLower(strings.TrimSpace(in.Email))

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			prometheus.RecordAuthError("user_not_found")
			return nil, newError(ErrInvalidCredentials, "Credenciales inválidas")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		prometheus.RecordAuthError("invalid_password")
		return nil, newError(ErrInvalidCredentials, "Credenciales inválidas")
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		prometheus.RecordAuthError("token_generation_failed")
		return nil, fmt.Errorf("generate token: %w", err)
	}

	s.log.Info("User logged in", zap.Uint("user_id", user.ID), zap.String("role", user.Role))
	return &LoginResult{Token: token, User: &user}, nil
}

// Me returns the account behind a validated token
func (s *AuthService) Me(ctx context.Context, userID uint) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Usuario no encontrado")
		}
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}
	return &user, nil
}

// EnsureAdmin creates the configured administrator when it does not exist.
// It is a no-op when no admin credentials are configured.
func (s *AuthService) EnsureAdmin(ctx context.Context, cfg config.AdminConfig) error {
	if cfg.Email == "" || cfg.Password == "" {
		s.log.Warn("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin bootstrap")
		return nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).
		Where("email = ?", strings.ToLower(cfg.Email)).
		Count(&count).Error; err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if count > 0 {
		return nil
	}

	_, err := s.CreateUser(ctx, RegisterInput{
		Name:     cfg.Name,
		Email:    cfg.Email,
		Password: cfg.Password,
		Role:     model.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	s.log.Info("Admin user created", zap.String("email", cfg.Email))
	return nil
}

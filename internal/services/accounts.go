package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/vidanatural/farmacia-web/auth"
	"github.com/vidanatural/farmacia-web/internal/models"
	"github.com/vidanatural/farmacia-web/validation"
	"gorm.io/gorm"
)

// AccountService authenticates employees and manages their own credentials.
type AccountService struct {
	db *gorm.DB
}

func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{db: db}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Authenticate returns the active employee matching email and password.
// Unknown, inactive and wrong-password logins all yield ErrInvalidLogin.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.Employee, error) {
	var e models.Employee
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidLogin
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load employee: %w", ErrPersistence, err)
	}
	if !e.Active || !auth.CheckPassword(e.Password, password) {
		return nil, ErrInvalidLogin
	}
	return &e, nil
}

// Register activates an account pre-created by an administrator.
func (s *AccountService) Register(ctx context.Context, email, password, confirm string) (uint, error) {
	var e models.Employee
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, &ValidationError{Code: "registration_unknown"}
	}
	if err != nil {
		return 0, fmt.Errorf("%w: load employee: %w", ErrPersistence, err)
	}
	if e.Active {
		return 0, &ValidationError{Code: "registration_already_active"}
	}
	if password != confirm {
		return 0, &ValidationError{Code: "password_mismatch"}
	}
	v := validation.Violations{}
	validation.Password("password", password, v)
	if !v.Empty() {
		return 0, &ValidationError{Code: v["password"], Fields: v}
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&e).Updates(map[string]any{"password": hash, "active": true}).Error; err != nil {
		return 0, fmt.Errorf("%w: activate employee: %w", ErrPersistence, err)
	}
	log.Printf("[accounts] employee %d activated", e.ID)
	return e.ID, nil
}

// ProfileUpdate is what an employee may change about themself.
// An empty NewPassword keeps the current one.
type ProfileUpdate struct {
	CurrentPassword string
	Phone           string
	NewPassword     string
}

// UpdateProfile changes phone and password after checking the current password.
func (s *AccountService) UpdateProfile(ctx context.Context, employeeID uint, in ProfileUpdate) error {
	var e models.Employee
	if err := s.db.WithContext(ctx).First(&e, employeeID).Error; err != nil {
		return lookupErr("employee", employeeID, err)
	}
	if !auth.CheckPassword(e.Password, in.CurrentPassword) {
		return &ValidationError{Code: "wrong_current_password"}
	}
	v := validation.Violations{}
	if in.Phone != "" {
		validation.Phone("phone", in.Phone, v)
	}
	if in.NewPassword != "" {
		validation.Password("new_password", in.NewPassword, v)
	}
	if !v.Empty() {
		return &ValidationError{Code: "invalid_profile", Fields: v}
	}
	updates := map[string]any{"phone": in.Phone}
	if in.NewPassword != "" {
		hash, err := auth.HashPassword(in.NewPassword)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		updates["password"] = hash
	}
	if err := s.db.WithContext(ctx).Model(&e).Updates(updates).Error; err != nil {
		return fmt.Errorf("%w: update profile: %w", ErrPersistence, err)
	}
	return nil
}

// Identity loads the session principal for employeeID.
func (s *AccountService) Identity(ctx context.Context, employeeID uint) (*auth.Identity, error) {
	var e models.Employee
	if err := s.db.WithContext(ctx).First(&e, employeeID).Error; err != nil {
		return nil, lookupErr("employee", employeeID, err)
	}
	return &auth.Identity{
		EmployeeID:     e.ID,
		Email:          e.Email,
		DisplayName:    e.Name,
		Role:           e.Role,
		CredentialHash: e.Password,
		Enabled:        e.Active,
	}, nil
}

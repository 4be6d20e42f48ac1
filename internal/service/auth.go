package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/storefront-system/internal/model"
	"github.com/mmeshcher/storefront-system/internal/repository"
)

const verificationTokenTTL = 24 * time.Hour

// RegisterResult содержит созданного пользователя и его токен подтверждения email.
type RegisterResult struct {
	User              *model.User
	VerificationToken string
}

// RegisterUser регистрирует нового пользователя и выдаёт токен подтверждения email.
func (s *Service) RegisterUser(ctx context.Context, name, email, password string) (*RegisterResult, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	token := uuid.NewString()

	u, err := s.repo.CreateUser(ctx, name, email, hash, token, time.Now().Add(verificationTokenTTL))
	if err != nil {
		return nil, err
	}

	return &RegisterResult{User: u, VerificationToken: token}, nil
}

// AuthenticateUser проверяет email и пароль и возвращает пользователя.
// Деактивированные учётные записи не допускаются к входу.
func (s *Service) AuthenticateUser(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		s.audit(ctx, model.LogEntry{
			Level:     model.LogLevelWarn,
			Category:  "security",
			Action:    "login_failed",
			Message:   "wrong password for " + email,
			UserID:    &u.ID,
			UserName:  u.Name,
			UserEmail: u.Email,
		})
		return nil, ErrInvalidCredentials
	}

	if !u.IsActive {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// VerifyEmail подтверждает email пользователя по токену из письма.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	return s.repo.VerifyEmail(ctx, token)
}

// GetUserByID возвращает пользователя по идентификатору.
func (s *Service) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// UpdateProfile обновляет имя и email пользователя.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, name, email string) (*model.User, error) {
	return s.repo.UpdateUserProfile(ctx, userID, name, email)
}

// ChangePassword меняет пароль пользователя после проверки текущего.
func (s *Service) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.repo.UpdateUserPassword(ctx, userID, hash)
}

// ListAddresses возвращает адреса пользователя.
func (s *Service) ListAddresses(ctx context.Context, userID int64) ([]model.Address, error) {
	return s.repo.ListAddresses(ctx, userID)
}

// AddAddress добавляет адрес пользователю.
func (s *Service) AddAddress(ctx context.Context, userID int64, a model.Address) ([]model.Address, error) {
	if a.Country == "" {
		a.Country = "PT"
	}
	return s.repo.AddAddress(ctx, userID, a)
}

// UpdateAddress обновляет адрес пользователя.
func (s *Service) UpdateAddress(ctx context.Context, userID, addressID int64, a model.Address) ([]model.Address, error) {
	return s.repo.UpdateAddress(ctx, userID, addressID, a)
}

// DeleteAddress удаляет адрес пользователя.
func (s *Service) DeleteAddress(ctx context.Context, userID, addressID int64) ([]model.Address, error) {
	return s.repo.DeleteAddress(ctx, userID, addressID)
}

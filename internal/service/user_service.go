package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/repository"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/secret"
)

// UserService manages taxpayer profiles. The payer tax ID is encrypted before
// it reaches the repository and decrypted on the way out.
type UserService struct {
	userRepo *repository.UserRepository
	cipher   *secret.Cipher
	log      logrus.FieldLogger
}

// NewUserService creates a new UserService.
func NewUserService(userRepo *repository.UserRepository, cipher *secret.Cipher, log logrus.FieldLogger) *UserService {
	return &UserService{
		userRepo: userRepo,
		cipher:   cipher,
		log:      log,
	}
}

// ProfileUpdate holds the editable profile fields.
type ProfileUpdate struct {
	Name                 string
	Email                string
	TaxID                string
	NotificationsEnabled bool
}

// GetProfile returns the user's profile, creating an empty one on first access.
func (s *UserService) GetProfile(ctx context.Context, userID string) (model.User, error) {
	if err := s.userRepo.EnsureUser(ctx, userID); err != nil {
		return model.User{}, err
	}
	u, err := s.userRepo.GetUser(ctx, userID)
	if err != nil {
		return model.User{}, err
	}
	return s.decrypt(u)
}

// UpdateProfile stores the profile fields, encrypting the tax ID.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (model.User, error) {
	if err := s.userRepo.EnsureUser(ctx, userID); err != nil {
		return model.User{}, err
	}
	current, err := s.userRepo.GetUser(ctx, userID)
	if err != nil {
		return model.User{}, err
	}

	token, err := s.cipher.Encrypt(upd.TaxID)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to encrypt tax id: %w", err)
	}

	u := model.User{
		ID:                   userID,
		Name:                 upd.Name,
		Email:                upd.Email,
		TaxID:                token,
		NotificationsEnabled: upd.NotificationsEnabled,
		CreatedAt:            current.CreatedAt,
		UpdatedAt:            time.Now().UTC(),
	}
	if err := s.userRepo.UpdateProfile(ctx, u); err != nil {
		return model.User{}, err
	}

	u.TaxID = upd.TaxID
	return u, nil
}

// Payer returns the identity printed on the user's documents. A user without
// a profile gets an empty payer rather than an error.
func (s *UserService) Payer(ctx context.Context, userID string) (model.Payer, error) {
	u, err := s.userRepo.GetUser(ctx, userID)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return model.Payer{}, nil
	}
	if err != nil {
		return model.Payer{}, err
	}
	u, err = s.decrypt(u)
	if err != nil {
		return model.Payer{}, err
	}
	return u.Payer(), nil
}

// ListNotifiable returns decrypted profiles of users who opted in to notifications.
func (s *UserService) ListNotifiable(ctx context.Context) ([]model.User, error) {
	users, err := s.userRepo.ListNotifiable(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i], err = s.decrypt(users[i]); err != nil {
			return nil, err
		}
	}
	return users, nil
}

func (s *UserService) decrypt(u model.User) (model.User, error) {
	taxID, err := s.cipher.Decrypt(u.TaxID)
	if err != nil {
		s.log.WithField("user_id", u.ID).WithError(err).Error("stored tax id cannot be decrypted")
		return model.User{}, err
	}
	u.TaxID = taxID
	return u, nil
}

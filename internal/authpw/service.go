// Package authpw provides email/password authentication over profiles.
package authpw

import (
	"context"
	"errors"
	"fmt"

	"atelier/api/internal/rbac"
	"atelier/api/internal/store"
	"atelier/api/internal/util"
	"golang.org/x/crypto/bcrypt"
)

// Service provides email/password authentication
type Service struct {
	store ProfileStore
}

// ProfileStore defines the storage interface for auth
type ProfileStore interface {
	GetProfileByEmail(ctx context.Context, email string) (store.Profile, error)
	GetProfileByID(ctx context.Context, id string) (store.Profile, error)
	CreateProfile(ctx context.Context, profile store.Profile) error
	UpdateProfilePassword(ctx context.Context, profileID, passwordHash string) error
}

// NewService creates a new auth service
func NewService(store ProfileStore) *Service {
	return &Service{store: store}
}

// SignUpRequest contains sign-up parameters
type SignUpRequest struct {
	Email       string
	Password    string
	DisplayName string
	Role        string
}

// SignUp creates a new profile
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (store.Profile, error) {
	if req.Email == "" || req.Password == "" || req.DisplayName == "" {
		return store.Profile{}, errors.New("email, password, and display name are required")
	}
	if len(req.Password) < 8 {
		return store.Profile{}, errors.New("password must be at least 8 characters")
	}

	// Check if email already exists
	if _, err := s.store.GetProfileByEmail(ctx, req.Email); err == nil {
		return store.Profile{}, errors.New("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return store.Profile{}, fmt.Errorf("hash password: %w", err)
	}

	profile := store.Profile{
		ID:           util.NewID("prf"),
		DisplayName:  req.DisplayName,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         string(rbac.Normalize(req.Role)),
	}
	if err := s.store.CreateProfile(ctx, profile); err != nil {
		return store.Profile{}, fmt.Errorf("create profile: %w", err)
	}
	return profile, nil
}

// SignIn authenticates a profile by email and password
func (s *Service) SignIn(ctx context.Context, email, password string) (store.Profile, error) {
	if email == "" || password == "" {
		return store.Profile{}, errors.New("email and password are required")
	}

	profile, err := s.store.GetProfileByEmail(ctx, email)
	if err != nil {
		return store.Profile{}, errors.New("invalid email or password")
	}
	if profile.DeactivatedAt != nil {
		return store.Profile{}, errors.New("account is deactivated")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		return store.Profile{}, errors.New("invalid email or password")
	}
	return profile, nil
}

// ChangePassword verifies the current password before storing a new hash.
func (s *Service) ChangePassword(ctx context.Context, profileID, current, next string) error {
	if len(next) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	profile, err := s.store.GetProfileByID(ctx, profileID)
	if err != nil {
		return errors.New("profile not found")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(current)); err != nil {
		return errors.New("current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.UpdateProfilePassword(ctx, profileID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

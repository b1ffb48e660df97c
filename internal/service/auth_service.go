package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tm-acme-shop/acme-shop-storefront/internal/auth"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/repository"
)

// ErrInvalidCredentials is returned by Login for an unknown email or a wrong
// password.
var ErrInvalidCredentials = errors.New("invalid email or password")

// AuthService registers and signs in customers.
type AuthService struct {
	userRepo repository.UserRepository
	tokens   *auth.TokenManager
	logger   *logging.Logger
	cost     int
}

func NewAuthService(userRepo repository.UserRepository, tokens *auth.TokenManager, logger *logging.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		logger:   logger,
		cost:     bcrypt.DefaultCost,
	}
}

// Signup creates an account with an empty cart and returns a token for it.
// A taken email returns errors.ErrConflict.
func (s *AuthService) Signup(ctx context.Context, req *models.SignupRequest) (string, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := ValidateSignupRequest(req); err != nil {
		return "", err
	}

	if _, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
		return "", errors.ErrConflict
	} else if !errors.Is(err, errors.ErrUserNotFound) {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return "", err
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return "", err
	}

	s.logger.Info("User registered", logging.Fields{"user_id": user.ID})
	return s.tokens.Issue(user.ID)
}

// Login checks the password and returns a token.
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if errors.Is(err, errors.ErrUserNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", ErrInvalidCredentials
	}

	s.logger.Info("User logged in", logging.Fields{"user_id": user.ID})
	return s.tokens.Issue(user.ID)
}

// Authenticate resolves a token to an existing user id.
func (s *AuthService) Authenticate(ctx context.Context, token string) (string, error) {
	userID, err := s.tokens.Parse(token)
	if err != nil {
		return "", err
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return "", err
	}
	return userID, nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/conselho-tutelar/atendimento-service/internal/models"
	"github.com/conselho-tutelar/atendimento-service/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt cost used for every stored password.
const PasswordCost = 10

// LoginResult is returned on a successful login.
type LoginResult struct {
	Token     string
	ExpiresIn int64
	User      models.UserSummary
}

// AuthService handles login, session validation and password changes.
type AuthService interface {
	Login(ctx context.Context, login, password string) (*LoginResult, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*Claims, error)
	ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService JWTService
	sessions   SessionStore
	logger     *zap.Logger
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(userRepo repository.UserRepository, jwtService JWTService, sessions SessionStore, logger *zap.Logger) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		sessions:   sessions,
		logger:     loggerOrNop(logger),
	}
}

// Login verifies the password and opens a session. Unknown logins and
// wrong passwords both return ErrInvalidCredentials.
func (s *authService) Login(ctx context.Context, login, password string) (*LoginResult, error) {
	if login == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, claims, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Save(ctx, claims.ID, user.ID, s.jwtService.GetExpiry()); err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:     token,
		ExpiresIn: int64(s.jwtService.GetExpiry().Seconds()),
		User:      user.Summary(),
	}, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return ErrInvalidToken
	}
	return s.sessions.Delete(ctx, claims.ID)
}

// Authenticate validates the token signature and expiry and checks that
// the session has not been revoked.
func (s *authService) Authenticate(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	ok, err := s.sessions.Exists(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ChangePassword replaces the caller's password after checking the old
// one, then revokes every open session of the user.
func (s *authService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	revokeSessions(ctx, s.sessions, s.logger, userID)
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func validatePassword(password string) error {
	if len(password) < 6 {
		return invalid("A senha deve ter pelo menos 6 caracteres.")
	}
	if len(password) > 72 {
		return invalid("A senha deve ter no máximo 72 caracteres.")
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"strings"

	"github.com/conselho-tutelar/atendimento-service/internal/models"
	"github.com/conselho-tutelar/atendimento-service/internal/repository"
	"go.uber.org/zap"
)

// RegisterInput holds the fields of a new user account.
type RegisterInput struct {
	Name     string
	Login    string
	Password string
	Role     models.Role
}

// UpdateUserInput holds the editable fields of a user account.
type UpdateUserInput struct {
	Name  string
	Login string
	Role  models.Role
}

// UserService manages staff accounts.
type UserService interface {
	List(ctx context.Context) ([]models.User, error)
	ListCounselors(ctx context.Context) ([]models.User, error)
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	Update(ctx context.Context, id int64, in UpdateUserInput) (*models.User, error)
	Delete(ctx context.Context, id int64) error
	ResetPassword(ctx context.Context, id int64, newPassword string) error
}

type userService struct {
	userRepo repository.UserRepository
	sessions SessionStore
	logger   *zap.Logger
}

// NewUserService creates a new UserService instance. sessions may be nil
// when no session store is reachable, e.g. from the CLI.
func NewUserService(userRepo repository.UserRepository, sessions SessionStore, logger *zap.Logger) UserService {
	return &userService{userRepo: userRepo, sessions: sessions, logger: loggerOrNop(logger)}
}

func (s *userService) List(ctx context.Context) ([]models.User, error) {
	return s.userRepo.List(ctx)
}

func (s *userService) ListCounselors(ctx context.Context) ([]models.User, error) {
	return s.userRepo.ListByRole(ctx, models.RoleCounselor)
}

// Register hashes the password and stores a new user. A taken login
// returns ErrDuplicateLogin and stores nothing.
func (s *userService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Login = strings.TrimSpace(in.Login)
	if in.Name == "" || in.Login == "" || in.Password == "" || in.Role == "" {
		return nil, invalid("Todos os campos são obrigatórios.")
	}
	if !in.Role.Valid() {
		return nil, invalid("Perfil inválido: %s.", in.Role)
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{Name: in.Name, Login: in.Login, Password: hash, Role: in.Role}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateLogin
		}
		return nil, err
	}
	return user, nil
}

// Update overwrites name, login and role. Sessions carry the name and role
// they were opened with, so any change to those or to the login revokes
// the user's sessions.
func (s *userService) Update(ctx context.Context, id int64, in UpdateUserInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Login = strings.TrimSpace(in.Login)
	if in.Name == "" || in.Login == "" || in.Role == "" {
		return nil, invalid("Nome, login e perfil são obrigatórios.")
	}
	if !in.Role.Valid() {
		return nil, invalid("Perfil inválido: %s.", in.Role)
	}

	previous, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	user := &models.User{ID: id, Name: in.Name, Login: in.Login, Role: in.Role}
	if err := s.userRepo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrDuplicateLogin
		}
		return nil, err
	}

	if previous.Name != user.Name || previous.Login != user.Login || previous.Role != user.Role {
		revokeSessions(ctx, s.sessions, s.logger, id)
	}
	return user, nil
}

// Delete removes a user. Users still assigned as a case counselor are kept
// and ErrUserInUse is returned.
func (s *userService) Delete(ctx context.Context, id int64) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return ErrNotFound
		case errors.Is(err, repository.ErrReferenced):
			return ErrUserInUse
		}
		return err
	}
	revokeSessions(ctx, s.sessions, s.logger, id)
	return nil
}

func (s *userService) ResetPassword(ctx context.Context, id int64, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, id, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	revokeSessions(ctx, s.sessions, s.logger, id)
	return nil
}

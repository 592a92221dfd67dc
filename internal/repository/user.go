// Package repository provides the data access layer for the case service.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/conselho-tutelar/atendimento-service/internal/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	FindByLogin(ctx context.Context, login string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	ListByRole(ctx context.Context, role models.Role) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByLogin(ctx context.Context, login string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("login = ?", login).First(&user).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find user by login %s: %w", login, notFound(err))
	}
	return &user, nil
}

func (r *userRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find user by id %d: %w", id, notFound(err))
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Select("id_usuario", "nome", "login", "perfil").
		Order("nome ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *userRepository) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Select("id_usuario", "nome").
		Where("perfil = ?", role).
		Order("nome ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users with role %s: %w", role, err)
	}
	return users, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("login %s: %w", user.Login, ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Update overwrites name, login and role. The password is left untouched.
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id_usuario = ?", user.ID).
		Updates(map[string]interface{}{
			"nome":   user.Name,
			"login":  user.Login,
			"perfil": user.Role,
		})
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return fmt.Errorf("login %s: %w", user.Login, ErrDuplicate)
		}
		return fmt.Errorf("failed to update user id %d: %w", user.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		// MySQL reports zero affected rows when nothing changed.
		if _, err := r.FindByID(ctx, user.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id_usuario = ?", id).
		Update("senha", passwordHash)
	if result.Error != nil {
		return fmt.Errorf("failed to update password for user id %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user id %d: %w", id, ErrNotFound)
	}
	return nil
}

// Delete removes the user unless a case still names them as counselor.
func (r *userRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			return fmt.Errorf("failed to find user by id %d: %w", id, notFound(err))
		}

		var refs int64
		if err := tx.Model(&models.Case{}).Where("id_conselheira_atendimento = ?", id).Count(&refs).Error; err != nil {
			return fmt.Errorf("failed to count cases for user id %d: %w", id, err)
		}
		if refs > 0 {
			return fmt.Errorf("user id %d assigned to %d case(s): %w", id, refs, ErrReferenced)
		}

		if err := tx.Delete(&models.User{}, id).Error; err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("user id %d: %w", id, ErrReferenced)
			}
			return fmt.Errorf("failed to delete user id %d: %w", id, err)
		}
		return nil
	})
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

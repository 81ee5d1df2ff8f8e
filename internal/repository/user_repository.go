package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "cartpod/internal/errors"
	"cartpod/internal/model"
)

// UserUpdate holds the admin-editable user fields. Nil fields are left unchanged.
type UserUpdate struct {
	Name  *string
	Email *string
	Role  *model.Role
}

// UserRepository defines persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, id uuid.UUID, upd UserUpdate) (*model.User, error)
	Delete(ctx context.Context, id uuid.UUID) error

	SetResetToken(ctx context.Context, id uuid.UUID, token string, expiry time.Time) error
	ClearResetToken(ctx context.Context, id uuid.UUID, token string) error
	ConsumeResetToken(ctx context.Context, id uuid.UUID, token string, now time.Time, passwordHash string) (bool, error)
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err, apperrors.ErrUserNotFound)
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", model.NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, notFound(err, apperrors.ErrUserNotFound)
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("created_at").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Update applies upd inside a transaction. Demoting the only admin is
// rejected with ErrLastAdmin.
func (r *userRepository) Update(ctx context.Context, id uuid.UUID, upd UserUpdate) (*model.User, error) {
	var updated model.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := lockUser(tx, id)
		if err != nil {
			return err
		}

		fields := map[string]interface{}{}
		if upd.Name != nil {
			fields["name"] = *upd.Name
		}
		if upd.Email != nil {
			fields["email"] = model.NormalizeEmail(*upd.Email)
		}
		if upd.Role != nil {
			if !upd.Role.Valid() {
				return apperrors.ErrInvalidRole
			}
			if user.IsAdmin() && *upd.Role != model.RoleAdmin {
				if err := ensureAnotherAdmin(tx); err != nil {
					return err
				}
			}
			fields["role"] = *upd.Role
		}

		if len(fields) > 0 {
			if err := tx.Model(user).Updates(fields).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return apperrors.ErrDuplicateEmail
				}
				return fmt.Errorf("update user: %w", err)
			}
		}
		if upd.Name != nil {
			user.Name = *upd.Name
		}
		if upd.Email != nil {
			user.Email = model.NormalizeEmail(*upd.Email)
		}
		if upd.Role != nil {
			user.Role = *upd.Role
		}
		updated = *user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a user inside a transaction. Deleting the only admin is
// rejected with ErrLastAdmin.
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := lockUser(tx, id)
		if err != nil {
			return err
		}
		if user.IsAdmin() {
			if err := ensureAnotherAdmin(tx); err != nil {
				return err
			}
		}
		if err := tx.Delete(&model.User{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
}

func (r *userRepository) SetResetToken(ctx context.Context, id uuid.UUID, token string, expiry time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"reset_token": token, "reset_token_expiry": expiry})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// ClearResetToken clears the reset fields only while token is still the stored one,
// so a newer concurrent request is not cancelled.
func (r *userRepository) ClearResetToken(ctx context.Context, id uuid.UUID, token string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND reset_token = ?", id, token).
		Updates(map[string]interface{}{"reset_token": nil, "reset_token_expiry": nil}).Error
}

// ConsumeResetToken stores passwordHash and clears the reset fields in one
// conditional update. It reports false when the token is not the stored one
// or has expired at now.
func (r *userRepository) ConsumeResetToken(ctx context.Context, id uuid.UUID, token string, now time.Time, passwordHash string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND reset_token = ? AND reset_token_expiry > ?", id, token, now).
		Updates(map[string]interface{}{
			"password_hash":      passwordHash,
			"reset_token":        nil,
			"reset_token_expiry": nil,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *userRepository) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("reset_token_expiry IS NOT NULL AND reset_token_expiry <= ?", now).
		Updates(map[string]interface{}{"reset_token": nil, "reset_token_expiry": nil})
	return res.RowsAffected, res.Error
}

func lockUser(tx *gorm.DB, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err, apperrors.ErrUserNotFound)
	}
	return &user, nil
}

// ensureAnotherAdmin locks every admin row before counting so two concurrent
// removals cannot both observe a second admin.
func ensureAnotherAdmin(tx *gorm.DB) error {
	var adminIDs []string
	if err := tx.Model(&model.User{}).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("role = ?", model.RoleAdmin).Pluck("id", &adminIDs).Error; err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if len(adminIDs) <= 1 {
		return apperrors.ErrLastAdmin
	}
	return nil
}

func notFound(err, kind error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return kind
	}
	return err
}

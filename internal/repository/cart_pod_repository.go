package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "cartpod/internal/errors"
	"cartpod/internal/model"
)

// CartPodRepository defines cart pod persistence operations.
type CartPodRepository interface {
	Create(ctx context.Context, pod *model.CartPod) error
	Update(ctx context.Context, pod *model.CartPod) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CartPod, error)
	List(ctx context.Context) ([]model.CartPod, error)
	Near(ctx context.Context, origin model.Location, maxMeters float64) ([]model.CartPod, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type cartPodRepository struct {
	db *gorm.DB
}

// NewCartPodRepository creates a new cart pod repository.
func NewCartPodRepository(db *gorm.DB) CartPodRepository {
	return &cartPodRepository{db: db}
}

func (r *cartPodRepository) Create(ctx context.Context, pod *model.CartPod) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(pod).Error
}

func (r *cartPodRepository) Update(ctx context.Context, pod *model.CartPod) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(pod).Error
}

// FindByID loads a pod with its food carts.
func (r *cartPodRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.CartPod, error) {
	var pod model.CartPod
	if err := r.db.WithContext(ctx).Preload("FoodCarts").Where("id = ?", id).First(&pod).Error; err != nil {
		return nil, notFound(err, apperrors.ErrCartPodNotFound)
	}
	return &pod, nil
}

func (r *cartPodRepository) List(ctx context.Context) ([]model.CartPod, error) {
	var pods []model.CartPod
	if err := r.db.WithContext(ctx).Preload("FoodCarts").Order("name").Find(&pods).Error; err != nil {
		return nil, err
	}
	return pods, nil
}

func (r *cartPodRepository) Near(ctx context.Context, origin model.Location, maxMeters float64) ([]model.CartPod, error) {
	var pods []model.CartPod
	if err := withinDistance(r.db.WithContext(ctx).Preload("FoodCarts"), origin, maxMeters).Find(&pods).Error; err != nil {
		return nil, err
	}
	return pods, nil
}

// Delete removes an empty pod. The pod row is locked while its carts are
// counted so a cart cannot be added in between.
func (r *cartPodRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pod model.CartPod
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&pod).Error; err != nil {
			return notFound(err, apperrors.ErrCartPodNotFound)
		}

		var carts int64
		if err := tx.Model(&model.FoodCart{}).Where("cart_pod_id = ?", id).Count(&carts).Error; err != nil {
			return fmt.Errorf("count food carts: %w", err)
		}
		if carts > 0 {
			return apperrors.ErrCartPodNotEmpty
		}

		if err := tx.Delete(&model.CartPod{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("delete cart pod: %w", err)
		}
		return nil
	})
}

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

// FoodCartRepository defines food cart persistence operations.
type FoodCartRepository interface {
	Create(ctx context.Context, cart *model.FoodCart) error
	Update(ctx context.Context, cart *model.FoodCart) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.FoodCart, error)
	List(ctx context.Context) ([]model.FoodCart, error)
	ListByCartPod(ctx context.Context, cartPodID uuid.UUID) ([]model.FoodCart, error)
	Near(ctx context.Context, origin model.Location, maxMeters float64) ([]model.FoodCart, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddReview(ctx context.Context, cartID uuid.UUID, review *model.Review) (*model.FoodCart, error)
}

type foodCartRepository struct {
	db *gorm.DB
}

// NewFoodCartRepository creates a new food cart repository.
func NewFoodCartRepository(db *gorm.DB) FoodCartRepository {
	return &foodCartRepository{db: db}
}

// Create inserts a cart after checking that its pod exists.
func (r *foodCartRepository) Create(ctx context.Context, cart *model.FoodCart) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pods int64
		if err := tx.Model(&model.CartPod{}).Clauses(clause.Locking{Strength: "SHARE"}).
			Where("id = ?", cart.CartPodID).Count(&pods).Error; err != nil {
			return fmt.Errorf("check cart pod: %w", err)
		}
		if pods == 0 {
			return apperrors.ErrCartPodNotFound
		}
		return tx.Omit(clause.Associations).Create(cart).Error
	})
}

// editableColumns are the columns Update writes. average_rating belongs to
// AddReview and is never written here.
var editableColumns = []string{
	"name", "location_longitude", "location_latitude",
	"pod_location_image", "cart_image", "menu_images", "updated_at",
}

// Update writes the editable columns of cart.
func (r *foodCartRepository) Update(ctx context.Context, cart *model.FoodCart) error {
	return r.db.WithContext(ctx).Model(cart).Select(editableColumns).Updates(cart).Error
}

func (r *foodCartRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.FoodCart, error) {
	var cart model.FoodCart
	if err := r.db.WithContext(ctx).Preload("Reviews").Where("id = ?", id).First(&cart).Error; err != nil {
		return nil, notFound(err, apperrors.ErrFoodCartNotFound)
	}
	return &cart, nil
}

func (r *foodCartRepository) List(ctx context.Context) ([]model.FoodCart, error) {
	var carts []model.FoodCart
	if err := r.db.WithContext(ctx).Order("name").Find(&carts).Error; err != nil {
		return nil, err
	}
	return carts, nil
}

func (r *foodCartRepository) ListByCartPod(ctx context.Context, cartPodID uuid.UUID) ([]model.FoodCart, error) {
	var carts []model.FoodCart
	if err := r.db.WithContext(ctx).Where("cart_pod_id = ?", cartPodID).Order("name").Find(&carts).Error; err != nil {
		return nil, err
	}
	return carts, nil
}

func (r *foodCartRepository) Near(ctx context.Context, origin model.Location, maxMeters float64) ([]model.FoodCart, error) {
	var carts []model.FoodCart
	if err := withinDistance(r.db.WithContext(ctx), origin, maxMeters).Find(&carts).Error; err != nil {
		return nil, err
	}
	return carts, nil
}

func (r *foodCartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.FoodCart{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrFoodCartNotFound
	}
	return nil
}

// AddReview stores review and recomputes the cart's average rating while the
// cart row is locked.
func (r *foodCartRepository) AddReview(ctx context.Context, cartID uuid.UUID, review *model.Review) (*model.FoodCart, error) {
	var cart model.FoodCart
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", cartID).First(&cart).Error; err != nil {
			return notFound(err, apperrors.ErrFoodCartNotFound)
		}

		review.FoodCartID = cartID
		if err := tx.Create(review).Error; err != nil {
			return fmt.Errorf("create review: %w", err)
		}

		var reviews []model.Review
		if err := tx.Where("food_cart_id = ?", cartID).Order("created_at").Find(&reviews).Error; err != nil {
			return fmt.Errorf("load reviews: %w", err)
		}

		cart.Reviews = reviews
		cart.AverageRating = model.AverageRating(reviews)
		if err := tx.Model(&model.FoodCart{}).Where("id = ?", cartID).
			Update("average_rating", cart.AverageRating).Error; err != nil {
			return fmt.Errorf("update average rating: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"cartpod/internal/cache"
	apperrors "cartpod/internal/errors"
	"cartpod/internal/model"
	"cartpod/internal/repository"
)

// FoodCartInput carries the fields of a new food cart.
type FoodCartInput struct {
	Name             string
	Location         model.Location
	CartPodID        uuid.UUID
	PodLocationImage string
	CartImage        string
	MenuImages       []string
}

// FoodCartPatch holds the editable food cart fields. Nil fields are left unchanged.
type FoodCartPatch struct {
	Name             *string
	Location         *model.Location
	PodLocationImage *string
	CartImage        *string
	MenuImages       []string
}

// ReviewInput is a rating left by an authenticated user.
type ReviewInput struct {
	Rating  int
	Comment string
}

// FoodCartService manages food carts. Mutations require the actor to own the
// cart unless the actor is an admin.
type FoodCartService interface {
	List(ctx context.Context) ([]model.FoodCart, error)
	Get(ctx context.Context, id uuid.UUID) (*model.FoodCart, error)
	ListByCartPod(ctx context.Context, cartPodID uuid.UUID) ([]model.FoodCart, error)
	Near(ctx context.Context, origin model.Location, maxKm float64) ([]model.FoodCart, error)
	Create(ctx context.Context, actor *model.User, in FoodCartInput) (*model.FoodCart, error)
	Update(ctx context.Context, actor *model.User, id uuid.UUID, patch FoodCartPatch) (*model.FoodCart, error)
	Delete(ctx context.Context, actor *model.User, id uuid.UUID) error
	AddReview(ctx context.Context, actor *model.User, id uuid.UUID, in ReviewInput) (*model.FoodCart, error)
}

type foodCartService struct {
	repo  repository.FoodCartRepository
	cache *cache.Client
	log   logrus.FieldLogger
}

// NewFoodCartService creates a new food cart service.
func NewFoodCartService(repo repository.FoodCartRepository, cache *cache.Client, log logrus.FieldLogger) FoodCartService {
	return &foodCartService{repo: repo, cache: cache, log: log}
}

func (s *foodCartService) List(ctx context.Context) ([]model.FoodCart, error) {
	var carts []model.FoodCart
	if s.cache.GetJSON(ctx, foodCartListKey, &carts) {
		return carts, nil
	}

	carts, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetJSON(ctx, foodCartListKey, carts, listingCacheTTL)
	return carts, nil
}

func (s *foodCartService) Get(ctx context.Context, id uuid.UUID) (*model.FoodCart, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *foodCartService) ListByCartPod(ctx context.Context, cartPodID uuid.UUID) ([]model.FoodCart, error) {
	return s.repo.ListByCartPod(ctx, cartPodID)
}

func (s *foodCartService) Near(ctx context.Context, origin model.Location, maxKm float64) ([]model.FoodCart, error) {
	if err := validateNear(origin, maxKm); err != nil {
		return nil, err
	}
	return s.repo.Near(ctx, origin, maxKm*1000)
}

func (s *foodCartService) Create(ctx context.Context, actor *model.User, in FoodCartInput) (*model.FoodCart, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name", "Name is required")
	}
	if in.CartPodID == uuid.Nil {
		return nil, apperrors.NewValidationError("cartPod", "Invalid cart pod ID")
	}
	if !in.Location.Valid() {
		return nil, apperrors.NewValidationError("location", "Invalid location format")
	}

	cart := &model.FoodCart{
		Name:             name,
		Location:         in.Location,
		CartPodID:        in.CartPodID,
		OwnerID:          actor.ID,
		PodLocationImage: in.PodLocationImage,
		CartImage:        in.CartImage,
		MenuImages:       in.MenuImages,
	}
	cart.ApplyImageDefaults()

	if err := s.repo.Create(ctx, cart); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.log.WithFields(logrus.Fields{"food_cart_id": cart.ID, "owner_id": actor.ID}).Info("food cart created")
	return cart, nil
}

func (s *foodCartService) Update(ctx context.Context, actor *model.User, id uuid.UUID, patch FoodCartPatch) (*model.FoodCart, error) {
	cart, err := s.authorize(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name", "Name cannot be empty")
		}
		cart.Name = name
	}
	if patch.Location != nil {
		if !patch.Location.Valid() {
			return nil, apperrors.NewValidationError("location", "Coordinates must be [longitude, latitude]")
		}
		cart.Location = *patch.Location
	}
	if patch.PodLocationImage != nil {
		cart.PodLocationImage = *patch.PodLocationImage
	}
	if patch.CartImage != nil {
		cart.CartImage = *patch.CartImage
	}
	if patch.MenuImages != nil {
		cart.MenuImages = patch.MenuImages
	}
	cart.ApplyImageDefaults()

	if err := s.repo.Update(ctx, cart); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return cart, nil
}

func (s *foodCartService) Delete(ctx context.Context, actor *model.User, id uuid.UUID) error {
	if _, err := s.authorize(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.log.WithFields(logrus.Fields{"food_cart_id": id, "user_id": actor.ID}).Info("food cart deleted")
	return nil
}

func (s *foodCartService) AddReview(ctx context.Context, actor *model.User, id uuid.UUID, in ReviewInput) (*model.FoodCart, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apperrors.NewValidationError("rating", "Rating must be between 1 and 5")
	}
	comment := strings.TrimSpace(in.Comment)
	if comment == "" {
		return nil, apperrors.NewValidationError("comment", "Comment is required")
	}

	cart, err := s.repo.AddReview(ctx, id, &model.Review{
		Rating:  in.Rating,
		Comment: comment,
		Author:  actor.Name,
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return cart, nil
}

// authorize loads the cart and checks that actor may change it.
func (s *foodCartService) authorize(ctx context.Context, actor *model.User, id uuid.UUID) (*model.FoodCart, error) {
	cart, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !cart.OwnedBy(actor.ID) {
		s.log.WithFields(logrus.Fields{"food_cart_id": id, "user_id": actor.ID}).Warn("food cart change by non-owner rejected")
		return nil, apperrors.ErrNotResourceOwner
	}
	return cart, nil
}

func (s *foodCartService) invalidate(ctx context.Context) {
	_ = s.cache.Delete(ctx, foodCartListKey, cartPodListKey)
}

package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"cartpod/internal/cache"
	apperrors "cartpod/internal/errors"
	"cartpod/internal/model"
	"cartpod/internal/repository"
)

const (
	cartPodListKey  = "cartpods:all"
	foodCartListKey = "foodcarts:all"
	listingCacheTTL = time.Minute
)

// CartPodInput carries the fields of a new cart pod.
type CartPodInput struct {
	Name             string
	Location         model.Location
	ArrangementImage string
}

// CartPodPatch holds the editable cart pod fields. Nil fields are left unchanged.
type CartPodPatch struct {
	Name             *string
	Location         *model.Location
	ArrangementImage *string
}

// CartPodService manages cart pods.
type CartPodService interface {
	List(ctx context.Context) ([]model.CartPod, error)
	Get(ctx context.Context, id uuid.UUID) (*model.CartPod, error)
	Near(ctx context.Context, origin model.Location, maxKm float64) ([]model.CartPod, error)
	Create(ctx context.Context, in CartPodInput) (*model.CartPod, error)
	Update(ctx context.Context, id uuid.UUID, patch CartPodPatch) (*model.CartPod, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type cartPodService struct {
	repo  repository.CartPodRepository
	cache *cache.Client
	log   logrus.FieldLogger
}

// NewCartPodService creates a new cart pod service.
func NewCartPodService(repo repository.CartPodRepository, cache *cache.Client, log logrus.FieldLogger) CartPodService {
	return &cartPodService{repo: repo, cache: cache, log: log}
}

func (s *cartPodService) List(ctx context.Context) ([]model.CartPod, error) {
	var pods []model.CartPod
	if s.cache.GetJSON(ctx, cartPodListKey, &pods) {
		return pods, nil
	}

	pods, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetJSON(ctx, cartPodListKey, pods, listingCacheTTL)
	return pods, nil
}

func (s *cartPodService) Get(ctx context.Context, id uuid.UUID) (*model.CartPod, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *cartPodService) Near(ctx context.Context, origin model.Location, maxKm float64) ([]model.CartPod, error) {
	if err := validateNear(origin, maxKm); err != nil {
		return nil, err
	}
	return s.repo.Near(ctx, origin, maxKm*1000)
}

func (s *cartPodService) Create(ctx context.Context, in CartPodInput) (*model.CartPod, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name", "Name is required")
	}
	if !in.Location.Valid() {
		return nil, apperrors.NewValidationError("location", "Invalid coordinates")
	}

	pod := &model.CartPod{
		Name:             name,
		Location:         in.Location,
		ArrangementImage: strings.TrimSpace(in.ArrangementImage),
		FoodCarts:        []model.FoodCart{},
	}
	if err := s.repo.Create(ctx, pod); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.log.WithField("cart_pod_id", pod.ID).Info("cart pod created")
	return pod, nil
}

func (s *cartPodService) Update(ctx context.Context, id uuid.UUID, patch CartPodPatch) (*model.CartPod, error) {
	pod, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name", "Name cannot be empty")
		}
		pod.Name = name
	}
	if patch.Location != nil {
		if !patch.Location.Valid() {
			return nil, apperrors.NewValidationError("location", "Invalid coordinates")
		}
		pod.Location = *patch.Location
	}
	if patch.ArrangementImage != nil {
		pod.ArrangementImage = strings.TrimSpace(*patch.ArrangementImage)
	}

	if err := s.repo.Update(ctx, pod); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return pod, nil
}

func (s *cartPodService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.log.WithField("cart_pod_id", id).Info("cart pod deleted")
	return nil
}

func (s *cartPodService) invalidate(ctx context.Context) {
	_ = s.cache.Delete(ctx, cartPodListKey)
}

func validateNear(origin model.Location, maxKm float64) error {
	if !origin.Valid() {
		return apperrors.NewValidationError("location", "Invalid coordinates")
	}
	if maxKm <= 0 {
		return apperrors.NewValidationError("maxDistance", "Max distance must be positive")
	}
	return nil
}

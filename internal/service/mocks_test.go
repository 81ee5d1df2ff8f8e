package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"cartpod/internal/model"
	"cartpod/internal/repository"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, id uuid.UUID, upd repository.UserUpdate) (*model.User, error) {
	args := m.Called(ctx, id, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) SetResetToken(ctx context.Context, id uuid.UUID, token string, expiry time.Time) error {
	args := m.Called(ctx, id, token, expiry)
	return args.Error(0)
}

func (m *MockUserRepository) ClearResetToken(ctx context.Context, id uuid.UUID, token string) error {
	args := m.Called(ctx, id, token)
	return args.Error(0)
}

func (m *MockUserRepository) ConsumeResetToken(ctx context.Context, id uuid.UUID, token string, now time.Time, passwordHash string) (bool, error) {
	args := m.Called(ctx, id, token, now, passwordHash)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockCartPodRepository is a mock implementation of CartPodRepository.
type MockCartPodRepository struct {
	mock.Mock
}

func (m *MockCartPodRepository) Create(ctx context.Context, pod *model.CartPod) error {
	args := m.Called(ctx, pod)
	return args.Error(0)
}

func (m *MockCartPodRepository) Update(ctx context.Context, pod *model.CartPod) error {
	args := m.Called(ctx, pod)
	return args.Error(0)
}

func (m *MockCartPodRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.CartPod, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartPod), args.Error(1)
}

func (m *MockCartPodRepository) List(ctx context.Context) ([]model.CartPod, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CartPod), args.Error(1)
}

func (m *MockCartPodRepository) Near(ctx context.Context, origin model.Location, maxMeters float64) ([]model.CartPod, error) {
	args := m.Called(ctx, origin, maxMeters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CartPod), args.Error(1)
}

func (m *MockCartPodRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockFoodCartRepository is a mock implementation of FoodCartRepository.
type MockFoodCartRepository struct {
	mock.Mock
}

func (m *MockFoodCartRepository) Create(ctx context.Context, cart *model.FoodCart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

func (m *MockFoodCartRepository) Update(ctx context.Context, cart *model.FoodCart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

func (m *MockFoodCartRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.FoodCart, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FoodCart), args.Error(1)
}

func (m *MockFoodCartRepository) List(ctx context.Context) ([]model.FoodCart, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FoodCart), args.Error(1)
}

func (m *MockFoodCartRepository) ListByCartPod(ctx context.Context, cartPodID uuid.UUID) ([]model.FoodCart, error) {
	args := m.Called(ctx, cartPodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FoodCart), args.Error(1)
}

func (m *MockFoodCartRepository) Near(ctx context.Context, origin model.Location, maxMeters float64) ([]model.FoodCart, error) {
	args := m.Called(ctx, origin, maxMeters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FoodCart), args.Error(1)
}

func (m *MockFoodCartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFoodCartRepository) AddReview(ctx context.Context, cartID uuid.UUID, review *model.Review) (*model.FoodCart, error) {
	args := m.Called(ctx, cartID, review)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FoodCart), args.Error(1)
}

// MockNotifier is a mock implementation of notify.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendPasswordResetEmail(ctx context.Context, email, token string) error {
	args := m.Called(ctx, email, token)
	return args.Error(0)
}

package handler

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"cartpod/internal/model"
	"cartpod/internal/repository"
	"cartpod/internal/service"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, name, email, password string, role model.Role) (*service.AuthResult, error) {
	args := m.Called(ctx, name, email, password, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*service.AuthResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

func (m *MockAuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

type MockPasswordResetService struct {
	mock.Mock
}

func (m *MockPasswordResetService) RequestReset(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockPasswordResetService) ConsumeReset(ctx context.Context, token, newPassword string) error {
	return m.Called(ctx, token, newPassword).Error(0)
}

func (m *MockPasswordResetService) SweepExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Create(ctx context.Context, name, email, password string, role model.Role) (*model.User, error) {
	args := m.Called(ctx, name, email, password, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) Resolve(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) VerifyPassword(user *model.User, password string) bool {
	return m.Called(user, password).Bool(0)
}

func (m *MockUserService) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUserService) Update(ctx context.Context, id uuid.UUID, upd repository.UserUpdate) (*model.User, error) {
	args := m.Called(ctx, id, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserService) Forget(ctx context.Context, id uuid.UUID) {
	m.Called(ctx, id)
}

type MockFoodCartService struct {
	mock.Mock
}

func (m *MockFoodCartService) List(ctx context.Context) ([]model.FoodCart, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FoodCart), args.Error(1)
}

func (m *MockFoodCartService) Get(ctx context.Context, id uuid.UUID) (*model.FoodCart, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FoodCart), args.Error(1)
}

func (m *MockFoodCartService) ListByCartPod(ctx context.Context, cartPodID uuid.UUID) ([]model.FoodCart, error) {
	args := m.Called(ctx, cartPodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FoodCart), args.Error(1)
}

func (m *MockFoodCartService) Near(ctx context.Context, origin model.Location, maxKm float64) ([]model.FoodCart, error) {
	args := m.Called(ctx, origin, maxKm)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FoodCart), args.Error(1)
}

func (m *MockFoodCartService) Create(ctx context.Context, actor *model.User, in service.FoodCartInput) (*model.FoodCart, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FoodCart), args.Error(1)
}

func (m *MockFoodCartService) Update(ctx context.Context, actor *model.User, id uuid.UUID, patch service.FoodCartPatch) (*model.FoodCart, error) {
	args := m.Called(ctx, actor, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FoodCart), args.Error(1)
}

func (m *MockFoodCartService) Delete(ctx context.Context, actor *model.User, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockFoodCartService) AddReview(ctx context.Context, actor *model.User, id uuid.UUID, in service.ReviewInput) (*model.FoodCart, error) {
	args := m.Called(ctx, actor, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FoodCart), args.Error(1)
}

type MockCartPodService struct {
	mock.Mock
}

func (m *MockCartPodService) List(ctx context.Context) ([]model.CartPod, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CartPod), args.Error(1)
}

func (m *MockCartPodService) Get(ctx context.Context, id uuid.UUID) (*model.CartPod, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartPod), args.Error(1)
}

func (m *MockCartPodService) Near(ctx context.Context, origin model.Location, maxKm float64) ([]model.CartPod, error) {
	args := m.Called(ctx, origin, maxKm)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CartPod), args.Error(1)
}

func (m *MockCartPodService) Create(ctx context.Context, in service.CartPodInput) (*model.CartPod, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartPod), args.Error(1)
}

func (m *MockCartPodService) Update(ctx context.Context, id uuid.UUID, patch service.CartPodPatch) (*model.CartPod, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartPod), args.Error(1)
}

func (m *MockCartPodService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockImageUploader struct {
	mock.Mock
}

func (m *MockImageUploader) Upload(ctx context.Context, r io.Reader) (string, error) {
	args := m.Called(ctx, r)
	return args.String(0), args.Error(1)
}

package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stickerpack-io/stickerpack/internal/modules/model"
	"github.com/stretchr/testify/mock"
)

// MockStickerRepo is a mock implementation of repo.StickerRepo
type MockStickerRepo struct {
	mock.Mock
}

func (m *MockStickerRepo) Create(ctx context.Context, s *model.Sticker) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockStickerRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Sticker, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Sticker), args.Error(1)
}

func (m *MockStickerRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Sticker, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Sticker), args.Error(1)
}

func (m *MockStickerRepo) Unlock(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockStickerRepo) Claim(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

func (m *MockStickerRepo) DeleteExpiredAnonymous(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishJSON(ctx context.Context, exchangeName string, routingKey string, body any) error {
	args := m.Called(ctx, exchangeName, routingKey, body)
	return args.Error(0)
}

// MockPreviewCache is a mock implementation of PreviewCache
type MockPreviewCache struct {
	mock.Mock
}

func (m *MockPreviewCache) Put(ctx context.Context, p *model.Preview) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPreviewCache) Get(ctx context.Context, id uuid.UUID) (*model.Preview, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Preview), args.Error(1)
}

func (m *MockPreviewCache) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockStickerService is a mock implementation of StickerService
type MockStickerService struct {
	mock.Mock
}

func (m *MockStickerService) CreateDurable(ctx context.Context, sourceURL string, ownerID *uuid.UUID, meta map[string]any) (*model.Sticker, error) {
	args := m.Called(ctx, sourceURL, ownerID, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Sticker), args.Error(1)
}

func (m *MockStickerService) CreatePreview(ctx context.Context, sourceURL string) (*model.Preview, error) {
	args := m.Called(ctx, sourceURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Preview), args.Error(1)
}

func (m *MockStickerService) Resolve(ctx context.Context, id uuid.UUID) (*model.Sticker, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Sticker), args.Error(1)
}

func (m *MockStickerService) EnsureDurable(ctx context.Context, id uuid.UUID) (*model.Sticker, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Sticker), args.Error(1)
}

func (m *MockStickerService) Claim(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

func (m *MockStickerService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Sticker, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Sticker), args.Error(1)
}

func (m *MockStickerService) PurgeExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockUserRepo is a mock implementation of repo.UserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, u *model.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

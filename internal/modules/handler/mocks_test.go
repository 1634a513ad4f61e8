package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stickerpack-io/stickerpack/internal/modules/middleware"
	"github.com/stickerpack-io/stickerpack/internal/modules/model"
	"github.com/stickerpack-io/stickerpack/internal/modules/service"
	"github.com/stretchr/testify/mock"
)

// MockGenerationService is a mock implementation of service.GenerationService
type MockGenerationService struct {
	mock.Mock
}

func (m *MockGenerationService) Generate(ctx context.Context, image string) (string, error) {
	args := m.Called(ctx, image)
	return args.String(0), args.Error(1)
}

// MockStickerService is a mock implementation of service.StickerService
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

// MockImageGateService is a mock implementation of service.ImageGateService
type MockImageGateService struct {
	mock.Mock
}

func (m *MockImageGateService) Fetch(ctx context.Context, id uuid.UUID, viewer *model.User) (*service.RenderedImage, error) {
	args := m.Called(ctx, id, viewer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RenderedImage), args.Error(1)
}

// MockPaymentService is a mock implementation of service.PaymentService
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) CreateInvoice(ctx context.Context, stickerID uuid.UUID, stickerURL string, amount float64) (*service.Invoice, error) {
	args := m.Called(ctx, stickerID, stickerURL, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Invoice), args.Error(1)
}

// MockSettlementService is a mock implementation of service.SettlementService
type MockSettlementService struct {
	mock.Mock
}

func (m *MockSettlementService) Processor() model.ProcessorKind {
	args := m.Called()
	return args.Get(0).(model.ProcessorKind)
}

func (m *MockSettlementService) Settle(ctx context.Context, rawBody []byte, signature string) (*service.SettlementResult, error) {
	args := m.Called(ctx, rawBody, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SettlementResult), args.Error(1)
}

// MockAccountService is a mock implementation of service.AccountService
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Register(ctx context.Context, email, password string) (*model.User, string, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*model.User), args.String(1), args.Error(2)
}

func (m *MockAccountService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*model.User), args.String(1), args.Error(2)
}

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// asUser injects an authenticated user the way the auth middleware would.
func asUser(user *model.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user != nil {
			c.Set(middleware.UserKey, user)
		}
		c.Next()
	}
}

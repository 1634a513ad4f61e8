package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stickerpack-io/stickerpack/internal/modules/model"
)

// PreviewCache is the ephemeral sticker tier, satisfied by
// cache.PreviewStore. A nil cache disables previews.
type PreviewCache interface {
	Put(ctx context.Context, p *model.Preview) error
	Get(ctx context.Context, id uuid.UUID) (*model.Preview, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// EventPublisher is satisfied by mq.Publisher. A nil publisher makes event
// emission a no-op; settlement must never block on the broker.
type EventPublisher interface {
	PublishJSON(ctx context.Context, exchangeName string, routingKey string, body any) error
}

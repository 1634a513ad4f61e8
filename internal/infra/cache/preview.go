package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stickerpack-io/stickerpack/internal/config"
	"github.com/stickerpack-io/stickerpack/internal/modules/model"
)

// ErrPreviewNotFound covers both unknown ids and expired entries; the two
// are indistinguishable once the TTL has swept a record.
var ErrPreviewNotFound = errors.New("preview not found or expired")

// PreviewStore is the ephemeral tier for anonymous, non-billed previews.
// Records carry a bounded TTL and are acceptable to lose on restart;
// anything claimable or payable must be promoted to the durable store.
type PreviewStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewPreviewStore(cfg *config.Config) (*PreviewStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisotel.InstrumentTracing(rdb); err != nil {
		return nil, fmt.Errorf("instrument redis: %w", err)
	}
	return &PreviewStore{rdb: rdb, ttl: cfg.Redis.PreviewTTL}, nil
}

func (s *PreviewStore) key(id uuid.UUID) string {
	return "preview:" + id.String()
}

func (s *PreviewStore) Put(ctx context.Context, p *model.Preview) error {
	b, err := sonic.Marshal(p)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(p.ID), b, s.ttl).Err()
}

func (s *PreviewStore) Get(ctx context.Context, id uuid.UUID) (*model.Preview, error) {
	b, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrPreviewNotFound
	}
	if err != nil {
		return nil, err
	}
	p := &model.Preview{}
	if err := sonic.Unmarshal(b, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes a preview after promotion to the durable tier.
func (s *PreviewStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.rdb.Del(ctx, s.key(id)).Err()
}

func (s *PreviewStore) Close() error { return s.rdb.Close() }

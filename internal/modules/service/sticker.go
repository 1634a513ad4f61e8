package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stickerpack-io/stickerpack/internal/config"
	"github.com/stickerpack-io/stickerpack/internal/infra/cache"
	"github.com/stickerpack-io/stickerpack/internal/modules/model"
	"github.com/stickerpack-io/stickerpack/internal/modules/repo"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type StickerService interface {
	// CreateDurable persists a locked sticker. ownerID may be nil for
	// anonymous creation.
	CreateDurable(ctx context.Context, sourceURL string, ownerID *uuid.UUID, meta map[string]any) (*model.Sticker, error)
	// CreatePreview stores an ephemeral, TTL-bounded preview that never
	// touches the durable store.
	CreatePreview(ctx context.Context, sourceURL string) (*model.Preview, error)
	// Resolve loads a sticker from the durable store, falling back to the
	// preview tier. Previews resolve as locked, anonymous stickers.
	Resolve(ctx context.Context, id uuid.UUID) (*model.Sticker, error)
	// EnsureDurable promotes a preview into the durable store if the id is
	// not already persisted. Anything entering the payment flow must
	// survive a restart, because webhook delivery is asynchronous.
	EnsureDurable(ctx context.Context, id uuid.UUID) (*model.Sticker, error)
	Claim(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Sticker, error)
	// PurgeExpired deletes anonymous, unclaimed, still-locked stickers past
	// the retention age.
	PurgeExpired(ctx context.Context) (int64, error)
}

type stickerService struct {
	r        repo.StickerRepo
	previews PreviewCache
	cfg      *config.Config
	log      *zap.Logger
}

func NewStickerService(r repo.StickerRepo, previews PreviewCache, cfg *config.Config, log *zap.Logger) StickerService {
	return &stickerService{r: r, previews: previews, cfg: cfg, log: log}
}

// validateSource enforces the allow-listed host prefix. Applied on every
// write and re-applied on reads as defense in depth.
func (s *stickerService) validateSource(sourceURL string) error {
	if !strings.HasPrefix(sourceURL, s.cfg.Image.AllowedSourcePrefix) {
		return model.ErrSourceNotAllowed
	}
	return nil
}

func (s *stickerService) CreateDurable(ctx context.Context, sourceURL string, ownerID *uuid.UUID, meta map[string]any) (*model.Sticker, error) {
	if err := s.validateSource(sourceURL); err != nil {
		return nil, err
	}
	sticker := &model.Sticker{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		SourceURL: sourceURL,
		Unlocked:  false,
		Meta:      datatypes.JSONMap(meta),
	}
	if err := s.r.Create(ctx, sticker); err != nil {
		return nil, fmt.Errorf("create sticker record: %w", err)
	}
	return sticker, nil
}

func (s *stickerService) CreatePreview(ctx context.Context, sourceURL string) (*model.Preview, error) {
	if s.previews == nil {
		return nil, model.ErrPreviewsNotConfigured
	}
	if err := s.validateSource(sourceURL); err != nil {
		return nil, err
	}
	p := &model.Preview{
		ID:        uuid.New(),
		SourceURL: sourceURL,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.previews.Put(ctx, p); err != nil {
		return nil, fmt.Errorf("store preview: %w", err)
	}
	return p, nil
}

func (s *stickerService) Resolve(ctx context.Context, id uuid.UUID) (*model.Sticker, error) {
	sticker, err := s.r.GetByID(ctx, id)
	if err == nil {
		return sticker, nil
	}
	if !errors.Is(err, model.ErrStickerNotFound) || s.previews == nil {
		return nil, err
	}

	p, perr := s.previews.Get(ctx, id)
	if errors.Is(perr, cache.ErrPreviewNotFound) {
		return nil, model.ErrStickerNotFound
	}
	if perr != nil {
		return nil, perr
	}
	return &model.Sticker{
		ID:        p.ID,
		SourceURL: p.SourceURL,
		Unlocked:  false,
		CreatedAt: p.CreatedAt,
	}, nil
}

func (s *stickerService) EnsureDurable(ctx context.Context, id uuid.UUID) (*model.Sticker, error) {
	sticker, err := s.r.GetByID(ctx, id)
	if err == nil {
		return sticker, nil
	}
	if !errors.Is(err, model.ErrStickerNotFound) || s.previews == nil {
		return nil, err
	}

	p, perr := s.previews.Get(ctx, id)
	if errors.Is(perr, cache.ErrPreviewNotFound) {
		return nil, model.ErrStickerNotFound
	}
	if perr != nil {
		return nil, perr
	}
	if err := s.validateSource(p.SourceURL); err != nil {
		return nil, err
	}

	// Keep the preview id so the derived order id stays stable across the
	// promotion.
	sticker = &model.Sticker{
		ID:        p.ID,
		SourceURL: p.SourceURL,
		Unlocked:  false,
	}
	if err := s.r.Create(ctx, sticker); err != nil {
		return nil, fmt.Errorf("promote preview: %w", err)
	}
	if err := s.previews.Delete(ctx, id); err != nil {
		s.log.Warn("delete promoted preview", zap.String("sticker_id", id.String()), zap.Error(err))
	}
	return sticker, nil
}

func (s *stickerService) Claim(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) error {
	if _, err := s.EnsureDurable(ctx, id); err != nil {
		return err
	}
	return s.r.Claim(ctx, id, ownerID)
}

func (s *stickerService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Sticker, error) {
	return s.r.ListByOwner(ctx, ownerID)
}

func (s *stickerService) PurgeExpired(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.cfg.Image.RetentionAge)
	return s.r.DeleteExpiredAnonymous(ctx, cutoff)
}

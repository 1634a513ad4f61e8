package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stickerpack-io/stickerpack/internal/modules/model"
	"gorm.io/gorm"
)

type StickerRepo interface {
	Create(ctx context.Context, s *model.Sticker) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Sticker, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Sticker, error)
	// Unlock sets unlocked=true for the sticker. It is a single conditional
	// write, safe under duplicate and out-of-order webhook delivery. The
	// first return reports whether this call performed the transition.
	Unlock(ctx context.Context, id uuid.UUID) (bool, error)
	// Claim attaches an anonymous sticker to an owner. The update is guarded
	// by owner_id IS NULL so two concurrent claims cannot both succeed.
	Claim(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) error
	// DeleteExpiredAnonymous removes locked, unclaimed stickers created
	// before the cutoff. Returns the number deleted.
	DeleteExpiredAnonymous(ctx context.Context, before time.Time) (int64, error)
}

type stickerRepo struct{ db *gorm.DB }

func NewStickerRepo(db *gorm.DB) StickerRepo {
	return &stickerRepo{db: db}
}

func (r *stickerRepo) Create(ctx context.Context, s *model.Sticker) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *stickerRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Sticker, error) {
	var sticker model.Sticker
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&sticker).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrStickerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sticker, nil
}

func (r *stickerRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Sticker, error) {
	var stickers []*model.Sticker
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&stickers).Error
	if err != nil {
		return nil, err
	}
	return stickers, nil
}

func (r *stickerRepo) Unlock(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Sticker{}).
		Where("id = ? AND unlocked = ?", id, false).
		Update("unlocked", true)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	// Zero rows: either already unlocked (fine, idempotent) or unknown id.
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Sticker{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, model.ErrStickerNotFound
	}
	return false, nil
}

func (r *stickerRepo) Claim(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&model.Sticker{}).
		Where("id = ? AND owner_id IS NULL", id).
		Update("owner_id", ownerID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Sticker{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return model.ErrStickerNotFound
	}
	return model.ErrAlreadyClaimed
}

func (r *stickerRepo) DeleteExpiredAnonymous(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("owner_id IS NULL AND unlocked = ? AND created_at < ?", false, before).
		Delete(&model.Sticker{})
	return res.RowsAffected, res.Error
}

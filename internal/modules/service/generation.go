package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/stickerpack-io/stickerpack/internal/config"
	"github.com/stickerpack-io/stickerpack/internal/infra/falclient"
	"github.com/stickerpack-io/stickerpack/internal/modules/model"
	"go.uber.org/zap"
)

// GenerationService forwards an input photo to the remote inference service
// and returns the resulting asset URL. It persists nothing; storage is an
// explicit, separate step taken by the caller.
type GenerationService interface {
	Generate(ctx context.Context, image string) (string, error)
}

type generationService struct {
	cfg *config.Config
	fal *falclient.Client
	log *zap.Logger
}

func NewGenerationService(cfg *config.Config, fal *falclient.Client, log *zap.Logger) GenerationService {
	return &generationService{cfg: cfg, fal: fal, log: log}
}

func (s *generationService) Generate(ctx context.Context, image string) (string, error) {
	if strings.TrimSpace(image) == "" {
		return "", model.ErrNoImage
	}
	// Checked before any external call; a missing credential is an operator
	// problem, distinct from a generation failure.
	if s.cfg.Generate.FalKey == "" {
		return "", model.ErrGenerationNotConfigured
	}

	result, err := s.fal.Subscribe(ctx, s.cfg.Generate.Model, falclient.Input{
		ImageURLs:     []string{image},
		Prompt:        s.cfg.Generate.Prompt,
		ImageStrength: s.cfg.Generate.ImageStrength,
		GuidanceScale: s.cfg.Generate.GuidanceScale,
	})
	if err != nil {
		return "", fmt.Errorf("generate sticker: %w", err)
	}

	url, ok := result.FirstImageURL()
	if !ok {
		return "", model.ErrNoImageInResponse
	}
	s.log.Info("sticker generated", zap.String("model", s.cfg.Generate.Model))
	return url, nil
}

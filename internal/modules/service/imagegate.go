package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/stickerpack-io/stickerpack/internal/config"
	"github.com/stickerpack-io/stickerpack/internal/modules/model"
	"github.com/stickerpack-io/stickerpack/internal/pkg/utils/degrade"
	"go.uber.org/zap"
)

// RenderedImage is what the gated image endpoint sends back.
type RenderedImage struct {
	Data        []byte
	ContentType string
	// CacheControl reflects entitlement sensitivity: unlocked bytes are a
	// private per-user resource, locked renders must not be stored at all
	// since payment can flip the state at any moment.
	CacheControl string
	Locked       bool
}

// ImageGateService decides, per request, whether the caller gets the
// original sticker bytes or the degraded substitute. It only ever accepts a
// sticker id; caller-supplied URLs are never fetched.
type ImageGateService interface {
	Fetch(ctx context.Context, id uuid.UUID, viewer *model.User) (*RenderedImage, error)
}

type imageGateService struct {
	cfg      *config.Config
	stickers StickerService
	httpc    *http.Client
	log      *zap.Logger
}

func NewImageGateService(cfg *config.Config, stickers StickerService, log *zap.Logger) ImageGateService {
	return &imageGateService{
		cfg:      cfg,
		stickers: stickers,
		httpc:    &http.Client{Timeout: cfg.Image.FetchTimeout},
		log:      log,
	}
}

func (s *imageGateService) Fetch(ctx context.Context, id uuid.UUID, viewer *model.User) (*RenderedImage, error) {
	sticker, err := s.stickers.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	// Re-check stored data on every read; defense in depth against SSRF
	// even for previously-trusted rows.
	if !strings.HasPrefix(sticker.SourceURL, s.cfg.Image.AllowedSourcePrefix) {
		return nil, model.ErrSourceNotAllowed
	}

	data, err := s.fetchSource(ctx, sticker.SourceURL)
	if err != nil {
		return nil, err
	}

	if sticker.Unlocked || viewer.IsAdmin() {
		return &RenderedImage{
			Data:         data,
			ContentType:  mimetype.Detect(data).String(),
			CacheControl: "private, max-age=3600",
		}, nil
	}

	degraded, err := degrade.Render(data, degrade.Options{BlurSigma: s.cfg.Image.BlurSigma})
	if err != nil {
		return nil, fmt.Errorf("degrade image: %w", err)
	}
	return &RenderedImage{
		Data:         degraded,
		ContentType:  "image/png",
		CacheControl: "no-store",
		Locked:       true,
	}, nil
}

// fetchSource pulls the original bytes from the validated upstream host. A
// failure here is an upstream error, never a not-found: the sticker exists,
// its asset is unavailable.
func (s *imageGateService) fetchSource(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpc.Do(req)
	if err != nil {
		return nil, &model.UpstreamError{Service: "image host", Status: http.StatusBadGateway, Body: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.UpstreamError{Service: "image host", Status: resp.StatusCode, Body: resp.Status}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &model.UpstreamError{Service: "image host", Status: http.StatusBadGateway, Body: err.Error()}
	}
	return data, nil
}

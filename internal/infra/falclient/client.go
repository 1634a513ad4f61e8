// Package falclient talks the fal.ai queue protocol: submit a request,
// poll its status, then fetch the result. fal publishes no Go SDK, so the
// client is hand-rolled against the documented endpoints.
package falclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stickerpack-io/stickerpack/internal/config"
	"github.com/stickerpack-io/stickerpack/internal/modules/model"
	"go.uber.org/zap"
)

const (
	statusCompleted = "COMPLETED"
	statusFailed    = "FAILED"
)

type Client struct {
	baseURL string
	key     string
	httpc   *http.Client
	poll    time.Duration
	log     *zap.Logger
}

func New(cfg *config.Config, log *zap.Logger) *Client {
	poll := cfg.Generate.PollInterval
	if poll <= 0 {
		poll = time.Second
	}
	return &Client{
		baseURL: cfg.Generate.BaseURL,
		key:     cfg.Generate.FalKey,
		// Generation can take tens of seconds; the remote service owns the
		// deadline, callers own cancellation via ctx.
		httpc: &http.Client{},
		poll:  poll,
		log:   log,
	}
}

// Input is the fixed-shape edit request. Prompt and tuning values come from
// deployment config, never the caller.
type Input struct {
	ImageURLs     []string `json:"image_urls"`
	Prompt        string   `json:"prompt"`
	ImageStrength float64  `json:"image_strength"`
	GuidanceScale float64  `json:"guidance_scale"`
}

type Image struct {
	URL string `json:"url"`
}

// Result accepts both response shapes the service is known to return: a
// singular image field or an images array.
type Result struct {
	Image  *Image  `json:"image"`
	Images []Image `json:"images"`
}

// FirstImageURL extracts the generated asset URL from either shape.
func (r *Result) FirstImageURL() (string, bool) {
	if r.Image != nil && r.Image.URL != "" {
		return r.Image.URL, true
	}
	if len(r.Images) > 0 && r.Images[0].URL != "" {
		return r.Images[0].URL, true
	}
	return "", false
}

type queuedRequest struct {
	RequestID   string `json:"request_id"`
	Status      string `json:"status"`
	StatusURL   string `json:"status_url"`
	ResponseURL string `json:"response_url"`
}

type queueStatus struct {
	Status string `json:"status"`
}

// Subscribe submits the request and awaits completion, polling until the
// queue reports a terminal status or ctx is cancelled.
func (c *Client) Subscribe(ctx context.Context, falModel string, in Input) (*Result, error) {
	queued, err := c.submit(ctx, falModel, in)
	if err != nil {
		return nil, err
	}
	c.log.Debug("generation request queued",
		zap.String("request_id", queued.RequestID),
		zap.String("model", falModel))

	for {
		st, err := c.status(ctx, queued.StatusURL)
		if err != nil {
			return nil, err
		}
		switch st.Status {
		case statusCompleted:
			return c.result(ctx, queued.ResponseURL)
		case statusFailed:
			return nil, &model.UpstreamError{Service: "fal", Status: http.StatusBadGateway, Body: "generation failed"}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.poll):
		}
	}
}

func (c *Client) submit(ctx context.Context, falModel string, in Input) (*queuedRequest, error) {
	body, err := sonic.Marshal(in)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+falModel, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+c.key)

	queued := &queuedRequest{}
	if err := c.do(req, queued); err != nil {
		return nil, err
	}
	return queued, nil
}

func (c *Client) status(ctx context.Context, url string) (*queueStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Key "+c.key)

	st := &queueStatus{}
	if err := c.do(req, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (c *Client) result(ctx context.Context, url string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Key "+c.key)

	res := &Result{}
	if err := c.do(req, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("fal request: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("fal response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &model.UpstreamError{Service: "fal", Status: resp.StatusCode, Body: string(b)}
	}
	return sonic.Unmarshal(b, out)
}

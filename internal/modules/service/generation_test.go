package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stickerpack-io/stickerpack/internal/config"
	"github.com/stickerpack-io/stickerpack/internal/infra/falclient"
	"github.com/stickerpack-io/stickerpack/internal/modules/model"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// newFalServer fakes the queue protocol: submit, one status poll, result.
func newFalServer(t *testing.T, resultJSON string, failStatus bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("POST /fal-ai/test-model/edit", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Key test-key", r.Header.Get("Authorization"))
		w.Write([]byte(`{"request_id":"req-1","status":"IN_QUEUE","status_url":"` + srv.URL + `/status","response_url":"` + srv.URL + `/result"}`))
	})
	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		if failStatus {
			w.Write([]byte(`{"status":"FAILED"}`))
			return
		}
		w.Write([]byte(`{"status":"COMPLETED"}`))
	})
	mux.HandleFunc("GET /result", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(resultJSON))
	})
	return srv
}

func generateConfig(baseURL string) *config.Config {
	cfg := &config.Config{}
	cfg.Generate.FalKey = "test-key"
	cfg.Generate.BaseURL = baseURL
	cfg.Generate.Model = "fal-ai/test-model/edit"
	cfg.Generate.Prompt = "sticker style"
	cfg.Generate.ImageStrength = 0.5
	cfg.Generate.GuidanceScale = 10
	cfg.Generate.PollInterval = time.Millisecond
	return cfg
}

func TestGenerateReturnsAssetURL(t *testing.T) {
	tests := []struct {
		name       string
		resultJSON string
	}{
		{"singular image field", `{"image":{"url":"https://v3b.fal.media/files/a/out.png"}}`},
		{"images array field", `{"images":[{"url":"https://v3b.fal.media/files/a/out.png"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newFalServer(t, tt.resultJSON, false)
			cfg := generateConfig(srv.URL)
			svc := NewGenerationService(cfg, falclient.New(cfg, zap.NewNop()), zap.NewNop())

			url, err := svc.Generate(context.Background(), "data:image/png;base64,AAAA")
			assert.NoError(t, err)
			assert.Equal(t, "https://v3b.fal.media/files/a/out.png", url)
		})
	}
}

func TestGenerateRequiresImage(t *testing.T) {
	cfg := generateConfig("http://unused")
	svc := NewGenerationService(cfg, falclient.New(cfg, zap.NewNop()), zap.NewNop())

	for _, image := range []string{"", "   "} {
		_, err := svc.Generate(context.Background(), image)
		assert.ErrorIs(t, err, model.ErrNoImage)
	}
}

func TestGenerateRequiresCredential(t *testing.T) {
	cfg := generateConfig("http://unused")
	cfg.Generate.FalKey = ""
	svc := NewGenerationService(cfg, falclient.New(cfg, zap.NewNop()), zap.NewNop())

	_, err := svc.Generate(context.Background(), "data:image/png;base64,AAAA")
	assert.ErrorIs(t, err, model.ErrGenerationNotConfigured)
}

func TestGenerateUpstreamFailure(t *testing.T) {
	srv := newFalServer(t, "", true)
	cfg := generateConfig(srv.URL)
	svc := NewGenerationService(cfg, falclient.New(cfg, zap.NewNop()), zap.NewNop())

	_, err := svc.Generate(context.Background(), "data:image/png;base64,AAAA")
	ue, ok := model.AsUpstream(err)
	assert.True(t, ok)
	assert.Equal(t, "fal", ue.Service)
}

func TestGenerateEmptyResult(t *testing.T) {
	srv := newFalServer(t, `{"images":[]}`, false)
	cfg := generateConfig(srv.URL)
	svc := NewGenerationService(cfg, falclient.New(cfg, zap.NewNop()), zap.NewNop())

	_, err := svc.Generate(context.Background(), "data:image/png;base64,AAAA")
	assert.ErrorIs(t, err, model.ErrNoImageInResponse)
}

package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stickerpack-io/stickerpack/internal/modules/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const generatedURL = "https://v3b.fal.media/files/a/out.png"

func newGenerateRouter(gen *MockGenerationService, stickers *MockStickerService, user *model.User) *gin.Engine {
	r := setupRouter()
	h := NewGenerateHandler(gen, stickers)
	r.POST("/generate", asUser(user), h.Generate)
	return r
}

func postGenerate(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/generate", bytes.NewReader([]byte(body)))
	r.ServeHTTP(w, req)
	return w
}

func TestGenerateAnonymousCreatesDurableSticker(t *testing.T) {
	sticker := &model.Sticker{ID: uuid.New(), SourceURL: generatedURL}
	gen := new(MockGenerationService)
	gen.On("Generate", mock.Anything, "data:image/png;base64,AAAA").Return(generatedURL, nil)
	stickers := new(MockStickerService)
	stickers.On("CreateDurable", mock.Anything, generatedURL, (*uuid.UUID)(nil), map[string]any(nil)).Return(sticker, nil)

	w := postGenerate(newGenerateRouter(gen, stickers, nil), `{"image":"data:image/png;base64,AAAA"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := struct {
		Data GenerateResp `json:"data"`
	}{}
	assert.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, sticker.ID.String(), resp.Data.StickerID)
	assert.Equal(t, generatedURL, resp.Data.Image)
	stickers.AssertExpectations(t)
}

func TestGenerateAuthenticatedOwnsSticker(t *testing.T) {
	user := &model.User{ID: uuid.New(), Role: model.RoleUser}
	sticker := &model.Sticker{ID: uuid.New(), OwnerID: &user.ID, SourceURL: generatedURL}
	gen := new(MockGenerationService)
	gen.On("Generate", mock.Anything, mock.Anything).Return(generatedURL, nil)
	stickers := new(MockStickerService)
	stickers.On("CreateDurable", mock.Anything, generatedURL, &user.ID, map[string]any(nil)).Return(sticker, nil)

	w := postGenerate(newGenerateRouter(gen, stickers, user), `{"image":"data:image/png;base64,AAAA"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	stickers.AssertExpectations(t)
}

func TestGeneratePreviewSkipsDurableStore(t *testing.T) {
	p := &model.Preview{ID: uuid.New(), SourceURL: generatedURL}
	gen := new(MockGenerationService)
	gen.On("Generate", mock.Anything, mock.Anything).Return(generatedURL, nil)
	stickers := new(MockStickerService)
	stickers.On("CreatePreview", mock.Anything, generatedURL).Return(p, nil)

	w := postGenerate(newGenerateRouter(gen, stickers, nil), `{"image":"data:image/png;base64,AAAA","preview":true}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"preview":true`)
	stickers.AssertNotCalled(t, "CreateDurable", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"missing image", model.ErrNoImage, http.StatusBadRequest},
		{"credential missing", model.ErrGenerationNotConfigured, http.StatusInternalServerError},
		{"upstream failure", &model.UpstreamError{Service: "fal", Status: 502}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := new(MockGenerationService)
			gen.On("Generate", mock.Anything, mock.Anything).Return("", tt.err)

			w := postGenerate(newGenerateRouter(gen, new(MockStickerService), nil), `{"image":"x"}`)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

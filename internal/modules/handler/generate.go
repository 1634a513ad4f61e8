package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stickerpack-io/stickerpack/internal/modules/middleware"
	"github.com/stickerpack-io/stickerpack/internal/modules/model"
	"github.com/stickerpack-io/stickerpack/internal/modules/serializer"
	"github.com/stickerpack-io/stickerpack/internal/modules/service"
)

type GenerateHandler struct {
	gen      service.GenerationService
	stickers service.StickerService
}

func NewGenerateHandler(gen service.GenerationService, stickers service.StickerService) *GenerateHandler {
	return &GenerateHandler{gen: gen, stickers: stickers}
}

type GenerateReq struct {
	// Image is a data URI or a reachable URL of the uploaded photo.
	Image string `json:"image"`
	// Preview keeps the result in the ephemeral tier instead of the
	// durable store.
	Preview bool `json:"preview"`
}

type GenerateResp struct {
	StickerID string `json:"sticker_id"`
	Image     string `json:"image"`
	Preview   bool   `json:"preview,omitempty"`
}

// Generate godoc
//
//	@Summary		Generate sticker
//	@Description	Turn an uploaded photo into a sticker and store it locked
//	@Tags			generate
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	handler.GenerateReq	true	"Photo to transform"
//	@Success		201	{object}	serializer.Response{data=handler.GenerateResp}
//	@Router			/generate [post]
func (h *GenerateHandler) Generate(c *gin.Context) {
	req := GenerateReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	url, err := h.gen.Generate(c.Request.Context(), req.Image)
	switch {
	case errors.Is(err, model.ErrNoImage):
		c.JSON(http.StatusBadRequest, serializer.ParamErr("image is required", err))
		return
	case errors.Is(err, model.ErrGenerationNotConfigured):
		c.JSON(http.StatusInternalServerError, serializer.ConfigErr("", err))
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, serializer.UpstreamErr("failed to generate sticker", err))
		return
	}

	if req.Preview {
		p, err := h.stickers.CreatePreview(c.Request.Context(), url)
		if errors.Is(err, model.ErrPreviewsNotConfigured) {
			c.JSON(http.StatusInternalServerError, serializer.ConfigErr("", err))
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, serializer.DBErr("", err))
			return
		}
		c.JSON(http.StatusCreated, serializer.Response{Data: GenerateResp{
			StickerID: p.ID.String(),
			Image:     url,
			Preview:   true,
		}})
		return
	}

	var ownerID *uuid.UUID
	if user := middleware.CurrentUser(c); user != nil {
		ownerID = &user.ID
	}
	sticker, err := h.stickers.CreateDurable(c.Request.Context(), url, ownerID, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, serializer.DBErr("", err))
		return
	}

	c.JSON(http.StatusCreated, serializer.Response{Data: GenerateResp{
		StickerID: sticker.ID.String(),
		Image:     sticker.SourceURL,
	}})
}

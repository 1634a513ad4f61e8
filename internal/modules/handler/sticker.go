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

type StickerHandler struct {
	stickers service.StickerService
	images   service.ImageGateService
}

func NewStickerHandler(stickers service.StickerService, images service.ImageGateService) *StickerHandler {
	return &StickerHandler{stickers: stickers, images: images}
}

type ClaimReq struct {
	StickerID string `json:"sticker_id" binding:"required"`
}

type ClaimResp struct {
	Success bool `json:"success"`
}

// Claim godoc
//
//	@Summary		Claim sticker
//	@Description	Attach an anonymous sticker to the authenticated account, exactly once
//	@Tags			sticker
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	handler.ClaimReq	true	"Sticker to claim"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=handler.ClaimResp}
//	@Router			/stickers/claim [post]
func (h *StickerHandler) Claim(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, serializer.AuthErr(""))
		return
	}

	req := ClaimReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("sticker_id is required", err))
		return
	}
	stickerID, err := uuid.Parse(req.StickerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	err = h.stickers.Claim(c.Request.Context(), stickerID, user.ID)
	switch {
	case errors.Is(err, model.ErrStickerNotFound):
		c.JSON(http.StatusNotFound, serializer.NotFoundErr("sticker not found"))
		return
	case errors.Is(err, model.ErrAlreadyClaimed):
		c.JSON(http.StatusConflict, serializer.ConflictErr("sticker already claimed"))
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, serializer.DBErr("", err))
		return
	}

	c.JSON(http.StatusOK, serializer.Response{Data: ClaimResp{Success: true}})
}

// List godoc
//
//	@Summary		List stickers
//	@Description	List the authenticated account's claimed stickers
//	@Tags			sticker
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=[]model.Sticker}
//	@Router			/stickers [get]
func (h *StickerHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, serializer.AuthErr(""))
		return
	}

	stickers, err := h.stickers.ListByOwner(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, serializer.DBErr("", err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: stickers})
}

// Image godoc
//
//	@Summary		Fetch sticker image
//	@Description	Serve the original bytes when unlocked or privileged, a degraded render otherwise
//	@Tags			sticker
//	@Produce		png
//	@Param			id	query	string	true	"Sticker ID"	Format(uuid)
//	@Success		200	{file}	binary
//	@Router			/stickers/image [get]
func (h *StickerHandler) Image(c *gin.Context) {
	rawID := c.Query("id")
	if rawID == "" {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("id is required", nil))
		return
	}
	stickerID, err := uuid.Parse(rawID)
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	rendered, err := h.images.Fetch(c.Request.Context(), stickerID, middleware.CurrentUser(c))
	switch {
	case errors.Is(err, model.ErrStickerNotFound):
		c.JSON(http.StatusNotFound, serializer.NotFoundErr("sticker not found"))
		return
	case errors.Is(err, model.ErrSourceNotAllowed):
		c.JSON(http.StatusInternalServerError, serializer.ConfigErr("sticker source rejected", nil))
		return
	case err != nil:
		if _, ok := model.AsUpstream(err); ok {
			c.JSON(http.StatusBadGateway, serializer.UpstreamErr("failed to fetch sticker image", err))
			return
		}
		c.JSON(http.StatusInternalServerError, serializer.UpstreamErr("failed to render sticker image", err))
		return
	}

	c.Header("Cache-Control", rendered.CacheControl)
	c.Data(http.StatusOK, rendered.ContentType, rendered.Data)
}

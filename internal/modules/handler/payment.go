package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stickerpack-io/stickerpack/internal/modules/model"
	"github.com/stickerpack-io/stickerpack/internal/modules/serializer"
	"github.com/stickerpack-io/stickerpack/internal/modules/service"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	payments service.PaymentService
	settle   service.SettlementService
	log      *zap.Logger
}

func NewPaymentHandler(payments service.PaymentService, settle service.SettlementService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, settle: settle, log: log}
}

type CreatePaymentReq struct {
	StickerID  string  `json:"sticker_id"`
	StickerURL string  `json:"sticker_url"`
	Amount     float64 `json:"amount"`
}

// CreatePayment godoc
//
//	@Summary		Create payment invoice
//	@Description	Create an external invoice for unlocking a sticker
//	@Tags			payment
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	handler.CreatePaymentReq	true	"Sticker to pay for"
//	@Success		200	{object}	serializer.Response{data=service.Invoice}
//	@Router			/payment/create [post]
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	req := CreatePaymentReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	if req.StickerID == "" || req.StickerURL == "" {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("sticker_id and sticker_url are required", nil))
		return
	}
	stickerID, err := uuid.Parse(req.StickerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	invoice, err := h.payments.CreateInvoice(c.Request.Context(), stickerID, req.StickerURL, req.Amount)
	switch {
	case errors.Is(err, model.ErrPaymentNotConfigured):
		c.JSON(http.StatusInternalServerError, serializer.ConfigErr("", err))
		return
	case errors.Is(err, model.ErrStickerNotFound):
		c.JSON(http.StatusNotFound, serializer.NotFoundErr("sticker not found"))
		return
	case err != nil:
		if ue, ok := model.AsUpstream(err); ok {
			// Transparent pass-through of the processor's failure.
			c.JSON(ue.Status, serializer.UpstreamErr("failed to create payment", err))
			return
		}
		c.JSON(http.StatusInternalServerError, serializer.UpstreamErr("failed to create payment", err))
		return
	}

	c.JSON(http.StatusOK, serializer.Response{Data: invoice})
}

type WebhookResp struct {
	Success bool `json:"success"`
}

// Webhook godoc
//
//	@Summary		Payment webhook
//	@Description	Receive an asynchronous payment-status callback from the configured processor
//	@Tags			payment
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	handler.WebhookResp
//	@Router			/payment/webhook [post]
func (h *PaymentHandler) Webhook(c *gin.Context) {
	// The signature is computed over the exact bytes sent; read them raw
	// before any structured parsing.
	rawBody, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("unreadable body", err))
		return
	}
	signature := c.GetHeader(h.settle.Processor().SignatureHeader())

	result, err := h.settle.Settle(c.Request.Context(), rawBody, signature)
	switch {
	case errors.Is(err, model.ErrWebhookNotConfigured):
		c.JSON(http.StatusInternalServerError, serializer.ConfigErr("", err))
		return
	case errors.Is(err, model.ErrInvalidSignature):
		// The one non-2xx outcome past configuration: reject without
		// detail and without touching any state.
		c.JSON(http.StatusForbidden, serializer.ForbiddenErr("invalid signature"))
		return
	case err != nil:
		// Post-verification failures are acknowledged anyway: processors
		// retry on non-2xx and redelivery cannot fix a server-side fault.
		h.log.Error("webhook processing failed after verification", zap.Error(err))
		c.JSON(http.StatusOK, WebhookResp{Success: true})
		return
	}

	if result.Outcome == model.OutcomeUnlock && !result.Transitioned {
		h.log.Info("duplicate unlock webhook acknowledged",
			zap.String("order_id", result.OrderID))
	}
	c.JSON(http.StatusOK, WebhookResp{Success: true})
}

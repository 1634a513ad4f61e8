package service

import (
	"context"
	"crypto/hmac"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/stickerpack-io/stickerpack/internal/config"
	"github.com/stickerpack-io/stickerpack/internal/modules/model"
	"github.com/stickerpack-io/stickerpack/internal/modules/repo"
	"go.uber.org/zap"
)

// SettlementResult describes what a verified webhook did.
type SettlementResult struct {
	Outcome   model.Outcome
	OrderID   string
	StickerID uuid.UUID
	// Transitioned is true only for the call that actually flipped the
	// sticker to unlocked; redeliveries report false.
	Transitioned bool
}

// SettlementService authenticates payment-processor callbacks and applies
// the unlock transition. States: received -> signature-checked ->
// {rejected | order-resolved} -> {no-op | unlocked}.
type SettlementService interface {
	Processor() model.ProcessorKind
	// Settle verifies the raw body against the supplied signature and, on a
	// recognized success status, unlocks the referenced sticker. The raw
	// bytes must be exactly as received: the signature covers them, and a
	// parse/re-serialize round trip would invalidate verification.
	Settle(ctx context.Context, rawBody []byte, signature string) (*SettlementResult, error)
}

type settlementService struct {
	cfg    *config.Config
	r      repo.StickerRepo
	events EventPublisher
	log    *zap.Logger
}

func NewSettlementService(cfg *config.Config, r repo.StickerRepo, events EventPublisher, log *zap.Logger) SettlementService {
	return &settlementService{cfg: cfg, r: r, events: events, log: log}
}

func (s *settlementService) Processor() model.ProcessorKind {
	return model.ProcessorKind(s.cfg.Payment.Processor)
}

// callbackBody covers both processors' payloads. The status field consulted
// is fixed by the configured processor, never chosen by the sender.
type callbackBody struct {
	PaymentStatus string `json:"payment_status"`
	Status        string `json:"status"`
	OrderID       string `json:"order_id"`
	PaymentID     any    `json:"payment_id"`
	InvoiceID     any    `json:"invoice_id"`
}

func (b *callbackBody) paymentID() string {
	for _, v := range []any{b.PaymentID, b.InvoiceID} {
		if v != nil {
			return fmt.Sprint(v)
		}
	}
	return ""
}

func (s *settlementService) Settle(ctx context.Context, rawBody []byte, signature string) (*SettlementResult, error) {
	kind := s.Processor()

	// Fail closed: an unset secret means callbacks cannot be
	// authenticated, so none are accepted.
	secret := s.cfg.Payment.IPNSecret
	if secret == "" {
		return nil, model.ErrWebhookNotConfigured
	}
	// Fail closed: with a secret configured, an unsigned request is
	// rejected rather than waved through.
	if signature == "" {
		return nil, model.ErrInvalidSignature
	}

	mac := kind.NewMAC([]byte(secret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return nil, model.ErrInvalidSignature
	}

	// Only now is the body trusted enough to parse.
	body := &callbackBody{}
	if err := sonic.Unmarshal(rawBody, body); err != nil {
		return nil, fmt.Errorf("parse verified webhook body: %w", err)
	}

	status := body.Status
	if kind.StatusField() == "payment_status" {
		status = body.PaymentStatus
	}

	result := &SettlementResult{
		Outcome: model.StatusOutcome(kind, status),
		OrderID: body.OrderID,
	}

	switch result.Outcome {
	case model.OutcomeObserve:
		s.log.Warn("payment failed or expired",
			zap.String("order_id", body.OrderID),
			zap.String("status", status))
		return result, nil
	case model.OutcomeIgnore:
		s.log.Debug("ignoring webhook status",
			zap.String("order_id", body.OrderID),
			zap.String("status", status))
		return result, nil
	}

	stickerID, ok := model.StickerIDFromOrderID(body.OrderID)
	if !ok {
		// Not one of our orders; never guess.
		s.log.Warn("webhook order id does not reference a sticker", zap.String("order_id", body.OrderID))
		result.Outcome = model.OutcomeIgnore
		return result, nil
	}
	result.StickerID = stickerID

	transitioned, err := s.r.Unlock(ctx, stickerID)
	if errors.Is(err, model.ErrStickerNotFound) {
		// Verified payment for an unknown sticker: retrying cannot fix it,
		// so log loudly and let the handler acknowledge.
		s.log.Error("verified payment for unknown sticker",
			zap.String("order_id", body.OrderID),
			zap.String("sticker_id", stickerID.String()))
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("unlock sticker: %w", err)
	}
	result.Transitioned = transitioned

	if transitioned {
		s.log.Info("sticker unlocked",
			zap.String("sticker_id", stickerID.String()),
			zap.String("order_id", body.OrderID))
		s.publishUnlock(ctx, body, stickerID, kind)
	}
	return result, nil
}

// publishUnlock emits the unlock event for the notification pipeline. It
// fires only on a genuine transition, so redelivered webhooks cannot double
// side effects, and a broker failure never blocks the acknowledgment.
func (s *settlementService) publishUnlock(ctx context.Context, body *callbackBody, stickerID uuid.UUID, kind model.ProcessorKind) {
	if s.events == nil {
		return
	}
	event := model.UnlockEvent{
		StickerID: stickerID,
		OrderID:   body.OrderID,
		PaymentID: body.paymentID(),
		Processor: kind,
	}
	if err := s.events.PublishJSON(ctx, s.cfg.RabbitMQ.Exchange, model.UnlockEventRoutingKey, event); err != nil {
		s.log.Error("publish unlock event", zap.String("sticker_id", stickerID.String()), zap.Error(err))
	}
}

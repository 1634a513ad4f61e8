package model

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"strings"

	"github.com/google/uuid"
)

// ProcessorKind identifies the payment processor a deployment is wired to.
// Exactly one is live per deployment; the webhook endpoint verifies only
// that processor's protocol.
type ProcessorKind string

const (
	ProcessorCryptoCloud ProcessorKind = "cryptocloud"
	ProcessorNOWPayments ProcessorKind = "nowpayments"
)

// SignatureHeader is the request header carrying the sender-supplied
// signature. Fixed per protocol, never derived from the body.
func (k ProcessorKind) SignatureHeader() string {
	switch k {
	case ProcessorNOWPayments:
		return "x-nowpayments-sig"
	default:
		return "x-cryptocloud-signature"
	}
}

// NewMAC returns the keyed hash the processor signs its callbacks with.
func (k ProcessorKind) NewMAC(secret []byte) hash.Hash {
	switch k {
	case ProcessorNOWPayments:
		return hmac.New(sha512.New, secret)
	default:
		return hmac.New(sha256.New, secret)
	}
}

// StatusField names the body field carrying the invoice status.
func (k ProcessorKind) StatusField() string {
	switch k {
	case ProcessorNOWPayments:
		return "payment_status"
	default:
		return "status"
	}
}

// Outcome classifies a webhook status token.
type Outcome int

const (
	// OutcomeIgnore: unrecognized or intermediate status, no action.
	OutcomeIgnore Outcome = iota
	// OutcomeObserve: terminal failure, logged but no state change.
	OutcomeObserve
	// OutcomeUnlock: confirmed payment, triggers the unlock transition.
	OutcomeUnlock
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnlock:
		return "unlock"
	case OutcomeObserve:
		return "observe"
	default:
		return "ignore"
	}
}

// statusOutcomes is the closed set of recognized status tokens per
// processor. Anything absent from the table is ignored.
var statusOutcomes = map[ProcessorKind]map[string]Outcome{
	ProcessorNOWPayments: {
		"finished":  OutcomeUnlock,
		"confirmed": OutcomeUnlock,
		"failed":    OutcomeObserve,
		"expired":   OutcomeObserve,
	},
	ProcessorCryptoCloud: {
		"success":  OutcomeUnlock,
		"paid":     OutcomeUnlock,
		"fail":     OutcomeObserve,
		"canceled": OutcomeObserve,
	},
}

// StatusOutcome maps a processor status token to its settlement outcome.
func StatusOutcome(kind ProcessorKind, status string) Outcome {
	return statusOutcomes[kind][strings.ToLower(status)]
}

// orderIDPrefix makes the order id self-describing so an inbound webhook
// resolves back to exactly one sticker without a lookup table.
const orderIDPrefix = "sticker_"

// OrderID derives the deterministic external order identifier for a sticker.
func OrderID(stickerID uuid.UUID) string {
	return orderIDPrefix + stickerID.String()
}

// StickerIDFromOrderID recovers the sticker id from an order id. The second
// return is false when the prefix is absent or the remainder is not a UUID;
// such orders are not ours and must be treated as no-ops, never guessed at.
func StickerIDFromOrderID(orderID string) (uuid.UUID, bool) {
	raw, ok := strings.CutPrefix(orderID, orderIDPrefix)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// UnlockEventRoutingKey is the routing key unlock events are published
// under and notification consumers bind to.
const UnlockEventRoutingKey = "sticker.unlocked"

// UnlockEvent is published to the message queue when a sticker actually
// transitions to unlocked, exactly once per transition.
type UnlockEvent struct {
	StickerID uuid.UUID     `json:"sticker_id"`
	OrderID   string        `json:"order_id"`
	PaymentID string        `json:"payment_id,omitempty"`
	Processor ProcessorKind `json:"processor"`
}

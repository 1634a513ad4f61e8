package model

import (
	"errors"
	"fmt"
)

// Client input errors (4xx).
var (
	ErrNoImage          = errors.New("no image provided")
	ErrStickerNotFound  = errors.New("sticker not found")
	ErrAlreadyClaimed   = errors.New("sticker already claimed")
	ErrEmailTaken       = errors.New("email already registered")
	ErrBadCredentials   = errors.New("invalid email or password")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// Configuration errors (5xx, operator-facing, detected before any external
// call is attempted).
var (
	ErrGenerationNotConfigured = errors.New("generation service credentials not configured")
	ErrPaymentNotConfigured    = errors.New("payment processor credentials not configured")
	ErrWebhookNotConfigured    = errors.New("webhook secret not configured")
	ErrPreviewsNotConfigured   = errors.New("preview cache not configured")
	ErrSourceNotAllowed        = errors.New("sticker source url is not on the allowed host")
)

var ErrNoImageInResponse = errors.New("no image in response")

// UpstreamError carries a non-success response from an external
// collaborator through to the request boundary without swallowing it.
type UpstreamError struct {
	Service string
	Status  int
	Body    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Service, e.Status, e.Body)
}

// AsUpstream unwraps err to an UpstreamError if one is in the chain.
func AsUpstream(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

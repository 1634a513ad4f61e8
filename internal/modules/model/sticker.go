package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Sticker struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	// OwnerID is nil for anonymous creations and set exactly once by the
	// claim operation.
	OwnerID *uuid.UUID `gorm:"type:uuid;index" json:"owner_id,omitempty"`
	// SourceURL is the generated asset as returned by the inference
	// service. Immutable once persisted; the only authority for bytes.
	SourceURL string `gorm:"type:text;not null" json:"source_url"`
	// Unlocked flips false -> true on confirmed payment and never back.
	Unlocked bool              `gorm:"not null;default:false" json:"unlocked"`
	Meta     datatypes.JSONMap `gorm:"type:jsonb" swaggertype:"object" json:"meta"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Sticker <-> User
	Owner *User `gorm:"foreignKey:OwnerID;references:ID;constraint:OnDelete:SET NULL,OnUpdate:CASCADE;" json:"-"`
}

func (Sticker) TableName() string { return "stickers" }

// Preview is the ephemeral, non-billed tier of a sticker. It lives only in
// the cache with a bounded TTL and is promoted into a durable Sticker before
// entering the payment flow.
type Preview struct {
	ID        uuid.UUID `json:"id"`
	SourceURL string    `json:"source_url"`
	CreatedAt time.Time `json:"created_at"`
}

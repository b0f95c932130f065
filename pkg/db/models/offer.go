package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/booktrade/backend/pkg/enums"
)

// Offer represents one buyer's negotiation against a sell post. A
// partial unique index on (sell_post_id, buyer_id) where the status is
// live keeps a buyer to one active offer per post.
type Offer struct {
	ID              uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SellPostID      uuid.UUID         `gorm:"column:sell_post_id;type:uuid;not null;index"`
	BuyerID         uuid.UUID         `gorm:"column:buyer_id;type:uuid;not null;index"`
	OfferedPrice    decimal.Decimal   `gorm:"column:offered_price;type:numeric(12,2);not null"`
	Message         *string           `gorm:"column:message"`
	Status          enums.OfferStatus `gorm:"column:status;type:text;not null;default:'PENDING';index"`
	AwaitingParty   enums.OfferParty  `gorm:"column:awaiting_party;type:text;not null;default:'SELLER'"`
	CounterPrice    *decimal.Decimal  `gorm:"column:counter_price;type:numeric(12,2)"`
	ResponseMessage *string           `gorm:"column:response_message"`
	RespondedAt     *time.Time        `gorm:"column:responded_at"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

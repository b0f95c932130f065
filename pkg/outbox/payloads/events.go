package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/booktrade/backend/pkg/enums"
)

// OfferSubmittedEvent signals a buyer opened a new negotiation.
type OfferSubmittedEvent struct {
	OfferID      uuid.UUID       `json:"offer_id"`
	SellPostID   uuid.UUID       `json:"sell_post_id"`
	SellerID     uuid.UUID       `json:"seller_id"`
	BuyerID      uuid.UUID       `json:"buyer_id"`
	OfferedPrice decimal.Decimal `json:"offered_price"`
	PostTitle    string          `json:"post_title"`
}

// OfferDecisionEvent is emitted when either party decides a live offer.
type OfferDecisionEvent struct {
	OfferID      uuid.UUID         `json:"offer_id"`
	SellPostID   uuid.UUID         `json:"sell_post_id"`
	SellerID     uuid.UUID         `json:"seller_id"`
	BuyerID      uuid.UUID         `json:"buyer_id"`
	Status       enums.OfferStatus `json:"status"`
	CounterPrice *decimal.Decimal  `json:"counter_price,omitempty"`
	DecidedBy    enums.OfferParty  `json:"decided_by"`
	PostTitle    string            `json:"post_title"`
}

// OfferCascadeRejectedEvent reports an offer auto-rejected because its
// post closed under it: another offer was accepted (AcceptedOfferID
// set) or the seller marked the post sold directly.
type OfferCascadeRejectedEvent struct {
	OfferID         uuid.UUID `json:"offer_id"`
	SellPostID      uuid.UUID `json:"sell_post_id"`
	BuyerID         uuid.UUID `json:"buyer_id"`
	AcceptedOfferID uuid.UUID `json:"accepted_offer_id"`
	PostTitle       string    `json:"post_title"`
}

// ListingSoldEvent is emitted when a post reaches its terminal state.
type ListingSoldEvent struct {
	SellPostID uuid.UUID       `json:"sell_post_id"`
	SellerID   uuid.UUID       `json:"seller_id"`
	BuyerID    uuid.UUID       `json:"buyer_id"`
	SoldPrice  decimal.Decimal `json:"sold_price"`
	SoldAt     time.Time       `json:"sold_at"`
	PostTitle  string          `json:"post_title"`
}

// ListingUpdatedEvent reports a lifecycle transition on a post.
type ListingUpdatedEvent struct {
	SellPostID uuid.UUID            `json:"sell_post_id"`
	SellerID   uuid.UUID            `json:"seller_id"`
	From       enums.SellPostStatus `json:"from"`
	To         enums.SellPostStatus `json:"to"`
	PostTitle  string               `json:"post_title"`
}

// ListingExpiredEvent reports a post swept past its expiry deadline.
type ListingExpiredEvent struct {
	SellPostID uuid.UUID `json:"sell_post_id"`
	SellerID   uuid.UUID `json:"seller_id"`
	ExpiredAt  time.Time `json:"expired_at"`
	PostTitle  string    `json:"post_title"`
}

package offers

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/booktrade/backend/pkg/db/models"
	"github.com/booktrade/backend/pkg/enums"
)

// SubmitInput carries everything needed to open a negotiation.
type SubmitInput struct {
	SellPostID uuid.UUID
	BuyerID    uuid.UUID
	Price      decimal.Decimal
	Message    *string
}

// RespondInput captures a seller's decision on a pending offer.
type RespondInput struct {
	OfferID         uuid.UUID
	ActorID         uuid.UUID
	Decision        enums.OfferDecision
	CounterPrice    *decimal.Decimal
	ResponseMessage *string
}

// CounterResponseInput captures a buyer's decision on a countered
// offer. CounterPrice is required when the buyer counters back.
type CounterResponseInput struct {
	OfferID         uuid.UUID
	ActorID         uuid.UUID
	Decision        enums.OfferDecision
	CounterPrice    *decimal.Decimal
	ResponseMessage *string
}

// WithdrawInput identifies the offer a buyer wants to retract.
type WithdrawInput struct {
	OfferID uuid.UUID
	ActorID uuid.UUID
}

// OfferList is one cursor page of offers.
type OfferList struct {
	Items      []models.Offer
	NextCursor *string
}

package listings

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/booktrade/backend/pkg/db/models"
	"github.com/booktrade/backend/pkg/enums"
)

// CreateInput carries the fields needed to publish a listing.
type CreateInput struct {
	SellerID    uuid.UUID
	Title       string
	Description *string
	Price       decimal.Decimal
	Condition   enums.ItemCondition
	Negotiable  bool
	Tags        []string
	ExpiresAt   *time.Time
}

// MarkSoldInput records a sale that happened outside the offer flow.
type MarkSoldInput struct {
	SellPostID uuid.UUID
	ActorID    uuid.UUID
	BuyerID    *uuid.UUID
	SoldPrice  *decimal.Decimal
}

// TransitionInput identifies a lifecycle change requested by the seller.
type TransitionInput struct {
	SellPostID uuid.UUID
	ActorID    uuid.UUID
}

// ListFilters narrows a browse query.
type ListFilters struct {
	SellerID  *uuid.UUID
	Status    *enums.SellPostStatus
	Condition *enums.ItemCondition
}

// SellPostList is one cursor page of listings.
type SellPostList struct {
	Items      []models.SellPost
	NextCursor *string
}

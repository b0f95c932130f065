package enums

// OutboxEventType names a domain event recorded for asynchronous
// publication.
type OutboxEventType string

const (
	OutboxEventOfferSubmitted  OutboxEventType = "offer.submitted"
	OutboxEventOfferAccepted   OutboxEventType = "offer.accepted"
	OutboxEventOfferRejected   OutboxEventType = "offer.rejected"
	OutboxEventOfferCountered  OutboxEventType = "offer.countered"
	OutboxEventOfferWithdrawn  OutboxEventType = "offer.withdrawn"
	OutboxEventOfferExpired    OutboxEventType = "offer.expired"
	OutboxEventListingCreated  OutboxEventType = "listing.created"
	OutboxEventListingUpdated  OutboxEventType = "listing.updated"
	OutboxEventListingSold     OutboxEventType = "listing.sold"
	OutboxEventListingExpired  OutboxEventType = "listing.expired"
)

func (t OutboxEventType) String() string {
	return string(t)
}

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	OutboxAggregateSellPost OutboxAggregateType = "sell_post"
	OutboxAggregateOffer    OutboxAggregateType = "offer"
)

func (t OutboxAggregateType) String() string {
	return string(t)
}

// OutboxStatus tracks an outbox row through the publish loop.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "PENDING"
	OutboxStatusPublished OutboxStatus = "PUBLISHED"
	OutboxStatusFailed    OutboxStatus = "FAILED"
)

func (s OutboxStatus) String() string {
	return string(s)
}

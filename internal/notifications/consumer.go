package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/booktrade/backend/pkg/db/models"
	"github.com/booktrade/backend/pkg/enums"
	"github.com/booktrade/backend/pkg/logger"
	"github.com/booktrade/backend/pkg/outbox"
	"github.com/booktrade/backend/pkg/outbox/idempotency"
)

const domainNotificationConsumer = "domain-notifications"

type consumerRepository interface {
	CreateIfAbsent(ctx context.Context, notification *models.Notification) (bool, error)
}

// Consumer watches domain events and turns negotiation and listing
// transitions into per-user notifications.
type Consumer struct {
	repo         consumerRepository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	dispatcher   *Dispatcher
	logg         *logger.Logger
}

// NewConsumer builds a domain notification consumer.
func NewConsumer(repo consumerRepository, subscription *pubsub.Subscriber, manager *idempotency.Manager, dispatcher *Dispatcher, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		dispatcher:   dispatcher,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, domainNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	notification, err := c.buildNotification(eventType, envelope)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.idempotency.Delete(ctx, domainNotificationConsumer, eventID)
		return processResult{nack: true}
	}
	if notification == nil {
		c.logg.Info(logCtx, "event type not handled")
		return processResult{ack: true}
	}

	logCtx = c.logg.WithField(logCtx, "user_id", notification.UserID.String())
	created, err := c.repo.CreateIfAbsent(ctx, notification)
	if err != nil {
		c.logg.Error(logCtx, "notification persist failed", err)
		_ = c.idempotency.Delete(ctx, domainNotificationConsumer, eventID)
		return processResult{nack: true}
	}
	if !created {
		c.logg.Info(logCtx, "notification already stored")
		return processResult{ack: true}
	}

	if c.dispatcher != nil {
		c.dispatcher.Dispatch(ctx, notification)
	}

	c.logg.Info(logCtx, "notification created")
	return processResult{ack: true}
}

// offerEventPayload is a superset of every offer event shape. Cascade
// rejections carry AcceptedOfferID and no DecidedBy.
type offerEventPayload struct {
	OfferID         uuid.UUID         `json:"offer_id"`
	SellPostID      uuid.UUID         `json:"sell_post_id"`
	SellerID        uuid.UUID         `json:"seller_id"`
	BuyerID         uuid.UUID         `json:"buyer_id"`
	OfferedPrice    *decimal.Decimal  `json:"offered_price,omitempty"`
	Status          enums.OfferStatus `json:"status,omitempty"`
	CounterPrice    *decimal.Decimal  `json:"counter_price,omitempty"`
	DecidedBy       enums.OfferParty  `json:"decided_by,omitempty"`
	AcceptedOfferID uuid.UUID         `json:"accepted_offer_id,omitempty"`
	PostTitle       string            `json:"post_title"`
}

type listingEventPayload struct {
	SellPostID uuid.UUID `json:"sell_post_id"`
	SellerID   uuid.UUID `json:"seller_id"`
	PostTitle  string    `json:"post_title"`
}

func (c *Consumer) buildNotification(eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) (*models.Notification, error) {
	switch eventType {
	case enums.OutboxEventOfferSubmitted,
		enums.OutboxEventOfferAccepted,
		enums.OutboxEventOfferRejected,
		enums.OutboxEventOfferCountered,
		enums.OutboxEventOfferWithdrawn,
		enums.OutboxEventOfferExpired:
		var payload offerEventPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return nil, err
		}
		return buildOfferNotification(eventType, payload, envelope.EventID)
	case enums.OutboxEventListingExpired:
		var payload listingEventPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return nil, err
		}
		return buildListingExpiredNotification(payload, envelope.EventID)
	default:
		// listing.created/updated/sold are actor-initiated; the actor
		// already knows and the counterparty hears via offer events.
		return nil, nil
	}
}

func buildOfferNotification(eventType enums.OutboxEventType, payload offerEventPayload, eventID string) (*models.Notification, error) {
	if payload.SellerID == uuid.Nil && payload.BuyerID == uuid.Nil {
		return nil, fmt.Errorf("offer event missing parties")
	}

	recipient := payload.BuyerID
	kind := enums.NotificationKindOfferUpdated
	var title, message string

	switch eventType {
	case enums.OutboxEventOfferSubmitted:
		recipient = payload.SellerID
		kind = enums.NotificationKindNewOffer
		title = "New offer received"
		message = fmt.Sprintf("You received an offer on %q.", payload.PostTitle)
		if payload.OfferedPrice != nil {
			message = fmt.Sprintf("You received an offer of %s on %q.", payload.OfferedPrice.StringFixed(2), payload.PostTitle)
		}
	case enums.OutboxEventOfferCountered:
		recipient = counterpartyOf(payload, payload.DecidedBy)
		title = "Offer countered"
		who := "The seller"
		if payload.DecidedBy == enums.OfferPartyBuyer {
			who = "The buyer"
		}
		message = fmt.Sprintf("%s countered on %q.", who, payload.PostTitle)
		if payload.CounterPrice != nil {
			message = fmt.Sprintf("%s countered on %q at %s.", who, payload.PostTitle, payload.CounterPrice.StringFixed(2))
		}
	case enums.OutboxEventOfferAccepted:
		recipient = counterpartyOf(payload, payload.DecidedBy)
		title = "Offer accepted"
		message = fmt.Sprintf("Your offer on %q was accepted.", payload.PostTitle)
		if recipient == payload.SellerID {
			message = fmt.Sprintf("The buyer accepted your counter on %q.", payload.PostTitle)
		}
	case enums.OutboxEventOfferRejected:
		if payload.DecidedBy == "" {
			// Cascade rejection after another offer was accepted.
			recipient = payload.BuyerID
			title = "Offer closed"
			message = fmt.Sprintf("%q was sold to another buyer.", payload.PostTitle)
			break
		}
		recipient = counterpartyOf(payload, payload.DecidedBy)
		title = "Offer declined"
		message = fmt.Sprintf("Your offer on %q was declined.", payload.PostTitle)
		if recipient == payload.SellerID {
			message = fmt.Sprintf("The buyer declined your counter on %q.", payload.PostTitle)
		}
	case enums.OutboxEventOfferWithdrawn:
		recipient = payload.SellerID
		title = "Offer withdrawn"
		message = fmt.Sprintf("An offer on %q was withdrawn by the buyer.", payload.PostTitle)
	case enums.OutboxEventOfferExpired:
		recipient = payload.BuyerID
		title = "Offer expired"
		message = fmt.Sprintf("Your offer on %q expired with the listing.", payload.PostTitle)
	default:
		return nil, nil
	}

	if recipient == uuid.Nil {
		return nil, fmt.Errorf("offer event missing recipient")
	}

	link := fmt.Sprintf("/posts/%s/offers/%s", payload.SellPostID, payload.OfferID)
	return &models.Notification{
		UserID:    recipient,
		Kind:      kind,
		Title:     title,
		Message:   message,
		Link:      stringPtr(link),
		DedupeKey: eventID,
	}, nil
}

func buildListingExpiredNotification(payload listingEventPayload, eventID string) (*models.Notification, error) {
	if payload.SellerID == uuid.Nil {
		return nil, fmt.Errorf("listing event missing seller")
	}
	link := fmt.Sprintf("/posts/%s", payload.SellPostID)
	return &models.Notification{
		UserID:    payload.SellerID,
		Kind:      enums.NotificationKindListingUpdated,
		Title:     "Listing expired",
		Message:   fmt.Sprintf("Your listing %q expired and is no longer visible to buyers.", payload.PostTitle),
		Link:      stringPtr(link),
		DedupeKey: eventID,
	}, nil
}

// counterpartyOf returns the party the decision should be announced to.
func counterpartyOf(payload offerEventPayload, decider enums.OfferParty) uuid.UUID {
	if decider == enums.OfferPartyBuyer {
		return payload.SellerID
	}
	return payload.BuyerID
}

func stringPtr(value string) *string {
	return &value
}

package offers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbpkg "github.com/booktrade/backend/pkg/db"
	"github.com/booktrade/backend/pkg/db/models"
	"github.com/booktrade/backend/pkg/enums"
	pkgerrors "github.com/booktrade/backend/pkg/errors"
	"github.com/booktrade/backend/pkg/outbox"
	"github.com/booktrade/backend/pkg/outbox/payloads"
	"github.com/booktrade/backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines the negotiation operations exposed to controllers.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*models.Offer, error)
	Respond(ctx context.Context, input RespondInput) (*models.Offer, error)
	RespondToCounter(ctx context.Context, input CounterResponseInput) (*models.Offer, error)
	Withdraw(ctx context.Context, input WithdrawInput) (*models.Offer, error)
	Get(ctx context.Context, offerID, actorID uuid.UUID) (*models.Offer, error)
	ListForPost(ctx context.Context, sellPostID, actorID uuid.UUID, params pagination.Params) (*OfferList, error)
	ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*OfferList, error)
	ListForSeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*OfferList, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService builds an offer service with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("offers repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc}, nil
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*models.Offer, error) {
	if input.SellPostID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sell post id required")
	}
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer price must be positive")
	}

	var created *models.Offer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		post, err := repo.FindSellPostForUpdate(ctx, input.SellPostID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "sell post not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sell post")
		}
		if post.SellerID == input.BuyerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "cannot make an offer on your own post")
		}
		if !post.Status.IsOfferable() {
			return stateConflict("post does not accept offers", string(post.Status), string(enums.OfferStatusPending))
		}
		if !post.Negotiable && !input.Price.Equal(post.Price) {
			return pkgerrors.New(pkgerrors.CodeValidation, "post is not negotiable, offer must match the listing price")
		}

		if existing, err := repo.FindActiveOfferForBuyer(ctx, post.ID, input.BuyerID); err == nil && existing != nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "an active offer already exists for this post")
		} else if err != nil && err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing offer")
		}

		offer := &models.Offer{
			SellPostID:    post.ID,
			BuyerID:       input.BuyerID,
			OfferedPrice:  input.Price,
			Message:       input.Message,
			Status:        enums.OfferStatusPending,
			AwaitingParty: enums.OfferPartySeller,
		}
		if _, err := repo.CreateOffer(ctx, offer); err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_offers_active_per_buyer") {
				return pkgerrors.New(pkgerrors.CodeConflict, "an active offer already exists for this post")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create offer")
		}

		created = offer
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventOfferSubmitted,
			AggregateType: enums.OutboxAggregateOffer,
			AggregateID:   offer.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.BuyerID, Role: string(enums.OfferPartyBuyer)},
			Data: payloads.OfferSubmittedEvent{
				OfferID:      offer.ID,
				SellPostID:   post.ID,
				SellerID:     post.SellerID,
				BuyerID:      input.BuyerID,
				OfferedPrice: input.Price,
				PostTitle:    post.Title,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Respond(ctx context.Context, input RespondInput) (*models.Offer, error) {
	if input.OfferID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Decision.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be accept, reject, or counter")
	}
	if input.Decision == enums.OfferDecisionCounter {
		if input.CounterPrice == nil || !input.CounterPrice.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "counter price must be positive")
		}
	}

	var updated *models.Offer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		offer, post, err := loadOfferLocked(ctx, repo, input.OfferID)
		if err != nil {
			return err
		}
		if post.SellerID != input.ActorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the seller can respond to this offer")
		}
		if !offer.Status.IsActive() || offer.AwaitingParty != enums.OfferPartySeller {
			return stateConflict("offer is not awaiting a seller response", string(offer.Status), decisionTarget(input.Decision))
		}

		switch input.Decision {
		case enums.OfferDecisionAccept:
			if err := s.acceptOffer(ctx, tx, repo, offer, post, input.ActorID, currentPrice(offer), input.ResponseMessage); err != nil {
				return err
			}
		case enums.OfferDecisionReject:
			if err := s.resolveOffer(ctx, tx, repo, offer, post, enums.OfferStatusRejected, enums.OfferPartySeller, nil, input.ResponseMessage); err != nil {
				return err
			}
		case enums.OfferDecisionCounter:
			if err := s.counterOffer(ctx, tx, repo, offer, post, *input.CounterPrice, input.ResponseMessage, enums.OfferPartySeller); err != nil {
				return err
			}
		}

		updated = offer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) RespondToCounter(ctx context.Context, input CounterResponseInput) (*models.Offer, error) {
	if input.OfferID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Decision.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be accept, reject, or counter")
	}
	if input.Decision == enums.OfferDecisionCounter {
		if input.CounterPrice == nil || !input.CounterPrice.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "counter price must be positive")
		}
	}

	var updated *models.Offer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		offer, post, err := loadOfferLocked(ctx, repo, input.OfferID)
		if err != nil {
			return err
		}
		if offer.BuyerID != input.ActorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer can respond to a counter offer")
		}
		if offer.Status != enums.OfferStatusCountered || offer.AwaitingParty != enums.OfferPartyBuyer {
			return stateConflict("offer is not awaiting a buyer response", string(offer.Status), decisionTarget(input.Decision))
		}
		if offer.CounterPrice == nil {
			return pkgerrors.New(pkgerrors.CodeInternal, "countered offer has no counter price")
		}

		switch input.Decision {
		case enums.OfferDecisionAccept:
			if err := s.acceptOffer(ctx, tx, repo, offer, post, input.ActorID, *offer.CounterPrice, input.ResponseMessage); err != nil {
				return err
			}
		case enums.OfferDecisionReject:
			if err := s.resolveOffer(ctx, tx, repo, offer, post, enums.OfferStatusRejected, enums.OfferPartyBuyer, nil, input.ResponseMessage); err != nil {
				return err
			}
		case enums.OfferDecisionCounter:
			if err := s.counterOffer(ctx, tx, repo, offer, post, *input.CounterPrice, input.ResponseMessage, enums.OfferPartyBuyer); err != nil {
				return err
			}
		}

		updated = offer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Withdraw(ctx context.Context, input WithdrawInput) (*models.Offer, error) {
	if input.OfferID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var updated *models.Offer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		offer, post, err := loadOfferLocked(ctx, repo, input.OfferID)
		if err != nil {
			return err
		}
		if offer.BuyerID != input.ActorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer can withdraw this offer")
		}
		if offer.Status != enums.OfferStatusPending {
			return stateConflict("only pending offers can be withdrawn", string(offer.Status), string(enums.OfferStatusWithdrawn))
		}

		if err := s.resolveOffer(ctx, tx, repo, offer, post, enums.OfferStatusWithdrawn, enums.OfferPartyBuyer, nil, nil); err != nil {
			return err
		}
		updated = offer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Get(ctx context.Context, offerID, actorID uuid.UUID) (*models.Offer, error) {
	if offerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer id required")
	}
	offer, err := s.repo.FindOffer(ctx, offerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
	}
	post, err := s.repo.FindSellPost(ctx, offer.SellPostID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sell post")
	}
	if offer.BuyerID != actorID && post.SellerID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "offer is not visible to this user")
	}
	return offer, nil
}

func (s *service) ListForPost(ctx context.Context, sellPostID, actorID uuid.UUID, params pagination.Params) (*OfferList, error) {
	if sellPostID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sell post id required")
	}
	post, err := s.repo.FindSellPost(ctx, sellPostID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sell post not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sell post")
	}
	if post.SellerID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the seller can list offers for a post")
	}
	list, err := s.repo.ListOffersForPost(ctx, sellPostID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list offers")
	}
	return list, nil
}

func (s *service) ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*OfferList, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListOffersForBuyer(ctx, buyerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list offers")
	}
	return list, nil
}

func (s *service) ListForSeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*OfferList, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListOffersForSeller(ctx, sellerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list offers")
	}
	return list, nil
}

// cascadeRejectMessage is stamped on sibling offers auto-rejected when
// another offer on the same post is accepted.
const cascadeRejectMessage = "Another offer on this post was accepted"

// currentPrice is the amount an accept settles at: the latest counter
// proposal if one exists, otherwise the original offer.
func currentPrice(offer *models.Offer) decimal.Decimal {
	if offer.CounterPrice != nil {
		return *offer.CounterPrice
	}
	return offer.OfferedPrice
}

// counterOffer records a new price proposal from either side and hands
// the negotiation to the other party.
func (s *service) counterOffer(ctx context.Context, tx *gorm.DB, repo Repository, offer *models.Offer, post *models.SellPost, price decimal.Decimal, message *string, by enums.OfferParty) error {
	if !post.Negotiable {
		return pkgerrors.New(pkgerrors.CodeValidation, "post is not negotiable, counter offers are not allowed")
	}

	now := time.Now()
	awaiting := by.Other()
	updates := map[string]any{
		"status":         enums.OfferStatusCountered,
		"awaiting_party": awaiting,
		"counter_price":  price,
		"responded_at":   now,
	}
	if message != nil {
		updates["response_message"] = *message
	}
	if err := repo.UpdateOffer(ctx, offer.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counter offer")
	}
	offer.Status = enums.OfferStatusCountered
	offer.AwaitingParty = awaiting
	offer.CounterPrice = &price
	offer.ResponseMessage = message
	offer.RespondedAt = &now

	actorID := post.SellerID
	if by == enums.OfferPartyBuyer {
		actorID = offer.BuyerID
	}

	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.OutboxEventOfferCountered,
		AggregateType: enums.OutboxAggregateOffer,
		AggregateID:   offer.ID,
		Version:       1,
		Actor:         &outbox.ActorRef{UserID: actorID, Role: string(by)},
		Data: payloads.OfferDecisionEvent{
			OfferID:      offer.ID,
			SellPostID:   post.ID,
			SellerID:     post.SellerID,
			BuyerID:      offer.BuyerID,
			Status:       offer.Status,
			CounterPrice: &price,
			DecidedBy:    by,
			PostTitle:    post.Title,
		},
	})
}

// acceptOffer marks the offer accepted, auto-rejects every other live
// offer on the post, and moves the post to SOLD. The caller holds the
// post row lock; everything happens in the caller's transaction.
func (s *service) acceptOffer(ctx context.Context, tx *gorm.DB, repo Repository, offer *models.Offer, post *models.SellPost, actorID uuid.UUID, salePrice decimal.Decimal, message *string) error {
	if !post.Status.CanTransition(enums.SellPostStatusSold) {
		return stateConflict("post can no longer be sold", string(post.Status), string(enums.SellPostStatusSold))
	}

	now := time.Now()
	decider := enums.OfferPartySeller
	if actorID == offer.BuyerID {
		decider = enums.OfferPartyBuyer
	}

	updates := map[string]any{
		"status":       enums.OfferStatusAccepted,
		"responded_at": now,
	}
	if message != nil {
		updates["response_message"] = *message
	}
	if err := repo.UpdateOffer(ctx, offer.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "accept offer")
	}
	offer.Status = enums.OfferStatusAccepted
	offer.ResponseMessage = message
	offer.RespondedAt = &now

	siblings, err := repo.FindActiveOffersForPost(ctx, post.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sibling offers")
	}
	for _, sibling := range siblings {
		if sibling.ID == offer.ID {
			continue
		}
		if err := repo.UpdateOffer(ctx, sibling.ID, map[string]any{
			"status":           enums.OfferStatusRejected,
			"response_message": cascadeRejectMessage,
			"responded_at":     now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject sibling offer")
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventOfferRejected,
			AggregateType: enums.OutboxAggregateOffer,
			AggregateID:   sibling.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: actorID},
			Data: payloads.OfferCascadeRejectedEvent{
				OfferID:         sibling.ID,
				SellPostID:      post.ID,
				BuyerID:         sibling.BuyerID,
				AcceptedOfferID: offer.ID,
				PostTitle:       post.Title,
			},
		}); err != nil {
			return err
		}
	}

	if err := repo.UpdateSellPost(ctx, post.ID, map[string]any{
		"status":     enums.SellPostStatusSold,
		"sold_to_id": offer.BuyerID,
		"sold_price": salePrice,
		"sold_at":    now,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark post sold")
	}

	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.OutboxEventOfferAccepted,
		AggregateType: enums.OutboxAggregateOffer,
		AggregateID:   offer.ID,
		Version:       1,
		Actor:         &outbox.ActorRef{UserID: actorID, Role: string(decider)},
		Data: payloads.OfferDecisionEvent{
			OfferID:    offer.ID,
			SellPostID: post.ID,
			SellerID:   post.SellerID,
			BuyerID:    offer.BuyerID,
			Status:     enums.OfferStatusAccepted,
			DecidedBy:  decider,
			PostTitle:  post.Title,
		},
	}); err != nil {
		return err
	}

	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.OutboxEventListingSold,
		AggregateType: enums.OutboxAggregateSellPost,
		AggregateID:   post.ID,
		Version:       1,
		Actor:         &outbox.ActorRef{UserID: actorID, Role: string(decider)},
		Data: payloads.ListingSoldEvent{
			SellPostID: post.ID,
			SellerID:   post.SellerID,
			BuyerID:    offer.BuyerID,
			SoldPrice:  salePrice,
			SoldAt:     now,
			PostTitle:  post.Title,
		},
	})
}

// resolveOffer moves the offer to a terminal non-accepted status and
// emits the matching event.
func (s *service) resolveOffer(ctx context.Context, tx *gorm.DB, repo Repository, offer *models.Offer, post *models.SellPost, target enums.OfferStatus, decider enums.OfferParty, counterPrice *decimal.Decimal, message *string) error {
	now := time.Now()
	updates := map[string]any{
		"status":       target,
		"responded_at": now,
	}
	if message != nil {
		updates["response_message"] = *message
	}
	if err := repo.UpdateOffer(ctx, offer.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update offer status")
	}
	offer.Status = target
	offer.ResponseMessage = message
	offer.RespondedAt = &now

	eventType := enums.OutboxEventOfferRejected
	if target == enums.OfferStatusWithdrawn {
		eventType = enums.OutboxEventOfferWithdrawn
	}

	actorID := post.SellerID
	if decider == enums.OfferPartyBuyer {
		actorID = offer.BuyerID
	}

	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.OutboxAggregateOffer,
		AggregateID:   offer.ID,
		Version:       1,
		Actor:         &outbox.ActorRef{UserID: actorID, Role: string(decider)},
		Data: payloads.OfferDecisionEvent{
			OfferID:      offer.ID,
			SellPostID:   post.ID,
			SellerID:     post.SellerID,
			BuyerID:      offer.BuyerID,
			Status:       target,
			CounterPrice: counterPrice,
			DecidedBy:    decider,
			PostTitle:    post.Title,
		},
	})
}

// loadOfferLocked resolves an offer and its sell post with the post row
// locked FOR UPDATE. The post row serializes every decision against one
// listing, so the offer is re-read after the lock is acquired; a
// concurrent decision that committed first is visible before any
// precondition is checked.
func loadOfferLocked(ctx context.Context, repo Repository, offerID uuid.UUID) (*models.Offer, *models.SellPost, error) {
	offer, err := repo.FindOffer(ctx, offerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
	}
	post, err := repo.FindSellPostForUpdate(ctx, offer.SellPostID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "sell post not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock sell post")
	}
	offer, err = repo.FindOffer(ctx, offerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload offer")
	}
	return offer, post, nil
}

func stateConflict(message, current, requested string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, message).WithDetails(map[string]any{
		"current_status":   current,
		"requested_status": requested,
	})
}

func decisionTarget(decision enums.OfferDecision) string {
	switch decision {
	case enums.OfferDecisionAccept:
		return string(enums.OfferStatusAccepted)
	case enums.OfferDecisionReject:
		return string(enums.OfferStatusRejected)
	case enums.OfferDecisionCounter:
		return string(enums.OfferStatusCountered)
	default:
		return string(decision)
	}
}

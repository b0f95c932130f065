package listings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

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

// Service defines the listing lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.SellPost, error)
	Get(ctx context.Context, id uuid.UUID) (*models.SellPost, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) (*SellPostList, error)
	MarkSold(ctx context.Context, input MarkSoldInput) (*models.SellPost, error)
	MarkAvailable(ctx context.Context, input TransitionInput) (*models.SellPost, error)
	MarkPending(ctx context.Context, input TransitionInput) (*models.SellPost, error)
	Hide(ctx context.Context, input TransitionInput) (*models.SellPost, error)
	Unhide(ctx context.Context, input TransitionInput) (*models.SellPost, error)
	Expire(ctx context.Context, sellPostID uuid.UUID) (*models.SellPost, error)
}

type service struct {
	repo       Repository
	tx         txRunner
	outbox     outboxPublisher
	defaultTTL time.Duration
}

// NewService builds a listings service with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, defaultTTL time.Duration) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("listings repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc, defaultTTL: defaultTTL}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.SellPost, error) {
	if input.SellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	if !input.Price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if !input.Condition.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid item condition")
	}

	expiresAt := input.ExpiresAt
	if expiresAt == nil && s.defaultTTL > 0 {
		at := time.Now().Add(s.defaultTTL)
		expiresAt = &at
	}
	if expiresAt != nil && expiresAt.Before(time.Now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expiry must be in the future")
	}

	post := &models.SellPost{
		SellerID:    input.SellerID,
		Title:       title,
		Description: input.Description,
		Price:       input.Price,
		Condition:   input.Condition,
		Negotiable:  input.Negotiable,
		Tags:        normalizeTags(input.Tags),
		Status:      enums.SellPostStatusAvailable,
		ExpiresAt:   expiresAt,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.CreateSellPost(ctx, post); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sell post")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventListingCreated,
			AggregateType: enums.OutboxAggregateSellPost,
			AggregateID:   post.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.SellerID, Role: string(enums.OfferPartySeller)},
			Data: payloads.ListingUpdatedEvent{
				SellPostID: post.ID,
				SellerID:   post.SellerID,
				From:       "",
				To:         enums.SellPostStatusAvailable,
				PostTitle:  post.Title,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.SellPost, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sell post id required")
	}
	post, err := s.repo.FindSellPost(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sell post not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sell post")
	}
	return post, nil
}

func (s *service) List(ctx context.Context, filters ListFilters, params pagination.Params) (*SellPostList, error) {
	list, err := s.repo.ListSellPosts(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sell posts")
	}
	return list, nil
}

// soldRejectMessage is stamped on live offers rejected because the
// seller closed the listing outside the offer flow.
const soldRejectMessage = "The post was sold"

// MarkSold closes a listing the seller sold outside the offer flow.
// Every live offer on the post is rejected in the same transaction.
func (s *service) MarkSold(ctx context.Context, input MarkSoldInput) (*models.SellPost, error) {
	if input.SellPostID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sell post id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var result *models.SellPost
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		post, err := s.lockOwnedPost(ctx, repo, input.SellPostID, input.ActorID)
		if err != nil {
			return err
		}
		if !post.Status.CanTransition(enums.SellPostStatusSold) {
			return invalidTransition(post.Status, enums.SellPostStatusSold)
		}

		now := time.Now()
		updates := map[string]any{
			"status":  enums.SellPostStatusSold,
			"sold_at": now,
		}
		if input.BuyerID != nil {
			updates["sold_to_id"] = *input.BuyerID
		}
		if input.SoldPrice != nil {
			updates["sold_price"] = *input.SoldPrice
		}
		if err := repo.UpdateSellPost(ctx, post.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark post sold")
		}

		offers, err := repo.FindActiveOffersForPost(ctx, post.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active offers")
		}
		for _, offer := range offers {
			if err := repo.UpdateOffer(ctx, offer.ID, map[string]any{
				"status":           enums.OfferStatusRejected,
				"response_message": soldRejectMessage,
				"responded_at":     now,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject open offer")
			}
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.OutboxEventOfferRejected,
				AggregateType: enums.OutboxAggregateOffer,
				AggregateID:   offer.ID,
				Version:       1,
				Actor:         &outbox.ActorRef{UserID: input.ActorID},
				Data: payloads.OfferCascadeRejectedEvent{
					OfferID:    offer.ID,
					SellPostID: post.ID,
					BuyerID:    offer.BuyerID,
					PostTitle:  post.Title,
				},
			}); err != nil {
				return err
			}
		}

		from := post.Status
		post.Status = enums.SellPostStatusSold
		post.SoldAt = &now
		post.SoldToID = input.BuyerID
		post.SoldPrice = input.SoldPrice
		result = post

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventListingSold,
			AggregateType: enums.OutboxAggregateSellPost,
			AggregateID:   post.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Role: string(enums.OfferPartySeller)},
			Data: payloads.ListingUpdatedEvent{
				SellPostID: post.ID,
				SellerID:   post.SellerID,
				From:       from,
				To:         enums.SellPostStatusSold,
				PostTitle:  post.Title,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) MarkAvailable(ctx context.Context, input TransitionInput) (*models.SellPost, error) {
	return s.transition(ctx, input, enums.SellPostStatusAvailable)
}

func (s *service) MarkPending(ctx context.Context, input TransitionInput) (*models.SellPost, error) {
	return s.transition(ctx, input, enums.SellPostStatusPending)
}

func (s *service) Hide(ctx context.Context, input TransitionInput) (*models.SellPost, error) {
	return s.transition(ctx, input, enums.SellPostStatusHidden)
}

func (s *service) Unhide(ctx context.Context, input TransitionInput) (*models.SellPost, error) {
	post, err := s.repo.FindSellPost(ctx, input.SellPostID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sell post not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sell post")
	}
	if post.Status != enums.SellPostStatusHidden {
		return nil, invalidTransition(post.Status, enums.SellPostStatusAvailable)
	}
	return s.transition(ctx, input, enums.SellPostStatusAvailable)
}

// Expire sweeps one post past its deadline. Live offers expire with it.
func (s *service) Expire(ctx context.Context, sellPostID uuid.UUID) (*models.SellPost, error) {
	if sellPostID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sell post id required")
	}

	var result *models.SellPost
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		post, err := repo.FindSellPostForUpdate(ctx, sellPostID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "sell post not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock sell post")
		}
		if !post.Status.CanTransition(enums.SellPostStatusExpired) {
			return invalidTransition(post.Status, enums.SellPostStatusExpired)
		}

		now := time.Now()
		if err := repo.UpdateSellPost(ctx, post.ID, map[string]any{
			"status": enums.SellPostStatusExpired,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire post")
		}

		offers, err := repo.FindActiveOffersForPost(ctx, post.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active offers")
		}
		for _, offer := range offers {
			if err := repo.UpdateOffer(ctx, offer.ID, map[string]any{
				"status":       enums.OfferStatusExpired,
				"responded_at": now,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire open offer")
			}
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.OutboxEventOfferExpired,
				AggregateType: enums.OutboxAggregateOffer,
				AggregateID:   offer.ID,
				Version:       1,
				Data: payloads.OfferDecisionEvent{
					OfferID:    offer.ID,
					SellPostID: post.ID,
					SellerID:   post.SellerID,
					BuyerID:    offer.BuyerID,
					Status:     enums.OfferStatusExpired,
					DecidedBy:  enums.OfferPartySeller,
					PostTitle:  post.Title,
				},
			}); err != nil {
				return err
			}
		}

		post.Status = enums.SellPostStatusExpired
		result = post

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventListingExpired,
			AggregateType: enums.OutboxAggregateSellPost,
			AggregateID:   post.ID,
			Version:       1,
			Data: payloads.ListingExpiredEvent{
				SellPostID: post.ID,
				SellerID:   post.SellerID,
				ExpiredAt:  now,
				PostTitle:  post.Title,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) transition(ctx context.Context, input TransitionInput, target enums.SellPostStatus) (*models.SellPost, error) {
	if input.SellPostID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sell post id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var result *models.SellPost
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		post, err := s.lockOwnedPost(ctx, repo, input.SellPostID, input.ActorID)
		if err != nil {
			return err
		}
		if post.Status == target {
			result = post
			return nil
		}
		if !post.Status.CanTransition(target) {
			return invalidTransition(post.Status, target)
		}

		now := time.Now()
		updates := map[string]any{"status": target}
		if target == enums.SellPostStatusHidden {
			updates["hidden_at"] = now
		} else if post.Status == enums.SellPostStatusHidden {
			updates["hidden_at"] = nil
		}
		if err := repo.UpdateSellPost(ctx, post.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update post status")
		}

		from := post.Status
		post.Status = target
		if target == enums.SellPostStatusHidden {
			post.HiddenAt = &now
		} else {
			post.HiddenAt = nil
		}
		result = post

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventListingUpdated,
			AggregateType: enums.OutboxAggregateSellPost,
			AggregateID:   post.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Role: string(enums.OfferPartySeller)},
			Data: payloads.ListingUpdatedEvent{
				SellPostID: post.ID,
				SellerID:   post.SellerID,
				From:       from,
				To:         target,
				PostTitle:  post.Title,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) lockOwnedPost(ctx context.Context, repo Repository, postID, actorID uuid.UUID) (*models.SellPost, error) {
	post, err := repo.FindSellPostForUpdate(ctx, postID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sell post not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock sell post")
	}
	if post.SellerID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "post does not belong to user")
	}
	return post, nil
}

// normalizeTags lowercases and dedupes the submitted tags.
func normalizeTags(tags []string) pq.StringArray {
	if len(tags) == 0 {
		return nil
	}
	seen := map[string]bool{}
	result := make(pq.StringArray, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		result = append(result, tag)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func invalidTransition(current, requested enums.SellPostStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "listing status transition not allowed").WithDetails(map[string]any{
		"current_status":   string(current),
		"requested_status": string(requested),
	})
}

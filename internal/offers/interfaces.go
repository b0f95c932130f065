package offers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/booktrade/backend/pkg/db/models"
	"github.com/booktrade/backend/pkg/pagination"
)

// Repository defines the persistence surface the offer engine depends on.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOffer(ctx context.Context, offer *models.Offer) (*models.Offer, error)
	FindOffer(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	FindSellPost(ctx context.Context, id uuid.UUID) (*models.SellPost, error)
	FindSellPostForUpdate(ctx context.Context, id uuid.UUID) (*models.SellPost, error)
	FindActiveOfferForBuyer(ctx context.Context, sellPostID, buyerID uuid.UUID) (*models.Offer, error)
	FindActiveOffersForPost(ctx context.Context, sellPostID uuid.UUID) ([]models.Offer, error)
	UpdateOffer(ctx context.Context, id uuid.UUID, updates map[string]any) error
	UpdateSellPost(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListOffersForPost(ctx context.Context, sellPostID uuid.UUID, params pagination.Params) (*OfferList, error)
	ListOffersForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*OfferList, error)
	ListOffersForSeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*OfferList, error)
}

package listings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/booktrade/backend/pkg/db/models"
	"github.com/booktrade/backend/pkg/pagination"
)

// Repository defines the persistence surface for listing lifecycle work.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateSellPost(ctx context.Context, post *models.SellPost) (*models.SellPost, error)
	FindSellPost(ctx context.Context, id uuid.UUID) (*models.SellPost, error)
	FindSellPostForUpdate(ctx context.Context, id uuid.UUID) (*models.SellPost, error)
	FindActiveOffersForPost(ctx context.Context, sellPostID uuid.UUID) ([]models.Offer, error)
	UpdateSellPost(ctx context.Context, id uuid.UUID, updates map[string]any) error
	UpdateOffer(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListSellPosts(ctx context.Context, filters ListFilters, params pagination.Params) (*SellPostList, error)
	FindExpiredPosts(ctx context.Context, cutoff time.Time, limit int) ([]models.SellPost, error)
}

package offers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/booktrade/backend/pkg/db/models"
	"github.com/booktrade/backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an offers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOffer(ctx context.Context, offer *models.Offer) (*models.Offer, error) {
	if err := r.db.WithContext(ctx).Create(offer).Error; err != nil {
		return nil, err
	}
	return offer, nil
}

func (r *repository) FindOffer(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&offer).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *repository) FindSellPost(ctx context.Context, id uuid.UUID) (*models.SellPost, error) {
	var post models.SellPost
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// FindSellPostForUpdate locks the post row for the duration of the
// surrounding transaction. Callers must be inside WithTx.
func (r *repository) FindSellPostForUpdate(ctx context.Context, id uuid.UUID) (*models.SellPost, error) {
	var post models.SellPost
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *repository) FindActiveOfferForBuyer(ctx context.Context, sellPostID, buyerID uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	err := r.db.WithContext(ctx).
		Where("sell_post_id = ? AND buyer_id = ? AND status IN ?", sellPostID, buyerID, activeStatuses()).
		First(&offer).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *repository) FindActiveOffersForPost(ctx context.Context, sellPostID uuid.UUID) ([]models.Offer, error) {
	var rows []models.Offer
	err := r.db.WithContext(ctx).
		Where("sell_post_id = ? AND status IN ?", sellPostID, activeStatuses()).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) UpdateOffer(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) UpdateSellPost(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.SellPost{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) ListOffersForPost(ctx context.Context, sellPostID uuid.UUID, params pagination.Params) (*OfferList, error) {
	query := r.db.WithContext(ctx).Where("sell_post_id = ?", sellPostID)
	return r.listPage(query, params)
}

func (r *repository) ListOffersForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*OfferList, error) {
	query := r.db.WithContext(ctx).Where("buyer_id = ?", buyerID)
	return r.listPage(query, params)
}

func (r *repository) ListOffersForSeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*OfferList, error) {
	query := r.db.WithContext(ctx).
		Joins("JOIN sell_posts ON sell_posts.id = offers.sell_post_id").
		Where("sell_posts.seller_id = ?", sellerID)
	return r.listPage(query, params)
}

func (r *repository) listPage(query *gorm.DB, params pagination.Params) (*OfferList, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(offers.created_at < ?) OR (offers.created_at = ? AND offers.id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Offer
	err = query.
		Order("offers.created_at DESC").
		Order("offers.id DESC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &OfferList{Items: rows}
	if len(rows) > limit {
		list.Items = rows[:limit]
		last := list.Items[len(list.Items)-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		list.NextCursor = &next
	}
	return list, nil
}

func activeStatuses() []string {
	return []string{"PENDING", "COUNTERED"}
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/booktrade/backend/pkg/enums"
)

// SellPost represents a listed item and its lifecycle state.
type SellPost struct {
	ID          uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID    uuid.UUID            `gorm:"column:seller_id;type:uuid;not null;index"`
	Title       string               `gorm:"type:text;not null"`
	Description *string              `gorm:"column:description"`
	Price       decimal.Decimal      `gorm:"column:price;type:numeric(12,2);not null"`
	Condition   enums.ItemCondition  `gorm:"column:condition;type:text;not null"`
	Negotiable  bool                 `gorm:"column:negotiable;not null;default:true"`
	Tags        pq.StringArray       `gorm:"column:tags;type:text[]"`
	Status      enums.SellPostStatus `gorm:"column:status;type:text;not null;default:'AVAILABLE';index"`
	SoldToID    *uuid.UUID           `gorm:"column:sold_to_id;type:uuid"`
	SoldPrice   *decimal.Decimal     `gorm:"column:sold_price;type:numeric(12,2)"`
	SoldAt      *time.Time           `gorm:"column:sold_at"`
	HiddenAt    *time.Time           `gorm:"column:hidden_at"`
	ExpiresAt   *time.Time           `gorm:"column:expires_at;index"`
	Offers      []Offer              `gorm:"foreignKey:SellPostID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/booktrade/backend/pkg/enums"
)

// Notification stores in-app notification payloads scoped to users.
// DedupeKey carries the source event id so redelivered events upsert
// instead of duplicating rows.
type Notification struct {
	ID        uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID              `gorm:"type:uuid;not null;index"`
	Kind      enums.NotificationKind `gorm:"column:kind;type:text;not null"`
	Title     string                 `gorm:"type:text;not null"`
	Message   string                 `gorm:"type:text;not null"`
	Link      *string                `gorm:"type:text"`
	DedupeKey string                 `gorm:"column:dedupe_key;type:text;not null;uniqueIndex"`
	ReadAt    *time.Time             `gorm:"type:timestamptz"`
	CreatedAt time.Time              `gorm:"type:timestamptz;default:now()"`
}

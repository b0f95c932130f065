package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/booktrade/backend/pkg/db/models"
	"github.com/booktrade/backend/pkg/logger"
)

type livePublisher interface {
	Publish(ctx context.Context, channel string, payload any) error
	UserNotifyChannel(userID string) string
}

// Dispatcher pushes freshly created notifications onto the per-user live
// channel. Delivery is at-most-once: only connected subscribers receive
// the message, everyone else catches up from the durable rows.
type Dispatcher struct {
	publisher livePublisher
	logg      *logger.Logger
}

// NewDispatcher wires the live notification publisher.
func NewDispatcher(publisher livePublisher, logg *logger.Logger) (*Dispatcher, error) {
	if publisher == nil {
		return nil, fmt.Errorf("live publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Dispatcher{publisher: publisher, logg: logg}, nil
}

type livePayload struct {
	ID        uuid.UUID `json:"id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      *string   `json:"link,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Dispatch publishes the notification to its user's live channel. Failures
// are logged and swallowed so durable delivery is never blocked by Redis.
func (d *Dispatcher) Dispatch(ctx context.Context, notification *models.Notification) {
	if notification == nil || notification.UserID == uuid.Nil {
		return
	}
	payload, err := json.Marshal(livePayload{
		ID:        notification.ID,
		Kind:      notification.Kind.String(),
		Title:     notification.Title,
		Message:   notification.Message,
		Link:      notification.Link,
		CreatedAt: notification.CreatedAt,
	})
	if err != nil {
		d.logg.Error(ctx, "failed to encode live notification", err)
		return
	}
	channel := d.publisher.UserNotifyChannel(notification.UserID.String())
	if err := d.publisher.Publish(ctx, channel, payload); err != nil {
		logCtx := d.logg.WithField(ctx, "channel", channel)
		d.logg.Error(logCtx, "live notification publish failed", err)
	}
}

package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"

	"github.com/booktrade/backend/pkg/db/models"
	"github.com/booktrade/backend/pkg/logger"
)

type fakePublisher struct {
	channel    string
	payload    any
	publishErr error
	calls      int
}

func (f *fakePublisher) Publish(_ context.Context, channel string, payload any) error {
	f.calls++
	f.channel = channel
	f.payload = payload
	return f.publishErr
}

func (f *fakePublisher) UserNotifyChannel(userID string) string {
	return "bt:notify:user:" + userID
}

func discardLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestDispatchPublishesToUserChannel(t *testing.T) {
	publisher := &fakePublisher{}
	dispatcher, err := NewDispatcher(publisher, discardLogger())
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}

	userID := uuid.New()
	notification := &models.Notification{
		ID:      uuid.New(),
		UserID:  userID,
		Kind:    "NEW_OFFER",
		Title:   "New offer received",
		Message: "You received an offer.",
	}
	dispatcher.Dispatch(context.Background(), notification)

	if publisher.calls != 1 {
		t.Fatalf("expected 1 publish, got %d", publisher.calls)
	}
	if publisher.channel != "bt:notify:user:"+userID.String() {
		t.Fatalf("unexpected channel %q", publisher.channel)
	}

	raw, ok := publisher.payload.([]byte)
	if !ok {
		t.Fatalf("expected byte payload, got %T", publisher.payload)
	}
	var decoded livePayload
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if decoded.ID != notification.ID || decoded.Kind != "NEW_OFFER" {
		t.Fatalf("unexpected payload %+v", decoded)
	}
}

func TestDispatchSwallowsPublishErrors(t *testing.T) {
	publisher := &fakePublisher{publishErr: errors.New("redis down")}
	dispatcher, err := NewDispatcher(publisher, discardLogger())
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}

	dispatcher.Dispatch(context.Background(), &models.Notification{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Kind:   "NEW_OFFER",
	})
	if publisher.calls != 1 {
		t.Fatalf("expected publish attempt, got %d", publisher.calls)
	}
}

func TestDispatchIgnoresNilNotification(t *testing.T) {
	publisher := &fakePublisher{}
	dispatcher, err := NewDispatcher(publisher, discardLogger())
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}

	dispatcher.Dispatch(context.Background(), nil)
	if publisher.calls != 0 {
		t.Fatal("nil notification must not publish")
	}
}

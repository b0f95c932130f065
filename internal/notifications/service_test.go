package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/booktrade/backend/pkg/db/models"
	pkgerrors "github.com/booktrade/backend/pkg/errors"
	"github.com/booktrade/backend/pkg/pagination"
)

type fakeRepository struct {
	notifications []models.Notification
	listCalls     []listNotificationsParams
	markAllCount  int64
}

func (f *fakeRepository) WithTx(*gorm.DB) Repository { return f }

func (f *fakeRepository) Create(_ context.Context, n *models.Notification) error {
	f.notifications = append(f.notifications, *n)
	return nil
}

func (f *fakeRepository) CreateIfAbsent(_ context.Context, n *models.Notification) (bool, error) {
	for _, existing := range f.notifications {
		if existing.DedupeKey == n.DedupeKey {
			return false, nil
		}
	}
	f.notifications = append(f.notifications, *n)
	return true, nil
}

func (f *fakeRepository) List(_ context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error) {
	f.listCalls = append(f.listCalls, params)
	var rows []models.Notification
	for _, n := range f.notifications {
		if n.UserID != params.UserID {
			continue
		}
		if params.UnreadOnly && n.ReadAt != nil {
			continue
		}
		rows = append(rows, n)
	}
	return rows, nil, nil
}

func (f *fakeRepository) UnreadCount(_ context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	for _, n := range f.notifications {
		if n.UserID == userID && n.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepository) MarkRead(_ context.Context, userID, notificationID uuid.UUID, now time.Time) (notificationMarkResult, error) {
	for i, n := range f.notifications {
		if n.ID != notificationID || n.UserID != userID {
			continue
		}
		if n.ReadAt != nil {
			return notificationMarkResult{Found: true}, nil
		}
		f.notifications[i].ReadAt = &now
		return notificationMarkResult{Found: true, Updated: true}, nil
	}
	return notificationMarkResult{}, nil
}

func (f *fakeRepository) MarkAllRead(_ context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	var count int64
	for i, n := range f.notifications {
		if n.UserID == userID && n.ReadAt == nil {
			f.notifications[i].ReadAt = &now
			count++
		}
	}
	f.markAllCount = count
	return count, nil
}

func (f *fakeRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	var kept []models.Notification
	var removed int64
	for _, n := range f.notifications {
		if n.ReadAt != nil && n.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, n)
	}
	f.notifications = kept
	return removed, nil
}

func seedNotification(userID uuid.UUID, read bool) models.Notification {
	n := models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Kind:      "OFFER_UPDATED",
		Title:     "Offer accepted",
		Message:   "Your offer was accepted.",
		DedupeKey: uuid.NewString(),
		CreatedAt: time.Now().Add(-time.Hour),
	}
	if read {
		at := time.Now().Add(-30 * time.Minute)
		n.ReadAt = &at
	}
	return n
}

func TestListFiltersUnreadOnly(t *testing.T) {
	userID := uuid.New()
	repo := &fakeRepository{notifications: []models.Notification{
		seedNotification(userID, false),
		seedNotification(userID, true),
		seedNotification(uuid.New(), false),
	}}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	result, err := svc.List(context.Background(), ListParams{UserID: userID, UnreadOnly: true})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("expected 1 unread notification, got %d", len(result.Items))
	}
	if !repo.listCalls[0].UnreadOnly {
		t.Fatal("expected unread filter to reach the repository")
	}
}

func TestListRejectsMissingUser(t *testing.T) {
	svc, err := NewService(&fakeRepository{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	_, err = svc.List(context.Background(), ListParams{})
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListRejectsBadCursor(t *testing.T) {
	svc, err := NewService(&fakeRepository{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	_, err = svc.List(context.Background(), ListParams{UserID: uuid.New(), Cursor: "not-base64!"})
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMarkReadSetsTimestamp(t *testing.T) {
	userID := uuid.New()
	notification := seedNotification(userID, false)
	repo := &fakeRepository{notifications: []models.Notification{notification}}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if err := svc.MarkRead(context.Background(), userID, notification.ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if repo.notifications[0].ReadAt == nil {
		t.Fatal("expected read_at to be set")
	}
}

func TestMarkReadUnknownNotification(t *testing.T) {
	svc, err := NewService(&fakeRepository{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	err = svc.MarkRead(context.Background(), uuid.New(), uuid.New())
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMarkReadEnforcesOwnership(t *testing.T) {
	owner := uuid.New()
	notification := seedNotification(owner, false)
	repo := &fakeRepository{notifications: []models.Notification{notification}}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	err = svc.MarkRead(context.Background(), uuid.New(), notification.ID)
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign user, got %v", err)
	}
	if repo.notifications[0].ReadAt != nil {
		t.Fatal("foreign user must not mark the notification read")
	}
}

func TestMarkAllRead(t *testing.T) {
	userID := uuid.New()
	repo := &fakeRepository{notifications: []models.Notification{
		seedNotification(userID, false),
		seedNotification(userID, false),
		seedNotification(userID, true),
	}}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	count, err := svc.MarkAllRead(context.Background(), userID)
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 notifications marked, got %d", count)
	}
}

func TestUnreadCount(t *testing.T) {
	userID := uuid.New()
	repo := &fakeRepository{notifications: []models.Notification{
		seedNotification(userID, false),
		seedNotification(userID, true),
	}}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	count, err := svc.UnreadCount(context.Background(), userID)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 unread, got %d", count)
	}
}

package cron

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeCleanupRepo struct {
	cutoff  time.Time
	deleted int64
	err     error
}

func (f *fakeCleanupRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.deleted, f.err
}

func TestNotificationCleanupJobUsesRetentionCutoff(t *testing.T) {
	repo := &fakeCleanupRepo{deleted: 7}
	job, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:     testLogger(),
		Repository: repo,
		Retention:  14 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewNotificationCleanupJob: %v", err)
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	job.(*notificationCleanupJob).now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	expected := now.Add(-14 * 24 * time.Hour)
	if !repo.cutoff.Equal(expected) {
		t.Fatalf("expected cutoff %s, got %s", expected, repo.cutoff)
	}
}

func TestNotificationCleanupJobDefaultsRetention(t *testing.T) {
	job, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:     testLogger(),
		Repository: &fakeCleanupRepo{},
	})
	if err != nil {
		t.Fatalf("NewNotificationCleanupJob: %v", err)
	}
	if job.(*notificationCleanupJob).retention != defaultNotificationRetention {
		t.Fatal("expected default retention")
	}
}

func TestNotificationCleanupJobPropagatesError(t *testing.T) {
	repo := &fakeCleanupRepo{err: errors.New("db gone")}
	job, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:     testLogger(),
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("NewNotificationCleanupJob: %v", err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error to propagate")
	}
}

package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/booktrade/backend/pkg/db/models"
	pkgerrors "github.com/booktrade/backend/pkg/errors"
	"github.com/booktrade/backend/pkg/logger"
)

type fakeExpiredFinder struct {
	batches [][]models.SellPost
	calls   int
}

func (f *fakeExpiredFinder) FindExpiredPosts(_ context.Context, _ time.Time, _ int) ([]models.SellPost, error) {
	if f.calls >= len(f.batches) {
		return nil, nil
	}
	batch := f.batches[f.calls]
	f.calls++
	return batch, nil
}

type fakeExpirer struct {
	expired []uuid.UUID
	errFor  map[uuid.UUID]error
}

func (f *fakeExpirer) Expire(_ context.Context, sellPostID uuid.UUID) (*models.SellPost, error) {
	if err, ok := f.errFor[sellPostID]; ok {
		return nil, err
	}
	f.expired = append(f.expired, sellPostID)
	return &models.SellPost{ID: sellPostID}, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func TestListingExpiryJobSweepsBatch(t *testing.T) {
	posts := []models.SellPost{{ID: uuid.New()}, {ID: uuid.New()}}
	finder := &fakeExpiredFinder{batches: [][]models.SellPost{posts}}
	expirer := &fakeExpirer{}

	job, err := NewListingExpiryJob(ListingExpiryJobParams{
		Logger:   testLogger(),
		Repo:     finder,
		Listings: expirer,
	})
	if err != nil {
		t.Fatalf("NewListingExpiryJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(expirer.expired) != 2 {
		t.Fatalf("expected 2 posts expired, got %d", len(expirer.expired))
	}
}

func TestListingExpiryJobSkipsLostRaces(t *testing.T) {
	racy := uuid.New()
	clean := uuid.New()
	finder := &fakeExpiredFinder{batches: [][]models.SellPost{{{ID: racy}, {ID: clean}}}}
	expirer := &fakeExpirer{errFor: map[uuid.UUID]error{
		racy: pkgerrors.New(pkgerrors.CodeStateConflict, "listing is SOLD"),
	}}

	job, err := NewListingExpiryJob(ListingExpiryJobParams{
		Logger:   testLogger(),
		Repo:     finder,
		Listings: expirer,
	})
	if err != nil {
		t.Fatalf("NewListingExpiryJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(expirer.expired) != 1 || expirer.expired[0] != clean {
		t.Fatalf("expected only the clean post expired, got %v", expirer.expired)
	}
}

func TestListingExpiryJobContinuesPastHardError(t *testing.T) {
	broken := uuid.New()
	healthy := uuid.New()
	finder := &fakeExpiredFinder{batches: [][]models.SellPost{{{ID: broken}, {ID: healthy}}}}
	expirer := &fakeExpirer{errFor: map[uuid.UUID]error{
		broken: errors.New("db gone"),
	}}

	job, err := NewListingExpiryJob(ListingExpiryJobParams{
		Logger:   testLogger(),
		Repo:     finder,
		Listings: expirer,
	})
	if err != nil {
		t.Fatalf("NewListingExpiryJob: %v", err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error to propagate")
	}
	if len(expirer.expired) != 1 || expirer.expired[0] != healthy {
		t.Fatalf("expected the healthy post to still be swept, got %v", expirer.expired)
	}
}

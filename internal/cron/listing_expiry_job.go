package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/booktrade/backend/pkg/db/models"
	pkgerrors "github.com/booktrade/backend/pkg/errors"
	"github.com/booktrade/backend/pkg/logger"
)

const listingExpiryBatchSize = 100

type expiredPostFinder interface {
	FindExpiredPosts(ctx context.Context, cutoff time.Time, limit int) ([]models.SellPost, error)
}

type listingExpirer interface {
	Expire(ctx context.Context, sellPostID uuid.UUID) (*models.SellPost, error)
}

// ListingExpiryJobParams configure the listing expiry sweep.
type ListingExpiryJobParams struct {
	Logger    *logger.Logger
	Repo      expiredPostFinder
	Listings  listingExpirer
	BatchSize int
}

// NewListingExpiryJob sweeps posts whose deadline passed into EXPIRED.
func NewListingExpiryJob(params ListingExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("listings repository required")
	}
	if params.Listings == nil {
		return nil, fmt.Errorf("listings service required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = listingExpiryBatchSize
	}
	return &listingExpiryJob{
		logg:     params.Logger,
		repo:     params.Repo,
		listings: params.Listings,
		batch:    batch,
		now:      time.Now,
	}, nil
}

type listingExpiryJob struct {
	logg     *logger.Logger
	repo     expiredPostFinder
	listings listingExpirer
	batch    int
	now      func() time.Time
}

func (j *listingExpiryJob) Name() string { return "listing-expiry" }

func (j *listingExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC()
	var expired, skipped int
	var errs []error

	for {
		posts, err := j.repo.FindExpiredPosts(ctx, cutoff, j.batch)
		if err != nil {
			return fmt.Errorf("find expired posts: %w", err)
		}
		if len(posts) == 0 {
			break
		}

		for _, post := range posts {
			if _, err := j.listings.Expire(ctx, post.ID); err != nil {
				// A post sold or hidden between the scan and the sweep
				// is not a failure, just a lost race.
				if pkgerrors.As(err).Code() == pkgerrors.CodeStateConflict {
					skipped++
					continue
				}
				logCtx := j.logg.WithField(ctx, "sell_post_id", post.ID.String())
				j.logg.Error(logCtx, "listing expiry failed", err)
				errs = append(errs, fmt.Errorf("expire %s: %w", post.ID, err))
				continue
			}
			expired++
		}

		// Posts that failed hard stay AVAILABLE, so another fetch would
		// return them again. Stop and let the next cycle retry.
		if len(errs) > 0 || len(posts) < j.batch {
			break
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"expired": expired,
		"skipped": skipped,
		"failed":  len(errs),
	})
	j.logg.Info(logCtx, "listing expiry sweep complete")
	return multierr.Combine(errs...)
}

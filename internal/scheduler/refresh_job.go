package scheduler

import (
	"context"
	"time"
)

// Refresher is the part of the catalog service the refresh job needs.
type Refresher interface {
	Refresh(ctx context.Context) (int, error)
}

// RefreshJob re-fetches the instrument catalog.
type RefreshJob struct {
	catalog Refresher
	timeout time.Duration
}

// NewRefreshJob creates a RefreshJob whose runs are bounded by timeout.
func NewRefreshJob(catalog Refresher, timeout time.Duration) *RefreshJob {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RefreshJob{catalog: catalog, timeout: timeout}
}

// Name returns the job name.
func (j *RefreshJob) Name() string {
	return "catalog_refresh"
}

// Run fetches the catalog once.
func (j *RefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	_, err := j.catalog.Refresh(ctx)
	return err
}

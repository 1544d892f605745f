// Package poll periodically fetches the project listing and reconciles the
// output directory with it.
package poll

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/romain325/doc-thor-confgen/pkg/errors"
	"github.com/romain325/doc-thor-confgen/pkg/reconcile"
	"github.com/romain325/doc-thor-confgen/pkg/upstream"
)

// Fetcher retrieves the current project listing.
type Fetcher interface {
	ListProjects(context.Context) ([]upstream.Project, error)
}

// Reconciler applies a project listing to the output directory.
type Reconciler interface {
	Reconcile([]upstream.Project) (reconcile.Result, error)
}

// Stage identifies the step of a cycle.
type Stage string

const (
	// StageFetch is the retrieval of the project listing.
	StageFetch Stage = "fetch"

	// StageReconcile is the update of the output directory.
	StageReconcile Stage = "reconcile"
)

// Cycle is the outcome of a single fetch and reconcile.
type Cycle struct {
	// ID identifies the cycle in logs.
	ID string

	// Err is set if the cycle was abandoned. Stage is the step that failed.
	Err   error
	Stage Stage

	// Result is what the reconciliation did. It's only meaningful if the
	// cycle reached the reconcile stage.
	Result reconcile.Result
}

// OK returns whether the whole cycle succeeded, including every project.
func (c Cycle) OK() bool {
	return c.Err == nil && !c.Result.Failed()
}

// Driver runs cycles one after the other, with a fixed pause between them.
type Driver struct {
	fetcher    Fetcher
	reconciler Reconciler
	clock      clockwork.Clock
	interval   time.Duration
}

// New creates a Driver that waits `interval` between cycles.
func New(fetcher Fetcher, reconciler Reconciler, clock clockwork.Clock, interval time.Duration) *Driver {
	return &Driver{
		fetcher:    fetcher,
		reconciler: reconciler,
		clock:      clock,
		interval:   interval,
	}
}

// Run runs cycles until `ctx` is cancelled. A failed cycle doesn't change
// the schedule: the next one starts after the usual interval.
func (d *Driver) Run(ctx context.Context) error {
	log.WithField("interval", d.interval).Info("Starting to poll for projects")
	for {
		d.RunOnce(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.clock.After(d.interval):
		}
	}
}

// RunOnce fetches the projects and reconciles the output directory. If the
// fetch fails, the reconciler isn't invoked at all, so the directory is left
// as it was.
func (d *Driver) RunOnce(ctx context.Context) Cycle {
	cycle := Cycle{ID: uuid.New().String()}
	logger := log.WithField("cycle", cycle.ID)
	start := d.clock.Now()

	projects, err := d.fetcher.ListProjects(ctx)
	if err != nil {
		cycle.Stage = StageFetch
		cycle.Err = errors.WithContext(err, "fetch projects")
		// Shutting down aborts the fetch, but a reconciliation that has
		// started always runs to completion.
		if ctx.Err() != nil {
			logger.Info("Sync cycle interrupted")
			return cycle
		}
		logger.WithError(cycle.Err).Warn("Sync cycle failed. Will retry at the next interval.")
		return cycle
	}
	logger.WithField("projects", len(projects)).Debug("Fetched projects")

	res, err := d.reconciler.Reconcile(projects)
	if err != nil {
		cycle.Stage = StageReconcile
		cycle.Err = errors.WithContext(err, "reconcile")
		logger.WithError(cycle.Err).Warn("Sync cycle failed. Will retry at the next interval.")
		return cycle
	}
	cycle.Result = res

	for _, err := range res.Errors {
		logger.WithError(err).Error("Failed to sync config")
	}

	fields := log.Fields{
		"written":   len(res.Written),
		"removed":   len(res.Removed),
		"unchanged": len(res.Unchanged),
		"failed":    len(res.Errors),
		"duration":  d.clock.Now().Sub(start),
	}
	if res.Changed() || res.Failed() {
		logger.WithFields(fields).Info("Sync cycle complete")
	} else {
		logger.WithFields(fields).Debug("Sync cycle complete")
	}
	return cycle
}

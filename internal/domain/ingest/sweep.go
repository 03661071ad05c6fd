package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Sweep reclassifies every PENDING and MATCHED ingest. Projects are swept in
// parallel up to the configured worker count. A failing project does not
// stop the others; all failures are returned joined.
func (s *Service) Sweep(ctx context.Context) (SweepResult, error) {
	start := time.Now()
	res, err := s.sweep(ctx)
	if s.metrics != nil {
		s.metrics.ObserveSweep(time.Since(start), res.Examined, err)
	}
	return res, err
}

func (s *Service) sweep(ctx context.Context) (SweepResult, error) {
	projectIDs, err := s.ingests.ProjectsWithUnresolved(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("listing projects to sweep: %w", err)
	}

	var (
		mu   sync.Mutex
		res  = SweepResult{Projects: len(projectIDs)}
		errs []error
	)
	g := new(errgroup.Group)
	g.SetLimit(s.workers)
	for _, projectID := range projectIDs {
		g.Go(func() error {
			examined, changed, err := s.sweepProject(ctx, projectID)
			mu.Lock()
			defer mu.Unlock()
			res.Examined += examined
			res.Changed += changed
			if err != nil {
				errs = append(errs, fmt.Errorf("sweeping project %s: %w", projectID, err))
			}
			return nil
		})
	}
	_ = g.Wait()
	return res, errors.Join(errs...)
}

func (s *Service) sweepProject(ctx context.Context, projectID string) (int, int, error) {
	proj, err := s.loadProject(ctx, projectID)
	if err != nil {
		return 0, 0, err
	}
	state, err := s.projectState(ctx, proj)
	if err != nil {
		return 0, 0, err
	}
	ingests, err := s.ingests.List(ctx, ListOptions{ProjectID: projectID, Statuses: Unresolved})
	if err != nil {
		return 0, 0, fmt.Errorf("listing unresolved ingests: %w", err)
	}

	examined, changed := 0, 0
	for i := range ingests {
		if err := ctx.Err(); err != nil {
			return examined, changed, err
		}
		examined++
		ok, err := s.classify(ctx, &ingests[i], state)
		if err != nil {
			return examined, changed, err
		}
		if ok {
			changed++
		}
	}
	return examined, changed, nil
}

// Sweeper runs Sweep periodically until its context is cancelled.
type Sweeper struct {
	svc      *Service
	interval time.Duration
	logger   *slog.Logger
}

// NewSweeper creates a Sweeper. A non-positive interval disables it.
func NewSweeper(svc *Service, interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sweeper{svc: svc, interval: interval, logger: logger}
}

// Run sweeps once immediately and then on every tick. It returns nil when
// ctx is cancelled.
func (w *Sweeper) Run(ctx context.Context) error {
	if w.interval <= 0 {
		w.logger.Info("ingest sweeper disabled")
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		w.runOnce(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *Sweeper) runOnce(ctx context.Context) {
	res, err := w.svc.Sweep(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.logger.Error("ingest sweep failed", "error", err, "examined", res.Examined)
		return
	}
	if res.Changed > 0 {
		w.logger.Info("ingest sweep reclassified files",
			"projects", res.Projects,
			"examined", res.Examined,
			"changed", res.Changed,
		)
	}
}

package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/penportal-api/internal/config"
	"github.com/penportal-api/internal/metrics"
	"github.com/penportal-api/internal/ranking"
	"github.com/penportal-api/internal/repository"
	"github.com/rs/zerolog"
)

// maintenanceService is the concrete implementation of MaintenanceService.
// It writes dirty ledger snapshots back to the store and, when configured,
// periodically rescores the whole index so idle articles keep decaying.
type maintenanceService struct {
	articles repository.ArticleRepository
	ledger   *ranking.Ledger
	cfg      config.RankingConfig
	log      zerolog.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
	mu      sync.Mutex

	// one flush at a time; the ticker and shutdown may race for it
	flushMu sync.Mutex
	// semaphore bounding concurrent batch writes
	sem chan struct{}
}

// newMaintenanceService creates a new MaintenanceService
func newMaintenanceService(articles repository.ArticleRepository, ledger *ranking.Ledger, cfg config.RankingConfig, log zerolog.Logger) *maintenanceService {
	workers := cfg.FlushWorkers
	if workers < 1 {
		workers = 1
	}

	log.Info().
		Int("flush_workers", workers).
		Dur("flush_interval", cfg.FlushInterval).
		Dur("rerank_interval", cfg.RerankInterval).
		Msg("Initializing ranking maintenance")

	return &maintenanceService{
		articles: articles,
		ledger:   ledger,
		cfg:      cfg,
		log:      log.With().Str("service", "maintenance").Logger(),
		sem:      make(chan struct{}, workers),
	}
}

// StartProcessor runs the flush and re-rank loops until StopProcessor is
// called or ctx is cancelled. It blocks.
func (s *maintenanceService) StartProcessor(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	runCtx, done := s.ctx, s.done
	s.mu.Unlock()
	defer close(done)

	s.log.Info().Msg("Maintenance processor started")

	flushTicker := time.NewTicker(s.cfg.FlushInterval)
	defer flushTicker.Stop()

	var rerank <-chan time.Time
	if s.cfg.RerankInterval > 0 {
		rerankTicker := time.NewTicker(s.cfg.RerankInterval)
		defer rerankTicker.Stop()
		rerank = rerankTicker.C
	}

	for {
		select {
		case <-runCtx.Done():
			s.log.Info().Msg("Maintenance processor stopping")
			return
		case <-flushTicker.C:
			if _, err := s.Flush(runCtx); err != nil {
				s.log.Error().Err(err).Msg("Write-behind flush failed")
			}
		case <-rerank:
			s.Rescore()
		}
	}
}

// StopProcessor stops the loops and waits for an in-flight cycle to finish.
// It does not flush; callers flush once more with their own deadline.
func (s *maintenanceService) StopProcessor() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.cancel()
	done := s.done
	s.running = false
	s.mu.Unlock()

	<-done
	s.log.Info().Msg("Maintenance processor stopped")
}

// retire removes an article from the ledger and writes its final counters.
// It holds the flush lock so an in-flight flush carrying an older snapshot of
// the same article cannot land after the final write.
func (s *maintenanceService) retire(ctx context.Context, id string) (ranking.Snapshot, error) {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	snap, err := s.ledger.Remove(id)
	if err != nil {
		return ranking.Snapshot{}, err
	}
	if _, err := s.articles.SaveEngagement(ctx, []ranking.Snapshot{snap}); err != nil {
		return snap, fmt.Errorf("persist final engagement: %w", err)
	}
	return snap, nil
}

// Flush drains the ledger's dirty set and writes it to the store in batches.
// Snapshots from failed batches are re-queued for the next cycle.
func (s *maintenanceService) Flush(ctx context.Context) (int, error) {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	start := time.Now()
	snapshots := s.ledger.DrainDirty()
	if len(snapshots) == 0 {
		metrics.UpdateLedgerGauges(s.ledger.Len(), s.ledger.DirtyCount())
		return 0, nil
	}

	batchSize := s.cfg.FlushBatchSize
	if batchSize < 1 {
		batchSize = len(snapshots)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		flushed  int
		failed   int
		firstErr error
	)

batches:
	for lo := 0; lo < len(snapshots); lo += batchSize {
		hi := lo + batchSize
		if hi > len(snapshots) {
			hi = len(snapshots)
		}
		batch := snapshots[lo:hi]

		// Acquire a worker slot; on cancellation re-queue what is left
		select {
		case s.sem <- struct{}{}:
		case <-ctx.Done():
			s.requeue(snapshots[lo:])
			mu.Lock()
			failed++
			if firstErr == nil {
				firstErr = ctx.Err()
			}
			mu.Unlock()
			break batches
		}

		wg.Add(1)
		go func(batch []ranking.Snapshot) {
			defer wg.Done()
			defer func() { <-s.sem }()

			defer func() {
				if r := recover(); r != nil {
					s.log.Error().Interface("panic", r).Int("batch", len(batch)).Msg("Flush batch panicked - recovered")
					s.requeue(batch)
					mu.Lock()
					failed++
					if firstErr == nil {
						firstErr = fmt.Errorf("flush batch panicked: %v", r)
					}
					mu.Unlock()
				}
			}()

			n, err := s.articles.SaveEngagement(ctx, batch)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.requeue(batch)
				failed++
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			flushed += n
		}(batch)
	}
	wg.Wait()

	duration := time.Since(start)
	metrics.RecordFlush(duration, flushed, failed)
	metrics.UpdateLedgerGauges(s.ledger.Len(), s.ledger.DirtyCount())

	event := s.log.Debug()
	if failed > 0 {
		event = s.log.Warn().Int("failed_batches", failed)
	}
	event.
		Int("snapshots", len(snapshots)).
		Int("flushed", flushed).
		Dur("duration", duration).
		Msg("Write-behind flush completed")

	if firstErr != nil {
		return flushed, fmt.Errorf("flush engagement: %w", firstErr)
	}
	return flushed, nil
}

// Rescore recomputes every score against the current time
func (s *maintenanceService) Rescore() int {
	start := time.Now()
	n := s.ledger.Rescore()
	duration := time.Since(start)

	metrics.RecordRescore(duration, n)
	s.log.Info().
		Int("rescored", n).
		Dur("duration", duration).
		Msg("Re-rank sweep completed")

	return n
}

func (s *maintenanceService) requeue(batch []ranking.Snapshot) {
	for _, snap := range batch {
		s.ledger.MarkDirty(snap.ContentID)
	}
}

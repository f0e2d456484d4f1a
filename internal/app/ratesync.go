package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hotel_booking/internal/domain"
)

// RateSyncService copies rates from an external source into the rate store.
type RateSyncService struct {
	src     domain.RateSource
	store   domain.RateStore
	workers int64
}

func NewRateSyncService(src domain.RateSource, store domain.RateStore, workers int) *RateSyncService {
	if workers <= 0 {
		workers = 1
	}
	return &RateSyncService{src: src, store: store, workers: int64(workers)}
}

func (s *RateSyncService) SyncRate(ctx context.Context, c domain.Currency) error {
	r, err := s.src.GetRate(ctx, c)
	if err != nil {
		return err
	}
	if err := s.store.UpsertRate(ctx, c, r); err != nil {
		return fmt.Errorf("store rate %s: %w", c, err)
	}
	log.Info().Str("currency", string(c)).Str("rate", r.String()).Msg("rate synced")
	return nil
}

// SyncAll refreshes every currency concurrently and returns how many failed.
func (s *RateSyncService) SyncAll(ctx context.Context, currencies []domain.Currency) (failed int, err error) {
	sem := semaphore.NewWeighted(s.workers)
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, c := range currencies {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return failed, err
		}
		wg.Add(1)
		go func(c domain.Currency) {
			defer wg.Done()
			defer sem.Release(1)

			if err := s.SyncRate(ctx, c); err != nil {
				log.Warn().Str("currency", string(c)).Err(err).Msg("rate sync failed")
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}(c)
	}
	wg.Wait()
	return failed, nil
}

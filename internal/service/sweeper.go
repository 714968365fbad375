package service

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultSweepInterval = 1 * time.Minute

// DedupSweeper periodically drops expired deduplicator entries so idle
// processes do not hold on to them until the next insert.
type DedupSweeper struct {
	dedup  *Deduplicator
	logger *zap.Logger

	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewDedupSweeper(dedup *Deduplicator, logger *zap.Logger) *DedupSweeper {
	return &DedupSweeper{
		dedup:    dedup,
		logger:   logger,
		interval: defaultSweepInterval,
		stopCh:   make(chan struct{}),
	}
}

func (s *DedupSweeper) SetInterval(d time.Duration) {
	if d > 0 {
		s.interval = d
	}
}

// Start runs the sweeper on a periodic schedule in a background goroutine.
func (s *DedupSweeper) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("dedup sweeper started", zap.Duration("interval", s.interval))

		for {
			select {
			case <-ticker.C:
				s.run()
			case <-s.stopCh:
				s.logger.Info("dedup sweeper stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the sweeper.
func (s *DedupSweeper) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *DedupSweeper) run() {
	if pruned := s.dedup.PurgeExpired(); pruned > 0 {
		s.logger.Debug("pruned expired dedup entries",
			zap.Int("count", pruned),
			zap.Int("remaining", s.dedup.Len()),
		)
	}
}

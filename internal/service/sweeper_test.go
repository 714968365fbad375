package service

import (
	"testing"
	"time"

	"github.com/casadoar/payrecon/internal/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestDedupSweeper_PurgesExpiredEntries(t *testing.T) {
	clock := newFakeClock()
	d := NewDeduplicator(10, time.Minute)
	d.Now = clock.Now
	d.ShouldProcess("r1", domain.StateConfirmed)
	clock.Advance(2 * time.Minute)

	s := NewDedupSweeper(d, zap.NewNop())
	s.SetInterval(5 * time.Millisecond)
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return d.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestDedupSweeper_IgnoresNonPositiveInterval(t *testing.T) {
	s := NewDedupSweeper(NewDeduplicator(1, time.Minute), zap.NewNop())
	s.SetInterval(0)
	assert.Equal(t, defaultSweepInterval, s.interval)
}

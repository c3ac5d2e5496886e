package simulator

import (
	"context"
	"time"
)

// RunTicker calls Tick every interval until ctx is cancelled. A non-positive
// interval returns immediately.
func (s *Simulator) RunTicker(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("auto tick started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("auto tick stopped")
			return
		case <-ticker.Chan():
			count := s.Tick(ctx)
			s.logger.Debug("auto tick", "points", count)
		}
	}
}

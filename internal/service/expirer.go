package service

import (
	"context"
	"sync"
	"time"

	"github.com/Harshitk-cp/teambrain/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultExpirerInterval = 1 * time.Hour
	defaultSuggestionTTL   = 30 * 24 * time.Hour
)

// SuggestionExpirer rejects sharing suggestions that stayed pending longer
// than the configured TTL.
type SuggestionExpirer struct {
	suggestions domain.SuggestionStore
	logger      *zap.Logger

	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewSuggestionExpirer(ss domain.SuggestionStore, logger *zap.Logger) *SuggestionExpirer {
	return &SuggestionExpirer{
		suggestions: ss,
		logger:      logger,
		ttl:         defaultSuggestionTTL,
		interval:    defaultExpirerInterval,
		now:         time.Now,
		stopCh:      make(chan struct{}),
	}
}

func (s *SuggestionExpirer) SetInterval(d time.Duration) {
	s.interval = d
}

// SetTTL changes how long a suggestion may stay pending. Zero disables expiry.
func (s *SuggestionExpirer) SetTTL(d time.Duration) {
	s.ttl = d
}

// Start runs the expirer on a periodic schedule in a background goroutine.
func (s *SuggestionExpirer) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("suggestion expirer started",
			zap.Duration("interval", s.interval),
			zap.Duration("ttl", s.ttl))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				_, _ = s.RunOnce(ctx)
				cancel()
			case <-s.stopCh:
				s.logger.Info("suggestion expirer stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the expirer.
func (s *SuggestionExpirer) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

// RunOnce rejects every suggestion created more than ttl ago that is still
// pending and returns how many it rejected.
func (s *SuggestionExpirer) RunOnce(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.ttl)
	n, err := s.suggestions.ExpirePending(ctx, cutoff)
	if err != nil {
		s.logger.Error("failed to expire pending suggestions", zap.Error(err))
		return 0, err
	}
	if n > 0 {
		suggestionsExpired.Add(float64(n))
		s.logger.Info("expired pending suggestions", zap.Int64("count", n), zap.Time("cutoff", cutoff))
	}
	return n, nil
}

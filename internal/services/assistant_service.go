package services

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/daily-todo/internal/models"
)

// maxCheckDuration bounds a single availability check.
const maxCheckDuration = 30 * time.Second

type assistantServiceImpl struct {
	logger   zerolog.Logger
	checker  AvailabilityChecker
	interval time.Duration
	now      func() time.Time

	mu       sync.Mutex
	snapshot models.AssistantSnapshot
	inflight chan struct{}
}

func NewAssistantService(
	logger zerolog.Logger,
	checker AvailabilityChecker,
	interval time.Duration,
	now func() time.Time,
) AssistantService {
	if now == nil {
		now = time.Now
	}
	return &assistantServiceImpl{
		logger:   logger,
		checker:  checker,
		interval: interval,
		now:      now,
		snapshot: models.AssistantSnapshot{Models: []string{}},
	}
}

func (s *assistantServiceImpl) Snapshot() models.AssistantSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return cloneSnapshot(s.snapshot)
}

func (s *assistantServiceImpl) Refresh(ctx context.Context) models.AssistantSnapshot {
	s.mu.Lock()
	done := s.inflight
	if done == nil {
		done = make(chan struct{})
		s.inflight = done
		s.snapshot.IsChecking = true

		// The check outlives the caller that started it; other callers share
		// its result.
		checkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), maxCheckDuration)
		go func() {
			defer cancel()
			s.check(checkCtx, done)
		}()
	}
	s.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
	}
	return s.Snapshot()
}

func (s *assistantServiceImpl) check(ctx context.Context, done chan struct{}) {
	snapshot, err := s.checker.CheckAvailability(ctx)
	checkedAt := s.now()
	snapshot.CheckedAt = &checkedAt
	snapshot.IsChecking = false
	if snapshot.Models == nil {
		snapshot.Models = []string{}
	}
	if err != nil {
		snapshot.IsAvailable = false
		snapshot.Error = err.Error()
		s.logger.Debug().
			Err(err).
			Msg("assistant is not available")
	}

	s.mu.Lock()
	if snapshot.IsAvailable != s.snapshot.IsAvailable {
		s.logger.Info().
			Bool("available", snapshot.IsAvailable).
			Str("preferred_model", snapshot.PreferredModel).
			Int("models", len(snapshot.Models)).
			Msg("assistant availability changed")
	}
	s.snapshot = snapshot
	s.inflight = nil
	close(done)
	s.mu.Unlock()
}

func (s *assistantServiceImpl) Run(ctx context.Context) {
	s.Refresh(ctx)
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug().Msg("stopped assistant poller")
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

func cloneSnapshot(snapshot models.AssistantSnapshot) models.AssistantSnapshot {
	snapshot.Models = slices.Clone(snapshot.Models)
	if snapshot.Models == nil {
		snapshot.Models = []string{}
	}
	if snapshot.CheckedAt != nil {
		t := *snapshot.CheckedAt
		snapshot.CheckedAt = &t
	}
	return snapshot
}

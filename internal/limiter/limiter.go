package limiter

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Limiter admits or denies a request for a client identity. Denial has no
// side effects: a denied request is not recorded against the window.
type Limiter interface {
	Allow(ctx context.Context, clientID string) (bool, error)
	Remaining(ctx context.Context, clientID string) (int, error)
	ResetAt(ctx context.Context, clientID string) (time.Time, error)
}

// Config is runtime-supplied; neither value is compiled in.
type Config struct {
	Limit  int
	Window time.Duration
	Logger *zap.Logger
}

// SlidingWindow keeps an ordered slice of request timestamps per client and
// admits a request only while the count inside the trailing window is below
// the limit. Check and record happen under one lock so concurrent checks
// cannot jointly over-admit.
type SlidingWindow struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	limit   int
	window  time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

func NewSlidingWindow(cfg Config) *SlidingWindow {
	if cfg.Limit <= 0 {
		cfg.Limit = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &SlidingWindow{
		windows: make(map[string][]time.Time),
		limit:   cfg.Limit,
		window:  cfg.Window,
		logger:  cfg.Logger,
		now:     time.Now,
	}
}

func (s *SlidingWindow) Allow(_ context.Context, clientID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	kept := s.pruneLocked(clientID, now)

	if len(kept) >= s.limit {
		s.logger.Warn("rate limit exceeded",
			zap.String("client_id", clientID),
			zap.Int("count", len(kept)),
			zap.Int("limit", s.limit),
		)
		return false, nil
	}

	s.windows[clientID] = append(kept, now)
	return true, nil
}

func (s *SlidingWindow) Remaining(_ context.Context, clientID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.pruneLocked(clientID, s.now())
	if remaining := s.limit - len(kept); remaining > 0 {
		return remaining, nil
	}
	return 0, nil
}

// ResetAt reports when the oldest in-window request falls out of the
// window; the zero time means the window is already empty.
func (s *SlidingWindow) ResetAt(_ context.Context, clientID string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.pruneLocked(clientID, s.now())
	if len(kept) == 0 {
		return time.Time{}, nil
	}
	return kept[0].Add(s.window), nil
}

func (s *SlidingWindow) pruneLocked(clientID string, now time.Time) []time.Time {
	cutoff := now.Add(-s.window)
	stamps := s.windows[clientID]

	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	kept := stamps[i:]

	if len(kept) == 0 {
		delete(s.windows, clientID)
	} else if i > 0 {
		s.windows[clientID] = kept
	}
	return kept
}

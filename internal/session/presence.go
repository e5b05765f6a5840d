package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrPollerAlreadyRunning = errors.New("session: presence poller already running")
	ErrPollerNotRunning     = errors.New("session: presence poller not running")
)

// DefaultPresenceInterval is how often presence is reported when the config
// does not say otherwise.
const DefaultPresenceInterval = 30 * time.Second

// PresencePoller periodically pings the backend to keep the session's online
// flag fresh. It is owned by the session lifecycle, not by any screen: it
// survives navigation and is torn down exactly once on logout.
type PresencePoller struct {
	manager  *Manager
	interval time.Duration
	logger   zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPresencePoller constructs a stopped poller.
func NewPresencePoller(manager *Manager, interval time.Duration, logger zerolog.Logger) *PresencePoller {
	if interval <= 0 {
		interval = DefaultPresenceInterval
	}
	return &PresencePoller{manager: manager, interval: interval, logger: logger}
}

// Start launches the polling loop. Starting a running poller is an error.
func (p *PresencePoller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return ErrPollerAlreadyRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.loop(loopCtx, p.done)
	return nil
}

// Stop cancels the loop and waits for it to drain.
func (p *PresencePoller) Stop() error {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.cancel = nil
	p.done = nil
	p.mu.Unlock()

	if cancel == nil {
		return ErrPollerNotRunning
	}
	cancel()
	<-done
	return nil
}

func (p *PresencePoller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.manager.Ping(ctx); err != nil && !errors.Is(err, context.Canceled) {
				p.logger.Debug().Err(err).Msg("presence ping failed")
			}
		}
	}
}

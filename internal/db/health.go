package db

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Health tracks whether the credential store is reachable. The connection can
// drop and come back during the process lifetime, so the state is refreshed on
// an interval and handlers read the latest value instead of pinging per request.
type Health struct {
	pinger   Pinger
	interval time.Duration
	log      *slog.Logger

	ready atomic.Bool
}

func NewHealth(pinger Pinger, interval time.Duration, log *slog.Logger) *Health {
	if interval <= 0 {
		interval = 5 * time.Second
	}

	h := &Health{
		pinger:   pinger,
		interval: interval,
		log:      log,
	}

	// initial probe so the gate has a value before the first tick
	h.check()

	return h
}

func (h *Health) Ready() bool {
	return h.ready.Load()
}

func (h *Health) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			h.check()
		}
	}
}

func (h *Health) check() {
	if h.pinger == nil {
		// started without a DB connection: gate stays closed
		h.ready.Store(false)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	err := h.pinger.Ping(ctx)

	was := h.ready.Load()
	now := err == nil

	h.ready.Store(now)

	if h.log != nil && was != now {
		if now {
			h.log.Info("database connection restored")
		} else {
			h.log.Error("database unreachable", "err", err)
		}
	}
}

// Package scheduler runs the due-index pollers. A poller wakes on a fixed
// interval, claims every due item, and fans each claimed id out to the
// handler registered for its key prefix.
package scheduler

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/conduitcrm/conduit/pkg/dueindex"
)

// DefaultInterval is the poll cadence. Due items are therefore dispatched at
// most this long after their due time.
const DefaultInterval = 5 * time.Second

// ItemHandler processes one claimed item. The id is the bare item id with
// the key prefix stripped.
type ItemHandler func(ctx context.Context, itemID string) error

// Poller claims due items from the index on a fixed interval. Claiming is
// atomic at the index, so multiple poller instances never dispatch the same
// item twice.
type Poller struct {
	interval time.Duration
	index    dueindex.Index
	handlers map[string]ItemHandler
	logger   *slog.Logger

	ticker  *time.Ticker
	done    chan bool
	started bool
	wg      sync.WaitGroup
	mu      sync.Mutex
}

func NewPoller(index dueindex.Index, logger *slog.Logger) *Poller {
	return &Poller{
		interval: DefaultInterval,
		index:    index,
		handlers: make(map[string]ItemHandler),
		logger:   logger.With("module", "scheduler"),
	}
}

// WithInterval overrides the poll cadence. Used by tests to tighten timing.
func (p *Poller) WithInterval(interval time.Duration) *Poller {
	p.interval = interval

	return p
}

// Handle registers the handler for a key prefix ("campaign:", "reminder:",
// "run:"). Claimed ids with no matching prefix are logged and dropped.
func (p *Poller) Handle(prefix string, handler ItemHandler) {
	p.handlers[prefix] = handler
}

// Start launches the poll loop. Safe to call once.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return nil
	}

	p.logger.Info("Starting due index poller", "interval", p.interval)

	p.ticker = time.NewTicker(p.interval)
	p.done = make(chan bool)
	p.started = true

	go p.poll(ctx)

	return nil
}

// Stop halts the loop and waits for in-flight handlers to return.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()

	if !p.started {
		p.mu.Unlock()

		return nil
	}

	p.ticker.Stop()

	select {
	case p.done <- true:
	default:
	}

	p.started = false
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("Due index poller stopped")

	return nil
}

func (p *Poller) poll(ctx context.Context) {
	for {
		select {
		case <-p.done:
			return
		case <-ctx.Done():
			return
		case <-p.ticker.C:
			p.processDue(ctx)
		}
	}
}

// processDue claims every due item and dispatches each in its own goroutine,
// so a long-running campaign cannot starve reminders claimed in the same
// tick.
func (p *Poller) processDue(ctx context.Context) {
	now := time.Now().UTC()

	due, err := p.index.ClaimDue(ctx, now)
	if err != nil {
		p.logger.Error("Failed to claim due items", "error", err)

		return
	}

	if len(due) == 0 {
		return
	}

	p.logger.Info("Claimed due items", "count", len(due))

	for _, key := range due {
		prefix, itemID, found := strings.Cut(key, ":")
		if !found {
			p.logger.Warn("Claimed item has no key prefix, dropping", "key", key)

			continue
		}

		handler, ok := p.handlers[prefix+":"]
		if !ok {
			p.logger.Warn("No handler for claimed item, dropping", "key", key)

			continue
		}

		p.wg.Add(1)

		go func(key, itemID string, handler ItemHandler) {
			defer p.wg.Done()

			if err := handler(ctx, itemID); err != nil {
				p.logger.Error("Item handler failed", "key", key, "error", err)
			}
		}(key, itemID, handler)
	}
}

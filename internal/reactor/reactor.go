// Package reactor consumes the user change feed and triggers QR artifact
// generation for every inserted record.
package reactor

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/pointsboard/apiserver/internal/mq"
	"github.com/pointsboard/apiserver/internal/qr"
	"github.com/pointsboard/apiserver/types"
)

const (
	defaultMaxAttempts       = 10
	defaultInitialBackoff    = time.Second
	defaultMaxBackoff        = time.Minute
	defaultMaxInFlight       = 8
	healthySubscriptionAfter = 30 * time.Second
)

// Reactor maintains a supervised subscription to the user change feed.
// Each insertion event triggers one QR generation attempt, offloaded to a
// bounded set of workers so a slow image service never stalls the feed.
type Reactor struct {
	bus    *mq.MQ
	gen    *qr.Generator
	logger *log.Logger

	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration

	sem chan struct{}
	wg  sync.WaitGroup
}

// New constructs a Reactor with default supervision settings.
func New(bus *mq.MQ, gen *qr.Generator, logger *log.Logger) *Reactor {
	if logger == nil {
		logger = log.Default()
	}
	return &Reactor{
		bus:            bus,
		gen:            gen,
		logger:         logger,
		maxAttempts:    defaultMaxAttempts,
		initialBackoff: defaultInitialBackoff,
		maxBackoff:     defaultMaxBackoff,
		sem:            make(chan struct{}, defaultMaxInFlight),
	}
}

// Run subscribes to the change feed and blocks until the context is
// cancelled or the subscription has failed maxAttempts times in a row.
// A subscription that stayed healthy for a while resets the attempt count.
func (r *Reactor) Run(ctx context.Context) error {
	defer r.wg.Wait()

	attempts := 0
	backoff := r.initialBackoff
	for {
		started := time.Now()
		err := r.bus.Subscribe(ctx, types.UserInsertedChannel, r.handle)
		if ctx.Err() != nil {
			return nil
		}

		if time.Since(started) >= healthySubscriptionAfter {
			attempts = 0
			backoff = r.initialBackoff
		}
		attempts++
		if attempts >= r.maxAttempts {
			r.logger.Printf("change feed subscription failed %d times, giving up: %v", attempts, err)
			return err
		}

		r.logger.Printf("change feed subscription lost (attempt %d): %v; retrying in %s", attempts, err, backoff)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > r.maxBackoff {
			backoff = r.maxBackoff
		}
	}
}

// handle decodes one insertion event and dispatches QR generation.
// It always returns nil: generation failures are absorbed, never retried
// through the feed.
func (r *Reactor) handle(ctx context.Context, msg mq.Message) error {
	var event types.UserInsertedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		r.logger.Printf("discarding malformed change event %s: %v", msg.ID, err)
		return nil
	}

	select {
	case r.sem <- struct{}{}:
	case <-ctx.Done():
		return nil
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() { <-r.sem }()

		if err := r.gen.Generate(ctx, event.ID, event.Address); err != nil {
			r.logger.Printf("qr generation for user %d failed: %v", event.ID, err)
			return
		}
		r.logger.Printf("qr artifact stored for user %d", event.ID)
	}()
	return nil
}

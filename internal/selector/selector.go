// Package selector runs the periodic winner-selection job.
package selector

import (
	"context"
	"log"
	"time"

	"github.com/pointsboard/apiserver/internal/services"
)

// Runner invokes winner selection on a fixed interval. Selection errors
// are logged and never stop the ticker.
type Runner struct {
	winners  *services.WinnerService
	interval time.Duration
	logger   *log.Logger
}

// NewRunner constructs a Runner. Intervals of zero or less fall back to
// one minute.
func NewRunner(winners *services.WinnerService, interval time.Duration, logger *log.Logger) *Runner {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		winners:  winners,
		interval: interval,
		logger:   logger,
	}
}

// Run ticks until the context is cancelled.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	winner, err := r.winners.SelectWinner(ctx)
	if err != nil {
		r.logger.Printf("winner selection failed: %v", err)
		return
	}
	if winner == nil {
		r.logger.Printf("no winner selected: tie or fewer than two users")
		return
	}
	r.logger.Printf("winner selected: user %d with %d points", winner.UserID, winner.Points)
}

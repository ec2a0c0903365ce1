package chat

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Pool runs offloaded command work with a fixed upper bound.
// Submission never blocks: a saturated pool drops the task.
type Pool struct {
	group  errgroup.Group
	room   string
	logger zerolog.Logger
}

// NewPool creates a pool running at most limit tasks at once. A limit below 1 means unbounded.
func NewPool(room string, limit int, logger zerolog.Logger) *Pool {
	p := &Pool{room: room, logger: logger}
	if limit > 0 {
		p.group.SetLimit(limit)
	}
	return p
}

// TryGo starts task on a worker unless the pool is full. The name is used in logs and metrics.
func (p *Pool) TryGo(ctx context.Context, name string, task func(ctx context.Context)) bool {
	started := p.group.TryGo(func() error {
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error().Str("task", name).Interface("panic", r).Msg("Worker task panicked")
			}
		}()
		task(ctx)
		return nil
	})
	if !started {
		tasksDropped.WithLabelValues(p.room, name).Inc()
		p.logger.Warn().Str("task", name).Msg("Worker pool saturated, task dropped")
	}
	return started
}

// Wait blocks until every started task has returned.
func (p *Pool) Wait() {
	_ = p.group.Wait()
}

// Package queue runs the persistent job queue: a pool of workers polling the
// jobs table, claiming work with a conditional update, and dispatching to
// registered handlers by job type.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voyantlabs/codegraph/internal/store"
)

// Handler processes one claimed job. A nil return completes the job; an error
// fails it, returning it to pending until the attempt ceiling.
type Handler func(ctx context.Context, job *store.Job) error

// Options tunes the pool.
type Options struct {
	Workers      int
	PollInterval time.Duration
	LockTimeout  time.Duration
}

// Pool claims and dispatches jobs. Workers share one store; the jobs table is
// the only coordination point, so several processes can run pools against the
// same database.
type Pool struct {
	store      *store.Store
	opts       Options
	instanceID string

	mu       sync.RWMutex
	handlers map[string]Handler

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPool creates a stopped pool.
func NewPool(s *store.Store, opts *Options) *Pool {
	o := Options{Workers: 4, PollInterval: time.Second, LockTimeout: 5 * time.Minute}
	if opts != nil {
		o = *opts
	}
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.PollInterval <= 0 {
		o.PollInterval = time.Second
	}
	if o.LockTimeout <= 0 {
		o.LockTimeout = 5 * time.Minute
	}
	return &Pool{
		store:      s,
		opts:       o,
		instanceID: uuid.NewString(),
		handlers:   map[string]Handler{},
	}
}

// Register installs the handler for a job type. Claimed jobs with no handler
// fail immediately.
func (p *Pool) Register(jobType string, h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[jobType] = h
}

// Start launches the workers. They run until ctx is cancelled or Stop is
// called.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.opts.Workers; i++ {
		workerID := fmt.Sprintf("%s-worker-%d", p.instanceID, i)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.run(ctx, workerID)
		}()
	}
	slog.Info("queue.started", "workers", p.opts.Workers, "instance", p.instanceID)
}

// Stop cancels the workers and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

// run is one worker's poll loop. The poll interval backs off while the queue
// is empty and resets on every claimed job.
func (p *Pool) run(ctx context.Context, workerID string) {
	wait := p.opts.PollInterval
	maxWait := 10 * p.opts.PollInterval

	for {
		job, err := p.store.ClaimJob(workerID, p.opts.LockTimeout)
		if err != nil {
			slog.Warn("queue.claim.err", "worker", workerID, "err", err)
		}
		if job != nil {
			p.dispatch(ctx, workerID, job)
			wait = p.opts.PollInterval
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
		wait = wait * 3 / 2
		if wait > maxWait {
			wait = maxWait
		}
	}
}

// dispatch runs the handler for one claimed job and records the outcome.
func (p *Pool) dispatch(ctx context.Context, workerID string, job *store.Job) {
	p.mu.RLock()
	h := p.handlers[job.Type]
	p.mu.RUnlock()

	slog.Info("queue.job.start", "worker", workerID, "job", job.ID,
		"type", job.Type, "attempt", job.Attempts)

	var err error
	if h == nil {
		err = fmt.Errorf("no handler for job type %q", job.Type)
	} else {
		err = h(ctx, job)
	}

	if err != nil {
		failed, ferr := p.store.FailJob(job.ID, err.Error())
		if ferr != nil {
			slog.Error("queue.job.fail.err", "job", job.ID, "err", ferr)
			return
		}
		slog.Warn("queue.job.failed", "job", job.ID, "type", job.Type,
			"status", failed.Status, "attempt", failed.Attempts, "err", err)
		return
	}
	if err := p.store.CompleteJob(job.ID); err != nil {
		slog.Error("queue.job.complete.err", "job", job.ID, "err", err)
		return
	}
	slog.Info("queue.job.done", "job", job.ID, "type", job.Type)
}

// PayloadString reads a string payload field, "" when absent.
func PayloadString(job *store.Job, key string) string {
	if v, ok := job.Payload[key].(string); ok {
		return v
	}
	return ""
}

// PayloadInt64 reads a numeric payload field, 0 when absent. JSON numbers
// decode as float64.
func PayloadInt64(job *store.Job, key string) int64 {
	switch v := job.Payload[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

// PayloadBool reads a boolean payload field, false when absent.
func PayloadBool(job *store.Job, key string) bool {
	v, _ := job.Payload[key].(bool)
	return v
}

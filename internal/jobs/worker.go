// inputs: job table rows, handlers map
// outputs: job status updates, dead-letter moves on permanent failure
// error modes: db errors, handler errors and panics
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultPollInterval is how long an idle worker waits before polling again.
const DefaultPollInterval = 500 * time.Millisecond

type WorkerPool struct {
	repo         *Repository
	handlers     map[string]Handler
	logger       *slog.Logger
	workerCount  int
	pollInterval time.Duration
	stop         chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

func NewWorkerPool(repo *Repository, handlers map[string]Handler, logger *slog.Logger, workerCount int) *WorkerPool {
	if workerCount <= 0 {
		workerCount = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkerPool{
		repo:         repo,
		handlers:     handlers,
		logger:       logger,
		workerCount:  workerCount,
		pollInterval: DefaultPollInterval,
		stop:         make(chan struct{}),
	}
}

// WithPollInterval changes the idle wait between polls.
func (p *WorkerPool) WithPollInterval(d time.Duration) *WorkerPool {
	if d > 0 {
		p.pollInterval = d
	}
	return p
}

// Start requeues jobs orphaned by a previous run and launches the workers.
func (p *WorkerPool) Start(ctx context.Context) {
	if n, err := p.repo.RequeueRunning(ctx); err != nil {
		p.logger.Error("requeue running jobs", "err", err)
	} else if n > 0 {
		p.logger.Info("requeued orphaned jobs", "count", n)
	}
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Stop signals workers to stop and waits for them. It is safe to call more
// than once.
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	p.wg.Wait()
}

func (p *WorkerPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.stop:
			p.logger.Info("worker stopping", "id", id)
			return
		case <-ctx.Done():
			p.logger.Info("context canceled, worker exiting", "id", id)
			return
		default:
		}

		job, err := p.repo.FetchNext(ctx)
		if err != nil {
			if ctx.Err() == nil {
				p.logger.Error("fetch job", "err", err)
			}
			p.sleep(ctx, 2*p.pollInterval)
			continue
		}
		if job == nil {
			p.sleep(ctx, p.pollInterval)
			continue
		}
		p.process(ctx, job)
	}
}

func (p *WorkerPool) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-p.stop:
	case <-ctx.Done():
	}
}

func (p *WorkerPool) process(ctx context.Context, job *Job) {
	log := p.logger.With("job_id", job.ID, "job_type", job.Type)

	h, ok := p.handlers[job.Type]
	if !ok {
		job.Status = StatusFailed
		job.LastError = "no handler"
		if err := p.repo.MoveToDeadLetter(ctx, job); err != nil {
			log.Error("move to dead letter", "err", err)
		}
		return
	}

	err := run(ctx, h, job)
	if err == nil {
		job.Status = StatusDone
		job.NextTryAt = nil
		if upErr := p.repo.UpdateJob(ctx, job); upErr != nil {
			log.Error("mark job done", "err", upErr)
		}
		return
	}

	job.Attempts++
	job.LastError = err.Error()
	if job.Attempts >= job.MaxAttempts {
		job.Status = StatusFailed
		log.Warn("job failed permanently", "attempts", job.Attempts, "err", err)
		if mvErr := p.repo.MoveToDeadLetter(ctx, job); mvErr != nil {
			log.Error("move to dead letter", "err", mvErr)
		}
		return
	}

	t := time.Now().Add(BackoffDuration(job.Attempts))
	job.NextTryAt = &t
	job.Status = StatusRetry
	log.Info("job scheduled for retry", "attempts", job.Attempts, "next_try_at", t, "err", err)
	if upErr := p.repo.UpdateJob(ctx, job); upErr != nil {
		log.Error("update job for retry", "err", upErr)
	}
}

// run calls h, turning a panic into an error so one bad job cannot kill a
// worker.
func run(ctx context.Context, h Handler, j *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, j)
}

// Enqueue convenience helper that creates a job and persists it
func (p *WorkerPool) Enqueue(ctx context.Context, typ string, payload any, priority int, maxAttempts int) (int64, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	j := &Job{Type: typ, Payload: b, Priority: priority, MaxAttempts: maxAttempts, ScheduledAt: time.Now()}
	return p.repo.Enqueue(ctx, j)
}

// Package worker runs durable background tasks on a fixed worker pool.
//
// Runnable tasks are polled from the database, dispatched over a channel
// queue and executed with a per-task timeout. Failed tasks back off
// exponentially until their retries are exhausted. Progress and status
// are mirrored into the task status cache so polling endpoints avoid
// database reads.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crm/backend/internal/domain/task"
	"github.com/crm/backend/internal/infrastructure/config"
)

// ProgressFunc reports task completion percentage from an executor
type ProgressFunc func(percent int)

// Executor runs tasks of one type
type Executor interface {
	// Type returns the task type this executor handles
	Type() task.TaskType

	// Execute runs the task and returns the JSON result blob
	Execute(ctx context.Context, t *task.Task, report ProgressFunc) (string, error)
}

// Engine polls for runnable tasks and executes them on a worker pool
type Engine struct {
	cfg       config.WorkerConfig
	tasks     task.TaskRepository
	status    task.StatusStore
	executors map[task.TaskType]Executor
	logger    *zap.Logger

	queue    chan *task.Task
	inflight map[uuid.UUID]struct{}
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
}

// NewEngine creates a task engine. Executors are registered per task type;
// a task whose type has no executor fails permanently.
func NewEngine(cfg config.WorkerConfig, tasks task.TaskRepository, status task.StatusStore, logger *zap.Logger, executors ...Executor) *Engine {
	byType := make(map[task.TaskType]Executor, len(executors))
	for _, e := range executors {
		byType[e.Type()] = e
	}

	return &Engine{
		cfg:       cfg,
		tasks:     tasks,
		status:    status,
		executors: byType,
		logger:    logger,
		queue:     make(chan *task.Task, cfg.Concurrency*4),
		inflight:  make(map[uuid.UUID]struct{}),
	}
}

// Start launches the poller and the worker pool
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = true
	e.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	for i := 0; i < e.cfg.Concurrency; i++ {
		e.wg.Add(1)
		go e.worker(ctx, i)
	}

	e.wg.Add(1)
	go e.poll(ctx)

	e.logger.Info("Task engine started",
		zap.Int("workers", e.cfg.Concurrency),
		zap.Duration("poll_interval", e.cfg.PollInterval),
		zap.Duration("task_timeout", e.cfg.TaskTimeout),
	)
	return nil
}

// Stop drains the engine, waiting for in-flight tasks up to the context
// deadline
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = false
	e.mu.Unlock()

	if e.cancel != nil {
		e.cancel()
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.logger.Info("Task engine stopped")
		return nil
	case <-ctx.Done():
		e.logger.Warn("Task engine stop timed out")
		return ctx.Err()
	}
}

// poll claims runnable tasks and feeds the queue
func (e *Engine) poll(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.dispatchRunnable(ctx)
		}
	}
}

func (e *Engine) dispatchRunnable(ctx context.Context) {
	runnable, err := e.tasks.FindRunnable(ctx, cap(e.queue))
	if err != nil {
		e.logger.Error("Failed to poll runnable tasks", zap.Error(err))
		return
	}

	for i := range runnable {
		t := runnable[i]
		if !e.claim(t.ID) {
			continue
		}

		select {
		case e.queue <- &t:
		default:
			// Queue is full, the next poll picks the task up again
			e.release(t.ID)
			return
		}
	}
}

// claim marks a task as in flight; returns false when already claimed
func (e *Engine) claim(id uuid.UUID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.inflight[id]; exists {
		return false
	}
	e.inflight[id] = struct{}{}
	return true
}

func (e *Engine) release(id uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, id)
}

// worker consumes tasks from the queue
func (e *Engine) worker(ctx context.Context, workerID int) {
	defer e.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-e.queue:
			e.process(ctx, t, workerID)
			e.release(t.ID)
		}
	}
}

// process runs a single task attempt
func (e *Engine) process(ctx context.Context, t *task.Task, workerID int) {
	log := e.logger.With(
		zap.Int("worker_id", workerID),
		zap.String("task_id", t.ID.String()),
		zap.String("task_type", string(t.Type)),
		zap.String("tenant_id", t.TenantID.String()),
	)

	if err := t.Start(); err != nil {
		// Cancelled or finished between poll and dispatch
		log.Debug("Task no longer runnable", zap.Error(err))
		return
	}
	if err := e.persist(ctx, t); err != nil {
		log.Error("Failed to mark task running", zap.Error(err))
		return
	}

	executor, ok := e.executors[t.Type]
	if !ok {
		t.Error = "no executor registered for task type"
		t.Status = task.TaskStatusFailed
		now := time.Now()
		t.FinishedAt = &now
		if err := e.persist(ctx, t); err != nil {
			log.Error("Failed to persist task failure", zap.Error(err))
		}
		log.Error("No executor for task type")
		return
	}

	taskCtx, cancel := context.WithTimeout(ctx, e.cfg.TaskTimeout)
	defer cancel()

	log.Info("Processing task", zap.Int("attempt", t.Attempts))

	result, err := executor.Execute(taskCtx, t, func(percent int) {
		e.reportProgress(ctx, t, percent, log)
	})
	if err != nil {
		delay := task.RetryDelay(e.cfg.RetryBaseDelay, e.cfg.RetryMaxDelay, t.Attempts)
		t.Fail(err.Error(), delay)
		if persistErr := e.persist(ctx, t); persistErr != nil {
			log.Error("Failed to persist task failure", zap.Error(persistErr))
		}

		if t.Status == task.TaskStatusRetrying {
			log.Warn("Task attempt failed, retry scheduled",
				zap.Error(err),
				zap.Int("attempt", t.Attempts),
				zap.Time("next_run", t.ScheduledAt),
			)
		} else {
			log.Error("Task failed permanently",
				zap.Error(err),
				zap.Int("attempts", t.Attempts),
			)
		}
		return
	}

	t.Succeed(result)
	if err := e.persist(ctx, t); err != nil {
		log.Error("Failed to persist task success", zap.Error(err))
		return
	}
	log.Info("Task completed", zap.Int("attempts", t.Attempts))
}

// persist writes the task row and mirrors the snapshot into the cache
func (e *Engine) persist(ctx context.Context, t *task.Task) error {
	if err := e.tasks.Save(ctx, t); err != nil {
		return err
	}
	if err := e.status.Put(ctx, t); err != nil {
		// Cache is best effort, the row is authoritative
		e.logger.Debug("Failed to cache task status",
			zap.String("task_id", t.ID.String()),
			zap.Error(err),
		)
	}
	return nil
}

func (e *Engine) reportProgress(ctx context.Context, t *task.Task, percent int, log *zap.Logger) {
	if err := t.SetProgress(percent); err != nil {
		return
	}
	if err := e.tasks.UpdateProgress(ctx, t); err != nil {
		log.Debug("Failed to persist task progress", zap.Error(err))
	}
	if err := e.status.Put(ctx, t); err != nil {
		log.Debug("Failed to cache task progress", zap.Error(err))
	}
}

package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// JobFunc does one unit of periodic maintenance.
type JobFunc func(ctx context.Context) error

type Job struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration
	MaxTries int
	Run      JobFunc
}

type JobStats struct {
	Runs      int64     `json:"runs"`
	Failures  int64     `json:"failures"`
	LastRun   time.Time `json:"last_run"`
	LastError string    `json:"last_error,omitempty"`
}

type WorkerConfig struct {
	DefaultTimeout time.Duration
	MaxTries       int
	RetryBackoff   time.Duration
}

func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		DefaultTimeout: 30 * time.Second,
		MaxTries:       3,
		RetryBackoff:   time.Second,
	}
}

// Worker runs each registered job on its own ticker until stopped.
type Worker struct {
	cfg     WorkerConfig
	mu      sync.RWMutex
	jobs    map[string]Job
	stats   map[string]*JobStats
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

func NewWorker(cfg WorkerConfig) *Worker {
	def := DefaultWorkerConfig()
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = def.DefaultTimeout
	}
	if cfg.MaxTries <= 0 {
		cfg.MaxTries = def.MaxTries
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = def.RetryBackoff
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		cfg:    cfg,
		jobs:   make(map[string]Job),
		stats:  make(map[string]*JobStats),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (w *Worker) Register(job Job) error {
	if job.Name == "" || job.Run == nil {
		return errors.New("job needs a name and a run function")
	}
	if job.Interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", job.Name)
	}
	if job.Timeout <= 0 {
		job.Timeout = w.cfg.DefaultTimeout
	}
	if job.MaxTries <= 0 {
		job.MaxTries = w.cfg.MaxTries
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return fmt.Errorf("job %s: worker already started", job.Name)
	}
	w.jobs[job.Name] = job
	w.stats[job.Name] = &JobStats{}
	return nil
}

func (w *Worker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return
	}
	w.started = true

	log.Printf("[worker] starting %d jobs", len(w.jobs))
	for _, job := range w.jobs {
		w.wg.Add(1)
		go w.loop(job)
	}
}

// Stop cancels running jobs and waits for them until ctx expires.
func (w *Worker) Stop(ctx context.Context) error {
	log.Println("[worker] stopping")
	w.cancel()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("[worker] stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker stop: %w", ctx.Err())
	}
}

func (w *Worker) loop(job Job) {
	defer w.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			if err := w.execute(w.ctx, job); err != nil && w.ctx.Err() == nil {
				log.Printf("[worker] job %s failed permanently: %v", job.Name, err)
			}
		}
	}
}

// RunNow executes a registered job immediately, with the usual retries.
func (w *Worker) RunNow(ctx context.Context, name string) error {
	w.mu.RLock()
	job, ok := w.jobs[name]
	w.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no job registered as %s", name)
	}
	return w.execute(ctx, job)
}

func (w *Worker) execute(ctx context.Context, job Job) error {
	var err error
	for attempt := 1; attempt <= job.MaxTries; attempt++ {
		err = w.attempt(ctx, job)
		w.record(job.Name, err)
		if err == nil {
			return nil
		}
		if attempt == job.MaxTries {
			break
		}

		log.Printf("[worker] job %s failed (attempt %d/%d), retrying: %v", job.Name, attempt, job.MaxTries, err)
		delay := time.Duration(1<<(attempt-1)) * w.cfg.RetryBackoff
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}

func (w *Worker) attempt(ctx context.Context, job Job) error {
	ctx, cancel := context.WithTimeout(ctx, job.Timeout)
	defer cancel()
	return job.Run(ctx)
}

func (w *Worker) record(name string, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := w.stats[name]
	s.Runs++
	s.LastRun = time.Now()
	s.LastError = ""
	if err != nil {
		s.Failures++
		s.LastError = err.Error()
	}
}

func (w *Worker) Stats() map[string]interface{} {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make(map[string]interface{}, len(w.stats))
	for name, s := range w.stats {
		out[name] = *s
	}
	return out
}

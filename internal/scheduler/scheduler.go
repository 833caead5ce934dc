// Package scheduler runs a fixed set of periodic jobs over a bounded
// worker pool, ensuring at most one instance of any given job is ever
// running at a time. It is the Go port of a hand-rolled thread-pool
// scheduler: a driver loop wakes on a fixed resolution, and for every
// task that is both due and not already running, hands it to a worker.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/NeuroWhAI/firemapserver/internal/metrics"
)

// Job is a unit of scheduled work. It returns the delay to wait before
// it should run again; returning a delay of zero or less reschedules it
// at the task's period as configured.
type Job func(ctx context.Context) (nextDelay time.Duration, err error)

type task struct {
	name     string
	job      Job
	period   time.Duration
	mu       sync.Mutex
	running  bool
	nextTime time.Time
}

func (t *task) ready(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.running && !now.Before(t.nextTime)
}

func (t *task) markBusy() {
	t.mu.Lock()
	t.running = true
	t.mu.Unlock()
}

func (t *task) finish(now time.Time, delay time.Duration) {
	t.mu.Lock()
	t.running = false
	if delay <= 0 {
		delay = t.period
	}
	t.nextTime = now.Add(delay)
	t.mu.Unlock()
}

// Scheduler drives a fixed-size worker pool against a set of registered
// tasks, polling for due work at periodResolution.
type Scheduler struct {
	tasks             []*task
	nWorkers          int
	periodResolution  time.Duration
	work              chan func()
	workerWG          sync.WaitGroup
	stop              chan struct{}
	stopped           chan struct{}
}

// Option configures a Scheduler at construction time.
type Option func(*Scheduler)

// WithWorkers overrides the default worker pool size.
func WithWorkers(n int) Option {
	return func(s *Scheduler) { s.nWorkers = n }
}

// WithResolution overrides the default driver-loop polling interval.
func WithResolution(d time.Duration) Option {
	return func(s *Scheduler) { s.periodResolution = d }
}

// New builds a Scheduler with no tasks registered yet.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		nWorkers:         4,
		periodResolution: time.Second,
		stop:             make(chan struct{}),
		stopped:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.work = make(chan func(), s.nWorkers)
	return s
}

// Register adds a named periodic job with the given steady-state period.
// The first run happens as soon as the driver loop observes it, i.e.
// immediately after Run starts.
func (s *Scheduler) Register(name string, period time.Duration, job Job) {
	s.tasks = append(s.tasks, &task{name: name, job: job, period: period})
}

// Run starts the worker pool and the driver loop. It blocks until ctx
// is canceled, then drains in-flight work before returning.
func (s *Scheduler) Run(ctx context.Context) {
	for i := 0; i < s.nWorkers; i++ {
		s.workerWG.Add(1)
		go s.worker()
	}

	ticker := time.NewTicker(s.periodResolution)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			close(s.work)
			s.workerWG.Wait()
			close(s.stopped)
			return
		case <-ticker.C:
			s.dispatchDue(ctx)
		}
	}
}

func (s *Scheduler) dispatchDue(ctx context.Context) {
	now := time.Now()
	for _, t := range s.tasks {
		if !t.ready(now) {
			continue
		}
		t.markBusy()
		tt := t
		select {
		case s.work <- func() { s.runTask(ctx, tt) }:
		default:
			// Pool saturated this tick; try again next tick.
			tt.mu.Lock()
			tt.running = false
			tt.mu.Unlock()
		}
	}
}

func (s *Scheduler) runTask(ctx context.Context, t *task) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("scheduler: task %s panicked: %v", t.name, r)
			metrics.SchedulerTaskFailuresTotal.WithLabelValues(t.name).Inc()
			t.finish(time.Now(), 0)
		}
	}()

	delay, err := t.job(ctx)
	metrics.SchedulerTaskDurationSeconds.WithLabelValues(t.name).Observe(time.Since(start).Seconds())
	metrics.SchedulerTaskRunsTotal.WithLabelValues(t.name).Inc()
	if err != nil {
		log.Printf("scheduler: task %s failed: %v", t.name, err)
		metrics.SchedulerTaskFailuresTotal.WithLabelValues(t.name).Inc()
	}
	t.finish(time.Now(), delay)
}

func (s *Scheduler) worker() {
	defer s.workerWG.Done()
	for fn := range s.work {
		fn()
	}
}

// Stop blocks until Run has fully drained, or ctx expires first.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.stopped:
	case <-ctx.Done():
		log.Println("scheduler: stop deadline exceeded before worker pool drained")
	}
}

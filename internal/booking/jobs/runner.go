package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is a unit of periodic work.
type Job interface {
	Name() string
	RunOnce(ctx context.Context) error
}

// Runner runs jobs at fixed intervals on a cron scheduler.
// A job never overlaps itself: a tick that arrives while the previous run is busy is skipped.
type Runner struct {
	cron    *cron.Cron
	logger  cron.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	jobs    []cron.Job
	initial sync.WaitGroup // first runs started by Start
}

// NewRunner creates a Runner. Jobs receive a context derived from ctx that is cancelled by Stop.
func NewRunner(ctx context.Context) *Runner {
	logger := cron.PrintfLogger(logrus.StandardLogger())
	ctx, cancel := context.WithCancel(ctx)
	return &Runner{
		cron:   cron.New(cron.WithLogger(logger)),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add schedules job every interval. Call it before Start.
func (r *Runner) Add(job Job, interval time.Duration) {
	// одна цепочка на задачу, чтобы первый запуск и тики cron не пересекались
	wrapped := cron.NewChain(
		cron.Recover(r.logger),
		cron.SkipIfStillRunning(r.logger),
	).Then(cron.FuncJob(func() {
		r.runJob(job)
	}))
	r.cron.Schedule(cron.Every(interval), wrapped)
	r.jobs = append(r.jobs, wrapped)
	logrus.Infof("Job %s scheduled every %s", job.Name(), interval)
}

// Start runs every job once and then starts the scheduler.
func (r *Runner) Start() {
	for _, job := range r.jobs {
		r.initial.Add(1)
		go func(job cron.Job) {
			defer r.initial.Done()
			job.Run()
		}(job)
	}
	r.cron.Start()
	logrus.Info("Job runner started")
}

// Stop stops scheduling, cancels running jobs and waits until they return.
func (r *Runner) Stop() {
	stopped := r.cron.Stop()
	r.cancel()
	<-stopped.Done()
	r.initial.Wait()
	logrus.Info("Job runner stopped")
}

func (r *Runner) runJob(job Job) {
	start := time.Now()
	if err := job.RunOnce(r.ctx); err != nil {
		logrus.WithError(err).Errorf("Job %s failed", job.Name())
		return
	}
	logrus.Debugf("Job %s finished in %s", job.Name(), time.Since(start))
}

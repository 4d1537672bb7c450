// Package schedule runs background jobs on cron specs.
package schedule

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Scheduler interface {
	AddJob(job Job, spec string) error
	RunNow(ctx context.Context, name string) error
	Start(ctx context.Context)
	Stop()
}

type registered struct {
	job     Job
	spec    string
	running atomic.Bool
}

type CronScheduler struct {
	cron *cron.Cron

	mu   sync.Mutex
	jobs map[string]*registered
	ctx  context.Context
}

func NewCronScheduler() *CronScheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &CronScheduler{
		cron: cron.New(cron.WithParser(parser)),
		jobs: make(map[string]*registered),
		ctx:  context.Background(),
	}
}

// AddJob schedules job on spec. An empty spec registers the job for RunNow
// only.
func (c *CronScheduler) AddJob(job Job, spec string) error {
	name := job.Name()
	spec = strings.TrimSpace(spec)
	logger := logutil.GetLogger(context.Background()).With(zap.String("job", name), zap.String("spec", spec))
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.jobs[name]; ok {
		return fmt.Errorf("job %s already registered", name)
	}
	r := &registered{job: job, spec: spec}
	if spec != "" {
		if _, err := c.cron.AddFunc(spec, func() { c.execute(c.runContext(), r) }); err != nil {
			logger.Error("schedule job failed", zap.Error(err))
			return err
		}
		logger.Info("job scheduled")
	} else {
		logger.Info("job registered without schedule")
	}
	c.jobs[name] = r
	return nil
}

// RunNow runs a registered job synchronously, unless it is already running.
func (c *CronScheduler) RunNow(ctx context.Context, name string) error {
	c.mu.Lock()
	r, ok := c.jobs[name]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("job %s not registered", name)
	}
	if !c.execute(ctx, r) {
		return fmt.Errorf("job %s is already running", name)
	}
	return nil
}

func (c *CronScheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()
	c.cron.Start()
}

func (c *CronScheduler) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
}

func (c *CronScheduler) runContext() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctx
}

// execute reports false when the run was skipped because the previous one
// has not finished.
func (c *CronScheduler) execute(ctx context.Context, r *registered) bool {
	logger := logutil.GetLogger(ctx).With(zap.String("job", r.job.Name()), zap.String("spec", r.spec))
	if !r.running.CompareAndSwap(false, true) {
		logger.Info("job skipped: still running")
		return false
	}
	defer r.running.Store(false)

	start := time.Now()
	logger.Info("job started")
	err := r.job.Run(ctx)
	elapsed := time.Since(start)
	if err != nil {
		logger.Error("job finished", zap.Error(err), zap.Duration("duration", elapsed))
		return true
	}
	logger.Info("job finished", zap.Duration("duration", elapsed))
	return true
}

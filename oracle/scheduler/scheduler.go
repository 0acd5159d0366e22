package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/xydata/oracle/oracle/config"
	"github.com/xydata/oracle/oracle/log"
	"github.com/xydata/oracle/oracle/types"
	oracletypes "github.com/xydata/oracle/x/oracle/types"
)

var (
	ErrNotPending    = errors.New("request is not pending")
	ErrNoFeed        = errors.New("no feed configured for data type")
	ErrAlreadyQueued = errors.New("request already queued")
)

// Fetcher observes the current value of a feed.
type Fetcher interface {
	Fetch(ctx context.Context, feed config.Feed) (uint64, error)
}

// Scheduler turns pending requests into observations. Each request is held in
// the job store from the moment it is queued until it completes or fails, so a
// request seen both at startup and on the event stream is fetched once.
type Scheduler struct {
	ctx         context.Context
	fetcher     Fetcher
	clock       func() time.Time
	pool        *workerpool.WorkerPool
	jobStore    cmap.ConcurrentMap[string, types.Job]
	resultQueue chan types.JobResult
	stopOnce    sync.Once
}

func New(ctx context.Context, fetcher Fetcher) *Scheduler {
	return &Scheduler{
		ctx:         ctx,
		fetcher:     fetcher,
		clock:       time.Now,
		pool:        workerpool.New(config.Workers()),
		jobStore:    cmap.New[types.Job](),
		resultQueue: make(chan types.JobResult, config.ChannelSize()),
	}
}

// WithClock replaces the clock stamping observations.
func (s *Scheduler) WithClock(clock func() time.Time) *Scheduler {
	s.clock = clock
	return s
}

// Stop waits for running jobs and closes the result queue.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.pool.StopWait()
		close(s.resultQueue)
	})
}

// ProcessRequest queues an observation for a pending request.
func (s *Scheduler) ProcessRequest(req oracletypes.Request) error {
	if req.Status != oracletypes.StatusPending {
		return fmt.Errorf("%w: %s is %s", ErrNotPending, req.Address, req.Status)
	}
	feed, ok := config.FeedFor(req.DataType)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoFeed, req.DataType)
	}

	job := types.MakeJob(req, s.clock())
	if !s.jobStore.SetIfAbsent(job.Request, job) {
		return fmt.Errorf("%w: %s", ErrAlreadyQueued, job.Request)
	}

	s.submit(job, feed)
	return nil
}

// ProcessComplete forgets a request that no longer needs an observation.
func (s *Scheduler) ProcessComplete(request string) {
	s.jobStore.Remove(request)
}

// Retry requeues a job whose result could not be submitted.
func (s *Scheduler) Retry(request string) error {
	job, ok := s.jobStore.Get(request)
	if !ok {
		return fmt.Errorf("job not found: %s", request)
	}
	feed, ok := config.FeedFor(job.DataType)
	if !ok {
		s.jobStore.Remove(request)
		return fmt.Errorf("%w: %s", ErrNoFeed, job.DataType)
	}

	job.Attempt++
	s.jobStore.Set(request, job)
	s.submit(job, feed)
	return nil
}

// Pending returns the number of requests held by the scheduler.
func (s *Scheduler) Pending() int {
	return s.jobStore.Count()
}

func (s *Scheduler) Result() <-chan types.JobResult {
	return s.resultQueue
}

func (s *Scheduler) submit(job types.Job, feed config.Feed) {
	s.pool.Submit(func() {
		value, err := s.fetcher.Fetch(s.ctx, feed)
		if err != nil {
			log.Errorf("failed to execute job %s: %v", job.Request, err)
			s.jobStore.Remove(job.Request)
			return
		}

		jr := types.NewJobResult(job, value, s.clock().Unix())
		log.Debugf("%s/%-3d: %s = %d", job.Request, job.Attempt, job.DataType, value)

		select {
		case s.resultQueue <- jr:
		case <-s.ctx.Done():
			s.jobStore.Remove(job.Request)
		}
	})
}

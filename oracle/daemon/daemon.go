package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/xydata/oracle/client"
	"github.com/xydata/oracle/crypto/ethsecp256k1"
	"github.com/xydata/oracle/oracle/config"
	"github.com/xydata/oracle/oracle/feed"
	"github.com/xydata/oracle/oracle/health"
	"github.com/xydata/oracle/oracle/log"
	"github.com/xydata/oracle/oracle/monitor"
	"github.com/xydata/oracle/oracle/scheduler"
	"github.com/xydata/oracle/oracle/submitter"
	"github.com/xydata/oracle/oracle/types"
	oracletypes "github.com/xydata/oracle/x/oracle/types"
)

// maxAttempts bounds the observations made for one request before it is left
// to the next resync.
const maxAttempts = 3

// Daemon watches the node for pending requests, observes their feeds and
// submits verify transactions with the admin key.
type Daemon struct {
	ctx    context.Context
	cancel context.CancelFunc
	client *client.Client
	key    *ethsecp256k1.PrivKey

	monitor   *monitor.Monitor
	scheduler *scheduler.Scheduler
	submitter *submitter.Submitter
	health    *health.HealthChecker
}

// New creates a daemon whose fetches go through fetcher.
func New(ctx context.Context, key *ethsecp256k1.PrivKey, fetcher scheduler.Fetcher) (*Daemon, error) {
	c := client.New(config.Endpoint(), config.NodeTimeout())

	sub, err := submitter.New(ctx, c, key)
	if err != nil {
		return nil, fmt.Errorf("failed to create submitter: %w", err)
	}

	registry, err := c.Registry(ctx)
	switch {
	case client.IsNotFound(err):
		log.Errorf("registry is not initialized yet")
	case err != nil:
		return nil, fmt.Errorf("failed to query registry: %w", err)
	case !registry.Registry.IsAdmin(key.Address()):
		log.Errorf("%s is not the registry admin %s, verify transactions will be refused", key.Address(), registry.Registry.Admin)
	}

	ctx, cancel := context.WithCancel(ctx)
	d := &Daemon{
		ctx:       ctx,
		cancel:    cancel,
		client:    c,
		key:       key,
		monitor:   monitor.New(ctx, c),
		scheduler: scheduler.New(ctx, fetcher),
		submitter: sub,
		health:    health.NewHealthChecker(config.HealthInterval()),
	}

	d.health.AddCheck(health.NewFuncCheck("node", c.Health))
	d.health.AddCheck(health.BacklogCheck(d.scheduler.Pending, config.ChannelSize()))
	return d, nil
}

// NewWithDefaults creates a daemon with the configured key and feed fetcher.
func NewWithDefaults(ctx context.Context) (*Daemon, error) {
	key, err := config.Key()
	if err != nil {
		return nil, err
	}
	fetcher := feed.New(config.FetchTimeout(), config.RateLimit(), config.CacheTTL())
	return New(ctx, key, fetcher)
}

// Start subscribes to the node and queues every request already pending.
func (d *Daemon) Start() error {
	if err := d.monitor.Start(); err != nil {
		return err
	}

	requests, err := d.monitor.LoadPendingRequests()
	if err != nil {
		return err
	}
	d.ProcessRequests(requests)
	log.Infof("daemon started with %d pending requests", d.scheduler.Pending())
	return nil
}

func (d *Daemon) Stop() {
	d.cancel()
	d.monitor.Stop()
	d.scheduler.Stop()
	log.Infof("daemon stopped")
}

// Run starts the daemon and serves until ctx is cancelled.
func (d *Daemon) Run() error {
	if err := d.Start(); err != nil {
		return err
	}
	defer d.Stop()

	// the first loop to return takes the others down with it
	var g errgroup.Group
	g.Go(func() error {
		defer d.cancel()
		d.health.Start(d.ctx)
		return nil
	})
	if listen := config.HealthListen(); listen != "" {
		g.Go(func() error {
			defer d.cancel()
			return d.health.Serve(d.ctx, listen)
		})
	}
	g.Go(func() error {
		defer d.cancel()
		return d.Monitor()
	})
	g.Go(func() error {
		defer d.cancel()
		return d.ServeOracle()
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// ProcessRequests queues requests, skipping those the daemon cannot serve.
func (d *Daemon) ProcessRequests(requests []oracletypes.Request) {
	for _, req := range requests {
		err := d.scheduler.ProcessRequest(req)
		switch {
		case err == nil:
			log.Debugf("queued %s (%s)", req.Address, req.DataType)
		case errors.Is(err, scheduler.ErrAlreadyQueued):
		default:
			log.Debugf("skipping %s: %v", req.Address, err)
		}
	}
}

// Monitor feeds node events into the scheduler, reconnecting the stream when
// it drops.
func (d *Daemon) Monitor() error {
	for {
		update, err := d.monitor.Next()
		if errors.Is(err, monitor.ErrStreamClosed) {
			log.Errorf("event stream closed, reconnecting")
			if err := d.reconnect(); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}

		for _, request := range update.Completed {
			d.scheduler.ProcessComplete(request)
		}
		d.ProcessRequests(update.Requests)
	}
}

func (d *Daemon) reconnect() error {
	b := backoff.NewExponentialBackOff()
	b.MaxInterval = config.RetryMaxInterval()
	b.MaxElapsedTime = 0

	err := backoff.Retry(d.monitor.Subscribe, backoff.WithContext(b, d.ctx))
	if err != nil {
		return err
	}
	// events committed while disconnected are recovered by a resync
	d.monitor.TriggerResync()
	return nil
}

// ServeOracle submits every job result as a verify transaction.
func (d *Daemon) ServeOracle() error {
	for {
		select {
		case <-d.ctx.Done():
			return d.ctx.Err()
		case jr, ok := <-d.scheduler.Result():
			if !ok {
				return nil
			}
			d.submit(jr)
		}
	}
}

func (d *Daemon) submit(jr types.JobResult) {
	start := time.Now()
	res, err := d.submitter.Submit(d.ctx, jr)
	switch {
	case err == nil:
		log.Infof("verified %s = %d in %s, tx %s", jr.Request, jr.DataValue, time.Since(start), res.Hash)
	case submitter.IsAlreadyHandled(err):
		log.Debugf("request %s already handled", jr.Request)
	case jr.Attempt+1 < maxAttempts && d.ctx.Err() == nil:
		log.Errorf("failed to submit %s, observing again: %v", jr.Request, err)
		if err := d.scheduler.Retry(jr.Request); err == nil {
			return
		}
	default:
		log.Errorf("failed to submit %s: %v", jr.Request, err)
	}
	d.scheduler.ProcessComplete(jr.Request)
}

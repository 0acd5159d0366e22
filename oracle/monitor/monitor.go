package monitor

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron"

	"github.com/xydata/oracle/client"
	"github.com/xydata/oracle/oracle/config"
	"github.com/xydata/oracle/oracle/log"
	"github.com/xydata/oracle/oracle/types"
	xydatatypes "github.com/xydata/oracle/types"
	oracletypes "github.com/xydata/oracle/x/oracle/types"
)

// ErrStreamClosed is returned by Next once the event stream has dropped.
var ErrStreamClosed = errors.New("event stream closed")

// Update is what the daemon must act on: requests to observe and requests
// that left the pending state.
type Update struct {
	Requests  []oracletypes.Request
	Completed []string
}

func (u Update) Empty() bool {
	return len(u.Requests) == 0 && len(u.Completed) == 0
}

type Monitor struct {
	client *client.Client
	ctx    context.Context
	events <-chan xydatatypes.TxResult
	cron   *cron.Cron
	resync chan struct{}
}

func New(ctx context.Context, c *client.Client) *Monitor {
	return &Monitor{
		client: c,
		ctx:    ctx,
		resync: make(chan struct{}, 1),
	}
}

// Start subscribes to committed transactions and schedules periodic resyncs.
func (m *Monitor) Start() error {
	log.Debugf("monitor starting")
	if err := m.Subscribe(); err != nil {
		return err
	}

	m.cron = cron.New()
	if err := m.cron.AddFunc(config.ResyncSchedule(), m.TriggerResync); err != nil {
		return fmt.Errorf("invalid resync schedule %q: %w", config.ResyncSchedule(), err)
	}
	m.cron.Start()
	return nil
}

func (m *Monitor) Stop() {
	if m.cron != nil {
		m.cron.Stop()
	}
	log.Debugf("monitor stopped")
}

// Subscribe (re)opens the event stream.
func (m *Monitor) Subscribe() error {
	events, err := m.client.Subscribe(m.ctx, "")
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	m.events = events
	log.Debugf("subscribed to %s", m.client.BaseURL())
	return nil
}

// TriggerResync asks the next call of Next to reload every pending request.
func (m *Monitor) TriggerResync() {
	select {
	case m.resync <- struct{}{}:
	default:
	}
}

// LoadPendingRequests pages through every pending request.
func (m *Monitor) LoadPendingRequests() ([]oracletypes.Request, error) {
	var (
		requests []oracletypes.Request
		offset   uint64
	)
	for {
		res, err := m.client.Requests(m.ctx, client.RequestsFilter{
			Status: oracletypes.StatusPending.String(),
			Offset: offset,
			Limit:  oracletypes.MaxPageLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load pending requests: %w", err)
		}
		requests = append(requests, res.Requests...)
		offset += uint64(len(res.Requests))
		if len(res.Requests) < oracletypes.MaxPageLimit {
			return requests, nil
		}
	}
}

// Next blocks until there is something to act on.
func (m *Monitor) Next() (Update, error) {
	for {
		select {
		case <-m.ctx.Done():
			return Update{}, m.ctx.Err()

		case <-m.resync:
			requests, err := m.LoadPendingRequests()
			if err != nil {
				log.Errorf("resync failed: %v", err)
				continue
			}
			log.Debugf("resync loaded %d pending requests", len(requests))
			return Update{Requests: requests}, nil

		case res, ok := <-m.events:
			if !ok {
				return Update{}, ErrStreamClosed
			}
			update := m.makeUpdate(res)
			if update.Empty() {
				continue
			}
			return update, nil
		}
	}
}

func (m *Monitor) makeUpdate(res xydatatypes.TxResult) Update {
	var update Update
	for _, ev := range types.MakeEvents(res) {
		switch ev.Kind {
		case types.Created:
			if _, ok := config.FeedFor(ev.DataType); !ok {
				log.Debugf("no feed for %s, skipping %s", ev.DataType, ev.Request)
				continue
			}
			req, err := m.client.Request(m.ctx, ev.Request)
			if err != nil {
				log.Errorf("failed to query request %s: %v", ev.Request, err)
				continue
			}
			update.Requests = append(update.Requests, *req)
		case types.Completed:
			update.Completed = append(update.Completed, ev.Request)
		}
	}
	return update
}

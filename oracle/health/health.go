package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xydata/oracle/oracle/log"
)

// HealthCheck probes one dependency of the daemon.
type HealthCheck interface {
	Check(ctx context.Context) error
	Name() string
}

// HealthChecker runs its checks periodically and keeps the latest outcome.
type HealthChecker struct {
	checks   map[string]HealthCheck
	mutex    sync.RWMutex
	interval time.Duration
	status   map[string]HealthStatus
}

type HealthStatus struct {
	Healthy   bool      `json:"healthy"`
	LastCheck time.Time `json:"last_check"`
	LastError string    `json:"last_error,omitempty"`
}

func NewHealthChecker(interval time.Duration) *HealthChecker {
	return &HealthChecker{
		checks:   make(map[string]HealthCheck),
		status:   make(map[string]HealthStatus),
		interval: interval,
	}
}

// AddCheck registers check as healthy until its first run.
func (hc *HealthChecker) AddCheck(check HealthCheck) {
	hc.mutex.Lock()
	defer hc.mutex.Unlock()

	name := check.Name()
	hc.checks[name] = check
	hc.status[name] = HealthStatus{Healthy: true, LastCheck: time.Now()}

	log.Debugf("added health check: %s", name)
}

// Start runs the checks immediately and then every interval until ctx is done.
func (hc *HealthChecker) Start(ctx context.Context) {
	ticker := time.NewTicker(hc.interval)
	defer ticker.Stop()

	hc.RunChecks(ctx)

	for {
		select {
		case <-ticker.C:
			hc.RunChecks(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// RunChecks runs every check concurrently and waits for them.
func (hc *HealthChecker) RunChecks(ctx context.Context) {
	hc.mutex.RLock()
	checks := make([]HealthCheck, 0, len(hc.checks))
	for _, check := range hc.checks {
		checks = append(checks, check)
	}
	hc.mutex.RUnlock()

	var wg sync.WaitGroup
	for _, check := range checks {
		wg.Add(1)
		go func(check HealthCheck) {
			defer wg.Done()

			status := HealthStatus{Healthy: true, LastCheck: time.Now()}
			if err := check.Check(ctx); err != nil {
				status.Healthy = false
				status.LastError = err.Error()
				log.Errorf("health check failed - %s: %v", check.Name(), err)
			}

			hc.mutex.Lock()
			hc.status[check.Name()] = status
			hc.mutex.Unlock()
		}(check)
	}
	wg.Wait()
}

func (hc *HealthChecker) GetStatus() map[string]HealthStatus {
	hc.mutex.RLock()
	defer hc.mutex.RUnlock()

	result := make(map[string]HealthStatus, len(hc.status))
	for name, status := range hc.status {
		result[name] = status
	}
	return result
}

// IsHealthy reports whether every check last passed.
func (hc *HealthChecker) IsHealthy() bool {
	hc.mutex.RLock()
	defer hc.mutex.RUnlock()

	for _, status := range hc.status {
		if !status.Healthy {
			return false
		}
	}
	return true
}

// FuncCheck adapts a function into a named HealthCheck.
type FuncCheck struct {
	name      string
	checkFunc func(ctx context.Context) error
}

func NewFuncCheck(name string, checkFunc func(ctx context.Context) error) *FuncCheck {
	return &FuncCheck{name: name, checkFunc: checkFunc}
}

func (fc *FuncCheck) Check(ctx context.Context) error {
	return fc.checkFunc(ctx)
}

func (fc *FuncCheck) Name() string {
	return fc.name
}

// BacklogCheck fails when more than max requests are waiting.
func BacklogCheck(pending func() int, max int) *FuncCheck {
	return NewFuncCheck("backlog", func(context.Context) error {
		if n := pending(); n > max {
			return fmt.Errorf("%d requests pending, limit %d", n, max)
		}
		return nil
	})
}

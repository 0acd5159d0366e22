package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/mux"

	"github.com/xydata/oracle/oracle/log"
)

const Route = "/healthz"

// Report is the body served on /healthz.
type Report struct {
	Healthy bool                    `json:"healthy"`
	Checks  map[string]HealthStatus `json:"checks"`
}

func (hc *HealthChecker) Report() Report {
	return Report{Healthy: hc.IsHealthy(), Checks: hc.GetStatus()}
}

// Handler serves the latest report, answering 503 while any check fails.
func (hc *HealthChecker) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc(Route, func(w http.ResponseWriter, _ *http.Request) {
		report := hc.Report()
		code := http.StatusOK
		if !report.Healthy {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if err := json.NewEncoder(w).Encode(report); err != nil {
			log.Errorf("failed to write health report: %v", err)
		}
	}).Methods(http.MethodGet)
	return router
}

// Serve listens on addr until ctx is done.
func (hc *HealthChecker) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           hc.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("serving health on %s%s", addr, Route)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("health server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Fetch reads the report served by a running daemon at addr.
func Fetch(ctx context.Context, addr string, timeout time.Duration) (Report, error) {
	var report Report
	resp, err := resty.New().
		SetTimeout(timeout).
		R().
		SetContext(ctx).
		SetResult(&report).
		SetError(&report).
		Get("http://" + addr + Route)
	if err != nil {
		return Report{}, err
	}
	switch resp.StatusCode() {
	case http.StatusOK, http.StatusServiceUnavailable:
		return report, nil
	default:
		return Report{}, fmt.Errorf("unexpected status %s", resp.Status())
	}
}

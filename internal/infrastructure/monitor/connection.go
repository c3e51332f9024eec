package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/todo/repository"
)

// Monitor pings the document store on a cron schedule and caches the result
// for the health endpoint.
type Monitor struct {
	store    repository.Pinger
	driver   string
	interval time.Duration
	timeout  time.Duration
	cron     *cron.Cron
	logger   *zap.Logger

	mu     sync.RWMutex
	status Status
}

// New schedules a check every interval. The scheduler works in whole seconds,
// so interval is rounded to the nearest second.
func New(store repository.Pinger, driver string, interval time.Duration, logger *zap.Logger) (*Monitor, error) {
	interval = interval.Round(time.Second)
	if interval < time.Second {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := 3 * time.Second
	if interval < timeout {
		timeout = interval
	}

	m := &Monitor{
		store:    store,
		driver:   driver,
		interval: interval,
		timeout:  timeout,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger,
		status:   Status{Driver: driver},
	}

	if _, err := m.cron.AddFunc("@every "+interval.String(), m.Refresh); err != nil {
		return nil, fmt.Errorf("schedule store check: %w", err)
	}
	return m, nil
}

// Start performs an initial check and launches the scheduler.
func (m *Monitor) Start() {
	m.Refresh()
	m.cron.Start()
	m.logger.Info("store monitor started", zap.Duration("interval", m.interval))
}

// Stop waits for a running check to finish or ctx to expire.
func (m *Monitor) Stop(ctx context.Context) {
	stopCtx := m.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Online
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Refresh pings the store once and records the outcome.
func (m *Monitor) Refresh() {
	status := Status{Driver: m.driver, LastCheck: time.Now()}

	if m.store == nil {
		status.Error = "store not configured"
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		err := m.store.Ping(ctx)
		cancel()
		if err != nil {
			status.Error = err.Error()
		} else {
			status.Online = true
		}
	}

	m.mu.Lock()
	changed := m.status.Online != status.Online
	m.status = status
	m.mu.Unlock()

	if changed {
		if status.Online {
			m.logger.Info("store online", zap.String("driver", m.driver))
		} else {
			m.logger.Warn("store offline", zap.String("driver", m.driver), zap.String("error", status.Error))
		}
	}
}

package monitor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/todo/repository"
)

type fakePinger struct {
	err   atomic.Value
	calls atomic.Int32
}

func (f *fakePinger) Ping(context.Context) error {
	f.calls.Add(1)
	if err, ok := f.err.Load().(error); ok {
		return err
	}
	return nil
}

func newMonitor(t *testing.T, store repository.Pinger, driver string, interval time.Duration, logger *zap.Logger) *Monitor {
	t.Helper()
	m, err := New(store, driver, interval, logger)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return m
}

func TestRefreshTracksStoreState(t *testing.T) {
	pinger := &fakePinger{}
	m := newMonitor(t, pinger, "bolt", time.Minute, nil)

	if m.IsOnline() {
		t.Fatal("monitor must start offline until the first check")
	}

	m.Refresh()
	if !m.IsOnline() {
		t.Fatal("expected online after successful ping")
	}
	status := m.GetStatus()
	if status.Driver != "bolt" || status.LastCheck.IsZero() || status.Error != "" {
		t.Errorf("unexpected status %+v", status)
	}

	pinger.err.Store(errors.New("connection refused"))
	m.Refresh()
	if m.IsOnline() {
		t.Fatal("expected offline after failed ping")
	}
	if got := m.GetStatus().Error; got != "connection refused" {
		t.Errorf("Error: got %q", got)
	}
}

func TestNilStoreIsOffline(t *testing.T) {
	m := newMonitor(t, nil, "mongo", time.Minute, nil)
	m.Refresh()
	if m.IsOnline() {
		t.Error("nil store must be reported offline")
	}
}

func TestScheduleRunsChecks(t *testing.T) {
	pinger := &fakePinger{}
	m := newMonitor(t, pinger, "bolt", time.Second, nil)
	m.Start()
	defer m.Stop(context.Background())

	deadline := time.Now().Add(3 * time.Second)
	for pinger.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if got := pinger.calls.Load(); got < 2 {
		t.Errorf("expected scheduled pings, got %d calls", got)
	}
}

func TestIntervalRoundsToWholeSeconds(t *testing.T) {
	tests := []struct {
		interval time.Duration
		want     time.Duration
	}{
		{interval: 1500 * time.Millisecond, want: 2 * time.Second},
		{interval: 30 * time.Second, want: 30 * time.Second},
		{interval: 200 * time.Millisecond, want: 10 * time.Second},
	}
	for _, tt := range tests {
		m := newMonitor(t, nil, "bolt", tt.interval, nil)
		entries := m.cron.Entries()
		if len(entries) != 1 {
			t.Fatalf("%v: expected one scheduled check, got %d", tt.interval, len(entries))
		}
		schedule, ok := entries[0].Schedule.(cron.ConstantDelaySchedule)
		if !ok || schedule.Delay != tt.want || m.interval != tt.want {
			t.Errorf("%v: got schedule %+v interval %v, want %v", tt.interval, entries[0].Schedule, m.interval, tt.want)
		}
	}
}

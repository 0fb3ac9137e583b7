package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"medadhere/internal/device"
	"medadhere/internal/domain"
	"medadhere/internal/models"
	"medadhere/internal/repository"
	"medadhere/internal/service"
	"medadhere/internal/vitals"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeReader 可控的设备读取器
type fakeReader struct {
	mu      sync.Mutex
	body    string
	err     error
	calls   int
	started chan struct{} // 每次 Read 开始时发送
	release chan struct{} // 非 nil 时 Read 阻塞直到关闭
}

func (f *fakeReader) Read(ctx context.Context) (*models.DeviceReading, error) {
	f.mu.Lock()
	f.calls++
	body, err, started, release := f.body, f.err, f.started, f.release
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}
	if err != nil {
		return nil, err
	}
	var r models.DeviceReading
	if jerr := json.Unmarshal([]byte(body), &r); jerr != nil {
		return nil, jerr
	}
	return &r, nil
}

func (f *fakeReader) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var fixedNow = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func newTestMonitor(r Reader, opts Options) *Monitor {
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return fixedNow }
	}
	if opts.DeviceID == "" {
		opts.DeviceID = "192.168.1.100"
	}
	return New(r, vitals.NewSimulator(rand.New(rand.NewSource(7))), opts, zap.NewNop())
}

// recorder 记录收到的事件
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) HandleSample(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestAcquire_DeviceReading(t *testing.T) {
	reader := &fakeReader{body: `{"temperature":"36.7","heartbeat":512,"timestamp":123456}`}
	m := newTestMonitor(reader, Options{})
	rec := &recorder{}
	m.Subscribe(rec)

	ev, err := m.Acquire(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 36.7, ev.Sample.TemperatureC)
	assert.Equal(t, 80, ev.Sample.HeartRateBpm)
	assert.Equal(t, 98, ev.Sample.OxygenLevelPercent)
	assert.Equal(t, 45, ev.Sample.HumidityPercent)
	assert.Equal(t, models.SourceDevice, ev.Sample.Source)
	assert.True(t, ev.Sample.Connected)
	assert.Empty(t, ev.Alerts)
	assert.Equal(t, "192.168.1.100", ev.DeviceID)

	snap := m.Snapshot()
	assert.True(t, snap.Connected)
	assert.Equal(t, "Arduino Connected", snap.DeviceStatus)
	assert.Empty(t, snap.ConnectionError)
	assert.Len(t, snap.History, 1)
	require.NotNil(t, snap.Current)
	assert.Equal(t, fixedNow, snap.Current.CapturedAt)
	require.NotNil(t, snap.Statuses)
	assert.Equal(t, models.StatusNormal, snap.Statuses.Temperature)
	assert.Equal(t, 1, rec.Len())
}

func TestAcquire_HighTemperatureAlert(t *testing.T) {
	reader := &fakeReader{body: `{"temperature":"38.5","heartbeat":512}`}
	m := newTestMonitor(reader, Options{})

	ev, err := m.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"High temperature: 38.5°C"}, ev.Alerts)
	assert.Equal(t, []string{"High temperature: 38.5°C"}, m.Snapshot().Alerts)
}

func TestAcquire_DeviceFailureSwitchesToSimulator(t *testing.T) {
	reader := &fakeReader{err: fmt.Errorf("%w: connection refused", device.ErrDeviceUnreachable)}
	m := newTestMonitor(reader, Options{})
	rec := &recorder{}
	m.Subscribe(rec)

	_, err := m.Acquire(context.Background())
	require.ErrorIs(t, err, device.ErrDeviceUnreachable)

	snap := m.Snapshot()
	assert.False(t, snap.Connected)
	assert.True(t, snap.Simulation)
	assert.Equal(t, "Arduino Disconnected", snap.DeviceStatus)
	assert.Contains(t, snap.ConnectionError, "connection refused")
	assert.Empty(t, snap.History, "failed cycle appends nothing")
	assert.Nil(t, snap.Current)
	assert.Zero(t, rec.Len())

	// 下一轮走模拟器，不再访问设备
	ev, err := m.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, reader.Calls())
	assert.Equal(t, models.SourceSimulator, ev.Sample.Source)
	assert.False(t, ev.Sample.Connected)
	assert.Equal(t, domain.SimulatorDeviceID, ev.DeviceID)

	snap = m.Snapshot()
	assert.Equal(t, "Using simulated data", snap.ConnectionError)
	assert.Len(t, snap.History, 1)
}

func TestAcquire_DeviceTimeoutReportsConnectionTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	reader := device.NewReader(srv.URL, 30*time.Millisecond, zap.NewNop())
	m := newTestMonitor(reader, Options{})

	_, err := m.Acquire(context.Background())
	require.ErrorIs(t, err, device.ErrDeviceUnreachable)

	snap := m.Snapshot()
	assert.Equal(t, "Connection timeout", snap.ConnectionError)
	assert.True(t, snap.Simulation)
}

func TestAcquire_DeviceErrorStatus(t *testing.T) {
	reader := &fakeReader{err: fmt.Errorf("%w: Arduino responded with status: 500", device.ErrDeviceError)}
	m := newTestMonitor(reader, Options{})

	_, err := m.Acquire(context.Background())
	require.ErrorIs(t, err, device.ErrDeviceError)
	assert.Contains(t, m.Snapshot().ConnectionError, "Arduino responded with status: 500")
	assert.True(t, m.Simulation())
}

func TestAcquire_SkipsWhileCycleInFlight(t *testing.T) {
	reader := &fakeReader{
		body:    `{"temperature":"36.7","heartbeat":512}`,
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	m := newTestMonitor(reader, Options{})

	done := make(chan error, 1)
	go func() {
		_, err := m.Acquire(context.Background())
		done <- err
	}()
	<-reader.started

	_, err := m.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrCycleInFlight)

	close(reader.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, reader.Calls())
	assert.Len(t, m.Snapshot().History, 1)
}

func TestHistory_BoundedByOption(t *testing.T) {
	m := newTestMonitor(nil, Options{Simulation: true, HistorySize: 3})
	for i := 0; i < 5; i++ {
		_, err := m.Acquire(context.Background())
		require.NoError(t, err)
	}
	assert.Len(t, m.Snapshot().History, 3)
}

func TestStart_FiresImmediatelyThenOnInterval(t *testing.T) {
	m := newTestMonitor(nil, Options{Simulation: true, Interval: 20 * time.Millisecond})
	rec := &recorder{}
	m.Subscribe(rec)

	require.NoError(t, m.Start("user-1"))
	assert.Equal(t, StatePolling, m.State())
	assert.ErrorIs(t, m.Start("user-1"), ErrAlreadyPolling)

	require.Eventually(t, func() bool { return rec.Len() >= 3 }, 2*time.Second, 5*time.Millisecond)

	m.Stop()
	m.Wait()
	assert.Equal(t, StateIdle, m.State())
	assert.Equal(t, "user-1", m.Snapshot().OwnerID)

	// Stop 后不再触发
	n := rec.Len()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, n, rec.Len())

	// 重复 Stop 无副作用
	m.Stop()
}

func TestStart_FirstFireIsImmediate(t *testing.T) {
	m := newTestMonitor(nil, Options{Simulation: true, Interval: time.Hour})
	rec := &recorder{}
	m.Subscribe(rec)

	require.NoError(t, m.Start("user-1"))
	defer m.Stop()

	require.Eventually(t, func() bool { return rec.Len() == 1 }, time.Second, 5*time.Millisecond)
}

func TestStop_InFlightCycleStillApplies(t *testing.T) {
	reader := &fakeReader{
		body:    `{"temperature":"36.9","heartbeat":512}`,
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	m := newTestMonitor(reader, Options{Interval: time.Hour})

	require.NoError(t, m.Start("user-1"))
	<-reader.started

	m.Stop()
	assert.Equal(t, StateIdle, m.State())

	close(reader.release)
	m.Wait()

	snap := m.Snapshot()
	require.NotNil(t, snap.Current)
	assert.Equal(t, 36.9, snap.Current.TemperatureC)
	assert.Len(t, snap.History, 1)
}

func TestRestart_WhileCycleInFlight_StillFiresImmediately(t *testing.T) {
	reader := &fakeReader{
		body:    `{"temperature":"37.0","heartbeat":512}`,
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	m := newTestMonitor(reader, Options{Interval: time.Hour})

	require.NoError(t, m.Start("user-1"))
	<-reader.started
	m.Stop()

	// 上一轮仍阻塞在设备读取上
	require.NoError(t, m.Start("user-1"))
	defer m.Stop()
	assert.Equal(t, 1, reader.Calls())

	close(reader.release)
	require.Eventually(t, func() bool { return reader.Calls() == 2 }, time.Second, 5*time.Millisecond)
	<-reader.started
	require.Eventually(t, func() bool { return len(m.Snapshot().History) == 2 }, time.Second, 5*time.Millisecond)
}

func TestSetSimulation_KeepsPolling(t *testing.T) {
	reader := &fakeReader{body: `{"temperature":"36.7","heartbeat":512}`}
	m := newTestMonitor(reader, Options{Interval: time.Hour})

	require.NoError(t, m.Start("user-1"))
	defer m.Stop()
	require.Eventually(t, func() bool { return reader.Calls() == 1 }, time.Second, 5*time.Millisecond)
	m.Wait()

	m.SetSimulation(true)
	assert.Equal(t, StatePolling, m.State())
	assert.True(t, m.Simulation())

	ev, err := m.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.SourceSimulator, ev.Sample.Source)
	assert.Equal(t, 1, reader.Calls())
}

func TestAutoSave_AuthRequiredDoesNotAffectHistory(t *testing.T) {
	svc := service.NewVitalsService(repository.NewMemoryVitalsRepository(), "192.168.1.100", zap.NewNop())
	saver := NewAutoSaver(svc, true, zap.NewNop())

	m := newTestMonitor(nil, Options{Simulation: true})
	m.Subscribe(saver)

	for i := 0; i < 2; i++ {
		_, err := m.Acquire(context.Background())
		require.NoError(t, err)
	}

	st := saver.Status()
	assert.Contains(t, st.LastError, "Failed to save vitals")
	assert.Contains(t, st.LastError, service.ErrAuthRequired.Error())
	assert.Nil(t, st.LastSavedAt)

	snap := m.Snapshot()
	assert.Len(t, snap.History, 2)
	assert.NotNil(t, snap.Current)
}

func TestAutoSave_SavesForOwner(t *testing.T) {
	repo := repository.NewMemoryVitalsRepository()
	svc := service.NewVitalsService(repo, "192.168.1.100", zap.NewNop())
	saver := NewAutoSaver(svc, true, zap.NewNop())

	reader := &fakeReader{body: `{"temperature":"36.7","heartbeat":512}`}
	m := newTestMonitor(reader, Options{Interval: time.Hour})
	m.Subscribe(saver)

	require.NoError(t, m.Start("user-1"))
	require.Eventually(t, func() bool { return saver.Status().LastSavedAt != nil }, time.Second, 5*time.Millisecond)
	m.Stop()
	m.Wait()

	list, err := repo.ListVitals(context.Background(), "user-1", 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "device", list[0].MeasurementSource)
	assert.Equal(t, "192.168.1.100", list[0].DeviceID)
	assert.Empty(t, saver.Status().LastError)
}

func TestAutoSave_Disabled(t *testing.T) {
	repo := repository.NewMemoryVitalsRepository()
	saver := NewAutoSaver(service.NewVitalsService(repo, "", zap.NewNop()), false, zap.NewNop())

	saver.HandleSample(context.Background(), Event{OwnerID: "user-1"})
	list, err := repo.ListVitals(context.Background(), "user-1", 10)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.False(t, saver.Status().Enabled)

	saver.SetEnabled(true)
	saver.HandleSample(context.Background(), Event{OwnerID: "user-1", Sample: models.VitalsSample{CapturedAt: fixedNow}})
	list, err = repo.ListVitals(context.Background(), "user-1", 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"medadhere/internal/device"
	"medadhere/internal/domain"
	"medadhere/internal/metrics"
	"medadhere/internal/models"
	"medadhere/internal/vitals"

	"go.uber.org/zap"
)

// DefaultInterval 轮询间隔（与设备传感器读数周期一致）
const DefaultInterval = 10 * time.Second

var (
	// ErrAlreadyPolling 重复启动
	ErrAlreadyPolling = errors.New("monitor is already polling")
	// ErrCycleInFlight 上一轮采集尚未完成，本次触发被跳过
	ErrCycleInFlight = errors.New("acquisition cycle already in flight")
)

// State 调度器状态
type State string

const (
	StateIdle    State = "idle"
	StatePolling State = "polling"
)

// Reader 设备读取接口（device.Reader 实现）
type Reader interface {
	Read(ctx context.Context) (*models.DeviceReading, error)
}

// Event 一次成功采集后广播给订阅者的事件
type Event struct {
	Sample    models.VitalsSample
	Statuses  models.VitalStatuses
	Alerts    []string
	Defaulted models.Defaulted
	OwnerID   string
	DeviceID  string
}

// Subscriber 样本订阅者（持久化、缓存、MQTT 转发等）
type Subscriber interface {
	HandleSample(ctx context.Context, ev Event)
}

// SubscriberFunc 函数适配器
type SubscriberFunc func(ctx context.Context, ev Event)

func (f SubscriberFunc) HandleSample(ctx context.Context, ev Event) { f(ctx, ev) }

// Options 调度器参数
type Options struct {
	Interval    time.Duration
	HistorySize int
	Simulation  bool
	DeviceID    string
	Clock       func() time.Time
}

// Monitor 轮询调度器：持有采集状态，Idle -> Polling -> Idle
type Monitor struct {
	reader  Reader
	sim     *vitals.Simulator
	history *vitals.History
	logger  *zap.Logger

	interval time.Duration
	deviceID string
	clock    func() time.Time

	mu              sync.RWMutex
	state           State
	simulation      bool
	connected       bool
	connectionError string
	current         *models.VitalsSample
	statuses        models.VitalStatuses
	alerts          []string
	defaulted       models.Defaulted
	lastCycleAt     time.Time
	ownerID         string
	cancel          context.CancelFunc
	done            chan struct{}
	cycleDone       chan struct{} // 非 nil 表示有一轮采集在途

	cycles sync.WaitGroup

	subsMu      sync.RWMutex
	subscribers []Subscriber
}

// New 创建调度器
func New(reader Reader, sim *vitals.Simulator, opts Options, logger *zap.Logger) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if sim == nil {
		sim = vitals.NewSimulator(nil)
	}
	return &Monitor{
		reader:     reader,
		sim:        sim,
		history:    vitals.NewHistory(opts.HistorySize),
		logger:     logger,
		interval:   opts.Interval,
		deviceID:   opts.DeviceID,
		clock:      opts.Clock,
		state:      StateIdle,
		simulation: opts.Simulation,
		alerts:     []string{},
	}
}

// Subscribe 注册订阅者
func (m *Monitor) Subscribe(s Subscriber) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	m.subscribers = append(m.subscribers, s)
}

// Start 进入 Polling：立即采集一次，然后每个 interval 采集
// ownerID 为自动保存记录的归属用户
func (m *Monitor) Start(ownerID string) error {
	m.mu.Lock()
	if m.state == StatePolling {
		m.mu.Unlock()
		return ErrAlreadyPolling
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.state = StatePolling
	m.ownerID = ownerID
	m.cancel = cancel
	m.done = done
	m.mu.Unlock()

	m.logger.Info("Vitals monitor started",
		zap.String("owner_id", ownerID),
		zap.Duration("interval", m.interval),
		zap.Bool("simulation", m.Simulation()),
	)

	go m.loop(ctx, done)
	return nil
}

// Stop 回到 Idle：只取消之后的触发，正在进行的采集会完成并生效
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.state != StatePolling {
		m.mu.Unlock()
		return
	}
	cancel, done := m.cancel, m.done
	m.state = StateIdle
	m.cancel = nil
	m.done = nil
	m.mu.Unlock()

	cancel()
	<-done
	m.logger.Info("Vitals monitor stopped")
}

// Wait 等待所有在途采集结束
func (m *Monitor) Wait() {
	m.cycles.Wait()
}

func (m *Monitor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	// 首次采集不跳过：Stop 前发起的一轮仍在途时，等它结束再采集
	for busy := m.tryFire(); busy != nil; busy = m.tryFire() {
		select {
		case <-ctx.Done():
			return
		case <-busy:
		}
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.fire()
		}
	}
}

// fire 定时触发；上一轮未完成时跳过（不排队）
func (m *Monitor) fire() {
	if busy := m.tryFire(); busy != nil {
		metrics.CyclesSkipped.Inc()
		m.logger.Debug("Skipping poll fire, previous cycle still in flight")
	}
}

// tryFire 异步执行一轮采集；已有在途采集时返回其结束信号
func (m *Monitor) tryFire() <-chan struct{} {
	cycleDone, ok := m.beginCycle()
	if !ok {
		return cycleDone
	}
	m.cycles.Add(1)
	go func() {
		defer m.cycles.Done()
		defer m.endCycle(cycleDone)
		// 不继承 loop 的 ctx：Stop 不中断在途请求
		_, _ = m.cycle(context.Background())
	}()
	return nil
}

// Acquire 同步执行一轮采集（手动刷新）
func (m *Monitor) Acquire(ctx context.Context) (*Event, error) {
	cycleDone, ok := m.beginCycle()
	if !ok {
		metrics.CyclesSkipped.Inc()
		return nil, ErrCycleInFlight
	}
	defer m.endCycle(cycleDone)
	return m.cycle(ctx)
}

// beginCycle 占用在途槽位；已被占用时返回 false 和当前一轮的结束信号
func (m *Monitor) beginCycle() (chan struct{}, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cycleDone != nil {
		return m.cycleDone, false
	}
	m.cycleDone = make(chan struct{})
	return m.cycleDone, true
}

func (m *Monitor) endCycle(cycleDone chan struct{}) {
	m.mu.Lock()
	m.cycleDone = nil
	m.mu.Unlock()
	close(cycleDone)
}

func (m *Monitor) cycle(ctx context.Context) (*Event, error) {
	m.mu.RLock()
	simulation := m.simulation
	ownerID := m.ownerID
	m.mu.RUnlock()

	now := m.clock()

	var (
		sample    models.VitalsSample
		defaulted models.Defaulted
		connErr   string
		deviceID  string
	)

	if simulation || m.reader == nil {
		sample = m.sim.Generate(now)
		connErr = "Using simulated data"
		deviceID = domain.SimulatorDeviceID
		metrics.AcquisitionsTotal.WithLabelValues(string(models.SourceSimulator), "ok").Inc()
	} else {
		raw, err := m.reader.Read(ctx)
		if err != nil {
			m.onDeviceFailure(err)
			return nil, err
		}
		res := vitals.Normalize(raw, now)
		sample = res.Sample
		defaulted = res.Defaulted
		deviceID = m.deviceID
		metrics.AcquisitionsTotal.WithLabelValues(string(models.SourceDevice), "ok").Inc()
		if defaulted.Temperature || defaulted.HeartRate {
			m.logger.Warn("Device reading had unparseable fields, zero substituted",
				zap.Bool("temperature", defaulted.Temperature),
				zap.Bool("heart_rate", defaulted.HeartRate),
				zap.String("device_timestamp", res.DeviceTimestamp),
			)
		}
	}

	statuses := vitals.Classify(sample)
	alerts := vitals.Evaluate(sample)
	messages := make([]string, 0, len(alerts))
	for _, a := range alerts {
		messages = append(messages, a.Message)
		metrics.AlertsTotal.WithLabelValues(a.Vital).Inc()
	}

	m.mu.Lock()
	current := sample
	m.current = &current
	m.connected = sample.Connected
	m.connectionError = connErr
	m.statuses = statuses
	m.alerts = messages
	m.defaulted = defaulted
	m.lastCycleAt = now
	m.history.Append(sample)
	m.mu.Unlock()

	if sample.Connected {
		metrics.DeviceConnected.Set(1)
	} else {
		metrics.DeviceConnected.Set(0)
	}

	ev := Event{
		Sample:    sample,
		Statuses:  statuses,
		Alerts:    append([]string(nil), messages...),
		Defaulted: defaulted,
		OwnerID:   ownerID,
		DeviceID:  deviceID,
	}
	m.publish(ctx, ev)
	return &ev, nil
}

// onDeviceFailure 设备失败：标记断开并切换到模拟模式（下一轮生效）
func (m *Monitor) onDeviceFailure(err error) {
	result := "error"
	msg := device.FailureMessage(err)
	if errors.Is(err, device.ErrDeviceUnreachable) {
		result = "unreachable"
	}
	metrics.AcquisitionsTotal.WithLabelValues(string(models.SourceDevice), result).Inc()
	metrics.DeviceConnected.Set(0)

	m.mu.Lock()
	m.connected = false
	m.connectionError = msg
	m.simulation = true
	m.mu.Unlock()

	m.logger.Warn("Failed to fetch device data, switching to simulation",
		zap.String("result", result),
		zap.Error(err),
	)
}

func (m *Monitor) publish(ctx context.Context, ev Event) {
	m.subsMu.RLock()
	subs := append([]Subscriber(nil), m.subscribers...)
	m.subsMu.RUnlock()

	for _, s := range subs {
		s.HandleSample(ctx, ev)
	}
}

// SetSimulation 切换数据来源；不重启定时器，仅影响下一次触发
func (m *Monitor) SetSimulation(enabled bool) {
	m.mu.Lock()
	m.simulation = enabled
	m.mu.Unlock()
	m.logger.Info("Vitals monitor source changed", zap.Bool("simulation", enabled))
}

func (m *Monitor) Simulation() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.simulation
}

func (m *Monitor) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Snapshot 调度器当前状态（只读副本）
type Snapshot struct {
	State           State                 `json:"state"`
	Simulation      bool                  `json:"simulation"`
	Connected       bool                  `json:"connected"`
	DeviceStatus    string                `json:"device_status"`
	ConnectionError string                `json:"connection_error,omitempty"`
	Current         *models.VitalsSample  `json:"current,omitempty"`
	Statuses        *models.VitalStatuses `json:"statuses,omitempty"`
	Defaulted       *models.Defaulted     `json:"defaulted,omitempty"`
	Alerts          []string              `json:"alerts"`
	History         []models.HistoryPoint `json:"history"`
	LastCycleAt     *time.Time            `json:"last_cycle_at,omitempty"`
	OwnerID         string                `json:"owner_id,omitempty"`
}

// Snapshot 返回当前状态
func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Snapshot{
		State:           m.state,
		Simulation:      m.simulation,
		Connected:       m.connected,
		DeviceStatus:    "Arduino Disconnected",
		ConnectionError: m.connectionError,
		Alerts:          append([]string{}, m.alerts...),
		History:         m.history.Snapshot(),
		OwnerID:         m.ownerID,
	}
	if m.connected {
		s.DeviceStatus = "Arduino Connected"
	}
	if m.current != nil {
		current := *m.current
		statuses := m.statuses
		defaulted := m.defaulted
		last := m.lastCycleAt
		s.Current = &current
		s.Statuses = &statuses
		s.Defaulted = &defaulted
		s.LastCycleAt = &last
	}
	return s
}

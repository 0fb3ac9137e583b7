package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"medadhere/internal/domain"
	"medadhere/internal/models"

	"go.uber.org/zap"
)

// Saver 持久化网关（service.VitalsService 实现）
type Saver interface {
	Save(ctx context.Context, sample models.VitalsSample, userID string) (*domain.VitalRecord, error)
}

// AutoSaveStatus 自动保存状态（前端提示用）
type AutoSaveStatus struct {
	Enabled     bool       `json:"enabled"`
	LastSavedAt *time.Time `json:"last_saved_at,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}

// AutoSaver 每次采集后保存样本；失败只记录提示，不影响轮询
type AutoSaver struct {
	saver   Saver
	logger  *zap.Logger
	enabled atomic.Bool

	mu        sync.RWMutex
	lastSaved time.Time
	lastError string
}

// NewAutoSaver 创建自动保存订阅者
func NewAutoSaver(saver Saver, enabled bool, logger *zap.Logger) *AutoSaver {
	a := &AutoSaver{saver: saver, logger: logger}
	a.enabled.Store(enabled)
	return a
}

func (a *AutoSaver) SetEnabled(enabled bool) { a.enabled.Store(enabled) }

// HandleSample 实现 Subscriber
func (a *AutoSaver) HandleSample(ctx context.Context, ev Event) {
	if !a.enabled.Load() {
		return
	}

	rec, err := a.saver.Save(ctx, ev.Sample, ev.OwnerID)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.lastError = "Failed to save vitals: " + err.Error()
		a.logger.Warn("Auto-save failed",
			zap.String("owner_id", ev.OwnerID),
			zap.Error(err),
		)
		return
	}
	a.lastSaved = rec.RecordedAt
	a.lastError = ""
	a.logger.Debug("Vitals auto-saved", zap.String("record_id", rec.ID))
}

// Status 当前自动保存状态
func (a *AutoSaver) Status() AutoSaveStatus {
	a.mu.RLock()
	defer a.mu.RUnlock()
	st := AutoSaveStatus{Enabled: a.enabled.Load(), LastError: a.lastError}
	if !a.lastSaved.IsZero() {
		t := a.lastSaved
		st.LastSavedAt = &t
	}
	return st
}

package httpapi

import (
	"context"
	"errors"
	"net/http"

	"medadhere/internal/monitor"
	"medadhere/internal/store"

	"go.uber.org/zap"
)

// LatestReader 最新样本缓存（store.VitalsCache 实现，可为空）
type LatestReader interface {
	GetLatest(ctx context.Context) (*store.LatestVitals, error)
}

// MonitorHandler 采集调度控制
type MonitorHandler struct {
	monitor  *monitor.Monitor
	autoSave *monitor.AutoSaver
	latest   LatestReader
	logger   *zap.Logger
}

func NewMonitorHandler(m *monitor.Monitor, autoSave *monitor.AutoSaver, latest LatestReader, logger *zap.Logger) *MonitorHandler {
	return &MonitorHandler{monitor: m, autoSave: autoSave, latest: latest, logger: logger}
}

type monitorStatus struct {
	monitor.Snapshot
	AutoSave monitor.AutoSaveStatus `json:"auto_save"`
}

func (h *MonitorHandler) status() monitorStatus {
	st := monitorStatus{Snapshot: h.monitor.Snapshot()}
	if h.autoSave != nil {
		st.AutoSave = h.autoSave.Status()
	}
	return st
}

// Get GET /api/monitor
func (h *MonitorHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(h.status()))
}

// Start POST /api/monitor/start，调用者成为自动保存记录的归属用户
func (h *MonitorHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromRequest(r)
	if err := h.monitor.Start(userID); err != nil {
		if errors.Is(err, monitor.ErrAlreadyPolling) {
			writeJSON(w, http.StatusConflict, Fail(err.Error()))
			return
		}
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	if userID == "" {
		h.logger.Warn("Monitor started without a user, auto-save will be rejected")
	}
	writeJSON(w, http.StatusOK, Ok(h.status()))
}

// Stop POST /api/monitor/stop
func (h *MonitorHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.monitor.Stop()
	writeJSON(w, http.StatusOK, Ok(h.status()))
}

// Refresh POST /api/monitor/refresh 立即采集一次
func (h *MonitorHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if _, err := h.monitor.Acquire(r.Context()); err != nil {
		if errors.Is(err, monitor.ErrCycleInFlight) {
			writeJSON(w, http.StatusConflict, Fail(err.Error()))
			return
		}
		// 设备失败已记录在状态中（已切到模拟模式）
		h.logger.Debug("Manual refresh failed", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, Ok(h.status()))
}

type togglePayload struct {
	Enabled *bool `json:"enabled"`
}

func readToggle(w http.ResponseWriter, r *http.Request) (bool, bool) {
	var p togglePayload
	if err := readBodyJSON(r, maxBodyBytes, &p); err != nil || p.Enabled == nil {
		writeJSON(w, http.StatusBadRequest, Fail("enabled is required"))
		return false, false
	}
	return *p.Enabled, true
}

// SetSimulation PUT /api/monitor/simulation {enabled}
func (h *MonitorHandler) SetSimulation(w http.ResponseWriter, r *http.Request) {
	enabled, ok := readToggle(w, r)
	if !ok {
		return
	}
	h.monitor.SetSimulation(enabled)
	writeJSON(w, http.StatusOK, Ok(h.status()))
}

// SetAutoSave PUT /api/monitor/autosave {enabled}
func (h *MonitorHandler) SetAutoSave(w http.ResponseWriter, r *http.Request) {
	if h.autoSave == nil {
		writeJSON(w, http.StatusNotImplemented, Fail("auto-save is not configured"))
		return
	}
	enabled, ok := readToggle(w, r)
	if !ok {
		return
	}
	h.autoSave.SetEnabled(enabled)
	writeJSON(w, http.StatusOK, Ok(h.status()))
}

// Latest GET /api/monitor/latest 读取 Redis 中的最新样本（多实例共享）
func (h *MonitorHandler) Latest(w http.ResponseWriter, r *http.Request) {
	if h.latest == nil {
		writeJSON(w, http.StatusNotFound, Fail("latest cache is disabled"))
		return
	}
	latest, err := h.latest.GetLatest(r.Context())
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			writeJSON(w, http.StatusNotFound, Fail("no sample yet"))
			return
		}
		h.logger.Error("Failed to read latest vitals", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(latest))
}

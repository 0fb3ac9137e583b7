package vitals

import (
	"sync"

	"medadhere/internal/models"
)

// DefaultHistorySize 图表窗口默认保留的点数
const DefaultHistorySize = 20

// History 有界的近期样本窗口（FIFO 淘汰）
type History struct {
	mu     sync.RWMutex
	size   int
	points []models.HistoryPoint
}

// NewHistory 创建历史窗口；size <= 0 时使用 DefaultHistorySize
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{size: size, points: make([]models.HistoryPoint, 0, size)}
}

// Append 追加样本投影，超出容量时从头部淘汰
func (h *History) Append(s models.VitalsSample) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.points = append(h.points, models.HistoryPoint{
		Time:        s.CapturedAt,
		Temperature: s.TemperatureC,
		HeartRate:   s.HeartRateBpm,
		OxygenLevel: s.OxygenLevelPercent,
		Humidity:    s.HumidityPercent,
	})
	if over := len(h.points) - h.size; over > 0 {
		// 复制到新切片，避免底层数组无限增长
		kept := make([]models.HistoryPoint, h.size)
		copy(kept, h.points[over:])
		h.points = kept
	}
}

// Snapshot 返回窗口副本
func (h *History) Snapshot() []models.HistoryPoint {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]models.HistoryPoint, len(h.points))
	copy(out, h.points)
	return out
}

// Len 当前窗口内的点数
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.points)
}

func (h *History) capacity() int { return h.size }

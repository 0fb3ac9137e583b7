package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"medadhere/internal/device"
	"medadhere/internal/monitor"
	"medadhere/internal/vitals"

	"go.uber.org/zap"
)

// ArduinoHandler 服务端代读设备（浏览器无法直接访问局域网设备时使用）
type ArduinoHandler struct {
	reader monitor.Reader
	logger *zap.Logger
	now    func() time.Time
}

func NewArduinoHandler(reader monitor.Reader, logger *zap.Logger) *ArduinoHandler {
	return &ArduinoHandler{reader: reader, logger: logger, now: time.Now}
}

type arduinoResponse struct {
	Temperature      float64         `json:"temperature"`
	HeartRate        int             `json:"heartRate"`
	OxygenLevel      int             `json:"oxygenLevel"`
	Humidity         int             `json:"humidity"`
	Timestamp        string          `json:"timestamp"`
	ArduinoTimestamp json.RawMessage `json:"arduinoTimestamp,omitempty"`
	Connected        bool            `json:"connected"`
	Error            string          `json:"error,omitempty"`
	Source           string          `json:"source"`
}

// GetData GET /api/arduino
func (h *ArduinoHandler) GetData(w http.ResponseWriter, r *http.Request) {
	now := h.now().UTC()

	raw, err := h.reader.Read(r.Context())
	if err != nil {
		h.logger.Warn("Arduino connection error", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, arduinoResponse{
			Timestamp: now.Format(time.RFC3339Nano),
			Connected: false,
			Error:     device.FailureMessage(err),
			Source:    "error",
		})
		return
	}

	res := vitals.Normalize(raw, now)
	writeJSON(w, http.StatusOK, arduinoResponse{
		Temperature:      res.Sample.TemperatureC,
		HeartRate:        res.Sample.HeartRateBpm,
		OxygenLevel:      res.Sample.OxygenLevelPercent,
		Humidity:         res.Sample.HumidityPercent,
		Timestamp:        now.Format(time.RFC3339Nano),
		ArduinoTimestamp: raw.Timestamp,
		Connected:        true,
		Source:           "arduino",
	})
}

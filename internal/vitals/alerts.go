package vitals

import (
	"fmt"
	"strconv"

	"medadhere/internal/models"
)

// 报警阈值（文本报警，比状态着色范围更窄）
const (
	HighTemperatureC = 38.0
	LowTemperatureC  = 35.5
	HighHeartRate    = 100
	LowHeartRate     = 60
	LowOxygenLevel   = 95
)

// 报警涉及的体征
const (
	VitalTemperature = "temperature"
	VitalHeartRate   = "heart_rate"
	VitalOxygenLevel = "oxygen_level"
)

// Alert 一条越限报警
type Alert struct {
	Vital   string
	Message string
}

// Evaluate 根据固定阈值评估样本
// 无状态：同一样本永远得到同一结果；每项体征最多一条
func Evaluate(s models.VitalsSample) []Alert {
	alerts := []Alert{}

	if s.TemperatureC > HighTemperatureC {
		alerts = append(alerts, Alert{VitalTemperature, "High temperature: " + formatTemp(s.TemperatureC) + "°C"})
	} else if s.TemperatureC < LowTemperatureC {
		alerts = append(alerts, Alert{VitalTemperature, "Low temperature: " + formatTemp(s.TemperatureC) + "°C"})
	}

	if s.HeartRateBpm > HighHeartRate {
		alerts = append(alerts, Alert{VitalHeartRate, fmt.Sprintf("High heart rate: %d BPM", s.HeartRateBpm)})
	} else if s.HeartRateBpm < LowHeartRate {
		alerts = append(alerts, Alert{VitalHeartRate, fmt.Sprintf("Low heart rate: %d BPM", s.HeartRateBpm)})
	}

	if s.OxygenLevelPercent < LowOxygenLevel {
		alerts = append(alerts, Alert{VitalOxygenLevel, fmt.Sprintf("Low oxygen level: %d%%", s.OxygenLevelPercent)})
	}

	return alerts
}

// EvaluateAlerts 返回报警文本列表
func EvaluateAlerts(s models.VitalsSample) []string {
	alerts := Evaluate(s)
	out := make([]string, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.Message)
	}
	return out
}

func formatTemp(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

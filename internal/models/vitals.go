package models

import (
	"encoding/json"
	"time"
)

// Source 样本来源
type Source string

const (
	SourceDevice    Source = "device"
	SourceSimulator Source = "simulator"
)

// VitalsSample 一次采集得到的完整生命体征样本（所有字段必有值）
type VitalsSample struct {
	TemperatureC       float64   `json:"temperature"`
	HeartRateBpm       int       `json:"heartRate"`
	OxygenLevelPercent int       `json:"oxygenLevel"`
	HumidityPercent    int       `json:"humidity"`
	CapturedAt         time.Time `json:"timestamp"`
	Source             Source    `json:"source"`
	Connected          bool      `json:"connected"`
}

// DeviceReading 设备 GET /data 返回的原始数据
// temperature 可能是字符串或数字，heartbeat 为 0-1023 模拟量
type DeviceReading struct {
	Temperature json.RawMessage `json:"temperature"`
	Heartbeat   json.RawMessage `json:"heartbeat"`
	Timestamp   json.RawMessage `json:"timestamp"`
}

// HistoryPoint 历史窗口中的一个点（图表用）
type HistoryPoint struct {
	Time        time.Time `json:"time"`
	Temperature float64   `json:"temperature"`
	HeartRate   int       `json:"heartRate"`
	OxygenLevel int       `json:"oxygenLevel"`
	Humidity    int       `json:"humidity"`
}

// Status 单项体征的状态等级
type Status string

const (
	StatusNormal   Status = "normal"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// VitalStatuses 每项体征的状态（UI 着色用）
type VitalStatuses struct {
	Temperature Status `json:"temperature"`
	HeartRate   Status `json:"heartRate"`
	OxygenLevel Status `json:"oxygenLevel"`
	Humidity    Status `json:"humidity"`
}

// Defaulted 标记哪些字段是默认值替代的（而非真实读数）
type Defaulted struct {
	Temperature bool `json:"temperature"`
	HeartRate   bool `json:"heartRate"`
	OxygenLevel bool `json:"oxygenLevel"`
	Humidity    bool `json:"humidity"`
}

// Any 是否有任一字段被默认值替代
func (d Defaulted) Any() bool {
	return d.Temperature || d.HeartRate || d.OxygenLevel || d.Humidity
}

package domain

import "time"

// 持久化记录的 measurement_source
const (
	MeasurementSourceDevice = "device"
	MeasurementSourceManual = "manual"
)

// SimulatorDeviceID 模拟数据的 device_id
const SimulatorDeviceID = "simulator"

// VitalRecord vitals 表记录（创建后不修改，只能由所属用户删除）
type VitalRecord struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	TemperatureCelsius float64   `json:"temperature_celsius"`
	HeartRateBpm       int       `json:"heart_rate_bpm"`
	OxygenLevelPercent int       `json:"oxygen_level_percent"`
	HumidityPercent    int       `json:"humidity_percent"`
	MeasurementSource  string    `json:"measurement_source"`
	DeviceID           string    `json:"device_id"`
	RecordedAt         time.Time `json:"recorded_at"`
	Notes              *string   `json:"notes,omitempty"`
}

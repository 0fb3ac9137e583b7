package vitals

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"medadhere/internal/models"
)

// 设备不提供的体征使用固定默认值
const (
	DefaultOxygenLevel = 98
	DefaultHumidity    = 45
)

// 心跳模拟量（10 位 ADC）映射到 60-100 BPM 的显示区间
// 这是显示用的估算，不是真实心率计算
const (
	heartbeatADCMax = 1023
	heartRateFloor  = 60
	heartRateSpan   = 40
)

// NormalizeResult 归一化结果：样本 + 每个字段是否为默认值替代
type NormalizeResult struct {
	Sample          models.VitalsSample
	Defaulted       models.Defaulted
	DeviceTimestamp string // 设备上报的 timestamp 原文
}

// Normalize 将设备原始数据转换为标准样本，永不失败
// 无法解析的数值以 0 代替，并在 Defaulted 中标记
func Normalize(raw *models.DeviceReading, now time.Time) NormalizeResult {
	var res NormalizeResult
	if raw == nil {
		raw = &models.DeviceReading{}
	}

	temp, ok := parseNumber(raw.Temperature)
	if !ok {
		temp = 0
		res.Defaulted.Temperature = true
	}

	heartRate := 0
	if hb, ok := parseNumber(raw.Heartbeat); ok {
		heartRate = HeartbeatToBPM(hb)
	} else {
		res.Defaulted.HeartRate = true
	}

	res.Defaulted.OxygenLevel = true
	res.Defaulted.Humidity = true

	res.Sample = models.VitalsSample{
		TemperatureC:       temp,
		HeartRateBpm:       heartRate,
		OxygenLevelPercent: DefaultOxygenLevel,
		HumidityPercent:    DefaultHumidity,
		CapturedAt:         now,
		Source:             models.SourceDevice,
		Connected:          true,
	}
	res.DeviceTimestamp = rawText(raw.Timestamp)
	return res
}

// HeartbeatToBPM floor(60 + h/1023*40)
func HeartbeatToBPM(heartbeat float64) int {
	return int(math.Floor(heartRateFloor + (heartbeat/heartbeatADCMax)*heartRateSpan))
}

// 字符串取最长的前导数字，"36.7 C" -> 36.7
var leadingFloat = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)

// parseNumber 解析数字或数字字符串
func parseNumber(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}

	var f float64
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		prefix := leadingFloat.FindString(strings.TrimSpace(s))
		if prefix == "" {
			return 0, false
		}
		v, err := strconv.ParseFloat(prefix, 64)
		if err != nil {
			return 0, false
		}
		f = v
	} else if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func rawText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

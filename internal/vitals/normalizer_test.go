package vitals

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"medadhere/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reading(t *testing.T, body string) *models.DeviceReading {
	t.Helper()
	var r models.DeviceReading
	require.NoError(t, json.Unmarshal([]byte(body), &r))
	return &r
}

func TestHeartbeatToBPM_RangeOverADC(t *testing.T) {
	for h := 0; h <= 1023; h++ {
		bpm := HeartbeatToBPM(float64(h))
		want := int(math.Floor(60 + float64(h)/1023*40))
		require.Equal(t, want, bpm, "heartbeat=%d", h)
		require.GreaterOrEqual(t, bpm, 60, "heartbeat=%d", h)
		require.LessOrEqual(t, bpm, 100, "heartbeat=%d", h)
	}
	assert.Equal(t, 60, HeartbeatToBPM(0))
	assert.Equal(t, 100, HeartbeatToBPM(1023))
}

func TestNormalize_StringTemperature(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	res := Normalize(reading(t, `{"temperature":"36.7","heartbeat":512,"timestamp":"t1"}`), now)

	s := res.Sample
	assert.Equal(t, 36.7, s.TemperatureC)
	assert.Equal(t, 80, s.HeartRateBpm)
	assert.Equal(t, 98, s.OxygenLevelPercent)
	assert.Equal(t, 45, s.HumidityPercent)
	assert.Equal(t, now, s.CapturedAt)
	assert.Equal(t, models.SourceDevice, s.Source)
	assert.True(t, s.Connected)
	assert.Equal(t, "t1", res.DeviceTimestamp)

	assert.False(t, res.Defaulted.Temperature)
	assert.False(t, res.Defaulted.HeartRate)
	assert.True(t, res.Defaulted.OxygenLevel)
	assert.True(t, res.Defaulted.Humidity)
}

func TestNormalize_NumericTemperature(t *testing.T) {
	res := Normalize(reading(t, `{"temperature":37.25,"heartbeat":"1023","timestamp":12345}`), time.Now())
	assert.Equal(t, 37.25, res.Sample.TemperatureC)
	assert.Equal(t, 100, res.Sample.HeartRateBpm)
	assert.Equal(t, "12345", res.DeviceTimestamp)
	assert.False(t, res.Defaulted.Temperature)
}

func TestNormalize_TemperatureWithUnitSuffix(t *testing.T) {
	res := Normalize(reading(t, `{"temperature":"36.7 C","heartbeat":512}`), time.Now())
	assert.Equal(t, 36.7, res.Sample.TemperatureC)
	assert.False(t, res.Defaulted.Temperature)

	res = Normalize(reading(t, `{"temperature":"37.2°","heartbeat":"512bpm"}`), time.Now())
	assert.Equal(t, 37.2, res.Sample.TemperatureC)
	assert.Equal(t, 80, res.Sample.HeartRateBpm)
	assert.False(t, res.Defaulted.Temperature)
	assert.False(t, res.Defaulted.HeartRate)
}

func TestNormalize_UnparseableFieldsDefaultToZero(t *testing.T) {
	res := Normalize(reading(t, `{"temperature":"n/a","timestamp":"t2"}`), time.Now())

	assert.Equal(t, 0.0, res.Sample.TemperatureC)
	assert.Equal(t, 0, res.Sample.HeartRateBpm)
	assert.True(t, res.Defaulted.Temperature)
	assert.True(t, res.Defaulted.HeartRate)
	assert.True(t, res.Defaulted.Any())
	// 样本仍然完整
	assert.Equal(t, 98, res.Sample.OxygenLevelPercent)
	assert.Equal(t, 45, res.Sample.HumidityPercent)
	assert.True(t, res.Sample.Connected)
}

func TestNormalize_NilReading(t *testing.T) {
	res := Normalize(nil, time.Now())
	assert.True(t, res.Defaulted.Temperature)
	assert.True(t, res.Defaulted.HeartRate)
	assert.Equal(t, models.SourceDevice, res.Sample.Source)
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{`36.5`, 36.5, true},
		{`"36.5"`, 36.5, true},
		{`" 37 "`, 37, true},
		{`null`, 0, false},
		{``, 0, false},
		{`"abc"`, 0, false},
		{`true`, 0, false},
		{`"NaN"`, 0, false},
		{`"36.7 C"`, 36.7, true},
		{`"37.2°"`, 37.2, true},
		{`"-1.5e1x"`, -15, true},
		{`".5"`, 0.5, true},
		{`"37."`, 37, true},
		{`"C 36.7"`, 0, false},
		{`"+"`, 0, false},
	}
	for _, c := range cases {
		got, ok := parseNumber(json.RawMessage(c.raw))
		assert.Equal(t, c.ok, ok, "raw=%q", c.raw)
		assert.Equal(t, c.want, got, "raw=%q", c.raw)
	}
}

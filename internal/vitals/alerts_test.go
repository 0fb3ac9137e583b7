package vitals

import (
	"testing"

	"medadhere/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateAlerts_HighTemperatureOnly(t *testing.T) {
	alerts := EvaluateAlerts(models.VitalsSample{TemperatureC: 38.5, HeartRateBpm: 75, OxygenLevelPercent: 98, HumidityPercent: 45})
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0], "High temperature")
	assert.Equal(t, "High temperature: 38.5°C", alerts[0])
}

func TestEvaluateAlerts_NormalSampleIsEmpty(t *testing.T) {
	alerts := EvaluateAlerts(models.VitalsSample{TemperatureC: 37.0, HeartRateBpm: 75, OxygenLevelPercent: 98})
	assert.NotNil(t, alerts)
	assert.Empty(t, alerts)
}

func TestEvaluateAlerts_AllLow(t *testing.T) {
	alerts := EvaluateAlerts(models.VitalsSample{TemperatureC: 35.0, HeartRateBpm: 52, OxygenLevelPercent: 91})
	assert.Equal(t, []string{
		"Low temperature: 35°C",
		"Low heart rate: 52 BPM",
		"Low oxygen level: 91%",
	}, alerts)
}

func TestEvaluateAlerts_BoundariesDoNotAlert(t *testing.T) {
	// 38.0 / 35.5 / 100 / 60 / 95 都不触发（状态着色可能是 warning）
	alerts := EvaluateAlerts(models.VitalsSample{TemperatureC: 38.0, HeartRateBpm: 100, OxygenLevelPercent: 95})
	assert.Empty(t, alerts)
	alerts = EvaluateAlerts(models.VitalsSample{TemperatureC: 35.5, HeartRateBpm: 60, OxygenLevelPercent: 95})
	assert.Empty(t, alerts)
}

func TestEvaluateAlerts_HighHeartRate(t *testing.T) {
	alerts := EvaluateAlerts(models.VitalsSample{TemperatureC: 37.0, HeartRateBpm: 130, OxygenLevelPercent: 98})
	assert.Equal(t, []string{"High heart rate: 130 BPM"}, alerts)
}

func TestEvaluateAlerts_Stateless(t *testing.T) {
	hot := models.VitalsSample{TemperatureC: 39.2, HeartRateBpm: 75, OxygenLevelPercent: 98}
	normal := models.VitalsSample{TemperatureC: 37.0, HeartRateBpm: 75, OxygenLevelPercent: 98}

	first := EvaluateAlerts(hot)
	_ = EvaluateAlerts(normal)
	_ = EvaluateAlerts(models.VitalsSample{OxygenLevelPercent: 10})
	second := EvaluateAlerts(hot)

	assert.Equal(t, first, second)
	assert.Empty(t, EvaluateAlerts(normal))
}

func TestEvaluate_TagsVital(t *testing.T) {
	alerts := Evaluate(models.VitalsSample{TemperatureC: 39, HeartRateBpm: 40, OxygenLevelPercent: 80})
	require.Len(t, alerts, 3)
	assert.Equal(t, VitalTemperature, alerts[0].Vital)
	assert.Equal(t, VitalHeartRate, alerts[1].Vital)
	assert.Equal(t, VitalOxygenLevel, alerts[2].Vital)
}

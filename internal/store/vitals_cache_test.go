package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"medadhere/internal/models"
	"medadhere/internal/monitor"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client, *VitalsCache) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client, NewVitalsCache(client, zap.NewNop())
}

func testEvent() monitor.Event {
	return monitor.Event{
		Sample: models.VitalsSample{
			TemperatureC:       38.5,
			HeartRateBpm:       80,
			OxygenLevelPercent: 98,
			HumidityPercent:    45,
			CapturedAt:         time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
			Source:             models.SourceDevice,
			Connected:          true,
		},
		Statuses: models.VitalStatuses{
			Temperature: models.StatusCritical,
			HeartRate:   models.StatusNormal,
			OxygenLevel: models.StatusNormal,
			Humidity:    models.StatusNormal,
		},
		Alerts:   []string{"High temperature: 38.5°C"},
		OwnerID:  "user-1",
		DeviceID: "192.168.1.100",
	}
}

func TestHandleSample_WritesLatestAndStream(t *testing.T) {
	mr, client, cache := setupTestRedis(t)
	ctx := context.Background()

	cache.HandleSample(ctx, testEvent())

	latest, err := cache.GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 38.5, latest.Sample.TemperatureC)
	assert.Equal(t, []string{"High temperature: 38.5°C"}, latest.Alerts)
	assert.Equal(t, "user-1", latest.OwnerID)
	assert.Equal(t, DefaultLatestTTL, mr.TTL(LatestKey))

	msgs, err := ReadStreamRange(ctx, client, SamplesStream, "-", "+")
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	var streamed LatestVitals
	require.NoError(t, json.Unmarshal([]byte(msgs[0].Values["data"].(string)), &streamed))
	assert.Equal(t, 80, streamed.Sample.HeartRateBpm)
	assert.Equal(t, models.SourceDevice, streamed.Sample.Source)
}

func TestHandleSample_NilAlertsBecomeEmpty(t *testing.T) {
	_, _, cache := setupTestRedis(t)
	ctx := context.Background()

	ev := testEvent()
	ev.Alerts = nil
	cache.HandleSample(ctx, ev)

	latest, err := cache.GetLatest(ctx)
	require.NoError(t, err)
	assert.NotNil(t, latest.Alerts)
	assert.Empty(t, latest.Alerts)
}

func TestGetLatest_Miss(t *testing.T) {
	mr, _, cache := setupTestRedis(t)
	ctx := context.Background()

	_, err := cache.GetLatest(ctx)
	assert.ErrorIs(t, err, ErrMiss)

	cache.HandleSample(ctx, testEvent())
	mr.FastForward(DefaultLatestTTL + time.Second)

	_, err = cache.GetLatest(ctx)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestHandleSample_RedisDownDoesNotPanic(t *testing.T) {
	mr, _, cache := setupTestRedis(t)
	mr.Close()

	assert.NotPanics(t, func() {
		cache.HandleSample(context.Background(), testEvent())
	})
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"medadhere/internal/metrics"
	"medadhere/internal/models"
	"medadhere/internal/monitor"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	// LatestKey 最新一次采集结果
	LatestKey = "vitals:latest"
	// SamplesStream 全部采集样本
	SamplesStream = "vitals:samples"

	DefaultLatestTTL    = 5 * time.Minute
	DefaultStreamMaxLen = 10000
	redisPublishTimeout = 2 * time.Second
)

var ErrMiss = errors.New("cache miss")

// LatestVitals 缓存中的最新样本
type LatestVitals struct {
	Sample    models.VitalsSample  `json:"sample"`
	Statuses  models.VitalStatuses `json:"statuses"`
	Alerts    []string             `json:"alerts"`
	Defaulted models.Defaulted     `json:"defaulted"`
	OwnerID   string               `json:"owner_id,omitempty"`
	DeviceID  string               `json:"device_id,omitempty"`
}

// VitalsCache 监控订阅者：写 vitals:latest 并追加到 vitals:samples
type VitalsCache struct {
	client *redis.Client
	ttl    time.Duration
	maxLen int64
	logger *zap.Logger
}

func NewVitalsCache(client *redis.Client, logger *zap.Logger) *VitalsCache {
	return &VitalsCache{
		client: client,
		ttl:    DefaultLatestTTL,
		maxLen: DefaultStreamMaxLen,
		logger: logger,
	}
}

var _ monitor.Subscriber = (*VitalsCache)(nil)

// HandleSample 失败只记录日志，不影响采集循环
func (c *VitalsCache) HandleSample(ctx context.Context, ev monitor.Event) {
	ctx, cancel := context.WithTimeout(ctx, redisPublishTimeout)
	defer cancel()

	latest := LatestVitals{
		Sample:    ev.Sample,
		Statuses:  ev.Statuses,
		Alerts:    ev.Alerts,
		Defaulted: ev.Defaulted,
		OwnerID:   ev.OwnerID,
		DeviceID:  ev.DeviceID,
	}
	if latest.Alerts == nil {
		latest.Alerts = []string{}
	}

	if err := c.SetLatest(ctx, latest); err != nil {
		metrics.SinkPublishes.WithLabelValues("redis", "error").Inc()
		c.logger.Warn("Failed to cache latest vitals", zap.Error(err))
		return
	}
	if _, err := PublishJSONToStream(ctx, c.client, SamplesStream, c.maxLen, latest); err != nil {
		metrics.SinkPublishes.WithLabelValues("redis", "error").Inc()
		c.logger.Warn("Failed to publish vitals to stream", zap.String("stream", SamplesStream), zap.Error(err))
		return
	}
	metrics.SinkPublishes.WithLabelValues("redis", "ok").Inc()
}

func (c *VitalsCache) SetLatest(ctx context.Context, latest LatestVitals) error {
	b, err := json.Marshal(latest)
	if err != nil {
		return fmt.Errorf("failed to marshal latest vitals: %w", err)
	}
	return c.client.Set(ctx, LatestKey, b, c.ttl).Err()
}

// GetLatest 读取最新样本；不存在或已过期返回 ErrMiss
func (c *VitalsCache) GetLatest(ctx context.Context) (*LatestVitals, error) {
	val, err := c.client.Get(ctx, LatestKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrMiss
		}
		return nil, err
	}
	var latest LatestVitals
	if err := json.Unmarshal([]byte(val), &latest); err != nil {
		return nil, fmt.Errorf("failed to decode latest vitals: %w", err)
	}
	return &latest, nil
}

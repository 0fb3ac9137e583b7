package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"medadhere/internal/domain"
	"medadhere/internal/metrics"
	"medadhere/internal/models"
	"medadhere/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultListLimit 历史记录默认条数
	DefaultListLimit = 20
	// MaxListLimit 单次查询上限
	MaxListLimit = 500
)

var (
	// ErrAuthRequired 未登录（没有 user_id）
	ErrAuthRequired = errors.New("auth required")
	// ErrWriteError 存储写入失败，不自动重试
	ErrWriteError = errors.New("write error")
	// ErrInvalidSample 手动提交的样本字段非法
	ErrInvalidSample = errors.New("invalid vitals sample")
)

// VitalsService 体征记录持久化
type VitalsService struct {
	repo     repository.VitalsRepository
	deviceID string // 设备来源记录的 device_id
	logger   *zap.Logger
	now      func() time.Time
}

// NewVitalsService 创建体征记录服务
func NewVitalsService(repo repository.VitalsRepository, deviceID string, logger *zap.Logger) *VitalsService {
	return &VitalsService{
		repo:     repo,
		deviceID: deviceID,
		logger:   logger,
		now:      time.Now,
	}
}

// Save 保存一条样本
// - 模拟数据：measurement_source=manual，device_id=simulator
// - 设备数据：measurement_source=device，device_id=设备地址
func (s *VitalsService) Save(ctx context.Context, sample models.VitalsSample, userID string) (*domain.VitalRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		metrics.PersistenceWrites.WithLabelValues("auth_required").Inc()
		return nil, ErrAuthRequired
	}

	rec := &domain.VitalRecord{
		ID:                 uuid.New().String(),
		UserID:             userID,
		TemperatureCelsius: sample.TemperatureC,
		HeartRateBpm:       sample.HeartRateBpm,
		OxygenLevelPercent: sample.OxygenLevelPercent,
		HumidityPercent:    sample.HumidityPercent,
		RecordedAt:         sample.CapturedAt,
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = s.now()
	}
	rec.RecordedAt = rec.RecordedAt.UTC()

	var note string
	if sample.Source == models.SourceSimulator {
		rec.MeasurementSource = domain.MeasurementSourceManual
		rec.DeviceID = domain.SimulatorDeviceID
		note = "Recorded via manual entry"
	} else {
		rec.MeasurementSource = domain.MeasurementSourceDevice
		rec.DeviceID = s.deviceID
		note = "Recorded via Arduino device"
	}
	rec.Notes = &note

	if err := s.repo.CreateVital(ctx, rec); err != nil {
		metrics.PersistenceWrites.WithLabelValues("error").Inc()
		s.logger.Error("Failed to save vitals",
			zap.String("user_id", userID),
			zap.String("measurement_source", rec.MeasurementSource),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrWriteError, err)
	}

	metrics.PersistenceWrites.WithLabelValues("ok").Inc()
	s.logger.Debug("Vitals saved",
		zap.String("id", rec.ID),
		zap.String("user_id", userID),
		zap.String("measurement_source", rec.MeasurementSource),
	)
	return rec, nil
}

// SaveManual 校验后保存客户端提交的样本
func (s *VitalsService) SaveManual(ctx context.Context, sample models.VitalsSample, userID string) (*domain.VitalRecord, error) {
	if err := validateSample(sample); err != nil {
		return nil, err
	}
	if sample.Source == "" {
		sample.Source = models.SourceSimulator
	}
	return s.Save(ctx, sample, userID)
}

func validateSample(sample models.VitalsSample) error {
	if math.IsNaN(sample.TemperatureC) || math.IsInf(sample.TemperatureC, 0) || sample.TemperatureC < 0 {
		return fmt.Errorf("%w: temperature must be a non-negative number", ErrInvalidSample)
	}
	if sample.HeartRateBpm < 0 {
		return fmt.Errorf("%w: heartRate must be non-negative", ErrInvalidSample)
	}
	if sample.OxygenLevelPercent < 0 || sample.OxygenLevelPercent > 100 {
		return fmt.Errorf("%w: oxygenLevel must be within 0..100", ErrInvalidSample)
	}
	if sample.HumidityPercent < 0 || sample.HumidityPercent > 100 {
		return fmt.Errorf("%w: humidity must be within 0..100", ErrInvalidSample)
	}
	switch sample.Source {
	case "", models.SourceDevice, models.SourceSimulator:
	default:
		return fmt.Errorf("%w: unknown source %q", ErrInvalidSample, sample.Source)
	}
	return nil
}

// List 按时间倒序返回用户的记录
func (s *VitalsService) List(ctx context.Context, userID string, limit int) ([]*domain.VitalRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrAuthRequired
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	list, err := s.repo.ListVitals(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list vitals: %w", err)
	}
	return list, nil
}

// Delete 删除记录；归属由仓储层的 user_id 条件保证
func (s *VitalsService) Delete(ctx context.Context, userID, id string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrAuthRequired
	}
	if _, err := uuid.Parse(id); err != nil {
		return repository.ErrNotFound
	}
	if err := s.repo.DeleteVital(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete vital: %w", err)
	}
	s.logger.Info("Vitals record deleted", zap.String("id", id), zap.String("user_id", userID))
	return nil
}

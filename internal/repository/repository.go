package repository

import (
	"context"
	"errors"

	"medadhere/internal/domain"
)

// ErrNotFound 记录不存在，或不属于该用户
var ErrNotFound = errors.New("not found")

// VitalsRepository vitals 表访问
// 所有读写都按 user_id 限定：归属校验由存储层负责
type VitalsRepository interface {
	CreateVital(ctx context.Context, rec *domain.VitalRecord) error
	// ListVitals 按 recorded_at 倒序，最多 limit 条
	ListVitals(ctx context.Context, userID string, limit int) ([]*domain.VitalRecord, error)
	DeleteVital(ctx context.Context, userID, id string) error
}

// SchedulesRepository medication_schedules 表访问
type SchedulesRepository interface {
	CreateSchedule(ctx context.Context, s *domain.MedicationSchedule) error
	UpdateSchedule(ctx context.Context, s *domain.MedicationSchedule) error
	GetSchedule(ctx context.Context, userID, id string) (*domain.MedicationSchedule, error)
	// ListSchedules 按 scheduled_time 升序
	ListSchedules(ctx context.Context, userID string) ([]*domain.MedicationSchedule, error)
	DeleteSchedule(ctx context.Context, userID, id string) error
}

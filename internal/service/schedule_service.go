package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"medadhere/internal/domain"
	"medadhere/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidSchedule 用药计划字段非法
var ErrInvalidSchedule = errors.New("invalid medication schedule")

// ScheduleService 用药计划服务
type ScheduleService struct {
	repo   repository.SchedulesRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewScheduleService 创建用药计划服务
func NewScheduleService(repo repository.SchedulesRepository, logger *zap.Logger) *ScheduleService {
	return &ScheduleService{repo: repo, logger: logger, now: time.Now}
}

// ScheduleInput 创建/更新请求
type ScheduleInput struct {
	MedicationID   string   `json:"medication_id"`
	MedicationName string   `json:"medication_name"`
	ScheduledTime  string   `json:"scheduled_time"`
	DaysOfWeek     []string `json:"days_of_week"`
	Dosage         string   `json:"dosage"`
	Notes          *string  `json:"notes"`
	IsActive       *bool    `json:"is_active"` // 缺省为 true
}

// Create 创建用药计划
func (s *ScheduleService) Create(ctx context.Context, userID string, in ScheduleInput) (*domain.MedicationSchedule, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrAuthRequired
	}
	sched, err := buildSchedule(in)
	if err != nil {
		return nil, err
	}
	sched.ID = uuid.New().String()
	sched.UserID = userID
	sched.CreatedAt = s.now().UTC()

	if err := s.repo.CreateSchedule(ctx, sched); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWriteError, err)
	}
	s.logger.Info("Medication schedule created",
		zap.String("id", sched.ID),
		zap.String("user_id", userID),
		zap.String("scheduled_time", sched.ScheduledTime),
	)
	return sched, nil
}

// Update 全量更新用药计划
func (s *ScheduleService) Update(ctx context.Context, userID, id string, in ScheduleInput) (*domain.MedicationSchedule, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrAuthRequired
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}
	existing, err := s.repo.GetSchedule(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	sched, err := buildSchedule(in)
	if err != nil {
		return nil, err
	}
	sched.ID = existing.ID
	sched.UserID = existing.UserID
	sched.CreatedAt = existing.CreatedAt

	if err := s.repo.UpdateSchedule(ctx, sched); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrWriteError, err)
	}
	return sched, nil
}

// Delete 删除用药计划
func (s *ScheduleService) Delete(ctx context.Context, userID, id string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrAuthRequired
	}
	if _, err := uuid.Parse(id); err != nil {
		return repository.ErrNotFound
	}
	return s.repo.DeleteSchedule(ctx, userID, id)
}

// List 返回用户全部用药计划（按时间升序）
func (s *ScheduleService) List(ctx context.Context, userID string) ([]*domain.MedicationSchedule, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrAuthRequired
	}
	list, err := s.repo.ListSchedules(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return list, nil
}

// Today 当天需要服用的计划：启用中且 days_of_week 包含当天
func (s *ScheduleService) Today(ctx context.Context, userID string) ([]*domain.MedicationSchedule, error) {
	return s.ForDay(ctx, userID, s.now())
}

// ForDay 指定日期需要服用的计划，按 scheduled_time 升序
func (s *ScheduleService) ForDay(ctx context.Context, userID string, day time.Time) ([]*domain.MedicationSchedule, error) {
	list, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	weekday := strings.ToLower(day.Weekday().String())

	out := make([]*domain.MedicationSchedule, 0, len(list))
	for _, sched := range list {
		if sched.IsActive && sched.OnDay(weekday) {
			out = append(out, sched)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScheduledTime < out[j].ScheduledTime
	})
	return out, nil
}

func buildSchedule(in ScheduleInput) (*domain.MedicationSchedule, error) {
	name := strings.TrimSpace(in.MedicationName)
	if name == "" {
		return nil, fmt.Errorf("%w: medication_name is required", ErrInvalidSchedule)
	}
	scheduledTime := strings.TrimSpace(in.ScheduledTime)
	if !validClock(scheduledTime) {
		return nil, fmt.Errorf("%w: scheduled_time must be HH:MM", ErrInvalidSchedule)
	}
	days, err := normalizeDays(in.DaysOfWeek)
	if err != nil {
		return nil, err
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	var notes *string
	if in.Notes != nil {
		if n := strings.TrimSpace(*in.Notes); n != "" {
			notes = &n
		}
	}

	return &domain.MedicationSchedule{
		MedicationID:   strings.TrimSpace(in.MedicationID),
		MedicationName: name,
		ScheduledTime:  scheduledTime,
		DaysOfWeek:     days,
		Dosage:         strings.TrimSpace(in.Dosage),
		Notes:          notes,
		IsActive:       active,
	}, nil
}

func validClock(s string) bool {
	if len(s) != 5 {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}

// normalizeDays 小写、去重，并按周一到周日排序
func normalizeDays(in []string) ([]string, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: days_of_week must not be empty", ErrInvalidSchedule)
	}
	seen := make(map[string]bool, len(in))
	for _, d := range in {
		d = strings.ToLower(strings.TrimSpace(d))
		if !isWeekday(d) {
			return nil, fmt.Errorf("%w: unknown weekday %q", ErrInvalidSchedule, d)
		}
		seen[d] = true
	}
	out := make([]string, 0, len(seen))
	for _, d := range domain.Weekdays {
		if seen[d] {
			out = append(out, d)
		}
	}
	return out, nil
}

func isWeekday(d string) bool {
	for _, w := range domain.Weekdays {
		if w == d {
			return true
		}
	}
	return false
}

package repository

import (
	"context"
	"sort"
	"sync"

	"medadhere/internal/domain"
)

// MemorySchedulesRepository DB 未就绪时使用的内存实现
type MemorySchedulesRepository struct {
	mu     sync.RWMutex
	byUser map[string]map[string]domain.MedicationSchedule
}

func NewMemorySchedulesRepository() *MemorySchedulesRepository {
	return &MemorySchedulesRepository{byUser: map[string]map[string]domain.MedicationSchedule{}}
}

var _ SchedulesRepository = (*MemorySchedulesRepository)(nil)

func (r *MemorySchedulesRepository) CreateSchedule(_ context.Context, s *domain.MedicationSchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byUser[s.UserID] == nil {
		r.byUser[s.UserID] = map[string]domain.MedicationSchedule{}
	}
	r.byUser[s.UserID][s.ID] = cloneSchedule(s)
	return nil
}

func (r *MemorySchedulesRepository) UpdateSchedule(_ context.Context, s *domain.MedicationSchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.byUser[s.UserID][s.ID]
	if !ok {
		return ErrNotFound
	}
	updated := cloneSchedule(s)
	updated.CreatedAt = old.CreatedAt
	r.byUser[s.UserID][s.ID] = updated
	return nil
}

func (r *MemorySchedulesRepository) GetSchedule(_ context.Context, userID, id string) (*domain.MedicationSchedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byUser[userID][id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneSchedule(&s)
	return &out, nil
}

func (r *MemorySchedulesRepository) ListSchedules(_ context.Context, userID string) ([]*domain.MedicationSchedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.MedicationSchedule, 0, len(r.byUser[userID]))
	for _, s := range r.byUser[userID] {
		c := cloneSchedule(&s)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ScheduledTime == out[j].ScheduledTime {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ScheduledTime < out[j].ScheduledTime
	})
	return out, nil
}

func (r *MemorySchedulesRepository) DeleteSchedule(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byUser[userID][id]; !ok {
		return ErrNotFound
	}
	delete(r.byUser[userID], id)
	return nil
}

func cloneSchedule(s *domain.MedicationSchedule) domain.MedicationSchedule {
	c := *s
	c.DaysOfWeek = append([]string{}, s.DaysOfWeek...)
	if s.Notes != nil {
		n := *s.Notes
		c.Notes = &n
	}
	return c
}

package repository

import (
	"context"
	"sort"
	"sync"

	"medadhere/internal/domain"
)

// MemoryVitalsRepository DB 未就绪时使用的内存实现
// - 按 user_id 隔离
// - 进程重启后数据丢失
type MemoryVitalsRepository struct {
	mu     sync.RWMutex
	byUser map[string]map[string]domain.VitalRecord // userID -> id -> record
}

func NewMemoryVitalsRepository() *MemoryVitalsRepository {
	return &MemoryVitalsRepository{byUser: map[string]map[string]domain.VitalRecord{}}
}

var _ VitalsRepository = (*MemoryVitalsRepository)(nil)

func (r *MemoryVitalsRepository) CreateVital(_ context.Context, rec *domain.VitalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byUser[rec.UserID] == nil {
		r.byUser[rec.UserID] = map[string]domain.VitalRecord{}
	}
	r.byUser[rec.UserID][rec.ID] = *rec
	return nil
}

func (r *MemoryVitalsRepository) ListVitals(_ context.Context, userID string, limit int) ([]*domain.VitalRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.VitalRecord, 0, len(r.byUser[userID]))
	for _, rec := range r.byUser[userID] {
		rec := rec
		out = append(out, &rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RecordedAt.Equal(out[j].RecordedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].RecordedAt.After(out[j].RecordedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryVitalsRepository) DeleteVital(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byUser[userID][id]; !ok {
		return ErrNotFound
	}
	delete(r.byUser[userID], id)
	return nil
}

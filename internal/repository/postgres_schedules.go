package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"medadhere/internal/domain"

	"github.com/lib/pq"
)

// PostgresSchedulesRepository medication_schedules 表的 PostgreSQL 实现
type PostgresSchedulesRepository struct {
	db *sql.DB
}

func NewPostgresSchedulesRepository(db *sql.DB) *PostgresSchedulesRepository {
	return &PostgresSchedulesRepository{db: db}
}

var _ SchedulesRepository = (*PostgresSchedulesRepository)(nil)

const scheduleColumns = `id::text, user_id, medication_id, medication_name, scheduled_time,
		days_of_week, dosage, notes, is_active, created_at`

func (r *PostgresSchedulesRepository) CreateSchedule(ctx context.Context, s *domain.MedicationSchedule) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO medication_schedules (
			id, user_id, medication_id, medication_name, scheduled_time,
			days_of_week, dosage, notes, is_active, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.ID,
		s.UserID,
		s.MedicationID,
		s.MedicationName,
		s.ScheduledTime,
		pq.Array(s.DaysOfWeek),
		s.Dosage,
		nullString(s.Notes),
		s.IsActive,
		s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert schedule: %w", err)
	}
	return nil
}

func (r *PostgresSchedulesRepository) UpdateSchedule(ctx context.Context, s *domain.MedicationSchedule) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE medication_schedules
		SET medication_id = $3,
		    medication_name = $4,
		    scheduled_time = $5,
		    days_of_week = $6,
		    dosage = $7,
		    notes = $8,
		    is_active = $9
		WHERE id = $1 AND user_id = $2`,
		s.ID,
		s.UserID,
		s.MedicationID,
		s.MedicationName,
		s.ScheduledTime,
		pq.Array(s.DaysOfWeek),
		s.Dosage,
		nullString(s.Notes),
		s.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresSchedulesRepository) GetSchedule(ctx context.Context, userID, id string) (*domain.MedicationSchedule, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+scheduleColumns+` FROM medication_schedules WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	s, err := scanSchedule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return s, nil
}

func (r *PostgresSchedulesRepository) ListSchedules(ctx context.Context, userID string) ([]*domain.MedicationSchedule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+scheduleColumns+` FROM medication_schedules
		WHERE user_id = $1
		ORDER BY scheduled_time ASC, created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}
	defer rows.Close()

	out := []*domain.MedicationSchedule{}
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schedules: %w", err)
	}
	return out, nil
}

func (r *PostgresSchedulesRepository) DeleteSchedule(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medication_schedules WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (*domain.MedicationSchedule, error) {
	var s domain.MedicationSchedule
	var days pq.StringArray
	var notes sql.NullString
	if err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.MedicationID,
		&s.MedicationName,
		&s.ScheduledTime,
		&days,
		&s.Dosage,
		&notes,
		&s.IsActive,
		&s.CreatedAt,
	); err != nil {
		return nil, err
	}
	s.DaysOfWeek = []string(days)
	if s.DaysOfWeek == nil {
		s.DaysOfWeek = []string{}
	}
	if notes.Valid {
		n := notes.String
		s.Notes = &n
	}
	return &s, nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"medadhere/internal/domain"
)

// PostgresVitalsRepository vitals 表的 PostgreSQL 实现
type PostgresVitalsRepository struct {
	db *sql.DB
}

func NewPostgresVitalsRepository(db *sql.DB) *PostgresVitalsRepository {
	return &PostgresVitalsRepository{db: db}
}

var _ VitalsRepository = (*PostgresVitalsRepository)(nil)

func (r *PostgresVitalsRepository) CreateVital(ctx context.Context, rec *domain.VitalRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO vitals (
			id, user_id, temperature_celsius, heart_rate_bpm, oxygen_level_percent,
			humidity_percent, measurement_source, device_id, recorded_at, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.ID,
		rec.UserID,
		rec.TemperatureCelsius,
		rec.HeartRateBpm,
		rec.OxygenLevelPercent,
		rec.HumidityPercent,
		rec.MeasurementSource,
		rec.DeviceID,
		rec.RecordedAt,
		nullString(rec.Notes),
	)
	if err != nil {
		return fmt.Errorf("failed to insert vital: %w", err)
	}
	return nil
}

func (r *PostgresVitalsRepository) ListVitals(ctx context.Context, userID string, limit int) ([]*domain.VitalRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id::text, user_id, temperature_celsius, heart_rate_bpm, oxygen_level_percent,
		       humidity_percent, measurement_source, device_id, recorded_at, notes
		FROM vitals
		WHERE user_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query vitals: %w", err)
	}
	defer rows.Close()

	out := []*domain.VitalRecord{}
	for rows.Next() {
		var rec domain.VitalRecord
		var notes sql.NullString
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.TemperatureCelsius,
			&rec.HeartRateBpm,
			&rec.OxygenLevelPercent,
			&rec.HumidityPercent,
			&rec.MeasurementSource,
			&rec.DeviceID,
			&rec.RecordedAt,
			&notes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan vital: %w", err)
		}
		if notes.Valid {
			n := notes.String
			rec.Notes = &n
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vitals: %w", err)
	}
	return out, nil
}

func (r *PostgresVitalsRepository) DeleteVital(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM vitals WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete vital: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete vital: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

package database

import (
	"context"
	"database/sql"
	"fmt"

	"medadhere/internal/config"

	_ "github.com/lib/pq"
)

// NewPostgresDB 创建 PostgreSQL 数据库连接
func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 连接池参数
	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Close 关闭数据库连接
func Close(db *sql.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}

// schemaStatements 启动时幂等建表（vitals / medication_schedules）
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS vitals (
		id                   UUID PRIMARY KEY,
		user_id              TEXT NOT NULL,
		temperature_celsius  DOUBLE PRECISION NOT NULL,
		heart_rate_bpm       INTEGER NOT NULL,
		oxygen_level_percent INTEGER NOT NULL,
		humidity_percent     INTEGER NOT NULL,
		measurement_source   TEXT NOT NULL,
		device_id            TEXT NOT NULL,
		recorded_at          TIMESTAMPTZ NOT NULL,
		notes                TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_vitals_user_recorded ON vitals (user_id, recorded_at DESC)`,
	`CREATE TABLE IF NOT EXISTS medication_schedules (
		id              UUID PRIMARY KEY,
		user_id         TEXT NOT NULL,
		medication_id   TEXT NOT NULL DEFAULT '',
		medication_name TEXT NOT NULL,
		scheduled_time  TEXT NOT NULL,
		days_of_week    TEXT[] NOT NULL DEFAULT '{}',
		dosage          TEXT NOT NULL DEFAULT '',
		notes           TEXT,
		is_active       BOOLEAN NOT NULL DEFAULT TRUE,
		created_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_medication_schedules_user ON medication_schedules (user_id)`,
}

// EnsureSchema 创建服务所需的表（已存在则跳过）
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

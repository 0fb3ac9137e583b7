package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"medadhere/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockVitalsDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresVitalsRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewPostgresVitalsRepository(db)
}

var vitalColumns = []string{
	"id", "user_id", "temperature_celsius", "heart_rate_bpm", "oxygen_level_percent",
	"humidity_percent", "measurement_source", "device_id", "recorded_at", "notes",
}

func TestCreateVital_Success(t *testing.T) {
	db, mock, repo := setupMockVitalsDB(t)
	defer db.Close()

	notes := "Recorded via Arduino device"
	rec := &domain.VitalRecord{
		ID:                 uuid.New().String(),
		UserID:             "user-1",
		TemperatureCelsius: 36.7,
		HeartRateBpm:       80,
		OxygenLevelPercent: 98,
		HumidityPercent:    45,
		MeasurementSource:  domain.MeasurementSourceDevice,
		DeviceID:           "192.168.1.100",
		RecordedAt:         time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		Notes:              &notes,
	}

	mock.ExpectExec(`INSERT INTO vitals`).
		WithArgs(rec.ID, rec.UserID, 36.7, 80, 98, 45, "device", "192.168.1.100", rec.RecordedAt, notes).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.CreateVital(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateVital_DBError(t *testing.T) {
	db, mock, repo := setupMockVitalsDB(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO vitals`).WillReturnError(errors.New("connection reset"))

	err := repo.CreateVital(context.Background(), &domain.VitalRecord{ID: uuid.New().String(), UserID: "u"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert vital")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListVitals_NewestFirst(t *testing.T) {
	db, mock, repo := setupMockVitalsDB(t)
	defer db.Close()

	newer := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)
	rows := sqlmock.NewRows(vitalColumns).
		AddRow("id-2", "user-1", 37.1, 72, 97, 50, "manual", "simulator", newer, "Recorded via manual entry").
		AddRow("id-1", "user-1", 36.5, 66, 99, 41, "device", "192.168.1.100", older, nil)

	mock.ExpectQuery(`SELECT .* FROM vitals\s+WHERE user_id = \$1\s+ORDER BY recorded_at DESC\s+LIMIT \$2`).
		WithArgs("user-1", 20).
		WillReturnRows(rows)

	list, err := repo.ListVitals(context.Background(), "user-1", 20)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "id-2", list[0].ID)
	require.NotNil(t, list[0].Notes)
	assert.Equal(t, "Recorded via manual entry", *list[0].Notes)
	assert.Equal(t, "manual", list[0].MeasurementSource)
	assert.Equal(t, "id-1", list[1].ID)
	assert.Nil(t, list[1].Notes)
	assert.Equal(t, 66, list[1].HeartRateBpm)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListVitals_Empty(t *testing.T) {
	db, mock, repo := setupMockVitalsDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).WithArgs("nobody", 5).WillReturnRows(sqlmock.NewRows(vitalColumns))

	list, err := repo.ListVitals(context.Background(), "nobody", 5)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestDeleteVital_Success(t *testing.T) {
	db, mock, repo := setupMockVitalsDB(t)
	defer db.Close()

	id := uuid.New().String()
	mock.ExpectExec(`DELETE FROM vitals WHERE id = \$1 AND user_id = \$2`).
		WithArgs(id, "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeleteVital(context.Background(), "user-1", id))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteVital_OtherUsersRecord(t *testing.T) {
	db, mock, repo := setupMockVitalsDB(t)
	defer db.Close()

	id := uuid.New().String()
	mock.ExpectExec(`DELETE FROM vitals`).
		WithArgs(id, "intruder").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteVital(context.Background(), "intruder", id)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

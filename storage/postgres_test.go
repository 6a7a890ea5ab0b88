package storage

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Reaishma/Healthcare-informatics-solution/types"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresStorage) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewPostgresStorageWithDB(db)
}

var stageColumns = []string{
	"id", "name", "description", "capacity", "current_count", "average_wait_time", "status", "position", "created_at",
}

func TestPostgresCreateUser(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (username, role, is_active, created_at) VALUES ($1, $2, $3, $4) RETURNING id`)).
		WithArgs("nurse.joy", "nurse", true, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	u := types.NewUser()
	u.Username = "nurse.joy"
	u.CreatedAt = time.Now()
	created, err := store.Users().Create(context.Background(), u)

	require.NoError(t, err)
	assert.Equal(t, uint64(7), created.ID)
	assert.Equal(t, "nurse.joy", created.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateDuplicateUser(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs("Nurse.Joy", "nurse", true, sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_username_lower_key"})
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs("nurse.kay", "nurse", true, sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23502"})

	u := types.NewUser()
	u.Username = "Nurse.Joy"
	_, err := store.Users().Create(context.Background(), u)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Contains(t, err.Error(), `"nurse.joy"`)

	u.Username = "nurse.kay"
	_, err = store.Users().Create(context.Background(), u)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetTaskWithNullables(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "title", "description", "status", "priority", "assigned_to", "workflow_id",
		"location", "due_date", "completed_at", "created_at", "updated_at",
	}).AddRow(int64(3), "Draw labs", "", "pending", "high", int64(2), nil, "Ward 4", nil, nil, now, now)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM tasks WHERE id = $1`)).
		WithArgs(int64(3)).
		WillReturnRows(rows)

	task, err := store.Tasks().Get(context.Background(), 3)

	require.NoError(t, err)
	assert.Equal(t, uint64(3), task.ID)
	assert.Equal(t, types.TaskPending, task.Status)
	assert.Equal(t, types.PriorityHigh, task.Priority)
	require.NotNil(t, task.AssignedToID)
	assert.Equal(t, uint64(2), *task.AssignedToID)
	assert.Nil(t, task.WorkflowID)
	assert.Nil(t, task.DueDate)
	assert.Equal(t, now, task.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetNotFound(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM patient_flow_stages WHERE id = $1`)).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(stageColumns))

	_, err := store.Stages().Get(context.Background(), 9)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListStages(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows(stageColumns).
		AddRow(int64(1), "Triage", "", 10, 5, 12, "normal", 1, now).
		AddRow(int64(2), "Imaging", "", 20, 20, 40, "critical", 2, now)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, description, capacity, current_count, average_wait_time, status, position, created_at FROM patient_flow_stages ORDER BY id`)).
		WillReturnRows(rows)

	stages, err := store.Stages().List(context.Background())

	require.NoError(t, err)
	require.Len(t, stages, 2)
	assert.Equal(t, "Triage", stages[0].Name)
	assert.Equal(t, 5, stages[0].CurrentCount)
	assert.Equal(t, types.StageCritical, stages[1].Status)
	assert.Equal(t, uint64(2), stages[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateLocksRow(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM patient_flow_stages WHERE id = $1 FOR UPDATE`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(stageColumns).AddRow(int64(1), "Triage", "", 10, 5, 12, "normal", 1, now))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE patient_flow_stages SET name = $2, description = $3, capacity = $4, current_count = $5, average_wait_time = $6, status = $7, position = $8, created_at = $9 WHERE id = $1`)).
		WithArgs(int64(1), "Triage", "", int64(10), int64(6), int64(12), "normal", int64(1), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	updated, err := store.Stages().Update(context.Background(), 1, func(s *types.PatientFlowStage) error {
		s.CurrentCount++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 6, updated.CurrentCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateMissingRollsBack(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(stageColumns))
	mock.ExpectRollback()

	_, err := store.Stages().Update(context.Background(), 4, func(*types.PatientFlowStage) error { return nil })

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDelete(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM user_stories WHERE id = $1`)).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM user_stories WHERE id = $1`)).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, store.Stories().Delete(context.Background(), 5))
	assert.ErrorIs(t, store.Stories().Delete(context.Background(), 5), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

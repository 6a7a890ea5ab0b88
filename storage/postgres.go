package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/Reaishma/Healthcare-informatics-solution/types"
)

const uniqueViolation = pq.ErrorCode("23505")

// PostgresOptions configures the connection pool.
type PostgresOptions struct {
	DSN      string
	MaxConns int
	MaxIdle  int
}

// PostgresStorage is a PostgreSQL-backed implementation of the Storage interface.
type PostgresStorage struct {
	db *sql.DB

	users         *pgTable[types.User, *types.User]
	workflows     *pgTable[types.Workflow, *types.Workflow]
	tasks         *pgTable[types.Task, *types.Task]
	stages        *pgTable[types.PatientFlowStage, *types.PatientFlowStage]
	schedules     *pgTable[types.Schedule, *types.Schedule]
	stories       *pgTable[types.UserStory, *types.UserStory]
	notifications *pgTable[types.Notification, *types.Notification]
}

// NewPostgresStorage opens and pings the database.
func NewPostgresStorage(opts PostgresOptions) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if opts.MaxConns > 0 {
		db.SetMaxOpenConns(opts.MaxConns)
	}
	if opts.MaxIdle > 0 {
		db.SetMaxIdleConns(opts.MaxIdle)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return NewPostgresStorageWithDB(db), nil
}

// NewPostgresStorageWithDB wraps an existing handle. The schema is expected
// to be in place; see Migrate.
func NewPostgresStorageWithDB(db *sql.DB) *PostgresStorage {
	return &PostgresStorage{
		db:            db,
		users:         &pgTable[types.User, *types.User]{db: db, m: userMapper},
		workflows:     &pgTable[types.Workflow, *types.Workflow]{db: db, m: workflowMapper},
		tasks:         &pgTable[types.Task, *types.Task]{db: db, m: taskMapper},
		stages:        &pgTable[types.PatientFlowStage, *types.PatientFlowStage]{db: db, m: stageMapper},
		schedules:     &pgTable[types.Schedule, *types.Schedule]{db: db, m: scheduleMapper},
		stories:       &pgTable[types.UserStory, *types.UserStory]{db: db, m: storyMapper},
		notifications: &pgTable[types.Notification, *types.Notification]{db: db, m: notificationMapper},
	}
}

func (s *PostgresStorage) Users() Table[types.User]                 { return s.users }
func (s *PostgresStorage) Workflows() Table[types.Workflow]         { return s.workflows }
func (s *PostgresStorage) Tasks() Table[types.Task]                 { return s.tasks }
func (s *PostgresStorage) Stages() Table[types.PatientFlowStage]    { return s.stages }
func (s *PostgresStorage) Schedules() Table[types.Schedule]         { return s.schedules }
func (s *PostgresStorage) Stories() Table[types.UserStory]          { return s.stories }
func (s *PostgresStorage) Notifications() Table[types.Notification] { return s.notifications }

// DB returns the underlying handle.
func (s *PostgresStorage) DB() *sql.DB {
	return s.db
}

// Close closes the database handle.
func (s *PostgresStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// queryRower is satisfied by both *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// pgMapper binds an entity to its table. columns excludes the id, which is
// always the first selected column and is assigned by the database.
type pgMapper[T any] struct {
	table   string
	columns []string
	args    func(rec *T) []any
	dest    func(rec *T) []any
}

func (m pgMapper[T]) selectSQL() string {
	return fmt.Sprintf("SELECT id, %s FROM %s", strings.Join(m.columns, ", "), m.table)
}

func (m pgMapper[T]) insertSQL() string {
	marks := make([]string, len(m.columns))
	for i := range m.columns {
		marks[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		m.table, strings.Join(m.columns, ", "), strings.Join(marks, ", "))
}

func (m pgMapper[T]) updateSQL() string {
	sets := make([]string, len(m.columns))
	for i, c := range m.columns {
		sets[i] = fmt.Sprintf("%s = $%d", c, i+2)
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = $1", m.table, strings.Join(sets, ", "))
}

func (m pgMapper[T]) scan(row rowScanner, id *uint64, rec *T) error {
	return row.Scan(append([]any{id}, m.dest(rec)...)...)
}

type pgTable[T any, P types.Record[T]] struct {
	db *sql.DB
	m  pgMapper[T]
}

func (t *pgTable[T, P]) notFound(id uint64) error {
	return fmt.Errorf("%w: %s id=%d", ErrNotFound, t.m.table, id)
}

func (t *pgTable[T, P]) List(ctx context.Context) ([]T, error) {
	rows, err := t.db.QueryContext(ctx, t.m.selectSQL()+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.m.table, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var (
			rec T
			id  uint64
		)
		if err := t.m.scan(rows, &id, &rec); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", t.m.table, err)
		}
		P(&rec).SetRecordID(id)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", t.m.table, err)
	}
	return out, nil
}

func (t *pgTable[T, P]) get(ctx context.Context, q queryRower, query string, id uint64) (T, error) {
	var (
		rec   T
		rowID uint64
	)
	err := t.m.scan(q.QueryRowContext(ctx, query, id), &rowID, &rec)
	if errors.Is(err, sql.ErrNoRows) {
		var zero T
		return zero, t.notFound(id)
	} else if err != nil {
		var zero T
		return zero, fmt.Errorf("failed to load %s id=%d: %w", t.m.table, id, err)
	}
	P(&rec).SetRecordID(rowID)
	return rec, nil
}

func (t *pgTable[T, P]) Get(ctx context.Context, id uint64) (T, error) {
	return t.get(ctx, t.db, t.m.selectSQL()+" WHERE id = $1", id)
}

func (t *pgTable[T, P]) Create(ctx context.Context, rec T) (T, error) {
	var id uint64
	if err := t.db.QueryRowContext(ctx, t.m.insertSQL(), t.m.args(&rec)...).Scan(&id); err != nil {
		var zero T
		if dup := t.duplicate(&rec, err); dup != nil {
			return zero, dup
		}
		return zero, fmt.Errorf("failed to insert %s: %w", t.m.table, err)
	}
	P(&rec).SetRecordID(id)
	return rec, nil
}

func (t *pgTable[T, P]) Update(ctx context.Context, id uint64, mutate func(*T) error) (T, error) {
	var zero T
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return zero, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rec, err := t.get(ctx, tx, t.m.selectSQL()+" WHERE id = $1 FOR UPDATE", id)
	if err != nil {
		return zero, err
	}
	if err := mutate(&rec); err != nil {
		return zero, err
	}
	P(&rec).SetRecordID(id)

	args := append([]any{id}, t.m.args(&rec)...)
	if _, err := tx.ExecContext(ctx, t.m.updateSQL(), args...); err != nil {
		if dup := t.duplicate(&rec, err); dup != nil {
			return zero, dup
		}
		return zero, fmt.Errorf("failed to update %s id=%d: %w", t.m.table, id, err)
	}
	if err := tx.Commit(); err != nil {
		return zero, fmt.Errorf("failed to commit %s id=%d: %w", t.m.table, id, err)
	}
	return rec, nil
}

// duplicate turns a unique_violation on a keyed record into ErrDuplicate.
func (t *pgTable[T, P]) duplicate(rec *T, err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return nil
	}
	key, ok := uniqueKey[T, P](rec)
	if !ok {
		return nil
	}
	return duplicate(t.m.table, key)
}

func (t *pgTable[T, P]) Delete(ctx context.Context, id uint64) error {
	res, err := t.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", t.m.table), id)
	if err != nil {
		return fmt.Errorf("failed to delete %s id=%d: %w", t.m.table, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete %s id=%d: %w", t.m.table, id, err)
	}
	if n == 0 {
		return t.notFound(id)
	}
	return nil
}

var userMapper = pgMapper[types.User]{
	table:   "users",
	columns: []string{"username", "role", "is_active", "created_at"},
	args: func(u *types.User) []any {
		return []any{u.Username, string(u.Role), u.IsActive, u.CreatedAt}
	},
	dest: func(u *types.User) []any {
		return []any{&u.Username, &u.Role, &u.IsActive, &u.CreatedAt}
	},
}

var workflowMapper = pgMapper[types.Workflow]{
	table:   "workflows",
	columns: []string{"name", "description", "status", "created_by", "created_at", "updated_at"},
	args: func(w *types.Workflow) []any {
		return []any{w.Name, w.Description, string(w.Status), w.CreatedByID, w.CreatedAt, w.UpdatedAt}
	},
	dest: func(w *types.Workflow) []any {
		return []any{&w.Name, &w.Description, &w.Status, &w.CreatedByID, &w.CreatedAt, &w.UpdatedAt}
	},
}

var taskMapper = pgMapper[types.Task]{
	table: "tasks",
	columns: []string{
		"title", "description", "status", "priority", "assigned_to", "workflow_id",
		"location", "due_date", "completed_at", "created_at", "updated_at",
	},
	args: func(t *types.Task) []any {
		return []any{
			t.Title, t.Description, string(t.Status), string(t.Priority), t.AssignedToID, t.WorkflowID,
			t.Location, t.DueDate, t.CompletedAt, t.CreatedAt, t.UpdatedAt,
		}
	},
	dest: func(t *types.Task) []any {
		return []any{
			&t.Title, &t.Description, &t.Status, &t.Priority, &t.AssignedToID, &t.WorkflowID,
			&t.Location, &t.DueDate, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt,
		}
	},
}

var stageMapper = pgMapper[types.PatientFlowStage]{
	table: "patient_flow_stages",
	columns: []string{
		"name", "description", "capacity", "current_count", "average_wait_time", "status", "position", "created_at",
	},
	args: func(s *types.PatientFlowStage) []any {
		return []any{s.Name, s.Description, s.Capacity, s.CurrentCount, s.AverageWaitTime, string(s.Status), s.Order, s.CreatedAt}
	},
	dest: func(s *types.PatientFlowStage) []any {
		return []any{&s.Name, &s.Description, &s.Capacity, &s.CurrentCount, &s.AverageWaitTime, &s.Status, &s.Order, &s.CreatedAt}
	},
}

var scheduleMapper = pgMapper[types.Schedule]{
	table:   "schedules",
	columns: []string{"user_id", "shift_start", "shift_end", "is_active", "created_at"},
	args: func(s *types.Schedule) []any {
		return []any{s.UserID, s.ShiftStart, s.ShiftEnd, s.IsActive, s.CreatedAt}
	},
	dest: func(s *types.Schedule) []any {
		return []any{&s.UserID, &s.ShiftStart, &s.ShiftEnd, &s.IsActive, &s.CreatedAt}
	},
}

var storyMapper = pgMapper[types.UserStory]{
	table: "user_stories",
	columns: []string{
		"title", "description", "story_points", "status", "assigned_to", "sprint_id", "created_at", "updated_at",
	},
	args: func(s *types.UserStory) []any {
		return []any{s.Title, s.Description, s.StoryPoints, string(s.Status), s.AssignedToID, s.SprintID, s.CreatedAt, s.UpdatedAt}
	},
	dest: func(s *types.UserStory) []any {
		return []any{&s.Title, &s.Description, &s.StoryPoints, &s.Status, &s.AssignedToID, &s.SprintID, &s.CreatedAt, &s.UpdatedAt}
	},
}

var notificationMapper = pgMapper[types.Notification]{
	table:   "notifications",
	columns: []string{"user_id", "title", "message", "type", "is_read", "created_at"},
	args: func(n *types.Notification) []any {
		return []any{n.UserID, n.Title, n.Message, string(n.Type), n.IsRead, n.CreatedAt}
	},
	dest: func(n *types.Notification) []any {
		return []any{&n.UserID, &n.Title, &n.Message, &n.Type, &n.IsRead, &n.CreatedAt}
	},
}

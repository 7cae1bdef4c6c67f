package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteTimeLayout = time.RFC3339Nano

const taskColumns = `id, title, description, state, category, energy, priority, project_id,
	estimated_pomodoros, completed_pomodoros, completed, created_at`

const blockColumns = `id, day, task_id, task_title, block_type, lane, start_at, end_at,
	pomodoro_count, break_minutes, created_at`

type SQLiteRepository struct {
	db *sql.DB
}

var _ Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	// foreign_keys is a per-connection pragma.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

// OpenSQLite opens path and applies pending up migrations.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) CreateTask(ctx context.Context, in Task) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.Title, in.Description, in.State, in.Category, in.Energy,
		nullInt(in.Priority), nullString(in.ProjectID),
		in.EstimatedPomodoros, in.CompletedPomodoros, boolInt(in.Completed), mustTime(in.CreatedAt),
	)
	return err
}

func (r *SQLiteRepository) GetTask(ctx context.Context, id string) (Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Task{}, ErrNotFound
		}
		return Task{}, err
	}
	return task, nil
}

func (r *SQLiteRepository) UpdateTask(ctx context.Context, in Task) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, description = ?, state = ?, category = ?, energy = ?, priority = ?, project_id = ?,
			estimated_pomodoros = ?, completed_pomodoros = ?, completed = ?
		WHERE id = ?`,
		in.Title, in.Description, in.State, in.Category, in.Energy,
		nullInt(in.Priority), nullString(in.ProjectID),
		in.EstimatedPomodoros, in.CompletedPomodoros, boolInt(in.Completed), in.ID,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) DeleteTask(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

// ListTasks returns tasks oldest first so callers see a stable input order.
func (r *SQLiteRepository) ListTasks(ctx context.Context, filter TaskListFilter) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if filter.State != "" {
		clauses = append(clauses, "state = ?")
		args = append(args, filter.State)
	}
	if filter.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, filter.Category)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY created_at ASC, id ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SaveTemplate(ctx context.Context, in Template) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO daily_templates (id, wake_up, sleep, max_parallel_lanes, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			wake_up = excluded.wake_up,
			sleep = excluded.sleep,
			max_parallel_lanes = excluded.max_parallel_lanes,
			updated_at = excluded.updated_at`,
		in.ID, in.WakeUp, in.Sleep, nullInt(in.MaxParallelLanes), mustTime(in.UpdatedAt),
	)
	return err
}

func (r *SQLiteRepository) GetTemplate(ctx context.Context, id string) (Template, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, wake_up, sleep, max_parallel_lanes, updated_at
		FROM daily_templates WHERE id = ?`, id)
	var out Template
	var lanes sql.NullInt64
	var updated string
	if err := row.Scan(&out.ID, &out.WakeUp, &out.Sleep, &lanes, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Template{}, ErrNotFound
		}
		return Template{}, err
	}
	updatedAt, err := parseRequiredTime(updated)
	if err != nil {
		return Template{}, err
	}
	out.MaxParallelLanes = parseNullableInt(lanes)
	out.UpdatedAt = updatedAt
	return out, nil
}

func (r *SQLiteRepository) DeleteTemplate(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM daily_templates WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) CreateFixedEvent(ctx context.Context, in FixedEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO fixed_events (id, template_id, name, start_time, duration_minutes, days, enabled)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.TemplateID, in.Name, in.StartTime, in.DurationMinutes, in.Days, boolInt(in.Enabled),
	)
	return err
}

func (r *SQLiteRepository) GetFixedEvent(ctx context.Context, id string) (FixedEvent, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, template_id, name, start_time, duration_minutes, days, enabled
		FROM fixed_events WHERE id = ?`, id)
	item, err := scanFixedEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return FixedEvent{}, ErrNotFound
		}
		return FixedEvent{}, err
	}
	return item, nil
}

func (r *SQLiteRepository) UpdateFixedEvent(ctx context.Context, in FixedEvent) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE fixed_events
		SET template_id = ?, name = ?, start_time = ?, duration_minutes = ?, days = ?, enabled = ?
		WHERE id = ?`,
		in.TemplateID, in.Name, in.StartTime, in.DurationMinutes, in.Days, boolInt(in.Enabled), in.ID,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) DeleteFixedEvent(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM fixed_events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListFixedEvents(ctx context.Context, filter FixedEventListFilter) ([]FixedEvent, error) {
	query := `SELECT id, template_id, name, start_time, duration_minutes, days, enabled FROM fixed_events`
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if filter.TemplateID != "" {
		clauses = append(clauses, "template_id = ?")
		args = append(args, filter.TemplateID)
	}
	if filter.Enabled != nil {
		clauses = append(clauses, "enabled = ?")
		args = append(args, boolInt(*filter.Enabled))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY start_time ASC, id ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]FixedEvent, 0)
	for rows.Next() {
		item, scanErr := scanFixedEvent(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// ReplaceBlocks swaps the stored plan for day in one transaction.
func (r *SQLiteRepository) ReplaceBlocks(ctx context.Context, day string, blocks []Block) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM scheduled_blocks WHERE day = ?`, day); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO scheduled_blocks (`+blockColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, b := range blocks {
		if !b.EndAt.After(b.StartAt) {
			return fmt.Errorf("storage: block %s ends before it starts", b.ID)
		}
		if _, err = stmt.ExecContext(ctx,
			b.ID, day, nullString(b.TaskID), b.TaskTitle, b.Type, b.Lane,
			mustTime(b.StartAt), mustTime(b.EndAt), b.PomodoroCount, b.BreakMinutes, mustTime(b.CreatedAt),
		); err != nil {
			return fmt.Errorf("insert block %s: %w", b.ID, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRepository) ListBlocks(ctx context.Context, filter BlockListFilter) ([]Block, error) {
	query := `SELECT ` + blockColumns + ` FROM scheduled_blocks`
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if filter.Day != "" {
		clauses = append(clauses, "day = ?")
		args = append(args, filter.Day)
	}
	if filter.Type != "" {
		clauses = append(clauses, "block_type = ?")
		args = append(args, filter.Type)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY start_at ASC, lane ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Block, 0)
	for rows.Next() {
		item, scanErr := scanBlock(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteBlocks(ctx context.Context, day string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM scheduled_blocks WHERE day = ?`, day)
	return err
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func parseNullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func parseNullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, v)
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func applyPagination(args *[]any, limit, offset int) string {
	sql := ""
	if limit > 0 {
		sql += " LIMIT ?"
		*args = append(*args, limit)
	} else if offset > 0 {
		sql += " LIMIT -1"
	}
	if offset > 0 {
		sql += " OFFSET ?"
		*args = append(*args, offset)
	}
	return sql
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (Task, error) {
	var out Task
	var priority sql.NullInt64
	var project sql.NullString
	var completed int
	var created string
	if err := s.Scan(&out.ID, &out.Title, &out.Description, &out.State, &out.Category, &out.Energy,
		&priority, &project, &out.EstimatedPomodoros, &out.CompletedPomodoros, &completed, &created); err != nil {
		return Task{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return Task{}, err
	}
	out.Priority = parseNullableInt(priority)
	out.ProjectID = parseNullableString(project)
	out.Completed = completed == 1
	out.CreatedAt = createdAt
	return out, nil
}

func scanFixedEvent(s scanner) (FixedEvent, error) {
	var out FixedEvent
	var enabled int
	if err := s.Scan(&out.ID, &out.TemplateID, &out.Name, &out.StartTime, &out.DurationMinutes, &out.Days, &enabled); err != nil {
		return FixedEvent{}, err
	}
	out.Enabled = enabled == 1
	return out, nil
}

func scanBlock(s scanner) (Block, error) {
	var out Block
	var taskID sql.NullString
	var start, end, created string
	if err := s.Scan(&out.ID, &out.Day, &taskID, &out.TaskTitle, &out.Type, &out.Lane,
		&start, &end, &out.PomodoroCount, &out.BreakMinutes, &created); err != nil {
		return Block{}, err
	}
	startAt, err := parseRequiredTime(start)
	if err != nil {
		return Block{}, err
	}
	endAt, err := parseRequiredTime(end)
	if err != nil {
		return Block{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return Block{}, err
	}
	out.TaskID = parseNullableString(taskID)
	out.StartAt = startAt
	out.EndAt = endAt
	out.CreatedAt = createdAt
	return out, nil
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/storefront-system/internal/model"
)

const logColumns = `id, level, category, action, message, user_id, user_name, user_email,
	ip, user_agent, method, url, status_code, duration_ms, created_at`

func scanLogEntry(row pgx.Row) (*model.LogEntry, error) {
	var e model.LogEntry
	err := row.Scan(&e.ID, &e.Level, &e.Category, &e.Action, &e.Message, &e.UserID,
		&e.UserName, &e.UserEmail, &e.IP, &e.UserAgent, &e.Method, &e.URL,
		&e.StatusCode, &e.DurationMS, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLogNotFound
		}
		return nil, fmt.Errorf("scan log entry: %w", err)
	}
	return &e, nil
}

// CreateLogEntry сохраняет запись журнала действий.
func (r *PostgresRepository) CreateLogEntry(ctx context.Context, e model.LogEntry) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO logs (level, category, action, message, user_id, user_name, user_email,
			ip, user_agent, method, url, status_code, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		string(e.Level), e.Category, e.Action, e.Message, e.UserID, e.UserName, e.UserEmail,
		e.IP, e.UserAgent, e.Method, e.URL, e.StatusCode, e.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("insert log entry: %w", err)
	}
	return nil
}

// LogFilter ограничивает выборку журнала.
type LogFilter struct {
	Level    string
	Category string
	UserID   *int64
	Start    *time.Time
	End      *time.Time
	Limit    int
	Offset   int
}

func (f LogFilter) where() (string, []any) {
	cond := " WHERE TRUE"
	var args []any

	if f.Level != "" {
		args = append(args, f.Level)
		cond += fmt.Sprintf(" AND level = $%d", len(args))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		cond += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if f.UserID != nil {
		args = append(args, *f.UserID)
		cond += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if f.Start != nil {
		args = append(args, *f.Start)
		cond += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if f.End != nil {
		args = append(args, *f.End)
		cond += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}

	return cond, args
}

// ListLogs возвращает страницу журнала и общее число записей по фильтру.
func (r *PostgresRepository) ListLogs(ctx context.Context, f LogFilter) ([]model.LogEntry, int64, error) {
	cond, args := f.where()

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM logs`+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count logs: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	args = append(args, limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM logs%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		logColumns, cond, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("select logs: %w", err)
	}
	defer rows.Close()

	var entries []model.LogEntry
	for rows.Next() {
		e, err := scanLogEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	return entries, total, nil
}

// GetLogByID возвращает одну запись журнала.
func (r *PostgresRepository) GetLogByID(ctx context.Context, id int64) (*model.LogEntry, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+logColumns+` FROM logs WHERE id = $1`, id)
	return scanLogEntry(row)
}

// LogCount — счётчик записей по ключу группировки.
type LogCount struct {
	Key   string
	Count int64
}

// LogStats содержит агрегаты журнала.
type LogStats struct {
	Total        int64
	ByLevel      []LogCount
	ByCategory   []LogCount
	ByDay        []LogCount
	RecentErrors []model.LogEntry
}

func (r *PostgresRepository) groupLogs(ctx context.Context, expr, cond string, args []any) ([]LogCount, error) {
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s, COUNT(*) FROM logs%s GROUP BY 1 ORDER BY 1`, expr, cond), args...)
	if err != nil {
		return nil, fmt.Errorf("group logs: %w", err)
	}
	defer rows.Close()

	var res []LogCount
	for rows.Next() {
		var c LogCount
		if err := rows.Scan(&c.Key, &c.Count); err != nil {
			return nil, fmt.Errorf("scan log count: %w", err)
		}
		res = append(res, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// GetLogStats возвращает сводку журнала: итоги по уровням и категориям,
// счётчики за последние 7 дней и свежие ошибки.
func (r *PostgresRepository) GetLogStats(ctx context.Context, f LogFilter) (*LogStats, error) {
	cond, args := f.where()

	var s LogStats

	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM logs`+cond, args...).Scan(&s.Total); err != nil {
		return nil, fmt.Errorf("count logs: %w", err)
	}

	byLevel, err := r.groupLogs(ctx, "level", cond, args)
	if err != nil {
		return nil, err
	}
	s.ByLevel = byLevel

	byCategory, err := r.groupLogs(ctx, "category", cond, args)
	if err != nil {
		return nil, err
	}
	s.ByCategory = byCategory

	byDay, err := r.groupLogs(ctx,
		"to_char(created_at, 'YYYY-MM-DD')",
		" WHERE created_at >= now() - INTERVAL '7 days'", nil)
	if err != nil {
		return nil, err
	}
	s.ByDay = byDay

	rows, err := r.pool.Query(ctx,
		`SELECT `+logColumns+` FROM logs WHERE level = 'error' ORDER BY created_at DESC LIMIT 10`)
	if err != nil {
		return nil, fmt.Errorf("select recent errors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanLogEntry(rows)
		if err != nil {
			return nil, err
		}
		s.RecentErrors = append(s.RecentErrors, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return &s, nil
}

// PurgeLogs удаляет записи журнала старше указанного числа дней и возвращает
// количество удалённых записей.
func (r *PostgresRepository) PurgeLogs(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)

	tag, err := r.pool.Exec(ctx, `DELETE FROM logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge logs: %w", err)
	}

	return tag.RowsAffected(), nil
}

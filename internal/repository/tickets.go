package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/storefront-system/internal/model"
)

const ticketColumns = `id, number, user_id, category, priority, status, subject, description,
	assigned_to, resolved_at, closed_at, created_at, updated_at`

func scanTicket(row pgx.Row) (*model.Ticket, error) {
	var t model.Ticket
	err := row.Scan(&t.ID, &t.Number, &t.UserID, &t.Category, &t.Priority, &t.Status,
		&t.Subject, &t.Description, &t.AssignedTo, &t.ResolvedAt, &t.ClosedAt,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("scan ticket: %w", err)
	}
	return &t, nil
}

func (r *PostgresRepository) loadTicketMessages(ctx context.Context, t *model.Ticket) error {
	rows, err := r.pool.Query(ctx,
		`SELECT id, ticket_id, sender_id, sender_type, message, created_at
		 FROM ticket_messages
		 WHERE ticket_id = $1
		 ORDER BY created_at, id`,
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("select ticket messages: %w", err)
	}
	defer rows.Close()

	var msgs []model.TicketMessage
	for rows.Next() {
		var m model.TicketMessage
		if err := rows.Scan(&m.ID, &m.TicketID, &m.SenderID, &m.SenderType, &m.Message, &m.CreatedAt); err != nil {
			return fmt.Errorf("scan ticket message: %w", err)
		}
		msgs = append(msgs, m)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}

	t.Messages = msgs
	return nil
}

// CreateTicket создаёт тикет с номером из выделенной последовательности.
// Последовательность гарантирует уникальность и монотонность номеров.
func (r *PostgresRepository) CreateTicket(ctx context.Context, t model.Ticket) (*model.Ticket, error) {
	var seq int64
	if err := r.pool.QueryRow(ctx, `SELECT nextval('ticket_number_seq')`).Scan(&seq); err != nil {
		return nil, fmt.Errorf("next ticket number: %w", err)
	}

	number := fmt.Sprintf("#%06d", seq)

	row := r.pool.QueryRow(ctx,
		`INSERT INTO tickets (number, user_id, category, priority, status, subject, description)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+ticketColumns,
		number, t.UserID, t.Category, string(t.Priority), string(t.Status), t.Subject, t.Description,
	)

	created, err := scanTicket(row)
	if err != nil {
		return nil, fmt.Errorf("insert ticket: %w", err)
	}
	return created, nil
}

// GetTicketByID возвращает тикет вместе с перепиской.
func (r *PostgresRepository) GetTicketByID(ctx context.Context, id int64) (*model.Ticket, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id)

	t, err := scanTicket(row)
	if err != nil {
		return nil, err
	}

	if err := r.loadTicketMessages(ctx, t); err != nil {
		return nil, err
	}

	return t, nil
}

// TicketFilter ограничивает выборку тикетов.
type TicketFilter struct {
	UserID   *int64
	Status   string
	Category string
	Priority string
}

// ListTickets возвращает тикеты по фильтру, новые первыми.
func (r *PostgresRepository) ListTickets(ctx context.Context, f TicketFilter) ([]model.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE TRUE`
	var args []any

	if f.UserID != nil {
		args = append(args, *f.UserID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if f.Priority != "" {
		args = append(args, f.Priority)
		query += fmt.Sprintf(" AND priority = $%d", len(args))
	}

	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select tickets: %w", err)
	}
	defer rows.Close()

	var tickets []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return tickets, nil
}

// AddTicketMessage добавляет сообщение и переводит тикет в новый статус
// в одной транзакции.
func (r *PostgresRepository) AddTicketMessage(ctx context.Context, ticketID int64, m model.TicketMessage, newStatus model.TicketStatus) (*model.Ticket, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO ticket_messages (ticket_id, sender_id, sender_type, message)
		 VALUES ($1, $2, $3, $4)`,
		ticketID, m.SenderID, string(m.SenderType), m.Message,
	)
	if err != nil {
		return nil, fmt.Errorf("insert ticket message: %w", err)
	}

	row := tx.QueryRow(ctx,
		`UPDATE tickets SET status = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING `+ticketColumns,
		ticketID, string(newStatus),
	)

	t, err := scanTicket(row)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	if err := r.loadTicketMessages(ctx, t); err != nil {
		return nil, err
	}

	return t, nil
}

// UpdateTicketStatus обновляет статус тикета и проставляет отметки времени
// решения и закрытия.
func (r *PostgresRepository) UpdateTicketStatus(ctx context.Context, ticketID int64, status model.TicketStatus) (*model.Ticket, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE tickets
		 SET status = $2,
		     resolved_at = CASE WHEN $2 = 'resolved' THEN now() ELSE resolved_at END,
		     closed_at   = CASE WHEN $2 = 'closed' THEN now() ELSE closed_at END,
		     updated_at = now()
		 WHERE id = $1
		 RETURNING `+ticketColumns,
		ticketID, string(status),
	)

	t, err := scanTicket(row)
	if err != nil {
		return nil, err
	}

	if err := r.loadTicketMessages(ctx, t); err != nil {
		return nil, err
	}

	return t, nil
}

// AssignTicket назначает тикет сотруднику и переводит его в работу.
func (r *PostgresRepository) AssignTicket(ctx context.Context, ticketID, staffID int64) (*model.Ticket, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE tickets SET assigned_to = $2, status = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING `+ticketColumns,
		ticketID, staffID, string(model.TicketStatusInProgress),
	)

	t, err := scanTicket(row)
	if err != nil {
		return nil, err
	}

	if err := r.loadTicketMessages(ctx, t); err != nil {
		return nil, err
	}

	return t, nil
}

// TicketStats содержит количество тикетов по статусам.
type TicketStats struct {
	Total           int64
	Open            int64
	InProgress      int64
	WaitingResponse int64
	Resolved        int64
	Closed          int64
	Urgent          int64
}

// GetTicketStats возвращает агрегаты по тикетам. При userID != nil выборка
// ограничивается тикетами одного пользователя.
func (r *PostgresRepository) GetTicketStats(ctx context.Context, userID *int64) (*TicketStats, error) {
	query := `SELECT COUNT(*),
	       COUNT(*) FILTER (WHERE status = 'open'),
	       COUNT(*) FILTER (WHERE status = 'in_progress'),
	       COUNT(*) FILTER (WHERE status = 'waiting_response'),
	       COUNT(*) FILTER (WHERE status = 'resolved'),
	       COUNT(*) FILTER (WHERE status = 'closed'),
	       COUNT(*) FILTER (WHERE priority = 'urgent')
	 FROM tickets`
	var args []any
	if userID != nil {
		query += ` WHERE user_id = $1`
		args = append(args, *userID)
	}

	var s TicketStats
	err := r.pool.QueryRow(ctx, query, args...).Scan(&s.Total, &s.Open, &s.InProgress,
		&s.WaitingResponse, &s.Resolved, &s.Closed, &s.Urgent)
	if err != nil {
		return nil, fmt.Errorf("ticket stats: %w", err)
	}
	return &s, nil
}

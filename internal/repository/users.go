package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/storefront-system/internal/model"
)

const userColumns = `id, name, email, password_hash, role, permissions, is_active, email_verified, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Permissions,
		&u.IsActive, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// CreateUser создаёт нового пользователя с токеном подтверждения email.
func (r *PostgresRepository) CreateUser(ctx context.Context, name, email string, passwordHash []byte, verificationToken string, tokenExpires time.Time) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash, verification_token, verification_token_expires)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+userColumns,
		name, email, passwordHash, verificationToken, tokenExpires,
	)

	u, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrUserExists, email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по email.
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// GetUserByID возвращает пользователя по идентификатору.
func (r *PostgresRepository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// ListUsers возвращает всех пользователей, новые первыми.
func (r *PostgresRepository) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return users, nil
}

// UpdateUserProfile обновляет имя и email пользователя.
func (r *PostgresRepository) UpdateUserProfile(ctx context.Context, id int64, name, email string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE users SET name = $2, email = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, name, email,
	)

	u, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrUserExists, email)
		}
		return nil, err
	}
	return u, nil
}

// UpdateUserPassword сохраняет новый хеш пароля пользователя.
func (r *PostgresRepository) UpdateUserPassword(ctx context.Context, id int64, passwordHash []byte) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`,
		id, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateUserRole обновляет роль и права пользователя.
func (r *PostgresRepository) UpdateUserRole(ctx context.Context, id int64, role model.Role, permissions []string) (*model.User, error) {
	if permissions == nil {
		permissions = []string{}
	}
	row := r.pool.QueryRow(ctx,
		`UPDATE users SET role = $2, permissions = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, string(role), permissions,
	)
	return scanUser(row)
}

// UpdateUserStatus активирует или деактивирует учётную запись.
func (r *PostgresRepository) UpdateUserStatus(ctx context.Context, id int64, isActive bool) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE users SET is_active = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, isActive,
	)
	return scanUser(row)
}

// DeleteUser удаляет пользователя. Связанные заказы, тикеты и адреса
// удаляются каскадно на уровне схемы.
func (r *PostgresRepository) DeleteUser(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: %d", ErrUserHasRecords, id)
		}
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// VerifyEmail подтверждает email по токену и очищает токен.
func (r *PostgresRepository) VerifyEmail(ctx context.Context, token string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users
		 SET email_verified = TRUE, verification_token = NULL, verification_token_expires = NULL, updated_at = now()
		 WHERE verification_token = $1 AND verification_token_expires > now()`,
		token,
	)
	if err != nil {
		return fmt.Errorf("verify email: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVerificationToken
	}
	return nil
}

const addressColumns = `id, user_id, name, phone, street, city, postal_code, country, is_default, created_at`

func scanAddresses(rows pgx.Rows) ([]model.Address, error) {
	defer rows.Close()

	var res []model.Address
	for rows.Next() {
		var a model.Address
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Phone, &a.Street, &a.City,
			&a.PostalCode, &a.Country, &a.IsDefault, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		res = append(res, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// ListAddresses возвращает адреса пользователя в порядке создания.
func (r *PostgresRepository) ListAddresses(ctx context.Context, userID int64) ([]model.Address, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select addresses: %w", err)
	}
	return scanAddresses(rows)
}

// AddAddress добавляет адрес пользователю. Первый адрес становится адресом по
// умолчанию; установка флага по умолчанию снимает его с остальных адресов.
func (r *PostgresRepository) AddAddress(ctx context.Context, userID int64, a model.Address) ([]model.Address, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var count int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM addresses WHERE user_id = $1`, userID).Scan(&count); err != nil {
		return nil, fmt.Errorf("count addresses: %w", err)
	}

	makeDefault := count == 0 || a.IsDefault

	if a.IsDefault {
		if _, err := tx.Exec(ctx,
			`UPDATE addresses SET is_default = FALSE WHERE user_id = $1`, userID); err != nil {
			return nil, fmt.Errorf("unset defaults: %w", err)
		}
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO addresses (user_id, name, phone, street, city, postal_code, country, is_default)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		userID, a.Name, a.Phone, a.Street, a.City, a.PostalCode, a.Country, makeDefault,
	)
	if err != nil {
		return nil, fmt.Errorf("insert address: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return r.ListAddresses(ctx, userID)
}

// UpdateAddress обновляет адрес пользователя.
func (r *PostgresRepository) UpdateAddress(ctx context.Context, userID, addressID int64, a model.Address) ([]model.Address, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if a.IsDefault {
		if _, err := tx.Exec(ctx,
			`UPDATE addresses SET is_default = FALSE WHERE user_id = $1`, userID); err != nil {
			return nil, fmt.Errorf("unset defaults: %w", err)
		}
	}

	tag, err := tx.Exec(ctx,
		`UPDATE addresses
		 SET name = $3, phone = $4, street = $5, city = $6, postal_code = $7, country = $8, is_default = $9
		 WHERE id = $1 AND user_id = $2`,
		addressID, userID, a.Name, a.Phone, a.Street, a.City, a.PostalCode, a.Country, a.IsDefault,
	)
	if err != nil {
		return nil, fmt.Errorf("update address: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrAddressNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return r.ListAddresses(ctx, userID)
}

// DeleteAddress удаляет адрес пользователя. Если удалён адрес по умолчанию,
// роль переходит к первому из оставшихся.
func (r *PostgresRepository) DeleteAddress(ctx context.Context, userID, addressID int64) ([]model.Address, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var wasDefault bool
	err = tx.QueryRow(ctx,
		`DELETE FROM addresses WHERE id = $1 AND user_id = $2 RETURNING is_default`,
		addressID, userID,
	).Scan(&wasDefault)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAddressNotFound
		}
		return nil, fmt.Errorf("delete address: %w", err)
	}

	if wasDefault {
		_, err = tx.Exec(ctx,
			`UPDATE addresses SET is_default = TRUE
			 WHERE id = (SELECT id FROM addresses WHERE user_id = $1 ORDER BY created_at LIMIT 1)`,
			userID,
		)
		if err != nil {
			return nil, fmt.Errorf("promote default: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return r.ListAddresses(ctx, userID)
}

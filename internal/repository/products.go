package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/storefront-system/internal/model"
)

// created_by обнуляется при удалении автора, в модели это значение 0.
const productColumns = `id, name, description, price_cents, stock, category, sku, image, is_active, COALESCE(created_by, 0), created_at, updated_at`

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.Stock, &p.Category,
		&p.SKU, &p.Image, &p.IsActive, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return &p, nil
}

// CreateProduct создаёт новый товар каталога.
func (r *PostgresRepository) CreateProduct(ctx context.Context, p model.Product) (*model.Product, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO products (name, description, price_cents, stock, category, sku, image, is_active, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+productColumns,
		p.Name, p.Description, p.PriceCents, p.Stock, p.Category, p.SKU, p.Image, p.IsActive, p.CreatedBy,
	)

	created, err := scanProduct(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrProductExists, p.SKU)
		}
		return nil, fmt.Errorf("create product: %w", err)
	}
	return created, nil
}

// GetProductByID возвращает товар по идентификатору.
func (r *PostgresRepository) GetProductByID(ctx context.Context, id int64) (*model.Product, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

// ListProducts возвращает все товары каталога, новые первыми.
func (r *PostgresRepository) ListProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return products, nil
}

// UpdateProduct обновляет поля товара.
func (r *PostgresRepository) UpdateProduct(ctx context.Context, p model.Product) (*model.Product, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE products
		 SET name = $2, description = $3, price_cents = $4, stock = $5, category = $6,
		     sku = $7, image = $8, is_active = $9, updated_at = now()
		 WHERE id = $1
		 RETURNING `+productColumns,
		p.ID, p.Name, p.Description, p.PriceCents, p.Stock, p.Category, p.SKU, p.Image, p.IsActive,
	)

	updated, err := scanProduct(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrProductExists, p.SKU)
		}
		return nil, err
	}
	return updated, nil
}

// DeleteProduct удаляет товар из каталога.
func (r *PostgresRepository) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/storefront-system/internal/model"
)

const orderColumns = `id, customer_id, ship_name, ship_phone, ship_street, ship_city, ship_postal_code, ship_country,
	shipping_method, payment_method, subtotal_cents, shipping_cents, discount_cents, promo_code, total_cents,
	status, payment_status, created_at, updated_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(&o.ID, &o.CustomerID,
		&o.Shipping.Name, &o.Shipping.Phone, &o.Shipping.Street, &o.Shipping.City,
		&o.Shipping.PostalCode, &o.Shipping.Country,
		&o.ShippingMethod, &o.PaymentMethod,
		&o.SubtotalCents, &o.ShippingCents, &o.DiscountCents, &o.PromoCode, &o.TotalCents,
		&o.Status, &o.PaymentStatus, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return &o, nil
}

func (r *PostgresRepository) loadOrderItems(ctx context.Context, orders []model.Order) error {
	for i := range orders {
		rows, err := r.pool.Query(ctx,
			`SELECT product_id, product_name, quantity, price_cents
			 FROM order_items
			 WHERE order_id = $1
			 ORDER BY id`,
			orders[i].ID,
		)
		if err != nil {
			return fmt.Errorf("select order items: %w", err)
		}

		items, err := scanOrderItems(rows)
		if err != nil {
			return err
		}
		orders[i].Items = items
	}
	return nil
}

func scanOrderItems(rows pgx.Rows) ([]model.OrderItem, error) {
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ProductID, &it.ProductName, &it.Quantity, &it.PriceCents); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

// CreateOrder сохраняет заказ и списывает остатки в одной транзакции.
// Списание условное: stock = stock - n выполняется только при stock >= n,
// иначе вся транзакция откатывается с ErrInsufficientStock. Так параллельные
// заказы на один товар не могут увести остаток в минус.
func (r *PostgresRepository) CreateOrder(ctx context.Context, o model.Order) (*model.Order, error) {
	var created *model.Order

	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		row := tx.QueryRow(ctx,
			`INSERT INTO orders (customer_id, ship_name, ship_phone, ship_street, ship_city,
				ship_postal_code, ship_country, shipping_method, payment_method,
				subtotal_cents, shipping_cents, discount_cents, promo_code, total_cents,
				status, payment_status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			 RETURNING `+orderColumns,
			o.CustomerID, o.Shipping.Name, o.Shipping.Phone, o.Shipping.Street, o.Shipping.City,
			o.Shipping.PostalCode, o.Shipping.Country, o.ShippingMethod, o.PaymentMethod,
			o.SubtotalCents, o.ShippingCents, o.DiscountCents, o.PromoCode, o.TotalCents,
			string(o.Status), string(o.PaymentStatus),
		)

		created, err = scanOrder(row)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for _, it := range o.Items {
			_, err = tx.Exec(ctx,
				`INSERT INTO order_items (order_id, product_id, product_name, quantity, price_cents)
				 VALUES ($1, $2, $3, $4, $5)`,
				created.ID, it.ProductID, it.ProductName, it.Quantity, it.PriceCents,
			)
			if err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}

			tag, err := tx.Exec(ctx,
				`UPDATE products SET stock = stock - $2, updated_at = now()
				 WHERE id = $1 AND stock >= $2`,
				it.ProductID, it.Quantity,
			)
			if err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("%w: product %d", ErrInsufficientStock, it.ProductID)
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	created.Items = o.Items
	return created, nil
}

// GetOrderByID возвращает заказ с позициями.
func (r *PostgresRepository) GetOrderByID(ctx context.Context, id int64) (*model.Order, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)

	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}

	orders := []model.Order{*o}
	if err := r.loadOrderItems(ctx, orders); err != nil {
		return nil, err
	}

	return &orders[0], nil
}

func (r *PostgresRepository) queryOrders(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	if err := r.loadOrderItems(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// ListOrdersByCustomer возвращает заказы покупателя, новые первыми.
func (r *PostgresRepository) ListOrdersByCustomer(ctx context.Context, customerID int64) ([]model.Order, error) {
	return r.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE customer_id = $1 ORDER BY created_at DESC`,
		customerID,
	)
}

// ListAllOrders возвращает все заказы магазина, новые первыми.
func (r *PostgresRepository) ListAllOrders(ctx context.Context) ([]model.Order, error) {
	return r.queryOrders(ctx,
		`SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`)
}

// CancelOrder отменяет заказ и возвращает остатки по всем позициям в одной
// транзакции. Статусная проверка выполняется в том же UPDATE, поэтому
// повторная отмена не продублирует возврат остатков.
func (r *PostgresRepository) CancelOrder(ctx context.Context, orderID int64) (*model.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`UPDATE orders SET status = $2, updated_at = now()
		 WHERE id = $1 AND status NOT IN ($3, $4)
		 RETURNING `+orderColumns,
		orderID, string(model.OrderStatusCancelled),
		string(model.OrderStatusDelivered), string(model.OrderStatusCancelled),
	)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotCancellable
		}
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE products p
		 SET stock = p.stock + i.quantity, updated_at = now()
		 FROM order_items i
		 WHERE i.order_id = $1 AND i.product_id = p.id`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("restore stock: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	orders := []model.Order{*o}
	if err := r.loadOrderItems(ctx, orders); err != nil {
		return nil, err
	}

	return &orders[0], nil
}

// UpdateOrderStatus обновляет статус обработки и статус оплаты заказа.
// Пустой paymentStatus сохраняет текущее значение.
func (r *PostgresRepository) UpdateOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus, paymentStatus model.PaymentStatus) (*model.Order, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE orders
		 SET status = $2,
		     payment_status = COALESCE(NULLIF($3, ''), payment_status),
		     updated_at = now()
		 WHERE id = $1
		 RETURNING `+orderColumns,
		orderID, string(status), string(paymentStatus),
	)

	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}

	orders := []model.Order{*o}
	if err := r.loadOrderItems(ctx, orders); err != nil {
		return nil, err
	}

	return &orders[0], nil
}

// UserOrderStats содержит агрегаты по заказам одного покупателя.
type UserOrderStats struct {
	TotalOrders     int64
	TotalSpentCents int64
	PendingOrders   int64
	CompletedOrders int64
}

// GetUserOrderStats возвращает агрегаты по заказам покупателя.
func (r *PostgresRepository) GetUserOrderStats(ctx context.Context, customerID int64) (*UserOrderStats, error) {
	var s UserOrderStats
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(total_cents), 0),
		        COUNT(*) FILTER (WHERE status = $2),
		        COUNT(*) FILTER (WHERE status = $3)
		 FROM orders
		 WHERE customer_id = $1`,
		customerID, string(model.OrderStatusPending), string(model.OrderStatusDelivered),
	).Scan(&s.TotalOrders, &s.TotalSpentCents, &s.PendingOrders, &s.CompletedOrders)
	if err != nil {
		return nil, fmt.Errorf("user order stats: %w", err)
	}
	return &s, nil
}

// AdminStats содержит агрегаты для панели администратора.
type AdminStats struct {
	TotalUsers        int64
	TotalProducts     int64
	ActiveProducts    int64
	TotalOrders       int64
	PendingOrders     int64
	LowStockProducts  int64
	TotalRevenueCents int64
}

// GetAdminStats возвращает сводную статистику магазина.
func (r *PostgresRepository) GetAdminStats(ctx context.Context) (*AdminStats, error) {
	var s AdminStats

	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&s.TotalUsers)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE is_active),
		        COUNT(*) FILTER (WHERE stock < 10)
		 FROM products`,
	).Scan(&s.TotalProducts, &s.ActiveProducts, &s.LowStockProducts)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE status = $1),
		        COALESCE(SUM(total_cents), 0)
		 FROM orders`,
		string(model.OrderStatusPending),
	).Scan(&s.TotalOrders, &s.PendingOrders, &s.TotalRevenueCents)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	return &s, nil
}

package service

import (
	"context"
	"strconv"

	"github.com/mmeshcher/storefront-system/internal/model"
	"github.com/mmeshcher/storefront-system/internal/repository"
)

// ListUsers возвращает всех пользователей магазина.
func (s *Service) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.ListUsers(ctx)
}

// UpdateUserRole меняет роль и права пользователя.
func (s *Service) UpdateUserRole(ctx context.Context, actor *model.User, userID int64, role model.Role, permissions []string) (*model.User, error) {
	u, err := s.repo.UpdateUserRole(ctx, userID, role, permissions)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, model.LogEntry{
		Level:     model.LogLevelInfo,
		Category:  "security",
		Action:    "role_updated",
		Message:   "user " + strconv.FormatInt(userID, 10) + " role set to " + string(role),
		UserID:    &actor.ID,
		UserName:  actor.Name,
		UserEmail: actor.Email,
	})

	return u, nil
}

// UpdateUserStatus активирует или деактивирует учётную запись.
func (s *Service) UpdateUserStatus(ctx context.Context, userID int64, isActive bool) (*model.User, error) {
	return s.repo.UpdateUserStatus(ctx, userID, isActive)
}

// DeleteUser удаляет пользователя.
func (s *Service) DeleteUser(ctx context.Context, userID int64) error {
	return s.repo.DeleteUser(ctx, userID)
}

// ListProducts возвращает каталог товаров.
func (s *Service) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.repo.ListProducts(ctx)
}

// CreateProduct создаёт товар от имени администратора.
func (s *Service) CreateProduct(ctx context.Context, p model.Product) (*model.Product, error) {
	return s.repo.CreateProduct(ctx, p)
}

// UpdateProduct обновляет товар.
func (s *Service) UpdateProduct(ctx context.Context, p model.Product) (*model.Product, error) {
	return s.repo.UpdateProduct(ctx, p)
}

// DeleteProduct удаляет товар.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	return s.repo.DeleteProduct(ctx, id)
}

// ListAllOrders возвращает все заказы магазина.
func (s *Service) ListAllOrders(ctx context.Context) ([]model.Order, error) {
	return s.repo.ListAllOrders(ctx)
}

// UpdateOrderStatus обновляет статус обработки и оплаты заказа.
// Пустой paymentStatus сохраняет текущий статус оплаты.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus, paymentStatus model.PaymentStatus) (*model.Order, error) {
	if paymentStatus == "" {
		cur, err := s.repo.GetOrderByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		paymentStatus = cur.PaymentStatus
	}

	return s.repo.UpdateOrderStatus(ctx, orderID, status, paymentStatus)
}

// GetAdminStats возвращает сводную статистику магазина.
func (s *Service) GetAdminStats(ctx context.Context) (*repository.AdminStats, error) {
	return s.repo.GetAdminStats(ctx)
}

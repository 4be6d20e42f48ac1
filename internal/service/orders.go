package service

import (
	"context"
	"fmt"

	"github.com/mmeshcher/storefront-system/internal/model"
	"github.com/mmeshcher/storefront-system/internal/repository"
)

// OrderItemInput описывает позицию нового заказа.
type OrderItemInput struct {
	ProductID  int64
	Quantity   int
	PriceCents int64
}

// PlaceOrderInput описывает данные нового заказа.
type PlaceOrderInput struct {
	Items          []OrderItemInput
	Shipping       model.ShippingAddress
	ShippingMethod string
	PaymentMethod  string
	SubtotalCents  int64
	ShippingCents  int64
	DiscountCents  int64
	PromoCode      string
	TotalCents     int64
}

// PlaceOrder создаёт заказ покупателя. Сначала валидируются все позиции,
// затем заказ и списание остатков выполняются одной транзакцией, поэтому
// частичного списания не бывает даже при параллельных заказах.
func (s *Service) PlaceOrder(ctx context.Context, customerID int64, in PlaceOrderInput) (*model.Order, error) {
	items := make([]model.OrderItem, 0, len(in.Items))

	for _, it := range in.Items {
		product, err := s.repo.GetProductByID(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.IsActive {
			return nil, fmt.Errorf("%w: %s", repository.ErrProductInactive, product.Name)
		}
		if product.Stock < it.Quantity {
			return nil, fmt.Errorf("%w: %s, available %d", repository.ErrInsufficientStock, product.Name, product.Stock)
		}

		items = append(items, model.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    it.Quantity,
			PriceCents:  it.PriceCents,
		})
	}

	order := model.Order{
		CustomerID:     customerID,
		Items:          items,
		Shipping:       in.Shipping,
		ShippingMethod: in.ShippingMethod,
		PaymentMethod:  in.PaymentMethod,
		SubtotalCents:  in.SubtotalCents,
		ShippingCents:  in.ShippingCents,
		DiscountCents:  in.DiscountCents,
		PromoCode:      in.PromoCode,
		TotalCents:     in.TotalCents,
		Status:         model.OrderStatusPending,
		PaymentStatus:  model.DerivePaymentStatus(in.PaymentMethod),
	}

	return s.repo.CreateOrder(ctx, order)
}

// GetOrder возвращает заказ. Доступ имеют владелец и персонал.
func (s *Service) GetOrder(ctx context.Context, orderID int64, requester *model.User) (*model.Order, error) {
	o, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if o.CustomerID != requester.ID && !requester.Role.IsStaff() {
		return nil, ErrNotOwner
	}

	return o, nil
}

// ListOrders возвращает заказы покупателя.
func (s *Service) ListOrders(ctx context.Context, customerID int64) ([]model.Order, error) {
	return s.repo.ListOrdersByCustomer(ctx, customerID)
}

// CancelOrder отменяет заказ владельца и возвращает остатки. Доставленный или
// уже отменённый заказ отменить нельзя.
func (s *Service) CancelOrder(ctx context.Context, orderID int64, requester *model.User) (*model.Order, error) {
	o, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if o.CustomerID != requester.ID {
		return nil, ErrNotOwner
	}

	if !o.CanBeCancelled() {
		return nil, ErrInvalidTransition
	}

	cancelled, err := s.repo.CancelOrder(ctx, orderID)
	if err != nil {
		// Статус успел измениться между проверкой и отменой.
		if err == repository.ErrOrderNotCancellable {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}

	return cancelled, nil
}

// GetUserOrderStats возвращает агрегаты по заказам покупателя.
func (s *Service) GetUserOrderStats(ctx context.Context, customerID int64) (*repository.UserOrderStats, error) {
	return s.repo.GetUserOrderStats(ctx, customerID)
}

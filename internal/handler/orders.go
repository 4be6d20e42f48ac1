package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/storefront-system/internal/model"
	"github.com/mmeshcher/storefront-system/internal/service"
)

type orderItemRequest struct {
	ProductID int64   `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type shippingAddressPayload struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type createOrderRequest struct {
	Items           []orderItemRequest     `json:"items"`
	ShippingAddress shippingAddressPayload `json:"shippingAddress"`
	ShippingMethod  string                 `json:"shippingMethod"`
	PaymentMethod   string                 `json:"paymentMethod"`
	Subtotal        float64                `json:"subtotal"`
	ShippingCost    float64                `json:"shippingCost"`
	Discount        float64                `json:"discount"`
	PromoCode       string                 `json:"promoCode"`
	TotalAmount     float64                `json:"totalAmount"`
}

type orderItemResponse struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type orderResponse struct {
	ID              int64                  `json:"id"`
	Customer        int64                  `json:"customer"`
	Items           []orderItemResponse    `json:"items"`
	ShippingAddress shippingAddressPayload `json:"shippingAddress"`
	ShippingMethod  string                 `json:"shippingMethod"`
	PaymentMethod   string                 `json:"paymentMethod"`
	Subtotal        float64                `json:"subtotal"`
	ShippingCost    float64                `json:"shippingCost"`
	Discount        float64                `json:"discount"`
	PromoCode       string                 `json:"promoCode,omitempty"`
	TotalAmount     float64                `json:"totalAmount"`
	Status          string                 `json:"status"`
	PaymentStatus   string                 `json:"paymentStatus"`
	CreatedAt       string                 `json:"createdAt"`
}

func toOrderResponse(o *model.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResponse{
			ProductID: it.ProductID,
			Name:      it.ProductName,
			Quantity:  it.Quantity,
			Price:     centsToAmount(it.PriceCents),
		})
	}

	return orderResponse{
		ID:       o.ID,
		Customer: o.CustomerID,
		Items:    items,
		ShippingAddress: shippingAddressPayload{
			Name:       o.Shipping.Name,
			Phone:      o.Shipping.Phone,
			Street:     o.Shipping.Street,
			City:       o.Shipping.City,
			PostalCode: o.Shipping.PostalCode,
			Country:    o.Shipping.Country,
		},
		ShippingMethod: o.ShippingMethod,
		PaymentMethod:  o.PaymentMethod,
		Subtotal:       centsToAmount(o.SubtotalCents),
		ShippingCost:   centsToAmount(o.ShippingCents),
		Discount:       centsToAmount(o.DiscountCents),
		PromoCode:      o.PromoCode,
		TotalAmount:    centsToAmount(o.TotalCents),
		Status:         string(o.Status),
		PaymentStatus:  string(o.PaymentStatus),
		CreatedAt:      formatTime(o.CreatedAt),
	}
}

func toOrderResponses(orders []model.Order) []orderResponse {
	res := make([]orderResponse, 0, len(orders))
	for i := range orders {
		res = append(res, toOrderResponse(&orders[i]))
	}
	return res
}

// CreateOrder принимает новый заказ текущего покупателя.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Items) == 0 {
		respondMessage(w, http.StatusBadRequest, "cart is empty or invalid")
		return
	}

	for _, it := range req.Items {
		if it.ProductID <= 0 || it.Quantity <= 0 {
			respondMessage(w, http.StatusBadRequest, "invalid order item")
			return
		}
	}

	items := make([]service.OrderItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, service.OrderItemInput{
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			PriceCents: amountToCents(it.Price),
		})
	}

	order, err := h.service.PlaceOrder(r.Context(), user.ID, service.PlaceOrderInput{
		Items: items,
		Shipping: model.ShippingAddress{
			Name:       req.ShippingAddress.Name,
			Phone:      req.ShippingAddress.Phone,
			Street:     req.ShippingAddress.Street,
			City:       req.ShippingAddress.City,
			PostalCode: req.ShippingAddress.PostalCode,
			Country:    req.ShippingAddress.Country,
		},
		ShippingMethod: req.ShippingMethod,
		PaymentMethod:  req.PaymentMethod,
		SubtotalCents:  amountToCents(req.Subtotal),
		ShippingCents:  amountToCents(req.ShippingCost),
		DiscountCents:  amountToCents(req.Discount),
		PromoCode:      req.PromoCode,
		TotalCents:     amountToCents(req.TotalAmount),
	})
	if err != nil {
		h.respondError(w, err, "create order error", zap.Int64("userID", user.ID))
		return
	}

	respondJSON(w, http.StatusCreated, toOrderResponse(order))
}

// ListOrders возвращает заказы текущего покупателя.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	orders, err := h.service.ListOrders(r.Context(), user.ID)
	if err != nil {
		h.respondError(w, err, "list orders error", zap.Int64("userID", user.ID))
		return
	}

	respondJSON(w, http.StatusOK, toOrderResponses(orders))
}

// GetOrder возвращает один заказ владельцу или персоналу.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.service.GetOrder(r.Context(), orderID, user)
	if err != nil {
		h.respondError(w, err, "get order error", zap.Int64("orderID", orderID))
		return
	}

	respondJSON(w, http.StatusOK, toOrderResponse(order))
}

// CancelOrder отменяет заказ владельца и возвращает остатки.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.service.CancelOrder(r.Context(), orderID, user)
	if err != nil {
		h.respondError(w, err, "cancel order error", zap.Int64("orderID", orderID))
		return
	}

	respondJSON(w, http.StatusOK, toOrderResponse(order))
}

type userOrderStatsResponse struct {
	TotalOrders     int64   `json:"totalOrders"`
	TotalSpent      float64 `json:"totalSpent"`
	PendingOrders   int64   `json:"pendingOrders"`
	CompletedOrders int64   `json:"completedOrders"`
}

// GetUserOrderStats возвращает статистику заказов текущего покупателя.
func (h *Handler) GetUserOrderStats(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	stats, err := h.service.GetUserOrderStats(r.Context(), user.ID)
	if err != nil {
		h.respondError(w, err, "user order stats error", zap.Int64("userID", user.ID))
		return
	}

	respondJSON(w, http.StatusOK, userOrderStatsResponse{
		TotalOrders:     stats.TotalOrders,
		TotalSpent:      centsToAmount(stats.TotalSpentCents),
		PendingOrders:   stats.PendingOrders,
		CompletedOrders: stats.CompletedOrders,
	})
}

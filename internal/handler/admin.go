package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/storefront-system/internal/model"
	"github.com/mmeshcher/storefront-system/internal/validation"
)

// ListUsers возвращает всех пользователей магазина.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.respondError(w, err, "list users error")
		return
	}

	res := make([]userResponse, 0, len(users))
	for i := range users {
		res = append(res, toUserResponse(&users[i]))
	}

	respondJSON(w, http.StatusOK, res)
}

type updateRoleRequest struct {
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// UpdateUserRole меняет роль и права пользователя.
func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestUser(w, r)
	if !ok {
		return
	}

	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	role := model.Role(req.Role)
	if !validation.IsValidRole(role) {
		respondMessage(w, http.StatusBadRequest, "invalid role")
		return
	}

	if userID == actor.ID {
		respondMessage(w, http.StatusBadRequest, "cannot change own role")
		return
	}

	u, err := h.service.UpdateUserRole(r.Context(), actor, userID, role, req.Permissions)
	if err != nil {
		h.respondError(w, err, "update user role error", zap.Int64("userID", userID))
		return
	}

	respondJSON(w, http.StatusOK, toUserResponse(u))
}

type updateStatusRequest struct {
	IsActive bool `json:"isActive"`
}

// UpdateUserStatus активирует или деактивирует учётную запись.
func (h *Handler) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestUser(w, r)
	if !ok {
		return
	}

	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if userID == actor.ID {
		respondMessage(w, http.StatusBadRequest, "cannot change own status")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.service.UpdateUserStatus(r.Context(), userID, req.IsActive)
	if err != nil {
		h.respondError(w, err, "update user status error", zap.Int64("userID", userID))
		return
	}

	respondJSON(w, http.StatusOK, toUserResponse(u))
}

// DeleteUser удаляет учётную запись пользователя.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestUser(w, r)
	if !ok {
		return
	}

	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if userID == actor.ID {
		respondMessage(w, http.StatusBadRequest, "cannot delete own account")
		return
	}

	if err := h.service.DeleteUser(r.Context(), userID); err != nil {
		h.respondError(w, err, "delete user error", zap.Int64("userID", userID))
		return
	}

	respondMessage(w, http.StatusOK, "user deleted")
}

type productRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Category    string  `json:"category"`
	SKU         string  `json:"sku"`
	Image       string  `json:"image"`
	IsActive    *bool   `json:"isActive"`
}

type productResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Category    string  `json:"category"`
	SKU         string  `json:"sku"`
	Image       string  `json:"image"`
	IsActive    bool    `json:"isActive"`
	CreatedAt   string  `json:"createdAt"`
}

func toProductResponse(p *model.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       centsToAmount(p.PriceCents),
		Stock:       p.Stock,
		Category:    p.Category,
		SKU:         p.SKU,
		Image:       p.Image,
		IsActive:    p.IsActive,
		CreatedAt:   formatTime(p.CreatedAt),
	}
}

// ListProducts возвращает каталог товаров. Доступен без авторизации.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		h.respondError(w, err, "list products error")
		return
	}

	res := make([]productResponse, 0, len(products))
	for i := range products {
		res = append(res, toProductResponse(&products[i]))
	}

	respondJSON(w, http.StatusOK, res)
}

// CreateProduct добавляет товар в каталог.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.SKU == "" {
		respondMessage(w, http.StatusBadRequest, "name and sku are required")
		return
	}
	if req.Price < 0 || req.Stock < 0 {
		respondMessage(w, http.StatusBadRequest, "price and stock must be non-negative")
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	p, err := h.service.CreateProduct(r.Context(), model.Product{
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  amountToCents(req.Price),
		Stock:       req.Stock,
		Category:    req.Category,
		SKU:         req.SKU,
		Image:       req.Image,
		IsActive:    isActive,
		CreatedBy:   user.ID,
	})
	if err != nil {
		h.respondError(w, err, "create product error", zap.String("sku", req.SKU))
		return
	}

	respondJSON(w, http.StatusCreated, toProductResponse(p))
}

// UpdateProduct обновляет товар каталога.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.SKU == "" {
		respondMessage(w, http.StatusBadRequest, "name and sku are required")
		return
	}
	if req.Price < 0 || req.Stock < 0 {
		respondMessage(w, http.StatusBadRequest, "price and stock must be non-negative")
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	p, err := h.service.UpdateProduct(r.Context(), model.Product{
		ID:          productID,
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  amountToCents(req.Price),
		Stock:       req.Stock,
		Category:    req.Category,
		SKU:         req.SKU,
		Image:       req.Image,
		IsActive:    isActive,
	})
	if err != nil {
		h.respondError(w, err, "update product error", zap.Int64("productID", productID))
		return
	}

	respondJSON(w, http.StatusOK, toProductResponse(p))
}

// DeleteProduct удаляет товар из каталога.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.service.DeleteProduct(r.Context(), productID); err != nil {
		h.respondError(w, err, "delete product error", zap.Int64("productID", productID))
		return
	}

	respondMessage(w, http.StatusOK, "product deleted")
}

// ListAllOrders возвращает все заказы магазина персоналу.
func (h *Handler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListAllOrders(r.Context())
	if err != nil {
		h.respondError(w, err, "list all orders error")
		return
	}

	respondJSON(w, http.StatusOK, toOrderResponses(orders))
}

type orderStatusRequest struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
}

// UpdateOrderStatus обновляет статус обработки и оплаты заказа.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req orderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status := model.OrderStatus(req.Status)
	if !validation.IsValidOrderStatus(status) {
		respondMessage(w, http.StatusBadRequest, "invalid status")
		return
	}

	paymentStatus := model.PaymentStatus(req.PaymentStatus)
	if req.PaymentStatus != "" && !validation.IsValidPaymentStatus(paymentStatus) {
		respondMessage(w, http.StatusBadRequest, "invalid payment status")
		return
	}

	o, err := h.service.UpdateOrderStatus(r.Context(), orderID, status, paymentStatus)
	if err != nil {
		h.respondError(w, err, "update order status error", zap.Int64("orderID", orderID))
		return
	}

	respondJSON(w, http.StatusOK, toOrderResponse(o))
}

type adminStatsResponse struct {
	TotalUsers       int64   `json:"totalUsers"`
	TotalProducts    int64   `json:"totalProducts"`
	ActiveProducts   int64   `json:"activeProducts"`
	TotalOrders      int64   `json:"totalOrders"`
	PendingOrders    int64   `json:"pendingOrders"`
	LowStockProducts int64   `json:"lowStockProducts"`
	TotalRevenue     float64 `json:"totalRevenue"`
}

// GetAdminStats возвращает сводную статистику магазина.
func (h *Handler) GetAdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetAdminStats(r.Context())
	if err != nil {
		h.respondError(w, err, "admin stats error")
		return
	}

	respondJSON(w, http.StatusOK, adminStatsResponse{
		TotalUsers:       stats.TotalUsers,
		TotalProducts:    stats.TotalProducts,
		ActiveProducts:   stats.ActiveProducts,
		TotalOrders:      stats.TotalOrders,
		PendingOrders:    stats.PendingOrders,
		LowStockProducts: stats.LowStockProducts,
		TotalRevenue:     centsToAmount(stats.TotalRevenueCents),
	})
}

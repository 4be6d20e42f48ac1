// Package handler содержит HTTP-обработчики API интернет-магазина.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/storefront-system/internal/middleware"
	"github.com/mmeshcher/storefront-system/internal/model"
	"github.com/mmeshcher/storefront-system/internal/repository"
	"github.com/mmeshcher/storefront-system/internal/service"
)

// AuthService описывает операции регистрации и входа.
type AuthService interface {
	RegisterUser(ctx context.Context, name, email, password string) (*service.RegisterResult, error)
	AuthenticateUser(ctx context.Context, email, password string) (*model.User, error)
	VerifyEmail(ctx context.Context, token string) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
}

// UserService описывает операции с профилем и адресами пользователя.
type UserService interface {
	UpdateProfile(ctx context.Context, userID int64, name, email string) (*model.User, error)
	ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error
	ListAddresses(ctx context.Context, userID int64) ([]model.Address, error)
	AddAddress(ctx context.Context, userID int64, a model.Address) ([]model.Address, error)
	UpdateAddress(ctx context.Context, userID, addressID int64, a model.Address) ([]model.Address, error)
	DeleteAddress(ctx context.Context, userID, addressID int64) ([]model.Address, error)
}

// OrderService описывает операции с заказами покупателя.
type OrderService interface {
	PlaceOrder(ctx context.Context, customerID int64, in service.PlaceOrderInput) (*model.Order, error)
	GetOrder(ctx context.Context, orderID int64, requester *model.User) (*model.Order, error)
	ListOrders(ctx context.Context, customerID int64) ([]model.Order, error)
	CancelOrder(ctx context.Context, orderID int64, requester *model.User) (*model.Order, error)
	GetUserOrderStats(ctx context.Context, customerID int64) (*repository.UserOrderStats, error)
}

// TicketService описывает операции с тикетами поддержки.
type TicketService interface {
	CreateTicket(ctx context.Context, userID int64, category string, priority model.TicketPriority, subject, description string) (*model.Ticket, error)
	GetTicket(ctx context.Context, ticketID int64, requester *model.User) (*model.Ticket, error)
	ListTickets(ctx context.Context, userID int64, status, category, priority string) ([]model.Ticket, error)
	ListAllTickets(ctx context.Context, status, category, priority string) ([]model.Ticket, error)
	AddTicketMessage(ctx context.Context, ticketID int64, sender *model.User, text string) (*model.Ticket, error)
	ReplyToTicket(ctx context.Context, ticketID int64, staff *model.User, text string) (*model.Ticket, error)
	UpdateTicketStatus(ctx context.Context, ticketID int64, status model.TicketStatus) (*model.Ticket, error)
	AssignTicket(ctx context.Context, ticketID, staffID int64) (*model.Ticket, error)
	GetTicketStats(ctx context.Context, userID int64) (*repository.TicketStats, error)
	GetAllTicketStats(ctx context.Context) (*repository.TicketStats, error)
}

// AdminService описывает операции панели администратора.
type AdminService interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUserRole(ctx context.Context, actor *model.User, userID int64, role model.Role, permissions []string) (*model.User, error)
	UpdateUserStatus(ctx context.Context, userID int64, isActive bool) (*model.User, error)
	DeleteUser(ctx context.Context, userID int64) error
	ListProducts(ctx context.Context) ([]model.Product, error)
	CreateProduct(ctx context.Context, p model.Product) (*model.Product, error)
	UpdateProduct(ctx context.Context, p model.Product) (*model.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	ListAllOrders(ctx context.Context) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus, paymentStatus model.PaymentStatus) (*model.Order, error)
	GetAdminStats(ctx context.Context) (*repository.AdminStats, error)
}

// LogService описывает операции с журналом действий.
type LogService interface {
	ListLogs(ctx context.Context, f repository.LogFilter) ([]model.LogEntry, int64, error)
	GetLogByID(ctx context.Context, id int64) (*model.LogEntry, error)
	GetLogStats(ctx context.Context, f repository.LogFilter) (*repository.LogStats, error)
	PurgeLogs(ctx context.Context, olderThanDays int) (int64, error)
}

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	AuthService
	UserService
	OrderService
	TicketService
	AdminService
	LogService
}

// Handler реализует HTTP-обработчики API интернет-магазина.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

// respondError переводит ошибку бизнес-логики в HTTP-статус и JSON-ответ.
// Для внутренних ошибок детали пишутся в лог, а не в тело ответа.
func (h *Handler) respondError(w http.ResponseWriter, err error, logMsg string, fields ...zap.Field) {
	switch {
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrTicketNotFound),
		errors.Is(err, repository.ErrAddressNotFound),
		errors.Is(err, repository.ErrLogNotFound):
		respondMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrUserExists),
		errors.Is(err, repository.ErrProductExists),
		errors.Is(err, repository.ErrUserHasRecords):
		respondMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrInsufficientStock),
		errors.Is(err, repository.ErrProductInactive),
		errors.Is(err, repository.ErrVerificationToken),
		errors.Is(err, service.ErrInvalidTransition):
		respondMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotOwner):
		respondMessage(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		respondMessage(w, http.StatusUnauthorized, err.Error())
	default:
		h.logger.Error(logMsg, append(fields, zap.Error(err))...)
		respondMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

func requestUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	u, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "authorization required")
	}
	return u, ok
}

func centsToAmount(cents int64) float64 {
	return float64(cents) / 100
}

func amountToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

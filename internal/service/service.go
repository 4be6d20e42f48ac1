// Package service реализует бизнес-логику интернет-магазина.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/mmeshcher/storefront-system/internal/model"
	"github.com/mmeshcher/storefront-system/internal/repository"
)

// ErrInvalidCredentials возвращается при неверном email или пароле.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotOwner возвращается при попытке доступа к чужому заказу или тикету.
	ErrNotOwner = errors.New("not authorized")
	// ErrInvalidTransition возвращается при недопустимой смене статуса.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error

	CreateUser(ctx context.Context, name, email string, passwordHash []byte, verificationToken string, tokenExpires time.Time) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUserProfile(ctx context.Context, id int64, name, email string) (*model.User, error)
	UpdateUserPassword(ctx context.Context, id int64, passwordHash []byte) error
	UpdateUserRole(ctx context.Context, id int64, role model.Role, permissions []string) (*model.User, error)
	UpdateUserStatus(ctx context.Context, id int64, isActive bool) (*model.User, error)
	DeleteUser(ctx context.Context, id int64) error
	VerifyEmail(ctx context.Context, token string) error

	ListAddresses(ctx context.Context, userID int64) ([]model.Address, error)
	AddAddress(ctx context.Context, userID int64, a model.Address) ([]model.Address, error)
	UpdateAddress(ctx context.Context, userID, addressID int64, a model.Address) ([]model.Address, error)
	DeleteAddress(ctx context.Context, userID, addressID int64) ([]model.Address, error)

	CreateProduct(ctx context.Context, p model.Product) (*model.Product, error)
	GetProductByID(ctx context.Context, id int64) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	UpdateProduct(ctx context.Context, p model.Product) (*model.Product, error)
	DeleteProduct(ctx context.Context, id int64) error

	CreateOrder(ctx context.Context, o model.Order) (*model.Order, error)
	GetOrderByID(ctx context.Context, id int64) (*model.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID int64) ([]model.Order, error)
	ListAllOrders(ctx context.Context) ([]model.Order, error)
	CancelOrder(ctx context.Context, orderID int64) (*model.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus, paymentStatus model.PaymentStatus) (*model.Order, error)
	GetUserOrderStats(ctx context.Context, customerID int64) (*repository.UserOrderStats, error)
	GetAdminStats(ctx context.Context) (*repository.AdminStats, error)

	CreateTicket(ctx context.Context, t model.Ticket) (*model.Ticket, error)
	GetTicketByID(ctx context.Context, id int64) (*model.Ticket, error)
	ListTickets(ctx context.Context, f repository.TicketFilter) ([]model.Ticket, error)
	AddTicketMessage(ctx context.Context, ticketID int64, m model.TicketMessage, newStatus model.TicketStatus) (*model.Ticket, error)
	UpdateTicketStatus(ctx context.Context, ticketID int64, status model.TicketStatus) (*model.Ticket, error)
	AssignTicket(ctx context.Context, ticketID, staffID int64) (*model.Ticket, error)
	GetTicketStats(ctx context.Context, userID *int64) (*repository.TicketStats, error)

	CreateLogEntry(ctx context.Context, e model.LogEntry) error
	ListLogs(ctx context.Context, f repository.LogFilter) ([]model.LogEntry, int64, error)
	GetLogByID(ctx context.Context, id int64) (*model.LogEntry, error)
	GetLogStats(ctx context.Context, f repository.LogFilter) (*repository.LogStats, error)
	PurgeLogs(ctx context.Context, olderThanDays int) (int64, error)
}

// Service содержит бизнес-логику интернет-магазина.
type Service struct {
	repo Repository
}

// NewService создаёт новый сервис с указанным репозиторием.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// audit сохраняет запись журнала, не прерывая основную операцию при ошибке.
func (s *Service) audit(ctx context.Context, e model.LogEntry) {
	_ = s.repo.CreateLogEntry(ctx, e)
}

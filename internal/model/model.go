// Package model содержит доменные сущности интернет-магазина.
package model

import "time"

// Role описывает роль пользователя в системе.
type Role string

const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// IsStaff сообщает, относится ли роль к персоналу магазина.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleManager
}

// User представляет зарегистрированного пользователя магазина.
type User struct {
	ID            int64
	Name          string
	Email         string
	PasswordHash  []byte
	Role          Role
	Permissions   []string
	IsActive      bool
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasPermission проверяет наличие права у пользователя.
// Роль admin неявно обладает всеми правами.
func (u *User) HasPermission(perm string) bool {
	if u.Role == RoleAdmin {
		return true
	}
	for _, p := range u.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// Address описывает сохранённый адрес доставки пользователя.
type Address struct {
	ID         int64
	UserID     int64
	Name       string
	Phone      string
	Street     string
	City       string
	PostalCode string
	Country    string
	IsDefault  bool
	CreatedAt  time.Time
}

// Product описывает товар каталога.
type Product struct {
	ID          int64
	Name        string
	Description string
	PriceCents  int64
	Stock       int
	Category    string
	SKU         string
	Image       string
	IsActive    bool
	CreatedBy   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrderStatus описывает статус обработки заказа.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// PaymentStatus описывает статус оплаты заказа.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// DerivePaymentStatus вычисляет статус оплаты по способу оплаты.
// Карта и PayPal считаются оплаченными сразу, остальные способы ждут оплаты.
func DerivePaymentStatus(paymentMethod string) PaymentStatus {
	if paymentMethod == "card" || paymentMethod == "paypal" {
		return PaymentStatusPaid
	}
	return PaymentStatusPending
}

// OrderItem описывает позицию заказа с ценой на момент покупки.
type OrderItem struct {
	ProductID   int64
	ProductName string
	Quantity    int
	PriceCents  int64
}

// ShippingAddress — снимок адреса доставки, скопированный в заказ.
type ShippingAddress struct {
	Name       string
	Phone      string
	Street     string
	City       string
	PostalCode string
	Country    string
}

// Order описывает заказ покупателя.
type Order struct {
	ID             int64
	CustomerID     int64
	Items          []OrderItem
	Shipping       ShippingAddress
	ShippingMethod string
	PaymentMethod  string
	SubtotalCents  int64
	ShippingCents  int64
	DiscountCents  int64
	PromoCode      string
	TotalCents     int64
	Status         OrderStatus
	PaymentStatus  PaymentStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CanBeCancelled сообщает, допускает ли текущий статус отмену заказа.
func (o *Order) CanBeCancelled() bool {
	return o.Status != OrderStatusDelivered && o.Status != OrderStatusCancelled
}

// TicketStatus описывает статус тикета поддержки.
type TicketStatus string

const (
	TicketStatusOpen            TicketStatus = "open"
	TicketStatusInProgress      TicketStatus = "in_progress"
	TicketStatusWaitingResponse TicketStatus = "waiting_response"
	TicketStatusResolved        TicketStatus = "resolved"
	TicketStatusClosed          TicketStatus = "closed"
)

// TicketPriority описывает приоритет тикета.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// TicketCategories перечисляет допустимые категории тикетов.
var TicketCategories = []string{
	"technical",
	"billing",
	"orders",
	"account",
	"products",
	"shipping",
	"returns",
	"other",
}

// SenderType описывает сторону, отправившую сообщение в тикете.
type SenderType string

const (
	SenderTypeUser  SenderType = "user"
	SenderTypeAdmin SenderType = "admin"
)

// TicketMessage описывает сообщение в переписке тикета.
type TicketMessage struct {
	ID         int64
	TicketID   int64
	SenderID   int64
	SenderType SenderType
	Message    string
	CreatedAt  time.Time
}

// Ticket описывает обращение пользователя в поддержку.
type Ticket struct {
	ID          int64
	Number      string
	UserID      int64
	Category    string
	Priority    TicketPriority
	Status      TicketStatus
	Subject     string
	Description string
	Messages    []TicketMessage
	AssignedTo  *int64
	ResolvedAt  *time.Time
	ClosedAt    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NextStatusOnMessage возвращает статус тикета после добавления сообщения.
// Сообщение в решённый или закрытый тикет переоткрывает его. Ответ персонала
// дополнительно переводит новый тикет в работу.
func NextStatusOnMessage(cur TicketStatus, staffReply bool) TicketStatus {
	if cur == TicketStatusResolved || cur == TicketStatusClosed {
		return TicketStatusWaitingResponse
	}
	if staffReply && cur == TicketStatusOpen {
		return TicketStatusInProgress
	}
	return cur
}

// LogLevel описывает уровень записи журнала.
type LogLevel string

const (
	LogLevelInfo    LogLevel = "info"
	LogLevelWarn    LogLevel = "warn"
	LogLevelError   LogLevel = "error"
	LogLevelDebug   LogLevel = "debug"
	LogLevelSuccess LogLevel = "success"
)

// LogEntry описывает запись журнала действий.
type LogEntry struct {
	ID         int64
	Level      LogLevel
	Category   string
	Action     string
	Message    string
	UserID     *int64
	UserName   string
	UserEmail  string
	IP         string
	UserAgent  string
	Method     string
	URL        string
	StatusCode int
	DurationMS int64
	CreatedAt  time.Time
}

// Package validation содержит функции валидации входных данных.
package validation

import (
	"strings"

	"github.com/mmeshcher/storefront-system/internal/model"
)

// MinPasswordLength — минимальная длина пароля пользователя.
const MinPasswordLength = 6

// IsValidEmail выполняет минимальную структурную проверку email.
func IsValidEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	if strings.Contains(domain, "@") {
		return false
	}
	dot := strings.LastIndex(domain, ".")
	return dot > 0 && dot < len(domain)-1
}

// IsValidTicketCategory проверяет принадлежность категории списку допустимых.
func IsValidTicketCategory(category string) bool {
	for _, c := range model.TicketCategories {
		if c == category {
			return true
		}
	}
	return false
}

// IsValidTicketPriority проверяет допустимость приоритета тикета.
func IsValidTicketPriority(p model.TicketPriority) bool {
	switch p {
	case model.TicketPriorityLow, model.TicketPriorityMedium, model.TicketPriorityHigh, model.TicketPriorityUrgent:
		return true
	}
	return false
}

// IsValidTicketStatus проверяет допустимость статуса тикета.
func IsValidTicketStatus(s model.TicketStatus) bool {
	switch s {
	case model.TicketStatusOpen, model.TicketStatusInProgress, model.TicketStatusWaitingResponse,
		model.TicketStatusResolved, model.TicketStatusClosed:
		return true
	}
	return false
}

// IsValidOrderStatus проверяет допустимость статуса заказа.
func IsValidOrderStatus(s model.OrderStatus) bool {
	switch s {
	case model.OrderStatusPending, model.OrderStatusProcessing, model.OrderStatusShipped,
		model.OrderStatusDelivered, model.OrderStatusCancelled:
		return true
	}
	return false
}

// IsValidPaymentStatus проверяет допустимость статуса оплаты.
func IsValidPaymentStatus(s model.PaymentStatus) bool {
	switch s {
	case model.PaymentStatusPending, model.PaymentStatusPaid, model.PaymentStatusFailed, model.PaymentStatusRefunded:
		return true
	}
	return false
}

// IsValidRole проверяет допустимость роли пользователя.
func IsValidRole(r model.Role) bool {
	switch r {
	case model.RoleUser, model.RoleManager, model.RoleAdmin:
		return true
	}
	return false
}

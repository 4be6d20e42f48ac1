package service

import (
	"context"
	"strings"

	"github.com/mmeshcher/storefront-system/internal/model"
	"github.com/mmeshcher/storefront-system/internal/repository"
)

// CreateTicket создаёт обращение в поддержку. Приоритет по умолчанию — medium.
func (s *Service) CreateTicket(ctx context.Context, userID int64, category string, priority model.TicketPriority, subject, description string) (*model.Ticket, error) {
	if priority == "" {
		priority = model.TicketPriorityMedium
	}

	t := model.Ticket{
		UserID:      userID,
		Category:    category,
		Priority:    priority,
		Status:      model.TicketStatusOpen,
		Subject:     subject,
		Description: description,
	}

	return s.repo.CreateTicket(ctx, t)
}

// GetTicket возвращает тикет. Доступ имеют владелец и персонал.
func (s *Service) GetTicket(ctx context.Context, ticketID int64, requester *model.User) (*model.Ticket, error) {
	t, err := s.repo.GetTicketByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if t.UserID != requester.ID && !requester.Role.IsStaff() {
		return nil, ErrNotOwner
	}

	return t, nil
}

// ListTickets возвращает тикеты пользователя с учётом фильтров.
func (s *Service) ListTickets(ctx context.Context, userID int64, status, category, priority string) ([]model.Ticket, error) {
	return s.repo.ListTickets(ctx, repository.TicketFilter{
		UserID:   &userID,
		Status:   status,
		Category: category,
		Priority: priority,
	})
}

// ListAllTickets возвращает тикеты всех пользователей с учётом фильтров.
func (s *Service) ListAllTickets(ctx context.Context, status, category, priority string) ([]model.Ticket, error) {
	return s.repo.ListTickets(ctx, repository.TicketFilter{
		Status:   status,
		Category: category,
		Priority: priority,
	})
}

// AddTicketMessage добавляет сообщение в тикет от владельца или персонала.
// Сообщение в решённый или закрытый тикет переоткрывает его.
func (s *Service) AddTicketMessage(ctx context.Context, ticketID int64, sender *model.User, text string) (*model.Ticket, error) {
	t, err := s.repo.GetTicketByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if t.UserID != sender.ID && !sender.Role.IsStaff() {
		return nil, ErrNotOwner
	}

	senderType := model.SenderTypeUser
	if sender.Role.IsStaff() {
		senderType = model.SenderTypeAdmin
	}

	msg := model.TicketMessage{
		SenderID:   sender.ID,
		SenderType: senderType,
		Message:    text,
	}

	return s.repo.AddTicketMessage(ctx, ticketID, msg, model.NextStatusOnMessage(t.Status, false))
}

// ReplyToTicket добавляет ответ персонала в тикет. В отличие от обычного
// сообщения, ответ переводит новый тикет в работу.
func (s *Service) ReplyToTicket(ctx context.Context, ticketID int64, staff *model.User, text string) (*model.Ticket, error) {
	t, err := s.repo.GetTicketByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	msg := model.TicketMessage{
		SenderID:   staff.ID,
		SenderType: model.SenderTypeAdmin,
		Message:    strings.TrimSpace(text),
	}

	return s.repo.AddTicketMessage(ctx, ticketID, msg, model.NextStatusOnMessage(t.Status, true))
}

// UpdateTicketStatus переводит тикет в указанный статус и проставляет отметки
// времени решения и закрытия.
func (s *Service) UpdateTicketStatus(ctx context.Context, ticketID int64, status model.TicketStatus) (*model.Ticket, error) {
	return s.repo.UpdateTicketStatus(ctx, ticketID, status)
}

// AssignTicket назначает тикет сотруднику и переводит его в работу.
func (s *Service) AssignTicket(ctx context.Context, ticketID, staffID int64) (*model.Ticket, error) {
	return s.repo.AssignTicket(ctx, ticketID, staffID)
}

// GetTicketStats возвращает агрегаты по тикетам пользователя.
func (s *Service) GetTicketStats(ctx context.Context, userID int64) (*repository.TicketStats, error) {
	return s.repo.GetTicketStats(ctx, &userID)
}

// GetAllTicketStats возвращает агрегаты по всем тикетам.
func (s *Service) GetAllTicketStats(ctx context.Context) (*repository.TicketStats, error) {
	return s.repo.GetTicketStats(ctx, nil)
}

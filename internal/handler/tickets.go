package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/storefront-system/internal/model"
	"github.com/mmeshcher/storefront-system/internal/repository"
	"github.com/mmeshcher/storefront-system/internal/validation"
)

type ticketMessageResponse struct {
	Sender     int64  `json:"sender"`
	SenderType string `json:"senderType"`
	Message    string `json:"message"`
	CreatedAt  string `json:"createdAt"`
}

type ticketResponse struct {
	ID           int64                   `json:"id"`
	TicketNumber string                  `json:"ticketNumber"`
	User         int64                   `json:"user"`
	Category     string                  `json:"category"`
	Priority     string                  `json:"priority"`
	Status       string                  `json:"status"`
	Subject      string                  `json:"subject"`
	Description  string                  `json:"description"`
	Messages     []ticketMessageResponse `json:"messages"`
	AssignedTo   *int64                  `json:"assignedTo,omitempty"`
	ResolvedAt   *string                 `json:"resolvedAt,omitempty"`
	ClosedAt     *string                 `json:"closedAt,omitempty"`
	CreatedAt    string                  `json:"createdAt"`
}

func toTicketResponse(t *model.Ticket) ticketResponse {
	msgs := make([]ticketMessageResponse, 0, len(t.Messages))
	for _, m := range t.Messages {
		msgs = append(msgs, ticketMessageResponse{
			Sender:     m.SenderID,
			SenderType: string(m.SenderType),
			Message:    m.Message,
			CreatedAt:  formatTime(m.CreatedAt),
		})
	}

	return ticketResponse{
		ID:           t.ID,
		TicketNumber: t.Number,
		User:         t.UserID,
		Category:     t.Category,
		Priority:     string(t.Priority),
		Status:       string(t.Status),
		Subject:      t.Subject,
		Description:  t.Description,
		Messages:     msgs,
		AssignedTo:   t.AssignedTo,
		ResolvedAt:   formatTimePtr(t.ResolvedAt),
		ClosedAt:     formatTimePtr(t.ClosedAt),
		CreatedAt:    formatTime(t.CreatedAt),
	}
}

func toTicketResponses(tickets []model.Ticket) []ticketResponse {
	res := make([]ticketResponse, 0, len(tickets))
	for i := range tickets {
		res = append(res, toTicketResponse(&tickets[i]))
	}
	return res
}

type createTicketRequest struct {
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
}

// CreateTicket создаёт обращение в поддержку.
func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	var req createTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Category == "" || req.Subject == "" || req.Description == "" {
		respondMessage(w, http.StatusBadRequest, "category, subject and description are required")
		return
	}

	if !validation.IsValidTicketCategory(req.Category) {
		respondMessage(w, http.StatusBadRequest, "invalid category")
		return
	}

	priority := model.TicketPriority(req.Priority)
	if req.Priority != "" && !validation.IsValidTicketPriority(priority) {
		respondMessage(w, http.StatusBadRequest, "invalid priority")
		return
	}

	ticket, err := h.service.CreateTicket(r.Context(), user.ID, req.Category, priority, req.Subject, req.Description)
	if err != nil {
		h.respondError(w, err, "create ticket error", zap.Int64("userID", user.ID))
		return
	}

	respondJSON(w, http.StatusCreated, toTicketResponse(ticket))
}

// ListTickets возвращает тикеты текущего пользователя с учётом фильтров.
func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	tickets, err := h.service.ListTickets(r.Context(), user.ID, q.Get("status"), q.Get("category"), q.Get("priority"))
	if err != nil {
		h.respondError(w, err, "list tickets error", zap.Int64("userID", user.ID))
		return
	}

	respondJSON(w, http.StatusOK, toTicketResponses(tickets))
}

// GetTicket возвращает тикет владельцу или персоналу.
func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	ticketID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid ticket id")
		return
	}

	ticket, err := h.service.GetTicket(r.Context(), ticketID, user)
	if err != nil {
		h.respondError(w, err, "get ticket error", zap.Int64("ticketID", ticketID))
		return
	}

	respondJSON(w, http.StatusOK, toTicketResponse(ticket))
}

// GetTicketMessages возвращает переписку тикета.
func (h *Handler) GetTicketMessages(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	ticketID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid ticket id")
		return
	}

	ticket, err := h.service.GetTicket(r.Context(), ticketID, user)
	if err != nil {
		h.respondError(w, err, "get ticket messages error", zap.Int64("ticketID", ticketID))
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"messages": toTicketResponse(ticket).Messages,
	})
}

type ticketMessageRequest struct {
	Message string `json:"message"`
}

// AddTicketMessage добавляет сообщение в тикет.
func (h *Handler) AddTicketMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	ticketID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid ticket id")
		return
	}

	var req ticketMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Message == "" {
		respondMessage(w, http.StatusBadRequest, "message is required")
		return
	}

	ticket, err := h.service.AddTicketMessage(r.Context(), ticketID, user, req.Message)
	if err != nil {
		h.respondError(w, err, "add ticket message error", zap.Int64("ticketID", ticketID))
		return
	}

	respondJSON(w, http.StatusOK, toTicketResponse(ticket))
}

// ReplyToTicket добавляет ответ персонала в тикет. Исторический путь админки,
// отличается от AddTicketMessage только правилом перевода статуса.
func (h *Handler) ReplyToTicket(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	ticketID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid ticket id")
		return
	}

	var req ticketMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		respondMessage(w, http.StatusBadRequest, "message is required")
		return
	}

	ticket, err := h.service.ReplyToTicket(r.Context(), ticketID, user, req.Message)
	if err != nil {
		h.respondError(w, err, "reply to ticket error", zap.Int64("ticketID", ticketID))
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "reply sent",
		"ticket":  toTicketResponse(ticket),
	})
}

type ticketStatusRequest struct {
	Status string `json:"status"`
}

// UpdateTicketStatus переводит тикет в указанный статус.
func (h *Handler) UpdateTicketStatus(w http.ResponseWriter, r *http.Request) {
	ticketID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid ticket id")
		return
	}

	var req ticketStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status := model.TicketStatus(req.Status)
	if !validation.IsValidTicketStatus(status) {
		respondMessage(w, http.StatusBadRequest, "invalid status")
		return
	}

	ticket, err := h.service.UpdateTicketStatus(r.Context(), ticketID, status)
	if err != nil {
		h.respondError(w, err, "update ticket status error", zap.Int64("ticketID", ticketID))
		return
	}

	respondJSON(w, http.StatusOK, toTicketResponse(ticket))
}

type assignTicketRequest struct {
	AdminID int64 `json:"adminId"`
}

// AssignTicket назначает тикет сотруднику.
func (h *Handler) AssignTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid ticket id")
		return
	}

	var req assignTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.AdminID <= 0 {
		respondMessage(w, http.StatusBadRequest, "adminId is required")
		return
	}

	ticket, err := h.service.AssignTicket(r.Context(), ticketID, req.AdminID)
	if err != nil {
		h.respondError(w, err, "assign ticket error", zap.Int64("ticketID", ticketID))
		return
	}

	respondJSON(w, http.StatusOK, toTicketResponse(ticket))
}

// ListAllTickets возвращает тикеты всех пользователей персоналу.
func (h *Handler) ListAllTickets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tickets, err := h.service.ListAllTickets(r.Context(), q.Get("status"), q.Get("category"), q.Get("priority"))
	if err != nil {
		h.respondError(w, err, "list all tickets error")
		return
	}

	respondJSON(w, http.StatusOK, toTicketResponses(tickets))
}

type ticketStatsResponse struct {
	Total           int64 `json:"total"`
	Open            int64 `json:"open"`
	InProgress      int64 `json:"in_progress"`
	WaitingResponse int64 `json:"waiting_response"`
	Resolved        int64 `json:"resolved"`
	Closed          int64 `json:"closed"`
	Urgent          int64 `json:"urgent"`
}

func toTicketStatsResponse(s *repository.TicketStats) ticketStatsResponse {
	return ticketStatsResponse{
		Total:           s.Total,
		Open:            s.Open,
		InProgress:      s.InProgress,
		WaitingResponse: s.WaitingResponse,
		Resolved:        s.Resolved,
		Closed:          s.Closed,
		Urgent:          s.Urgent,
	}
}

// GetAllTicketStats возвращает агрегаты по всем тикетам персоналу.
func (h *Handler) GetAllTicketStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetAllTicketStats(r.Context())
	if err != nil {
		h.respondError(w, err, "all ticket stats error")
		return
	}

	respondJSON(w, http.StatusOK, toTicketStatsResponse(stats))
}

// GetUserTicketStats возвращает агрегаты по тикетам текущего пользователя.
func (h *Handler) GetUserTicketStats(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	stats, err := h.service.GetTicketStats(r.Context(), user.ID)
	if err != nil {
		h.respondError(w, err, "user ticket stats error", zap.Int64("userID", user.ID))
		return
	}

	respondJSON(w, http.StatusOK, toTicketStatsResponse(stats))
}

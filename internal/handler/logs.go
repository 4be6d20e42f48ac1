package handler

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/storefront-system/internal/model"
	"github.com/mmeshcher/storefront-system/internal/repository"
)

type logEntryResponse struct {
	ID         int64  `json:"id"`
	Level      string `json:"level"`
	Category   string `json:"category"`
	Action     string `json:"action"`
	Message    string `json:"message"`
	UserID     *int64 `json:"userId,omitempty"`
	UserName   string `json:"userName,omitempty"`
	UserEmail  string `json:"userEmail,omitempty"`
	IP         string `json:"ip,omitempty"`
	UserAgent  string `json:"userAgent,omitempty"`
	Method     string `json:"method,omitempty"`
	URL        string `json:"url,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
	DurationMS int64  `json:"durationMs,omitempty"`
	CreatedAt  string `json:"createdAt"`
}

func toLogEntryResponse(e *model.LogEntry) logEntryResponse {
	return logEntryResponse{
		ID:         e.ID,
		Level:      string(e.Level),
		Category:   e.Category,
		Action:     e.Action,
		Message:    e.Message,
		UserID:     e.UserID,
		UserName:   e.UserName,
		UserEmail:  e.UserEmail,
		IP:         e.IP,
		UserAgent:  e.UserAgent,
		Method:     e.Method,
		URL:        e.URL,
		StatusCode: e.StatusCode,
		DurationMS: e.DurationMS,
		CreatedAt:  formatTime(e.CreatedAt),
	}
}

func toLogEntryResponses(entries []model.LogEntry) []logEntryResponse {
	res := make([]logEntryResponse, 0, len(entries))
	for i := range entries {
		res = append(res, toLogEntryResponse(&entries[i]))
	}
	return res
}

// logFilterFromQuery собирает фильтр журнала из query-параметров запроса.
func logFilterFromQuery(r *http.Request) repository.LogFilter {
	q := r.URL.Query()

	f := repository.LogFilter{
		Level:    q.Get("level"),
		Category: q.Get("category"),
	}

	if v := q.Get("userId"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.UserID = &id
		}
	}
	if v := q.Get("startDate"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.Start = &t
		} else if t, err := time.Parse("2006-01-02", v); err == nil {
			f.Start = &t
		}
	}
	if v := q.Get("endDate"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.End = &t
		} else if t, err := time.Parse("2006-01-02", v); err == nil {
			end := t.AddDate(0, 0, 1)
			f.End = &end
		}
	}

	page := 1
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		page = v
	}
	limit := 50
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 && v <= 500 {
		limit = v
	}
	f.Limit = limit
	f.Offset = (page - 1) * limit

	return f
}

// ListLogs возвращает страницу журнала действий по фильтрам.
func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	f := logFilterFromQuery(r)

	entries, total, err := h.service.ListLogs(r.Context(), f)
	if err != nil {
		h.respondError(w, err, "list logs error")
		return
	}

	pages := total / int64(f.Limit)
	if total%int64(f.Limit) > 0 {
		pages++
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"logs":  toLogEntryResponses(entries),
		"total": total,
		"page":  f.Offset/f.Limit + 1,
		"pages": pages,
	})
}

// GetLog возвращает одну запись журнала.
func (h *Handler) GetLog(w http.ResponseWriter, r *http.Request) {
	logID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid log id")
		return
	}

	entry, err := h.service.GetLogByID(r.Context(), logID)
	if err != nil {
		h.respondError(w, err, "get log error", zap.Int64("logID", logID))
		return
	}

	respondJSON(w, http.StatusOK, toLogEntryResponse(entry))
}

type logCountResponse struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

func toLogCounts(counts []repository.LogCount) []logCountResponse {
	res := make([]logCountResponse, 0, len(counts))
	for _, c := range counts {
		res = append(res, logCountResponse{Key: c.Key, Count: c.Count})
	}
	return res
}

// GetLogStats возвращает сводку журнала.
func (h *Handler) GetLogStats(w http.ResponseWriter, r *http.Request) {
	f := logFilterFromQuery(r)

	stats, err := h.service.GetLogStats(r.Context(), f)
	if err != nil {
		h.respondError(w, err, "log stats error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"total":        stats.Total,
		"byLevel":      toLogCounts(stats.ByLevel),
		"byCategory":   toLogCounts(stats.ByCategory),
		"byDay":        toLogCounts(stats.ByDay),
		"recentErrors": toLogEntryResponses(stats.RecentErrors),
	})
}

// ExportLogs выгружает журнал по фильтрам в формате CSV.
func (h *Handler) ExportLogs(w http.ResponseWriter, r *http.Request) {
	f := logFilterFromQuery(r)
	f.Limit = 10000
	f.Offset = 0

	entries, _, err := h.service.ListLogs(r.Context(), f)
	if err != nil {
		h.respondError(w, err, "export logs error")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		`attachment; filename="logs-`+time.Now().UTC().Format("2006-01-02")+`.csv"`)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{
		"id", "level", "category", "action", "message",
		"user_id", "user_name", "user_email",
		"ip", "method", "url", "status_code", "duration_ms", "created_at",
	})

	for i := range entries {
		e := &entries[i]
		userID := ""
		if e.UserID != nil {
			userID = strconv.FormatInt(*e.UserID, 10)
		}
		_ = cw.Write([]string{
			strconv.FormatInt(e.ID, 10),
			string(e.Level),
			e.Category,
			e.Action,
			e.Message,
			userID,
			e.UserName,
			e.UserEmail,
			e.IP,
			e.Method,
			e.URL,
			strconv.Itoa(e.StatusCode),
			strconv.FormatInt(e.DurationMS, 10),
			formatTime(e.CreatedAt),
		})
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.Error("export logs write error", zap.Error(err))
	}
}

type cleanupLogsRequest struct {
	Days int `json:"days"`
}

// CleanupLogs удаляет записи журнала старше указанного числа дней.
// Без тела запроса используется срок хранения по умолчанию.
func (h *Handler) CleanupLogs(w http.ResponseWriter, r *http.Request) {
	req := cleanupLogsRequest{Days: 90}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Days <= 0 {
		respondMessage(w, http.StatusBadRequest, "days must be positive")
		return
	}

	deleted, err := h.service.PurgeLogs(r.Context(), req.Days)
	if err != nil {
		h.respondError(w, err, "cleanup logs error", zap.Int("days", req.Days))
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "logs cleaned up",
		"deleted": deleted,
	})
}

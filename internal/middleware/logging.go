package middleware

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/storefront-system/internal/model"
)

const actorKey contextKey = "actor"

// actorHolder заполняется auth middleware после разрешения токена, чтобы
// внешний логирующий middleware знал, от чьего имени шёл запрос.
type actorHolder struct {
	user *model.User
}

func setActor(ctx context.Context, u *model.User) {
	if h, ok := ctx.Value(actorKey).(*actorHolder); ok {
		h.user = u
	}
}

// LogSink принимает записи журнала действий.
type LogSink interface {
	CreateLogEntry(ctx context.Context, e model.LogEntry) error
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RequestLogger логирует каждый запрос в zap и сохраняет запись в журнале
// действий. Сохранение не блокирует ответ и не может его испортить.
func RequestLogger(logger *zap.Logger, sink LogSink) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			holder := &actorHolder{}
			ctx := context.WithValue(r.Context(), actorKey, holder)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))

			duration := time.Since(start)

			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("url", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", duration),
			)

			if sink == nil {
				return
			}

			entry := model.LogEntry{
				Level:      levelForStatus(rec.status),
				Category:   "api",
				Action:     "request",
				Message:    r.Method + " " + r.URL.Path,
				IP:         r.RemoteAddr,
				UserAgent:  r.UserAgent(),
				Method:     r.Method,
				URL:        r.URL.Path,
				StatusCode: rec.status,
				DurationMS: duration.Milliseconds(),
			}

			if holder.user != nil {
				entry.UserID = &holder.user.ID
				entry.UserName = holder.user.Name
				entry.UserEmail = holder.user.Email
			}

			if err := sink.CreateLogEntry(context.WithoutCancel(ctx), entry); err != nil {
				logger.Warn("log sink error", zap.Error(err))
			}
		})
	}
}

func levelForStatus(status int) model.LogLevel {
	switch {
	case status >= 500:
		return model.LogLevelError
	case status >= 400:
		return model.LogLevelWarn
	default:
		return model.LogLevelInfo
	}
}

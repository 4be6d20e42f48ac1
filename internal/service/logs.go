package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/storefront-system/internal/model"
	"github.com/mmeshcher/storefront-system/internal/repository"
)

// CreateLogEntry сохраняет запись журнала действий.
func (s *Service) CreateLogEntry(ctx context.Context, e model.LogEntry) error {
	return s.repo.CreateLogEntry(ctx, e)
}

// ListLogs возвращает страницу журнала и общее число записей.
func (s *Service) ListLogs(ctx context.Context, f repository.LogFilter) ([]model.LogEntry, int64, error) {
	return s.repo.ListLogs(ctx, f)
}

// GetLogByID возвращает запись журнала.
func (s *Service) GetLogByID(ctx context.Context, id int64) (*model.LogEntry, error) {
	return s.repo.GetLogByID(ctx, id)
}

// GetLogStats возвращает сводку журнала.
func (s *Service) GetLogStats(ctx context.Context, f repository.LogFilter) (*repository.LogStats, error) {
	return s.repo.GetLogStats(ctx, f)
}

// PurgeLogs удаляет записи журнала старше указанного числа дней.
func (s *Service) PurgeLogs(ctx context.Context, olderThanDays int) (int64, error) {
	return s.repo.PurgeLogs(ctx, olderThanDays)
}

// StartLogRetention выполняет периодическую очистку журнала: записи старше
// retentionDays удаляются раз в сутки. Блокирует вызывающую горутину до
// отмены контекста.
func (s *Service) StartLogRetention(ctx context.Context, logger *zap.Logger, retentionDays int) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.repo.PurgeLogs(ctx, retentionDays)
			if err != nil {
				logger.Warn("log retention purge error", zap.Error(err))
				continue
			}
			if deleted > 0 {
				logger.Info("log retention purge", zap.Int64("deleted", deleted))
			}
		}
	}
}

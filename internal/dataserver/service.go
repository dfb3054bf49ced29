// filename: internal/dataserver/service.go
package dataserver

import (
	"context"
	"time"

	"github.com/attackmap/dataserver/internal/common/config"
	apperrors "github.com/attackmap/dataserver/internal/common/errors"
	"github.com/attackmap/dataserver/internal/common/logging"
)

// Service управляет жизненным циклом конвейера: опрос бэкенда,
// публикация батчей и периодическая статистика. При сбоях цикл
// перезапускается с интервалом, зависящим от класса ошибки; окно
// опроса и агрегаты переживают перезапуск.
type Service struct {
	cfg       *config.Config
	poller    *Poller
	publisher *Publisher
	logger    *logging.Logger
	stopChan  chan struct{}
}

// NewService создает новый Service v1.0
func NewService(cfg *config.Config, poller *Poller, publisher *Publisher, logger *logging.Logger) *Service {
	return &Service{
		cfg:       cfg,
		poller:    poller,
		publisher: publisher,
		logger:    logger,
		stopChan:  make(chan struct{}),
	}
}

// Start запускает supervisor-цикл и блокируется до отмены контекста
// или вызова Stop
func (s *Service) Start(ctx context.Context) error {
	s.logger.WithFields(map[string]interface{}{
		"tick":  s.cfg.Poller.Tick.String(),
		"lag":   s.cfg.Poller.Lag.String(),
		"sink":  s.cfg.Sink.Kind,
		"index": s.cfg.Search.Index,
	}).Info("Data server started")

	for {
		err := s.run(ctx)
		if err == nil {
			s.logger.Info("Data server stopped")
			return nil
		}

		delay := s.retryDelay(err)
		s.logger.WithError(err).WithField("retry_in", delay.String()).
			Error("Pipeline failed, restarting")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil
		case <-s.stopChan:
			return nil
		}
	}
}

// run выполняет внутренний цикл до первой ошибки или остановки
func (s *Service) run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Poller.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stopChan:
			return nil
		case now := <-ticker.C:
			if err := s.tick(ctx, now); err != nil {
				return err
			}
		}
	}
}

// tick обрабатывает один такт: статистика по расписанию, затем
// выборка и публикация свежих событий
func (s *Service) tick(ctx context.Context, now time.Time) error {
	if s.poller.ShouldEmitStats(now) {
		counts, err := s.poller.CollectStats(ctx)
		if err != nil {
			return err
		}
		if err := s.publisher.PublishStats(ctx, counts); err != nil {
			return err
		}
	}

	alerts, err := s.poller.Poll(ctx)
	if err != nil {
		return err
	}
	return s.publisher.PublishBatch(ctx, alerts)
}

// retryDelay выбирает интервал перезапуска по классу ошибки
func (s *Service) retryDelay(err error) time.Duration {
	switch apperrors.GetErrorCode(err) {
	case apperrors.ErrorCodeSearchConnection, apperrors.ErrorCodeSearchQuery:
		return s.cfg.Supervisor.SearchRetry
	case apperrors.ErrorCodeSinkConnection, apperrors.ErrorCodeSinkPublish:
		return s.cfg.Supervisor.SinkRetry
	default:
		return s.cfg.Supervisor.ErrorRetry
	}
}

// Stop останавливает supervisor-цикл
func (s *Service) Stop() {
	close(s.stopChan)
}

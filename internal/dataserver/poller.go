// filename: internal/dataserver/poller.go
package dataserver

import (
	"context"
	"encoding/json"
	"time"

	"github.com/attackmap/dataserver/internal/common/config"
	apperrors "github.com/attackmap/dataserver/internal/common/errors"
	"github.com/attackmap/dataserver/internal/common/logging"
	"github.com/attackmap/dataserver/internal/models"
)

// SearchBackend — контракт поискового бэкенда, который потребляет poller
type SearchBackend interface {
	CountWindow(ctx context.Context, window string) (int, error)
	SearchWindow(ctx context.Context, from, to time.Time, size int) ([]json.RawMessage, error)
}

// Poller выполняет два вида опроса бэкенда: инкрементальную выборку
// событий по строго продвигающемуся окну [last, now-lag) и счетчики
// статистики по скользящим окнам.
type Poller struct {
	backend    SearchBackend
	normalizer *Normalizer
	logger     *logging.Logger

	lag          time.Duration
	pageSize     int
	statsWindows []string

	// last — нижняя граница следующего окна. Инвариант: верхняя граница
	// окна N становится нижней границей окна N+1, граница фиксируется
	// до выполнения запроса.
	last time.Time

	// now подменяется в тестах
	now func() time.Time
}

// NewPoller создает poller; нижняя граница первого окна — момент
// создания минус lag // v1.0
func NewPoller(backend SearchBackend, normalizer *Normalizer, cfg config.PollerConfig, logger *logging.Logger) *Poller {
	p := &Poller{
		backend:      backend,
		normalizer:   normalizer,
		logger:       logger,
		lag:          cfg.Lag,
		pageSize:     cfg.PageSize,
		statsWindows: cfg.StatsWindows,
		now:          time.Now,
	}
	p.last = p.now().Add(-p.lag)
	return p
}

// Poll выполняет один инкрементальный опрос: продвигает окно, выбирает
// новые документы и нормализует их. Ошибка разбора отдельного документа
// не прерывает батч; ошибки запроса возвращаются вызывающему // v1.0
func (p *Poller) Poll(ctx context.Context) ([]*models.NormalizedAlert, error) {
	from := p.last
	to := p.now().Add(-p.lag)

	// Граница продвигается до запроса: окна остаются смежными и
	// неперекрывающимися независимо от латентности поиска
	p.last = to

	raws, err := p.backend.SearchWindow(ctx, from, to, p.pageSize)
	if err != nil {
		return nil, err
	}

	var batch []*models.NormalizedAlert
	for _, raw := range raws {
		hit, err := models.ParseHit(raw)
		if err != nil {
			// Битый документ отбрасывается, батч продолжается
			p.logger.WithError(err).Debug("Dropping unparseable hit")
			continue
		}
		if alert := p.normalizer.Normalize(hit); alert != nil {
			batch = append(batch, alert)
		}
	}

	return batch, nil
}

// CollectStats опрашивает счетчики по всем настроенным окнам. Отказ
// одного окна логируется и его ключ опускается; ошибка соединения
// прерывает сбор и уходит вызывающему // v1.0
func (p *Poller) CollectStats(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(p.statsWindows))

	for _, window := range p.statsWindows {
		count, err := p.backend.CountWindow(ctx, window)
		if err != nil {
			if apperrors.IsConnectivity(err) {
				return nil, err
			}
			p.logger.WithError(err).WithField("window", window).Warn("Stats window query failed, omitting key")
			continue
		}
		counts[window] = count
	}

	return counts, nil
}

// ShouldEmitStats отвечает, попадает ли момент времени в узкое окно на
// 10-секундной границе. Окно уже, чем период тика, поэтому каждая
// граница срабатывает не более одного раза // v1.0
func (p *Poller) ShouldEmitStats(now time.Time) bool {
	return now.Second()%10 == 0 && now.Nanosecond() < int(500*time.Millisecond)
}

// Last возвращает нижнюю границу следующего окна // v1.0
func (p *Poller) Last() time.Time {
	return p.last
}

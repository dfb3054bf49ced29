// filename: internal/dataserver/publisher.go
package dataserver

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	apperrors "github.com/attackmap/dataserver/internal/common/errors"
	"github.com/attackmap/dataserver/internal/common/logging"
	"github.com/attackmap/dataserver/internal/models"
)

// Sink — контракт publish-канала с at-most-once доставкой
type Sink interface {
	Publish(ctx context.Context, data []byte) error
	Ping(ctx context.Context) error
	Channel() string
	Close() error
}

// consoleWidths — минимальные ширины колонок текстового вывода
var consoleWidths = [7]int{19, 20, 15, 18, 10, 14, 14}

// Publisher превращает батч нормализованных алертов в опубликованные
// сообщения: валидация, мутация агрегированного состояния, сборка
// сообщения со снимками, санитизация, сериализация, публикация.
type Publisher struct {
	state     *AggregateState
	sanitizer *Sanitizer
	sink      Sink
	logger    *logging.Logger

	console bool
	titler  cases.Caser
}

// NewPublisher создает publisher // v1.0
func NewPublisher(state *AggregateState, sanitizer *Sanitizer, sink Sink, console bool, logger *logging.Logger) *Publisher {
	return &Publisher{
		state:     state,
		sanitizer: sanitizer,
		sink:      sink,
		logger:    logger,
		console:   console,
		titler:    cases.Title(language.English),
	}
}

// PublishBatch публикует алерты по порядку. Отказ публикации одного
// алерта логируется и не блокирует остальные; примененная мутация
// состояния не откатывается. Недоступность канала обнаруживается до
// батча и уходит в supervisor целиком // v1.0
func (p *Publisher) PublishBatch(ctx context.Context, alerts []*models.NormalizedAlert) error {
	if len(alerts) == 0 {
		return nil
	}

	if err := p.sink.Ping(ctx); err != nil {
		return apperrors.Wrap(err, apperrors.ErrorCodeSinkConnection, "sink unavailable, dropping batch").
			AddDetail("batch_size", len(alerts))
	}

	published := 0
	for _, alert := range alerts {
		// Шаг 1: валидация; невалидный алерт пропускается без мутации
		if !alert.Valid() {
			continue
		}

		// Шаг 2: мутация состояния; возвращенный снимок включает
		// пост-инкрементный накопительный счетчик
		snap := p.state.RecordAlert(alert)

		if p.console {
			p.printConsoleRow(alert)
		}

		// Шаги 3-4: сборка сообщения и санитизация — между ними
		// сообщение никуда не попадает
		msg := p.assemble(alert, snap)
		p.sanitizer.Apply(msg)

		// Шаги 5-6: сериализация и публикация
		data, err := msg.ToJSON()
		if err != nil {
			p.logger.WithError(apperrors.Wrap(err, apperrors.ErrorCodeSerialization, "failed to serialize traffic message")).
				WithField("src_ip", alert.SrcIP).Error("Skipping alert")
			continue
		}
		if err := p.sink.Publish(ctx, data); err != nil {
			p.logger.WithChannel(p.sink.Channel()).WithError(err).Error("Failed to publish alert")
			continue
		}
		published++
	}

	p.logger.WithBatch(len(alerts)).WithFields(map[string]interface{}{
		"published":   published,
		"event_count": p.state.EventCount(),
	}).Debug("Batch processed")

	return nil
}

// PublishStats публикует сообщение статистики // v1.0
func (p *Publisher) PublishStats(ctx context.Context, counts map[string]int) error {
	msg := models.NewStatsMessage(counts)

	data, err := msg.ToJSON()
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrorCodeSerialization, "failed to serialize stats message")
	}

	if err := p.sink.Publish(ctx, data); err != nil {
		// Отказ публикации статистики трактуется как потеря канала:
		// отдельного подтверждения pub/sub не дает
		return apperrors.Wrap(err, apperrors.ErrorCodeSinkConnection, "failed to publish stats message")
	}

	return nil
}

// assemble собирает исходящее сообщение из алерта и снимка состояния // v1.0
func (p *Publisher) assemble(alert *models.NormalizedAlert, snap Snapshot) *models.TrafficMessage {
	honeypot := alert.Honeypot
	if honeypot == "" {
		honeypot = defaultHoneypot
	}

	return &models.TrafficMessage{
		Type:              models.MessageTypeTraffic,
		Protocol:          alert.Protocol,
		Color:             alert.Color,
		ISOCode:           alert.ISOCode,
		Honeypot:          honeypot,
		IPsTracked:        snap.IPsTracked,
		SrcPort:           alert.SrcPort,
		EventTime:         alert.EventTime,
		SrcLat:            alert.Latitude,
		SrcIP:             alert.SrcIP,
		IPRep:             p.titler.String(alert.IPRep),
		ContinentsTracked: snap.ContinentsTracked,
		CountryToCode:     snap.CountryToCode,
		DstLong:           alert.DstLong,
		ContinentCode:     alert.ContinentCode,
		DstLat:            alert.DstLat,
		IPToCode:          snap.IPToCode,
		CountriesTracked:  snap.CountriesTracked,
		EventCount:        snap.EventCount,
		Country:           alert.Country,
		SrcLong:           alert.Longitude,
		DstPort:           alert.DstPort,
		DstIP:             alert.DstIP,
		DstISOCode:        alert.DstISOCode,
		DstCountryName:    alert.DstCountryName,
		TPotHostname:      alert.TPotHostname,
	}
}

// printConsoleRow печатает выровненную строку алерта; время события
// переводится из UTC в локальную таймзону процесса // v1.0
func (p *Publisher) printConsoleRow(alert *models.NormalizedAlert) {
	eventTime := alert.EventTime
	if parsed, err := time.ParseInLocation("2006-01-02 15:04:05", alert.EventTime, time.UTC); err == nil {
		eventTime = parsed.In(time.Local).Format("2006-01-02 15:04:05")
	}

	row := [7]string{
		eventTime,
		alert.Country,
		alert.SrcIP,
		p.titler.String(alert.IPRep),
		alert.Protocol,
		alert.Honeypot,
		alert.TPotHostname,
	}

	line := ""
	for i, value := range row {
		width := consoleWidths[i]
		if len(value) > width {
			value = value[:width]
		}
		if i > 0 {
			line += " | "
		}
		line += fmt.Sprintf("%-*s", width, value)
	}
	fmt.Println(line)
}

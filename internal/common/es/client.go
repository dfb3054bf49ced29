// filename: internal/common/es/client.go
package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	apperrors "github.com/attackmap/dataserver/internal/common/errors"
)

// Client представляет клиент поискового бэкенда (Elasticsearch)
type Client struct {
	es     *elasticsearch.Client
	config Config
}

// Config представляет конфигурацию поискового бэкенда
type Config struct {
	Addresses  []string      `yaml:"addresses"`
	Index      string        `yaml:"index"`
	Username   string        `yaml:"username"`
	Password   string        `yaml:"password"`
	Timeout    time.Duration `yaml:"timeout"`
	EventTypes []string      `yaml:"event_types"`
}

// searchResponse представляет потребляемую часть ответа _search
type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []json.RawMessage `json:"hits"`
	} `json:"hits"`
}

// NewClient создает новый клиент Elasticsearch // v1.0
func NewClient(config Config) (*Client, error) {
	esClient, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: config.Addresses,
		Username:  config.Username,
		Password:  config.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	return &Client{
		es:     esClient,
		config: config,
	}, nil
}

// CountWindow возвращает число событий за скользящее окно вида "1m",
// "1h", "24h" (запрос size=0, только total) // v1.0
func (c *Client) CountWindow(ctx context.Context, window string) (int, error) {
	query := c.buildStatsQuery(window)

	body, err := json.Marshal(map[string]interface{}{"query": query})
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrorCodeSerialization, "failed to marshal stats query")
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.config.Index),
		c.es.Search.WithBody(bytes.NewReader(body)),
		c.es.Search.WithSize(0),
		c.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrorCodeSearchConnection, "stats search failed")
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, apperrors.New(apperrors.ErrorCodeSearchQuery, readError(res.Body, res.Status())).
			AddDetail("window", window)
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrorCodeSearchQuery, "failed to decode stats response")
	}

	return parsed.Hits.Total.Value, nil
}

// SearchWindow возвращает сырые документы событий за полуоткрытое окно
// [from, to). Документы возвращаются как RawMessage: разбор каждого
// документа — забота вызывающего, чтобы один битый документ не ронял батч // v1.0
func (c *Client) SearchWindow(ctx context.Context, from, to time.Time, size int) ([]json.RawMessage, error) {
	query := c.buildEventQuery(from, to)

	body, err := json.Marshal(map[string]interface{}{"query": query})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorCodeSerialization, "failed to marshal event query")
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.config.Index),
		c.es.Search.WithBody(bytes.NewReader(body)),
		c.es.Search.WithSize(size),
	)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorCodeSearchConnection, "event search failed")
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, apperrors.New(apperrors.ErrorCodeSearchQuery, readError(res.Body, res.Status()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorCodeSearchQuery, "failed to decode event response")
	}

	return parsed.Hits.Hits, nil
}

// Ping проверяет доступность поискового бэкенда // v1.0
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrorCodeSearchConnection, "elasticsearch ping failed")
	}
	defer res.Body.Close()

	if res.IsError() {
		return apperrors.New(apperrors.ErrorCodeSearchConnection, "elasticsearch ping returned "+res.Status())
	}
	return nil
}

// buildStatsQuery собирает bool-запрос статистики: terms-фильтр по
// type.keyword и range по @timestamp от now-<window> до now // v1.0
func (c *Client) buildStatsQuery(window string) map[string]interface{} {
	return map[string]interface{}{
		"bool": map[string]interface{}{
			"must": []interface{}{},
			"filter": []interface{}{
				map[string]interface{}{
					"terms": map[string]interface{}{
						"type.keyword": c.config.EventTypes,
					},
				},
				map[string]interface{}{
					"range": map[string]interface{}{
						"@timestamp": map[string]interface{}{
							"format": "strict_date_optional_time",
							"gte":    "now-" + window,
							"lte":    "now",
						},
					},
				},
			},
		},
	}
}

// buildEventQuery собирает bool-запрос событий: query_string OR-список
// по type и range по @timestamp с явными ISO-границами с миллисекундами // v1.0
func (c *Client) buildEventQuery(from, to time.Time) map[string]interface{} {
	return map[string]interface{}{
		"bool": map[string]interface{}{
			"must": []interface{}{
				map[string]interface{}{
					"query_string": map[string]interface{}{
						"query": "type:(" + strings.Join(c.config.EventTypes, " OR ") + ")",
					},
				},
			},
			"filter": []interface{}{
				map[string]interface{}{
					"range": map[string]interface{}{
						"@timestamp": map[string]interface{}{
							"gte":    isoMillis(from),
							"lte":    isoMillis(to),
							"format": "strict_date_optional_time||epoch_millis",
						},
					},
				},
			},
		},
	}
}

// withTimeout навешивает таймаут конфигурации на контекст запроса // v1.0
func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.config.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.config.Timeout)
}

// isoMillis форматирует время в ISO 8601 с миллисекундами в UTC // v1.0
func isoMillis(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// readError вытаскивает тело ошибочного ответа для диагностики // v1.0
func readError(body io.Reader, status string) string {
	data, err := io.ReadAll(io.LimitReader(body, 2048))
	if err != nil || len(data) == 0 {
		return "search request failed: " + status
	}
	return fmt.Sprintf("search request failed: %s: %s", status, string(data))
}

// filename: internal/common/nats/client.go
package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	apperrors "github.com/attackmap/dataserver/internal/common/errors"
)

// Client представляет publish-клиент NATS. Используется core NATS без
// JetStream: канал требует at-most-once доставки без подтверждений.
type Client struct {
	conn    *nats.Conn
	subject string
	config  Config
}

// Config представляет конфигурацию NATS
type Config struct {
	URLs     []string      `yaml:"urls"`
	ClientID string        `yaml:"client_id"`
	Timeout  time.Duration `yaml:"timeout"`
}

// NewClient создает новый publish-клиент NATS // v1.0
func NewClient(config Config, subject string) (*Client, error) {
	opts := []nats.Option{
		nats.Name(config.ClientID),
		nats.Timeout(config.Timeout),
		nats.ReconnectWait(1 * time.Second),
		nats.MaxReconnects(-1),
	}

	conn, err := nats.Connect(config.URLs[0], opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Client{
		conn:    conn,
		subject: subject,
		config:  config,
	}, nil
}

// Publish публикует сообщение в настроенный subject // v1.0
func (c *Client) Publish(ctx context.Context, data []byte) error {
	if err := c.conn.Publish(c.subject, data); err != nil {
		return apperrors.Wrap(err, apperrors.ErrorCodeSinkPublish, "nats publish failed").
			AddDetail("subject", c.subject)
	}
	return nil
}

// Ping проверяет соединение с NATS // v1.0
func (c *Client) Ping(ctx context.Context) error {
	if !c.conn.IsConnected() {
		return apperrors.New(apperrors.ErrorCodeSinkConnection, "nats connection is not established")
	}
	if err := c.conn.FlushTimeout(c.config.Timeout); err != nil {
		return apperrors.Wrap(err, apperrors.ErrorCodeSinkConnection, "nats flush failed")
	}
	return nil
}

// Channel возвращает subject публикации // v1.0
func (c *Client) Channel() string {
	return c.subject
}

// Close закрывает соединение с NATS // v1.0
func (c *Client) Close() error {
	if c.conn != nil {
		c.conn.Close()
	}
	return nil
}

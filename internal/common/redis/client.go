// filename: internal/common/redis/client.go
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/attackmap/dataserver/internal/common/errors"
)

// Client представляет publish-клиент Redis. Доставка pub/sub в Redis —
// at-most-once без подтверждений, что соответствует контракту канала.
type Client struct {
	rdb     *redis.Client
	channel string
	config  Config
}

// Config представляет конфигурацию Redis
type Config struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Timeout  time.Duration `yaml:"timeout"`
}

// NewClient создает новый publish-клиент Redis // v1.0
func NewClient(config Config, channel string) *Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  config.Timeout,
		ReadTimeout:  config.Timeout,
		WriteTimeout: config.Timeout,
	})

	return &Client{
		rdb:     rdb,
		channel: channel,
		config:  config,
	}
}

// Publish публикует сообщение в настроенный канал // v1.0
func (c *Client) Publish(ctx context.Context, data []byte) error {
	if err := c.rdb.Publish(ctx, c.channel, data).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrorCodeSinkPublish, "redis publish failed").
			AddDetail("channel", c.channel)
	}
	return nil
}

// Ping проверяет соединение с Redis // v1.0
func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrorCodeSinkConnection, "redis ping failed")
	}
	return nil
}

// Channel возвращает имя канала публикации // v1.0
func (c *Client) Channel() string {
	return c.channel
}

// Close закрывает соединение с Redis // v1.0
func (c *Client) Close() error {
	return c.rdb.Close()
}

// filename: internal/common/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// DefaultEventTypes — honeypot-типы, учитываемые в запросах к поисковому
// бэкенду. Список соответствует логике logstash-индекса T-Pot.
var DefaultEventTypes = []string{
	"Adbhoney", "Beelzebub", "Ciscoasa", "CitrixHoneypot", "ConPot",
	"Cowrie", "Ddospot", "Dicompot", "Dionaea", "ElasticPot",
	"Endlessh", "Galah", "Glutton", "Go-pot", "H0neytr4p", "Hellpot", "Heralding",
	"Honeyaml", "Honeytrap", "Honeypots", "Log4pot", "Ipphoney", "Mailoney",
	"Medpot", "Miniprint", "Redishoneypot", "Sentrypeer", "Tanner", "Wordpot",
}

// Config представляет основную конфигурацию приложения
type Config struct {
	Search     SearchConfig     `mapstructure:"search"`
	Sink       SinkConfig       `mapstructure:"sink"`
	Redis      RedisConfig      `mapstructure:"redis"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Poller     PollerConfig     `mapstructure:"poller"`
	Sanitizer  SanitizerConfig  `mapstructure:"sanitizer"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Console    ConsoleConfig    `mapstructure:"console"`
	Status     StatusConfig     `mapstructure:"status"`
	Supervisor SupervisorConfig `mapstructure:"supervisor"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// SearchConfig представляет конфигурацию поискового бэкенда (Elasticsearch)
type SearchConfig struct {
	Addresses  []string      `mapstructure:"addresses" validate:"required,min=1"`
	Index      string        `mapstructure:"index" validate:"required"`
	Username   string        `mapstructure:"username"`
	Password   string        `mapstructure:"password"`
	Timeout    time.Duration `mapstructure:"timeout"`
	EventTypes []string      `mapstructure:"event_types" validate:"required,min=1"`
}

// SinkConfig представляет конфигурацию publish-канала
type SinkConfig struct {
	Kind    string `mapstructure:"kind" validate:"oneof=redis nats"`
	Channel string `mapstructure:"channel" validate:"required"`
}

// RedisConfig представляет конфигурацию Redis
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port" validate:"gte=1,lte=65535"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// NATSConfig представляет конфигурацию NATS
type NATSConfig struct {
	URLs     []string      `mapstructure:"urls"`
	ClientID string        `mapstructure:"client_id"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// PollerConfig представляет конфигурацию опроса поискового бэкенда
type PollerConfig struct {
	Tick         time.Duration `mapstructure:"tick"`
	Lag          time.Duration `mapstructure:"lag"`
	PageSize     int           `mapstructure:"page_size" validate:"gte=1"`
	StatsWindows []string      `mapstructure:"stats_windows" validate:"min=1,dive,required"`
}

// SanitizerConfig представляет конфигурацию редактирования чувствительных полей
type SanitizerConfig struct {
	SensitiveIP         string `mapstructure:"sensitive_ip"`
	ReplacementIP       string `mapstructure:"replacement_ip"`
	HostnamePattern     string `mapstructure:"hostname_pattern"`
	ReplacementHostname string `mapstructure:"replacement_hostname"`
}

// ClassifierConfig представляет конфигурацию классификатора портов
type ClassifierConfig struct {
	TableFile string `mapstructure:"table_file"`
}

// ConsoleConfig управляет текстовым выводом опубликованных алертов
type ConsoleConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// StatusConfig представляет конфигурацию status HTTP сервера
type StatusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port" validate:"gte=1,lte=65535"`
}

// SupervisorConfig представляет интервалы retry supervisor-цикла
type SupervisorConfig struct {
	SearchRetry time.Duration `mapstructure:"search_retry"`
	SinkRetry   time.Duration `mapstructure:"sink_retry"`
	ErrorRetry  time.Duration `mapstructure:"error_retry"`
}

// LoggingConfig представляет конфигурацию логирования
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// LoadConfig загружает конфигурацию из файла и окружения // v1.0
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("dataserver")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Устанавливаем значения по умолчанию
	setDefaults(v)

	v.SetEnvPrefix("ATTACKMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Читаем конфигурацию; при дефолтном поиске отсутствие файла не ошибка
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Валидируем конфигурацию
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults устанавливает значения по умолчанию // v1.0
func setDefaults(v *viper.Viper) {
	// Search defaults
	v.SetDefault("search.addresses", []string{"http://elasticsearch:9200"})
	v.SetDefault("search.index", "logstash-*")
	v.SetDefault("search.timeout", "30s")
	v.SetDefault("search.event_types", DefaultEventTypes)

	// Sink defaults
	v.SetDefault("sink.kind", "redis")
	v.SetDefault("sink.channel", "attack-map-production")

	// Redis defaults
	v.SetDefault("redis.host", "map_redis")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.timeout", "5s")

	// NATS defaults
	v.SetDefault("nats.urls", []string{"nats://localhost:4222"})
	v.SetDefault("nats.client_id", "attackmap-dataserver")
	v.SetDefault("nats.timeout", "30s")

	// Poller defaults
	v.SetDefault("poller.tick", "500ms")
	v.SetDefault("poller.lag", "10s")
	v.SetDefault("poller.page_size", 100)
	v.SetDefault("poller.stats_windows", []string{"1m", "1h", "24h"})

	// Sanitizer defaults: документационные placeholder-значения,
	// в боевом развертывании переопределяются
	v.SetDefault("sanitizer.sensitive_ip", "192.0.2.1")
	v.SetDefault("sanitizer.replacement_ip", "honeypot.example.com")
	v.SetDefault("sanitizer.hostname_pattern", `internal-node-\d+`)
	v.SetDefault("sanitizer.replacement_hostname", "honeypot-node")

	// Console defaults
	v.SetDefault("console.enabled", false)

	// Status defaults
	v.SetDefault("status.enabled", false)
	v.SetDefault("status.host", "0.0.0.0")
	v.SetDefault("status.port", 8087)

	// Supervisor defaults
	v.SetDefault("supervisor.search_retry", "10s")
	v.SetDefault("supervisor.sink_retry", "10s")
	v.SetDefault("supervisor.error_retry", "15s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

// Validate валидирует конфигурацию // v1.0
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}

	// Правила, не выражаемые struct-тегами
	if c.Poller.Tick <= 0 {
		return fmt.Errorf("poller tick must be positive: %s", c.Poller.Tick)
	}
	if c.Poller.Lag < 0 {
		return fmt.Errorf("poller lag must not be negative: %s", c.Poller.Lag)
	}
	if c.Sink.Kind == "nats" && len(c.NATS.URLs) == 0 {
		return fmt.Errorf("at least one NATS URL is required for the nats sink")
	}

	return nil
}

// GetRedisAddr возвращает адрес Redis // v1.0
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// GetStatusAddr возвращает адрес status сервера // v1.0
func (c *Config) GetStatusAddr() string {
	return fmt.Sprintf("%s:%d", c.Status.Host, c.Status.Port)
}

// filename: internal/common/logging/logger.go
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger представляет логгер приложения
type Logger struct {
	*logrus.Logger
}

// Config представляет конфигурацию логирования
type Config struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// NewLogger создает новый логгер // v1.0
func NewLogger(config Config) (*Logger, error) {
	logger := logrus.New()

	// Устанавливаем уровень логирования
	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)

	// Устанавливаем формат
	switch config.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	default:
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	// Устанавливаем вывод
	if err := setOutput(logger, config); err != nil {
		return nil, err
	}

	return &Logger{Logger: logger}, nil
}

// setOutput устанавливает вывод для логгера // v1.0
func setOutput(logger *logrus.Logger, config Config) error {
	switch config.Output {
	case "stdout", "":
		logger.SetOutput(os.Stdout)
	case "stderr":
		logger.SetOutput(os.Stderr)
	default:
		// Любое другое значение трактуется как путь к файлу
		dir := filepath.Dir(config.Output)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		file, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return err
		}
		logger.SetOutput(io.MultiWriter(os.Stdout, file))
	}

	return nil
}

// WithField добавляет поле к логгеру // v1.0
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.Logger.WithField(key, value)
}

// WithFields добавляет поля к логгеру // v1.0
func (l *Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	return l.Logger.WithFields(fields)
}

// WithError добавляет ошибку к логгеру // v1.0
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithError(err)
}

// WithHit добавляет информацию о событии honeypot к логгеру // v1.0
func (l *Logger) WithHit(hitID, honeypot, srcIP string) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{
		"hit_id":   hitID,
		"honeypot": honeypot,
		"src_ip":   srcIP,
	})
}

// WithWindow добавляет границы окна опроса к логгеру // v1.0
func (l *Logger) WithWindow(from, to time.Time) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{
		"window_from": from.Format(time.RFC3339Nano),
		"window_to":   to.Format(time.RFC3339Nano),
	})
}

// WithBatch добавляет информацию о батче алертов к логгеру // v1.0
func (l *Logger) WithBatch(size int) *logrus.Entry {
	return l.Logger.WithField("batch_size", size)
}

// WithChannel добавляет имя publish-канала к логгеру // v1.0
func (l *Logger) WithChannel(channel string) *logrus.Entry {
	return l.Logger.WithField("channel", channel)
}

// SetLevel устанавливает уровень логирования // v1.0
func (l *Logger) SetLevel(level string) error {
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	l.Logger.SetLevel(logLevel)
	return nil
}

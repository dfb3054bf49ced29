// filename: internal/dataserver/sanitizer.go
package dataserver

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/attackmap/dataserver/internal/common/config"
	"github.com/attackmap/dataserver/internal/models"
)

// Sanitizer редактирует чувствительные идентификаторы исходящего
// сообщения перед сериализацией. Два независимых правила:
// точное совпадение dst_ip и regex-подстановка в hostname.
type Sanitizer struct {
	sensitiveIP         string
	replacementIP       string
	hostnamePattern     *regexp.Regexp
	replacementHostname string
}

// NewSanitizer создает sanitizer из конфигурации; hostname-паттерн
// компилируется без учета регистра // v1.0
func NewSanitizer(cfg config.SanitizerConfig) (*Sanitizer, error) {
	s := &Sanitizer{
		sensitiveIP:         cfg.SensitiveIP,
		replacementIP:       cfg.ReplacementIP,
		replacementHostname: cfg.ReplacementHostname,
	}

	if cfg.HostnamePattern != "" {
		pattern := cfg.HostnamePattern
		if !strings.HasPrefix(pattern, "(?i)") {
			pattern = "(?i)" + pattern
		}
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to compile hostname pattern: %w", err)
		}
		s.hostnamePattern = compiled
	}

	return s, nil
}

// Apply применяет оба правила к собранному сообщению. Вызывается строго
// между сборкой сообщения и сериализацией. Идемпотентен. // v1.0
func (s *Sanitizer) Apply(msg *models.TrafficMessage) {
	if msg == nil {
		return
	}

	// Правило 1: точное совпадение dst_ip
	if s.sensitiveIP != "" && msg.DstIP == s.sensitiveIP {
		msg.DstIP = s.replacementIP
	}

	// Правило 2: подстановка каждого вхождения паттерна в hostname,
	// остальная часть строки сохраняется
	if s.hostnamePattern != nil && msg.TPotHostname != "" {
		msg.TPotHostname = s.hostnamePattern.ReplaceAllString(msg.TPotHostname, s.replacementHostname)
	}
}

// filename: internal/models/hit.go
package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RawHit представляет один сырой документ из поискового бэкенда.
// Никогда не мутируется; все вложенные блоки опциональны.
type RawHit struct {
	ID     string    `json:"_id"`
	Source HitSource `json:"_source"`
}

// HitSource представляет полезную часть _source документа
type HitSource struct {
	Type         string `json:"type"`
	Timestamp    string `json:"@timestamp"`
	GeoIP        *GeoIP `json:"geoip,omitempty"`
	GeoIPExt     *GeoIP `json:"geoip_ext,omitempty"`
	SrcIP        string `json:"src_ip"`
	SrcPort      Port   `json:"src_port"`
	DestPort     Port   `json:"dest_port"`
	IPRep        string `json:"ip_rep"`
	TPotHostname string `json:"t-pot_hostname"`
}

// GeoIP представляет блок геолокации logstash
type GeoIP struct {
	CountryName   string  `json:"country_name"`
	CountryCode2  string  `json:"country_code2"`
	ContinentCode string  `json:"continent_code"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	IP            string  `json:"ip"`
}

// Port представляет номер порта, который индекс может хранить как число
// или как строку. Неразбираемые значения приводятся к 0 (классифицируются
// как OTHER).
type Port int

// UnmarshalJSON реализует json.Unmarshaler // v1.0
func (p *Port) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*p = 0
		return nil
	}
	s = strings.Trim(s, `"`)

	if n, err := strconv.Atoi(s); err == nil {
		*p = Port(n)
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		*p = Port(int(f))
		return nil
	}

	*p = 0
	return nil
}

// Int возвращает порт как int // v1.0
func (p Port) Int() int {
	return int(p)
}

// ParseHit разбирает один документ из ответа поискового бэкенда.
// Ошибка разбора касается только этого документа и не прерывает батч.
func ParseHit(raw json.RawMessage) (*RawHit, error) {
	var hit RawHit
	if err := json.Unmarshal(raw, &hit); err != nil {
		return nil, fmt.Errorf("failed to parse hit: %w", err)
	}
	return &hit, nil
}

// EventTime возвращает временную метку события с точностью до секунды
// в формате "YYYY-MM-DD HH:MM:SS" (таймзона бэкенда считается UTC).
func (h *HitSource) EventTime() string {
	ts := h.Timestamp
	if len(ts) >= 19 {
		return ts[0:10] + " " + ts[11:19]
	}
	return ts
}

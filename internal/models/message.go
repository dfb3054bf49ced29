// filename: internal/models/message.go
package models

import "encoding/json"

// MessageTypeTraffic и MessageTypeStats — значения поля "type"
// исходящих сообщений.
const (
	MessageTypeTraffic = "Traffic"
	MessageTypeStats   = "Stats"
)

// TrafficMessage представляет исходящее сообщение об одном событии.
// В каждое сообщение встраиваются полные снимки агрегированных карт,
// чтобы потребитель оставался stateless.
type TrafficMessage struct {
	Type              string            `json:"type"`
	Protocol          string            `json:"protocol"`
	Color             string            `json:"color"`
	ISOCode           string            `json:"iso_code"`
	Honeypot          string            `json:"honeypot"`
	IPsTracked        map[string]int    `json:"ips_tracked"`
	SrcPort           int               `json:"src_port"`
	EventTime         string            `json:"event_time"`
	SrcLat            float64           `json:"src_lat"`
	SrcIP             string            `json:"src_ip"`
	IPRep             string            `json:"ip_rep"`
	ContinentsTracked map[string]int    `json:"continents_tracked"`
	CountryToCode     map[string]string `json:"country_to_code"`
	DstLong           float64           `json:"dst_long"`
	ContinentCode     string            `json:"continent_code"`
	DstLat            float64           `json:"dst_lat"`
	IPToCode          map[string]string `json:"ip_to_code"`
	CountriesTracked  map[string]int    `json:"countries_tracked"`
	EventCount        int64             `json:"event_count"`
	Country           string            `json:"country"`
	SrcLong           float64           `json:"src_long"`
	DstPort           int               `json:"dst_port"`
	DstIP             string            `json:"dst_ip"`
	DstISOCode        string            `json:"dst_iso_code"`
	DstCountryName    string            `json:"dst_country_name"`
	TPotHostname      string            `json:"tpot_hostname"`
}

// ToJSON сериализует сообщение в JSON // v1.0
func (m *TrafficMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// StatsMessage представляет сообщение статистики. Ключи окон
// присутствуют только для успешно опрошенных окон, поэтому
// сообщение собирается как map.
type StatsMessage map[string]interface{}

// NewStatsMessage собирает сообщение статистики из счетчиков окон // v1.0
func NewStatsMessage(counts map[string]int) StatsMessage {
	msg := make(StatsMessage, len(counts)+1)
	for window, count := range counts {
		msg["last_"+window] = count
	}
	msg["type"] = MessageTypeStats
	return msg
}

// ToJSON сериализует сообщение статистики в JSON // v1.0
func (m StatsMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

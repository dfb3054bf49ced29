// filename: internal/dataserver/state.go
package dataserver

import (
	"sync"

	"github.com/attackmap/dataserver/internal/models"
)

// AggregateState — накопительные счетчики процесса: по source IP,
// континенту, стране и порту назначения, плюс таблицы соответствий
// IP→код страны и страна→код страны. Единственный писатель — publisher;
// блокировка нужна, так как status-сервер читает снимки конкурентно.
// Состояние живет все время процесса, не персистится и не сбрасывается.
type AggregateState struct {
	mu sync.RWMutex

	ipsTracked        map[string]int
	continentsTracked map[string]int
	countriesTracked  map[string]int
	ipToCode          map[string]string
	countryToCode     map[string]string
	ports             map[int]int
	eventCount        int64
}

// Snapshot — согласованная копия агрегированного состояния
type Snapshot struct {
	IPsTracked        map[string]int
	ContinentsTracked map[string]int
	CountriesTracked  map[string]int
	IPToCode          map[string]string
	CountryToCode     map[string]string
	Ports             map[int]int
	EventCount        int64
}

// NewAggregateState создает пустое состояние // v1.0
func NewAggregateState() *AggregateState {
	return &AggregateState{
		ipsTracked:        make(map[string]int),
		continentsTracked: make(map[string]int),
		countriesTracked:  make(map[string]int),
		ipToCode:          make(map[string]string),
		countryToCode:     make(map[string]string),
		ports:             make(map[int]int),
	}
}

// RecordAlert фиксирует один валидированный алерт: инкрементирует
// счетчики source IP, континента, страны и порта плюс накопительный
// счетчик ровно на единицу; таблицы соответствий перезаписываются
// (last-writer-wins). Возвращает снимок после мутации // v1.0
func (s *AggregateState) RecordAlert(alert *models.NormalizedAlert) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ipsTracked[alert.SrcIP]++
	s.continentsTracked[alert.ContinentCode]++
	s.countriesTracked[alert.Country]++
	s.ipToCode[alert.SrcIP] = alert.ISOCode
	s.countryToCode[alert.Country] = alert.CountryCode
	s.ports[alert.DstPort]++
	s.eventCount++

	return s.snapshotLocked()
}

// Snapshot возвращает копию текущего состояния // v1.0
func (s *AggregateState) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// EventCount возвращает накопительный счетчик событий // v1.0
func (s *AggregateState) EventCount() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.eventCount
}

// snapshotLocked копирует карты под уже взятой блокировкой // v1.0
func (s *AggregateState) snapshotLocked() Snapshot {
	return Snapshot{
		IPsTracked:        copyIntMap(s.ipsTracked),
		ContinentsTracked: copyIntMap(s.continentsTracked),
		CountriesTracked:  copyIntMap(s.countriesTracked),
		IPToCode:          copyStringMap(s.ipToCode),
		CountryToCode:     copyStringMap(s.countryToCode),
		Ports:             copyPortMap(s.ports),
		EventCount:        s.eventCount,
	}
}

func copyIntMap(src map[string]int) map[string]int {
	dst := make(map[string]int, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func copyStringMap(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func copyPortMap(src map[int]int) map[int]int {
	dst := make(map[int]int, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// filename: internal/models/alert.go
package models

// NormalizedAlert представляет очищенное, классифицированное событие
// honeypot, готовое к агрегации и публикации. Создается нормализатором
// из одного RawHit и потребляется публикатором сразу же.
type NormalizedAlert struct {
	Honeypot       string
	Country        string
	CountryCode    string
	ContinentCode  string
	DstLat         float64
	DstLong        float64
	DstIP          string
	DstISOCode     string
	DstCountryName string
	TPotHostname   string
	EventTime      string
	ISOCode        string
	Latitude       float64
	Longitude      float64
	DstPort        int
	Protocol       string
	SrcIP          string
	SrcPort        int
	IPRep          string
	Color          string
}

// Valid проверяет обязательные поля алерта. Единственные содержательные
// ворота валидности — непустой src_ip; остальные поля всегда
// присутствуют структурно с дефолтами нормализатора. // v1.0
func (a *NormalizedAlert) Valid() bool {
	return a != nil && a.SrcIP != ""
}

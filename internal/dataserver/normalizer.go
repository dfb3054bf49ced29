// filename: internal/dataserver/normalizer.go
package dataserver

import (
	"github.com/attackmap/dataserver/internal/models"
)

// Дефолты строковых полей при отсутствии в документе
const (
	defaultHostname = "unknown_host"
	defaultIPRep    = "reputation unknown"
	defaultHoneypot = "Unknown"
)

// Normalizer превращает сырой документ поискового бэкенда в
// NormalizedAlert, подставляя дефолты и применяя классификатор.
type Normalizer struct {
	classifier *Classifier
}

// NewNormalizer создает нормализатор // v1.0
func NewNormalizer(classifier *Classifier) *Normalizer {
	return &Normalizer{classifier: classifier}
}

// Normalize извлекает поля с явными дефолтами. Возвращает nil, когда
// src_ip пуст — единственные ворота валидности; отсутствие любого
// другого поля нормализацию не прерывает // v1.0
func (n *Normalizer) Normalize(hit *models.RawHit) *models.NormalizedAlert {
	if hit == nil {
		return nil
	}
	src := &hit.Source

	if src.SrcIP == "" {
		return nil
	}

	alert := &models.NormalizedAlert{
		Honeypot:     src.Type,
		TPotHostname: src.TPotHostname,
		EventTime:    src.EventTime(),
		DstPort:      src.DestPort.Int(),
		SrcIP:        src.SrcIP,
		SrcPort:      src.SrcPort.Int(),
		IPRep:        src.IPRep,
	}

	if geo := src.GeoIP; geo != nil {
		alert.Country = geo.CountryName
		alert.CountryCode = geo.CountryCode2
		alert.ContinentCode = geo.ContinentCode
		alert.ISOCode = geo.CountryCode2
		alert.Latitude = geo.Latitude
		alert.Longitude = geo.Longitude
	}

	if ext := src.GeoIPExt; ext != nil {
		alert.DstLat = ext.Latitude
		alert.DstLong = ext.Longitude
		alert.DstIP = ext.IP
		alert.DstISOCode = ext.CountryCode2
		alert.DstCountryName = ext.CountryName
	}

	if alert.TPotHostname == "" {
		alert.TPotHostname = defaultHostname
	}
	if alert.IPRep == "" {
		alert.IPRep = defaultIPRep
	}

	// protocol выводится только из (дефолтного) порта назначения
	alert.Protocol = n.classifier.Classify(alert.DstPort)
	alert.Color = n.classifier.ColorFor(alert.Protocol)

	return alert
}

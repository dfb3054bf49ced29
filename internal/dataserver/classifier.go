// filename: internal/dataserver/classifier.go
package dataserver

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// serviceEntry — одна строка таблицы порт→сервис. Наборы портов
// дизъюнктны по построению, порядок влияет только на чтение.
type serviceEntry struct {
	Name  string `yaml:"name"`
	Ports []int  `yaml:"ports"`
	Color string `yaml:"color"`
}

// defaultServiceTable — встроенная таблица классификации портов T-Pot
var defaultServiceTable = []serviceEntry{
	{Name: "FTP", Ports: []int{21, 20}, Color: "#ff0000"},
	{Name: "SSH", Ports: []int{22, 2222}, Color: "#ff8000"},
	{Name: "TELNET", Ports: []int{23, 2223}, Color: "#ffff00"},
	{Name: "EMAIL", Ports: []int{25, 143, 110, 993, 995}, Color: "#80ff00"},
	{Name: "SQL", Ports: []int{1433, 1521, 3306}, Color: "#00ff00"},
	{Name: "DNS", Ports: []int{53}, Color: "#00ff80"},
	{Name: "HTTP", Ports: []int{80, 81, 8080, 8888}, Color: "#00ffff"},
	{Name: "HTTPS", Ports: []int{443, 8443}, Color: "#0080ff"},
	{Name: "VNC", Ports: []int{5900}, Color: "#0000ff"},
	{Name: "SNMP", Ports: []int{161}, Color: "#8000ff"},
	{Name: "SMB", Ports: []int{445}, Color: "#bf00ff"},
	{Name: "MEDICAL", Ports: []int{2575, 11112}, Color: "#ff00ff"},
	{Name: "RDP", Ports: []int{3389}, Color: "#ff0060"},
	{Name: "SIP", Ports: []int{5060, 5061}, Color: "#ffccff"},
	{Name: "ADB", Ports: []int{5555}, Color: "#ffcccc"},
}

// ServiceOther — метка и цвет для неклассифицированных портов
const (
	ServiceOther      = "OTHER"
	serviceOtherColor = "#ffffff"
)

// Classifier отображает порт назначения в категорию сервиса и категорию
// в цвет визуализации. Чистый, без состояния после построения.
type Classifier struct {
	byPort map[int]string
	colors map[string]string
}

// NewClassifier создает классификатор со встроенной таблицей // v1.0
func NewClassifier() *Classifier {
	c := &Classifier{}
	c.install(defaultServiceTable)
	return c
}

// NewClassifierFromFile создает классификатор из YAML-файла, полностью
// заменяющего встроенную таблицу // v1.0
func NewClassifierFromFile(path string) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read classifier table: %w", err)
	}

	var table struct {
		Services []serviceEntry `yaml:"services"`
	}
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse classifier table: %w", err)
	}
	if len(table.Services) == 0 {
		return nil, fmt.Errorf("classifier table %s defines no services", path)
	}

	seen := make(map[int]string)
	for _, entry := range table.Services {
		if entry.Name == "" {
			return nil, fmt.Errorf("classifier table %s: service without a name", path)
		}
		if len(entry.Ports) == 0 {
			return nil, fmt.Errorf("classifier table %s: service %s has no ports", path, entry.Name)
		}
		for _, port := range entry.Ports {
			if prev, dup := seen[port]; dup {
				return nil, fmt.Errorf("classifier table %s: port %d assigned to both %s and %s",
					path, port, prev, entry.Name)
			}
			seen[port] = entry.Name
		}
	}

	c := &Classifier{}
	c.install(table.Services)
	return c, nil
}

// install строит индексы поиска из таблицы // v1.0
func (c *Classifier) install(table []serviceEntry) {
	c.byPort = make(map[int]string)
	c.colors = make(map[string]string, len(table)+1)

	for _, entry := range table {
		name := strings.ToUpper(entry.Name)
		for _, port := range entry.Ports {
			c.byPort[port] = name
		}
		color := entry.Color
		if color == "" {
			color = builtinColor(name)
		}
		c.colors[name] = color
	}
	if _, ok := c.colors[ServiceOther]; !ok {
		c.colors[ServiceOther] = serviceOtherColor
	}
}

// Classify возвращает категорию сервиса для порта назначения.
// Порт вне таблицы дает OTHER // v1.0
func (c *Classifier) Classify(port int) string {
	if service, ok := c.byPort[port]; ok {
		return service
	}
	return ServiceOther
}

// ColorFor возвращает цвет визуализации для категории сервиса,
// без учета регистра; неизвестная категория дает цвет OTHER // v1.0
func (c *Classifier) ColorFor(service string) string {
	if color, ok := c.colors[strings.ToUpper(service)]; ok {
		return color
	}
	return c.colors[ServiceOther]
}

// builtinColor возвращает встроенный цвет для известной категории // v1.0
func builtinColor(name string) string {
	for _, entry := range defaultServiceTable {
		if entry.Name == name {
			return entry.Color
		}
	}
	return serviceOtherColor
}

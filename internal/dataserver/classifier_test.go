// filename: internal/dataserver/classifier_test.go
package dataserver

import (
	"os"
	"path/filepath"
	"testing"
)

func TestClassify_AllConfiguredPorts(t *testing.T) {
	c := NewClassifier()

	// Каждый порт каждой категории должен классифицироваться в нее
	for _, entry := range defaultServiceTable {
		for _, port := range entry.Ports {
			if got := c.Classify(port); got != entry.Name {
				t.Errorf("Classify(%d) = %s, want %s", port, got, entry.Name)
			}
		}
	}
}

func TestClassify_UnknownPort(t *testing.T) {
	c := NewClassifier()

	for _, port := range []int{0, 1, 1024, 6667, 65535, -1} {
		if got := c.Classify(port); got != ServiceOther {
			t.Errorf("Classify(%d) = %s, want OTHER", port, got)
		}
	}
}

func TestColorFor(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		service string
		want    string
	}{
		{"SSH", "#ff8000"},
		{"ssh", "#ff8000"}, // без учета регистра
		{"FTP", "#ff0000"},
		{"HTTPS", "#0080ff"},
		{"OTHER", "#ffffff"},
		{"NOSUCH", "#ffffff"}, // fallback на OTHER
	}

	for _, tt := range tests {
		if got := c.ColorFor(tt.service); got != tt.want {
			t.Errorf("ColorFor(%s) = %s, want %s", tt.service, got, tt.want)
		}
	}
}

func TestNewClassifierFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.yaml")
	content := `
services:
  - name: SSH
    ports: [22]
    color: "#123456"
  - name: GAME
    ports: [25565]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write table: %v", err)
	}

	c, err := NewClassifierFromFile(path)
	if err != nil {
		t.Fatalf("NewClassifierFromFile failed: %v", err)
	}

	if got := c.Classify(22); got != "SSH" {
		t.Errorf("Classify(22) = %s, want SSH", got)
	}
	if got := c.Classify(25565); got != "GAME" {
		t.Errorf("Classify(25565) = %s, want GAME", got)
	}
	// Порт встроенной таблицы, не упомянутый в файле, больше не классифицируется
	if got := c.Classify(443); got != ServiceOther {
		t.Errorf("Classify(443) = %s, want OTHER after override", got)
	}
	if got := c.ColorFor("SSH"); got != "#123456" {
		t.Errorf("ColorFor(SSH) = %s, want #123456", got)
	}
	// Категория без цвета и без встроенного аналога получает цвет OTHER
	if got := c.ColorFor("GAME"); got != "#ffffff" {
		t.Errorf("ColorFor(GAME) = %s, want #ffffff", got)
	}
}

func TestNewClassifierFromFile_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"empty", "services: []\n"},
		{"no name", "services:\n  - ports: [22]\n"},
		{"no ports", "services:\n  - name: SSH\n"},
		{"duplicate port", "services:\n  - name: SSH\n    ports: [22]\n  - name: FTP\n    ports: [22]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to write table: %v", err)
			}
			if _, err := NewClassifierFromFile(path); err == nil {
				t.Error("Expected error for invalid table")
			}
		})
	}
}

package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load([]string{"https://example.substack.com"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.URL != "https://example.substack.com" {
		t.Errorf("Expected URL to be set, got '%s'", cfg.URL)
	}
	if cfg.Timeout != 30 {
		t.Errorf("Expected default timeout 30, got %d", cfg.Timeout)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("Expected default max retries 3, got %d", cfg.MaxRetries)
	}
	if cfg.PageSize != 12 {
		t.Errorf("Expected default page size 12, got %d", cfg.PageSize)
	}
	if cfg.WorkerCount != 5 {
		t.Errorf("Expected default worker count 5, got %d", cfg.WorkerCount)
	}
	if cfg.MaxImageSize != 10*1024*1024 {
		t.Errorf("Expected default max image size 10MB, got %d", cfg.MaxImageSize)
	}
	if cfg.OutputDir != "output" {
		t.Errorf("Expected default output dir 'output', got '%s'", cfg.OutputDir)
	}
	if cfg.Format != FormatPDF {
		t.Errorf("Expected default format pdf, got '%s'", cfg.Format)
	}
	if cfg.CacheEnabled {
		t.Error("Cache should be disabled by default")
	}
	if cfg.UserAgent == "" {
		t.Error("Expected a non-empty default user agent")
	}
}

func TestLoadMissingURL(t *testing.T) {
	if _, err := Load([]string{}); err == nil {
		t.Error("Expected error when URL argument is missing")
	}
}

func TestLoadOptions(t *testing.T) {
	cfg, err := Load([]string{
		"--format", "epub",
		"--limit", "25",
		"--output", "book.epub",
		"--update",
		"https://example.substack.com",
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Format != FormatEPUB {
		t.Errorf("Expected format epub, got '%s'", cfg.Format)
	}
	if cfg.Limit != 25 {
		t.Errorf("Expected limit 25, got %d", cfg.Limit)
	}
	if cfg.Output != "book.epub" {
		t.Errorf("Expected output 'book.epub', got '%s'", cfg.Output)
	}
	if !cfg.Update {
		t.Error("Expected update mode to be enabled")
	}
}

func TestIsValidFormat(t *testing.T) {
	for _, format := range []string{"pdf", "epub", "json", "html", "txt", "md"} {
		if !IsValidFormat(format) {
			t.Errorf("Expected '%s' to be a valid format", format)
		}
	}

	for _, format := range []string{"", "docx", "PDF", "text"} {
		if IsValidFormat(format) {
			t.Errorf("Expected '%s' to be rejected", format)
		}
	}
}

func TestMimeType(t *testing.T) {
	tests := []struct {
		format   string
		expected string
	}{
		{FormatPDF, "application/pdf"},
		{FormatEPUB, "application/epub+zip"},
		{FormatJSON, "application/json"},
		{FormatHTML, "text/html"},
		{FormatTXT, "text/plain"},
		{FormatMarkdown, "text/markdown"},
		{"unknown", "application/octet-stream"},
	}

	for _, tt := range tests {
		if got := MimeType(tt.format); got != tt.expected {
			t.Errorf("MimeType(%s) = %s, expected %s", tt.format, got, tt.expected)
		}
	}
}

package content

import (
	"encoding/base64"
	"strings"
	"testing"
)

// 1x1 PNG.
const pngBase64 = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Plain text", "Can you share the mockups?", "Can you share the mockups?"},
		{"HTML tags", "Budget is <b>$500</b>", "Budget is <b>$500</b>"},
		{"Script tag", "<script>alert('xss')</script>Hello", "Hello"},
		{"Javascript link", "<a href='javascript:alert(1)'>Invoice</a>", "Invoice"},
		{"Emoji", "Deal 🤝", "Deal 🤝"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input); got != tt.expected {
				t.Errorf("Sanitize() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestEscape(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Plain text", "Hello World", "Hello World"},
		{"HTML chars", "<div>Hello</div>", "&lt;div&gt;Hello&lt;/div&gt;"},
		{"Quotes", `"Hello" 'World'`, "&#34;Hello&#34; &#39;World&#39;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Escape(tt.input); got != tt.expected {
				t.Errorf("Escape() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMarkdown(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		contains   string
		notContain string
	}{
		{"Bold", "**milestone one** done", "<strong>milestone one</strong>", ""},
		{"Link", "[repo](https://example.com)", `href="https://example.com"`, ""},
		{"Raw script", "<script>alert(1)</script>hi", "", "<script"},
		{"Javascript link", "[x](javascript:alert(1))", "", "javascript:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Markdown(tt.input)
			if tt.contains != "" && !strings.Contains(got, tt.contains) {
				t.Errorf("Markdown() = %q, want it to contain %q", got, tt.contains)
			}
			if tt.notContain != "" && strings.Contains(got, tt.notContain) {
				t.Errorf("Markdown() = %q, must not contain %q", got, tt.notContain)
			}
		})
	}
}

func TestDetectMIME(t *testing.T) {
	png, err := base64.StdEncoding.DecodeString(pngBase64)
	if err != nil {
		t.Fatal(err)
	}

	if got := DetectMIME(png); got != "image/png" {
		t.Errorf("DetectMIME(png) = %q", got)
	}
	if !IsImage(png) {
		t.Error("IsImage(png) = false")
	}
	if got := DetectMIME([]byte("plain text notes")); got != "application/octet-stream" {
		t.Errorf("DetectMIME(text) = %q", got)
	}
	if IsImage([]byte("plain text notes")) {
		t.Error("IsImage(text) = true")
	}
	if !IsImageMIME("image/png") || !IsImageMIME("image/webp") {
		t.Error("IsImageMIME rejected a known image type")
	}
	if IsImageMIME("application/pdf") || IsImageMIME("") {
		t.Error("IsImageMIME accepted a non-image type")
	}
}

func TestValidateAttachment(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		data     []byte
		wantErr  bool
	}{
		{"Valid", "brief (v2).pdf", []byte("x"), false},
		{"Unicode name", "résumé.pdf", []byte("x"), false},
		{"Empty name", "  ", []byte("x"), true},
		{"Path separator", "../etc/passwd", []byte("x"), true},
		{"Empty data", "a.txt", nil, true},
		{"Too large", "a.bin", make([]byte, MaxAttachmentSize+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateAttachment(tt.fileName, tt.data); (err != nil) != tt.wantErr {
				t.Errorf("ValidateAttachment() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

package content

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// MaxAttachmentSize bounds file messages.
const MaxAttachmentSize = 25 << 20

var (
	policy        = bluemonday.UGCPolicy()
	fileNameRegex = regexp.MustCompile(`^[\p{L}\p{N} ._()-]+$`)
)

// Sanitize removes unsafe HTML from message bodies and profile text.
func Sanitize(input string) string {
	return policy.Sanitize(input)
}

// Escape escapes special characters like "<" to become "&lt;".
func Escape(input string) string {
	return template.HTMLEscapeString(input)
}

// Markdown renders a chat message body to sanitized HTML. Rendering errors
// fall back to the escaped source.
func Markdown(body string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(body), &buf); err != nil {
		return "<p>" + Escape(body) + "</p>"
	}
	return policy.Sanitize(buf.String())
}

// DetectMIME sniffs the content type from the file header.
func DetectMIME(data []byte) string {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return "application/octet-stream"
	}
	return kind.MIME.Value
}

// IsImage reports whether the data looks like a supported image.
func IsImage(data []byte) bool {
	return filetype.IsImage(data)
}

// IsImageMIME reports whether mime names an image type the sniffer knows.
func IsImageMIME(mime string) bool {
	for t := range matchers.Image {
		if t.MIME.Value == mime {
			return true
		}
	}
	return false
}

// ValidateAttachment checks a file before it is sent as a message.
func ValidateAttachment(name string, data []byte) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("file name cannot be empty")
	}
	if !fileNameRegex.MatchString(name) {
		return errors.New("file name contains invalid characters")
	}
	if len(data) == 0 {
		return errors.New("file is empty")
	}
	if len(data) > MaxAttachmentSize {
		return fmt.Errorf("file is larger than %d MB", MaxAttachmentSize>>20)
	}
	return nil
}

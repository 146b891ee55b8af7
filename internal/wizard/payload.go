package wizard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"slices"
	"strconv"
	"strings"

	"skillconnect/internal/content"
)

// Poster sends an encoded multipart body.
type Poster interface {
	SubmitMultipart(ctx context.Context, path, contentType string, body io.Reader) error
}

// MultipartSubmitter encodes the fields with EncodeMultipart and posts them
// to Path.
type MultipartSubmitter struct {
	Poster Poster
	Path   string
}

func (s MultipartSubmitter) Submit(ctx context.Context, fields Fields) error {
	contentType, body, err := EncodeMultipart(fields)
	if err != nil {
		return err
	}
	return s.Poster.SubmitMultipart(ctx, s.Path, contentType, body)
}

// EncodeMultipart writes fields as multipart/form-data. Files become file
// parts with a sniffed content type, slices and structured values are sent
// as JSON strings and scalars as plain text. Empty files are left out.
func EncodeMultipart(fields Fields) (string, *bytes.Buffer, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		if err := writeField(mw, key, fields[key]); err != nil {
			return "", nil, fmt.Errorf("failed to encode field %q: %w", key, err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", nil, err
	}
	return mw.FormDataContentType(), buf, nil
}

func writeField(mw *multipart.Writer, key string, value any) error {
	switch v := value.(type) {
	case nil:
		return nil
	case File:
		if len(v.Data) == 0 {
			return nil
		}
		return writeFile(mw, key, v)
	case string:
		return mw.WriteField(key, v)
	case bool:
		return mw.WriteField(key, strconv.FormatBool(v))
	case int:
		return mw.WriteField(key, strconv.Itoa(v))
	case float64:
		return mw.WriteField(key, strconv.FormatFloat(v, 'f', -1, 64))
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return mw.WriteField(key, string(data))
	}
}

func writeFile(mw *multipart.Writer, key string, f File) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(key), escapeQuotes(f.Name)))
	h.Set("Content-Type", content.DetectMIME(f.Data))

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(f.Data)
	return err
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

package wizard

import (
	"strconv"
	"strings"
)

// Fields maps form field names to values. Values are strings, bools,
// string slices, File, or the entry types below.
type Fields map[string]any

func (f Fields) String(key string) string {
	v, _ := f[key].(string)
	return v
}

func (f Fields) Bool(key string) bool {
	v, _ := f[key].(bool)
	return v
}

func (f Fields) Strings(key string) []string {
	v, _ := f[key].([]string)
	return v
}

// File is an uploaded file held in memory until submission.
type File struct {
	Name string
	Data []byte
}

func (f Fields) File(key string) (File, bool) {
	v, ok := f[key].(File)
	return v, ok && len(v.Data) > 0
}

type Experience struct {
	Title     string `json:"title"`
	Company   string `json:"company"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date,omitempty"`
	Ongoing   bool   `json:"ongoing"`
}

type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	StartYear   string `json:"start_year,omitempty"`
	EndYear     string `json:"end_year,omitempty"`
}

type Portfolio struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

// prefixed copies entry errors under "<list>.<index>.<field>" keys.
func prefixed(dst map[string]string, list string, index int, errs map[string]string) {
	for k, v := range errs {
		dst[list+"."+strconv.Itoa(index)+"."+k] = v
	}
}

func required(fields Fields, key, msg string, errs map[string]string) {
	if strings.TrimSpace(fields.String(key)) == "" {
		errs[key] = msg
	}
}

func setIf(errs map[string]string, key, msg string) {
	if msg != "" {
		errs[key] = msg
	}
}

func nilIfEmpty(errs map[string]string) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	return errs
}

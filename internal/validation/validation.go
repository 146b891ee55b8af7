// Package validation holds the field validators used by the forms.
// Every validator is pure: it maps a raw value to an error message,
// with the empty string (or a nil map) meaning the value is valid.
package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	emailRegex       = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nameRegex        = regexp.MustCompile(`^[A-Za-z0-9]+( [A-Za-z0-9]+)*$`)
	descriptionRegex = regexp.MustCompile(`^[A-Za-z0-9.,;:'"!?()\-]+( [A-Za-z0-9.,;:'"!?()\-]+)*$`)
	countryRegex     = regexp.MustCompile(`^[A-Za-z]+( [A-Za-z]+)*$`)
)

// Bounds is an inclusive length range in characters.
type Bounds struct {
	Min int
	Max int
}

var (
	DefaultBounds = Bounds{Min: 3, Max: 255}
	cityBounds    = Bounds{Min: 2, Max: 64}
)

const (
	DefaultMinAge = 16
	DefaultMaxAge = 60
)

func (b Bounds) orDefault() Bounds {
	if b.Min == 0 && b.Max == 0 {
		return DefaultBounds
	}
	return b
}

func Email(email string) string {
	if email == "" {
		return "Email is required"
	}
	if !emailRegex.MatchString(email) {
		return "Enter a valid email address"
	}
	return ""
}

func Password(password string) string {
	if password == "" {
		return "Password is required"
	}
	if utf8.RuneCountInString(password) < 8 {
		return "Password must be at least 8 characters"
	}
	return ""
}

func Terms(agreed bool) string {
	if !agreed {
		return "You must agree to the terms"
	}
	return ""
}

func OTP(otp string) string {
	if utf8.RuneCountInString(otp) != 6 {
		return "Enter a valid 6-digit OTP"
	}
	return ""
}

// Name validates a required name-like value: letters and digits separated
// by single spaces. Zero bounds mean DefaultBounds.
func Name(value, field string, b Bounds) string {
	return checkString(value, field, b.orDefault(), nameRegex,
		"must contain only letters, numbers and single spaces")
}

// Description is Name with common punctuation allowed.
func Description(value, field string, b Bounds) string {
	return checkString(value, field, b.orDefault(), descriptionRegex,
		"contains unsupported characters")
}

func checkString(value, field string, b Bounds, re *regexp.Regexp, charsetMsg string) string {
	label := capitalize(field)
	v := strings.TrimSpace(value)
	if v == "" {
		return label + " is required."
	}
	n := utf8.RuneCountInString(v)
	if n < b.Min {
		return fmt.Sprintf("%s must be at least %d characters long.", label, b.Min)
	}
	if n > b.Max {
		return fmt.Sprintf("%s must be at most %d characters long.", label, b.Max)
	}
	if !re.MatchString(v) {
		return fmt.Sprintf("%s %s.", label, charsetMsg)
	}
	return ""
}

// Age validates an integer age within [min, max]. Zero bounds mean 16–60.
func Age(value string, min, max int) string {
	if min == 0 && max == 0 {
		min, max = DefaultMinAge, DefaultMaxAge
	}
	age, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return "Age must be a valid number."
	}
	if age < min || age > max {
		return fmt.Sprintf("Age must be between %d and %d years old.", min, max)
	}
	return ""
}

func City(value string) string {
	return Name(value, "city", cityBounds)
}

// Country validates against allowed when it is non-empty. Membership is
// case-sensitive.
func Country(value string, allowed []string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return "Country is required."
	}
	if len(allowed) > 0 && !contains(allowed, v) {
		return "Select a valid country."
	}
	if !countryRegex.MatchString(v) {
		return "Country must contain only letters and spaces."
	}
	return ""
}

// OptionalString accepts the empty value and otherwise applies the Name
// rule, or the Description rule when relaxed is set.
func OptionalString(value, field string, b Bounds, relaxed bool) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	if relaxed {
		return Description(value, field, b)
	}
	return Name(value, field, b)
}

// URL accepts the empty value, otherwise requires an absolute URL.
func URL(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return ""
	}
	u, err := url.Parse(v)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "Enter a valid URL."
	}
	return ""
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	if s == "" {
		return "Field"
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

package validation

import (
	"reflect"
	"strings"
	"testing"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Empty", "", "Email is required"},
		{"No TLD", "a@b", "Enter a valid email address"},
		{"Space", "a b@c.com", "Enter a valid email address"},
		{"Valid", "a@b.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Email(tt.input); got != tt.expected {
				t.Errorf("Email(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestPassword(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Empty", "", "Password is required"},
		{"Short", "short", "Password must be at least 8 characters"},
		{"Exactly eight", "12345678", ""},
		{"Long", "longenough1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Password(tt.input); got != tt.expected {
				t.Errorf("Password(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTermsAndOTP(t *testing.T) {
	if Terms(false) == "" {
		t.Error("Terms(false) should fail")
	}
	if Terms(true) != "" {
		t.Error("Terms(true) should pass")
	}

	for _, otp := range []string{"", "12345", "1234567"} {
		if OTP(otp) == "" {
			t.Errorf("OTP(%q) should fail", otp)
		}
	}
	if OTP("123456") != "" {
		t.Error("OTP(123456) should pass")
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		bounds  Bounds
		wantErr bool
	}{
		{"Valid", "Jane Doe", Bounds{}, false},
		{"Digits", "Studio 54", Bounds{}, false},
		{"Empty", "  ", Bounds{}, true},
		{"Too short", "Jo", Bounds{}, true},
		{"Custom bounds", "Jo", Bounds{Min: 2, Max: 10}, false},
		{"Too long", "abcdefghijk", Bounds{Min: 2, Max: 10}, true},
		{"Punctuation", "Jane, Doe", Bounds{}, true},
		{"Double space", "Jane  Doe", Bounds{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Name(tt.input, "full name", tt.bounds); (got != "") != tt.wantErr {
				t.Errorf("Name(%q) = %q, wantErr %v", tt.input, got, tt.wantErr)
			}
		})
	}

	if got := Name("", "full name", Bounds{}); got != "Full name is required." {
		t.Errorf("unexpected required message %q", got)
	}
}

func TestDescription(t *testing.T) {
	if got := Description("Hello, world! (really)", "bio", Bounds{}); got != "" {
		t.Errorf("Description rejected punctuation: %q", got)
	}
	if got := Description("price <b>", "bio", Bounds{}); got == "" {
		t.Error("Description accepted markup")
	}
}

func TestAge(t *testing.T) {
	tests := []struct {
		input   string
		min     int
		max     int
		wantErr bool
	}{
		{"16", 0, 0, false},
		{"60", 0, 0, false},
		{"15", 0, 0, true},
		{"61", 0, 0, true},
		{"abc", 0, 0, true},
		{"70", 16, 100, false},
	}

	for _, tt := range tests {
		if got := Age(tt.input, tt.min, tt.max); (got != "") != tt.wantErr {
			t.Errorf("Age(%q, %d, %d) = %q, wantErr %v", tt.input, tt.min, tt.max, got, tt.wantErr)
		}
	}
}

func TestCityAndCountry(t *testing.T) {
	if City("Pune") != "" {
		t.Error("City(Pune) should pass")
	}
	if City("P") == "" {
		t.Error("City(P) should fail")
	}
	if City(strings.Repeat("a", 65)) == "" {
		t.Error("City should reject 65 characters")
	}

	if Country("India", Countries) != "" {
		t.Error("Country(India) should pass")
	}
	if Country("india", Countries) == "" {
		t.Error("Country membership must be case-sensitive")
	}
	if Country("Atlantis", nil) != "" {
		t.Error("Country without allow-list should only check charset")
	}
	if Country("Atl4ntis", nil) == "" {
		t.Error("Country should reject digits")
	}
	if Country("", nil) != "Country is required." {
		t.Error("Country should be required")
	}
}

func TestOptionalString(t *testing.T) {
	if OptionalString("", "tagline", Bounds{}, false) != "" {
		t.Error("empty optional string should pass")
	}
	if OptionalString("Hi!", "tagline", Bounds{}, false) == "" {
		t.Error("strict optional string should reject punctuation")
	}
	if OptionalString("Hi there!", "tagline", Bounds{}, true) != "" {
		t.Error("relaxed optional string should allow punctuation")
	}
}

func TestOptionalDateRange(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		ongoing  bool
		wantKeys []string
	}{
		{"Valid", "2020-01-01", "2021-01-01", false, nil},
		{"Ongoing", "2020-01-01", "", true, nil},
		{"Missing start", "", "2021-01-01", false, []string{"start_date"}},
		{"Missing end", "2020-01-01", "", false, []string{"end_date"}},
		{"End before start", "2021-01-01", "2020-01-01", false, []string{"end_date"}},
		{"Garbage", "yesterday", "", true, []string{"start_date"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OptionalDateRange(tt.start, tt.end, tt.ongoing)
			if len(got) != len(tt.wantKeys) {
				t.Fatalf("got %v, want keys %v", got, tt.wantKeys)
			}
			for _, k := range tt.wantKeys {
				if _, ok := got[k]; !ok {
					t.Errorf("missing key %s in %v", k, got)
				}
			}
		})
	}
}

func TestOptionalYearRange(t *testing.T) {
	if got := OptionalYearRange("", ""); got != nil {
		t.Errorf("OptionalYearRange(\"\", \"\") = %v, want nil", got)
	}

	got := OptionalYearRange("2020", "2018")
	if !strings.Contains(got["end_year"], "End year cannot precede start year") {
		t.Errorf("unexpected result %v", got)
	}

	if got := OptionalYearRange("2018", "2020"); got != nil {
		t.Errorf("valid range rejected: %v", got)
	}
	if got := OptionalYearRange("2018", ""); got["end_year"] == "" {
		t.Errorf("missing end year accepted: %v", got)
	}
}

func TestLanguageEntry(t *testing.T) {
	if got := LanguageEntry(Language{Name: "English", Proficiency: "Native"}); got != nil {
		t.Errorf("valid language rejected: %v", got)
	}
	if got := LanguageEntry(Language{Name: "english", Proficiency: "native"}); got != nil {
		t.Errorf("case-insensitive match failed: %v", got)
	}

	got := LanguageEntry(Language{Name: "Klingon", Proficiency: "Native"})
	want := map[string]string{"name": "Invalid language selected."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LanguageEntry(Klingon) = %v, want %v", got, want)
	}
}

func TestURL(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"", false},
		{"https://github.com/jane", false},
		{"github.com/jane", true},
		{"http://", true},
		{"::::", true},
	}
	for _, tt := range tests {
		if got := URL(tt.input); (got != "") != tt.wantErr {
			t.Errorf("URL(%q) = %q, wantErr %v", tt.input, got, tt.wantErr)
		}
	}
}

func TestDisposableEmailAndSkills(t *testing.T) {
	if DisposableEmail("bot@Mailinator.com") == "" {
		t.Error("disposable domain accepted")
	}
	if DisposableEmail("jane@example.com") != "" {
		t.Error("regular domain rejected")
	}
	if Skills(nil) == "" {
		t.Error("empty skills accepted")
	}
	if Skills([]string{"Go"}) != "" {
		t.Error("non-empty skills rejected")
	}
}

func TestPaymentRequest(t *testing.T) {
	if got := PaymentRequest("100", "Logo design milestone", "upi"); got != nil {
		t.Errorf("valid payment rejected: %v", got)
	}

	got := PaymentRequest("50000", "short", "cash")
	want := map[string]string{
		"amount":        "Amount cannot exceed 49999.99",
		"description":   "Description must be at least 10 characters",
		"paymentMethod": "Please select a payment method",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PaymentRequest = %v, want %v", got, want)
	}

	if PaymentAmount("-1") != "Amount must be greater than 0" {
		t.Error("negative amount accepted")
	}
}

package validation

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const dateLayout = "2006-01-02"

var Languages = []string{
	"English", "Spanish", "French", "German", "Italian", "Portuguese", "Russian",
	"Chinese (Mandarin)", "Japanese", "Korean", "Arabic", "Hindi", "Dutch",
}

var Proficiencies = []string{"Beginner", "Intermediate", "Advanced", "Fluent", "Native"}

var Countries = []string{
	"Afghanistan", "Armenia", "Bangladesh", "China", "India", "Indonesia", "Japan",
	"Malaysia", "Nepal", "Pakistan", "Philippines", "Singapore", "South Korea",
	"Sri Lanka", "Thailand", "Turkey", "United Arab Emirates", "Vietnam",
	"Austria", "Belgium", "Denmark", "Finland", "France", "Germany", "Greece",
	"Ireland", "Italy", "Netherlands", "Norway", "Poland", "Portugal", "Spain",
	"Sweden", "Switzerland", "United Kingdom", "Canada", "Mexico", "United States",
	"Argentina", "Brazil", "Chile", "Australia", "New Zealand", "Egypt", "Kenya",
	"Nigeria", "South Africa",
}

var PaymentMethods = []string{"razorpay", "upi", "bank_transfer", "paypal", "stripe"}

var disposableDomains = []string{"mailinator.com", "10minutemail.com", "guerrillamail.com"}

const maxPaymentAmount = 49999.99

// Language is one entry of a freelancer's language list.
type Language struct {
	Name        string `json:"name"`
	Proficiency string `json:"proficiency"`
}

// LanguageEntry checks both fields against the fixed lists, ignoring case.
func LanguageEntry(l Language) map[string]string {
	errs := make(map[string]string)
	if !containsFold(Languages, l.Name) {
		errs["name"] = "Invalid language selected."
	}
	if !containsFold(Proficiencies, l.Proficiency) {
		errs["proficiency"] = "Invalid proficiency level selected."
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// OptionalDateRange validates ISO dates. end may be empty only when the
// entry is ongoing.
func OptionalDateRange(start, end string, ongoing bool) map[string]string {
	errs := make(map[string]string)
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)

	startDate, err := time.Parse(dateLayout, start)
	switch {
	case start == "":
		errs["start_date"] = "Start date is required."
	case err != nil:
		errs["start_date"] = "Start date must be a valid date."
	}

	if end == "" {
		if !ongoing {
			errs["end_date"] = "End date is required unless ongoing."
		}
	} else if endDate, err := time.Parse(dateLayout, end); err != nil {
		errs["end_date"] = "End date must be a valid date."
	} else if _, bad := errs["start_date"]; !bad && endDate.Before(startDate) {
		errs["end_date"] = "End date cannot precede start date."
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// OptionalYearRange accepts two empty values; otherwise both years are
// required and end must not precede start.
func OptionalYearRange(start, end string) map[string]string {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" && end == "" {
		return nil
	}

	errs := make(map[string]string)
	startYear, startErr := parseYear(start)
	endYear, endErr := parseYear(end)
	if startErr != "" {
		errs["start_year"] = startErr
	}
	if endErr != "" {
		errs["end_year"] = endErr
	}
	if len(errs) == 0 && endYear < startYear {
		errs["end_year"] = "End year cannot precede start year."
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func parseYear(s string) (int, string) {
	if s == "" {
		return 0, "Year is required."
	}
	y, err := strconv.Atoi(s)
	if err != nil || len(s) != 4 {
		return 0, "Year must be a four digit number."
	}
	return y, ""
}

// DisposableEmail rejects throwaway mailbox providers.
func DisposableEmail(email string) string {
	e := strings.ToLower(strings.TrimSpace(email))
	for _, d := range disposableDomains {
		if strings.HasSuffix(e, "@"+d) {
			return "Disposable emails are not allowed"
		}
	}
	return ""
}

func Skills(skills []string) string {
	if len(skills) == 0 {
		return "Select at least one skill"
	}
	return ""
}

func PaymentAmount(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return "Amount is required"
	}
	amount, err := strconv.ParseFloat(v, 64)
	if err != nil || amount <= 0 {
		return "Amount must be greater than 0"
	}
	if amount > maxPaymentAmount {
		return "Amount cannot exceed 49999.99"
	}
	return ""
}

func PaymentDescription(value string) string {
	v := strings.TrimSpace(value)
	n := utf8.RuneCountInString(v)
	switch {
	case n == 0:
		return "Description is required"
	case n < 10:
		return "Description must be at least 10 characters"
	case n > 500:
		return "Description cannot exceed 500 characters"
	}
	return ""
}

func PaymentMethod(value string) string {
	if !contains(PaymentMethods, value) {
		return "Please select a payment method"
	}
	return ""
}

// PaymentRequest validates the payment request form as a whole.
func PaymentRequest(amount, description, method string) map[string]string {
	errs := make(map[string]string)
	if msg := PaymentAmount(amount); msg != "" {
		errs["amount"] = msg
	}
	if msg := PaymentDescription(description); msg != "" {
		errs["description"] = msg
	}
	if msg := PaymentMethod(method); msg != "" {
		errs["paymentMethod"] = msg
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func containsFold(list []string, v string) bool {
	v = strings.TrimSpace(v)
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}

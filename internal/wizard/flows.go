package wizard

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"skillconnect/internal/api"
	"skillconnect/internal/models"
	"skillconnect/internal/validation"
)

// maxBio bounds the free text "about" field.
const maxBio = 1000

const (
	FreelancerProfilePath = "/profiles/freelancer/profile/"
	ClientProfilePath     = "/profiles/client/profile/"
)

// SocialNetworks are the keys accepted in the social_links field.
var SocialNetworks = []string{"linkedin", "github", "behance", "dribbble"}

// Registrar creates accounts.
type Registrar interface {
	Register(ctx context.Context, req api.RegisterRequest) error
}

// Verifier confirms the one-time registration code.
type Verifier interface {
	VerifyOTP(ctx context.Context, email, otp string) (models.Session, error)
}

// RegistrationFlow is role selection, account details, then the one-time
// code. The account is created when leaving the account step; submission
// verifies the code.
func RegistrationFlow(reg Registrar) Flow {
	return Flow{
		Name: "registration",
		Steps: []Step{
			{
				Title:  "Role",
				Fields: []string{"role"},
				Validate: func(f Fields) map[string]string {
					if !models.Role(f.String("role")).Valid() {
						return map[string]string{"role": "Please select a role"}
					}
					return nil
				},
			},
			{
				Title:  "Account",
				Fields: []string{"email", "password", "phone", "agree_terms"},
				Validate: func(f Fields) map[string]string {
					errs := make(map[string]string)
					email := f.String("email")
					if msg := validation.Email(email); msg != "" {
						errs["email"] = msg
					} else {
						setIf(errs, "email", validation.DisposableEmail(email))
					}
					setIf(errs, "password", validation.Password(f.String("password")))
					setIf(errs, "agree_terms", validation.Terms(f.Bool("agree_terms")))
					return nilIfEmpty(errs)
				},
				Commit: func(ctx context.Context, f Fields) error {
					return reg.Register(ctx, api.RegisterRequest{
						Email:    f.String("email"),
						Password: f.String("password"),
						Role:     models.Role(f.String("role")),
						Phone:    f.String("phone"),
					})
				},
			},
			{
				Title:  "Verify email",
				Fields: []string{"otp"},
				Validate: func(f Fields) map[string]string {
					if msg := validation.OTP(f.String("otp")); msg != "" {
						return map[string]string{"otp": msg}
					}
					return nil
				},
			},
		},
	}
}

// OTPSubmitter finishes registration by verifying the code.
func OTPSubmitter(v Verifier) Submitter {
	return SubmitFunc(func(ctx context.Context, f Fields) error {
		_, err := v.VerifyOTP(ctx, f.String("email"), f.String("otp"))
		return err
	})
}

// FreelancerProfileFlow is the freelancer onboarding. Every step except the
// first may be skipped.
func FreelancerProfileFlow() Flow {
	return Flow{
		Name:      "freelancer-profile",
		Skippable: true,
		Steps: []Step{
			{
				Title:  "Basic Info",
				Fields: []string{"full_name", "location_name", "about", "latitude", "longitude", "profile_picture"},
				Validate: func(f Fields) map[string]string {
					errs := make(map[string]string)
					setIf(errs, "full_name", validation.Name(f.String("full_name"), "full name", validation.Bounds{}))
					setIf(errs, "location_name", validation.Name(f.String("location_name"), "location", validation.Bounds{Min: 2, Max: 64}))
					required(f, "about", "Bio is required", errs)
					if utf8.RuneCountInString(strings.TrimSpace(f.String("about"))) > maxBio {
						errs["about"] = fmt.Sprintf("Bio must be at most %d characters", maxBio)
					}
					return nilIfEmpty(errs)
				},
			},
			{
				Title:  "Professional",
				Fields: []string{"skills", "experiences", "educations", "certifications"},
				Validate: func(f Fields) map[string]string {
					errs := make(map[string]string)
					setIf(errs, "skills", validation.Skills(f.Strings("skills")))
					experiences, _ := f["experiences"].([]Experience)
					for i, e := range experiences {
						entry := validation.OptionalDateRange(e.StartDate, e.EndDate, e.Ongoing)
						if entry == nil {
							entry = make(map[string]string)
						}
						setIf(entry, "title", validation.Name(e.Title, "title", validation.Bounds{}))
						prefixed(errs, "experiences", i, entry)
					}
					educations, _ := f["educations"].([]Education)
					for i, e := range educations {
						entry := validation.OptionalYearRange(e.StartYear, e.EndYear)
						if entry == nil {
							entry = make(map[string]string)
						}
						setIf(entry, "institution", validation.Description(e.Institution, "institution", validation.Bounds{}))
						prefixed(errs, "educations", i, entry)
					}
					return nilIfEmpty(errs)
				},
			},
			{
				Title:  "Languages",
				Fields: []string{"languages"},
				Validate: func(f Fields) map[string]string {
					errs := make(map[string]string)
					languages, _ := f["languages"].([]validation.Language)
					for i, l := range languages {
						prefixed(errs, "languages", i, validation.LanguageEntry(l))
					}
					return nilIfEmpty(errs)
				},
			},
			{
				Title:  "Portfolio",
				Fields: []string{"portfolios"},
				Validate: func(f Fields) map[string]string {
					errs := make(map[string]string)
					portfolios, _ := f["portfolios"].([]Portfolio)
					for i, p := range portfolios {
						entry := make(map[string]string)
						setIf(entry, "title", validation.Description(p.Title, "title", validation.Bounds{}))
						setIf(entry, "description", validation.OptionalString(p.Description, "description", validation.Bounds{}, true))
						setIf(entry, "url", validation.URL(p.URL))
						prefixed(errs, "portfolios", i, entry)
					}
					return nilIfEmpty(errs)
				},
			},
			{
				Title:  "Social Links",
				Fields: []string{"social_links"},
				Validate: func(f Fields) map[string]string {
					errs := make(map[string]string)
					links, _ := f["social_links"].(map[string]string)
					for _, network := range SocialNetworks {
						setIf(errs, "social_links."+network, validation.URL(links[network]))
					}
					return nilIfEmpty(errs)
				},
			},
			{
				Title:  "Verification",
				Fields: []string{"email_verified", "phone_verified", "id_verified", "video_verified"},
			},
			{
				Title:  "Availability",
				Fields: []string{"is_available"},
			},
		},
	}
}

// ClientProfileFlow is the client onboarding. Steps cannot be skipped.
func ClientProfileFlow() Flow {
	return Flow{
		Name: "client-profile",
		Steps: []Step{
			{
				Title:  "Account Type",
				Fields: []string{"account_type"},
				Validate: func(f Fields) map[string]string {
					switch f.String("account_type") {
					case "personal", "business":
						return nil
					}
					return map[string]string{"account_type": "Please select account type"}
				},
			},
			{
				Title:  "Business Info",
				Fields: []string{"first_name", "last_name", "company_name", "industry", "company_size", "website", "location", "timezone", "description"},
				Validate: func(f Fields) map[string]string {
					errs := make(map[string]string)
					required(f, "first_name", "First name is required", errs)
					required(f, "last_name", "Last name is required", errs)
					if f.String("account_type") == "business" {
						required(f, "company_name", "Company name is required for business accounts", errs)
					}
					required(f, "location", "Location is required", errs)
					setIf(errs, "website", validation.URL(f.String("website")))
					return nilIfEmpty(errs)
				},
			},
			{
				Title:  "Project Needs",
				Fields: []string{"project_types", "budget_range", "project_frequency", "preferred_communication", "business_goals"},
				Validate: func(f Fields) map[string]string {
					errs := make(map[string]string)
					if len(f.Strings("project_types")) == 0 {
						errs["project_types"] = "Select at least one project type"
					}
					required(f, "budget_range", "Budget range is required", errs)
					return nilIfEmpty(errs)
				},
			},
			{
				Title:  "Budget & Payment",
				Fields: []string{"payment_method", "monthly_budget", "project_budget", "payment_timing"},
				Validate: func(f Fields) map[string]string {
					errs := make(map[string]string)
					required(f, "payment_method", "Payment method is required", errs)
					return nilIfEmpty(errs)
				},
			},
		},
	}
}

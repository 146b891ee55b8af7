// Command checkfield runs one of the form validators on a value and prints
// the message a form would show.
//
//	checkfield -field email jane@example
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"skillconnect/internal/validation"
)

type validator func(value string) string

var validators = map[string]validator{
	"email": func(v string) string {
		if msg := validation.Email(v); msg != "" {
			return msg
		}
		return validation.DisposableEmail(v)
	},
	"password":            validation.Password,
	"otp":                 validation.OTP,
	"name":                func(v string) string { return validation.Name(v, "name", validation.Bounds{}) },
	"description":         func(v string) string { return validation.Description(v, "description", validation.Bounds{}) },
	"age":                 func(v string) string { return validation.Age(v, 0, 0) },
	"city":                validation.City,
	"country":             func(v string) string { return validation.Country(v, validation.Countries) },
	"url":                 validation.URL,
	"skills":              func(v string) string { return validation.Skills(splitList(v)) },
	"payment-amount":      validation.PaymentAmount,
	"payment-description": validation.PaymentDescription,
	"payment-method":      validation.PaymentMethod,
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func fieldNames() []string {
	names := make([]string, 0, len(validators))
	for k := range validators {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// run returns the process exit code: 0 valid, 1 invalid, 2 bad usage.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("checkfield", flag.ContinueOnError)
	fs.SetOutput(stderr)
	field := fs.String("field", "", "Validator to run: "+strings.Join(fieldNames(), ", "))
	if err := fs.Parse(args); err != nil {
		return 2
	}

	check, ok := validators[*field]
	if !ok || fs.NArg() > 1 {
		fs.Usage()
		return 2
	}

	if msg := check(fs.Arg(0)); msg != "" {
		fmt.Fprintln(stdout, msg)
		return 1
	}
	fmt.Fprintln(stdout, "ok")
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

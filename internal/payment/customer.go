package payment

import (
	"strings"
	"unicode"
)

const maxNameLength = 50

// customer is the identity sent to the gateway.
type customer struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

func normalizeCustomer(name, phone, email, countryCode, emailDomain string) customer {
	first, last := splitName(name)
	digits := digitsOnly(phone)
	if email == "" {
		email = digits + "@" + emailDomain
	}
	return customer{
		FirstName: truncate(first, maxNameLength),
		LastName:  truncate(last, maxNameLength),
		Email:     email,
		Phone:     normalizePhone(digits, countryCode),
	}
}

// splitName uses the first token as the first name and the rest as the last
// name. A single-token name is reused for both.
func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], parts[0]
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizePhone expects digits only. Numbers already carrying the country
// code are kept; otherwise one leading trunk 0 is replaced by the code.
func normalizePhone(digits, countryCode string) string {
	if strings.HasPrefix(digits, countryCode) {
		return digits
	}
	return countryCode + strings.TrimPrefix(digits, "0")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// describe builds the checkout description from the service and time, keeping
// only ASCII letters, digits, whitespace and "-_." from the service name.
func describe(service, clock string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r)):
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return -1
		}
	}, service)
	return clean + " " + strings.Replace(clock, ":", ".", 1)
}

package validator

import (
	"fmt"
	"net/mail"
	"strings"
)

// Required validates that a string is not empty after trimming whitespace.
func Required(field, value string) Rule {
	return Rule{
		Check: func() bool {
			return strings.TrimSpace(value) != ""
		},
		Error: ValidationError{
			Field:   field,
			Message: "field is required",
		},
	}
}

// MinLen validates that a string is at least min bytes long.
func MinLen(field, value string, min int) Rule {
	return Rule{
		Check: func() bool {
			return len(value) >= min
		},
		Error: ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be at least %d characters long", min),
		},
	}
}

// ValidEmail validates that a string parses as an address and has a dotted
// domain, which is the shape web signup forms expect.
func ValidEmail(field, value string) Rule {
	return Rule{
		Check: func() bool {
			value = strings.TrimSpace(value)
			if value == "" {
				return false
			}
			addr, err := mail.ParseAddress(value)
			if err != nil {
				return false
			}
			parts := strings.Split(addr.Address, "@")
			if len(parts) != 2 || parts[0] == "" {
				return false
			}
			domain := parts[1]
			if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
				return false
			}
			return true
		},
		Error: ValidationError{
			Field:   field,
			Message: "must be a valid email address",
		},
	}
}

package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var zipRegex = regexp.MustCompile(`^[0-9]{5}(-[0-9]{4})?$`)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < 8 {
		return ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	return nil
}

// ValidateName checks if a name is valid
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if len(name) < 2 {
		return ValidationError{Field: "name", Message: "name must be at least 2 characters"}
	}
	return nil
}

// ValidateZipCode checks a US-style ZIP code; empty is allowed (optional field)
func ValidateZipCode(zip string) error {
	zip = strings.TrimSpace(zip)
	if zip == "" {
		return nil
	}
	if !zipRegex.MatchString(zip) {
		return ValidationError{Field: "zip_code", Message: "invalid ZIP code format"}
	}
	return nil
}

// ValidateCoordinates checks a latitude/longitude pair is within range
func ValidateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return ValidationError{Field: "latitude", Message: "latitude must be between -90 and 90"}
	}
	if lon < -180 || lon > 180 {
		return ValidationError{Field: "longitude", Message: "longitude must be between -180 and 180"}
	}
	return nil
}

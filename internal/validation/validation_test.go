package validation

import "testing"

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid email", "parent@example.com", false},
		{"valid with plus", "parent+tag@example.com", false},
		{"empty", "", true},
		{"missing at", "parentexample.com", true},
		{"missing domain", "parent@", true},
		{"missing tld", "parent@example", true},
		{"whitespace only", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid password", "supersecret", false},
		{"exactly 8 chars", "12345678", false},
		{"too short", "1234567", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
			}
		})
	}
}

func TestValidateZipCode(t *testing.T) {
	tests := []struct {
		name    string
		zip     string
		wantErr bool
	}{
		{"empty is optional", "", false},
		{"five digits", "94105", false},
		{"zip plus four", "94105-1234", false},
		{"too short", "941", true},
		{"letters", "ABCDE", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateZipCode(tt.zip)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateZipCode(%q) error = %v, wantErr %v", tt.zip, err, tt.wantErr)
			}
		})
	}
}

func TestValidateCoordinates(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		wantErr  bool
	}{
		{"origin", 0, 0, false},
		{"valid city", 43.6532, -79.3832, false},
		{"north pole", 90, 0, false},
		{"latitude too high", 90.1, 0, true},
		{"latitude too low", -90.1, 0, true},
		{"longitude too high", 0, 180.5, true},
		{"longitude too low", 0, -181, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCoordinates(tt.lat, tt.lon)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCoordinates(%v, %v) error = %v, wantErr %v", tt.lat, tt.lon, err, tt.wantErr)
			}
		})
	}
}

package credentials

import (
	"regexp"
	"testing"
)

var passwordPattern = regexp.MustCompile(`^[A-Z][a-z]+-[A-Z][a-z]+-[0-9]{4}[!@#$%*?]$`)

func TestGenerateTemporaryPassword(t *testing.T) {
	tests := []struct {
		name       string
		iterations int
	}{
		{name: "matches the expected shape", iterations: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < tt.iterations; i++ {
				password, err := GenerateTemporaryPassword()
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !passwordPattern.MatchString(password) {
					t.Errorf("password %q does not match %s", password, passwordPattern)
				}
				if len(password) < 8 {
					t.Errorf("password %q shorter than 8 characters", password)
				}
			}
		})
	}
}

func TestCapitalize(t *testing.T) {
	if got := capitalize("otter"); got != "Otter" {
		t.Errorf("capitalize(otter) = %q", got)
	}
	if got := capitalize(""); got != "" {
		t.Errorf("capitalize(\"\") = %q", got)
	}
}

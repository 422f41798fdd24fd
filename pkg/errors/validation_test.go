package errors

import (
	"testing"
)

func TestValidateVariantPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid ascii", "A/1.svg", false},
		{"valid cjk", "永/3.svg", false},
		{"valid nested", "a/b/c.svg", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 600)), true},
		{"absolute", "/etc/passwd.svg", true},
		{"path traversal", "A/../../secret.svg", true},
		{"backslash", "A\\1.svg", true},
		{"null byte", "A/1\x00.svg", true},
		{"control char", "A/\x01.svg", true},
		{"not svg", "A/1.png", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVariantPath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateVariantPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidateVariantPath(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidPath)
			}
		})
	}
}

func TestValidateCharacter(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    rune
		wantErr bool
	}{
		{"ascii", "A", 'A', false},
		{"cjk", "永", '永', false},
		{"full-width space", "　", '　', false},

		{"empty", "", 0, true},
		{"two characters", "ab", 0, true},
		{"invalid utf8", "\xff", 0, true},
		{"newline", "\n", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateCharacter(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateCharacter(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ValidateCharacter(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"only spaces", "   ", ""},
		{"leading and trailing", "  Amor Animal  ", "Amor Animal"},
		{"internal runs", "Amor   Animal \t SP", "Amor Animal SP"},
		{"tabs and newlines", "Patinhas\ndo\tBem", "Patinhas do Bem"},
		{"already clean", "Resgate Feliz", "Resgate Feliz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Contato@AmorAnimal.ORG "); got != "contato@amoranimal.org" {
		t.Errorf("NormalizeEmail = %q", got)
	}
}

func TestDigitsOnly(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"12.345.678/0001-23", "12345678000123"},
		{"(11) 98765-4321", "11987654321"},
		{"01234-567", "01234567"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := DigitsOnly(tt.input); got != tt.want {
			t.Errorf("DigitsOnly(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

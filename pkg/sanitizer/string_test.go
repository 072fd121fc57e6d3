package sanitizer

import (
	"reflect"
	"testing"
)

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trim spaces", "  Seaside Loft  ", "Seaside Loft"},
		{"multiple spaces between words", "Seaside    Loft", "Seaside Loft"},
		{"tabs and newlines", "Seaside\t\nLoft", "Seaside Loft"},
		{"empty string", "", ""},
		{"only whitespace", "   \t\n  ", ""},
		{"preserve special characters", " Café & Spa™ ", "Café & Spa™"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeLocation(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Tel Aviv ", "tel aviv"},
		{"LISBON", "lisbon"},
		{"New   York", "new york"},
	}

	for _, tt := range tests {
		if got := NormalizeLocation(tt.input); got != tt.want {
			t.Errorf("NormalizeLocation(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestEscapeSearchTerm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain term passes through", "lisbon", "lisbon"},
		{"redos pattern is neutralized", "(a+)+b", `\(a\+\)\+b`},
		{"anchors and dots", "^li.bon$", `\^li\.bon\$`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapeSearchTerm(tt.input); got != tt.want {
				t.Errorf("EscapeSearchTerm(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeStringSlice(t *testing.T) {
	got := NormalizeAmenities([]string{" WiFi ", "wifi", "", "Pool", "POOL", "Parking"})
	want := []string{"wifi", "pool", "parking"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeAmenities() = %v, want %v", got, want)
	}
}

package strings

import "testing"

func TestToPascalCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"boolean", "Boolean"},
		{"Schema", "Schema"},
		{"externalDocs", "ExternalDocs"},
		{"info_object", "InfoObject"},
		{"io.example.v30", "IoExampleV30"},
		{"any", "Any"},
		{"*", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ToPascalCase(tt.input); got != tt.expected {
				t.Errorf("ToPascalCase(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

package isbn

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{
			name:     "valid isbn-13 with hyphens",
			input:    "978-0-306-40615-7",
			expected: "9780306406157",
			ok:       true,
		},
		{
			name:     "isbn-10 converted to isbn-13",
			input:    "0-306-40615-2",
			expected: "9780306406157",
			ok:       true,
		},
		{
			name:     "isbn-10 with X check digit",
			input:    "0-8044-2957-x",
			expected: "9780804429573",
			ok:       true,
		},
		{
			name:  "bad isbn-13 checksum",
			input: "9780306406158",
			ok:    false,
		},
		{
			name:  "bad isbn-10 checksum",
			input: "0306406153",
			ok:    false,
		},
		{
			name:  "wrong length",
			input: "12345",
			ok:    false,
		},
		{
			name:  "empty",
			input: "",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := Normalize(tt.input)
			if ok != tt.ok {
				t.Fatalf("Expected ok=%v, got %v", tt.ok, ok)
			}
			if result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestIsValid10RejectsLetterInBody(t *testing.T) {
	if IsValid10("03064X6152") {
		t.Error("Expected ISBN-10 with X outside the check position to be invalid")
	}
}

func TestClean(t *testing.T) {
	if got := Clean(" 0-8044-2957-x "); got != "080442957X" {
		t.Errorf("Expected 080442957X, got %s", got)
	}
}

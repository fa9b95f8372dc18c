package validate

import (
	"strings"
	"testing"
)

func TestName(t *testing.T) {
	tests := []struct {
		name        string
		value       string
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid name",
			value:       "tempmean_2020",
			expectError: false,
		},
		{
			name:        "valid name with dot",
			value:       "tempmean.daily",
			expectError: false,
		},
		{
			name:        "valid mixed case",
			value:       "TempMean",
			expectError: false,
		},
		{
			name:        "empty name",
			value:       "",
			expectError: true,
			errorMsg:    "id is required",
		},
		{
			name:        "leading digit",
			value:       "2020_tempmean",
			expectError: true,
			errorMsg:    "id contains invalid characters; allowed letters, digits, underscore, dot",
		},
		{
			name:        "name with space",
			value:       "temp mean",
			expectError: true,
			errorMsg:    "id contains invalid characters; allowed letters, digits, underscore, dot",
		},
		{
			name:        "name with at sign",
			value:       "tempmean@climate",
			expectError: true,
			errorMsg:    "id contains invalid characters; allowed letters, digits, underscore, dot",
		},
		{
			name:        "name too long",
			value:       "a" + strings.Repeat("b", 100),
			expectError: true,
			errorMsg:    "id exceeds 100 characters",
		},
		{
			name:        "name at max length",
			value:       "a" + strings.Repeat("b", 99),
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Name("id", tt.value)
			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error for name %q", tt.value)
				}
				if tt.errorMsg != "" && err.Error() != tt.errorMsg {
					t.Fatalf("expected error message %q, got %q", tt.errorMsg, err.Error())
				}
			} else if err != nil {
				t.Fatalf("unexpected error for valid name %q: %v", tt.value, err)
			}
		})
	}
}

func TestMaxLen(t *testing.T) {
	long := strings.Repeat("a", 101)
	ok := "short"
	if err := MaxLen("description", nil, 100); err != nil {
		t.Fatalf("nil value: %v", err)
	}
	if err := MaxLen("description", &ok, 100); err != nil {
		t.Fatalf("short value: %v", err)
	}
	if err := MaxLen("description", &long, 100); err == nil {
		t.Fatalf("expected error for long value")
	}
}

func TestNonEmpty(t *testing.T) {
	if err := NonEmpty("kind", ""); err == nil {
		t.Fatalf("expected error for empty value")
	}
	if err := NonEmpty("kind", "raster"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

package logger

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitizeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		maxLength int
		want      string
	}{
		{"empty", "", 100, ""},
		{"plain text", "study math", 100, "study math"},
		{"strips control characters", "tag\x00name\x1b[31m", 100, "tagname[31m"},
		{"keeps whitespace", "line one\nline two\t", 100, "line one\nline two\t"},
		{"truncates", strings.Repeat("a", 10), 5, "aaaaa..."},
		{"zero max falls back", strings.Repeat("b", 10), 0, strings.Repeat("b", 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeString(tt.input, tt.maxLength); got != tt.want {
				t.Errorf("SanitizeString(%q, %d) = %q, want %q", tt.input, tt.maxLength, got, tt.want)
			}
		})
	}
}

func TestSanitizeString_InvalidUTF8(t *testing.T) {
	t.Parallel()

	got := SanitizeString("task\xff\xfetext", 100)
	if got != "tasktext" {
		t.Errorf("SanitizeString() = %q, want invalid bytes dropped", got)
	}
}

func TestSanitizePath(t *testing.T) {
	t.Parallel()

	long := "/api/v1/tasks/" + strings.Repeat("x", MaxPathLength)
	got := SanitizePath(long)
	if len(got) != MaxPathLength+3 {
		t.Errorf("len = %d, want truncation to %d plus ellipsis", len(got), MaxPathLength)
	}
	if !strings.HasSuffix(got, "...") {
		t.Error("Expected truncated path to end with ellipsis")
	}
	if SanitizePath("") != "" {
		t.Error("Empty path should stay empty")
	}
}

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	if SanitizeError(nil) != "" {
		t.Error("Nil error should produce an empty string")
	}

	err := errors.New("failed to store task \x00\"evil\ntext\"")
	got := SanitizeError(err)
	if strings.ContainsRune(got, 0) {
		t.Errorf("SanitizeError() = %q, control characters should be stripped", got)
	}
	if !strings.Contains(got, "failed to store task") {
		t.Errorf("SanitizeError() = %q, message should survive", got)
	}
}

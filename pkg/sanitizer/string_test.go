package sanitizer

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeFreeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "trim spaces",
			input: "  Venue double booked  ",
			want:  "Venue double booked",
		},
		{
			name:  "collapse inner whitespace",
			input: "Venue    double\t\nbooked",
			want:  "Venue double booked",
		},
		{
			name:  "strip control characters",
			input: "Venue\x00 closed\x07",
			want:  "Venue closed",
		},
		{
			name:  "only whitespace",
			input: "   \t\n  ",
			want:  "",
		},
		{
			name:  "preserve punctuation and unicode",
			input: " Foundation Day – Ceremony™ ",
			want:  "Foundation Day – Ceremony™",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeFreeText(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeFreeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := SanitizeFreeText(got); again != got {
				t.Errorf("SanitizeFreeText is not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestSanitizeFreeText_Truncates(t *testing.T) {
	got := SanitizeFreeText(strings.Repeat("ä", MaxFreeTextLength+50))
	if n := utf8.RuneCountInString(got); n != MaxFreeTextLength {
		t.Errorf("expected %d runes, got %d", MaxFreeTextLength, n)
	}
}

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{" OVAL-2025-001 ", "OVAL-2025-001"},
		{"GYM - 2025 - 014", "GYM-2025-014"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := SanitizeIdentifier(tt.input); got != tt.want {
			t.Errorf("SanitizeIdentifier(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSanitizeReceiptNumber_KeepsInnerCharacters(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{" 1234567 ", "1234567"},
		{"123-4567", "123-4567"},
		{"123 4567", "123 4567"},
	}

	for _, tt := range tests {
		if got := SanitizeReceiptNumber(tt.input); got != tt.want {
			t.Errorf("SanitizeReceiptNumber(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"single word", "gym", "gym"},
		{"mixed whitespace", " a \t b\n\nc ", "a b c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeSlice(t *testing.T) {
	got := SanitizeSlice([]string{" admin ", "staff", "admin", "", "  "}, TrimAndNormalize)
	want := []string{"admin", "staff"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SanitizeSlice = %v, want %v", got, want)
	}

	if got := SanitizeSlice(nil, TrimAndNormalize); len(got) != 0 || got == nil {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

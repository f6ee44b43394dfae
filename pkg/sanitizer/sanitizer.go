package sanitizer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const MaxFreeTextLength = 1000

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

func truncate(limit int) Strategy {
	return func(s string) string {
		if utf8.RuneCountInString(s) <= limit {
			return s
		}
		return strings.TrimSpace(string([]rune(s)[:limit]))
	}
}

// SanitizeFreeText cleans reasons and remarks.
func SanitizeFreeText(input string) string {
	p := Pipeline{
		stripControl,
		TrimAndNormalize,
		truncate(MaxFreeTextLength),
	}
	return p.Apply(input)
}

// SanitizeIdentifier cleans booking and requester ids, e.g. " OVAL-2025-001 ".
func SanitizeIdentifier(input string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return -1
		}
		return r
	}, input)
}

func SanitizeReceiptNumber(input string) string {
	return strings.TrimSpace(input)
}

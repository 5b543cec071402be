// Package redact masks personal data in transcripts before they reach logs.
package redact

import (
	"regexp"
	"strings"
	"sync/atomic"
)

var enabled atomic.Bool

const digitWord = `(?:zero|oh|one|two|three|four|five|six|seven|eight|nine)`

// Recognizers emit numbers either as digits or as words depending on
// formatting options, so both forms are covered.
var (
	emailRe = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)
	phoneRe = regexp.MustCompile(`\+?\d[\d\s\-]{7,}\d\b`)
	// Four or more digits: PINs, one-time codes, card fragments.
	digitsRe = regexp.MustCompile(`\b\d(?:[\s\-]?\d){3,}\b`)
	// Four or more digit words in a row, e.g. "four two four two".
	spokenRe = regexp.MustCompile(`(?i)\b` + digitWord + `(?:[\s,\-]+` + digitWord + `){3,}\b`)
)

// SetEnabled toggles PII redaction.
func SetEnabled(v bool) {
	enabled.Store(v)
}

func Enabled() bool {
	return enabled.Load()
}

// Text masks emails, phone numbers and digit sequences when enabled.
func Text(in string) string {
	if !enabled.Load() || strings.TrimSpace(in) == "" {
		return in
	}
	out := emailRe.ReplaceAllString(in, "[REDACTED_EMAIL]")
	out = phoneRe.ReplaceAllString(out, "[REDACTED_PHONE]")
	out = digitsRe.ReplaceAllString(out, "[REDACTED_DIGITS]")
	out = spokenRe.ReplaceAllString(out, "[REDACTED_DIGITS]")
	return out
}

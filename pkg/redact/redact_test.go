package redact

import (
	"strings"
	"testing"
)

func TestRedactDisabled(t *testing.T) {
	SetEnabled(false)
	in := "my code is 4821 and my email is a@b.com"
	if got := Text(in); got != in {
		t.Fatalf("expected no redaction, got %q", got)
	}
}

func TestRedactTranscripts(t *testing.T) {
	SetEnabled(true)
	defer SetEnabled(false)

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"email", "send it to jane.doe@example.com please", "send it to [REDACTED_EMAIL] please"},
		{"phone", "call me on +62 812 3456 7890 tomorrow", "call me on [REDACTED_PHONE] tomorrow"},
		{"otp digits", "the code is 4821", "the code is [REDACTED_DIGITS]"},
		{"card fragment", "card ending in 4242", "card ending in [REDACTED_DIGITS]"},
		{"spoken digits", "my pin is four two Four two okay", "my pin is [REDACTED_DIGITS] okay"},
		{"spoken with commas", "it's one, oh, nine, eight", "it's [REDACTED_DIGITS]"},
		{"years look like codes", "I have two or three questions about 2024", "I have two or three questions about [REDACTED_DIGITS]"},
		{"ordinary text", "what are your skills", "what are your skills"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Text(tc.in); got != tc.want {
				t.Fatalf("Text(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestThreeSpokenDigitsKept(t *testing.T) {
	SetEnabled(true)
	defer SetEnabled(false)
	in := "one two three go"
	if got := Text(in); strings.Contains(got, "REDACTED") {
		t.Fatalf("expected three digit words to be kept, got %q", got)
	}
}

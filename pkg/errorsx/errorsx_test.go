package errorsx

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapAndReason(t *testing.T) {
	err := Wrap(assertErr{}, ReasonBackendTransport)
	if Reason(err) != ReasonBackendTransport {
		t.Fatalf("expected reason %s, got %s", ReasonBackendTransport, Reason(err))
	}
	if !HasReason(err, ReasonBackendTransport) {
		t.Fatalf("expected HasReason true")
	}
}

func TestWrapPreservesExistingReason(t *testing.T) {
	first := Wrap(assertErr{}, ReasonCaptureOpen)
	second := Wrap(first, ReasonSpeechDial)
	if Reason(second) != ReasonCaptureOpen {
		t.Fatalf("expected reason preserved, got %s", Reason(second))
	}
}

func TestCaptureErrorFromCode(t *testing.T) {
	cases := map[string]CaptureKind{
		"not-allowed":       CapturePermissionDenied,
		"permission-denied": CapturePermissionDenied,
		"no-speech":         CaptureNoSpeech,
		"network":           CaptureOther,
		"":                  CaptureOther,
	}
	for code, want := range cases {
		if got := CaptureErrorFromCode(code, nil).Kind; got != want {
			t.Fatalf("code %q: expected %s, got %s", code, want, got)
		}
	}
}

func TestAsHelpersFindWrappedTaxonomy(t *testing.T) {
	inner := &NetworkError{Kind: NetworkStatus, StatusCode: 503}
	wrapped := fmt.Errorf("ask: %w", Wrap(inner, ReasonBackendStatus))
	ne := AsNetwork(wrapped)
	if ne != inner {
		t.Fatalf("expected wrapped network error to be found")
	}
	if ne.Error() != "HTTP error! status: 503" {
		t.Fatalf("unexpected message %q", ne.Error())
	}

	plain := AsNetwork(errors.New("dial tcp: refused"))
	if plain.Kind != NetworkTransport {
		t.Fatalf("expected transport kind for unknown error")
	}

	se := AsSynthesis(assertErr{})
	if se.Kind != SynthesisPlaybackFailed {
		t.Fatalf("expected playback failed for unknown error")
	}

	ce := AsCapture(Wrap(assertErr{}, ReasonCaptureConnect))
	if ce.Kind != CaptureOther || ce.Code != string(ReasonCaptureConnect) {
		t.Fatalf("unexpected capture classification %+v", ce)
	}
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }

package errorsx

import (
	"errors"
	"fmt"
	"strings"
)

// CaptureKind classifies a failed capture attempt.
type CaptureKind int

const (
	CaptureOther CaptureKind = iota
	CapturePermissionDenied
	CaptureNoSpeech
)

func (k CaptureKind) String() string {
	switch k {
	case CapturePermissionDenied:
		return "permission_denied"
	case CaptureNoSpeech:
		return "no_speech"
	default:
		return "other"
	}
}

// CaptureError is reported by a capture adapter when an attempt fails.
// Code carries the raw engine code (e.g. "not-allowed", "network").
type CaptureError struct {
	Kind CaptureKind
	Code string
	Err  error
}

func (e *CaptureError) Error() string {
	code := e.Code
	if code == "" {
		code = e.Kind.String()
	}
	if e.Err != nil {
		return "capture " + code + ": " + e.Err.Error()
	}
	return "capture " + code
}

func (e *CaptureError) Unwrap() error { return e.Err }

// CaptureErrorFromCode maps an engine error code onto the capture taxonomy.
func CaptureErrorFromCode(code string, err error) *CaptureError {
	code = strings.TrimSpace(code)
	kind := CaptureOther
	switch strings.ToLower(code) {
	case "not-allowed", "permission-denied":
		kind = CapturePermissionDenied
	case "no-speech":
		kind = CaptureNoSpeech
	}
	return &CaptureError{Kind: kind, Code: code, Err: err}
}

// NetworkKind classifies a failed backend exchange.
type NetworkKind int

const (
	NetworkTransport NetworkKind = iota
	NetworkStatus
)

func (k NetworkKind) String() string {
	if k == NetworkStatus {
		return "status"
	}
	return "transport"
}

// NetworkError is the single failure shape of the backend query client.
type NetworkError struct {
	Kind       NetworkKind
	StatusCode int
	Message    string
	Err        error
}

func (e *NetworkError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Kind == NetworkStatus {
		return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "network error"
}

func (e *NetworkError) Unwrap() error { return e.Err }

// SynthesisKind classifies a failed utterance.
type SynthesisKind int

const (
	SynthesisPlaybackFailed SynthesisKind = iota
	SynthesisUnavailable
)

func (k SynthesisKind) String() string {
	if k == SynthesisUnavailable {
		return "unavailable"
	}
	return "playback_failed"
}

// SynthesisError is reported by a speech output adapter.
type SynthesisError struct {
	Kind   SynthesisKind
	Detail string
	Err    error
}

func (e *SynthesisError) Error() string {
	msg := "synthesis " + e.Kind.String()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// AsCapture returns the capture error in err's chain, classifying unknown
// errors as CaptureOther. It never returns nil.
func AsCapture(err error) *CaptureError {
	if err == nil {
		return &CaptureError{Kind: CaptureOther, Code: string(ReasonUnknown)}
	}
	var ce *CaptureError
	if errors.As(err, &ce) {
		return ce
	}
	return &CaptureError{Kind: CaptureOther, Code: string(Reason(err)), Err: err}
}

// AsNetwork returns the network error in err's chain, classifying unknown
// errors as NetworkTransport. It never returns nil.
func AsNetwork(err error) *NetworkError {
	if err == nil {
		return &NetworkError{Kind: NetworkTransport}
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne
	}
	return &NetworkError{Kind: NetworkTransport, Err: err}
}

// AsSynthesis returns the synthesis error in err's chain, classifying unknown
// errors as SynthesisPlaybackFailed. It never returns nil.
func AsSynthesis(err error) *SynthesisError {
	if err == nil {
		return &SynthesisError{Kind: SynthesisPlaybackFailed}
	}
	var se *SynthesisError
	if errors.As(err, &se) {
		return se
	}
	return &SynthesisError{Kind: SynthesisPlaybackFailed, Err: err}
}

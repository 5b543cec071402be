package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	ReasonCaptureOpen    ReasonCode = "capture_open"
	ReasonCaptureConnect ReasonCode = "capture_connect"
	ReasonCaptureStream  ReasonCode = "capture_stream"
	ReasonCaptureBusy    ReasonCode = "capture_busy"

	ReasonSpeechDial        ReasonCode = "speech_dial"
	ReasonSpeechSend        ReasonCode = "speech_send"
	ReasonSpeechPlayback    ReasonCode = "speech_playback"
	ReasonSpeechRateLimit   ReasonCode = "speech_rate_limit"
	ReasonSpeechCircuitOpen ReasonCode = "speech_circuit_open"

	ReasonBackendTransport ReasonCode = "backend_transport"
	ReasonBackendStatus    ReasonCode = "backend_status"
	ReasonBackendDecode    ReasonCode = "backend_decode"

	ReasonTransportListen ReasonCode = "transport_listen"
	ReasonTransportSend   ReasonCode = "transport_send"
)

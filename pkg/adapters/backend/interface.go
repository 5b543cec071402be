package backend

import "context"

// Asker performs one request/response exchange against the answering service.
// Failures are reported as *errorsx.NetworkError.
type Asker interface {
	Name() string
	Ask(ctx context.Context, query string) (string, error)
}

// Request is the wire body of POST /ask.
type Request struct {
	Query string `json:"query"`
}

// Response is the wire body of a successful /ask reply.
type Response struct {
	Answer string `json:"answer"`
}

package infra

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestIDHeader carries the per-call correlation id.
const RequestIDHeader = "X-Request-ID"

// LoggingTransport stamps every outgoing request with an X-Request-ID and
// logs its outcome at debug level.
type LoggingTransport struct {
	Base   http.RoundTripper
	Logger zerolog.Logger
}

// NewLoggingTransport wraps base (http.DefaultTransport when nil).
func NewLoggingTransport(base http.RoundTripper, logger zerolog.Logger) *LoggingTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &LoggingTransport{Base: base, Logger: logger}
}

func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rid := req.Header.Get(RequestIDHeader)
	if rid == "" {
		rid = uuid.NewString()
		req = req.Clone(req.Context())
		req.Header.Set(RequestIDHeader, rid)
	}
	start := time.Now()
	resp, err := t.Base.RoundTrip(req)
	if err != nil {
		t.Logger.Debug().Err(err).Str("request_id", rid).Msgf("http %s %s failed", req.Method, req.URL.Path)
		return nil, err
	}
	t.Logger.Debug().
		Str("request_id", rid).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msgf("http %s %s", req.Method, req.URL.Path)
	return resp, nil
}

var _ http.RoundTripper = (*LoggingTransport)(nil)

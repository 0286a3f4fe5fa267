package httpclient

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

type loggingTransport struct {
	next http.RoundTripper
	log  *zap.Logger
}

// NewLoggingTransport wraps next (or http.DefaultTransport) with structured
// request logging. Only metadata is logged, never bodies or credentials.
func NewLoggingTransport(next http.RoundTripper, log *zap.Logger) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &loggingTransport{next: next, log: log}
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)

	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("path", req.URL.EscapedPath()),
		zap.String("request_id", req.Header.Get(RequestIDHeader)),
		zap.Duration("dur", time.Since(start)),
	}
	if err != nil {
		t.log.Warn("http", append(fields, zap.Error(err))...)
		return nil, err
	}
	fields = append(fields, zap.Int("status", resp.StatusCode))
	if resp.StatusCode >= 500 {
		t.log.Warn("http", fields...)
	} else {
		t.log.Debug("http", fields...)
	}
	return resp, nil
}

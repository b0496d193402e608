package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// newLogger creates the default logger. level is "debug", "info" or anything
// else for warnings only.
func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "info":
		logger.SetLevel(logrus.InfoLevel)
	default:
		logger.SetLevel(logrus.WarnLevel)
	}
	return logger
}

// ######################################################
//
//	REQUEST/RESPONSE INTERCEPTORS
//
// ######################################################

// doBeforeRequest logs the request and runs the user hook. Returning an error aborts the call.
func (s *Session) doBeforeRequest(ctx context.Context, operationID string, r *http.Request, body []byte) error {
	beforeRequestLog(s.logger, operationID, r.Method, r.URL.String(), body)
	if s.config.BeforeRequestFn != nil {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		return s.config.BeforeRequestFn(ctx, r, r.Method, r.URL.String(), reader)
	}
	return nil
}

// doAfterRequest logs a successful preloaded response and runs the user hook.
func (s *Session) doAfterRequest(ctx context.Context, response *RawResponse, elapsed time.Duration) (*RawResponse, error) {
	afterRequestLog(s.logger, response, elapsed)
	if s.config.AfterRequestFn != nil {
		mutated, err := s.config.AfterRequestFn(ctx, response)
		if err != nil {
			return nil, err
		}
		if mutated != nil {
			return mutated, nil
		}
	}
	return response, nil
}

// ######################################################
//
//	REQUEST/RESPONSE LOGGING
//
// ######################################################

// beforeRequestLog logs HTTP request details before sending the request.
// In debug mode, it includes the request body (if present).
// In info mode, it only logs the HTTP method and URL.
func beforeRequestLog(logger *logrus.Logger, operationID, verb, url string, body []byte) {
	if !logger.IsLevelEnabled(logrus.InfoLevel) {
		return
	}
	entry := logger.WithFields(logrus.Fields{
		"operation": operationID,
		"method":    verb,
		"url":       url,
	})
	trimmed := bytes.TrimSpace(body)
	if logger.IsLevelEnabled(logrus.DebugLevel) && len(trimmed) > 0 {
		var compact bytes.Buffer
		if err := json.Compact(&compact, trimmed); err == nil {
			entry = entry.WithField("body", compact.String())
		} else {
			entry = entry.WithField("body", fmt.Sprintf("<%d bytes>", len(trimmed)))
		}
	}
	entry.Info("http request start")
}

// afterRequestLog logs HTTP response details after receiving the response.
// In debug mode, it pretty-prints the decoded body.
// In info mode, it only logs a summary.
func afterRequestLog(logger *logrus.Logger, response *RawResponse, elapsed time.Duration) {
	if !logger.IsLevelEnabled(logrus.InfoLevel) {
		return
	}
	entry := logger.WithFields(logrus.Fields{
		"operation": response.OperationID,
		"status":    response.StatusCode,
		"bytes":     len(response.Body),
		"duration":  elapsed.String(),
	})
	if !logger.IsLevelEnabled(logrus.DebugLevel) {
		entry.Info("response")
		return
	}
	codec, ok := CodecFor(response.Header.Get(HeaderContentType))
	if !ok {
		entry.Debug("response")
		return
	}
	record, err := ToRecord(codec, response.Body)
	if err != nil {
		entry.WithError(err).Debug("response")
		return
	}
	entry.Debugf("response\n%s", record.PrettyJson("  "))
}

// maxDumpBodySize is the largest response body the debug round tripper logs.
const maxDumpBodySize = 64 << 10

// debugRoundTripper is a middleware which debugs each outgoing request.
// It will dump information about request passing through it.
type debugRoundTripper struct {
	rt     http.RoundTripper
	logger *logrus.Logger
}

func newDebugRoundTripper(rt http.RoundTripper, logger *logrus.Logger) http.RoundTripper {
	return &debugRoundTripper{rt: rt, logger: logger}
}

// RoundTrip dumps the request and response of a single http transaction
// in their HTTP/1.x wire representation. Credentials are redacted.
func (d *debugRoundTripper) RoundTrip(req *http.Request) (resp *http.Response, err error) {
	if !d.logger.IsLevelEnabled(logrus.DebugLevel) {
		return d.rt.RoundTrip(req)
	}
	// A body that cannot be replayed would be consumed by the dump.
	withBody := req.Body == nil || req.GetBody != nil
	if reqDump, dumpErr := httputil.DumpRequestOut(redacted(req), withBody); dumpErr == nil {
		d.logger.Debug("\n", dump(">", reqDump))
	}

	defer func(begin time.Time) {
		if err != nil {
			d.logger.WithError(err).WithField("url", req.URL.String()).Debug("failed to reach lakeFS server")
			return
		}
		d.logger.WithFields(logrus.Fields{
			"method":   req.Method,
			"url":      req.URL.String(),
			"status":   resp.Status,
			"duration": time.Since(begin).String(),
		}).Debug("response received")
		// Bodies of unknown or large size are left to stream to the caller.
		withBody := resp.ContentLength >= 0 && resp.ContentLength <= maxDumpBodySize
		if respDump, dumpErr := httputil.DumpResponse(resp, withBody); dumpErr == nil {
			d.logger.Debug("\n", dump("<", respDump))
		}
	}(time.Now())

	return d.rt.RoundTrip(req)
}

func redacted(req *http.Request) *http.Request {
	clone := req.Clone(req.Context())
	if req.Body != nil && req.GetBody != nil {
		if body, err := req.GetBody(); err == nil {
			clone.Body = body
		}
	}
	for _, header := range []string{HeaderAuthorization, HeaderCookie} {
		if clone.Header.Get(header) != "" {
			clone.Header.Set(header, "<redacted>")
		}
	}
	return clone
}

func dump(prefix string, data []byte) string {
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimRight(string(data), "\r\n"), "\n") {
		b.WriteString(prefix)
		b.WriteByte(' ')
		b.WriteString(strings.TrimRight(line, "\r"))
		b.WriteByte('\n')
	}
	return b.String()
}

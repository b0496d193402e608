package core

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/treeverse/lakefs-go-client/api"
)

type contextKey string

const (
	connectTimeoutKey contextKey = "@connectTimeout"

	defaultTimeout        = 30 * time.Second
	defaultMaxConnections = 10
)

// Session is the transport shared by every endpoint of a client. It is safe for concurrent use.
type Session struct {
	config         *ClientConfig
	client         *http.Client
	authenticators map[string]Authenticator
	logger         *logrus.Logger
	metrics        *clientMetrics

	versionMu     sync.Mutex
	serverVersion *api.VersionConfig
	versionGroup  singleflight.Group

	loginEndpoint   *Endpoint[api.AuthenticationToken]
	versionEndpoint *Endpoint[api.VersionConfig]
}

// NewSession validates config, filling defaults, and builds the HTTP transport.
func NewSession(config *ClientConfig) (*Session, error) {
	if config == nil {
		return nil, errors.New("nil config")
	}
	err := config.Validate(
		WithHost,
		WithUserAgent,
		WithLogger,
		WithTimeout(defaultTimeout),
		WithMaxConnections(defaultMaxConnections),
	)
	if err != nil {
		return nil, err
	}
	metrics, err := newClientMetrics(config.MetricsRegisterer)
	if err != nil {
		return nil, fmt.Errorf("failed to register client metrics: %w", err)
	}
	session := &Session{
		config:  config,
		client:  config.HTTPClient,
		logger:  config.Logger,
		metrics: metrics,
	}
	if session.client == nil {
		session.client = &http.Client{Transport: newDebugRoundTripper(newTransport(config), config.Logger)}
	}
	session.authenticators = createAuthenticators(config, session.login)
	session.loginEndpoint = newLoginEndpoint(session)
	session.versionEndpoint = NewVersionEndpoint(session)
	return session, nil
}

func newTransport(config *ClientConfig) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: config.InsecureSkipVerify}
	transport.MaxConnsPerHost = config.MaxConnections
	transport.IdleConnTimeout = *config.Timeout
	if !config.RespectProxy {
		transport.Proxy = nil
	}
	dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
	transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		if timeout, ok := ctx.Value(connectTimeoutKey).(time.Duration); ok && timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		return dialer.DialContext(ctx, network, addr)
	}
	return transport
}

func (s *Session) GetConfig() *ClientConfig {
	return s.config
}

func (s *Session) Logger() *logrus.Logger {
	return s.logger
}

// baseContext returns the configured parent context, if any.
func (s *Session) baseContext() context.Context {
	if s.config.Context != nil {
		return s.config.Context
	}
	return context.Background()
}

// serverURL picks the base URL of a call.
func (s *Session) serverURL(operationID string, servers []Server, hostIndex *int) (string, error) {
	if len(servers) == 0 {
		servers = s.config.Servers
	}
	index := s.config.ServerIndex
	if hostIndex != nil {
		index = *hostIndex
	}
	if index < 0 || index >= len(servers) {
		return "", &ValidationError{
			Operation: operationID,
			Param:     "host_index",
			Reason:    fmt.Sprintf("invalid host index, must be in [0, %d)", len(servers)),
			Actual:    fmt.Sprint(index),
		}
	}
	return servers[index].URL, nil
}

// preparedRequest is a fully built request waiting to be sent.
type preparedRequest struct {
	operationID string
	method      string
	url         string
	header      http.Header
	body        []byte
}

// readTimeoutError is the cause of a call canceled by its read timeout.
type readTimeoutError struct{ timeout time.Duration }

func (e *readTimeoutError) Error() string {
	return fmt.Sprintf("read timeout of %s exceeded", e.timeout)
}
func (e *readTimeoutError) Timeout() bool   { return true }
func (e *readTimeoutError) Temporary() bool { return true }

// sentResponse is a response whose body still has to be consumed.
// release frees the timeout resources of the call and must be called exactly once.
type sentResponse struct {
	*http.Response
	release func()
	started time.Time
	// cause reports why the call context was canceled, if it was.
	cause func() error
}

// withTotalTimeout bounds the whole call, version lookup and login included.
func withTotalTimeout(ctx context.Context, timeout *Timeout) (context.Context, func()) {
	if timeout == nil || timeout.Total <= 0 {
		return ctx, func() {}
	}
	ctx, cancel := context.WithTimeout(ctx, timeout.Total)
	return ctx, func() { cancel() }
}

// send dispatches a prepared request, applying authentication and the connect and
// read timeouts. It takes ownership of releaseCall. No retries are made.
func (s *Session) send(ctx context.Context, prepared *preparedRequest, auth Authenticator, timeout *Timeout, releaseCall func()) (*sentResponse, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	releases := []func(){releaseCall, func() { cancel(nil) }}
	release := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
	// Login requests must not start the read timer of the request they authorize.
	authCtx := ctx

	var readTimer *time.Timer
	var timerMu sync.Mutex
	if timeout != nil {
		if timeout.Connect > 0 {
			ctx = context.WithValue(ctx, connectTimeoutKey, timeout.Connect)
		}
		if timeout.Read > 0 {
			read := timeout.Read
			ctx = httptrace.WithClientTrace(ctx, &httptrace.ClientTrace{
				GotConn: func(httptrace.GotConnInfo) {
					timerMu.Lock()
					defer timerMu.Unlock()
					if readTimer == nil {
						readTimer = time.AfterFunc(read, func() { cancel(&readTimeoutError{timeout: read}) })
					}
				},
			})
			releases = append(releases, func() {
				timerMu.Lock()
				defer timerMu.Unlock()
				if readTimer != nil {
					readTimer.Stop()
				}
			})
		}
	}
	cause := func() error { return context.Cause(ctx) }

	var reader io.Reader
	if prepared.body != nil {
		reader = bytes.NewReader(prepared.body)
	}
	req, err := http.NewRequestWithContext(ctx, prepared.method, prepared.url, reader)
	if err != nil {
		release()
		return nil, err
	}
	for key, values := range prepared.header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set(HeaderXRequestID, uuid.NewString())
	if auth != nil {
		if err = auth.setAuthHeader(authCtx, req); err != nil {
			release()
			return nil, fmt.Errorf("%s: %w", auth.Scheme(), err)
		}
	}
	if err = s.doBeforeRequest(ctx, prepared.operationID, req, prepared.body); err != nil {
		release()
		return nil, err
	}

	s.metrics.requestsInflight.Inc()
	defer s.metrics.requestsInflight.Dec()
	started := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.metrics.observe(prepared.operationID, prepared.method, 0, time.Since(started))
		err = transportError(err, cause())
		release()
		return nil, &ApiError{Method: prepared.method, URL: prepared.url, Err: err}
	}
	s.metrics.observe(prepared.operationID, prepared.method, resp.StatusCode, time.Since(started))
	return &sentResponse{Response: resp, release: release, started: started, cause: cause}, nil
}

// transportError prefers the read timeout over the generic cancellation it causes.
func transportError(err, cause error) error {
	var readTimeout *readTimeoutError
	if errors.As(cause, &readTimeout) {
		return fmt.Errorf("%w: %v", readTimeout, err)
	}
	return err
}

// readAll consumes and closes the body, releasing the call resources.
func (r *sentResponse) readAll() ([]byte, error) {
	defer r.release()
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, transportError(err, r.cause())
	}
	return body, nil
}

// releasingBody releases the call resources when the caller closes the body.
type releasingBody struct {
	io.ReadCloser
	once    sync.Once
	release func()
}

func (b *releasingBody) Close() error {
	err := b.ReadCloser.Close()
	b.once.Do(b.release)
	return err
}

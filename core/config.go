package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Server is one base URL the client can send requests to.
type Server struct {
	URL         string
	Description string
}

// RawResponse is the undecoded response handed to AfterRequestFn.
type RawResponse struct {
	OperationID string
	Method      string
	URL         string
	StatusCode  int
	Header      http.Header
	Body        []byte
}

// ClientConfig represents the configuration required to create a lakeFS session.
type ClientConfig struct {
	Host        string   // Base URL of the lakeFS server, e.g. "http://localhost:8000". "/api/v1" is appended when missing.
	Servers     []Server // Candidate base URLs. Derived from Host when empty.
	ServerIndex int      // Default index into Servers, overridable per call with WithHostIndex.

	AccessKeyID     string // Access key id for basic auth and token login.
	SecretAccessKey string // Secret access key for basic auth and token login.
	AccessToken     string // Static JWT sent as a bearer token.
	// LoginForToken makes the client obtain a JWT through POST /auth/login using the
	// access key pair and refresh it once it expires.
	LoginForToken bool
	CookieSession string // Value of the internal_auth_session cookie.
	OIDCSession   string // Value of the oidc_auth_session cookie.
	SAMLSession   string // Value of the saml_auth_session cookie.
	// AuthSchemePriority re-ranks the security schemes an operation accepts.
	// Schemes listed here are tried first, in this order; the rest keep their declared order.
	AuthSchemePriority []string

	InsecureSkipVerify bool           // Skip TLS certificate verification.
	RespectProxy       bool           // Whether to respect proxy environment variables (HTTP_PROXY, HTTPS_PROXY, NO_PROXY).
	Timeout            *time.Duration // Idle connection timeout. If nil, a default is applied by validators.
	MaxConnections     int            // Maximum number of concurrent HTTP connections per host.
	UserAgent          string         // Optional custom User-Agent header. If empty, a default is applied.
	// CheckServerVersion enables rejecting operations the connected server is too old for.
	CheckServerVersion bool

	// Logger receives request logs. When nil a logger is created whose level is taken
	// from the LAKEFS_CLIENT_LOG environment variable.
	Logger *logrus.Logger
	// MetricsRegisterer, when set, receives the client request metrics.
	MetricsRegisterer prometheus.Registerer
	// HTTPClient overrides the HTTP client built from the settings above.
	HTTPClient *http.Client

	// Context is an optional external context for controlling HTTP request lifecycle.
	// When provided, it will be used as the parent context for all HTTP requests made by the client.
	Context context.Context

	// BeforeRequestFn is an optional function hook executed before an API request is sent.
	// It allows for request inspection, mutation, or logging.
	//
	// Parameters:
	//   - ctx: The request context for managing deadlines and cancellations.
	//   - req: Request object
	//   - verb: The HTTP method (e.g., GET, POST, PUT).
	//   - url: The target URL (path and query parameters).
	//   - body: The request body reader, nil for requests without a body.
	//
	// Return:
	//   - error: Any error returned will abort the request.
	BeforeRequestFn func(ctx context.Context, r *http.Request, verb, url string, body io.Reader) error

	// AfterRequestFn is an optional function hook executed after a successful response
	// has been read, before it is decoded. It may replace the response.
	// It is not called for calls made without preloading content.
	AfterRequestFn func(ctx context.Context, response *RawResponse) (*RawResponse, error)
}

// ConfigFunc defines a function that can modify or validate a ClientConfig.
type ConfigFunc func(*ClientConfig) error

// Validate applies the given ConfigFunc validators to the config.
// It stops at the first validator returning an error.
func (config *ClientConfig) Validate(validators ...ConfigFunc) error {
	for _, fn := range validators {
		if err := fn(config); err != nil {
			return err
		}
	}
	return nil
}

// WithTimeout returns a ConfigFunc that sets a default timeout if none is provided.
func WithTimeout(timeout time.Duration) ConfigFunc {
	return func(config *ClientConfig) error {
		if config.Timeout == nil {
			config.Timeout = &timeout
		}
		return nil
	}
}

// WithMaxConnections returns a ConfigFunc that sets the maximum number of connections
// if not explicitly provided.
func WithMaxConnections(maxConnections int) ConfigFunc {
	return func(config *ClientConfig) error {
		if config.MaxConnections == 0 {
			config.MaxConnections = maxConnections
		}
		return nil
	}
}

// WithEnv fills unset connection and credential fields from the lakectl environment variables.
func WithEnv(config *ClientConfig) error {
	setIfEmpty := func(field *string, env string) {
		if *field == "" {
			*field = os.Getenv(env)
		}
	}
	if len(config.Servers) == 0 {
		setIfEmpty(&config.Host, EnvEndpointURL)
	}
	setIfEmpty(&config.AccessKeyID, EnvAccessKeyID)
	setIfEmpty(&config.SecretAccessKey, EnvSecretAccessKey)
	setIfEmpty(&config.AccessToken, EnvAccessToken)
	return nil
}

// WithHost validates the Host/Servers pair and normalizes them into Servers.
func WithHost(config *ClientConfig) error {
	derived := len(config.Servers) == 0
	if derived {
		if config.Host == "" {
			return errors.New("host cannot be empty string")
		}
		config.Servers = []Server{{URL: config.Host, Description: "lakeFS server endpoint"}}
	}
	for i := range config.Servers {
		normalized, err := normalizeServerURL(config.Servers[i].URL)
		if err != nil {
			return err
		}
		config.Servers[i].URL = normalized
	}
	if derived || config.Host == "" {
		config.Host = config.Servers[0].URL
	}
	if config.ServerIndex < 0 || config.ServerIndex >= len(config.Servers) {
		return fmt.Errorf("server index %d out of range [0, %d)", config.ServerIndex, len(config.Servers))
	}
	return nil
}

func normalizeServerURL(raw string) (string, error) {
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid server url %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid server url %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	if u.Path == "" {
		u.Path = DefaultBasePath
	}
	return u.String(), nil
}

// WithAuth validates that at least one credential is provided and that the
// token login has what it needs. Returns an error otherwise.
func WithAuth(config *ClientConfig) error {
	hasKeys := config.AccessKeyID != "" && config.SecretAccessKey != ""
	if config.LoginForToken && !hasKeys {
		return errors.New("token login requires an access key id and a secret access key")
	}
	if !hasKeys && config.AccessToken == "" && config.CookieSession == "" &&
		config.OIDCSession == "" && config.SAMLSession == "" {
		return errors.New("either access key pair, access token or a session cookie must be provided")
	}
	return nil
}

// WithUserAgent sets a default User-Agent header if none is provided in the config.
// This helps identify the client in HTTP requests.
func WithUserAgent(config *ClientConfig) error {
	if config.UserAgent == "" {
		config.UserAgent = fmt.Sprintf(
			"%s,os:%s,arch:%s",
			fmt.Sprintf("%s-%s", DefaultUserAgent, ClientVersion()),
			runtime.GOOS,
			runtime.GOARCH,
		)
	}
	return nil
}

// WithLogger installs a logger when none is provided.
func WithLogger(config *ClientConfig) error {
	if config.Logger == nil {
		config.Logger = newLogger(os.Getenv(EnvLogLevel))
	}
	return nil
}

package core

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/treeverse/lakefs-go-client/api"
)

// tokenExpirySkew renews a login token slightly before the server expires it.
const tokenExpirySkew = 10 * time.Second

// Authenticator applies the credentials of one security scheme to a request.
type Authenticator interface {
	Scheme() string
	setAuthHeader(ctx context.Context, r *http.Request) error
}

// createAuthenticators builds one authenticator per security scheme the config has credentials for.
func createAuthenticators(config *ClientConfig, login loginFunc) map[string]Authenticator {
	authenticators := make(map[string]Authenticator)
	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		basic := &BasicAuthenticator{AccessKeyID: config.AccessKeyID, SecretAccessKey: config.SecretAccessKey}
		basic.authorize()
		authenticators[AuthBasic] = basic
	}
	switch {
	case config.AccessToken != "":
		authenticators[AuthJWT] = &JWTAuthenticator{token: config.AccessToken}
	case config.LoginForToken && config.AccessKeyID != "" && config.SecretAccessKey != "":
		authenticators[AuthJWT] = &JWTAuthenticator{
			credentials: api.LoginInformation{
				AccessKeyId:     config.AccessKeyID,
				SecretAccessKey: config.SecretAccessKey,
			},
			login: login,
		}
	}
	if config.CookieSession != "" {
		authenticators[AuthCookie] = &CookieAuthenticator{scheme: AuthCookie, Name: CookieInternalAuthSession, Value: config.CookieSession}
	}
	if config.OIDCSession != "" {
		authenticators[AuthOIDC] = &CookieAuthenticator{scheme: AuthOIDC, Name: CookieOIDCAuthSession, Value: config.OIDCSession}
	}
	if config.SAMLSession != "" {
		authenticators[AuthSAML] = &CookieAuthenticator{scheme: AuthSAML, Name: CookieSAMLAuthSession, Value: config.SAMLSession}
	}
	return authenticators
}

// rankSchemes orders accepted schemes: the ones named in priority first (in priority
// order), then the remaining ones in their declared order.
func rankSchemes(accepted, priority []string) []string {
	ranked := make([]string, 0, len(accepted))
	for _, scheme := range priority {
		if slices.Contains(accepted, scheme) && !slices.Contains(ranked, scheme) {
			ranked = append(ranked, scheme)
		}
	}
	for _, scheme := range accepted {
		if !slices.Contains(ranked, scheme) {
			ranked = append(ranked, scheme)
		}
	}
	return ranked
}

// selectAuthenticator returns the first configured authenticator among the accepted
// schemes. Operations accepting no scheme are anonymous and get nil.
func selectAuthenticator(authenticators map[string]Authenticator, accepted, priority []string) (Authenticator, error) {
	if len(accepted) == 0 {
		return nil, nil
	}
	for _, scheme := range rankSchemes(accepted, priority) {
		if auth, ok := authenticators[scheme]; ok {
			return auth, nil
		}
	}
	return nil, ErrNoCredentials
}

type BasicAuthenticator struct {
	AccessKeyID     string
	SecretAccessKey string
	encodedAuth     string // Cached Base64-encoded credentials
}

func (auth *BasicAuthenticator) authorize() {
	authStr := auth.AccessKeyID + ":" + auth.SecretAccessKey
	auth.encodedAuth = base64.StdEncoding.EncodeToString([]byte(authStr))
}

func (auth *BasicAuthenticator) Scheme() string { return AuthBasic }

func (auth *BasicAuthenticator) setAuthHeader(_ context.Context, r *http.Request) error {
	r.Header.Set(HeaderAuthorization, AuthTypeBasic+" "+auth.encodedAuth)
	return nil
}

// CookieAuthenticator sends a session cookie (internal, OIDC or SAML).
type CookieAuthenticator struct {
	scheme string
	Name   string
	Value  string
}

func (auth *CookieAuthenticator) Scheme() string { return auth.scheme }

func (auth *CookieAuthenticator) setAuthHeader(_ context.Context, r *http.Request) error {
	r.AddCookie(&http.Cookie{Name: auth.Name, Value: auth.Value})
	return nil
}

type loginFunc func(ctx context.Context, credentials api.LoginInformation) (*api.AuthenticationToken, error)

// JWTAuthenticator sends a bearer token. The token is either static or obtained
// through POST /auth/login and renewed once it expires.
type JWTAuthenticator struct {
	credentials api.LoginInformation
	login       loginFunc

	mu      sync.Mutex
	token   string
	expires time.Time
	now     func() time.Time
}

func (auth *JWTAuthenticator) Scheme() string { return AuthJWT }

func (auth *JWTAuthenticator) clock() time.Time {
	if auth.now != nil {
		return auth.now()
	}
	return time.Now()
}

// authorize returns a valid token, logging in when there is none or it expired.
func (auth *JWTAuthenticator) authorize(ctx context.Context) (string, error) {
	auth.mu.Lock()
	defer auth.mu.Unlock()
	if auth.login == nil {
		return auth.token, nil
	}
	if auth.token != "" && (auth.expires.IsZero() || auth.clock().Before(auth.expires.Add(-tokenExpirySkew))) {
		return auth.token, nil
	}
	token, err := auth.login(ctx, auth.credentials)
	if err != nil {
		return "", fmt.Errorf("login failed: %w", err)
	}
	if token == nil || token.Token == "" {
		return "", errors.New("login failed: empty token")
	}
	auth.token = token.Token
	auth.expires = time.Time{}
	if token.TokenExpiration > 0 {
		auth.expires = time.Unix(token.TokenExpiration, 0)
	} else {
		auth.expires = tokenExpiry(token.Token)
	}
	return auth.token, nil
}

// tokenExpiry reads the exp claim of a JWT without verifying its signature.
// It returns the zero time for opaque tokens and tokens without exp.
func tokenExpiry(token string) time.Time {
	var claims jwt.StandardClaims
	if _, _, err := new(jwt.Parser).ParseUnverified(token, &claims); err != nil || claims.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.Unix(claims.ExpiresAt, 0)
}

func (auth *JWTAuthenticator) setAuthHeader(ctx context.Context, r *http.Request) error {
	token, err := auth.authorize(ctx)
	if err != nil {
		return err
	}
	r.Header.Set(HeaderAuthorization, AuthTypeBearer+" "+token)
	return nil
}

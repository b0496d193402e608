package core

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/hashicorp/go-version"

	"github.com/treeverse/lakefs-go-client/api"
)

//go:embed version
var clientVersion string

func ClientVersion() string {
	return strings.TrimSpace(clientVersion)
}

// NewVersionEndpoint describes GET /config/version.
func NewVersionEndpoint(session *Session) *Endpoint[api.VersionConfig] {
	return NewEndpoint[api.VersionConfig](
		session,
		Settings{
			Auth:           []string{AuthBasic, AuthCookie, AuthJWT, AuthOIDC, AuthSAML},
			Endpoint:       VersionPath,
			OperationID:    "getLakeFSVersion",
			HTTPMethod:     http.MethodGet,
			ResponseSchema: "VersionConfig",
		},
		ParamsMap{},
		RootMap{},
		HeadersMap{Accept: []string{ContentTypeJSON}},
	)
}

// newLoginEndpoint describes POST /auth/login, used to obtain JWTs.
func newLoginEndpoint(session *Session) *Endpoint[api.AuthenticationToken] {
	return NewEndpoint[api.AuthenticationToken](
		session,
		Settings{
			Endpoint:       LoginPath,
			OperationID:    "login",
			HTTPMethod:     http.MethodPost,
			ResponseSchema: "AuthenticationToken",
		},
		ParamsMap{
			All:      []string{"login_information"},
			Required: []string{"login_information"},
		},
		RootMap{
			OpenapiTypes: map[string]reflect.Type{"login_information": reflect.TypeFor[api.LoginInformation]()},
			LocationMap:  map[string]Location{"login_information": LocationBody},
		},
		HeadersMap{Accept: []string{ContentTypeJSON}, ContentType: []string{ContentTypeJSON}},
	)
}

func (s *Session) login(ctx context.Context, credentials api.LoginInformation) (*api.AuthenticationToken, error) {
	resp, err := s.loginEndpoint.CallWithHttpInfo(ctx, Params{"login_information": credentials}).Get()
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// ServerVersion returns the version reported by the server, fetched once per session.
// Concurrent callers share one request, each waiting no longer than its own ctx allows.
func (s *Session) ServerVersion(ctx context.Context) (*api.VersionConfig, error) {
	s.versionMu.Lock()
	cached := s.serverVersion
	s.versionMu.Unlock()
	if cached != nil {
		return cached, nil
	}
	fetch := s.versionGroup.DoChan(VersionPath, func() (any, error) {
		resp, err := s.versionEndpoint.CallWithHttpInfo(ctx, nil).Get()
		if err != nil {
			return nil, err
		}
		s.versionMu.Lock()
		defer s.versionMu.Unlock()
		s.serverVersion = resp.Data
		return resp.Data, nil
	})
	select {
	case <-ctx.Done():
		err := &ApiError{Method: http.MethodGet, URL: VersionPath, Err: context.Cause(ctx)}
		return nil, fmt.Errorf("failed to get lakeFS version: %w", err)
	case result := <-fetch:
		if result.Err != nil {
			return nil, fmt.Errorf("failed to get lakeFS version: %w", result.Err)
		}
		return result.Val.(*api.VersionConfig), nil
	}
}

// checkServerVersion fails with *UnsupportedVersionError when the server is older than required.
// Versions that do not parse (development builds) are accepted.
func (s *Session) checkServerVersion(ctx context.Context, operationID, required string) error {
	if !s.config.CheckServerVersion || required == "" {
		return nil
	}
	minVersion, err := version.NewVersion(required)
	if err != nil {
		return fmt.Errorf("invalid minimum version %q for %s: %w", required, operationID, err)
	}
	server, err := s.ServerVersion(ctx)
	if err != nil {
		return err
	}
	actual, err := version.NewVersion(server.Version)
	if err != nil {
		s.logger.WithField("version", server.Version).Debug("unparsable server version, skipping version check")
		return nil
	}
	if actual.Core().LessThan(minVersion) {
		return &UnsupportedVersionError{Operation: operationID, Required: required, Actual: server.Version}
	}
	return nil
}

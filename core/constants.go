package core

// HTTP-related constants for REST operations
// These constants provide type-safe header names, content types, and auth types

// HTTP Header Names
const (
	HeaderAccept        = "Accept"
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	HeaderContentLength = "Content-Length"
	HeaderCookie        = "Cookie"
	HeaderUserAgent     = "User-Agent"
	HeaderXRequestID    = "X-Request-ID"
)

// HTTP Content Types
const (
	ContentTypeJSON           = "application/json"
	ContentTypeMsgPack        = "application/msgpack"
	ContentTypeXMsgPack       = "application/x-msgpack"
	ContentTypeFormURLEncoded = "application/x-www-form-urlencoded"
	ContentTypeTextPlain      = "text/plain"
	ContentTypeOctetStream    = "application/octet-stream"
)

// HTTP Authentication Types
const (
	AuthTypeBasic  = "Basic"
	AuthTypeBearer = "Bearer"
)

// Security scheme identifiers as declared by the lakeFS API.
const (
	AuthBasic  = "basic_auth"
	AuthCookie = "cookie_auth"
	AuthJWT    = "jwt_token"
	AuthOIDC   = "oidc_auth"
	AuthSAML   = "saml_auth"
)

// Session cookie names used by the cookie based security schemes.
const (
	CookieInternalAuthSession = "internal_auth_session"
	CookieOIDCAuthSession     = "oidc_auth_session"
	CookieSAMLAuthSession     = "saml_auth_session"
)

// Well-known lakeFS endpoints used by the client itself.
const (
	DefaultBasePath  = "/api/v1"
	LoginPath        = "/auth/login"
	VersionPath      = "/config/version"
	DefaultUserAgent = "lakefs-go-client"
)

// Environment variables understood by WithEnv and the logger.
const (
	EnvEndpointURL     = "LAKECTL_SERVER_ENDPOINT_URL"
	EnvAccessKeyID     = "LAKECTL_CREDENTIALS_ACCESS_KEY_ID"
	EnvSecretAccessKey = "LAKECTL_CREDENTIALS_SECRET_ACCESS_KEY"
	EnvAccessToken     = "LAKEFS_ACCESS_TOKEN"
	EnvLogLevel        = "LAKEFS_CLIENT_LOG"
)

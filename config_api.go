package lakefs_client

import (
	"context"

	"github.com/treeverse/lakefs-go-client/api"
	"github.com/treeverse/lakefs-go-client/core"
)

// ConfigApi exposes the server configuration endpoints the client relies on.
type ConfigApi struct {
	versionEndpoint *core.Endpoint[api.VersionConfig]
}

func newConfigApi(session *core.Session) *ConfigApi {
	return &ConfigApi{
		versionEndpoint: core.NewVersionEndpoint(session),
	}
}

// GetLakeFSVersionWithHttpInfo fetches the server version. Unlike Session.ServerVersion
// it is never cached.
func (c *ConfigApi) GetLakeFSVersionWithHttpInfo(ctx context.Context, opts ...core.CallOption) *core.AsyncResult[api.VersionConfig] {
	return c.versionEndpoint.CallWithHttpInfo(ctx, core.Params{}, opts...)
}

func (c *ConfigApi) GetLakeFSVersion(ctx context.Context, opts ...core.CallOption) (*api.VersionConfig, error) {
	return c.GetLakeFSVersionWithHttpInfo(ctx, opts...).Data()
}

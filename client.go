package lakefs_client

import (
	"errors"

	"github.com/treeverse/lakefs-go-client/core"
)

type (
	ClientConfig = core.ClientConfig
	Server       = core.Server
	RawResponse  = core.RawResponse
	Params       = core.Params
	Record       = core.Record
	RecordSet    = core.RecordSet
	Renderable   = core.Renderable
	CallOption   = core.CallOption
	CallOptions  = core.CallOptions
	Timeout      = core.Timeout
)

// Per-call options, see core.CallOptions.
var (
	WithAsync              = core.WithAsync
	WithHttpInfo           = core.WithHttpInfo
	WithoutPreload         = core.WithoutPreload
	WithRequestTimeout     = core.WithRequestTimeout
	WithConnectReadTimeout = core.WithConnectReadTimeout
	WithoutInputTypeCheck  = core.WithoutInputTypeCheck
	WithoutReturnTypeCheck = core.WithoutReturnTypeCheck
	WithHostIndex          = core.WithHostIndex
)

// APIClient is the entry point of the lakeFS client. It is safe for concurrent use.
type APIClient struct {
	Session         *core.Session
	ExperimentalApi *ExperimentalApi
	ConfigApi       *ConfigApi
}

// NewAPIClient creates a client. Unset connection and credential fields are
// filled from the lakectl environment variables.
func NewAPIClient(config *ClientConfig) (*APIClient, error) {
	if config == nil {
		return nil, errors.New("nil config")
	}
	if err := config.Validate(core.WithEnv, core.WithAuth); err != nil {
		return nil, err
	}
	session, err := core.NewSession(config)
	if err != nil {
		return nil, err
	}
	return &APIClient{
		Session:         session,
		ExperimentalApi: newExperimentalApi(session),
		ConfigApi:       newConfigApi(session),
	}, nil
}

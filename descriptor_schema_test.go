package lakefs_client

import (
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treeverse/lakefs-go-client/core"
	"github.com/treeverse/lakefs-go-client/openapi_schema"
)

type describedEndpoint struct {
	settings core.Settings
	params   core.ParamsMap
	root     core.RootMap
}

func describe[T any](e *core.Endpoint[T]) describedEndpoint {
	return describedEndpoint{settings: e.Settings(), params: e.ParamsMap(), root: e.RootMap()}
}

// TestDescriptorsMatchOpenAPI checks every descriptor against the embedded lakeFS OpenAPI document.
func TestDescriptorsMatchOpenAPI(t *testing.T) {
	client := newTestClient(t, "http://localhost:8000")
	endpoints := []describedEndpoint{
		describe(client.ExperimentalApi.getOtfDiffsEndpoint),
		describe(client.ExperimentalApi.otfDiffEndpoint),
		describe(client.ConfigApi.versionEndpoint),
	}

	for _, e := range endpoints {
		t.Run(e.settings.OperationID, func(t *testing.T) {
			method, path := e.settings.HTTPMethod, e.settings.Endpoint
			op, err := openapi_schema.GetOperation(method, path)
			require.NoError(t, err)
			assert.Equal(t, op.OperationID, e.settings.OperationID)

			parameters, err := openapi_schema.OperationParameters(method, path)
			require.NoError(t, err)
			wireNames := make([]string, 0, len(e.params.All))
			for _, name := range e.params.All {
				wire := name
				if mapped, ok := e.root.AttributeMap[name]; ok {
					wire = mapped
				}
				wireNames = append(wireNames, wire)
			}
			require.Len(t, parameters, len(e.params.All))
			for _, param := range parameters {
				idx := slices.Index(wireNames, param.Name)
				require.GreaterOrEqual(t, idx, 0, "parameter %s not described", param.Name)
				name := e.params.All[idx]
				assert.Equal(t, param.In, string(e.root.LocationMap[name]), "location of %s", name)
				assert.Equal(t, param.Required, slices.Contains(e.params.Required, name), "required flag of %s", name)
			}

			schemes, err := openapi_schema.OperationSecuritySchemes(method, path)
			require.NoError(t, err)
			assert.ElementsMatch(t, schemes, e.settings.Auth)

			schema, err := openapi_schema.GetResponseModelSchema(method, path)
			require.NoError(t, err)
			assert.True(t, strings.HasSuffix(schema.Ref, "/"+e.settings.ResponseSchema),
				"response schema %s, descriptor names %s", schema.Ref, e.settings.ResponseSchema)
		})
	}
}

package lakefs_client

import (
	"context"
	"net/http"
	"reflect"

	"github.com/treeverse/lakefs-go-client/api"
	"github.com/treeverse/lakefs-go-client/core"
)

// otfDiffMinVersion is the first lakeFS release serving the table diff endpoints.
// It is only enforced when ClientConfig.CheckServerVersion is set.
const otfDiffMinVersion = "0.96.0"

var allAuthSchemes = []string{core.AuthBasic, core.AuthCookie, core.AuthJWT, core.AuthOIDC, core.AuthSAML}

// ExperimentalApi groups the experimental open table format (OTF) diff operations.
type ExperimentalApi struct {
	getOtfDiffsEndpoint *core.Endpoint[api.OTFDiffs]
	otfDiffEndpoint     *core.Endpoint[api.OtfDiffList]
}

func newExperimentalApi(session *core.Session) *ExperimentalApi {
	stringType := reflect.TypeFor[string]()
	otfDiffParams := []string{"repository", "left_ref", "right_ref", "table_path", "type"}
	return &ExperimentalApi{
		getOtfDiffsEndpoint: core.NewEndpoint[api.OTFDiffs](
			session,
			core.Settings{
				Auth:                 allAuthSchemes,
				Endpoint:             "/otf/diffs",
				OperationID:          "getOtfDiffs",
				HTTPMethod:           http.MethodGet,
				ResponseSchema:       "OTFDiffs",
				AvailableFromVersion: otfDiffMinVersion,
			},
			core.ParamsMap{},
			core.RootMap{},
			core.HeadersMap{Accept: []string{core.ContentTypeJSON, core.ContentTypeMsgPack}},
		),
		otfDiffEndpoint: core.NewEndpoint[api.OtfDiffList](
			session,
			core.Settings{
				Auth:                 allAuthSchemes,
				Endpoint:             "/repositories/{repository}/otf/refs/{left_ref}/diff/{right_ref}",
				OperationID:          "otfDiff",
				HTTPMethod:           http.MethodGet,
				ResponseSchema:       "OtfDiffList",
				AvailableFromVersion: otfDiffMinVersion,
			},
			core.ParamsMap{
				All:      otfDiffParams,
				Required: otfDiffParams,
			},
			core.RootMap{
				OpenapiTypes: map[string]reflect.Type{
					"repository": stringType,
					"left_ref":   stringType,
					"right_ref":  stringType,
					"table_path": stringType,
					"type":       stringType,
				},
				AttributeMap: map[string]string{
					"repository": "repository",
					"left_ref":   "left_ref",
					"right_ref":  "right_ref",
					"table_path": "table_path",
					"type":       "type",
				},
				LocationMap: map[string]core.Location{
					"repository": core.LocationPath,
					"left_ref":   core.LocationPath,
					"right_ref":  core.LocationPath,
					"table_path": core.LocationQuery,
					"type":       core.LocationQuery,
				},
			},
			core.HeadersMap{Accept: []string{core.ContentTypeJSON, core.ContentTypeMsgPack}},
		),
	}
}

// GetOtfDiffsWithHttpInfo lists the table diff types the server supports.
//
// Example:
//
//	result := client.ExperimentalApi.GetOtfDiffsWithHttpInfo(ctx, core.WithAsync())
//	// ... do other work ...
//	diffs, err := result.Data()
func (e *ExperimentalApi) GetOtfDiffsWithHttpInfo(ctx context.Context, opts ...core.CallOption) *core.AsyncResult[api.OTFDiffs] {
	return e.getOtfDiffsEndpoint.CallWithHttpInfo(ctx, core.Params{}, opts...)
}

// GetOtfDiffs lists the table diff types the server supports.
func (e *ExperimentalApi) GetOtfDiffs(ctx context.Context, opts ...core.CallOption) (*api.OTFDiffs, error) {
	return e.GetOtfDiffsWithHttpInfo(ctx, opts...).Data()
}

// OtfDiffWithHttpInfo computes the diff of the table at tablePath between leftRef and rightRef.
// diffType names the table format, one of the names GetOtfDiffs returns (e.g. "delta").
func (e *ExperimentalApi) OtfDiffWithHttpInfo(
	ctx context.Context,
	repository, leftRef, rightRef, tablePath, diffType string,
	opts ...core.CallOption,
) *core.AsyncResult[api.OtfDiffList] {
	params := core.Params{
		"repository": repository,
		"left_ref":   leftRef,
		"right_ref":  rightRef,
		"table_path": tablePath,
		"type":       diffType,
	}
	return e.otfDiffEndpoint.CallWithHttpInfo(ctx, params, opts...)
}

// OtfDiff computes the diff of the table at tablePath between leftRef and rightRef.
func (e *ExperimentalApi) OtfDiff(
	ctx context.Context,
	repository, leftRef, rightRef, tablePath, diffType string,
	opts ...core.CallOption,
) (*api.OtfDiffList, error) {
	return e.OtfDiffWithHttpInfo(ctx, repository, leftRef, rightRef, tablePath, diffType, opts...).Data()
}

// OtfDiffWithParams is OtfDiff taking the query parameters as a struct.
// The struct is validated before anything is sent.
func (e *ExperimentalApi) OtfDiffWithParams(
	ctx context.Context,
	repository, leftRef, rightRef string,
	query *api.OtfDiffParams,
	opts ...core.CallOption,
) (*api.OtfDiffList, error) {
	if err := core.ValidateStruct("otfDiff", query); err != nil {
		return nil, err
	}
	params, err := core.ParamsFromStruct(query)
	if err != nil {
		return nil, err
	}
	params.Update(core.Params{
		"repository": repository,
		"left_ref":   leftRef,
		"right_ref":  rightRef,
	}, true)
	return e.otfDiffEndpoint.CallWithHttpInfo(ctx, params, opts...).Data()
}

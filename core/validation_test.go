package core

import (
	"errors"
	"net/http"
	"reflect"
	"testing"

	"github.com/treeverse/lakefs-go-client/api"
)

func newEnumEndpoint(t *testing.T) *Endpoint[any] {
	t.Helper()
	session := newTestSession(t, "localhost")
	return NewEndpoint[any](
		session,
		Settings{Endpoint: "/otf/tables", OperationID: "listTables", HTTPMethod: http.MethodGet},
		ParamsMap{
			All:        []string{"type", "formats", "prefix", "after", "amount"},
			Required:   []string{"type"},
			Nullable:   []string{"after"},
			Enum:       []string{"type", "formats"},
			Validation: []string{"prefix", "amount"},
		},
		RootMap{
			Validations: map[string]string{"prefix": "max=8", "amount": "gte=1,lte=1000"},
			AllowedValues: map[string][]any{
				"type":    {"delta", "iceberg"},
				"formats": {"parquet", "orc"},
			},
			OpenapiTypes: map[string]reflect.Type{
				"type":    reflect.TypeFor[string](),
				"formats": reflect.TypeFor[[]string](),
				"prefix":  reflect.TypeFor[string](),
				"after":   reflect.TypeFor[*string](),
				"amount":  reflect.TypeFor[int](),
			},
			LocationMap: map[string]Location{
				"type":    LocationQuery,
				"formats": LocationQuery,
				"prefix":  LocationQuery,
				"after":   LocationQuery,
				"amount":  LocationQuery,
			},
		},
		HeadersMap{},
	)
}

func TestValidateParams(t *testing.T) {
	endpoint := newEnumEndpoint(t)
	tests := []struct {
		name   string
		params Params
		opts   []CallOption
		param  string
		reason string
	}{
		{name: "valid", params: Params{"type": "delta", "formats": []string{"orc"}, "amount": 10}},
		{name: "nullable nil", params: Params{"type": "delta", "after": nil}},
		{name: "unknown first", params: Params{"zzz": 1, "aaa": 1}, param: "aaa", reason: "unexpected parameter"},
		{name: "missing before enum", params: Params{"formats": []string{"avro"}}, param: "type", reason: "missing required parameter"},
		{name: "nil not nullable", params: Params{"type": nil}, param: "type", reason: "value cannot be nil"},
		{name: "enum", params: Params{"type": "hudi"}, param: "type", reason: "invalid value hudi"},
		{name: "enum element", params: Params{"type": "delta", "formats": []string{"orc", "avro"}}, param: "formats", reason: "invalid value avro"},
		{name: "enum ignores type check", params: Params{"type": "hudi"}, opts: []CallOption{WithoutInputTypeCheck()}, param: "type", reason: "invalid value hudi"},
		{name: "type", params: Params{"type": "delta", "amount": "10"}, param: "amount", reason: "invalid type"},
		{name: "tag", params: Params{"type": "delta", "amount": 0}, param: "amount", reason: "failed gte=1 validation"},
		{name: "max length", params: Params{"type": "delta", "prefix": "tables/long"}, param: "prefix", reason: "must be at most 8 characters"},
		{name: "tags skipped", params: Params{"type": "delta", "amount": 0}, opts: []CallOption{WithoutInputTypeCheck()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := endpoint.validateParams(tt.params, NewCallOptions(tt.opts...))
			if tt.param == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if ve.Param != tt.param || ve.Reason != tt.reason {
				t.Errorf("got param=%q reason=%q, want param=%q reason=%q", ve.Param, ve.Reason, tt.param, tt.reason)
			}
		})
	}
}

func TestValidateStruct(t *testing.T) {
	if err := ValidateStruct("otfDiff", &api.OtfDiffParams{TablePath: "tables/t1", Type: "delta"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := ValidateStruct("otfDiff", &api.OtfDiffParams{TablePath: "tables/t1"})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if ve.Param != "type" || ve.Reason != "required" {
		t.Errorf("got %+v", ve)
	}

	var nilParams *api.OtfDiffParams
	if err = ValidateStruct("otfDiff", nilParams); !IsValidationErr(err) {
		t.Errorf("nil params gave %v", err)
	}
}

func TestBodyStructValidation(t *testing.T) {
	session := newTestSession(t, "localhost")
	err := session.loginEndpoint.validateParams(
		Params{"login_information": api.LoginInformation{AccessKeyId: testAccessKeyID}},
		DefaultCallOptions(),
	)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if ve.Param != "login_information.secret_access_key" {
		t.Errorf("Param = %q", ve.Param)
	}
}

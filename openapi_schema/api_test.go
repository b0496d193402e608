package openapi_schema

import (
	"errors"
	"reflect"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
)

const otfDiffPath = "/repositories/{repository}/otf/refs/{left_ref}/diff/{right_ref}"

// helper: load doc and return it (uses package-private function)
func mustLoadDoc(t *testing.T) *openapi3.T {
	t.Helper()
	doc, err := loadOpenAPIDocOnce()
	if err != nil {
		t.Fatalf("failed to load OpenAPI doc: %v", err)
	}
	if doc == nil {
		t.Fatalf("openapi doc is nil")
	}
	return doc
}

func TestGetOpenApiComponents(t *testing.T) {
	comps, err := GetOpenApiComponents()
	if err != nil {
		t.Fatalf("GetOpenApiComponents error: %v", err)
	}
	for _, name := range []string{"Error", "OTFDiffs", "OtfDiffList", "OtfDiffEntry", "VersionConfig"} {
		if _, ok := comps.Schemas[name]; !ok {
			t.Errorf("component %q missing", name)
		}
	}
}

func TestGetOpenApiResource_ValidAndInvalid(t *testing.T) {
	doc := mustLoadDoc(t)
	for p := range doc.Paths.Map() {
		if _, err := GetOpenApiResource(p); err != nil {
			t.Fatalf("GetOpenApiResource valid path %q: %v", p, err)
		}
	}
	// trailing slash is tolerated
	if _, err := GetOpenApiResource("/otf/diffs/"); err != nil {
		t.Fatalf("GetOpenApiResource with trailing slash: %v", err)
	}
	if _, err := GetOpenApiResource("/this/path/does/not/exist/"); err == nil {
		t.Fatalf("expected error for invalid path, got nil")
	}
}

func TestGetOperation(t *testing.T) {
	tests := []struct {
		method, path, operationID string
		wantErr                   bool
	}{
		{"GET", "/otf/diffs", "getOtfDiffs", false},
		{"get", otfDiffPath, "otfDiff", false},
		{"GET", "/config/version", "getLakeFSVersion", false},
		{"POST", "/auth/login", "login", false},
		{"DELETE", "/otf/diffs", "", true},
	}
	for _, tt := range tests {
		op, err := GetOperation(tt.method, tt.path)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s %s: expected error", tt.method, tt.path)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s %s: unexpected error %v", tt.method, tt.path, err)
			continue
		}
		if op.OperationID != tt.operationID {
			t.Errorf("%s %s: operationId = %q, want %q", tt.method, tt.path, op.OperationID, tt.operationID)
		}
	}
}

func TestGetOpenApiComponentSchema(t *testing.T) {
	byName, err := GetOpenApiComponentSchema("OtfDiffList")
	if err != nil {
		t.Fatalf("by name: %v", err)
	}
	byRef, err := GetOpenApiComponentSchema("#/components/schemas/OtfDiffList")
	if err != nil {
		t.Fatalf("by ref: %v", err)
	}
	if byName != byRef {
		t.Fatalf("expected same schema for name and ref")
	}
	if !IsObject(byName.Value) {
		t.Fatalf("OtfDiffList should be an object")
	}
	if _, err = GetOpenApiComponentSchema("#/components/schemas/"); err == nil {
		t.Fatalf("expected error for empty reference")
	}
	if _, err = GetOpenApiComponentSchema("NoSuchModel"); err == nil {
		t.Fatalf("expected error for unknown component")
	}
}

func TestOperationParameters_MergesPathLevel(t *testing.T) {
	params, err := OperationParameters("GET", otfDiffPath)
	if err != nil {
		t.Fatalf("OperationParameters: %v", err)
	}
	var got [][3]any
	for _, p := range params {
		got = append(got, [3]any{p.Name, p.In, p.Required})
	}
	want := [][3]any{
		{"repository", "path", true},
		{"left_ref", "path", true},
		{"right_ref", "path", true},
		{"table_path", "query", true},
		{"type", "query", true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("parameters = %v, want %v", got, want)
	}

	params, err = OperationParameters("GET", "/otf/diffs")
	if err != nil {
		t.Fatalf("OperationParameters: %v", err)
	}
	if len(params) != 0 {
		t.Fatalf("expected no parameters for /otf/diffs, got %d", len(params))
	}
}

func TestOperationSecuritySchemes(t *testing.T) {
	schemes, err := OperationSecuritySchemes("GET", "/otf/diffs")
	if err != nil {
		t.Fatalf("OperationSecuritySchemes: %v", err)
	}
	want := []string{"jwt_token", "basic_auth", "cookie_auth", "oidc_auth", "saml_auth"}
	if !reflect.DeepEqual(schemes, want) {
		t.Fatalf("schemes = %v, want %v", schemes, want)
	}

	schemes, err = OperationSecuritySchemes("POST", "/auth/login")
	if err != nil {
		t.Fatalf("OperationSecuritySchemes: %v", err)
	}
	if len(schemes) != 0 {
		t.Fatalf("login must be anonymous, got %v", schemes)
	}
}

func TestGetResponseModelSchema_GET(t *testing.T) {
	ref, err := GetResponseModelSchema("GET", otfDiffPath)
	if err != nil {
		t.Fatalf("GetResponseModelSchema: %v", err)
	}
	if ref.Ref != "#/components/schemas/OtfDiffList" {
		t.Fatalf("unexpected response ref %q", ref.Ref)
	}
	summary, err := GetOperationSummary("GET", otfDiffPath)
	if err != nil {
		t.Fatalf("GetOperationSummary: %v", err)
	}
	if summary != "perform otf diff" {
		t.Fatalf("unexpected summary %q", summary)
	}
}

func TestValidateComponentJSON(t *testing.T) {
	valid := map[string]any{
		"diff_type": "changed",
		"results": []any{
			map[string]any{
				"id":                "v1",
				"timestamp":         float64(1700000000),
				"operation":         "WRITE",
				"operation_content": map[string]any{"mode": "Append"},
				"operation_type":    "update",
			},
		},
	}
	if err := ValidateComponentJSON("OtfDiffList", valid); err != nil {
		t.Fatalf("valid body rejected: %v", err)
	}

	tests := []struct {
		name     string
		value    any
		field    string
		expected string
		actual   string
	}{
		{
			name:     "wrong type",
			value:    map[string]any{"results": "nope"},
			field:    "/results",
			expected: "array",
			actual:   "string",
		},
		{
			name:     "missing required",
			value:    map[string]any{"diff_type": "changed"},
			field:    "/results",
			expected: "array",
			actual:   "missing",
		},
		{
			name:     "enum",
			value:    map[string]any{"diff_type": "renamed", "results": []any{}},
			field:    "/diff_type",
			expected: "one of [changed created dropped]",
			actual:   "renamed",
		},
		{
			name:     "root",
			value:    []any{},
			field:    "",
			expected: "object",
			actual:   "array",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateComponentJSON("OtfDiffList", tt.value)
			var violation *SchemaViolation
			if !errors.As(err, &violation) {
				t.Fatalf("expected *SchemaViolation, got %T: %v", err, err)
			}
			if violation.Field != tt.field || violation.Expected != tt.expected || violation.Actual != tt.actual {
				t.Fatalf("violation = %+v, want field=%q expected=%q actual=%q",
					violation, tt.field, tt.expected, tt.actual)
			}
			if violation.Component != "OtfDiffList" {
				t.Fatalf("component = %q", violation.Component)
			}
		})
	}
}

func TestJSONKind(t *testing.T) {
	tests := map[string]any{
		"null":    nil,
		"boolean": true,
		"string":  "x",
		"integer": float64(3),
		"number":  1.5,
		"array":   []any{},
		"object":  map[string]any{},
	}
	for want, value := range tests {
		if got := JSONKind(value); got != want {
			t.Errorf("JSONKind(%v) = %q, want %q", value, got, want)
		}
	}
}

package openapi_schema

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

var (
	//go:embed api.yaml
	FS             embed.FS
	openApiDocOnce sync.Once
	openApiDoc     *openapi3.T
	openApiDocErr  error
	schemaRelPath  = "api.yaml"
)

// loadOpenAPIDocOnce loads and parses the embedded lakeFS OpenAPI v3 document exactly once.
// The document is parsed and validated using the kin-openapi loader and cached for future calls.
//
// Notes:
//   - This function is thread-safe and memoized via sync.Once.
//   - Errors encountered during the initial load are also cached and returned on subsequent calls.
func loadOpenAPIDocOnce() (*openapi3.T, error) {
	openApiDocOnce.Do(func() {
		data, err := FS.ReadFile(schemaRelPath)
		if err != nil {
			openApiDocErr = fmt.Errorf("read embedded schema: %w", err)
			return
		}
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromData(data)
		if err != nil {
			openApiDocErr = fmt.Errorf("parse embedded schema: %w", err)
			return
		}
		if err = doc.Validate(context.Background()); err != nil {
			openApiDocErr = fmt.Errorf("invalid embedded schema: %w", err)
			return
		}
		openApiDoc = doc
	})

	return openApiDoc, openApiDocErr
}

// Document returns the parsed embedded OpenAPI document.
func Document() (*openapi3.T, error) {
	return loadOpenAPIDocOnce()
}

// GetOpenApiResource returns the path item registered for the given path template
// (e.g. "/repositories/{repository}/otf/refs/{left_ref}/diff/{right_ref}").
func GetOpenApiResource(resourcePath string) (*openapi3.PathItem, error) {
	doc, err := loadOpenAPIDocOnce()
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}

	base := "/" + strings.Trim(resourcePath, "/")
	paths := doc.Paths.Map()
	if item := paths[base]; item != nil {
		return item, nil
	}

	// Collect all available paths for diagnostics
	var available []string
	for path := range paths {
		available = append(available, path)
	}
	sort.Strings(available)
	return nil, fmt.Errorf(
		"path %q not found in OpenAPI schema. Available paths:\n  - %s",
		resourcePath,
		strings.Join(available, "\n  - "),
	)
}

// GetOperation returns the operation registered for httpMethod on resourcePath.
func GetOperation(httpMethod, resourcePath string) (*openapi3.Operation, error) {
	resource, err := GetOpenApiResource(resourcePath)
	if err != nil {
		return nil, err
	}
	operation := resource.GetOperation(strings.ToUpper(httpMethod))
	if operation == nil {
		return nil, fmt.Errorf("operation not found for %s %s", httpMethod, resourcePath)
	}
	return operation, nil
}

// GetOpenApiComponents returns the components section of the document.
func GetOpenApiComponents() (*openapi3.Components, error) {
	doc, err := loadOpenAPIDocOnce()
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}
	if doc.Components == nil {
		return nil, fmt.Errorf("OpenAPI document has no components defined")
	}
	return doc.Components, nil
}

// GetOpenApiComponentSchema accepts either a bare component name ("OtfDiffList")
// or a full reference ("#/components/schemas/OtfDiffList").
func GetOpenApiComponentSchema(ref string) (*openapi3.SchemaRef, error) {
	parts := strings.Split(ref, "/")
	name := parts[len(parts)-1]
	if name == "" {
		return nil, fmt.Errorf("invalid schema reference: %q", ref)
	}
	components, err := GetOpenApiComponents()
	if err != nil {
		return nil, fmt.Errorf("failed to get OpenAPI components: %w", err)
	}
	schemaRef, ok := components.Schemas[name]
	if !ok || schemaRef == nil || schemaRef.Value == nil {
		return nil, fmt.Errorf("component schema %q not found in OpenAPI document", name)
	}
	return schemaRef, nil
}

// OperationParameters returns the parameters of an operation, path-level parameters first,
// with operation-level parameters overriding path-level ones of the same name and location.
func OperationParameters(httpMethod, resourcePath string) ([]*openapi3.Parameter, error) {
	resource, err := GetOpenApiResource(resourcePath)
	if err != nil {
		return nil, err
	}
	operation := resource.GetOperation(strings.ToUpper(httpMethod))
	if operation == nil {
		return nil, fmt.Errorf("operation not found for %s %s", httpMethod, resourcePath)
	}

	type key struct{ name, in string }
	var (
		order  []key
		params = make(map[key]*openapi3.Parameter)
	)
	for _, refs := range []openapi3.Parameters{resource.Parameters, operation.Parameters} {
		for _, ref := range refs {
			if ref == nil || ref.Value == nil {
				continue
			}
			k := key{ref.Value.Name, ref.Value.In}
			if _, seen := params[k]; !seen {
				order = append(order, k)
			}
			params[k] = ref.Value
		}
	}
	result := make([]*openapi3.Parameter, 0, len(order))
	for _, k := range order {
		result = append(result, params[k])
	}
	return result, nil
}

// OperationSecuritySchemes returns the names of the security schemes accepted by an operation.
// Operation-level security overrides the document default; an explicit empty list means
// the operation is anonymous.
func OperationSecuritySchemes(httpMethod, resourcePath string) ([]string, error) {
	doc, err := loadOpenAPIDocOnce()
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}
	operation, err := GetOperation(httpMethod, resourcePath)
	if err != nil {
		return nil, err
	}
	requirements := doc.Security
	if operation.Security != nil {
		requirements = *operation.Security
	}
	var names []string
	for _, requirement := range requirements {
		for name := range requirement {
			names = append(names, name)
		}
	}
	return names, nil
}

// GetResponseModelSchema returns the application/json schema of the 200 response of an operation.
func GetResponseModelSchema(httpMethod, resourcePath string) (*openapi3.SchemaRef, error) {
	operation, err := GetOperation(httpMethod, resourcePath)
	if err != nil {
		return nil, err
	}
	resp := operation.Responses.Status(http.StatusOK)
	if resp == nil || resp.Value == nil {
		return nil, fmt.Errorf("%s %s has no 200 response", httpMethod, resourcePath)
	}
	content := resp.Value.Content.Get("application/json")
	if content == nil || content.Schema == nil {
		return nil, fmt.Errorf("%s %s 200 response has no JSON schema", httpMethod, resourcePath)
	}
	return content.Schema, nil
}

// GetOperationSummary returns the summary description of an operation.
func GetOperationSummary(httpMethod, resourcePath string) (string, error) {
	operation, err := GetOperation(httpMethod, resourcePath)
	if err != nil {
		return "", err
	}
	return operation.Summary, nil
}

// SchemaViolation describes why a value does not match a component schema.
type SchemaViolation struct {
	Component string
	Field     string // JSON pointer of the offending field, "" for the root
	Expected  string
	Actual    string
	Reason    string
}

func (v *SchemaViolation) Error() string {
	field := v.Field
	if field == "" {
		field = "<root>"
	}
	return fmt.Sprintf("%s: field %s: %s (expected %s, got %s)", v.Component, field, v.Reason, v.Expected, v.Actual)
}

// ValidateComponentJSON validates a JSON-decoded value (map[string]any, []any, float64, ...)
// against the named component schema. Schema violations are returned as *SchemaViolation.
func ValidateComponentJSON(component string, value any) error {
	schemaRef, err := GetOpenApiComponentSchema(component)
	if err != nil {
		return err
	}
	err = schemaRef.Value.VisitJSON(value)
	if err == nil {
		return nil
	}
	var schemaErr *openapi3.SchemaError
	if !errors.As(err, &schemaErr) {
		return err
	}
	pointer := schemaErr.JSONPointer()
	var field string
	if len(pointer) > 0 {
		field = "/" + strings.Join(pointer, "/")
	}
	violation := &SchemaViolation{
		Component: component,
		Field:     field,
		Expected:  GetSchemaType(schemaErr.Schema),
		Actual:    JSONKind(schemaErr.Value),
		Reason:    schemaErr.Reason,
	}
	switch schemaErr.SchemaField {
	case "required":
		// The error is reported on the parent object; describe the missing property instead.
		violation.Actual = "missing"
		if len(pointer) > 0 && schemaErr.Schema != nil {
			if prop := schemaErr.Schema.Properties[pointer[len(pointer)-1]]; prop != nil {
				violation.Expected = GetSchemaType(prop.Value)
			}
		}
	case "enum":
		violation.Expected = fmt.Sprintf("one of %v", schemaErr.Schema.Enum)
		violation.Actual = fmt.Sprintf("%v", schemaErr.Value)
	}
	return violation
}

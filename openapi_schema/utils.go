package openapi_schema

import (
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// IsObject returns true if the given OpenAPI schema represents an object type
func IsObject(prop *openapi3.Schema) bool {
	return prop != nil && prop.Type != nil && len(*prop.Type) > 0 && (*prop.Type)[0] == openapi3.TypeObject
}

// GetSchemaType returns the type string of the given OpenAPI schema.
// Schemas without a type (free form) are reported as "any".
func GetSchemaType(s *openapi3.Schema) string {
	if s == nil || s.Type == nil || len(*s.Type) == 0 {
		return "any"
	}
	return (*s.Type)[0]
}

// JSONKind names the JSON type of a decoded value the way OpenAPI does.
func JSONKind(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case bool:
		return openapi3.TypeBoolean
	case string:
		return openapi3.TypeString
	case float64:
		if v == float64(int64(v)) {
			return openapi3.TypeInteger
		}
		return openapi3.TypeNumber
	case int, int32, int64, uint, uint32, uint64:
		return openapi3.TypeInteger
	case []any:
		return openapi3.TypeArray
	case map[string]any:
		return openapi3.TypeObject
	default:
		return fmt.Sprintf("%T", value)
	}
}

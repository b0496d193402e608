package core

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/gorilla/schema"
)

//  ######################################################
//              FUNCTION PARAMS
//  ######################################################

// Params is the parameter bag of one invocation, keyed by parameter name.
type Params map[string]any

var structEncoder = func() *schema.Encoder {
	enc := schema.NewEncoder()
	enc.SetAliasTag("schema")
	return enc
}()

// Update merges another Params map into the original Params.
// Existing keys are replaced only when override is true.
func (pr Params) Update(other Params, override bool) {
	for key, value := range other {
		if _, exists := pr[key]; exists && !override {
			continue
		}
		pr[key] = value
	}
}

// Without removes the specified keys from the Params map.
func (pr Params) Without(keys ...string) {
	for _, key := range keys {
		delete(pr, key)
	}
}

// Names returns the parameter names present in the bag.
func (pr Params) Names() []string {
	names := make([]string, 0, len(pr))
	for name := range pr {
		names = append(names, name)
	}
	return names
}

// ParamsFromStruct encodes a struct into a Params bag using its `schema` tags.
// Single valued fields become strings and slices become []string.
//
// Example:
//
//	type DiffQuery struct {
//	    TablePath string `schema:"table_path"`
//	    Type      string `schema:"type"`
//	}
//	params, err := ParamsFromStruct(&DiffQuery{TablePath: "tables/t1", Type: "delta"})
//	// params contains: {"table_path": "tables/t1", "type": "delta"}
func ParamsFromStruct(obj any) (Params, error) {
	params := make(Params)
	if obj == nil {
		return params, nil
	}
	if v := reflect.ValueOf(obj); v.Kind() == reflect.Ptr && v.IsNil() {
		return params, nil
	}
	encoded := make(map[string][]string)
	if err := structEncoder.Encode(obj, encoded); err != nil {
		return nil, fmt.Errorf("failed to encode %T into params: %w", obj, err)
	}
	fieldKinds := sliceFields(obj)
	for key, values := range encoded {
		if fieldKinds[key] {
			params[key] = values
		} else if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params, nil
}

// sliceFields reports which schema aliases of a struct are slice fields.
func sliceFields(obj any) map[string]bool {
	v := reflect.Indirect(reflect.ValueOf(obj))
	result := make(map[string]bool)
	if v.Kind() != reflect.Struct {
		return result
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name, _, _ := strings.Cut(field.Tag.Get("schema"), ",")
		if name == "" {
			name = field.Name
		}
		result[name] = field.Type.Kind() == reflect.Slice
	}
	return result
}

// toStrings flattens a parameter value into its string form(s).
func toStrings(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case []string:
		return v
	case fmt.Stringer:
		return []string{v.String()}
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out = append(out, fmt.Sprint(rv.Index(i).Interface()))
		}
		return out
	}
	return []string{fmt.Sprint(value)}
}

// formatCollection joins values according to the collection format.
// CollectionMulti keeps the values apart so the caller repeats the key.
func formatCollection(values []string, format CollectionFormat) []string {
	var sep string
	switch format {
	case CollectionMulti:
		return values
	case CollectionSSV:
		sep = " "
	case CollectionTSV:
		sep = "\t"
	case CollectionPipes:
		sep = "|"
	default:
		sep = ","
	}
	return []string{strings.Join(values, sep)}
}

// queryEscape escapes a query component, leaving '/' readable.
func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "%2F", "/")
}

type queryParam struct {
	key    string
	values []string
}

// encodeQuery renders query parameters in the given order.
func encodeQuery(params []queryParam) string {
	var b strings.Builder
	for _, p := range params {
		for _, value := range p.values {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(queryEscape(p.key))
			b.WriteByte('=')
			b.WriteString(queryEscape(value))
		}
	}
	return b.String()
}

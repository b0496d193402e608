package core

import (
	"fmt"
	"maps"
	"reflect"
	"regexp"
	"slices"
)

// Location is where a parameter travels in the request.
type Location string

const (
	LocationPath   Location = "path"
	LocationQuery  Location = "query"
	LocationHeader Location = "header"
	LocationBody   Location = "body"
	LocationForm   Location = "form"
)

// CollectionFormat is how a list valued parameter is serialized.
type CollectionFormat string

const (
	CollectionCSV   CollectionFormat = "csv"
	CollectionSSV   CollectionFormat = "ssv"
	CollectionTSV   CollectionFormat = "tsv"
	CollectionPipes CollectionFormat = "pipes"
	// CollectionMulti repeats the parameter once per value.
	CollectionMulti CollectionFormat = "multi"
)

// Settings describes the operation itself. The response type is bound by Endpoint's type parameter.
type Settings struct {
	// Auth lists the accepted security scheme identifiers in declared order.
	Auth []string
	// Endpoint is the path template, e.g. "/otf/diffs".
	Endpoint    string
	OperationID string
	HTTPMethod  string
	// Servers overrides the client servers for this operation when set.
	Servers []Server
	// ResponseSchema names the OpenAPI component the response body is validated against.
	ResponseSchema string
	// AvailableFromVersion is the first lakeFS version serving this operation.
	AvailableFromVersion string
}

// ParamsMap groups parameter names by constraint.
type ParamsMap struct {
	All        []string
	Required   []string
	Nullable   []string
	Enum       []string
	Validation []string
}

// RootMap holds per-parameter metadata keyed by parameter name.
type RootMap struct {
	// Validations holds validator tags (github.com/go-playground/validator) per parameter.
	Validations   map[string]string
	AllowedValues map[string][]any
	OpenapiTypes  map[string]reflect.Type
	// AttributeMap maps a parameter name to its wire name. Missing entries use the name itself.
	AttributeMap        map[string]string
	LocationMap         map[string]Location
	CollectionFormatMap map[string]CollectionFormat
}

// HeadersMap lists the content types an operation accepts and produces.
type HeadersMap struct {
	Accept      []string
	ContentType []string
}

// Endpoint is the immutable descriptor of one remote operation returning T.
type Endpoint[T any] struct {
	settings Settings
	params   ParamsMap
	root     RootMap
	headers  HeadersMap
	session  *Session
}

var placeholderRe = regexp.MustCompile(`\{([^{}]+)\}`)

// NewEndpoint builds a descriptor. It panics when the descriptor is inconsistent:
// such a descriptor is a programming error, not a runtime condition.
func NewEndpoint[T any](session *Session, settings Settings, params ParamsMap, root RootMap, headers HeadersMap) *Endpoint[T] {
	e := &Endpoint[T]{
		settings: copySettings(settings),
		params:   copyParamsMap(params),
		root:     copyRootMap(root),
		headers:  HeadersMap{Accept: slices.Clone(headers.Accept), ContentType: slices.Clone(headers.ContentType)},
		session:  session,
	}
	if err := e.check(); err != nil {
		panic(fmt.Sprintf("invalid endpoint descriptor %s: %v", settings.OperationID, err))
	}
	return e
}

func (e *Endpoint[T]) check() error {
	if e.session == nil {
		return fmt.Errorf("nil session")
	}
	if e.settings.OperationID == "" || e.settings.HTTPMethod == "" || e.settings.Endpoint == "" {
		return fmt.Errorf("operation id, method and path are mandatory")
	}
	declared := make(map[string]struct{}, len(e.params.All))
	for _, name := range e.params.All {
		declared[name] = struct{}{}
		if _, ok := e.root.LocationMap[name]; !ok {
			return fmt.Errorf("parameter %q has no location", name)
		}
		if _, ok := e.root.OpenapiTypes[name]; !ok {
			return fmt.Errorf("parameter %q has no type", name)
		}
	}
	for group, names := range map[string][]string{
		"required":   e.params.Required,
		"nullable":   e.params.Nullable,
		"enum":       e.params.Enum,
		"validation": e.params.Validation,
	} {
		for _, name := range names {
			if _, ok := declared[name]; !ok {
				return fmt.Errorf("%s parameter %q is not declared", group, name)
			}
		}
	}
	for _, name := range e.params.Enum {
		if len(e.root.AllowedValues[name]) == 0 {
			return fmt.Errorf("enum parameter %q has no allowed values", name)
		}
	}
	for _, name := range e.params.Validation {
		if e.root.Validations[name] == "" {
			return fmt.Errorf("parameter %q has no validation tag", name)
		}
	}
	bodies := 0
	for _, name := range e.params.All {
		if e.root.LocationMap[name] == LocationBody {
			bodies++
		}
	}
	if bodies > 1 {
		return fmt.Errorf("more than one body parameter")
	}
	for _, match := range placeholderRe.FindAllStringSubmatch(e.settings.Endpoint, -1) {
		name, ok := e.pathParamFor(match[1])
		if !ok {
			return fmt.Errorf("path placeholder {%s} has no path parameter", match[1])
		}
		if !slices.Contains(e.params.Required, name) {
			return fmt.Errorf("path parameter %q must be required", name)
		}
	}
	return nil
}

// pathParamFor returns the parameter bound to a path placeholder.
func (e *Endpoint[T]) pathParamFor(placeholder string) (string, bool) {
	for _, name := range e.params.All {
		if e.root.LocationMap[name] == LocationPath && e.wireName(name) == placeholder {
			return name, true
		}
	}
	return "", false
}

func (e *Endpoint[T]) wireName(name string) string {
	if wire, ok := e.root.AttributeMap[name]; ok && wire != "" {
		return wire
	}
	return name
}

// Settings returns a copy of the operation settings.
func (e *Endpoint[T]) Settings() Settings { return copySettings(e.settings) }

// ParamsMap returns a copy of the parameter groups.
func (e *Endpoint[T]) ParamsMap() ParamsMap { return copyParamsMap(e.params) }

// RootMap returns a copy of the per-parameter metadata.
func (e *Endpoint[T]) RootMap() RootMap { return copyRootMap(e.root) }

// HeadersMap returns a copy of the accepted content types.
func (e *Endpoint[T]) HeadersMap() HeadersMap {
	return HeadersMap{Accept: slices.Clone(e.headers.Accept), ContentType: slices.Clone(e.headers.ContentType)}
}

func copySettings(s Settings) Settings {
	s.Auth = slices.Clone(s.Auth)
	s.Servers = slices.Clone(s.Servers)
	return s
}

func copyParamsMap(p ParamsMap) ParamsMap {
	return ParamsMap{
		All:        slices.Clone(p.All),
		Required:   slices.Clone(p.Required),
		Nullable:   slices.Clone(p.Nullable),
		Enum:       slices.Clone(p.Enum),
		Validation: slices.Clone(p.Validation),
	}
}

func copyRootMap(r RootMap) RootMap {
	allowed := make(map[string][]any, len(r.AllowedValues))
	for k, v := range r.AllowedValues {
		allowed[k] = slices.Clone(v)
	}
	return RootMap{
		Validations:         maps.Clone(r.Validations),
		AllowedValues:       allowed,
		OpenapiTypes:        maps.Clone(r.OpenapiTypes),
		AttributeMap:        maps.Clone(r.AttributeMap),
		LocationMap:         maps.Clone(r.LocationMap),
		CollectionFormatMap: maps.Clone(r.CollectionFormatMap),
	}
}

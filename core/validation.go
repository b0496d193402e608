package core

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report struct fields by their wire name.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"schema", "json"} {
			name, _, _ := strings.Cut(field.Tag.Get(tag), ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return field.Name
	})
	return v
}()

// ValidateStruct validates a struct with its `validate` tags and reports the
// first failing field as a *ValidationError.
func ValidateStruct(operation string, obj any) error {
	if obj == nil {
		return &ValidationError{Operation: operation, Reason: "missing parameters"}
	}
	if v := reflect.ValueOf(obj); v.Kind() == reflect.Ptr && v.IsNil() {
		return &ValidationError{Operation: operation, Reason: "missing parameters"}
	}
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}
	var valErrs validator.ValidationErrors
	if errors.As(err, &valErrs) && len(valErrs) > 0 {
		ve := valErrs[0]
		return &ValidationError{
			Operation: operation,
			Param:     ve.Field(),
			Reason:    formatValidationError(ve),
		}
	}
	return &ValidationError{Operation: operation, Reason: err.Error()}
}

// validateParams checks a parameter bag against the descriptor. Checks run in
// a fixed order so the reported error is deterministic.
func (e *Endpoint[T]) validateParams(bag Params, opts CallOptions) error {
	op := e.settings.OperationID

	unknown := make([]string, 0)
	for name := range bag {
		if !slices.Contains(e.params.All, name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return &ValidationError{
			Operation: op,
			Param:     unknown[0],
			Reason:    "unexpected parameter",
			Allowed:   toAnySlice(e.params.All),
		}
	}

	for _, name := range e.params.Required {
		if _, ok := bag[name]; !ok {
			return &ValidationError{Operation: op, Param: name, Reason: "missing required parameter"}
		}
	}

	for _, name := range e.params.All {
		value, ok := bag[name]
		if !ok || !isNil(value) {
			continue
		}
		if !slices.Contains(e.params.Nullable, name) {
			return &ValidationError{Operation: op, Param: name, Reason: "value cannot be nil"}
		}
	}

	for _, name := range e.params.Enum {
		value, ok := bag[name]
		if !ok || isNil(value) {
			continue
		}
		allowed := e.root.AllowedValues[name]
		for _, item := range enumItems(value) {
			if !containsValue(allowed, item) {
				return &ValidationError{
					Operation: op,
					Param:     name,
					Reason:    fmt.Sprintf("invalid value %v", item),
					Allowed:   slices.Clone(allowed),
				}
			}
		}
	}

	if !opts.CheckInputType {
		return nil
	}

	for _, name := range e.params.All {
		value, ok := bag[name]
		if !ok || isNil(value) {
			continue
		}
		expected := e.root.OpenapiTypes[name]
		actual := reflect.TypeOf(value)
		if !actual.AssignableTo(expected) {
			return &ValidationError{
				Operation: op,
				Param:     name,
				Reason:    "invalid type",
				Expected:  expected.String(),
				Actual:    actual.String(),
			}
		}
	}

	for _, name := range e.params.Validation {
		value, ok := bag[name]
		if !ok || isNil(value) {
			continue
		}
		err := validate.Var(value, e.root.Validations[name])
		if err == nil {
			continue
		}
		var valErrs validator.ValidationErrors
		if errors.As(err, &valErrs) && len(valErrs) > 0 {
			return &ValidationError{Operation: op, Param: name, Reason: formatValidationError(valErrs[0])}
		}
		return &ValidationError{Operation: op, Param: name, Reason: err.Error()}
	}

	// Struct bodies carry their own validate tags.
	for _, name := range e.params.All {
		value, ok := bag[name]
		if !ok || isNil(value) || e.root.LocationMap[name] != LocationBody {
			continue
		}
		if reflect.Indirect(reflect.ValueOf(value)).Kind() != reflect.Struct {
			continue
		}
		if err := ValidateStruct(op, value); err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) && ve.Param != "" {
				ve.Param = name + "." + ve.Param
			}
			return err
		}
	}
	return nil
}

// formatValidationError converts a validator.FieldError to a human-readable message.
func formatValidationError(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", ve.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", ve.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", ve.Param())
	default:
		if ve.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", ve.Tag(), ve.Param())
		}
		return fmt.Sprintf("failed %s validation", ve.Tag())
	}
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// enumItems returns the elements of a list value, or the value itself.
func enumItems(value any) []any {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{value}
	}
	items := make([]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		items = append(items, rv.Index(i).Interface())
	}
	return items
}

func containsValue(allowed []any, value any) bool {
	for _, candidate := range allowed {
		if reflect.DeepEqual(candidate, value) {
			return true
		}
	}
	return false
}

func toAnySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

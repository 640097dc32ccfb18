package binder

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
	"github.com/segmentio/encoding/json"
)

func formatUnmarshalTypeError(err *json.UnmarshalTypeError) string {
	// FIXME: this doesn't work well for incorrect map values, e.g. it will say
	// `"metadata" should be a string instead of a object` if you pass in
	// `{"metadata":{"foo":{"bar":"baz"}}}`.
	return fmt.Sprintf("%q should be of type %s", strings.Trim(err.Field, "."), err.Type)
}

func formatSchemaConversionError(err schema.ConversionError) string {
	return fmt.Sprintf("%q should be of type %s", err.Key, err.Type)
}

// formatValidationError renders the first failed validation as a
// human-readable message keyed by the field's JSON name. Only the tags the
// payload structs actually use are given tailored messages.
func formatValidationError(err validator.FieldError) string {
	field := err.Field()

	switch err.Tag() {
	case "email":
		return fmt.Sprintf("%q is not a valid email", field)
	case "max":
		return formatBound(err, "less than or equal to")
	case "min":
		return formatBound(err, "greater than or equal to")
	case "oneof":
		valids := []string{}
		for _, p := range strings.Fields(err.Param()) {
			valids = append(valids, fmt.Sprintf("%q", p))
		}
		return fmt.Sprintf("%q must be one of the following: %s", field, strings.Join(valids, ", "))
	case "required":
		return fmt.Sprintf("%q is required", field)
	default:
		return fmt.Sprintf("%q is invalid", field)
	}
}

// formatBound phrases min/max by kind: numbers compare by value, strings and
// slices by length.
func formatBound(err validator.FieldError, relation string) string {
	field := err.Field()

	//exhaustive:ignore
	switch err.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%q must be %s %s", field, relation, err.Param())
	case reflect.Slice:
		return fmt.Sprintf("%q length must be %s %s %s", field, relation, err.Param(), pluralize("element", err.Param()))
	default:
		return fmt.Sprintf("%q length must be %s %s %s", field, relation, err.Param(), pluralize("character", err.Param()))
	}
}

func pluralize(noun, count string) string {
	if count == "1" {
		return noun
	}
	return noun + "s"
}

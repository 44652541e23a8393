package cache

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// SerializeArgs turns list-filter arguments into a deterministic key segment.
// List and aggregate caches are keyed by their filters; two calls with equal
// filters must share an entry and any differing filter must not. The result
// is escaped, so it is safe to pass to KeyBuilder.Entity as a value.
func SerializeArgs(args ...any) string {
	if len(args) == 0 {
		return "all"
	}
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = serializeArg(arg)
	}
	return escapeSegment(strings.Join(parts, ","))
}

func serializeArg(v any) string {
	if v == nil {
		return "nil"
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return "nil"
		}
		return serializeArg(rv.Elem().Interface())

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return "[]"
		}
		parts := make([]string, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			parts[i] = serializeArg(rv.Index(i).Interface())
		}
		return "[" + strings.Join(parts, ",") + "]"

	case reflect.Map:
		if rv.IsNil() {
			return "{}"
		}
		pairs := make([]string, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			pairs = append(pairs, serializeArg(iter.Key().Interface())+"="+serializeArg(iter.Value().Interface()))
		}
		// Map iteration order is random; sort pairs for determinism.
		sort.Strings(pairs)
		return "{" + strings.Join(pairs, ",") + "}"

	case reflect.Struct:
		rt := rv.Type()
		parts := make([]string, 0, rv.NumField())
		for i := 0; i < rv.NumField(); i++ {
			field := rt.Field(i)
			if !field.IsExported() {
				continue
			}
			parts = append(parts, field.Name+"="+serializeArg(rv.Field(i).Interface()))
		}
		return "(" + strings.Join(parts, ",") + ")"

	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return fmt.Sprintf("%v", v)

	default:
		// Last resort for exotic types; stability over perfection.
		if data, err := json.Marshal(v); err == nil {
			return string(data)
		}
		return reflect.TypeOf(v).String()
	}
}

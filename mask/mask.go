// Package mask flattens values into ordered key/value maps with sensitive fields hidden,
// for logging command inputs and printing loaded configuration.
//
// A field tagged `mask:"true"` is replaced by a placeholder naming its kind. A string
// field tagged `mask:"partial"` keeps its last four characters. Nested structs, slices
// and string-keyed maps are flattened into dotted keys ("owner.email", "items.0.sku").
package mask

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	tagName    = "mask"
	tagFull    = "true"
	tagPartial = "partial"

	partialVisible = 4
)

// StructToOrdMap flattens v into an ordered map with masked fields replaced.
// Keys follow the json tag, then the yaml tag, then the Go field name. Fields tagged
// "-" are left out. A nil v yields nil.
func StructToOrdMap(v any) *orderedmap.OrderedMap[string, any] {
	if v == nil {
		return nil
	}
	f := flattener{out: orderedmap.New[string, any]()}
	f.walk(reflect.ValueOf(v), "")
	return f.out
}

type flattener struct {
	out *orderedmap.OrderedMap[string, any]
}

func (f flattener) walk(val reflect.Value, key string) {
	for val.Kind() == reflect.Pointer || val.Kind() == reflect.Interface {
		if val.IsNil() {
			f.out.Set(key, nil)
			return
		}
		val = val.Elem()
	}

	switch val.Kind() { //nolint:exhaustive // scalars are stored as they are
	case reflect.Struct:
		if !expandable(val.Type()) {
			f.out.Set(key, val.Interface())
			return
		}
		f.walkStruct(val, key)
	case reflect.Slice, reflect.Array:
		if !expandable(val.Type().Elem()) {
			f.out.Set(key, val.Interface())
			return
		}
		for i := range val.Len() {
			f.walk(val.Index(i), join(key, strconv.Itoa(i)))
		}
	case reflect.Map:
		if val.Type().Key().Kind() != reflect.String || !expandable(val.Type().Elem()) {
			f.out.Set(key, val.Interface())
			return
		}
		iter := val.MapRange()
		for iter.Next() {
			f.walk(iter.Value(), join(key, iter.Key().String()))
		}
	default:
		f.out.Set(key, val.Interface())
	}
}

func (f flattener) walkStruct(val reflect.Value, prefix string) {
	typ := val.Type()
	for i := range typ.NumField() {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}

		name, skip := fieldName(field)
		if skip {
			continue
		}
		value := val.Field(i)

		switch strings.ToLower(field.Tag.Get(tagName)) {
		case tagFull:
			f.out.Set(join(prefix, name), full(value))
		case tagPartial:
			f.out.Set(join(prefix, name), partial(value))
		default:
			if field.Anonymous && !hasNameTag(field) {
				f.walk(value, prefix)
				continue
			}
			f.walk(value, join(prefix, name))
		}
	}
}

// expandable reports whether values of t are flattened rather than stored whole.
// Structs with no exported fields, such as time.Time, are stored whole.
func expandable(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return false
	}
	for i := range t.NumField() {
		if t.Field(i).IsExported() {
			return true
		}
	}
	return false
}

func full(val reflect.Value) any {
	for val.Kind() == reflect.Pointer || val.Kind() == reflect.Interface {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}
	if (val.Kind() == reflect.Slice || val.Kind() == reflect.Map) && val.IsNil() {
		return nil
	}
	return placeholder(val.Kind())
}

func partial(val reflect.Value) any {
	for val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.String {
		return full(val)
	}
	s := val.String()
	if len(s) <= partialVisible {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-partialVisible) + s[len(s)-partialVisible:]
}

func placeholder(k reflect.Kind) string {
	switch k { //nolint:exhaustive // other kinds are named after themselves
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "***masked-int***"
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "***masked-uint***"
	case reflect.Float32, reflect.Float64:
		return "***masked-float***"
	case reflect.Slice, reflect.Array:
		return "***masked-slice***"
	default:
		return fmt.Sprintf("***masked-%s***", k)
	}
}

// fieldName picks the key for field from its json tag, then its yaml tag, then its name.
func fieldName(field reflect.StructField) (string, bool) {
	for _, tag := range []string{"json", "yaml"} {
		value, ok := field.Tag.Lookup(tag)
		if !ok {
			continue
		}
		name, _, _ := strings.Cut(value, ",")
		if name == "-" {
			return "", true
		}
		if name != "" {
			return name, false
		}
	}
	return field.Name, false
}

func hasNameTag(field reflect.StructField) bool {
	for _, tag := range []string{"json", "yaml"} {
		if value, ok := field.Tag.Lookup(tag); ok {
			if name, _, _ := strings.Cut(value, ","); name != "" {
				return true
			}
		}
	}
	return false
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

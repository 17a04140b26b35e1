package mapping

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	orderedmap "github.com/wk8/go-ordered-map"
)

// Property is a named value exposed by a pipeline object.
type Property struct {
	Name  string
	Value any
}

// PropertySource is implemented by objects listing their own properties.
type PropertySource interface {
	PipelineProperties() []Property
}

// Properties returns the properties of o in a stable order.
// Maps are ordered by key, structs by field declaration.
func Properties(o any) *orderedmap.OrderedMap {
	props := orderedmap.New()
	switch obj := o.(type) {
	case nil:
		return props
	case PropertySource:
		for _, p := range obj.PipelineProperties() {
			props.Set(p.Name, p.Value)
		}
		return props
	case map[string]any:
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			props.Set(k, obj[k])
		}
		return props
	}

	val := reflect.ValueOf(o)
	for val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return props
		}
		val = val.Elem()
	}
	switch val.Kind() {
	case reflect.Struct:
		for _, field := range reflect.VisibleFields(val.Type()) {
			if !field.IsExported() || field.Anonymous {
				continue
			}
			props.Set(field.Name, val.FieldByIndex(field.Index).Interface())
		}
	case reflect.Map:
		if val.Type().Key().Kind() != reflect.String {
			return props
		}
		keys := val.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		for _, k := range keys {
			props.Set(k.String(), val.MapIndex(k).Interface())
		}
	}

	return props
}

// Lookup finds a property by name, ignoring case.
func Lookup(props *orderedmap.OrderedMap, name string) (any, bool) {
	if value, ok := props.Get(name); ok {
		return value, true
	}
	for pair := props.Oldest(); pair != nil; pair = pair.Next() {
		key, _ := pair.Key.(string)
		if strings.EqualFold(key, name) {
			return pair.Value, true
		}
	}

	return nil, false
}

// Format renders a scalar value the way yargs parses it back.
// Composite values other than string slices cannot be formatted.
func Format(v any) (string, bool) {
	switch value := v.(type) {
	case nil:
		return "", false
	case string:
		return value, true
	case time.Duration:
		return value.String(), true
	case time.Time:
		return value.Format(time.RFC3339Nano), true
	case []string:
		return strings.Join(value, ","), true
	case fmt.Stringer:
		return value.String(), true
	}

	val := reflect.ValueOf(v)
	switch val.Kind() {
	case reflect.String:
		return val.String(), true
	case reflect.Bool:
		return strconv.FormatBool(val.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(val.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(val.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(val.Float(), 'f', -1, 64), true
	case reflect.Pointer:
		if val.IsNil() {
			return "", false
		}
		return Format(val.Elem().Interface())
	default:
		return "", false
	}
}

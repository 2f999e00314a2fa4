package env

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var secretMarkers = []string{"KEY", "PASSWORD", "SECRET", "TOKEN", "DSN"}

// Map reflects over config structs and collects their env-tagged fields.
// Zero values are skipped. Later configs win on duplicate keys.
func Map(configs ...any) (map[string]string, error) {
	out := make(map[string]string)
	for _, c := range configs {
		v := reflect.ValueOf(c)
		if v.Kind() == reflect.Ptr {
			if v.IsNil() {
				continue
			}
			v = v.Elem()
		}
		if v.Kind() != reflect.Struct {
			return nil, fmt.Errorf("expected struct, got %s", v.Kind())
		}
		collect(v, out)
	}
	return out, nil
}

func collect(v reflect.Value, out map[string]string) {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		// Parse tag: "KEY,required,notEmpty" or "KEY"
		key, _, _ := strings.Cut(field.Tag.Get("env"), ",")
		val := v.Field(i)

		if key == "" {
			if val.Kind() == reflect.Struct {
				collect(val, out)
			}
			continue
		}
		if val.IsZero() {
			continue
		}
		out[key] = formatValue(val)
	}
}

func formatValue(v reflect.Value) string {
	if d, ok := v.Interface().(time.Duration); ok {
		return d.String()
	}

	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'f', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Slice:
		parts := make([]string, v.Len())
		for i := range parts {
			parts[i] = formatValue(v.Index(i))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}

// Redact returns a copy with credential-like values masked.
func Redact(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if isSecret(k) {
			v = "****"
		}
		out[k] = v
	}
	return out
}

func isSecret(key string) bool {
	for _, marker := range secretMarkers {
		if strings.Contains(key, marker) {
			return true
		}
	}
	return false
}

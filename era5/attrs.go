package era5

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/spf13/cast"
)

// attrValue returns the first value of a numeric attribute. NetCDF
// classic files store every numeric attribute as a slice.
func attrValue(attrs api.AttributeMap, key string) (interface{}, bool) {
	if attrs == nil {
		return nil, false
	}
	v, ok := attrs.Get(key)
	if !ok || v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice {
		if rv.Len() == 0 {
			return nil, false
		}
		return rv.Index(0).Interface(), true
	}
	return v, true
}

func floatAttr(attrs api.AttributeMap, key string) (float64, bool, error) {
	v, ok := attrValue(attrs, key)
	if !ok {
		return 0, false, nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false, fmt.Errorf("attribute `%s`: %w", key, err)
	}
	return f, true, nil
}

func stringAttr(attrs api.AttributeMap, key string) (string, bool) {
	if attrs == nil {
		return "", false
	}
	v, ok := attrs.Get(key)
	if !ok {
		return "", false
	}
	if b, isBytes := v.([]byte); isBytes {
		return strings.TrimRight(string(b), "\x00"), true
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", false
	}
	return strings.TrimRight(s, "\x00"), true
}

// typeName returns the Go name of the element type of v,
// so that both float64 and []float64 give "float64".
func typeName(v interface{}) string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		t = t.Elem()
	}
	return t.String()
}

var itemSizes = map[string]int{
	"int8":    1,
	"uint8":   1,
	"int16":   2,
	"uint16":  2,
	"int32":   4,
	"uint32":  4,
	"float32": 4,
	"int64":   8,
	"uint64":  8,
	"float64": 8,
}

// flatten appends the numeric leaves of the possibly nested
// slice v to dst in row-major order.
func flatten(dst []float64, v interface{}) ([]float64, error) {
	switch vals := v.(type) {
	case []float64:
		return append(dst, vals...), nil
	case []float32:
		for _, x := range vals {
			dst = append(dst, float64(x))
		}
		return dst, nil
	case []int16:
		for _, x := range vals {
			dst = append(dst, float64(x))
		}
		return dst, nil
	}
	return flattenValue(dst, reflect.ValueOf(v))
}

func flattenValue(dst []float64, rv reflect.Value) ([]float64, error) {
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		var err error
		for i := 0; i < rv.Len(); i++ {
			if dst, err = flattenValue(dst, rv.Index(i)); err != nil {
				return nil, err
			}
		}
		return dst, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return append(dst, float64(rv.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return append(dst, float64(rv.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return append(dst, rv.Float()), nil
	case reflect.Interface:
		return flattenValue(dst, rv.Elem())
	default:
		return nil, fmt.Errorf("unsupported value type %s", rv.Type())
	}
}

func readFloats(ds Dataset, name string) ([]float64, api.VarGetter, error) {
	vg, err := ds.GetVarGetter(name)
	if err != nil {
		return nil, nil, fmt.Errorf("era5: reading variable `%s`: %w", name, err)
	}
	raw, err := vg.Values()
	if err != nil {
		return nil, nil, fmt.Errorf("era5: reading values of `%s`: %w", name, err)
	}
	vals, err := flatten(nil, raw)
	if err != nil {
		return nil, nil, fmt.Errorf("era5: reading values of `%s`: %w", name, err)
	}
	return vals, vg, nil
}

func hasVariable(ds Dataset, name string) bool {
	for _, v := range ds.ListVariables() {
		if v == name {
			return true
		}
	}
	return false
}

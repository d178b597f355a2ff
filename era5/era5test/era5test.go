// Package era5test provides in memory NetCDF datasets shaped
// like ERA5 products, for testing code built on package era5.
package era5test

import (
	"fmt"
	"reflect"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// Attrs is an ordered attribute map.
type Attrs struct {
	keys   []string
	values map[string]interface{}
}

// NewAttrs builds an attribute map from alternating keys and values.
func NewAttrs(kv ...interface{}) *Attrs {
	a := &Attrs{values: map[string]interface{}{}}
	for i := 0; i+1 < len(kv); i += 2 {
		a.Set(kv[i].(string), kv[i+1])
	}
	return a
}

// Set adds or replaces an attribute.
func (a *Attrs) Set(key string, value interface{}) {
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.values[key] = value
}

// Delete removes an attribute.
func (a *Attrs) Delete(key string) {
	if _, ok := a.values[key]; !ok {
		return
	}
	delete(a.values, key)
	for i, k := range a.keys {
		if k == key {
			a.keys = append(a.keys[:i], a.keys[i+1:]...)
			break
		}
	}
}

func (a *Attrs) Keys() []string { return a.keys }

func (a *Attrs) Get(key string) (interface{}, bool) {
	v, ok := a.values[key]
	return v, ok
}

func (a *Attrs) GetType(key string) (string, bool) {
	v, ok := a.values[key]
	if !ok {
		return "", false
	}
	return elemType(v), true
}

func (a *Attrs) GetGoType(key string) (string, bool) {
	return a.GetType(key)
}

// Var is a variable holding its values as nested slices,
// leading dimension first.
type Var struct {
	values interface{}
	dims   []string
	shape  []int64
	attrs  *Attrs
}

func (v *Var) Len() int64 {
	if len(v.shape) == 0 {
		return 1
	}
	return v.shape[0]
}

func (v *Var) Values() (interface{}, error) { return v.values, nil }

func (v *Var) GetSlice(begin, end int64) (interface{}, error) {
	rv := reflect.ValueOf(v.values)
	if rv.Kind() != reflect.Slice || begin < 0 || end > int64(rv.Len()) || begin > end {
		return nil, fmt.Errorf("slice [%d:%d] out of range", begin, end)
	}
	return rv.Slice(int(begin), int(end)).Interface(), nil
}

func (v *Var) GetSliceMD(begin, end []int64) (interface{}, error) {
	return nil, fmt.Errorf("GetSliceMD not supported")
}

func (v *Var) Shape() []int64               { return v.shape }
func (v *Var) Dimensions() []string         { return v.dims }
func (v *Var) Attributes() api.AttributeMap { return v.attrs }
func (v *Var) Type() string                 { return v.GoType() }
func (v *Var) GoType() string               { return elemType(v.values) }

// Attrs returns the attributes of v, for modification.
func (v *Var) Attrs() *Attrs { return v.attrs }

// Dataset is an in memory NetCDF group.
type Dataset struct {
	dimNames []string
	dims     map[string]uint64
	varNames []string
	vars     map[string]*Var

	// Closed counts the calls to Close.
	Closed int
}

// NewDataset returns an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{dims: map[string]uint64{}, vars: map[string]*Var{}}
}

// Dim declares a dimension of length n.
func (ds *Dataset) Dim(name string, n int) *Dataset {
	ds.dimNames = append(ds.dimNames, name)
	ds.dims[name] = uint64(n)
	return ds
}

// Variable adds a variable over dims, which must be declared already.
// A nil attrs gives an empty attribute map.
func (ds *Dataset) Variable(name string, dims []string, values interface{}, attrs *Attrs) *Dataset {
	if attrs == nil {
		attrs = NewAttrs()
	}
	shape := make([]int64, len(dims))
	for i, d := range dims {
		shape[i] = int64(ds.dims[d])
	}
	ds.varNames = append(ds.varNames, name)
	ds.vars[name] = &Var{values: values, dims: dims, shape: shape, attrs: attrs}
	return ds
}

// Var returns the named variable, or nil.
func (ds *Dataset) Var(name string) *Var {
	return ds.vars[name]
}

func (ds *Dataset) ListVariables() []string { return ds.varNames }

func (ds *Dataset) GetVarGetter(name string) (api.VarGetter, error) {
	v, ok := ds.vars[name]
	if !ok {
		return nil, fmt.Errorf("variable %s not found", name)
	}
	return v, nil
}

func (ds *Dataset) ListDimensions() []string { return ds.dimNames }

func (ds *Dataset) GetDimension(name string) (uint64, bool) {
	n, ok := ds.dims[name]
	return n, ok
}

func (ds *Dataset) Attributes() api.AttributeMap {
	return NewAttrs("Conventions", "CF-1.7")
}

func (ds *Dataset) Close() { ds.Closed++ }

func elemType(v interface{}) string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		t = t.Elem()
	}
	return t.String()
}

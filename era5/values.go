package era5

import (
	"fmt"
	"math"
)

// Values returns the slice at index along the leading axis of variable
// name, flattened in row-major order. Packed values are unpacked with
// `scale_factor` and `add_offset`; `_FillValue` and `missing_value`
// become NaN.
func (d *Data) Values(name string, index int) ([]float64, error) {
	if d.ds == nil || !hasVariable(d.ds, name) {
		return nil, fmt.Errorf("%w: `%s`", ErrNotVariable, name)
	}
	vg, err := d.ds.GetVarGetter(name)
	if err != nil {
		return nil, fmt.Errorf("era5: reading variable `%s`: %w", name, err)
	}
	shape := vg.Shape()
	if len(shape) == 0 {
		return nil, fmt.Errorf("%w: `%s` is a scalar", ErrNotVariable, name)
	}
	if index < 0 || int64(index) >= shape[0] {
		return nil, fmt.Errorf("%w: %d not in [0, %d) for `%s`", ErrIndexOutOfRange, index, shape[0], name)
	}

	slice, err := vg.GetSlice(int64(index), int64(index)+1)
	if err != nil {
		return nil, fmt.Errorf("era5: reading `%s` at %d: %w", name, index, err)
	}
	vals, err := flatten(nil, slice)
	if err != nil {
		return nil, fmt.Errorf("era5: reading `%s` at %d: %w", name, index, err)
	}

	attrs := vg.Attributes()
	scale, hasScale, err := floatAttr(attrs, "scale_factor")
	if err != nil {
		return nil, fmt.Errorf("era5: variable `%s`: %w", name, err)
	}
	if !hasScale {
		scale = 1
	}
	offset, _, err := floatAttr(attrs, "add_offset")
	if err != nil {
		return nil, fmt.Errorf("era5: variable `%s`: %w", name, err)
	}
	var fills []float64
	for _, key := range []string{"_FillValue", "missing_value"} {
		fill, ok, err := floatAttr(attrs, key)
		if err != nil {
			return nil, fmt.Errorf("era5: variable `%s`: %w", name, err)
		}
		if ok {
			fills = append(fills, fill)
		}
	}

	for i, v := range vals {
		if isFill(v, fills) {
			vals[i] = math.NaN()
			continue
		}
		vals[i] = v*scale + offset
	}
	return vals, nil
}

func isFill(v float64, fills []float64) bool {
	for _, f := range fills {
		if v == f || (math.IsNaN(f) && math.IsNaN(v)) {
			return true
		}
	}
	return false
}

package era5

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/spf13/cast"
)

// GridInfo describes the uniform rectilinear grid of a dataset.
type GridInfo struct {
	// Shape lists the length of the ensemble, level, latitude
	// and longitude axes, in this order, skipping absent axes.
	Shape         []int      `yaml:"shape,flow"`
	YXSpacing     [2]float64 `yaml:"yx_spacing,flow"`
	YXOfLowerLeft [2]float64 `yaml:"yx_of_lower_left,flow"`
}

// shapeAxes lists the grid axes in output order. Each
// axis is known by any of the given dimension names.
var shapeAxes = [][]string{
	{"number"},
	{"level", "pressure_level"},
	{"latitude"},
	{"longitude"},
}

// GridInfo returns the grid description of the loaded dataset,
// or nil when no dataset is loaded. The spacing is taken from the
// coordinates when both have more than one sample, otherwise from the
// `grid` entry of the request, given as [lon_step, lat_step].
func (d *Data) GridInfo() (*GridInfo, error) {
	if d.ds == nil {
		return nil, nil
	}

	info := &GridInfo{Shape: []int{}}
	for _, names := range shapeAxes {
		for _, name := range names {
			if n, ok := d.ds.GetDimension(name); ok {
				info.Shape = append(info.Shape, int(n))
				break
			}
		}
	}

	lat, _, err := readFloats(d.ds, "latitude")
	if err != nil {
		return nil, err
	}
	lon, _, err := readFloats(d.ds, "longitude")
	if err != nil {
		return nil, err
	}
	if len(lat) == 0 || len(lon) == 0 {
		return nil, fmt.Errorf("era5: empty latitude or longitude coordinate in `%s`", d.path)
	}

	if len(lat) > 1 && len(lon) > 1 {
		info.YXSpacing = [2]float64{round3(lat[0] - lat[1]), round3(lon[1] - lon[0])}
	} else {
		steps, err := requestGrid(d.request)
		if err != nil {
			return nil, err
		}
		info.YXSpacing = [2]float64{steps[1], steps[0]}
	}

	info.YXOfLowerLeft = [2]float64{lat[len(lat)-1], lon[0]}
	return info, nil
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}

// requestGrid reads the `grid` request entry. It may be a list of
// numbers, or a string in the archive's "lon_step/lat_step" form.
func requestGrid(request map[string]interface{}) ([]float64, error) {
	v, ok := request["grid"]
	if !ok || v == nil {
		return nil, ErrGridSpacing
	}

	var items []interface{}
	if s, isString := v.(string); isString {
		for _, part := range strings.Split(s, "/") {
			items = append(items, strings.TrimSpace(part))
		}
	} else {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil, fmt.Errorf("%w: `grid` is %v", ErrGridSpacing, v)
		}
		for i := 0; i < rv.Len(); i++ {
			items = append(items, rv.Index(i).Interface())
		}
	}

	if len(items) != 2 {
		return nil, fmt.Errorf("%w: `grid` must hold two values, got %v", ErrGridSpacing, v)
	}
	steps := make([]float64, 2)
	for i, item := range items {
		f, err := cast.ToFloat64E(item)
		if err != nil {
			return nil, fmt.Errorf("%w: `grid` value %v: %s", ErrGridSpacing, item, err)
		}
		steps[i] = f
	}
	return steps, nil
}

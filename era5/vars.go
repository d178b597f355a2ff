package era5

import (
	"fmt"
	"strings"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// VarInfo describes a data variable. NBytes is the size of
// one time step, the slice along the leading axis.
type VarInfo struct {
	VarName  string `yaml:"var_name"`
	DType    string `yaml:"dtype"`
	ItemSize int    `yaml:"itemsize"`
	NBytes   int    `yaml:"nbytes"`
	Units    string `yaml:"units"`
	Location string `yaml:"location"`
}

// dataVariables lists the variables that are neither dimension
// coordinates nor auxiliary coordinates named by a `coordinates`
// attribute, in file order.
func dataVariables(ds Dataset) []string {
	coords := map[string]bool{}
	for _, dim := range ds.ListDimensions() {
		coords[dim] = true
	}
	names := ds.ListVariables()
	for _, name := range names {
		vg, err := ds.GetVarGetter(name)
		if err != nil {
			continue
		}
		if aux, ok := stringAttr(vg.Attributes(), "coordinates"); ok {
			for _, c := range strings.Fields(aux) {
				coords[c] = true
			}
		}
	}

	res := make([]string, 0, len(names))
	for _, name := range names {
		if !coords[name] {
			res = append(res, name)
		}
	}
	return res
}

// VarInfo returns the data variables with at least three dimensions,
// keyed by their long name. The map is empty when no dataset is loaded.
func (d *Data) VarInfo() (map[string]VarInfo, error) {
	res := map[string]VarInfo{}
	if d.ds == nil {
		return res, nil
	}

	for _, name := range dataVariables(d.ds) {
		vg, err := d.ds.GetVarGetter(name)
		if err != nil {
			return nil, fmt.Errorf("era5: reading variable `%s`: %w", name, err)
		}
		shape := vg.Shape()
		if len(shape) < 3 {
			continue
		}

		info, err := varInfo(name, vg)
		if err != nil {
			return nil, err
		}

		key := name
		if longName, ok := stringAttr(vg.Attributes(), "long_name"); ok && longName != "" {
			key = longName
		}
		if other, dup := res[key]; dup {
			return nil, fmt.Errorf("%w: `%s` is used by `%s` and `%s`", ErrDuplicateLongName, key, other.VarName, name)
		}
		res[key] = info
	}
	return res, nil
}

func varInfo(name string, vg api.VarGetter) (VarInfo, error) {
	attrs := vg.Attributes()
	raw := vg.GoType()
	itemSize, ok := itemSizes[raw]
	if !ok {
		return VarInfo{}, fmt.Errorf("era5: variable `%s` has unsupported element type `%s`", name, raw)
	}

	dtype := raw
	if sf, ok := attrValue(attrs, "scale_factor"); ok {
		dtype = typeName(sf)
	}

	nbytes := itemSize
	for _, n := range vg.Shape()[1:] {
		nbytes *= int(n)
	}

	units, _ := stringAttr(attrs, "units")
	return VarInfo{
		VarName:  name,
		DType:    dtype,
		ItemSize: itemSize,
		NBytes:   nbytes,
		Units:    units,
		Location: "node",
	}, nil
}

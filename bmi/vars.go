package bmi

import (
	"fmt"

	"github.com/meteocima/bmi-era5/era5"
)

// GetInputItemCount ...
func (m *Era5) GetInputItemCount() int {
	return 0
}

// GetOutputItemCount ...
func (m *Era5) GetOutputItemCount() int {
	return len(m.names)
}

// GetInputVarNames returns an empty list: the component accepts no input.
func (m *Era5) GetInputVarNames() []string {
	return []string{}
}

// GetOutputVarNames returns the long names of the
// dataset variables, in lexical order.
func (m *Era5) GetOutputVarNames() []string {
	return append([]string{}, m.names...)
}

func (m *Era5) varInfo(name string) (era5.VarInfo, error) {
	if m.data == nil {
		return era5.VarInfo{}, ErrNotInitialized
	}
	info, ok := m.vars[name]
	if !ok {
		return era5.VarInfo{}, fmt.Errorf("%w: `%s`", ErrUnknownVariable, name)
	}
	return info, nil
}

// GetVarType ...
func (m *Era5) GetVarType(name string) (string, error) {
	info, err := m.varInfo(name)
	return info.DType, err
}

// GetVarUnits ...
func (m *Era5) GetVarUnits(name string) (string, error) {
	info, err := m.varInfo(name)
	return info.Units, err
}

// GetVarItemsize ...
func (m *Era5) GetVarItemsize(name string) (int, error) {
	info, err := m.varInfo(name)
	return info.ItemSize, err
}

// GetVarNbytes returns the size in bytes of one time step of name.
func (m *Era5) GetVarNbytes(name string) (int, error) {
	info, err := m.varInfo(name)
	return info.NBytes, err
}

// GetVarLocation ...
func (m *Era5) GetVarLocation(name string) (string, error) {
	info, err := m.varInfo(name)
	return info.Location, err
}

// GetVarGrid returns the grid of name, always 0.
func (m *Era5) GetVarGrid(name string) (int, error) {
	_, err := m.varInfo(name)
	return 0, err
}

// GetValue returns the values of name at the current time
// step, unpacked and flattened in row-major order.
func (m *Era5) GetValue(name string) ([]float64, error) {
	info, err := m.varInfo(name)
	if err != nil {
		return nil, err
	}
	return m.data.Values(info.VarName, m.index)
}

// GetValueAtIndices returns the values of name at the current
// time step for the given flat indices.
func (m *Era5) GetValueAtIndices(name string, indices []int) ([]float64, error) {
	vals, err := m.GetValue(name)
	if err != nil {
		return nil, err
	}
	res := make([]float64, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(vals) {
			return nil, fmt.Errorf("%w: %d not in [0, %d) for `%s`", era5.ErrIndexOutOfRange, idx, len(vals), name)
		}
		res[i] = vals[idx]
	}
	return res, nil
}

package bmi

import "fmt"

func (m *Era5) checkGrid(grid int) error {
	if m.data == nil {
		return ErrNotInitialized
	}
	if grid != 0 {
		return fmt.Errorf("%w: %d", ErrUnknownGrid, grid)
	}
	return nil
}

// GetGridType ...
func (m *Era5) GetGridType(grid int) (string, error) {
	if err := m.checkGrid(grid); err != nil {
		return "", err
	}
	return GridType, nil
}

// GetGridRank ...
func (m *Era5) GetGridRank(grid int) (int, error) {
	if err := m.checkGrid(grid); err != nil {
		return 0, err
	}
	return len(m.grid.Shape), nil
}

// GetGridSize returns the number of nodes of the grid.
func (m *Era5) GetGridSize(grid int) (int, error) {
	if err := m.checkGrid(grid); err != nil {
		return 0, err
	}
	size := 1
	for _, n := range m.grid.Shape {
		size *= n
	}
	return size, nil
}

// GetGridShape ...
func (m *Era5) GetGridShape(grid int) ([]int, error) {
	if err := m.checkGrid(grid); err != nil {
		return nil, err
	}
	return append([]int{}, m.grid.Shape...), nil
}

// GetGridSpacing returns the latitude and longitude spacing, in degrees.
func (m *Era5) GetGridSpacing(grid int) ([]float64, error) {
	if err := m.checkGrid(grid); err != nil {
		return nil, err
	}
	return []float64{m.grid.YXSpacing[0], m.grid.YXSpacing[1]}, nil
}

// GetGridOrigin returns the latitude and longitude of the lower left node.
func (m *Era5) GetGridOrigin(grid int) ([]float64, error) {
	if err := m.checkGrid(grid); err != nil {
		return nil, err
	}
	return []float64{m.grid.YXOfLowerLeft[0], m.grid.YXOfLowerLeft[1]}, nil
}

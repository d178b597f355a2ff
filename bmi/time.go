package bmi

func (m *Era5) ready() error {
	if m.data == nil {
		return ErrNotInitialized
	}
	return nil
}

// GetStartTime ...
func (m *Era5) GetStartTime() (float64, error) {
	if err := m.ready(); err != nil {
		return 0, err
	}
	return m.times.StartTime, nil
}

// GetEndTime ...
func (m *Era5) GetEndTime() (float64, error) {
	if err := m.ready(); err != nil {
		return 0, err
	}
	return m.times.EndTime, nil
}

// GetCurrentTime returns the time value of the current step.
func (m *Era5) GetCurrentTime() (float64, error) {
	if err := m.ready(); err != nil {
		return 0, err
	}
	return m.times.TimeValue[m.index], nil
}

// GetTimeStep returns the spacing of the first two time values,
// 0 for single step datasets.
func (m *Era5) GetTimeStep() (float64, error) {
	if err := m.ready(); err != nil {
		return 0, err
	}
	return m.times.TimeStep, nil
}

// GetTimeUnits ...
func (m *Era5) GetTimeUnits() (string, error) {
	if err := m.ready(); err != nil {
		return "", err
	}
	return m.times.TimeUnits, nil
}

// GetCalendar ...
func (m *Era5) GetCalendar() (string, error) {
	if err := m.ready(); err != nil {
		return "", err
	}
	return m.times.Calendar, nil
}

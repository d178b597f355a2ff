// Package bmi exposes an ERA5 dataset through the Basic Model
// Interface, so that model coupling frameworks can step through
// the archived data as they would through a running model.
package bmi

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/meteocima/bmi-era5/cds"
	"github.com/meteocima/bmi-era5/conf"
	"github.com/meteocima/bmi-era5/era5"
	"github.com/meteocima/bmi-era5/fsutil"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotInitialized  = errors.New("bmi: component is not initialized")
	ErrEndOfTime       = errors.New("bmi: no time step after the end time")
	ErrUnknownVariable = errors.New("bmi: unknown variable")
	ErrUnknownGrid     = errors.New("bmi: unknown grid")
)

// GridType is the type of the only grid exposed by the component.
const GridType = "uniform_rectilinear"

// ComponentName ...
const ComponentName = "ERA5"

// Era5 is a BMI component serving one ERA5 dataset.
// Only output variables are provided, all on grid 0.
type Era5 struct {
	Log logrus.FieldLogger

	// Retriever downloads missing datasets. When nil, a CDS client is
	// built from the configuration the first time a download is needed.
	Retriever era5.Retriever
	// Open overrides how dataset files are opened.
	Open era5.OpenFunc

	data  *era5.Data
	grid  *era5.GridInfo
	times *era5.TimeInfo
	vars  map[string]era5.VarInfo
	names []string
	index int
}

func (m *Era5) log() logrus.FieldLogger {
	if m.Log == nil {
		return logrus.StandardLogger()
	}
	return m.Log
}

// Initialize reads the TOML configuration in configFile, retrieves
// the configured dataset unless its file already exists, and
// positions the component on the first time step.
func (m *Era5) Initialize(configFile string) error {
	return m.InitializeContext(context.Background(), configFile)
}

// InitializeContext is Initialize with a context bounding the retrieval.
func (m *Era5) InitializeContext(ctx context.Context, configFile string) error {
	cfg, err := conf.Load(fsutil.Path(filepath.ToSlash(configFile)))
	if err != nil {
		return err
	}
	if cfg.Dataset.Path == "" {
		return fmt.Errorf("%w: `%s` has no dataset path", era5.ErrConfiguration, configFile)
	}

	retriever := m.Retriever
	if retriever == nil {
		cdsConf := cfg.CDS
		retriever = era5.RetrieverFunc(func(ctx context.Context, product string, request cds.Request, target string) error {
			client, err := cdsConf.Client()
			if err != nil {
				return err
			}
			client.Log = m.log()
			return client.Retrieve(ctx, product, request, target)
		})
	}

	data := &era5.Data{Retriever: retriever, Open: m.Open, Log: m.log()}
	path := filepath.FromSlash(cfg.Dataset.Path.String())
	if _, err := data.RetrieveOrLoad(ctx, cfg.Dataset.Name, cfg.Dataset.Request, path); err != nil {
		return err
	}

	grid, err := data.GridInfo()
	var times *era5.TimeInfo
	if err == nil {
		times, err = data.TimeInfo()
	}
	var vars map[string]era5.VarInfo
	if err == nil {
		vars, err = data.VarInfo()
	}
	if err != nil {
		data.Close()
		return err
	}

	// the previous dataset is served until the new one is ready.
	if m.data != nil {
		m.Finalize()
	}
	m.data = data
	m.grid = grid
	m.times = times
	m.vars = vars
	m.index = 0
	m.names = make([]string, 0, len(m.vars))
	for name := range m.vars {
		m.names = append(m.names, name)
	}
	sort.Strings(m.names)

	m.log().WithFields(logrus.Fields{
		"path":      path,
		"steps":     m.times.TotalSteps,
		"variables": len(m.names),
	}).Info("ERA5 component initialized")
	return nil
}

// Update advances the component by one time step.
func (m *Era5) Update() error {
	if m.data == nil {
		return ErrNotInitialized
	}
	if m.index+1 >= m.times.TotalSteps {
		return ErrEndOfTime
	}
	m.index++
	return nil
}

// UpdateUntil advances the component to the last time
// step not later than t.
func (m *Era5) UpdateUntil(t float64) error {
	if m.data == nil {
		return ErrNotInitialized
	}
	if t > m.times.EndTime {
		return fmt.Errorf("%w: %v is after %v", ErrEndOfTime, t, m.times.EndTime)
	}
	for m.index+1 < m.times.TotalSteps && m.times.TimeValue[m.index+1] <= t {
		m.index++
	}
	return nil
}

// Finalize releases the dataset.
func (m *Era5) Finalize() error {
	if m.data != nil {
		m.data.Close()
	}
	m.data, m.grid, m.times, m.vars, m.names, m.index = nil, nil, nil, nil, nil, 0
	return nil
}

// GetComponentName ...
func (m *Era5) GetComponentName() string {
	return ComponentName
}

// Data returns the adapter serving the component, or nil.
func (m *Era5) Data() *era5.Data {
	return m.data
}

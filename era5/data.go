// Package era5 retrieves ERA5 reanalysis products and exposes the
// grid, time and variable metadata of the downloaded NetCDF dataset.
package era5

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/meteocima/bmi-era5/cds"
	"github.com/meteocima/bmi-era5/fsutil"
	"github.com/sirupsen/logrus"
)

var (
	// ErrConfiguration reports a request or configuration that
	// lacks information needed to describe the dataset.
	ErrConfiguration = errors.New("era5: configuration error")
	// ErrGridSpacing is returned when the grid spacing can neither be
	// derived from the coordinates nor read from the request `grid` entry.
	ErrGridSpacing = fmt.Errorf("%w: the request needs a `grid` entry to describe the grid spacing", ErrConfiguration)
	// ErrNoRetriever is returned when the dataset file is missing
	// and no Retriever was configured to download it.
	ErrNoRetriever       = errors.New("era5: dataset file is missing and no retriever is configured")
	ErrNoTimeCoordinate  = errors.New("era5: dataset has neither a `valid_time` nor a `date` coordinate")
	ErrDuplicateLongName = errors.New("era5: long name shared by more than one variable")
	ErrIndexOutOfRange   = errors.New("era5: index out of range")
	ErrNotVariable       = errors.New("era5: not a data variable")
)

// Dataset is the read only view of an opened NetCDF file.
// api.Group values returned by go-native-netcdf satisfy it.
type Dataset interface {
	ListVariables() []string
	GetVarGetter(name string) (api.VarGetter, error)
	ListDimensions() []string
	GetDimension(name string) (uint64, bool)
	Attributes() api.AttributeMap
	Close()
}

// Retriever downloads product, filtered by request, to target.
// *cds.Client implements it.
type Retriever interface {
	Retrieve(ctx context.Context, product string, request cds.Request, target string) error
}

// RetrieverFunc adapts a function to the Retriever interface.
type RetrieverFunc func(ctx context.Context, product string, request cds.Request, target string) error

// Retrieve calls f.
func (f RetrieverFunc) Retrieve(ctx context.Context, product string, request cds.Request, target string) error {
	return f(ctx, product, request, target)
}

// OpenFunc opens the dataset file at path.
type OpenFunc func(path string) (Dataset, error)

// OpenNetCDF opens a NetCDF classic or NetCDF4 file. Values are
// returned as stored on disk: no scale, offset or time decoding applies.
func OpenNetCDF(path string) (Dataset, error) {
	group, err := netcdf.Open(path)
	if err != nil {
		return nil, err
	}
	return group, nil
}

// Data holds one ERA5 dataset, retrieved from the archive on first use
// and read from the local file afterwards. A zero Data is empty and
// ready to use. Data is not safe for concurrent use.
type Data struct {
	Retriever Retriever
	Open      OpenFunc
	Log       logrus.FieldLogger

	ds      Dataset
	path    string
	product string
	request cds.Request
}

// New returns an empty Data that uses retriever to download missing files.
func New(retriever Retriever) *Data {
	return &Data{Retriever: retriever}
}

// Dataset returns the handle of the loaded dataset, or nil.
func (d *Data) Dataset() Dataset {
	return d.ds
}

// Path ...
func (d *Data) Path() string {
	return d.path
}

// Product ...
func (d *Data) Product() string {
	return d.product
}

// Request returns the request the dataset was retrieved with.
func (d *Data) Request() cds.Request {
	return d.request
}

// Loaded reports whether a dataset is held.
func (d *Data) Loaded() bool {
	return d.ds != nil
}

func (d *Data) log() logrus.FieldLogger {
	if d.Log == nil {
		return logrus.StandardLogger()
	}
	return d.Log
}

// RetrieveOrLoad makes the dataset at path available. When no file exists
// at path, product is retrieved from the archive with request first. The
// file is then opened and kept as the current dataset, replacing and
// closing any dataset previously held. The existing file is trusted as is:
// it is not checked against request.
func (d *Data) RetrieveOrLoad(ctx context.Context, product string, request cds.Request, path string) (Dataset, error) {
	// a leading `~/` is expanded once, so that the existence
	// check, the download and the open all use the same file.
	dest := fsutil.Path(filepath.ToSlash(path)).Resolve("")
	path = filepath.FromSlash(dest.String())

	log := d.log().WithFields(logrus.Fields{
		"product": product,
		"path":    path,
	})

	tr := fsutil.Transaction{}
	exists := tr.Exists(dest)
	if tr.Err != nil {
		return nil, tr.Err
	}

	if exists {
		log.Debug("dataset file exists, skipping retrieval")
	} else {
		if d.Retriever == nil {
			return nil, ErrNoRetriever
		}
		log.Debug("retrieving dataset")
		if err := d.Retriever.Retrieve(ctx, product, request, path); err != nil {
			return nil, fmt.Errorf("era5: retrieving `%s` into `%s`: %w", product, path, err)
		}
	}

	open := d.Open
	if open == nil {
		open = OpenNetCDF
	}
	ds, err := open(path)
	if err != nil {
		return nil, fmt.Errorf("era5: opening `%s`: %w", path, err)
	}

	if d.ds != nil {
		log.WithField("previous", d.path).Debug("closing previous dataset")
		d.ds.Close()
	}
	d.ds = ds
	d.path = path
	d.product = product
	d.request = request
	log.Debug("dataset loaded")
	return ds, nil
}

// Close releases the dataset handle and returns d to the empty state.
func (d *Data) Close() {
	if d.ds != nil {
		d.ds.Close()
	}
	*d = Data{Retriever: d.Retriever, Open: d.Open, Log: d.Log}
}

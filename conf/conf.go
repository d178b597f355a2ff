package conf

// This module contains data structures
// used to keep configuration variables
// for the command and the BMI component.

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/meteocima/bmi-era5/cds"
	"github.com/meteocima/bmi-era5/era5"
	"github.com/meteocima/bmi-era5/fsutil"
	"github.com/sirupsen/logrus"
)

// Duration is a time.Duration read from
// strings such as "2s" or "1m30s".
type Duration struct {
	time.Duration
}

// UnmarshalText ...
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// CDSConf contains the access parameters of the Climate Data Store.
// Empty URL and Key are read from the environment or the
// credentials file.
type CDSConf struct {
	URL             string
	Key             string
	CredentialsFile fsutil.Path
	PollInterval    Duration
	MaxPollInterval Duration
	KeepJob         bool
}

// DatasetConf describes the product to retrieve
// and where to store it.
type DatasetConf struct {
	// Name is the CDS product name, e.g. reanalysis-era5-single-levels
	Name string
	// Path of the NetCDF file. When empty, the
	// command chooses one below the working directory.
	Path    fsutil.Path
	Request cds.Request
}

// LogConf ...
type LogConf struct {
	Level string
}

// Configuration contains all configuration
// sub structures
type Configuration struct {
	CDS     CDSConf
	Dataset DatasetConf
	Log     LogConf
}

// Config is the runtime configuration readed from file.
var Config Configuration

// Load reads the configuration in `confFile`. Relative paths
// it contains are resolved against the directory of the file.
func Load(confFile fsutil.Path) (Configuration, error) {
	var cfg Configuration
	if _, err := toml.DecodeFile(confFile.String(), &cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration `%s`: %w", confFile.String(), err)
	}

	confDir := confFile.Dir()
	cfg.Dataset.Path = cfg.Dataset.Path.Resolve(confDir)
	cfg.CDS.CredentialsFile = cfg.CDS.CredentialsFile.Resolve(confDir)

	if cfg.Dataset.Name == "" {
		return cfg, fmt.Errorf("%w: `%s` has no dataset name", era5.ErrConfiguration, confFile.String())
	}
	if cfg.Dataset.Request == nil {
		cfg.Dataset.Request = cds.Request{}
	}
	return cfg, nil
}

// Init initializes the system by reading configuration
// from `confFile`.
func Init(confFile fsutil.Path) error {
	cfg, err := Load(confFile)
	if err != nil {
		return err
	}
	Config = cfg
	return nil
}

// Client builds a CDS client from the configured access parameters.
func (c CDSConf) Client() (*cds.Client, error) {
	creds, err := cds.LoadCredentials(c.URL, c.Key, filepath.FromSlash(c.CredentialsFile.String()))
	if err != nil {
		return nil, err
	}
	client := cds.NewClient(creds)
	if c.PollInterval.Duration > 0 {
		client.PollInterval = c.PollInterval.Duration
	}
	if c.MaxPollInterval.Duration > 0 {
		client.MaxPollInterval = c.MaxPollInterval.Duration
	}
	client.KeepJob = c.KeepJob
	return client, nil
}

// Apply sets the level of logger. An empty level leaves it unchanged.
func (l LogConf) Apply(logger *logrus.Logger) error {
	if l.Level == "" {
		return nil
	}
	level, err := logrus.ParseLevel(l.Level)
	if err != nil {
		return fmt.Errorf("%w: log level: %s", era5.ErrConfiguration, err)
	}
	logger.SetLevel(level)
	return nil
}

package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/meteocima/bmi-era5/cds"
	"github.com/meteocima/bmi-era5/conf"
	"github.com/meteocima/bmi-era5/era5"
	"github.com/meteocima/bmi-era5/folders"
	"github.com/meteocima/bmi-era5/fsutil"
	"github.com/parro-it/fileargs"
	"github.com/sirupsen/logrus"
)

// ErrMultiplePeriods is returned by Fetch when asked for
// more than one period: each run retrieves a single request.
var ErrMultiplePeriods = errors.New("runner: cannot fetch more than one period in a run")

var (
	// Retriever downloads missing datasets. When nil, a
	// CDS client is built from conf.Config.
	Retriever era5.Retriever
	// Open overrides how dataset files are opened.
	Open era5.OpenFunc
	// Metrics collects the statistics of the CDS client built by Fetch.
	Metrics *cds.Metrics
	// Log ...
	Log logrus.FieldLogger = logrus.StandardLogger()
)

// Init ...
func Init(cfgFile, workdir fsutil.Path) error {
	folders.Root = workdir

	err := conf.Init(cfgFile)
	if err != nil {
		return err
	}

	return conf.Config.Log.Apply(logrus.StandardLogger())
}

func retriever() era5.Retriever {
	if Retriever != nil {
		return Retriever
	}
	cdsConf := conf.Config.CDS
	return era5.RetrieverFunc(func(ctx context.Context, product string, request cds.Request, target string) error {
		client, err := cdsConf.Client()
		if err != nil {
			return err
		}
		client.Log = Log
		client.Metrics = Metrics
		return client.Retrieve(ctx, product, request, target)
	})
}

// Destination returns the path of the dataset file: the configured
// path when set, otherwise the default one for the period.
func Destination(period *fileargs.Period) (fsutil.Path, error) {
	if conf.Config.Dataset.Path != "" {
		return conf.Config.Dataset.Path, nil
	}
	if period == nil {
		return "", fmt.Errorf("%w: no dataset path configured and no period given", era5.ErrConfiguration)
	}
	return folders.DatasetFile(period.Start, conf.Config.Dataset.Name), nil
}

// Fetch retrieves the configured dataset unless its file exists
// already, and writes its metadata report to out and beside the
// dataset file. With a period, the configured request selects
// the hours of the period.
func Fetch(ctx context.Context, periods []*fileargs.Period, out io.Writer) error {
	if len(periods) > 1 {
		return ErrMultiplePeriods
	}
	var period *fileargs.Period
	if len(periods) == 1 {
		period = periods[0]
	}

	request := conf.Config.Dataset.Request.Clone()
	if period != nil {
		for k, v := range PeriodSelectors(period) {
			request[k] = v
		}
	}

	dest, err := Destination(period)
	if err != nil {
		return err
	}

	log := Log.WithFields(logrus.Fields{
		"product": conf.Config.Dataset.Name,
		"path":    dest.String(),
	})
	if period != nil {
		log = log.WithField("period", period.String())
	}
	log.Info("fetching dataset")

	tr := fsutil.Transaction{}
	tr.MkDir(dest.Dir())
	if tr.Err != nil {
		return tr.Err
	}

	data := &era5.Data{Retriever: retriever(), Open: Open, Log: Log}
	defer data.Close()
	_, err = data.RetrieveOrLoad(ctx, conf.Config.Dataset.Name, request, filepath.FromSlash(dest.String()))
	if err != nil {
		return err
	}

	content, err := renderReport(data)
	if err != nil {
		return err
	}
	reportFile := folders.ReportFile(dest)
	tr.Save(reportFile, content, os.FileMode(0644))
	if tr.Err != nil {
		return tr.Err
	}
	log.WithField("report", reportFile.String()).Info("dataset ready")

	_, err = out.Write(content)
	return err
}

// Info writes the metadata report of an existing dataset file to out.
func Info(ctx context.Context, file string, out io.Writer) error {
	data := &era5.Data{Open: Open, Log: Log}
	defer data.Close()
	if _, err := data.RetrieveOrLoad(ctx, "", conf.Config.Dataset.Request, file); err != nil {
		if errors.Is(err, era5.ErrNoRetriever) {
			return fmt.Errorf("dataset file not found: %s", file)
		}
		return err
	}
	return Report(out, data)
}

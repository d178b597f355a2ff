package runner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/meteocima/bmi-era5/cds"
	"github.com/meteocima/bmi-era5/conf"
	"github.com/meteocima/bmi-era5/era5"
	"github.com/meteocima/bmi-era5/era5/era5test"
	"github.com/meteocima/bmi-era5/folders"
	"github.com/meteocima/bmi-era5/fsutil"
	"github.com/parro-it/fileargs"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

type recordingRetriever struct {
	calls   int
	product string
	request cds.Request
	target  string
}

func (r *recordingRetriever) Retrieve(ctx context.Context, product string, request cds.Request, target string) error {
	r.calls++
	r.product = product
	r.request = request
	r.target = target
	return os.WriteFile(target, []byte("CDF"), 0644)
}

// withState configures the package globals for a test and
// restores them afterwards.
func withState(t *testing.T, cfg conf.Configuration) *recordingRetriever {
	prevCfg, prevRoot := conf.Config, folders.Root
	prevRetriever, prevOpen, prevLog := Retriever, Open, Log
	t.Cleanup(func() {
		conf.Config, folders.Root = prevCfg, prevRoot
		Retriever, Open, Log = prevRetriever, prevOpen, prevLog
	})

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	retriever := &recordingRetriever{}
	conf.Config = cfg
	folders.Root = fsutil.Path(filepath.ToSlash(t.TempDir()))
	Retriever = retriever
	Open = func(string) (era5.Dataset, error) { return era5test.SingleHour(), nil }
	Log = logger
	return retriever
}

func singleLevels() conf.Configuration {
	return conf.Configuration{
		Dataset: conf.DatasetConf{
			Name: "reanalysis-era5-single-levels",
			Request: cds.Request{
				"product_type": "reanalysis",
				"variable":     []interface{}{"2m_temperature", "total_precipitation"},
				"year":         "1999",
				"area":         []interface{}{int64(41), int64(-109), int64(36), int64(-102)},
			},
		},
	}
}

func TestPeriodSelectors(t *testing.T) {
	sel := PeriodSelectors(&fileargs.Period{
		Start:    time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		Duration: 3 * time.Hour,
	})
	assert.Equal(t, cds.Request{
		"year":  []string{"2021"},
		"month": []string{"01"},
		"day":   []string{"01"},
		"time":  []string{"00:00", "01:00", "02:00"},
	}, sel)
}

func TestPeriodSelectorsAcrossMonths(t *testing.T) {
	sel := PeriodSelectors(&fileargs.Period{
		Start:    time.Date(2021, 1, 31, 22, 0, 0, 0, time.UTC),
		Duration: 4 * time.Hour,
	})
	assert.Equal(t, []string{"2021"}, sel["year"])
	assert.Equal(t, []string{"01", "02"}, sel["month"])
	assert.Equal(t, []string{"01", "31"}, sel["day"])
	assert.Equal(t, []string{"00:00", "01:00", "22:00", "23:00"}, sel["time"])
}

func TestPeriodSelectorsShortPeriod(t *testing.T) {
	sel := PeriodSelectors(&fileargs.Period{
		Start: time.Date(2020, 12, 31, 23, 0, 0, 0, time.UTC),
	})
	assert.Equal(t, []string{"2020"}, sel["year"])
	assert.Equal(t, []string{"12"}, sel["month"])
	assert.Equal(t, []string{"31"}, sel["day"])
	assert.Equal(t, []string{"23:00"}, sel["time"])
}

func TestFetchPeriod(t *testing.T) {
	retriever := withState(t, singleLevels())
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	period := &fileargs.Period{Start: start, Duration: 3 * time.Hour}

	var out bytes.Buffer
	err := Fetch(context.Background(), []*fileargs.Period{period}, &out)
	require.NoError(t, err)

	dest := folders.DatasetFile(start, "reanalysis-era5-single-levels")
	assert.Equal(t, 1, retriever.calls)
	assert.Equal(t, "reanalysis-era5-single-levels", retriever.product)
	assert.Equal(t, filepath.FromSlash(dest.String()), retriever.target)
	assert.Equal(t, []string{"2021"}, retriever.request["year"])
	assert.Equal(t, []string{"00:00", "01:00", "02:00"}, retriever.request["time"])
	assert.Equal(t, "reanalysis", retriever.request["product_type"])
	assert.Equal(t, "1999", conf.Config.Dataset.Request["year"], "configured request modified")

	saved, err := os.ReadFile(filepath.FromSlash(folders.ReportFile(dest).String()))
	require.NoError(t, err)
	assert.Equal(t, out.String(), string(saved))

	var report struct {
		Product string `yaml:"product"`
		Grid    struct {
			Shape     []int     `yaml:"shape"`
			YXSpacing []float64 `yaml:"yx_spacing"`
		} `yaml:"grid"`
		Time struct {
			StartTime  float64 `yaml:"start_time"`
			TotalSteps int     `yaml:"total_steps"`
		} `yaml:"time"`
		Variables map[string]struct {
			VarName string `yaml:"var_name"`
			NBytes  int    `yaml:"nbytes"`
		} `yaml:"variables"`
	}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, "reanalysis-era5-single-levels", report.Product)
	assert.Equal(t, []int{21, 29}, report.Grid.Shape)
	assert.Equal(t, []float64{0.25, 0.25}, report.Grid.YXSpacing)
	assert.Equal(t, 1609459200.0, report.Time.StartTime)
	assert.Equal(t, 3, report.Time.TotalSteps)
	assert.Equal(t, "t2m", report.Variables["2 metre temperature"].VarName)
	assert.Equal(t, 2436, report.Variables["Total precipitation"].NBytes)

	out.Reset()
	require.NoError(t, Fetch(context.Background(), []*fileargs.Period{period}, &out))
	assert.Equal(t, 1, retriever.calls)
}

func TestFetchConfiguredPath(t *testing.T) {
	cfg := singleLevels()
	cfg.Dataset.Path = fsutil.Path(filepath.ToSlash(filepath.Join(t.TempDir(), "era5", "single_hour.nc")))
	retriever := withState(t, cfg)

	var out bytes.Buffer
	require.NoError(t, Fetch(context.Background(), nil, &out))
	assert.Equal(t, filepath.FromSlash(cfg.Dataset.Path.String()), retriever.target)
	assert.Equal(t, "1999", retriever.request["year"])
	assert.FileExists(t, filepath.FromSlash(folders.ReportFile(cfg.Dataset.Path).String()))
}

func TestFetchErrors(t *testing.T) {
	retriever := withState(t, singleLevels())
	periods := []*fileargs.Period{
		{Start: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), Duration: time.Hour},
		{Start: time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC), Duration: time.Hour},
	}

	var out bytes.Buffer
	assert.ErrorIs(t, Fetch(context.Background(), periods, &out), ErrMultiplePeriods)
	assert.ErrorIs(t, Fetch(context.Background(), nil, &out), era5.ErrConfiguration)
	assert.Equal(t, 0, retriever.calls)
	assert.Empty(t, out.String())
}

func TestInfo(t *testing.T) {
	withState(t, conf.Configuration{})
	file := filepath.Join(t.TempDir(), "single_hour.nc")

	var out bytes.Buffer
	err := Info(context.Background(), file, &out)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(file, []byte("CDF"), 0644))
	require.NoError(t, Info(context.Background(), file, &out))
	assert.Contains(t, out.String(), "2 metre temperature")
	assert.Contains(t, out.String(), "yx_of_lower_left:")
}

func TestInit(t *testing.T) {
	withState(t, conf.Configuration{})
	level := logrus.GetLevel()
	t.Cleanup(func() { logrus.SetLevel(level) })

	workdir := fsutil.Path(filepath.ToSlash(t.TempDir()))
	err := Init(fsutil.Path(filepath.ToSlash(fixture("bmi-era5.toml"))), workdir)
	require.NoError(t, err)
	assert.Equal(t, workdir, folders.Root)
	assert.Equal(t, "reanalysis-era5-single-levels", conf.Config.Dataset.Name)
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
}

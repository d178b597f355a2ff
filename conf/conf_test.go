package conf

import (
	"os"
	"path"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/meteocima/bmi-era5/era5"
	"github.com/meteocima/bmi-era5/fsutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(filePath string) fsutil.Path {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		panic("cannot retrieve the source file path")
	} else {
		file = filepath.Dir(filepath.Dir(file))
	}

	return fsutil.Path(filepath.ToSlash(path.Join(file, "fixtures", filePath)))
}

func TestInit(t *testing.T) {
	err := Init(fixture("bmi-era5.toml"))
	require.NoError(t, err)

	assert.Equal(t, "reanalysis-era5-single-levels", Config.Dataset.Name)
	assert.Equal(t, fixture("single_hour.nc"), Config.Dataset.Path)
	assert.Equal(t, fixture("cdsapirc"), Config.CDS.CredentialsFile)
	assert.Equal(t, 2*time.Second, Config.CDS.PollInterval.Duration)
	assert.Equal(t, time.Minute, Config.CDS.MaxPollInterval.Duration)
	assert.Equal(t, "debug", Config.Log.Level)

	req := Config.Dataset.Request
	assert.Equal(t, "2021", req["year"])
	assert.Equal(t, []interface{}{"00:00", "01:00", "02:00"}, req["time"])
	assert.Equal(t, []interface{}{0.25, 0.25}, req["grid"])
	assert.Equal(t, []interface{}{int64(41), int64(-109), int64(36), int64(-102)}, req["area"])
}

func TestLoadAbsolutePath(t *testing.T) {
	cfg, err := Load(fixture("monthly-mean.toml"))
	require.NoError(t, err)
	assert.Equal(t, fsutil.Path("/data/era5/monthly_mean.nc"), cfg.Dataset.Path)
	assert.Equal(t, fsutil.Path(""), cfg.CDS.CredentialsFile)
	assert.Equal(t, "unarchived", cfg.Dataset.Request["download_format"])
	assert.Equal(t, []interface{}{"01", "02", "03", "04"}, cfg.Dataset.Request["month"])
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(fixture("missing.toml"))
	assert.Error(t, err)

	dir := t.TempDir()
	noName := filepath.Join(dir, "noname.toml")
	require.NoError(t, os.WriteFile(noName, []byte("[dataset]\npath = \"x.nc\"\n"), 0644))
	_, err = Load(fsutil.Path(filepath.ToSlash(noName)))
	assert.ErrorIs(t, err, era5.ErrConfiguration)

	malformed := filepath.Join(dir, "malformed.toml")
	require.NoError(t, os.WriteFile(malformed, []byte("[dataset\nname = 1\n"), 0644))
	_, err = Load(fsutil.Path(filepath.ToSlash(malformed)))
	assert.Error(t, err)
}

func TestClient(t *testing.T) {
	t.Setenv("CDSAPI_URL", "")
	t.Setenv("CDSAPI_KEY", "")

	cfg, err := Load(fixture("bmi-era5.toml"))
	require.NoError(t, err)

	client, err := cfg.CDS.Client()
	require.NoError(t, err)
	assert.Equal(t, "https://cds.example.org/api", client.Credentials.URL)
	assert.Equal(t, "00000000-0000-0000-0000-000000000000", client.Credentials.Key)
	assert.Equal(t, 2*time.Second, client.PollInterval)
	assert.Equal(t, time.Minute, client.MaxPollInterval)
	assert.False(t, client.KeepJob)
}

func TestLogApply(t *testing.T) {
	logger := logrus.New()
	require.NoError(t, LogConf{Level: "warning"}.Apply(logger))
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())

	require.NoError(t, LogConf{}.Apply(logger))
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())

	err := LogConf{Level: "chatty"}.Apply(logger)
	assert.ErrorIs(t, err, era5.ErrConfiguration)
}

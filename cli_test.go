package main

import (
	"bytes"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/meteocima/bmi-era5/cds"
	"github.com/meteocima/bmi-era5/folders"
	"github.com/meteocima/bmi-era5/fsutil"
	"github.com/parro-it/fileargs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtures() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		panic("cannot retrieve the source file path")
	} else {
		file = filepath.Dir(file)
	}

	return path.Join(file, "fixtures")
}

func resetFlags(t *testing.T) {
	t.Cleanup(func() {
		cfgFile, workdir, verbose = "", ".", false
		argsFile, metricsAddr = "", ""
		setupURL, setupKey, setupFile = cds.DefaultURL, "", ""
		folders.Root = ""
	})
}

func TestDatesFromArgs(t *testing.T) {
	resetFlags(t)
	wd := fsutil.Path("/srv/era5")

	dates, err := datesFromArgs([]string{"2021010100", "2021010106"}, wd)
	require.NoError(t, err)
	assert.Equal(t, "/srv/era5/bmi-era5.toml", dates.CfgPath)
	require.Len(t, dates.Periods, 1)
	assert.Equal(t, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), dates.Periods[0].Start)
	assert.Equal(t, 6*time.Hour, dates.Periods[0].Duration)

	dates, err = datesFromArgs(nil, wd)
	require.NoError(t, err)
	assert.Empty(t, dates.Periods)

	_, err = datesFromArgs([]string{"20210101", "2021010106"}, wd)
	assert.Error(t, err)
	_, err = datesFromArgs([]string{"2021010106", "2021010100"}, wd)
	assert.Error(t, err)

	cfgFile = "/etc/era5.toml"
	dates, err = datesFromArgs(nil, wd)
	require.NoError(t, err)
	assert.Equal(t, "/etc/era5.toml", dates.CfgPath)
}

func TestReadInputArgs(t *testing.T) {
	resetFlags(t)
	period := &fileargs.Period{Start: time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC), Duration: 24 * time.Hour}
	file := filepath.Join(t.TempDir(), "arguments.txt")
	content := strings.Join([]string{"monthly-mean.toml", period.String()}, "\n") + "\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))

	dates, err := readInputArgs(file, fsutil.Path(filepath.ToSlash(fixtures())))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fixtures(), "monthly-mean.toml"), dates.CfgPath)
	require.Len(t, dates.Periods, 1)
	assert.Equal(t, period.Start, dates.Periods[0].Start.UTC())
}

func writeArguments(t *testing.T, file, cfgPath string, periods ...*fileargs.Period) {
	lines := []string{cfgPath}
	for _, p := range periods {
		lines = append(lines, p.String())
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0755))
	require.NoError(t, os.WriteFile(file, []byte(strings.Join(lines, "\n")+"\n"), 0644))
}

func TestReadInputArgsAbsoluteConfig(t *testing.T) {
	resetFlags(t)
	cfg := filepath.Join(fixtures(), "bmi-era5.toml")
	file := filepath.Join(t.TempDir(), "arguments.txt")
	writeArguments(t, file, cfg)

	dates, err := readInputArgs(file, fsutil.Path(filepath.ToSlash(t.TempDir())))
	require.NoError(t, err)
	assert.Equal(t, cfg, dates.CfgPath)
	assert.Empty(t, dates.Periods)
}

func TestFetchArgumentsFromInputsDir(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	wd := fsutil.Path(filepath.ToSlash(dir))
	period := &fileargs.Period{Start: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), Duration: 3 * time.Hour}

	dates, err := fetchArguments(nil, wd)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "bmi-era5.toml"), dates.CfgPath)
	assert.Empty(t, dates.Periods)

	writeArguments(t, filepath.Join(dir, "inputs", "arguments.txt"), filepath.Join(fixtures(), "bmi-era5.toml"), period)
	dates, err = fetchArguments(nil, wd)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fixtures(), "bmi-era5.toml"), dates.CfgPath)
	require.Len(t, dates.Periods, 1)
	assert.Equal(t, 3*time.Hour, dates.Periods[0].Duration)

	dates, err = fetchArguments([]string{"2021020100", "2021020106"}, wd)
	require.NoError(t, err)
	require.Len(t, dates.Periods, 1)
	assert.Equal(t, 6*time.Hour, dates.Periods[0].Duration)
}

func TestSetupCommand(t *testing.T) {
	resetFlags(t)
	file := filepath.Join(t.TempDir(), ".cdsapirc")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"setup", "--key", "abcd-1234", "--file", file})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), file)

	creds, err := cds.ReadCredentials(file)
	require.NoError(t, err)
	assert.Equal(t, cds.Credentials{URL: cds.DefaultURL, Key: "abcd-1234"}, creds)
}

func TestFetchRejectsSingleDate(t *testing.T) {
	resetFlags(t)
	rootCmd.SetArgs([]string{"fetch", "2021010100"})
	assert.Error(t, rootCmd.Execute())
}

func TestInfoCommandMissingFile(t *testing.T) {
	resetFlags(t)
	rootCmd.SetArgs([]string{"info", filepath.Join(t.TempDir(), "missing.nc")})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

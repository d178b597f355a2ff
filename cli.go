package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/meteocima/bmi-era5/cds"
	"github.com/meteocima/bmi-era5/conf"
	"github.com/meteocima/bmi-era5/folders"
	"github.com/meteocima/bmi-era5/fsutil"
	"github.com/meteocima/bmi-era5/runner"
	"github.com/parro-it/fileargs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version of the command
var Version string = "development"

const usage = `
Usage: bmi-era5 [-v] [--config <file>] [--workdir <dir>] <command>

fetch [startdate enddate]  retrieve the configured ERA5 product from the
                           Climate Data Store, unless the dataset file exists already,
                           and print its metadata. With startdate and enddate, only the
                           hours in the period are requested. Format for dates is YYYYMMDDHH.
fetch --args <argsfile>    as above, reading the configuration file and the period
                           from an arguments file. Without dates and --args,
                           inputs/arguments.txt in the working directory is read
                           when it exists.
info <file.nc>             print the metadata of an existing dataset file.
setup --key <key>          create the CDS credentials file.

--config defaults to bmi-era5.toml in the working directory.
--workdir defaults to the current directory.
-v enables debug logging.
`

const defaultConfigFile = "bmi-era5.toml"

func failed(err error) {
	logrus.Fatalf("%s\n\n%s\n", err, usage)
}

var (
	cfgFile string
	workdir string
	verbose bool

	argsFile    string
	metricsAddr string

	setupURL  string
	setupKey  string
	setupFile string
)

var rootCmd = &cobra.Command{
	Use:           "bmi-era5",
	Short:         "Retrieve ERA5 reanalysis datasets and describe their grid, time axis and variables.",
	Long:          usage,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [startdate enddate]",
	Short: "Retrieve the configured dataset and print its metadata.",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return errors.New("fetch accepts either no arguments or a start and an end date")
		}
		if len(args) == 2 && argsFile != "" {
			return errors.New("dates and --args cannot be used together")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		wd, err := workdirPath()
		if err != nil {
			return err
		}

		dates, err := fetchArguments(args, wd)
		if err != nil {
			return err
		}

		if err := runner.Init(fsutil.Path(filepath.ToSlash(dates.CfgPath)), wd); err != nil {
			return err
		}
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}

		reg := prometheus.NewRegistry()
		runner.Metrics = cds.NewMetrics(reg)
		if metricsAddr != "" {
			srv := serveMetrics(metricsAddr, reg)
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return runner.Fetch(ctx, dates.Periods, cmd.OutOrStdout())
	},
}

var infoCmd = &cobra.Command{
	Use:   "info <file.nc>",
	Short: "Print the metadata of an existing dataset file.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// the configured request provides the grid
		// spacing of single point datasets.
		if cfgFile != "" {
			if err := conf.Init(fsutil.Path(filepath.ToSlash(cfgFile))); err != nil {
				return err
			}
		}
		return runner.Info(cmd.Context(), args[0], cmd.OutOrStdout())
	},
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the CDS credentials file.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		file := setupFile
		if file == "" {
			file = cds.DefaultCredentialsFile()
		}
		err := cds.WriteCredentials(file, cds.Credentials{URL: setupURL, Key: setupKey})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "CDS API key file %s is created.\n", file)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "configuration file")
	rootCmd.PersistentFlags().StringVar(&workdir, "workdir", ".", "working directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	fetchCmd.Flags().StringVar(&argsFile, "args", "", "arguments file with the configuration file and the period to fetch")
	fetchCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address to expose prometheus metrics on during the retrieval, e.g. :9090")

	setupCmd.Flags().StringVar(&setupURL, "url", cds.DefaultURL, "CDS API url")
	setupCmd.Flags().StringVar(&setupKey, "key", "", "CDS personal access token")
	setupCmd.Flags().StringVar(&setupFile, "file", "", "credentials file (default $CDSAPI_RC or ~/.cdsapirc)")
	setupCmd.MarkFlagRequired("key")

	rootCmd.AddCommand(fetchCmd, infoCmd, setupCmd)
}

func workdirPath() (fsutil.Path, error) {
	absWd, err := filepath.Abs(workdir)
	if err != nil {
		return "", err
	}
	return fsutil.Path(filepath.ToSlash(absWd)), nil
}

// configPath returns the --config file when given,
// otherwise the default configuration file in wd.
func configPath(wd fsutil.Path) string {
	if cfgFile != "" {
		return cfgFile
	}
	return filepath.FromSlash(wd.Join(defaultConfigFile).String())
}

func datesFromArgs(args []string, wd fsutil.Path) (*fileargs.FileArguments, error) {
	dates := &fileargs.FileArguments{
		Periods: []*fileargs.Period{},
		CfgPath: configPath(wd),
	}
	if len(args) == 0 {
		return dates, nil
	}

	startDate, err := time.Parse("2006010215", args[0])
	if err != nil {
		return nil, err
	}
	endDate, err := time.Parse("2006010215", args[1])
	if err != nil {
		return nil, err
	}
	if endDate.Before(startDate) {
		return nil, fmt.Errorf("end date %s is before start date %s", args[1], args[0])
	}

	dates.Periods = append(dates.Periods, &fileargs.Period{
		Start:    startDate,
		Duration: endDate.Sub(startDate),
	})
	return dates, nil
}

// fetchArguments chooses where the period to fetch comes from: the
// --args file, the dates on the command line, or the arguments file
// in the inputs directory when neither is given and that file exists.
func fetchArguments(args []string, wd fsutil.Path) (*fileargs.FileArguments, error) {
	if argsFile != "" {
		return readInputArgs(argsFile, wd)
	}
	if len(args) == 0 {
		folders.Root = wd
		tr := fsutil.Transaction{}
		if tr.Exists(folders.ArgumentsFile()) {
			return readInputArgs(filepath.FromSlash(folders.ArgumentsFile().String()), wd)
		}
		if tr.Err != nil {
			return nil, tr.Err
		}
	}
	return datesFromArgs(args, wd)
}

func readInputArgs(file string, wd fsutil.Path) (*fileargs.FileArguments, error) {
	dates, err := runner.ReadTimes(file, wd)
	if err != nil {
		return nil, err
	}
	if cfgFile != "" {
		dates.CfgPath = cfgFile
	}
	return dates, nil
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 30 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Error("metrics server failed")
		}
	}()
	return srv
}

func main() {
	rootCmd.Version = Version
	if err := rootCmd.Execute(); err != nil {
		failed(err)
	}
}

package runner

import (
	"io"

	"github.com/meteocima/bmi-era5/era5"
	"gopkg.in/yaml.v2"
)

type report struct {
	Product   string                  `yaml:"product,omitempty"`
	Path      string                  `yaml:"path"`
	Grid      *era5.GridInfo          `yaml:"grid"`
	Time      *era5.TimeInfo          `yaml:"time"`
	Variables map[string]era5.VarInfo `yaml:"variables"`
}

// Report writes the grid, time and variable metadata of data to w, as YAML.
func Report(w io.Writer, data *era5.Data) error {
	content, err := renderReport(data)
	if err != nil {
		return err
	}
	_, err = w.Write(content)
	return err
}

func renderReport(data *era5.Data) ([]byte, error) {
	r := report{
		Product: data.Product(),
		Path:    data.Path(),
	}
	var err error
	if r.Grid, err = data.GridInfo(); err != nil {
		return nil, err
	}
	if r.Time, err = data.TimeInfo(); err != nil {
		return nil, err
	}
	if r.Variables, err = data.VarInfo(); err != nil {
		return nil, err
	}
	return yaml.Marshal(r)
}

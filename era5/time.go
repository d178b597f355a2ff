package era5

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// TimeInfo describes the time axis of a dataset. Times
// are expressed in TimeUnits as float64 values.
type TimeInfo struct {
	StartTime  float64   `yaml:"start_time"`
	EndTime    float64   `yaml:"end_time"`
	TimeStep   float64   `yaml:"time_step"`
	TotalSteps int       `yaml:"total_steps"`
	TimeUnits  string    `yaml:"time_units"`
	Calendar   string    `yaml:"calendar"`
	TimeValue  []float64 `yaml:"time_value,flow"`
}

const (
	epochUnits        = "seconds since 1970-01-01"
	defaultCalendar   = "standard"
	gregorianCalendar = "proleptic_gregorian"
)

// timeConvention normalises one of the ways ERA5
// products encode their time axis.
type timeConvention struct {
	coord  string
	decode func(values []float64, vg api.VarGetter) (times []float64, units, calendar string, err error)
}

// timeConventions are tried in order; the first
// coordinate present in the dataset wins.
var timeConventions = []timeConvention{
	{coord: "valid_time", decode: decodedTime},
	{coord: "date", decode: encodedDate},
}

// decodedTime accepts times already expressed as offsets
// in the units of the coordinate.
func decodedTime(values []float64, vg api.VarGetter) ([]float64, string, string, error) {
	units, ok := stringAttr(vg.Attributes(), "units")
	if !ok || units == "" {
		return nil, "", "", fmt.Errorf("era5: time coordinate `valid_time` has no `units` attribute")
	}
	calendar, ok := stringAttr(vg.Attributes(), "calendar")
	if !ok || calendar == "" {
		calendar = defaultCalendar
	}
	return values, units, calendar, nil
}

// encodedDate converts YYYYMMDD integers, as used by monthly
// means products, to seconds since the Unix epoch.
func encodedDate(values []float64, _ api.VarGetter) ([]float64, string, string, error) {
	times := make([]float64, len(values))
	for i, v := range values {
		if v != math.Trunc(v) {
			return nil, "", "", fmt.Errorf("era5: malformed date value `%v`", v)
		}
		s := strconv.FormatInt(int64(v), 10)
		t, err := time.ParseInLocation("20060102", s, time.UTC)
		if err != nil {
			return nil, "", "", fmt.Errorf("era5: malformed date value `%s`: %w", s, err)
		}
		times[i] = float64(t.Unix())
	}
	return times, epochUnits, gregorianCalendar, nil
}

// TimeInfo returns the time axis of the loaded dataset,
// or nil when no dataset is loaded.
func (d *Data) TimeInfo() (*TimeInfo, error) {
	if d.ds == nil {
		return nil, nil
	}

	for _, conv := range timeConventions {
		if !hasVariable(d.ds, conv.coord) {
			continue
		}
		raw, vg, err := readFloats(d.ds, conv.coord)
		if err != nil {
			return nil, err
		}
		if len(raw) == 0 {
			return nil, fmt.Errorf("era5: time coordinate `%s` is empty", conv.coord)
		}
		times, units, calendar, err := conv.decode(raw, vg)
		if err != nil {
			return nil, err
		}
		return newTimeInfo(times, units, calendar), nil
	}
	return nil, ErrNoTimeCoordinate
}

func newTimeInfo(times []float64, units, calendar string) *TimeInfo {
	info := &TimeInfo{
		StartTime:  times[0],
		EndTime:    times[len(times)-1],
		TotalSteps: len(times),
		TimeUnits:  units,
		Calendar:   calendar,
		TimeValue:  times,
	}
	if len(times) > 1 {
		info.TimeStep = times[1] - times[0]
	}
	return info
}

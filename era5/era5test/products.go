package era5test

// Axis returns n values starting at from, step apart.
func Axis(from, step float64, n int) []float64 {
	res := make([]float64, n)
	for i := range res {
		res[i] = from + float64(i)*step
	}
	return res
}

// Cube builds a [nt][ny][nx] variable filled by f.
func Cube(nt, ny, nx int, f func(t, y, x int) float32) [][][]float32 {
	res := make([][][]float32, nt)
	for t := range res {
		res[t] = make([][]float32, ny)
		for y := range res[t] {
			res[t][y] = make([]float32, nx)
			for x := range res[t][y] {
				res[t][y][x] = f(t, y, x)
			}
		}
	}
	return res
}

// SingleHourTimes are the valid times of SingleHour,
// in seconds since 1970-01-01.
var SingleHourTimes = []int64{1609459200, 1609462800, 1609466400}

// SingleHour mirrors a reanalysis-era5-single-levels product over
// area [41, -109, 36, -102] at 0.25 degrees, with three hourly steps.
// Temperature is 270 K + step index everywhere; precipitation is
// 0.001 m * step index.
func SingleHour() *Dataset {
	dims := []string{"valid_time", "latitude", "longitude"}
	ds := NewDataset().
		Dim("valid_time", 3).
		Dim("latitude", 21).
		Dim("longitude", 29)
	return ds.
		Variable("number", nil, int64(0), NewAttrs("long_name", "ensemble member numerical id", "units", "1")).
		Variable("valid_time", []string{"valid_time"}, append([]int64(nil), SingleHourTimes...),
			NewAttrs("long_name", "time", "units", "seconds since 1970-01-01", "calendar", "proleptic_gregorian")).
		Variable("latitude", []string{"latitude"}, Axis(41, -0.25, 21), NewAttrs("units", "degrees_north")).
		Variable("longitude", []string{"longitude"}, Axis(-109, 0.25, 29), NewAttrs("units", "degrees_east")).
		Variable("expver", []string{"valid_time"}, []string{"0001", "0001", "0001"}, NewAttrs("long_name", "Experiment version")).
		Variable("t2m", dims,
			Cube(3, 21, 29, func(t, y, x int) float32 { return 270 + float32(t) }),
			NewAttrs("long_name", "2 metre temperature", "units", "K", "coordinates", "number expver")).
		Variable("tp", dims,
			Cube(3, 21, 29, func(t, y, x int) float32 { return 0.001 * float32(t) }),
			NewAttrs("long_name", "Total precipitation", "units", "m", "coordinates", "number expver")).
		Variable("lsm", []string{"latitude", "longitude"},
			Cube(1, 21, 29, func(t, y, x int) float32 { return 1 })[0],
			NewAttrs("long_name", "Land-sea mask", "units", "(0 - 1)"))
}

// MonthlyMean mirrors a monthly means product over area
// [39, -106, 36, -103], whose time axis is a `date` coordinate
// of YYYYMMDD integers. Dewpoint is packed as int16: unpacked
// values are 260 K + month index + 1, except the first point of
// the first month, which holds the fill value.
func MonthlyMean(dates ...int64) *Dataset {
	ds := NewDataset().
		Dim("date", len(dates)).
		Dim("latitude", 13).
		Dim("longitude", 13)
	return ds.
		Variable("date", []string{"date"}, dates, NewAttrs("long_name", "date")).
		Variable("latitude", []string{"latitude"}, Axis(39, -0.25, 13), nil).
		Variable("longitude", []string{"longitude"}, Axis(-106, 0.25, 13), nil).
		Variable("d2m", []string{"date", "latitude", "longitude"},
			packed(len(dates), 13, 13),
			NewAttrs("long_name", "2 metre dewpoint temperature", "units", "K",
				"scale_factor", []float64{0.001}, "add_offset", []float64{260}, "_FillValue", []int16{-32767}))
}

func packed(nt, ny, nx int) [][][]int16 {
	res := make([][][]int16, nt)
	for t := range res {
		res[t] = make([][]int16, ny)
		for y := range res[t] {
			res[t][y] = make([]int16, nx)
			for x := range res[t][y] {
				res[t][y][x] = int16(1000 * (t + 1))
			}
		}
	}
	if nt > 0 {
		res[0][0][0] = -32767
	}
	return res
}

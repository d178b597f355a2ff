package runner

import (
	"fmt"
	"sort"
	"time"

	"github.com/meteocima/bmi-era5/cds"
	"github.com/parro-it/fileargs"
)

// PeriodSelectors returns the `year`, `month`, `day` and `time` request
// entries selecting the hourly fields in [Start, Start+Duration).
// A period shorter than an hour selects its start hour. The archive
// combines the selectors, so a period spanning several days also
// selects the hours of the first and last day outside the period.
func PeriodSelectors(period *fileargs.Period) cds.Request {
	hours := int(period.Duration / time.Hour)
	if hours < 1 {
		hours = 1
	}

	years := map[string]bool{}
	months := map[string]bool{}
	days := map[string]bool{}
	times := map[string]bool{}
	start := period.Start.UTC()
	for h := 0; h < hours; h++ {
		dt := start.Add(time.Duration(h) * time.Hour)
		years[fmt.Sprintf("%04d", dt.Year())] = true
		months[fmt.Sprintf("%02d", dt.Month())] = true
		days[fmt.Sprintf("%02d", dt.Day())] = true
		times[fmt.Sprintf("%02d:00", dt.Hour())] = true
	}

	return cds.Request{
		"year":  sortedKeys(years),
		"month": sortedKeys(months),
		"day":   sortedKeys(days),
		"time":  sortedKeys(times),
	}
}

func sortedKeys(set map[string]bool) []string {
	res := make([]string, 0, len(set))
	for k := range set {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}

package folders

import (
	"strings"
	"time"

	"github.com/meteocima/bmi-era5/fsutil"
)

// Root is the working directory of the command.
var Root fsutil.Path

// ArgumentsFile is the arguments file `fetch` reads when
// neither dates nor an arguments file are given.
func ArgumentsFile() fsutil.Path {
	return Root.Join("inputs/arguments.txt")
}

func InputsDir(startDate time.Time) fsutil.Path {
	return Root.JoinF("inputs/%s", startDate.Format("20060102"))
}

// DatasetFile is the default destination of product
// retrieved for the period starting at startDate.
func DatasetFile(startDate time.Time, product string) fsutil.Path {
	return InputsDir(startDate).JoinF("%s_%s.nc", product, startDate.Format("2006010215"))
}

// ReportFile is the metadata report written beside a dataset file.
func ReportFile(dataset fsutil.Path) fsutil.Path {
	base := dataset.Base()
	if base != ".nc" {
		base = strings.TrimSuffix(base, ".nc")
	}
	return dataset.Dir().Join(base + ".yaml")
}

package era5

import (
	"context"
	"os"

	"github.com/meteocima/bmi-era5/cds"
)

// fakeRetriever writes a placeholder file at target and counts calls.
type fakeRetriever struct {
	calls    int
	products []string
	targets  []string
	err      error
}

func (r *fakeRetriever) Retrieve(ctx context.Context, product string, request cds.Request, target string) error {
	r.calls++
	r.products = append(r.products, product)
	r.targets = append(r.targets, target)
	if r.err != nil {
		return r.err
	}
	return os.WriteFile(target, []byte("CDF"), 0644)
}

// openWith returns an OpenFunc serving ds regardless of path,
// recording the opened paths.
func openWith(ds Dataset, opened *[]string) OpenFunc {
	return func(path string) (Dataset, error) {
		*opened = append(*opened, path)
		return ds, nil
	}
}

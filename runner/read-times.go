package runner

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/meteocima/bmi-era5/fsutil"
	"github.com/parro-it/fileargs"
)

// workdirFS opens absolute names as they are
// and relative names against the directory it holds.
type workdirFS fsutil.Path

func (dir workdirFS) Open(name string) (fs.File, error) {
	file := fsutil.Path(filepath.ToSlash(name)).Resolve(fsutil.Path(dir))
	return os.Open(filepath.FromSlash(file.String()))
}

// ReadTimes reads an arguments file: the path of the configuration
// file on the first line, followed by the periods to fetch. A relative
// configuration path is relative to workdir, and is returned resolved.
func ReadTimes(file string, workdir fsutil.Path) (*fileargs.FileArguments, error) {
	absFile, err := filepath.Abs(file)
	if err != nil {
		return nil, err
	}

	args, err := fileargs.ReadFile(workdirFS(workdir), absFile)
	if err != nil {
		return nil, err
	}

	cfg := fsutil.Path(filepath.ToSlash(args.CfgPath)).Resolve(workdir)
	args.CfgPath = filepath.FromSlash(cfg.String())
	return args, nil
}

package cds

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/meteocima/bmi-era5/fsutil"
	"gopkg.in/yaml.v2"
)

// DefaultURL is the endpoint of the Climate Data Store API.
const DefaultURL = "https://cds.climate.copernicus.eu/api"

// ErrNoCredentials is returned when no API key can be found.
var ErrNoCredentials = errors.New("cds: no API key configured")

// Credentials identify a CDS account. They are
// stored in the credentials file in YAML format:
//
//	url: https://cds.climate.copernicus.eu/api
//	key: <personal access token>
type Credentials struct {
	URL string `yaml:"url"`
	Key string `yaml:"key"`
}

// DefaultCredentialsFile returns the path of the credentials file:
// $CDSAPI_RC when set, otherwise ~/.cdsapirc.
func DefaultCredentialsFile() string {
	if rc := os.Getenv("CDSAPI_RC"); rc != "" {
		return rc
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cdsapirc"
	}
	return filepath.Join(home, ".cdsapirc")
}

// ReadCredentials reads credentials from a YAML file.
func ReadCredentials(file string) (Credentials, error) {
	var creds Credentials
	content, err := os.ReadFile(file)
	if err != nil {
		return creds, fmt.Errorf("cds: reading credentials `%s`: %w", file, err)
	}
	if err := yaml.Unmarshal(content, &creds); err != nil {
		return creds, fmt.Errorf("cds: parsing credentials `%s`: %w", file, err)
	}
	creds.URL = strings.TrimSpace(creds.URL)
	creds.Key = strings.TrimSpace(creds.Key)
	return creds, nil
}

// LoadCredentials resolves the credentials to use. Each field is taken
// from the first source that sets it: the url and key arguments,
// the CDSAPI_URL and CDSAPI_KEY environment variables, the credentials
// file (DefaultCredentialsFile when file is empty). A missing
// credentials file is not an error as long as a key was found elsewhere.
func LoadCredentials(url, key, file string) (Credentials, error) {
	creds := Credentials{URL: url, Key: key}
	if creds.URL == "" {
		creds.URL = os.Getenv("CDSAPI_URL")
	}
	if creds.Key == "" {
		creds.Key = os.Getenv("CDSAPI_KEY")
	}

	if creds.URL == "" || creds.Key == "" {
		if file == "" {
			file = DefaultCredentialsFile()
		}
		fromFile, err := ReadCredentials(file)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return creds, err
		}
		if creds.URL == "" {
			creds.URL = fromFile.URL
		}
		if creds.Key == "" {
			creds.Key = fromFile.Key
		}
	}

	if creds.URL == "" {
		creds.URL = DefaultURL
	}
	if creds.Key == "" {
		return creds, ErrNoCredentials
	}
	return creds, nil
}

// WriteCredentials creates the credentials file, readable
// only by its owner. An empty URL is replaced by DefaultURL.
func WriteCredentials(file string, creds Credentials) error {
	if creds.Key == "" {
		return ErrNoCredentials
	}
	if creds.URL == "" {
		creds.URL = DefaultURL
	}
	content, err := yaml.Marshal(creds)
	if err != nil {
		return fmt.Errorf("cds: encoding credentials: %w", err)
	}

	target := fsutil.Path(filepath.ToSlash(file))
	tr := fsutil.Transaction{}
	tr.MkDir(target.Dir())
	tr.Save(target, content, os.FileMode(0600))
	if tr.Err != nil {
		return fmt.Errorf("cds: writing credentials: %w", tr.Err)
	}
	return nil
}

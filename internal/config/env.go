package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv.
const (
	EnvAPIKey   = "PAGEWALK_API_KEY"
	EnvEndpoint = "PAGEWALK_ENDPOINT"
	EnvProxy    = "PAGEWALK_PROXY"
)

// DefaultEnvFile is loaded by LoadEnv when no path is given.
const DefaultEnvFile = ".env"

// LoadEnv loads variables from the given .env files into the process
// environment. Variables that are already set win. A missing file is
// not an error.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{DefaultEnvFile}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// ApplyEnv fills empty secret and endpoint fields from the environment.
// Values already set by flags are kept.
func (c *Config) ApplyEnv() {
	c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIKey); ok && c.APIKey == "" {
		c.APIKey = v
	}
	if v, ok := lookup(EnvEndpoint); ok && c.Endpoint == "" {
		c.Endpoint = v
	}
	if v, ok := lookup(EnvProxy); ok && c.ProxyAddress == "" {
		c.ProxyAddress = v
	}
}

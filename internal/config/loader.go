package config

import (
	"os"
	"strings"

	"github.com/juju/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of the environment variables overriding the
// configuration, e.g. ISAMPLES_CONCURRENCY.
const EnvPrefix = "ISAMPLES"

// Loader reads the configuration.  Priority, from lowest to highest:
// defaults, configuration file, environment variables.
type Loader struct {
	// Explicit configuration file.  It must exist if set.
	file string

	// Directories searched for .isamples.yaml when file is not set
	searchDirs []string
}

// NewLoader returns a loader reading file, or if file is empty the first
// .isamples.yaml found in searchDirs.
func NewLoader(file string, searchDirs ...string) *Loader {
	return &Loader{file: file, searchDirs: searchDirs}
}

// DefaultSearchDirs are the working directory and the home directory.
func DefaultSearchDirs() []string {
	dirs := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, home)
	}
	return dirs
}

func (l *Loader) Load() (*Config, error) {
	v := viper.New()
	if l.file != "" {
		v.SetConfigFile(l.file)
	} else {
		v.SetConfigName(".isamples")
		v.SetConfigType("yaml")
		for _, dir := range l.searchDirs {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"default_service", "timeout", "concurrency", "chunk_size", "loglevel", "numbers"} {
		if err := v.BindEnv(key); err != nil {
			return nil, errors.Trace(err)
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Without an explicit file, running without one is fine.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || l.file != "" {
			return nil, errors.Annotate(err, "failed to read config file")
		}
	} else {
		logger.Debugf("using configuration file %s", v.ConfigFileUsed())
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Annotate(err, "failed to unmarshal config")
	}
	if err := Validate(cfg); err != nil {
		return nil, errors.Annotate(err, "invalid configuration")
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := Default()
	services := make([]map[string]any, len(defaults.Services))
	for i, svc := range defaults.Services {
		services[i] = map[string]any{"names": svc.Names, "url": svc.URL}
	}
	v.SetDefault("services", services)
	v.SetDefault("default_service", defaults.DefaultService)
	v.SetDefault("timeout", defaults.Timeout)
	v.SetDefault("concurrency", defaults.Concurrency)
	v.SetDefault("chunk_size", defaults.ChunkSize)
	v.SetDefault("loglevel", defaults.LogLevel)
	v.SetDefault("numbers", defaults.Numbers)
}

package config

import (
	"net/url"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/isamplesorg/isamples-go/extract"
)

// Validate checks that cfg can be used.  It returns the first problem found.
func Validate(cfg *Config) error {
	if len(cfg.Services) == 0 {
		return errors.NotValidf("configuration without services")
	}
	seen := map[string]bool{}
	for i, svc := range cfg.Services {
		if len(svc.Names) == 0 {
			return errors.NotValidf("service %d without a name", i)
		}
		for _, name := range svc.Names {
			key := strings.ToLower(strings.TrimSpace(name))
			if key == "" {
				return errors.NotValidf("empty name for service %d", i)
			}
			if seen[key] {
				return errors.NotValidf("duplicate service name %q", name)
			}
			seen[key] = true
		}
		if err := validateURL(svc.URL); err != nil {
			return errors.Annotatef(err, "service %q", svc.Name())
		}
	}
	if cfg.DefaultService != "" && !seen[strings.ToLower(cfg.DefaultService)] {
		return errors.NotFoundf("default service %q", cfg.DefaultService)
	}
	if cfg.Concurrency <= 0 {
		return errors.NotValidf("concurrency %d", cfg.Concurrency)
	}
	if cfg.ChunkSize <= 0 {
		return errors.NotValidf("chunk size %d", cfg.ChunkSize)
	}
	if cfg.Timeout < 0 {
		return errors.NotValidf("timeout %s", cfg.Timeout)
	}
	if _, ok := loggo.ParseLevel(cfg.LogLevel); !ok {
		return errors.NotValidf("log level %q", cfg.LogLevel)
	}
	if _, err := extract.ParseNumberMode(cfg.Numbers); err != nil {
		return errors.NewNotValid(err, "")
	}
	return nil
}

func validateURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return errors.NewNotValid(err, "")
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return errors.NotValidf("URL %q (want an absolute http or https URL)", s)
	}
	if strings.HasSuffix(s, "/") {
		return errors.NotValidf("URL %q (trailing slash)", s)
	}
	return nil
}

// Package config holds the settings of the isamples command: the known
// services and how to talk to them.
package config

import (
	"slices"
	"strings"
	"time"

	"github.com/juju/errors"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("isamples.config")

// Service is an iSamples endpoint known under one or more names.
type Service struct {
	Names []string `yaml:"names" mapstructure:"names"`

	// Base URL, without a trailing slash
	URL string `yaml:"url" mapstructure:"url"`
}

func (s Service) Name() string {
	if len(s.Names) == 0 {
		return ""
	}
	return s.Names[0]
}

type Config struct {
	Services       []Service     `yaml:"services" mapstructure:"services"`
	DefaultService string        `yaml:"default_service" mapstructure:"default_service"`
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`         // connect and response headers, 0 means none
	Concurrency    int           `yaml:"concurrency" mapstructure:"concurrency"` // parallel record fetches
	ChunkSize      int           `yaml:"chunk_size" mapstructure:"chunk_size"`   // bytes per streamed chunk
	LogLevel       string        `yaml:"loglevel" mapstructure:"loglevel"`
	Numbers        string        `yaml:"numbers" mapstructure:"numbers"` // "lossless" or "float"
}

// DefaultServices are the public iSamples endpoints.
var DefaultServices = []Service{
	{Names: []string{"mars", "dev"}, URL: "https://mars.cyverse.org"},
	{Names: []string{"opencontext", "oc"}, URL: "https://henry.cyverse.org/opencontext"},
	{Names: []string{"smithsonian", "si"}, URL: "https://henry.cyverse.org/smithsonian"},
	{Names: []string{"geome"}, URL: "https://henry.cyverse.org/geome"},
	{Names: []string{"sesar"}, URL: "https://henry.cyverse.org/sesar"},
	{Names: []string{"central", "isc"}, URL: "https://hyde.cyverse.org"},
	{Names: []string{"local"}, URL: "http://localhost:8000"},
}

func Default() *Config {
	return &Config{
		Services:    slices.Clone(DefaultServices),
		Timeout:     5 * time.Minute,
		Concurrency: 8,
		ChunkSize:   4096,
		LogLevel:    "info",
		Numbers:     "lossless",
	}
}

// Lookup returns the service called name, ignoring case.  The empty name
// stands for the default service.
func (c *Config) Lookup(name string) (Service, error) {
	if name == "" {
		name = c.DefaultService
	}
	if name == "" {
		return Service{}, errors.NotValidf("empty service name")
	}
	for _, svc := range c.Services {
		for _, n := range svc.Names {
			if strings.EqualFold(n, name) {
				return svc, nil
			}
		}
	}
	return Service{}, errors.NotFoundf("service %q", name)
}

package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/scitags/nftnl/exporter"
	"github.com/scitags/nftnl/nlsock"
	"github.com/scitags/nftnl/query"
)

type Config struct {
	Socket   *nlsock.Config   `yaml:"socket"`
	Query    *query.Config    `yaml:"query"`
	Exporter *exporter.Config `yaml:"exporter"`
}

func (c Config) String() string {
	m, err := yaml.MarshalWithOptions(c, yaml.Indent(2), yaml.IndentSequence(true))
	if err != nil {
		return "marshalling error..."
	}
	return string(m)
}

func ReadConf(path string) (*Config, error) {
	r, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading the configuration file: %w", err)
	}

	conf := Config{}
	if err := yaml.Unmarshal(r, &conf); err != nil {
		return nil, fmt.Errorf("error unmarshaling the configuration: %w", err)
	}

	return &conf, nil
}

// loadConf reads the configuration if one was given, falling back to the
// defaults otherwise.
func loadConf() (*Config, error) {
	conf := &Config{}
	if confPath != "" {
		c, err := ReadConf(confPath)
		if err != nil {
			return nil, err
		}
		conf = c
	}

	if conf.Socket == nil {
		conf.Socket = &nlsock.DefaultConfig
	}
	if conf.Query != nil {
		query.DefaultConfig = *conf.Query
	}
	if conf.Exporter == nil {
		conf.Exporter = &exporter.DefaultConfig
	}

	return conf, nil
}

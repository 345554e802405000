package exporter

import (
	"github.com/goccy/go-yaml"
)

type Config struct {
	Log            bool     `yaml:"log"`
	BindAddress    string   `yaml:"bindAddress"`
	MetricsPort    uint16   `yaml:"metricsPort"`
	ApiPort        uint16   `yaml:"apiPort"`
	Families       []string `yaml:"families"`
	Tables         []string `yaml:"tables"`
	RefreshSeconds int      `yaml:"refreshSeconds"`
}

var DefaultConfig = Config{
	Log:            true,
	BindAddress:    "127.0.0.1",
	MetricsPort:    9630,
	ApiPort:        9631,
	Families:       []string{"ip", "ip6", "inet"},
	Tables:         []string{},
	RefreshSeconds: 15,
}

func (c *Config) UnmarshalYAML(b []byte) error {
	// Needed to break recursive calls into UnmarshalYAML
	type config Config

	def := config(DefaultConfig)

	if err := yaml.Unmarshal(b, &def); err != nil {
		return err
	}

	*c = Config(def)

	return nil
}

package query

import (
	"github.com/goccy/go-yaml"
)

type Config struct {
	// DumpRetries is how many times an interrupted dump is restarted
	// before giving up with ErrDumpInterrupted.
	DumpRetries int `yaml:"dumpRetries"`

	// BufferSize of each receive. Zero means nlmsg.MaxSize().
	BufferSize int `yaml:"bufferSize"`
}

var DefaultConfig = Config{
	DumpRetries: 3,
	BufferSize:  0,
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

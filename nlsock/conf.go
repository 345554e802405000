package nlsock

import (
	"github.com/goccy/go-yaml"
)

type Config struct {
	// SocketBufferSize sets SO_RCVBUF when positive. Large rulesets dumped
	// in one go may need more than the kernel default.
	SocketBufferSize int `yaml:"socketBufferSize"`

	// ExtendedAck asks the kernel to explain its errors (NETLINK_EXT_ACK).
	ExtendedAck bool `yaml:"extendedAck"`

	// StrictCheck enables strict header checking on dumps (NETLINK_GET_STRICT_CHK).
	StrictCheck bool `yaml:"strictCheck"`
}

var DefaultConfig = Config{
	SocketBufferSize: 0,
	ExtendedAck:      true,
	StrictCheck:      false,
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

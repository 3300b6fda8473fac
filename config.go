package biogas

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "250ms" or "5s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config is the construction-time surface of the whole pipeline, loadable
// from YAML. Zero values mean "use the documented default".
type Config struct {
	// Interval between simulated readings.
	Interval Duration `yaml:"interval"`
	// BufferCapacity of the shared ring buffer.
	BufferCapacity int `yaml:"buffer_capacity"`

	// Signal model parameters.
	BaseTemp          float64 `yaml:"base_temp"`
	BaseFlow          float64 `yaml:"base_flow"`
	BasePressure      float64 `yaml:"base_pressure"`
	BaseConcentration float64 `yaml:"base_concentration"`
	NoiseLevel        float64 `yaml:"noise_level"`
	Seed              int64   `yaml:"seed"`

	// Serial link parameters. A non-empty Port selects the serial
	// producer over the simulator.
	Port                string   `yaml:"port"`
	BaudRate            int      `yaml:"baud_rate"`
	ReadTimeout         Duration `yaml:"read_timeout"`
	ReconnectBackoffMax Duration `yaml:"reconnect_backoff_max"`
	MaxReconnectRetries int      `yaml:"max_reconnect_retries"`
	Channels            []string `yaml:"channels"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Interval:            Duration(DefaultInterval),
		BufferCapacity:      DefaultBufferCapacity,
		BaseTemp:            DefaultBaseTemp,
		BaseFlow:            DefaultBaseFlow,
		BasePressure:        DefaultBasePressure,
		BaseConcentration:   DefaultBaseConcentration,
		NoiseLevel:          DefaultNoiseLevel,
		BaudRate:            DefaultBaudRate,
		ReadTimeout:         Duration(DefaultReadTimeout),
		ReconnectBackoffMax: Duration(DefaultReconnectBackoffMax),
		MaxReconnectRetries: DefaultMaxReconnectRetries,
		Channels:            DefaultChannels,
	}
}

// LoadConfig reads a YAML file over the defaults. Unset keys keep their
// default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ModelConfig derives the signal model parameters.
func (c Config) ModelConfig() ModelConfig {
	return ModelConfig{
		BaseTemp:          c.BaseTemp,
		BaseFlow:          c.BaseFlow,
		BasePressure:      c.BasePressure,
		BaseConcentration: c.BaseConcentration,
		NoiseLevel:        c.NoiseLevel,
		Seed:              c.Seed,
	}
}

// SerialConfig derives the serial producer parameters.
func (c Config) SerialConfig() SerialConfig {
	return SerialConfig{
		Device:              c.Port,
		BaudRate:            c.BaudRate,
		ReadTimeout:         time.Duration(c.ReadTimeout),
		Channels:            c.Channels,
		ReconnectBackoffMax: time.Duration(c.ReconnectBackoffMax),
		MaxReconnectRetries: c.MaxReconnectRetries,
	}
}

// NewProducer builds the producer selected by the configuration: serial
// when Port is set, otherwise simulated. Both feed buf with the same
// Reading schema.
func (c Config) NewProducer(buf *Buffer) Producer {
	if c.Port != "" {
		return NewSerialProducer(buf, c.SerialConfig())
	}
	return NewSimulatedProducer(buf, SimulatedConfig{
		Interval: time.Duration(c.Interval),
		Model:    c.ModelConfig(),
	})
}

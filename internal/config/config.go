package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/muurk/ut181a/internal/transport"
)

// CurrentVersion is the config file format version
const CurrentVersion = 1

// Config represents the entire user configuration file
type Config struct {
	Version int           `yaml:"version"`
	Serial  *SerialConfig `yaml:"serial"`
	Meter   *MeterConfig  `yaml:"meter"`
	Server  *ServerConfig `yaml:"server"`
	Log     *LogConfig    `yaml:"log,omitempty"`
}

// SerialConfig describes the port the meter is attached to
type SerialConfig struct {
	Port         string        `yaml:"port"`          // e.g. /dev/ttyUSB0 or COM3
	BaudRate     int           `yaml:"baud_rate"`     // 9600 on stock firmware
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // per read, e.g. 100ms
	WriteTimeout time.Duration `yaml:"write_timeout"` // per frame, e.g. 500ms
}

// MeterConfig holds engine settings
type MeterConfig struct {
	WaitTimeout time.Duration `yaml:"wait_timeout"` // deadline for each reply
}

// ServerConfig holds settings for 'ut181a serve'
type ServerConfig struct {
	Listen       string        `yaml:"listen"`        // HTTP listen address
	PollInterval time.Duration `yaml:"poll_interval"` // pause after a failed poll
	Advertise    bool          `yaml:"advertise"`     // announce _ut181a._tcp over mDNS
	InstanceName string        `yaml:"instance_name,omitempty"`
}

// LogConfig holds the default log level, overridden by flag or environment
type LogConfig struct {
	Level string `yaml:"level,omitempty"`
}

// Default creates a Config with default values
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Serial: &SerialConfig{
			BaudRate:     transport.DefaultBaudRate,
			ReadTimeout:  transport.DefaultReadTimeout,
			WriteTimeout: transport.DefaultWriteTimeout,
		},
		Meter: &MeterConfig{
			WaitTimeout: 5 * time.Second,
		},
		Server: &ServerConfig{
			Listen:       ":8181",
			PollInterval: time.Second,
			Advertise:    true,
			InstanceName: "UT181A",
		},
		Log: &LogConfig{},
	}
}

// applyDefaults fills sections missing from a loaded file
func (c *Config) applyDefaults() {
	def := Default()

	if c.Serial == nil {
		c.Serial = def.Serial
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}
	if c.Serial.ReadTimeout == 0 {
		c.Serial.ReadTimeout = def.Serial.ReadTimeout
	}
	if c.Serial.WriteTimeout == 0 {
		c.Serial.WriteTimeout = def.Serial.WriteTimeout
	}

	if c.Meter == nil {
		c.Meter = def.Meter
	}
	if c.Meter.WaitTimeout == 0 {
		c.Meter.WaitTimeout = def.Meter.WaitTimeout
	}

	if c.Server == nil {
		c.Server = def.Server
	}
	if c.Server.Listen == "" {
		c.Server.Listen = def.Server.Listen
	}
	if c.Server.PollInterval == 0 {
		c.Server.PollInterval = def.Server.PollInterval
	}
	if c.Server.InstanceName == "" {
		c.Server.InstanceName = def.Server.InstanceName
	}

	if c.Log == nil {
		c.Log = &LogConfig{}
	}
}

// Validate checks value ranges
func (c *Config) Validate() error {
	var errs []error

	if c.Version != CurrentVersion {
		errs = append(errs, fmt.Errorf("unsupported config version: %d (expected %d)", c.Version, CurrentVersion))
	}
	if c.Serial.BaudRate < 0 {
		errs = append(errs, fmt.Errorf("serial.baud_rate must be positive, got %d", c.Serial.BaudRate))
	}
	if c.Serial.ReadTimeout < 0 || c.Serial.WriteTimeout < 0 {
		errs = append(errs, errors.New("serial timeouts must not be negative"))
	}
	if c.Meter.WaitTimeout < 0 {
		errs = append(errs, errors.New("meter.wait_timeout must not be negative"))
	}
	if c.Server.PollInterval < 0 {
		errs = append(errs, errors.New("server.poll_interval must not be negative"))
	}

	return errors.Join(errs...)
}

// TransportConfig returns the serial settings for transport.Open
func (c *Config) TransportConfig() transport.Config {
	return transport.Config{
		PortPath:     c.Serial.Port,
		BaudRate:     c.Serial.BaudRate,
		ReadTimeout:  c.Serial.ReadTimeout,
		WriteTimeout: c.Serial.WriteTimeout,
	}
}

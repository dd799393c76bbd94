// Package config manages the ut181a configuration file.
//
// The file holds the serial port settings, engine timeouts and 'serve'
// options so they do not have to be repeated on every command line.
// Command line flags always take precedence.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/ut181a/config.yaml or $HOME/.config/ut181a/config.yaml
//   - macOS: $HOME/.config/ut181a/config.yaml
//   - Windows: %LOCALAPPDATA%\ut181a\config.yaml
//
// # Example
//
//	version: 1
//	serial:
//	  port: /dev/ttyUSB0
//	  baud_rate: 9600
//	  read_timeout: 100ms
//	  write_timeout: 500ms
//	meter:
//	  wait_timeout: 5s
//	server:
//	  listen: :8181
//	  poll_interval: 1s
//	  advertise: true
//
// Durations use Go syntax. Missing keys take their defaults.
//
// # Thread Safety
//
// The global config uses sync.Once for safe initialization across goroutines.
// File writes are protected by a mutex and replace the file atomically.
package config

package discovery

import (
	"fmt"
	"time"
)

// Service is a ut181a server found on the local network
type Service struct {
	// Instance is the advertised instance name (e.g., "UT181A bench")
	Instance string

	// Hostname is the mDNS hostname of the host running the server
	Hostname string

	// IP is the first advertised address, IPv4 preferred
	IP string

	// Port is the HTTP port of the server
	Port int

	// Metadata contains the TXT record data, e.g. "version=1.2.0", "port=/dev/ttyUSB0"
	Metadata map[string]string

	// DiscoveredAt is when the service was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the service
func (s *Service) String() string {
	return fmt.Sprintf("%s (%s) at %s:%d", s.Instance, s.Hostname, s.IP, s.Port)
}

// BaseURL returns the HTTP base URL for the server
func (s *Service) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", s.IP, s.Port)
}

// WebSocketURL returns the live measurement feed URL
func (s *Service) WebSocketURL() string {
	return fmt.Sprintf("ws://%s:%d/ws", s.IP, s.Port)
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (s *Service) GetMetadata(key string) string {
	if s.Metadata == nil {
		return ""
	}
	return s.Metadata[key]
}

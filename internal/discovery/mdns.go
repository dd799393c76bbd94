package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/muurk/ut181a/internal/logging"
	"go.uber.org/zap"
)

const (
	// ServiceType is the mDNS service type announced by 'ut181a serve'
	ServiceType = "_ut181a._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for service discovery
	DefaultScanTimeout = 5 * time.Second
)

// Advertisement is a running mDNS registration
type Advertisement struct {
	server *zeroconf.Server
	once   sync.Once
}

// Advertise announces a server on port under instance. The metadata is
// published as key=value TXT records.
func Advertise(instance string, port int, metadata map[string]string) (*Advertisement, error) {
	text := make([]string, 0, len(metadata))
	for k, v := range metadata {
		text = append(text, k+"="+v)
	}

	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, text, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("Advertising over mDNS",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", port),
	)
	return &Advertisement{server: server}, nil
}

// Shutdown withdraws the announcement. It is safe to call more than once.
func (a *Advertisement) Shutdown() {
	a.once.Do(func() {
		a.server.Shutdown()
		logging.Debug("mDNS advertisement withdrawn")
	})
}

// Scanner handles mDNS service discovery
type Scanner struct {
	// Timeout is the maximum time to wait for services
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan discovers all ut181a servers on the local network
func (s *Scanner) Scan(ctx context.Context) ([]*Service, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	var (
		mu       sync.Mutex
		services []*Service
	)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			if svc := parseServiceEntry(entry); svc != nil {
				mu.Lock()
				services = append(services, svc)
				mu.Unlock()
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	return append([]*Service(nil), services...), nil
}

// parseServiceEntry converts a zeroconf service entry to a Service.
// Returns nil if the entry has no usable address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Service {
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" || entry.Port == 0 {
		return nil
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}

	return &Service{
		Instance:     unescapeInstance(entry.Instance),
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         entry.Port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// unescapeInstance removes DNS escaping, e.g. "UT181A\ bench"
func unescapeInstance(s string) string {
	return strings.ReplaceAll(s, `\`, "")
}

package discovery

import (
	"net"
	"testing"

	"github.com/grandcat/zeroconf"
)

func entry(instance, host string, port int, v4, v6 []net.IP, text ...string) *zeroconf.ServiceEntry {
	e := zeroconf.NewServiceEntry(instance, ServiceType, ServiceDomain)
	e.HostName = host
	e.Port = port
	e.AddrIPv4 = v4
	e.AddrIPv6 = v6
	e.Text = text
	return e
}

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name         string
		entry        *zeroconf.ServiceEntry
		wantNil      bool
		wantInstance string
		wantIP       string
		wantPort     int
		wantMeta     map[string]string
	}{
		{
			name:         "IPv4 with metadata",
			entry:        entry(`UT181A\ bench`, "lab-pi.local.", 8181, []net.IP{net.ParseIP("192.168.1.20")}, nil, "version=1.0.0", "port=/dev/ttyUSB0"),
			wantInstance: "UT181A bench",
			wantIP:       "192.168.1.20",
			wantPort:     8181,
			wantMeta:     map[string]string{"version": "1.0.0", "port": "/dev/ttyUSB0"},
		},
		{
			name:         "IPv4 preferred over IPv6",
			entry:        entry("UT181A", "host.local.", 80, []net.IP{net.ParseIP("10.0.0.5")}, []net.IP{net.ParseIP("fe80::1")}),
			wantInstance: "UT181A",
			wantIP:       "10.0.0.5",
			wantPort:     80,
		},
		{
			name:         "IPv6 fallback",
			entry:        entry("UT181A", "host.local.", 8181, nil, []net.IP{net.ParseIP("fe80::1")}),
			wantInstance: "UT181A",
			wantIP:       "fe80::1",
			wantPort:     8181,
		},
		{
			name:         "key without value",
			entry:        entry("UT181A", "host.local.", 8181, []net.IP{net.ParseIP("10.0.0.5")}, nil, "monitoring"),
			wantInstance: "UT181A",
			wantIP:       "10.0.0.5",
			wantPort:     8181,
			wantMeta:     map[string]string{"monitoring": ""},
		},
		{
			name:    "no address",
			entry:   entry("UT181A", "host.local.", 8181, nil, nil),
			wantNil: true,
		},
		{
			name:    "no port",
			entry:   entry("UT181A", "host.local.", 0, []net.IP{net.ParseIP("10.0.0.5")}, nil),
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := parseServiceEntry(tt.entry)
			if tt.wantNil {
				if svc != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", svc)
				}
				return
			}
			if svc == nil {
				t.Fatal("parseServiceEntry() = nil")
			}
			if svc.Instance != tt.wantInstance {
				t.Errorf("Instance = %q, want %q", svc.Instance, tt.wantInstance)
			}
			if svc.IP != tt.wantIP {
				t.Errorf("IP = %q, want %q", svc.IP, tt.wantIP)
			}
			if svc.Port != tt.wantPort {
				t.Errorf("Port = %d, want %d", svc.Port, tt.wantPort)
			}
			for k, v := range tt.wantMeta {
				if got := svc.GetMetadata(k); got != v {
					t.Errorf("GetMetadata(%q) = %q, want %q", k, got, v)
				}
			}
		})
	}
}

func TestService_URLs(t *testing.T) {
	svc := &Service{Instance: "UT181A", Hostname: "pi.local.", IP: "192.168.1.20", Port: 8181}

	if got := svc.BaseURL(); got != "http://192.168.1.20:8181" {
		t.Errorf("BaseURL() = %q", got)
	}
	if got := svc.WebSocketURL(); got != "ws://192.168.1.20:8181/ws" {
		t.Errorf("WebSocketURL() = %q", got)
	}
	if got := svc.String(); got != "UT181A (pi.local.) at 192.168.1.20:8181" {
		t.Errorf("String() = %q", got)
	}
	if got := (&Service{}).GetMetadata("x"); got != "" {
		t.Errorf("GetMetadata on nil map = %q", got)
	}
}

func TestNewScanner(t *testing.T) {
	if s := NewScanner(); s.Timeout != DefaultScanTimeout {
		t.Errorf("Timeout = %v, want %v", s.Timeout, DefaultScanTimeout)
	}
}

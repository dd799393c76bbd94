package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/ut181a/internal/discovery"
	"github.com/muurk/ut181a/internal/dmm"
	"github.com/muurk/ut181a/internal/logging"
	"github.com/muurk/ut181a/internal/monitor"
	"github.com/muurk/ut181a/internal/protocol"
	"github.com/muurk/ut181a/internal/version"
	"go.uber.org/zap"
)

// Meter is the part of dmm.Client the server needs
type Meter interface {
	MonitorOn() error
	MonitorOff() error
	Measurement() (protocol.Measurement, error)
}

// Config holds the server configuration
type Config struct {
	Listen       string        // HTTP listen address, e.g. ":8181"
	PollInterval time.Duration // pause before retrying after a meter error
	Advertise    bool          // announce over mDNS
	InstanceName string        // mDNS instance name
	PortName     string        // serial port, reported in status
}

// Status is the body of /api/status
type Status struct {
	Version      string    `json:"version"`
	Port         string    `json:"port,omitempty"`
	Monitoring   bool      `json:"monitoring"`
	Clients      int       `json:"clients"`
	Measurements uint64    `json:"measurements"`
	LastError    string    `json:"last_error,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	Latest       *Snapshot `json:"latest,omitempty"`
}

// Server polls live measurements from the meter and streams them to
// websocket clients.
//
// The poll loop is the only goroutine that touches the meter.
type Server struct {
	cfg      Config
	meter    Meter
	metrics  *monitor.Metrics
	hub      *hub
	upgrader websocket.Upgrader
	now      func() time.Time
	started  time.Time

	mu           sync.RWMutex
	latest       *Snapshot
	latestJSON   []byte
	monitoring   bool
	measurements uint64
	lastErr      string
}

// New creates a server for meter. metrics may be nil.
func New(cfg Config, meter Meter, metrics *monitor.Metrics) *Server {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.InstanceName == "" {
		cfg.InstanceName = "UT181A"
	}
	if metrics == nil {
		metrics = monitor.New()
	}

	return &Server{
		cfg:     cfg,
		meter:   meter,
		metrics: metrics,
		hub:     newHub(metrics),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		now:     time.Now,
		started: time.Now(),
	}
}

// Handler returns the HTTP routes:
//
//	/ws               live measurements as JSON text messages
//	/api/status       server and meter status
//	/api/measurement  latest measurement
//	/metrics          Prometheus metrics
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/measurement", s.handleMeasurement)
	mux.Handle("/metrics", s.metrics.Handler())
	return logRequests(mux)
}

// Run serves HTTP and polls the meter until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Listen, err)
	}
	return s.Serve(ctx, listener)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logging.Info("Starting UT181A server",
		zap.String("addr", listener.Addr().String()),
		zap.String("port", s.cfg.PortName),
	)

	if s.cfg.Advertise {
		if tcp, ok := listener.Addr().(*net.TCPAddr); ok {
			adv, err := discovery.Advertise(s.cfg.InstanceName, tcp.Port, map[string]string{
				"version": version.Version,
				"port":    s.cfg.PortName,
				"path":    "/ws",
			})
			if err != nil {
				logging.Warn("mDNS advertisement failed", zap.Error(err))
			} else {
				defer adv.Shutdown()
			}
		}
	}

	s.metrics.StartRuntimeMonitor(ctx, 15*time.Second)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.poll(ctx)
	}()

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Serve(listener)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errChan:
		cancel()
	}

	logging.Info("Shutting down server...")
	shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		logging.Warn("HTTP shutdown incomplete", zap.Error(err))
	}
	s.hub.closeAll()
	wg.Wait()
	logging.Sync()

	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return serveErr
	}
	return nil
}

// poll keeps the meter in monitor mode and publishes every measurement.
// A timeout re-enables monitoring on the next pass.
func (s *Server) poll(ctx context.Context) {
	enabled := false
	defer func() {
		if !enabled {
			return
		}
		if err := s.meter.MonitorOff(); err != nil {
			logging.Warn("Could not stop meter monitoring", zap.Error(err))
		}
		s.setMonitoring(false)
	}()

	for ctx.Err() == nil {
		if !s.isMonitoring() {
			if err := s.meter.MonitorOn(); err != nil {
				s.recordError("monitor on", err)
				if !sleep(ctx, s.cfg.PollInterval) {
					return
				}
				continue
			}
			enabled = true
			s.setMonitoring(true)
			logging.Info("Meter monitoring enabled")
		}

		m, err := s.meter.Measurement()
		if err != nil {
			s.recordError("get measurement", err)
			if dmm.IsTimeout(err) || dmm.IsTransportError(err) {
				s.setMonitoring(false)
			}
			if !sleep(ctx, s.cfg.PollInterval) {
				return
			}
			continue
		}
		s.publish(m)
	}
}

// publish stores m as the latest measurement and broadcasts it
func (s *Server) publish(m protocol.Measurement) {
	now := s.now()
	snap := NewSnapshot(m, now)
	data, err := json.Marshal(snap)
	if err != nil {
		logging.Error("Failed to marshal measurement", zap.Error(err))
		return
	}

	s.mu.Lock()
	s.latest = snap
	s.latestJSON = data
	s.measurements++
	s.lastErr = ""
	s.mu.Unlock()

	s.metrics.ObserveMeasurement(now)
	if s.hub.broadcast(data) > 0 {
		s.metrics.ObserveBroadcast()
	}
}

func (s *Server) recordError(op string, err error) {
	logging.Warn("Meter poll failed", zap.String("op", op), zap.Error(err))
	s.mu.Lock()
	s.lastErr = dmm.GetShortErrorMessage(err)
	s.mu.Unlock()
}

func (s *Server) isMonitoring() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.monitoring
}

func (s *Server) setMonitoring(on bool) {
	s.mu.Lock()
	s.monitoring = on
	s.mu.Unlock()
}

// Status returns a snapshot of the server state
func (s *Server) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		Version:      version.Version,
		Port:         s.cfg.PortName,
		Monitoring:   s.monitoring,
		Clients:      s.hub.count(),
		Measurements: s.measurements,
		LastError:    s.lastErr,
		StartedAt:    s.started,
		Latest:       s.latest,
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
		return
	}

	c := &wsClient{
		conn: conn,
		addr: r.RemoteAddr,
		send: make(chan []byte, sendQueueSize),
	}

	s.mu.RLock()
	latest := s.latestJSON
	s.mu.RUnlock()
	if latest != nil {
		c.send <- latest
	}

	s.hub.add(c)
	go s.hub.writePump(c)
	go s.hub.readPump(c)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.Status())
}

func (s *Server) handleMeasurement(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	data := s.latestJSON
	s.mu.RUnlock()

	if data == nil {
		http.Error(w, "no measurement received yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("Failed to write response", zap.Error(err))
	}
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// sleep waits for d or until ctx is done. It reports whether ctx is still live.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

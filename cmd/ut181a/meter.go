package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/ut181a/internal/dmm"
	"github.com/muurk/ut181a/internal/logging"
	"github.com/muurk/ut181a/internal/monitor"
	"github.com/muurk/ut181a/internal/transport"
	"github.com/muurk/ut181a/internal/ui"
)

// shownError marks an error whose failure box was already printed
type shownError struct {
	err error
}

func (e *shownError) Error() string { return e.err.Error() }
func (e *shownError) Unwrap() error { return e.err }

// fail prints a failure box for err and returns it marked as shown
func fail(cmd *cobra.Command, title string, err error) error {
	// Past argument parsing, usage text is noise
	cmd.SilenceUsage = true

	hint := ""
	var me *dmm.MeterError
	if errors.As(err, &me) {
		hint = dmm.GetTroubleshootingHint(err)
		err = errors.New(dmm.GetShortErrorMessage(err))
	}
	fmt.Fprintln(cmd.ErrOrStderr(), ui.RenderFailure(title, err, hint))
	return &shownError{err: err}
}

// session is an open connection to the meter
type session struct {
	port   *transport.Serial
	client *dmm.Client
}

func (s *session) Close() {
	if err := s.port.Close(); err != nil {
		logging.Warn("Failed to close serial port", zap.Error(err))
	}
}

// openMeter opens the configured port, auto-detecting it when unset.
// metrics may be nil.
func openMeter(metrics *monitor.Metrics) (*session, error) {
	tc := cfg.TransportConfig()
	if tc.PortPath == "" {
		path, err := detectPort()
		if err != nil {
			return nil, err
		}
		tc.PortPath = path
	}

	port, err := transport.Open(tc)
	if err != nil {
		return nil, err
	}

	opts := []dmm.Option{dmm.WithWaitTimeout(cfg.Meter.WaitTimeout)}
	if metrics != nil {
		opts = append(opts, dmm.WithMetrics(metrics))
	}
	return &session{port: port, client: dmm.New(port, opts...)}, nil
}

// detectPort returns the only port with a known meter adapter
func detectPort() (string, error) {
	ports, err := transport.ListPorts()
	if err != nil {
		return "", err
	}

	var found []string
	for _, p := range ports {
		if p.Bridge() != "" {
			found = append(found, p.Name)
		}
	}

	switch len(found) {
	case 0:
		return "", errors.New("no UT181A adapter found; connect the meter or pass --port")
	case 1:
		logging.Info("Auto-detected meter adapter", zap.String("port", found[0]))
		return found[0], nil
	default:
		return "", fmt.Errorf("several meter adapters found (%s); choose one with --port", strings.Join(found, ", "))
	}
}

// withMeter opens the meter, runs fn and closes the port. Errors are
// rendered under title.
func withMeter(cmd *cobra.Command, title string, fn func(c *dmm.Client) error) error {
	s, err := openMeter(nil)
	if err != nil {
		return fail(cmd, "Cannot open meter", err)
	}
	defer s.Close()

	if err := fn(s.client); err != nil {
		return fail(cmd, title, err)
	}
	return nil
}

// parseIndex parses a 1-based index argument
func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q: must be a number", s)
	}
	return n, nil
}

// parseSwitch accepts on/off style arguments
func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "1", "true", "enable":
		return true, nil
	case "off", "0", "false", "disable":
		return false, nil
	}
	return false, fmt.Errorf("invalid value %q: want on or off", s)
}

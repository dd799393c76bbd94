package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/ut181a/internal/config"
	"github.com/muurk/ut181a/internal/discovery"
	"github.com/muurk/ut181a/internal/monitor"
	"github.com/muurk/ut181a/internal/server"
	"github.com/muurk/ut181a/internal/transport"
	"github.com/muurk/ut181a/internal/ui"
)

// Host command flags
var (
	listenAddr    string
	noAdvertise   bool
	discoverWait  time.Duration
	overwriteConf bool
)

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "HTTP listen address (default from config, :8181)")
	serveCmd.Flags().BoolVar(&noAdvertise, "no-mdns", false, "Do not announce the server over mDNS")
	discoverCmd.Flags().DurationVar(&discoverWait, "wait", discovery.DefaultScanTimeout, "How long to listen for servers")
	configInitCmd.Flags().BoolVar(&overwriteConf, "force", false, "Overwrite an existing config file")

	configCmd.AddCommand(configShowCmd, configInitCmd, configPathCmd)

	rootCmd.AddCommand(portsCmd, serveCmd, discoverCmd, configCmd)
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports and mark meter adapters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := transport.ListPorts()
		if err != nil {
			return fail(cmd, "Listing ports failed", err)
		}
		if len(ports) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), ui.MutedStyle.Render("No serial ports found."))
			return nil
		}

		rows := make([][]string, 0, len(ports))
		for _, p := range ports {
			id := ""
			if p.IsUSB {
				id = p.VID + ":" + p.PID
			}
			rows = append(rows, []string{p.Name, id, p.Product, p.Bridge()})
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderTable([]string{"Port", "USB ID", "Product", "Meter adapter"}, rows))
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Stream live measurements over HTTP and websockets",
	Long: `Keep the meter in live reporting mode and publish every reading.

Endpoints:
  /ws               live readings as JSON messages
  /api/status       server and meter status
  /api/measurement  latest reading
  /metrics          Prometheus metrics

The server announces itself over mDNS as _ut181a._tcp unless --no-mdns is set.`,
	Example: `  ut181a serve
  ut181a serve --listen 127.0.0.1:9000 --no-mdns`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	sc := *cfg.Server
	if listenAddr != "" {
		sc.Listen = listenAddr
	}
	if noAdvertise {
		sc.Advertise = false
	}

	metrics := monitor.New()
	s, err := openMeter(metrics)
	if err != nil {
		return fail(cmd, "Cannot open meter", err)
	}
	defer s.Close()

	srv := server.New(server.Config{
		Listen:       sc.Listen,
		PollInterval: sc.PollInterval,
		Advertise:    sc.Advertise,
		InstanceName: sc.InstanceName,
		PortName:     s.port.Path(),
	}, s.client, metrics)

	mdns := "off"
	if sc.Advertise {
		mdns = discovery.ServiceType + " as " + sc.InstanceName
	}
	fmt.Fprintln(cmd.OutOrStdout(), ui.NewHeader("UT181A Server",
		ui.Detail{Key: "Port", Value: s.port.Path()},
		ui.Detail{Key: "Listen", Value: sc.Listen},
		ui.Detail{Key: "mDNS", Value: mdns},
	).Render())
	fmt.Fprintln(cmd.OutOrStdout(), ui.MutedStyle.Render("Press Ctrl-C to stop."))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		return fail(cmd, "Server stopped", err)
	}
	return nil
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find ut181a servers on the local network",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		scanner := discovery.NewScanner()
		scanner.Timeout = discoverWait

		fmt.Fprintln(cmd.ErrOrStderr(), ui.MutedStyle.Render(fmt.Sprintf("Scanning for %s...", discoverWait)))
		services, err := scanner.Scan(cmd.Context())
		if err != nil {
			return fail(cmd, "Discovery failed", err)
		}
		if len(services) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), ui.MutedStyle.Render("No servers found."))
			return nil
		}

		rows := make([][]string, 0, len(services))
		for _, svc := range services {
			rows = append(rows, []string{
				svc.Instance,
				svc.WebSocketURL(),
				svc.GetMetadata("port"),
				svc.GetMetadata("version"),
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderTable([]string{"Instance", "Feed", "Serial port", "Version"}, rows))
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the config file",
}

// configFile returns the file --config names, or the default location
func configFile() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.GetConfigPath()
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configFile()
		if err != nil {
			return err
		}
		data, err := cfg.Marshal(path)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with default values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configFile()
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil && !overwriteConf {
			err := fail(cmd, "Config file exists", errors.New("file exists, pass --force to overwrite"))
			// Outside the box so long paths are not wrapped
			fmt.Fprintln(cmd.ErrOrStderr(), path)
			return err
		}

		def := config.Default()
		if err := def.SaveFile(path); err != nil {
			return fail(cmd, "Writing config failed", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.RenderSuccess("Config file written"))
		fmt.Fprintln(out, path)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configFile()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

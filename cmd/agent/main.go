// instancechart-agent is a headless discovery daemon: it joins the
// multicast group, announces a configurable service port, and logs peers as
// they're found.
//
// Usage:
//
//	instancechart-agent --port 9000
//	instancechart-agent --config /etc/instancechart/demo.yaml
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/x0tta6bl4/instancechart"
	"github.com/x0tta6bl4/instancechart/internal/chartstats"
	"github.com/x0tta6bl4/instancechart/internal/democonfig"
)

var version = "dev"

func main() {
	var (
		configPath    string
		servicePort   int
		discoveryPort int
		logLevel      string
		showVersion   bool
	)

	root := &cobra.Command{
		Use:   "instancechart-agent",
		Short: "Headless multicast peer-discovery daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Printf("instancechart-agent %s (%s/%s)\n", version, runtime.GOOS, runtime.GOARCH)
				return nil
			}
			return run(configPath, servicePort, discoveryPort, logLevel)
		},
	}

	root.Flags().StringVar(&configPath, "config", democonfig.DefaultConfigPath, "path to config file")
	root.Flags().IntVar(&servicePort, "port", 0, "service port to announce (0 to announce 9000)")
	root.Flags().IntVar(&discoveryPort, "discovery-port", 0, "discovery UDP port (0 to use config default)")
	root.Flags().StringVar(&logLevel, "log-level", "", "log level (debug/info/warn/error)")
	root.Flags().BoolVar(&showVersion, "version", false, "show version and exit")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, servicePort, discoveryPort int, logLevel string) error {
	cfg, err := democonfig.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if discoveryPort > 0 {
		cfg.DiscoveryPort = discoveryPort
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	cfg.ApplyEnvOverrides()

	if cfg.NodeID == "" {
		b := make([]byte, 4)
		if _, err := rand.Read(b); err != nil {
			return fmt.Errorf("generate node id: %w", err)
		}
		cfg.NodeID = fmt.Sprintf("ic-%s", hex.EncodeToString(b))
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	setupLogger(cfg.LogLevel)

	slog.Info("instancechart-agent starting",
		"version", version,
		"node_id", cfg.NodeID,
		"discovery_port", cfg.DiscoveryPort,
	)

	if servicePort <= 0 {
		servicePort = 9000
	}

	builder := instancechart.NewBuilder().
		WithRandomID().
		WithDiscoveryPort(cfg.DiscoveryPort).
		WithLocalDiscovery(cfg.LocalDiscovery)

	chart, err := builder.BuildPort(instancechart.ServicePort(servicePort))
	if err != nil {
		return fmt.Errorf("build chart: %w", err)
	}

	reporter := chartstats.NewReporter(chart)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		n := chart.Notify()
		defer n.Close()
		for {
			id, entry, err := n.Recv()
			if err != nil {
				slog.Warn("notify subscriber lagged", "error", err)
				continue
			}
			reporter.RecordDiscovery()
			slog.Info("peer discovered", "peer_id", id, "addr", entry.Addr, "port", entry.Payload)
		}
	}()

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s := reporter.Collect()
				slog.Info("chart stats", "size", s.ChartSize, "discovered", s.PeersDiscovered, "uptime_sec", s.UptimeSec)
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() { errCh <- chart.Maintain(ctx) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", "signal", sig)
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil {
			slog.Error("chart maintenance stopped", "error", err)
		}
	}

	slog.Info("instancechart-agent stopped")
	return nil
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}

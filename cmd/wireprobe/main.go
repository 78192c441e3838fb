// wireprobe asks the fabric DHCP server for the wire server endpoint, installs
// the routes that came with the lease and prints the endpoint on stdout.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/veesix-networks/wireprobe/internal/probe"
	"github.com/veesix-networks/wireprobe/pkg/config"
	"github.com/veesix-networks/wireprobe/pkg/dhcp"
	"github.com/veesix-networks/wireprobe/pkg/logger"
	"github.com/veesix-networks/wireprobe/pkg/osutil"
	"github.com/veesix-networks/wireprobe/pkg/version"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath     string
		platformName   string
		ifname         string
		logLevel       string
		metricsAddress string
		showVersion    bool
	)

	flagSet := pflag.NewFlagSet("wireprobe", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", config.DefaultPath, "path to configuration file")
	flagSet.StringVar(&platformName, "platform", "", "platform variant: auto, "+strings.Join(osutil.VariantNames(), ", "))
	flagSet.StringVarP(&ifname, "interface", "i", "", "probe this interface instead of the first active one")
	flagSet.StringVar(&logLevel, "log-level", "", "default log level (debug, info, warn, error)")
	flagSet.StringVar(&metricsAddress, "metrics-address", "", "serve Prometheus metrics on this address while probing")
	flagSet.BoolVar(&showVersion, "version", false, "print version and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}

	if showVersion {
		version.Print(os.Stdout, "wireprobe")
		return nil
	}

	cfg, err := config.LoadOptional(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flagSet.Changed("platform") {
		cfg.Platform = platformName
	}
	if flagSet.Changed("interface") {
		cfg.Interface = ifname
	}
	if flagSet.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if flagSet.Changed("metrics-address") {
		cfg.Metrics.Address = metricsAddress
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Configure(cfg.Logging.Format, cfg.Logging.Level, cfg.Logging.Components)
	mainLog := logger.Get(logger.Main)

	var platformOpts []osutil.Option
	if cfg.Interface != "" {
		platformOpts = append(platformOpts, osutil.WithInterface(cfg.Interface))
	}
	platform, err := osutil.New(cfg.Platform, platformOpts...)
	if err != nil {
		return fmt.Errorf("select platform: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics, err := probe.NewMetrics(registry)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	if cfg.Metrics.Address != "" {
		server := serveMetrics(cfg.Metrics.Address, registry)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				mainLog.Warn("Failed to stop metrics server", "error", err)
			}
		}()
	}

	opts := []probe.Option{
		probe.WithTransport(dhcp.NewUDPTransport(cfg.DHCP.Timeout)),
		probe.WithSchedule(cfg.DHCP.Schedule),
		probe.WithMetrics(metrics),
		probe.WithRouteConfiguration(cfg.Routes.Enabled()),
	}
	if cfg.DHCP.WaitForNetwork {
		opts = append(opts, probe.WithWaitForNetwork(cfg.DHCP.NetworkWaitInterval))
	}
	prober := probe.New(platform, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mainLog.Info("Starting wireprobe", "version", version.Version, "platform", platform.Name())
	lease, err := prober.Run(ctx)
	if err != nil {
		return err
	}

	if lease.Endpoint == nil {
		return errors.New("DHCP response did not carry a wire server endpoint")
	}
	fmt.Println(lease.Endpoint.String())
	return nil
}

func serveMetrics(addr string, registry *prometheus.Registry) *http.Server {
	log := logger.Get(logger.Main)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("Prometheus HTTP server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Prometheus HTTP server error", "error", err)
		}
	}()
	return server
}

// Package probe finds the fabric's wire server endpoint with a single DHCP
// discover round trip and applies the routes that came with it.
package probe

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/veesix-networks/wireprobe/pkg/dhcp"
	"github.com/veesix-networks/wireprobe/pkg/logger"
	"github.com/veesix-networks/wireprobe/pkg/osutil"
)

var ErrNoResponse = errors.New("no DHCP response received")

// DefaultSchedule is the wait after each failed attempt. Its length is the
// number of attempts.
func DefaultSchedule() []time.Duration {
	return []time.Duration{0, 10 * time.Second, 30 * time.Second, 60 * time.Second, 60 * time.Second}
}

type SleepFunc func(ctx context.Context, d time.Duration) error

type Prober struct {
	mu sync.Mutex

	platform        osutil.Platform
	transport       dhcp.Transport
	schedule        []time.Duration
	sleep           SleepFunc
	metrics         *Metrics
	logger          *slog.Logger
	waitForNetwork  bool
	networkWait     time.Duration
	configureRoutes bool
}

type Option func(*Prober)

func WithTransport(t dhcp.Transport) Option {
	return func(p *Prober) { p.transport = t }
}

func WithSchedule(schedule []time.Duration) Option {
	return func(p *Prober) { p.schedule = append([]time.Duration(nil), schedule...) }
}

func WithSleep(fn SleepFunc) Option {
	return func(p *Prober) { p.sleep = fn }
}

func WithMetrics(m *Metrics) Option {
	return func(p *Prober) { p.metrics = m }
}

// WithWaitForNetwork makes Run block until the interface has an address,
// restarting networking every interval.
func WithWaitForNetwork(interval time.Duration) Option {
	return func(p *Prober) {
		p.waitForNetwork = true
		p.networkWait = interval
	}
}

func WithRouteConfiguration(enabled bool) Option {
	return func(p *Prober) { p.configureRoutes = enabled }
}

func New(platform osutil.Platform, opts ...Option) *Prober {
	p := &Prober{
		platform:        platform,
		transport:       dhcp.NewUDPTransport(dhcp.DefaultTimeout),
		schedule:        DefaultSchedule(),
		sleep:           sleepContext,
		logger:          logger.Get(logger.Probe),
		networkWait:     10 * time.Second,
		configureRoutes: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run discovers the endpoint and, unless disabled, installs the gateway and
// static routes. Route failures are logged and do not fail the run.
func (p *Prober) Run(ctx context.Context) (*dhcp.Lease, error) {
	if p.waitForNetwork {
		if err := p.WaitForNetwork(ctx); err != nil {
			return nil, fmt.Errorf("wait for network: %w", err)
		}
	}

	lease, err := p.Discover(ctx)
	if err != nil {
		return nil, err
	}

	if p.configureRoutes {
		if err := p.ConfigureRoutes(lease); err != nil {
			p.logger.Warn("Some routes were not applied", "error", err)
		}
	}

	if lease.Endpoint == nil {
		p.logger.Warn("DHCP response carried no wire server endpoint")
	} else {
		p.logger.Info("Discovered wire server endpoint", "endpoint", lease.Endpoint.String())
	}

	return lease, nil
}

// Discover performs the retried exchange. The host is prepared once around
// the whole loop and restored before returning, whatever the outcome. Only
// one Discover runs at a time per Prober since the client port and the
// routing changes are host wide.
func (p *Prober) Discover(ctx context.Context) (*dhcp.Lease, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ifname, err := p.platform.InterfaceName()
	if err != nil {
		return nil, fmt.Errorf("resolve interface: %w", err)
	}
	mac, err := p.platform.HardwareAddr(ifname)
	if err != nil {
		return nil, fmt.Errorf("resolve hardware address: %w", err)
	}

	req, err := dhcp.BuildRequest(mac)
	if err != nil {
		return nil, fmt.Errorf("build dhcp request on %s: %w", ifname, err)
	}

	log := logger.WithInterface(p.logger, ifname, mac.String())
	log.Info("Sending DHCP discover", "xid", fmt.Sprintf("%08x", req.XID()))

	resp, err := p.exchangeWithHost(ctx, ifname, req, log)
	p.metrics.observeDiscovery(err)
	if err != nil {
		return nil, err
	}

	return dhcp.ParseOptions(resp, logger.Get(logger.DHCP)), nil
}

func (p *Prober) exchangeWithHost(ctx context.Context, ifname string, req dhcp.Request, log *slog.Logger) ([]byte, error) {
	restore := p.prepareHost(ifname, log)
	defer restore()

	return p.exchange(ctx, req, log)
}

// prepareHost adds the broadcast route when the host has no default route
// and stops a contending DHCP client. The returned func undoes both, in
// reverse order, even if the setup step itself failed.
func (p *Prober) prepareHost(ifname string, log *slog.Logger) func() {
	var undo []func()

	missing, err := p.platform.MissingDefaultRoute()
	if err != nil {
		log.Warn("Failed to check for default route", "error", err)
	}
	if missing {
		if err := p.platform.SetBroadcastRoute(ifname); err != nil {
			log.Warn("Failed to add DHCP broadcast route", "error", err)
		}
		undo = append(undo, func() {
			if err := p.platform.RemoveBroadcastRoute(ifname); err != nil {
				log.Warn("Failed to remove DHCP broadcast route", "error", err)
			}
		})
	}

	if p.platform.DHCPEnabled() {
		if err := p.platform.StopDHCPService(); err != nil {
			log.Warn("Failed to stop DHCP service", "error", err)
		}
		undo = append(undo, func() {
			if err := p.platform.StartDHCPService(); err != nil {
				log.Warn("Failed to start DHCP service", "error", err)
			}
		})
	}

	return func() {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
	}
}

// exchange walks the schedule. Each failed attempt is followed by its wait,
// the last one included.
func (p *Prober) exchange(ctx context.Context, req dhcp.Request, log *slog.Logger) ([]byte, error) {
	for i, wait := range p.schedule {
		attempt := i + 1

		if err := p.platform.AllowDHCPBroadcast(); err != nil {
			log.Warn("Failed to allow DHCP broadcast", "error", err)
		}

		start := time.Now()
		resp, err := p.transport.Exchange(req)
		if err == nil {
			err = dhcp.Validate(req, resp)
		}
		p.metrics.observeAttempt(err, time.Since(start))

		if err == nil {
			log.Info("Received DHCP response", "attempt", attempt, "bytes", len(resp))
			p.logResponse(resp, log)
			return resp, nil
		}

		log.Warn("DHCP attempt failed", "attempt", attempt, "attempts", len(p.schedule), "error", err, "wait", wait)
		if err := p.sleep(ctx, wait); err != nil {
			return nil, errors.Join(ErrNoResponse, err)
		}
	}

	return nil, ErrNoResponse
}

func (p *Prober) logResponse(resp []byte, log *slog.Logger) {
	if !log.Enabled(context.Background(), slog.LevelDebug) {
		return
	}

	log.Debug("DHCP response", "hex", hex.EncodeToString(resp))

	summary, err := dhcp.Describe(resp)
	if err != nil {
		log.Debug("Failed to decode DHCP response", "error", err)
		return
	}
	log.Debug("DHCP response summary",
		"op", summary.Operation,
		"type", summary.MessageType,
		"yiaddr", summary.YourIP,
		"server_id", summary.ServerID,
		"options", summary.Options,
	)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

package probe

import (
	"errors"
	"fmt"

	"github.com/veesix-networks/wireprobe/pkg/dhcp"
	"github.com/veesix-networks/wireprobe/pkg/osutil"
)

// ConfigureRoutes installs the lease gateway as the default route and then
// every static route in the order received. A failed route does not stop
// the ones after it; all failures are returned joined.
func (p *Prober) ConfigureRoutes(lease *dhcp.Lease) error {
	p.logger.Info("Configuring routes", "gateway", lease.Gateway, "routes", len(lease.Routes))

	var errs []error

	if lease.Gateway != nil {
		def := dhcp.Route{Gateway: osutil.IPv4ToUint32(lease.Gateway)}
		if err := p.addRoute(def); err != nil {
			errs = append(errs, err)
		}
	}

	for _, r := range lease.Routes {
		if err := p.addRoute(r); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (p *Prober) addRoute(r dhcp.Route) error {
	err := p.platform.AddRoute(r.Network, r.Mask, r.Gateway)
	p.metrics.observeRoute(err)
	if err != nil {
		p.logger.Error("Failed to add route", "route", r.String(), "error", err)
		return fmt.Errorf("route %s: %w", r, err)
	}
	return nil
}

package probe

import "context"

// WaitForNetwork blocks until the probe interface has an IPv4 address,
// asking the platform to start networking after every wait.
func (p *Prober) WaitForNetwork(ctx context.Context) error {
	for {
		ip, err := p.platform.IPv4Address()
		if err != nil {
			p.logger.Warn("Failed to read interface address", "error", err)
		}
		if ip != nil && !ip.IsUnspecified() {
			p.logger.Info("Network is up", "address", ip.String())
			return nil
		}

		p.logger.Info("Waiting for network", "retry_in", p.networkWait)
		if err := p.sleep(ctx, p.networkWait); err != nil {
			return err
		}

		p.logger.Info("Starting network interface")
		if err := p.platform.StartNetwork(); err != nil {
			p.logger.Warn("Failed to start network", "error", err)
		}
	}
}

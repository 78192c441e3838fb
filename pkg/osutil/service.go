package osutil

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// CommandRunner runs an external command and returns its combined output.
type CommandRunner func(name string, args ...string) ([]byte, error)

func ExecRunner(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).CombinedOutput()
}

// services drives systemd units and the host firewall for a variant.
type services struct {
	variant Variant
	run     CommandRunner
	logger  *slog.Logger
}

func (s *services) DHCPEnabled() bool {
	return s.variant.DHCPService != ""
}

func (s *services) StopDHCPService() error {
	if !s.DHCPEnabled() {
		return fmt.Errorf("stop dhcp service on %s: %w", s.variant.Name, ErrUnsupported)
	}
	return s.systemctl("stop", s.variant.DHCPService)
}

func (s *services) StartDHCPService() error {
	if !s.DHCPEnabled() {
		return fmt.Errorf("start dhcp service on %s: %w", s.variant.Name, ErrUnsupported)
	}
	return s.systemctl("start", s.variant.DHCPService)
}

func (s *services) StartNetwork() error {
	if s.variant.NetworkService == "" {
		return fmt.Errorf("start network on %s: %w", s.variant.Name, ErrUnsupported)
	}
	return s.systemctl("start", s.variant.NetworkService)
}

// AllowDHCPBroadcast opens the client port in iptables. The delete before
// the insert keeps repeated calls from stacking rules. Errors are not
// reported: hosts without iptables need no rule.
func (s *services) AllowDHCPBroadcast() error {
	rule := []string{"INPUT", "-p", "udp", "--dport", "68", "-j", "ACCEPT"}

	if out, err := s.run("iptables", append([]string{"-D"}, rule...)...); err != nil {
		s.logger.Debug("iptables delete", "error", err, "output", strings.TrimSpace(string(out)))
	}
	if out, err := s.run("iptables", append([]string{"-I"}, rule...)...); err != nil {
		s.logger.Debug("iptables insert", "error", err, "output", strings.TrimSpace(string(out)))
	}
	return nil
}

func (s *services) systemctl(action, unit string) error {
	out, err := s.run("systemctl", action, unit)
	if err != nil {
		return fmt.Errorf("systemctl %s %s: %w: %s", action, unit, err, strings.TrimSpace(string(out)))
	}
	s.logger.Info("Service "+action, "unit", unit)
	return nil
}

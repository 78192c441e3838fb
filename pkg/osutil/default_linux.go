//go:build linux

package osutil

import (
	"errors"
	"fmt"
	"net"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	"github.com/veesix-networks/wireprobe/pkg/logger"
)

var broadcastDst = &net.IPNet{IP: net.IPv4bcast.To4(), Mask: net.CIDRMask(32, 32)}

// Default is the netlink backed platform. Distribution differences live in
// its Variant.
type Default struct {
	services
	iface string
}

type Option func(*Default)

// WithInterface pins the probe to ifname instead of the first active link.
func WithInterface(ifname string) Option {
	return func(d *Default) { d.iface = ifname }
}

func WithCommandRunner(run CommandRunner) Option {
	return func(d *Default) { d.run = run }
}

// New builds the platform for a variant name. VariantAuto consults
// /etc/os-release.
func New(name string, opts ...Option) (Platform, error) {
	if name == "" || name == VariantAuto {
		name = Detect("/etc/os-release")
	}

	v, err := LookupVariant(name)
	if err != nil {
		return nil, err
	}

	log := logger.Get(logger.OSUtil)
	d := &Default{
		services: services{variant: v, run: ExecRunner, logger: log},
	}
	for _, opt := range opts {
		opt(d)
	}

	log.Info("Selected platform", "variant", v.Name, "dhcp_service", v.DHCPService)
	return d, nil
}

func (d *Default) Name() string {
	return d.variant.Name
}

func (d *Default) InterfaceName() (string, error) {
	if d.iface != "" {
		return d.iface, nil
	}

	links, err := netlink.LinkList()
	if err != nil {
		return "", fmt.Errorf("list links: %w", err)
	}

	link, err := firstActiveLink(links)
	if err != nil {
		return "", err
	}
	return link.Attrs().Name, nil
}

func (d *Default) HardwareAddr(ifname string) (net.HardwareAddr, error) {
	link, err := netlink.LinkByName(ifname)
	if err != nil {
		return nil, fmt.Errorf("interface %q not found: %w", ifname, err)
	}
	return link.Attrs().HardwareAddr, nil
}

// IPv4Address returns nil without error when the interface has no address yet.
func (d *Default) IPv4Address() (net.IP, error) {
	ifname, err := d.InterfaceName()
	if err != nil {
		return nil, err
	}

	link, err := netlink.LinkByName(ifname)
	if err != nil {
		return nil, fmt.Errorf("interface %q not found: %w", ifname, err)
	}

	addrs, err := netlink.AddrList(link, netlink.FAMILY_V4)
	if err != nil {
		return nil, fmt.Errorf("list addresses on %q: %w", ifname, err)
	}
	for _, a := range addrs {
		if a.IPNet != nil && a.IP.To4() != nil {
			return a.IP.To4(), nil
		}
	}
	return nil, nil
}

func (d *Default) MissingDefaultRoute() (bool, error) {
	routes, err := netlink.RouteList(nil, netlink.FAMILY_V4)
	if err != nil {
		return false, fmt.Errorf("list routes: %w", err)
	}
	return !hasDefaultRoute(routes), nil
}

func (d *Default) SetBroadcastRoute(ifname string) error {
	route, err := d.broadcastRoute(ifname)
	if err != nil {
		return err
	}
	if err := netlink.RouteAdd(route); err != nil && !errors.Is(err, unix.EEXIST) {
		return fmt.Errorf("add broadcast route on %q: %w", ifname, err)
	}
	d.logger.Debug("Added DHCP broadcast route", "interface", ifname)
	return nil
}

func (d *Default) RemoveBroadcastRoute(ifname string) error {
	route, err := d.broadcastRoute(ifname)
	if err != nil {
		return err
	}
	if err := netlink.RouteDel(route); err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("remove broadcast route on %q: %w", ifname, err)
	}
	d.logger.Debug("Removed DHCP broadcast route", "interface", ifname)
	return nil
}

func (d *Default) broadcastRoute(ifname string) (*netlink.Route, error) {
	link, err := netlink.LinkByName(ifname)
	if err != nil {
		return nil, fmt.Errorf("interface %q not found: %w", ifname, err)
	}
	return &netlink.Route{
		LinkIndex: link.Attrs().Index,
		Dst:       broadcastDst,
		Scope:     netlink.SCOPE_LINK,
	}, nil
}

func (d *Default) AddRoute(network, mask, gateway uint32) error {
	route := routeFor(network, mask, gateway)
	if err := netlink.RouteAdd(route); err != nil {
		return fmt.Errorf("add route %s via %s: %w", route.Dst, route.Gw, err)
	}
	d.logger.Info("Added route", "dst", route.Dst.String(), "gateway", route.Gw.String())
	return nil
}

func routeFor(network, mask, gateway uint32) *netlink.Route {
	return &netlink.Route{
		Dst: &net.IPNet{
			IP:   Uint32ToIPv4(network & mask),
			Mask: net.IPMask(Uint32ToIPv4(mask)),
		},
		Gw: Uint32ToIPv4(gateway),
	}
}

// firstActiveLink picks the first link that is
// up and not loopback and carries an Ethernet address.
func firstActiveLink(links []netlink.Link) (netlink.Link, error) {
	for _, l := range links {
		attrs := l.Attrs()
		if attrs.Flags&net.FlagLoopback != 0 || attrs.Flags&net.FlagUp == 0 {
			continue
		}
		if len(attrs.HardwareAddr) != 6 {
			continue
		}
		return l, nil
	}
	return nil, errors.New("no active non-loopback interface")
}

func hasDefaultRoute(routes []netlink.Route) bool {
	for _, r := range routes {
		if r.Dst == nil {
			return true
		}
		if ones, _ := r.Dst.Mask.Size(); ones == 0 && r.Dst.IP.IsUnspecified() {
			return true
		}
	}
	return false
}

var _ Platform = (*Default)(nil)

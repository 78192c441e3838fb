// Package osutil is the host collaborator of the endpoint probe: interface
// lookup, the temporary DHCP broadcast route, the distribution's DHCP client
// service and route installation.
package osutil

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"os"
	"sort"
	"strings"
)

// ErrUnsupported is returned when the running host or the selected variant
// lacks a capability. It wraps errors.ErrUnsupported.
var ErrUnsupported = fmt.Errorf("osutil: %w", errors.ErrUnsupported)

type Platform interface {
	Name() string

	InterfaceName() (string, error)
	HardwareAddr(ifname string) (net.HardwareAddr, error)
	IPv4Address() (net.IP, error)

	MissingDefaultRoute() (bool, error)
	SetBroadcastRoute(ifname string) error
	RemoveBroadcastRoute(ifname string) error
	AllowDHCPBroadcast() error

	DHCPEnabled() bool
	StopDHCPService() error
	StartDHCPService() error
	StartNetwork() error

	// AddRoute installs network/mask via gateway. All three are IPv4
	// addresses in host order; network 0 with mask 0 is the default route.
	AddRoute(network, mask, gateway uint32) error
}

// Variant is the per-distribution part of a platform. Everything else is
// shared by the default implementation.
type Variant struct {
	Name string
	// DHCPService is the unit stopped for the duration of a probe so that
	// it does not hold the client port. Empty means no contending client.
	DHCPService    string
	NetworkService string
}

const (
	VariantAuto    = "auto"
	VariantDefault = "default"
)

var variants = map[string]Variant{
	VariantDefault: {Name: VariantDefault, NetworkService: "networking"},
	"ubuntu":       {Name: "ubuntu", NetworkService: "networking"},
	"debian":       {Name: "debian", NetworkService: "networking"},
	"redhat":       {Name: "redhat", NetworkService: "network"},
	"centos":       {Name: "centos", NetworkService: "network"},
	"suse":         {Name: "suse", DHCPService: "wickedd-dhcp4", NetworkService: "network"},
	"coreos":       {Name: "coreos", DHCPService: "systemd-networkd", NetworkService: "systemd-networkd"},
}

// osReleaseIDs maps /etc/os-release ID values onto variant names.
var osReleaseIDs = map[string]string{
	"ubuntu":        "ubuntu",
	"debian":        "debian",
	"rhel":          "redhat",
	"fedora":        "redhat",
	"centos":        "centos",
	"almalinux":     "centos",
	"rocky":         "centos",
	"sles":          "suse",
	"opensuse":      "suse",
	"opensuse-leap": "suse",
	"coreos":        "coreos",
	"flatcar":       "coreos",
}

// LookupVariant returns the named variant. Unknown names are unsupported.
func LookupVariant(name string) (Variant, error) {
	v, ok := variants[strings.ToLower(name)]
	if !ok {
		return Variant{}, fmt.Errorf("platform %q: %w", name, ErrUnsupported)
	}
	return v, nil
}

func VariantNames() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Detect picks a variant name from an os-release file. A missing file or an
// unknown ID falls back to the default variant.
func Detect(osReleasePath string) string {
	f, err := os.Open(osReleasePath)
	if err != nil {
		return VariantDefault
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok || key != "ID" {
			continue
		}
		id := strings.ToLower(strings.Trim(value, `"'`))
		if name, ok := osReleaseIDs[id]; ok {
			return name
		}
		return VariantDefault
	}

	return VariantDefault
}

func Uint32ToIPv4(v uint32) net.IP {
	ip := make(net.IP, net.IPv4len)
	binary.BigEndian.PutUint32(ip, v)
	return ip
}

// IPv4ToUint32 returns 0 for anything that is not an IPv4 address.
func IPv4ToUint32(ip net.IP) uint32 {
	v4 := ip.To4()
	if v4 == nil {
		return 0
	}
	return binary.BigEndian.Uint32(v4)
}

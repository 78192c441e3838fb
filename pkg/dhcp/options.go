package dhcp

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"net"
)

const (
	OptPad             = 0
	OptRouter          = 3
	OptMessageType     = 53
	OptServerID        = 54
	OptEndpoint        = 245
	OptClasslessRoutes = 249
	OptEnd             = 255
)

// Route is one classless static route from option 249. All fields are IPv4
// addresses in host order.
type Route struct {
	Network uint32
	Mask    uint32
	Gateway uint32
}

func (r Route) String() string {
	ones, _ := net.IPMask(uint32ToIP(r.Mask)).Size()
	return fmt.Sprintf("%s/%d via %s", uint32ToIP(r.Network), ones, uint32ToIP(r.Gateway))
}

// Lease is what a single discover round trip tells us. Endpoint and Gateway
// are nil when the option was absent or malformed.
type Lease struct {
	Endpoint net.IP
	Gateway  net.IP
	Routes   []Route
}

// ParseOptions walks the option area of a validated response. Malformed
// options are logged and left out of the lease; parsing never fails.
func ParseOptions(resp []byte, log *slog.Logger) *Lease {
	lease := &Lease{}
	n := len(resp)

	i := optionsOffset
	for i < n {
		code := resp[i]
		length := 0
		if i+1 < n {
			length = int(resp[i+1])
		}

		log.Debug("DHCP option", "code", code, "offset", fmt.Sprintf("%#x", i), "length", length)

		switch code {
		case OptEnd:
			log.Debug("DHCP options end", "offset", fmt.Sprintf("%#x", i))
			return lease
		case OptRouter:
			lease.Gateway = parseIPv4Option(resp, code, i, length, log)
		case OptEndpoint:
			lease.Endpoint = parseIPv4Option(resp, code, i, length, log)
		case OptClasslessRoutes:
			lease.Routes = parseClasslessRoutes(resp, i, length, log)
		default:
			log.Debug("Skipping DHCP option", "code", code, "length", length)
		}

		i += length + 2
	}

	return lease
}

func parseIPv4Option(resp []byte, code byte, i, length int, log *slog.Logger) net.IP {
	if i+2+4 > len(resp) {
		log.Error("DHCP option truncated", "code", code, "offset", i, "available", len(resp)-i)
		return nil
	}
	if length != 4 {
		log.Error("DHCP address option is not 4 bytes", "code", code, "length", length)
		return nil
	}
	return uint32ToIP(binary.BigEndian.Uint32(resp[i+2 : i+6]))
}

// parseClasslessRoutes decodes RFC 3442 entries: a prefix length, the
// significant octets of the network and a 4 byte next hop.
func parseClasslessRoutes(resp []byte, i, length int, log *slog.Logger) []Route {
	if length < 5 {
		log.Error("DHCP classless route option too small", "length", length)
	}

	var routes []Route
	end := i + 2 + length
	j := i + 2
	for j < end {
		if j >= len(resp) {
			log.Error("DHCP classless route option truncated", "offset", j, "end", end)
			return routes
		}

		prefix := int(resp[j])
		if prefix > 32 {
			log.Error("DHCP classless route has invalid prefix length", "prefix", prefix, "offset", j)
			return routes
		}
		netBytes := (prefix + 7) / 8
		if j+1+netBytes+4 > len(resp) {
			log.Error("DHCP classless route entry truncated", "offset", j, "prefix", prefix)
			return routes
		}
		j++

		var network uint32
		for k := 0; k < netBytes; k++ {
			network = network<<8 | uint32(resp[j+k])
		}
		network <<= uint(32 - netBytes*8)
		mask := PrefixMask(prefix)
		network &= mask
		j += netBytes

		gateway := binary.BigEndian.Uint32(resp[j : j+4])
		j += 4

		routes = append(routes, Route{Network: network, Mask: mask, Gateway: gateway})
	}

	if j != end {
		log.Error("Unable to parse DHCP classless routes", "consumed", j-i-2, "length", length)
	}

	return routes
}

// PrefixMask returns the IPv4 netmask for a prefix length in host order.
func PrefixMask(prefix int) uint32 {
	if prefix <= 0 {
		return 0
	}
	if prefix >= 32 {
		return 0xFFFFFFFF
	}
	return ^uint32(0) << uint(32-prefix)
}

func uint32ToIP(v uint32) net.IP {
	ip := make(net.IP, net.IPv4len)
	binary.BigEndian.PutUint32(ip, v)
	return ip
}

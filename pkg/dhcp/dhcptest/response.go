// Package dhcptest builds synthetic fabric replies for tests.
package dhcptest

import (
	"net"

	"github.com/veesix-networks/wireprobe/pkg/dhcp"
)

type Option struct {
	Code byte
	Data []byte
}

func IPv4(code byte, ip string) Option {
	return Option{Code: code, Data: net.ParseIP(ip).To4()}
}

// Route encodes one classless static route entry (prefix, significant
// network octets, next hop).
func Route(prefix int, network, gateway string) []byte {
	octets := (prefix + 7) / 8
	b := []byte{byte(prefix)}
	b = append(b, net.ParseIP(network).To4()[:octets]...)
	return append(b, net.ParseIP(gateway).To4()...)
}

func Routes(entries ...[]byte) Option {
	var data []byte
	for _, e := range entries {
		data = append(data, e...)
	}
	return Option{Code: dhcp.OptClasslessRoutes, Data: data}
}

// Response returns a BOOTREPLY that echoes the transaction id, hardware
// address and cookie of req, carries opts after a DHCPOFFER message type and
// ends with an end option. It is zero padded to dhcp.MinResponseSize.
func Response(req dhcp.Request, opts ...Option) []byte {
	resp := make([]byte, 0xF0, 512)
	copy(resp, req.Bytes())
	resp[0] = 2

	resp = append(resp, dhcp.OptMessageType, 1, byte(dhcp.MessageOffer))
	for _, o := range opts {
		resp = append(resp, o.Code, byte(len(o.Data)))
		resp = append(resp, o.Data...)
	}
	resp = append(resp, dhcp.OptEnd)

	for len(resp) < dhcp.MinResponseSize {
		resp = append(resp, dhcp.OptPad)
	}
	return resp
}

// Raw returns only the fixed header and cookie of a reply to req so tests
// can append option bytes of their own.
func Raw(req dhcp.Request) []byte {
	resp := make([]byte, 0xF0, 512)
	copy(resp, req.Bytes())
	resp[0] = 2
	return resp
}

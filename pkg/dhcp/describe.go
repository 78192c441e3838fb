package dhcp

import (
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// Summary is a decoded view of a response used for diagnostics only. The
// lease itself always comes from ParseOptions.
type Summary struct {
	Operation   string
	MessageType string
	XID         uint32
	YourIP      net.IP
	ServerID    net.IP
	Options     []uint8
}

func Describe(resp []byte) (*Summary, error) {
	pkt := &layers.DHCPv4{}
	if err := pkt.DecodeFromBytes(resp, gopacket.NilDecodeFeedback); err != nil {
		return nil, fmt.Errorf("decode dhcp response: %w", err)
	}

	s := &Summary{
		Operation:   pkt.Operation.String(),
		MessageType: layers.DHCPMsgTypeUnspecified.String(),
		XID:         pkt.Xid,
		YourIP:      pkt.YourClientIP,
	}

	for _, opt := range pkt.Options {
		s.Options = append(s.Options, uint8(opt.Type))
		switch {
		case opt.Type == layers.DHCPOptMessageType && len(opt.Data) == 1:
			s.MessageType = layers.DHCPMsgType(opt.Data[0]).String()
		case opt.Type == layers.DHCPOptServerID && len(opt.Data) == 4:
			s.ServerID = net.IP(opt.Data)
		}
	}

	return s, nil
}

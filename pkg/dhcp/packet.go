package dhcp

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
)

const (
	ServerPort = 67
	ClientPort = 68

	// RequestSize is the length of the DHCPDISCOVER we put on the wire.
	RequestSize = 0xF4
	// MinResponseSize is the shortest reply we are willing to look at. It is
	// two bytes longer than the request; the fabric responder has always
	// been measured against this value.
	MinResponseSize = 0xF6

	opBootRequest   = 1
	htypeEthernet   = 1
	hardwareAddrLen = 6

	xidOffset     = 0x04
	chaddrOffset  = 0x1C
	cookieOffset  = 0xEC
	optionsOffset = 0xF0
)

var (
	magicCookie = [4]byte{99, 130, 83, 99}

	ErrInvalidHardwareAddr = errors.New("hardware address must be 6 bytes")
)

type MessageType uint8

const (
	MessageDiscover MessageType = 1
	MessageOffer    MessageType = 2
	MessageAck      MessageType = 5
)

// Request is an immutable DHCPDISCOVER buffer. The transaction id is fixed at
// build time so every retry of an exchange carries the same one.
type Request struct {
	buf [RequestSize]byte
}

// BuildRequest returns a DHCPDISCOVER for mac with a random transaction id.
func BuildRequest(mac net.HardwareAddr) (Request, error) {
	var xid [4]byte
	if _, err := rand.Read(xid[:]); err != nil {
		return Request{}, fmt.Errorf("generate transaction id: %w", err)
	}
	return buildRequestWithXID(mac, xid)
}

func buildRequestWithXID(mac net.HardwareAddr, xid [4]byte) (Request, error) {
	var r Request
	if len(mac) != hardwareAddrLen {
		return r, fmt.Errorf("%w: got %d", ErrInvalidHardwareAddr, len(mac))
	}

	r.buf[0] = opBootRequest
	r.buf[1] = htypeEthernet
	r.buf[2] = hardwareAddrLen
	copy(r.buf[xidOffset:xidOffset+4], xid[:])
	copy(r.buf[chaddrOffset:chaddrOffset+hardwareAddrLen], mac)

	trailer := r.buf[cookieOffset:]
	copy(trailer, magicCookie[:])
	trailer[4] = OptMessageType
	trailer[5] = 1
	trailer[6] = byte(MessageDiscover)
	trailer[7] = OptEnd

	return r, nil
}

// Bytes returns a copy of the wire encoding.
func (r Request) Bytes() []byte {
	b := make([]byte, RequestSize)
	copy(b, r.buf[:])
	return b
}

func (r Request) XID() uint32 {
	return binary.BigEndian.Uint32(r.buf[xidOffset : xidOffset+4])
}

func (r Request) HardwareAddr() net.HardwareAddr {
	mac := make(net.HardwareAddr, hardwareAddrLen)
	copy(mac, r.buf[chaddrOffset:chaddrOffset+hardwareAddrLen])
	return mac
}

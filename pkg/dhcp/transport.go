package dhcp

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"
)

const (
	DefaultTimeout = 10 * time.Second

	maxResponseSize = 1024
)

// Transport performs one send and one receive. It never retries.
type Transport interface {
	Exchange(req Request) ([]byte, error)
}

type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("dhcp %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the receive gave up waiting.
func (e *TransportError) Timeout() bool {
	ne, ok := e.Err.(net.Error)
	return ok && ne.Timeout()
}

// UDPTransport broadcasts from the DHCP client port and waits for a single
// datagram. A fresh socket is opened and closed for every exchange.
type UDPTransport struct {
	Timeout    time.Duration
	ListenAddr string
	ServerAddr string
}

func NewUDPTransport(timeout time.Duration) *UDPTransport {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &UDPTransport{
		Timeout:    timeout,
		ListenAddr: net.JoinHostPort(net.IPv4zero.String(), strconv.Itoa(ClientPort)),
		ServerAddr: net.JoinHostPort(net.IPv4bcast.String(), strconv.Itoa(ServerPort)),
	}
}

func (t *UDPTransport) Exchange(req Request) ([]byte, error) {
	lc := net.ListenConfig{Control: setBroadcastOptions}
	conn, err := lc.ListenPacket(context.Background(), "udp4", t.ListenAddr)
	if err != nil {
		return nil, &TransportError{Op: "bind", Err: err}
	}
	defer conn.Close()

	dst, err := net.ResolveUDPAddr("udp4", t.ServerAddr)
	if err != nil {
		return nil, &TransportError{Op: "resolve", Err: err}
	}

	if _, err := conn.WriteTo(req.Bytes(), dst); err != nil {
		return nil, &TransportError{Op: "send", Err: err}
	}

	if err := conn.SetReadDeadline(time.Now().Add(t.Timeout)); err != nil {
		return nil, &TransportError{Op: "deadline", Err: err}
	}

	buf := make([]byte, maxResponseSize)
	n, _, err := conn.ReadFrom(buf)
	if err != nil {
		return nil, &TransportError{Op: "receive", Err: err}
	}

	return buf[:n], nil
}

package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/veesix-networks/wireprobe/pkg/dhcp"
	"github.com/veesix-networks/wireprobe/pkg/dhcp/dhcptest"
	"github.com/veesix-networks/wireprobe/pkg/osutil"
)

var testMAC = net.HardwareAddr{0x00, 0x15, 0x5d, 0x01, 0x02, 0x03}

type fakePlatform struct {
	mu    sync.Mutex
	calls []string

	missingDefault bool
	dhcpEnabled    bool
	addrs          []net.IP
	routeErrs      map[string]error
	routes         []string
}

var _ osutil.Platform = (*fakePlatform)(nil)

func (f *fakePlatform) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakePlatform) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakePlatform) Name() string { return "fake" }

func (f *fakePlatform) InterfaceName() (string, error) { return "eth0", nil }

func (f *fakePlatform) HardwareAddr(string) (net.HardwareAddr, error) { return testMAC, nil }

func (f *fakePlatform) IPv4Address() (net.IP, error) {
	f.record("ipv4")
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.addrs) == 0 {
		return nil, nil
	}
	ip := f.addrs[0]
	f.addrs = f.addrs[1:]
	return ip, nil
}

func (f *fakePlatform) MissingDefaultRoute() (bool, error) { return f.missingDefault, nil }

func (f *fakePlatform) SetBroadcastRoute(ifname string) error {
	f.record("set-broadcast " + ifname)
	return nil
}

func (f *fakePlatform) RemoveBroadcastRoute(ifname string) error {
	f.record("remove-broadcast " + ifname)
	return nil
}

func (f *fakePlatform) AllowDHCPBroadcast() error {
	f.record("allow-broadcast")
	return nil
}

func (f *fakePlatform) DHCPEnabled() bool { return f.dhcpEnabled }

func (f *fakePlatform) StopDHCPService() error {
	f.record("stop-dhcp")
	return nil
}

func (f *fakePlatform) StartDHCPService() error {
	f.record("start-dhcp")
	return nil
}

func (f *fakePlatform) StartNetwork() error {
	f.record("start-network")
	return nil
}

func (f *fakePlatform) AddRoute(network, mask, gateway uint32) error {
	ones, _ := net.IPMask(osutil.Uint32ToIPv4(mask)).Size()
	r := fmt.Sprintf("%s/%d via %s", osutil.Uint32ToIPv4(network), ones, osutil.Uint32ToIPv4(gateway))
	f.record("route " + r)
	if err, ok := f.routeErrs[r]; ok {
		return err
	}
	f.mu.Lock()
	f.routes = append(f.routes, r)
	f.mu.Unlock()
	return nil
}

// scriptedTransport answers each Exchange with the next step. A nil step
// replies with a valid response built from opts.
type scriptedTransport struct {
	mu       sync.Mutex
	steps    []func(req dhcp.Request) ([]byte, error)
	requests []dhcp.Request
	platform *fakePlatform
	opts     []dhcptest.Option
}

func (s *scriptedTransport) Exchange(req dhcp.Request) ([]byte, error) {
	if s.platform != nil {
		s.platform.record("exchange")
	}

	s.mu.Lock()
	n := len(s.requests)
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	if n < len(s.steps) && s.steps[n] != nil {
		return s.steps[n](req)
	}
	return dhcptest.Response(req, s.opts...), nil
}

func (s *scriptedTransport) Requests() []dhcp.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]dhcp.Request(nil), s.requests...)
}

var errTimeout = &dhcp.TransportError{Op: "receive", Err: timeoutError{}}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func fail(err error) func(dhcp.Request) ([]byte, error) {
	return func(dhcp.Request) ([]byte, error) { return nil, err }
}

func reply(mutate func([]byte) []byte) func(dhcp.Request) ([]byte, error) {
	return func(req dhcp.Request) ([]byte, error) {
		return mutate(dhcptest.Response(req)), nil
	}
}

type sleepRecorder struct {
	mu     sync.Mutex
	waits  []time.Duration
	cancel context.CancelFunc
	after  int
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	n := len(s.waits)
	s.mu.Unlock()

	if s.cancel != nil && n == s.after {
		s.cancel()
	}
	return ctx.Err()
}

func (s *sleepRecorder) Waits() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.waits...)
}

var errRefused = errors.New("connection refused")

package probe

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitForNetworkAlreadyUp(t *testing.T) {
	platform := &fakePlatform{addrs: []net.IP{net.ParseIP("10.0.0.4")}}
	sleeper := &sleepRecorder{}
	p, _ := newTestProber(t, platform, &scriptedTransport{}, sleeper)

	require.NoError(t, p.WaitForNetwork(context.Background()))
	assert.Equal(t, []string{"ipv4"}, platform.Calls())
	assert.Empty(t, sleeper.Waits())
}

func TestWaitForNetworkRestartsNetworking(t *testing.T) {
	platform := &fakePlatform{addrs: []net.IP{nil, net.IPv4zero, net.ParseIP("10.0.0.4")}}
	sleeper := &sleepRecorder{}
	p, _ := newTestProber(t, platform, &scriptedTransport{}, sleeper, WithWaitForNetwork(5*time.Second))

	require.NoError(t, p.WaitForNetwork(context.Background()))
	assert.Equal(t, []string{"ipv4", "start-network", "ipv4", "start-network", "ipv4"}, platform.Calls())
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, sleeper.Waits())
}

func TestWaitForNetworkCancelled(t *testing.T) {
	platform := &fakePlatform{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sleeper := &sleepRecorder{cancel: cancel, after: 3}
	p, _ := newTestProber(t, platform, &scriptedTransport{}, sleeper)

	err := p.WaitForNetwork(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, sleeper.Waits(), 3)
}

func TestRunWaitsForNetworkFirst(t *testing.T) {
	platform := &fakePlatform{addrs: []net.IP{nil, net.ParseIP("10.0.0.4")}}
	p, _ := newTestProber(t, platform, &scriptedTransport{}, &sleepRecorder{}, WithWaitForNetwork(time.Second))

	_, err := p.Run(context.Background())

	require.NoError(t, err)
	calls := platform.Calls()
	require.GreaterOrEqual(t, len(calls), 5)
	assert.Equal(t, []string{"ipv4", "start-network", "ipv4", "allow-broadcast", "exchange"}, calls[:5])
}

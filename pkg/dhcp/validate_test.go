package dhcp_test

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veesix-networks/wireprobe/pkg/dhcp"
	"github.com/veesix-networks/wireprobe/pkg/dhcp/dhcptest"
)

func newRequest(t *testing.T) dhcp.Request {
	t.Helper()
	req, err := dhcp.BuildRequest(net.HardwareAddr{0x00, 0x15, 0x5d, 0x01, 0x02, 0x03})
	require.NoError(t, err)
	return req
}

func TestValidateAcceptsMatchingResponse(t *testing.T) {
	req := newRequest(t)
	assert.NoError(t, dhcp.Validate(req, dhcptest.Response(req)))
}

func TestValidate(t *testing.T) {
	req := newRequest(t)

	tests := []struct {
		name   string
		mutate func([]byte) []byte
		want   error
		reason dhcp.Reason
	}{
		{
			name:   "one byte short",
			mutate: func(b []byte) []byte { return b[:dhcp.MinResponseSize-1] },
			want:   dhcp.ErrTooShort,
			reason: dhcp.ReasonTooShort,
		},
		{
			name:   "request sized",
			mutate: func(b []byte) []byte { return b[:dhcp.RequestSize] },
			want:   dhcp.ErrTooShort,
			reason: dhcp.ReasonTooShort,
		},
		{
			name:   "empty",
			mutate: func(b []byte) []byte { return nil },
			want:   dhcp.ErrTooShort,
			reason: dhcp.ReasonTooShort,
		},
		{
			name:   "cookie",
			mutate: func(b []byte) []byte { b[0xEF] ^= 0xFF; return b },
			want:   dhcp.ErrCookieMismatch,
			reason: dhcp.ReasonCookieMismatch,
		},
		{
			name:   "transaction id",
			mutate: func(b []byte) []byte { b[7]++; return b },
			want:   dhcp.ErrTransactionMismatch,
			reason: dhcp.ReasonTransactionMismatch,
		},
		{
			name:   "hardware address",
			mutate: func(b []byte) []byte { b[0x21]++; return b },
			want:   dhcp.ErrMacMismatch,
			reason: dhcp.ReasonMacMismatch,
		},
		{
			name: "cookie is checked before transaction id",
			mutate: func(b []byte) []byte {
				b[4]++
				b[0xEC] = 0
				return b
			},
			want:   dhcp.ErrCookieMismatch,
			reason: dhcp.ReasonCookieMismatch,
		},
		{
			name: "length is checked before everything",
			mutate: func(b []byte) []byte {
				b[4]++
				b[0x1C]++
				return b[:100]
			},
			want:   dhcp.ErrTooShort,
			reason: dhcp.ReasonTooShort,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := tt.mutate(dhcptest.Response(req))
			err := dhcp.Validate(req, resp)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			var verr *dhcp.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.reason, verr.Reason)
		})
	}
}

func TestValidateRejectsShortResponseRegardlessOfContent(t *testing.T) {
	req := newRequest(t)
	full := dhcptest.Response(req)

	for n := 0; n < dhcp.MinResponseSize; n++ {
		if err := dhcp.Validate(req, full[:n]); !errors.Is(err, dhcp.ErrTooShort) {
			t.Fatalf("Validate(%d bytes) = %v, want ErrTooShort", n, err)
		}
	}
}

func TestValidateDoesNotModifyResponse(t *testing.T) {
	req := newRequest(t)
	resp := dhcptest.Response(req)
	resp[5]++
	before := append([]byte(nil), resp...)

	_ = dhcp.Validate(req, resp)
	assert.Equal(t, before, resp)
}

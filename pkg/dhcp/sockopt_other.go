//go:build !unix

package dhcp

import (
	"errors"
	"fmt"
	"syscall"
)

func setBroadcastOptions(network, address string, c syscall.RawConn) error {
	return fmt.Errorf("broadcast socket options: %w", errors.ErrUnsupported)
}

package dhcp

import (
	"bytes"
	"errors"
	"fmt"
)

type Reason string

const (
	ReasonTooShort            Reason = "TooShort"
	ReasonCookieMismatch      Reason = "CookieMismatch"
	ReasonTransactionMismatch Reason = "TransactionMismatch"
	ReasonMacMismatch         Reason = "MacMismatch"
)

var (
	ErrTooShort            = errors.New("response too short")
	ErrCookieMismatch      = errors.New("magic cookie mismatch")
	ErrTransactionMismatch = errors.New("transaction id mismatch")
	ErrMacMismatch         = errors.New("hardware address mismatch")
)

// ValidationError reports why a received datagram is not the reply to our
// request. It unwraps to one of the Err* sentinels above.
type ValidationError struct {
	Reason Reason
	Sent   []byte
	Got    []byte
}

func (e *ValidationError) Error() string {
	if e.Reason == ReasonTooShort {
		return fmt.Sprintf("invalid dhcp response: %s (%d bytes)", e.Reason, len(e.Got))
	}
	return fmt.Sprintf("invalid dhcp response: %s: sent %x, received %x", e.Reason, e.Sent, e.Got)
}

func (e *ValidationError) Unwrap() error {
	switch e.Reason {
	case ReasonTooShort:
		return ErrTooShort
	case ReasonCookieMismatch:
		return ErrCookieMismatch
	case ReasonTransactionMismatch:
		return ErrTransactionMismatch
	case ReasonMacMismatch:
		return ErrMacMismatch
	default:
		return nil
	}
}

// Validate checks that resp answers req. The length check runs first so the
// fixed-offset comparisons after it cannot run past the buffer.
func Validate(req Request, resp []byte) error {
	if len(resp) < MinResponseSize {
		return &ValidationError{Reason: ReasonTooShort, Got: resp}
	}

	checks := []struct {
		reason Reason
		off    int
		n      int
	}{
		{ReasonCookieMismatch, cookieOffset, 4},
		{ReasonTransactionMismatch, xidOffset, 4},
		{ReasonMacMismatch, chaddrOffset, hardwareAddrLen},
	}

	for _, c := range checks {
		sent := req.buf[c.off : c.off+c.n]
		got := resp[c.off : c.off+c.n]
		if !bytes.Equal(sent, got) {
			return &ValidationError{
				Reason: c.reason,
				Sent:   append([]byte(nil), sent...),
				Got:    append([]byte(nil), got...),
			}
		}
	}

	return nil
}

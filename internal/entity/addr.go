package entity

import (
	"errors"
	"fmt"
	"unicode"
)

const maxAddrLen = 256

var ErrInvalidAddr = errors.New("invalid address")

// ValidateAddr checks that s is usable as an account identity.
func ValidateAddr(s string) error {
	if s == "" {
		return fmt.Errorf("%w: empty", ErrInvalidAddr)
	}
	if len(s) > maxAddrLen {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidAddr, maxAddrLen)
	}
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("%w: %q contains whitespace or control characters", ErrInvalidAddr, s)
		}
	}
	return nil
}

package entity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
)

var ErrInvalidAmount = errors.New("amount must be a non-negative integer")

// Amount is a non-negative integer of unbounded magnitude. It is kept in
// canonical decimal form; the zero value is 0.
type Amount struct {
	dec string // canonical decimal, "" for zero
}

func NewAmount(v uint64) Amount {
	if v == 0 {
		return Amount{}
	}
	return Amount{dec: new(big.Int).SetUint64(v).String()}
}

func ParseAmount(s string) (Amount, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if n.Sign() == 0 {
		return Amount{}, nil
	}
	return Amount{dec: n.String()}, nil
}

func (a Amount) String() string {
	if a.dec == "" {
		return "0"
	}
	return a.dec
}

func (a Amount) IsZero() bool { return a.dec == "" }

// MarshalJSON encodes the amount as a decimal string so large values survive
// JSON number handling in clients.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts either a decimal string or a JSON integer.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	var s string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	} else {
		s = string(b)
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

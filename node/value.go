package node

import (
	"fmt"
	"math/big"
)

// Value is an arbitrary precision integer propagated between nodes.
//
// The zero Value is unset, which is distinct from a Value of 0.
type Value struct {
	n *big.Int
}

func NewValue(n int64) Value {
	return Value{n: big.NewInt(n)}
}

// ValueFromBig returns a Value holding a copy of n.
func ValueFromBig(n *big.Int) Value {
	return Value{n: new(big.Int).Set(n)}
}

// Big returns a copy of the value, or 0 if unset.
func (v Value) Big() *big.Int {
	if v.n == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v.n)
}

func (v Value) IsSet() bool {
	return v.n != nil
}

// Cmp compares v and o, treating an unset value as 0.
func (v Value) Cmp(o Value) int {
	return v.Big().Cmp(o.Big())
}

func (v Value) BitLen() int {
	if v.n == nil {
		return 0
	}
	return v.n.BitLen()
}

func (v Value) String() string {
	if v.n == nil {
		return "<unset>"
	}
	return v.n.String()
}

// MarshalJSON encodes the value as a JSON number.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.n == nil {
		return []byte("null"), nil
	}
	return v.n.MarshalJSON()
}

func (v *Value) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		v.n = nil
		return nil
	}
	n := new(big.Int)
	if err := n.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("value: %w", err)
	}
	v.n = n
	return nil
}

// MarshalText encodes the value in decimal, used by YAML output.
func (v Value) MarshalText() ([]byte, error) {
	if v.n == nil {
		return nil, nil
	}
	return v.n.MarshalText()
}

func (v *Value) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		v.n = nil
		return nil
	}
	n := new(big.Int)
	if err := n.UnmarshalText(b); err != nil {
		return fmt.Errorf("value: %w", err)
	}
	v.n = n
	return nil
}

// MarshalBinary encodes the value for binary codecs such as msgpack.
func (v Value) MarshalBinary() ([]byte, error) {
	return v.Big().GobEncode()
}

func (v *Value) UnmarshalBinary(b []byte) error {
	n := new(big.Int)
	if err := n.GobDecode(b); err != nil {
		return fmt.Errorf("value: %w", err)
	}
	v.n = n
	return nil
}

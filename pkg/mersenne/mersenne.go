// Package mersenne finds Mersenne primes, primes of the form 2^p - 1.
package mersenne

import (
	"math/big"
)

var (
	one = big.NewInt(1)
	two = big.NewInt(2)
)

// Next returns the smallest Mersenne prime strictly greater than n.
//
// The cost grows quickly with the exponent, since each candidate 2^p - 1 is
// checked with p - 2 modular squarings.
func Next(n *big.Int) *big.Int {
	p := n.BitLen()
	if n.Sign() <= 0 || p < 2 {
		p = 2
	}
	for ; ; p++ {
		if !big.NewInt(int64(p)).ProbablyPrime(0) {
			// 2^p - 1 is composite whenever p is composite.
			continue
		}
		m := number(p)
		if m.Cmp(n) <= 0 {
			continue
		}
		if IsPrime(p) {
			return m
		}
	}
}

// IsPrime reports whether 2^p - 1 is prime using the Lucas-Lehmer test. p must
// be prime.
func IsPrime(p int) bool {
	if p == 2 {
		return true
	}
	if p < 2 {
		return false
	}

	m := number(p)
	s := big.NewInt(4)
	for i := 0; i < p-2; i++ {
		s.Mul(s, s)
		s.Sub(s, two)
		s.Mod(s, m)
	}
	return s.Sign() == 0
}

// number returns 2^p - 1.
func number(p int) *big.Int {
	m := new(big.Int).Lsh(one, uint(p))
	return m.Sub(m, one)
}

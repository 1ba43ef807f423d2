package sample

import (
	"crypto/rand"
	"io"
	"math/big"

	"github.com/civica-dev/homomorphic-tally/internal/params"
	"github.com/civica-dev/homomorphic-tally/pkg/pool"
	"github.com/cronokirby/saferith"
)

// tryBlumPrime makes a single attempt at a prime p ≡ 3 (mod 4) of exactly
// params.BitsBlumPrime bits, returning nil when the attempt fails.
//
// rand.Prime sets the two most significant bits, so the product of two such
// primes always has 2⋅params.BitsBlumPrime bits.
func tryBlumPrime(reader io.Reader) *saferith.Nat {
	p, err := rand.Prime(reader, params.BitsBlumPrime)
	if err != nil {
		return nil
	}
	// bit 0 is always 1, so p ≡ 3 (mod 4) iff bit 1 is set
	if p.Bit(1) != 1 {
		return nil
	}
	return new(saferith.Nat).SetBig(p, params.BitsBlumPrime)
}

// Paillier samples the two prime factors of an election modulus, hunting in
// parallel across the pool's workers.
func Paillier(reader io.Reader, pl *pool.Pool) (p, q *saferith.Nat) {
	locked := pool.NewLockedReader(reader)
	results := pl.Search(2, func() interface{} {
		q := tryBlumPrime(locked)
		// an interface holding a typed nil is not nil, so return untyped
		if q == nil {
			return nil
		}
		return q
	})
	p, q = results[0].(*saferith.Nat), results[1].(*saferith.Nat)
	return
}

// BlumPrime returns a single prime ≡ 3 (mod 4) of bits bits, for tests and
// callers that need nonstandard sizes.
func BlumPrime(reader io.Reader, bits int) *big.Int {
	for {
		p, err := rand.Prime(reader, bits)
		if err != nil {
			continue
		}
		if p.Bit(1) != 1 {
			continue
		}
		return p
	}
}

// Package paillier implements the additively homomorphic cryptosystem that
// ballots are encrypted with and tallies are proven against.
//
// A key pair is an election modulus n = p⋅q with encryption base g (n+1 for
// keys generated here), and the private exponent ϕ = (p-1)(q-1). Encryption
// of m with nonce ρ is gᵐρⁿ (mod n²); multiplying two ciphertexts adds their
// plaintexts. Because gcd(n, ϕ) = 1, a ciphertext of zero is ρⁿ (mod n²) and
// the nonce ρ can be recovered with the private exponent — the primitive the
// public tally verification is built on.
package paillier

import (
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/civica-dev/homomorphic-tally/pkg/math/arith"
	"github.com/civica-dev/homomorphic-tally/pkg/math/sample"
	"github.com/civica-dev/homomorphic-tally/pkg/pool"
	"github.com/cronokirby/saferith"
)

var (
	// ErrInvalidPlaintext is returned when a plaintext does not fit the
	// scheme's plaintext space ±(n-1)/2.
	ErrInvalidPlaintext = errors.New("paillier: plaintext outside of range ±(n-1)/2")
	// ErrInvalidNonce is returned when a supplied nonce is not a unit mod n.
	ErrInvalidNonce = errors.New("paillier: nonce is not a unit modulo n")
	// ErrMissingPrivateKey is returned by operations that need the private
	// exponent when it is not available.
	ErrMissingPrivateKey = errors.New("paillier: operation requires the private exponent")
	// ErrDecryptionFailed is returned when a ciphertext is not in the
	// ciphertext group ℤₙ²ˣ.
	ErrDecryptionFailed = errors.New("paillier: ciphertext is not in the ciphertext group")
	// ErrKeyMismatch is returned when ciphertexts are combined under a key
	// they were (detectably) not produced with.
	ErrKeyMismatch = errors.New("paillier: ciphertext was not produced under this key")
	// ErrInvalidKey is returned when parsed key material is malformed.
	ErrInvalidKey = errors.New("paillier: malformed key material")
)

var (
	oneNat = new(saferith.Nat).SetUint64(1)
	bigOne = big.NewInt(1)
)

// KeyGen generates a fresh key pair for one election.
//
// Prime candidates are hunted across the pool's workers; a nil pool searches
// on the current thread. Entropy exhaustion panics: key generation cannot be
// retried in-process and the caller must abort election creation.
func KeyGen(pl *pool.Pool) (*PublicKey, *SecretKey) {
	for {
		p, q := samplePrimes(pl)
		pk, sk, err := NewKeyPairFromPrimes(p, q)
		if err == nil {
			return pk, sk
		}
		// gcd(n, ϕ) ≠ 1; resample
	}
}

// NewKeyPairFromPrimes builds a key pair from the two prime factors of the
// modulus. Both factors are assumed prime; gcd(n, ϕ) = 1 is checked and is an
// error, since without it the zero-nonce extraction is not defined.
func NewKeyPairFromPrimes(p, q *big.Int) (*PublicKey, *SecretKey, error) {
	if p == nil || q == nil || p.Bit(0) != 1 || q.Bit(0) != 1 || p.Cmp(q) == 0 {
		return nil, nil, ErrInvalidKey
	}

	pNat := new(saferith.Nat).SetBig(p, p.BitLen())
	qNat := new(saferith.Nat).SetBig(q, q.BitLen())

	n := arith.ModulusFromFactors(pNat, qNat)
	nNat := n.Nat()

	pSquared := new(saferith.Nat).Mul(pNat, pNat, -1)
	qSquared := new(saferith.Nat).Mul(qNat, qNat, -1)
	nSquared := arith.ModulusFromFactors(pSquared, qSquared)

	nBig := new(big.Int).Mul(p, q)
	g := new(saferith.Nat).Add(nNat, oneNat, -1)

	pk := &PublicKey{
		g:        g,
		n:        n,
		nSquared: nSquared,
		nNat:     nNat,
		nBig:     nBig,
		nHalf:    new(big.Int).Rsh(nBig, 1),
	}

	phi := new(big.Int).Mul(
		new(big.Int).Sub(p, bigOne),
		new(big.Int).Sub(q, bigOne),
	)
	sk, err := NewSecretKey(phi, pk)
	if err != nil {
		return nil, nil, err
	}
	return pk, sk, nil
}

func samplePrimes(pl *pool.Pool) (*big.Int, *big.Int) {
	p, q := sample.Paillier(rand.Reader, pl)
	return p.Big(), q.Big()
}

func natFromBig(x *big.Int) *saferith.Nat {
	return new(saferith.Nat).SetBig(x, x.BitLen())
}

func intFromBig(x *big.Int) *saferith.Int {
	out := new(saferith.Int).SetBytes(new(big.Int).Abs(x).Bytes())
	if x.Sign() < 0 {
		out.Neg(1)
	}
	return out
}

func bigFromInt(x *saferith.Int) *big.Int {
	out := x.Abs().Big()
	if x.IsNegative() == 1 {
		out.Neg(out)
	}
	return out
}

package paillier

import (
	"crypto/rand"
	"math/big"

	"github.com/civica-dev/homomorphic-tally/pkg/math/arith"
	"github.com/civica-dev/homomorphic-tally/pkg/math/sample"
	"github.com/cronokirby/saferith"
)

// PublicKey is the shareable half of an election key pair: the modulus n and
// the encryption base g. Anyone holding it can encrypt ballots and re-derive
// the published tally artifacts; nothing in it helps with decryption.
type PublicKey struct {
	// g is the encryption base, n+1 for keys generated here.
	g *saferith.Nat
	// n and nSquared carry the CRT factorization when the key was generated
	// locally, which speeds up every exponentiation. Parsed keys fall back to
	// the plain operation.
	n        *arith.Modulus
	nSquared *arith.Modulus
	nNat     *saferith.Nat
	nBig     *big.Int
	// nHalf = (n-1)/2, the bound of the signed plaintext space.
	nHalf *big.Int
}

// NewPublicKey validates and assembles a public key from its serialized
// parts. It fails closed: n must be an odd integer > 1 and g must be a unit
// of ℤₙ²ˣ.
func NewPublicKey(g, n *big.Int) (*PublicKey, error) {
	if g == nil || n == nil {
		return nil, ErrInvalidKey
	}
	if n.Sign() <= 0 || n.Bit(0) != 1 || n.Cmp(bigOne) <= 0 {
		return nil, ErrInvalidKey
	}
	nSquaredBig := new(big.Int).Mul(n, n)
	if g.Sign() <= 0 || g.Cmp(nSquaredBig) >= 0 {
		return nil, ErrInvalidKey
	}
	if new(big.Int).GCD(nil, nil, g, nSquaredBig).Cmp(bigOne) != 0 {
		return nil, ErrInvalidKey
	}

	nNat := natFromBig(n)
	return &PublicKey{
		g:        natFromBig(g),
		n:        arith.ModulusFromN(saferith.ModulusFromNat(nNat)),
		nSquared: arith.ModulusFromN(saferith.ModulusFromNat(natFromBig(nSquaredBig))),
		nNat:     nNat,
		nBig:     new(big.Int).Set(n),
		nHalf:    new(big.Int).Rsh(n, 1),
	}, nil
}

// N returns the modulus n.
func (pk *PublicKey) N() *big.Int {
	return new(big.Int).Set(pk.nBig)
}

// G returns the encryption base g.
func (pk *PublicKey) G() *big.Int {
	return pk.g.Big()
}

// Equal reports whether two public keys describe the same scheme.
func (pk *PublicKey) Equal(other *PublicKey) bool {
	return pk.g.Eq(other.g) == 1 && pk.nNat.Eq(other.nNat) == 1
}

// Nonce draws a fresh blinding factor ρ ∈ ℤₙˣ.
func (pk *PublicKey) Nonce() *big.Int {
	return sample.UnitModN(rand.Reader, pk.n.Modulus).Big()
}

// Enc encrypts m under pk with a freshly drawn nonce. The nonce is carried
// on the returned ciphertext, and only there.
//
// m must lie in ±(n-1)/2; ErrInvalidPlaintext otherwise.
func (pk *PublicKey) Enc(m *big.Int) (*Ciphertext, error) {
	nonce := sample.UnitModN(rand.Reader, pk.n.Modulus)
	return pk.encWithNonce(m, nonce)
}

// EncWithNonce encrypts m using the supplied nonce verbatim. This is how the
// tally and its verifier re-derive identical ciphertexts deterministically.
func (pk *PublicKey) EncWithNonce(m, nonce *big.Int) (*Ciphertext, error) {
	if nonce == nil || nonce.Sign() <= 0 {
		return nil, ErrInvalidNonce
	}
	nonceNat := natFromBig(nonce)
	if nonceNat.IsUnit(pk.n.Modulus) != 1 {
		return nil, ErrInvalidNonce
	}
	return pk.encWithNonce(m, nonceNat)
}

// encWithNonce computes gᵐ ρⁿ (mod n²). Negative m is mapped into the
// correct residue class by exponentiating with the signed exponent.
func (pk *PublicKey) encWithNonce(m *big.Int, nonce *saferith.Nat) (*Ciphertext, error) {
	if m == nil || new(big.Int).Abs(m).Cmp(pk.nHalf) > 0 {
		return nil, ErrInvalidPlaintext
	}

	c := pk.nSquared.ExpI(pk.g, intFromBig(m)) // gᵐ (mod n²)
	rhoN := pk.nSquared.Exp(nonce, pk.nNat)    // ρⁿ (mod n²)
	c.ModMul(c, rhoN, pk.nSquared.Modulus)

	tracked := new(saferith.Nat).Mod(nonce, pk.n.Modulus)
	return &Ciphertext{c: c, nonce: tracked}, nil
}

// Add combines two ciphertexts so that the result decrypts to the sum of
// their plaintexts: ct = a⋅b (mod n²).
//
// When both inputs still carry their nonces, the result carries their
// product mod n, so a chain of additions stays deterministically
// re-encryptable without any decryption.
//
// A ciphertext outside this key's group is reported as ErrKeyMismatch; a
// mismatched key is only ever detectable that way.
func (pk *PublicKey) Add(a, b *Ciphertext) (*Ciphertext, error) {
	if !pk.ValidateCiphertexts(a, b) {
		return nil, ErrKeyMismatch
	}
	ct := &Ciphertext{
		c: new(saferith.Nat).ModMul(a.c, b.c, pk.nSquared.Modulus),
	}
	if a.nonce != nil && b.nonce != nil {
		ct.nonce = new(saferith.Nat).ModMul(a.nonce, b.nonce, pk.n.Modulus)
	}
	return ct, nil
}

// ValidateCiphertexts reports whether every argument lies in ℤₙ²ˣ.
func (pk *PublicKey) ValidateCiphertexts(cts ...*Ciphertext) bool {
	for _, ct := range cts {
		if ct == nil || ct.c == nil {
			return false
		}
		if _, _, lt := ct.c.CmpMod(pk.nSquared.Modulus); lt != 1 {
			return false
		}
		if ct.c.IsUnit(pk.nSquared.Modulus) != 1 {
			return false
		}
	}
	return true
}

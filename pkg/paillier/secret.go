package paillier

import (
	"math/big"

	"github.com/cronokirby/saferith"
)

// SecretKey holds the private exponent ϕ of an election key pair, together
// with the constants derived from it that decryption and nonce extraction
// need. It must never be serialized into any artifact a verifier can reach.
type SecretKey struct {
	// phi = ϕ = (p-1)(q-1)
	phi *saferith.Nat
	// mu = L(gᵠ mod n²)⁻¹ (mod n), the decryption constant. For g = n+1 this
	// is simply ϕ⁻¹ (mod n).
	mu *saferith.Nat
	// nInv = n⁻¹ (mod ϕ), the exponent that inverts ρ ↦ ρⁿ.
	nInv *saferith.Nat
	pk   *PublicKey
}

// NewSecretKey validates ϕ against the public key and derives the decryption
// constants. Used both after key generation and when re-assembling a key
// pair from its serialized parts.
func NewSecretKey(phi *big.Int, pk *PublicKey) (*SecretKey, error) {
	if pk == nil {
		return nil, ErrInvalidKey
	}
	if phi == nil || phi.Sign() == 0 {
		return nil, ErrMissingPrivateKey
	}
	if phi.Sign() < 0 || phi.Cmp(pk.nBig) >= 0 {
		return nil, ErrInvalidKey
	}
	// gcd(n, ϕ) = 1 makes ρ ↦ ρⁿ invertible; without it the key cannot
	// support zero-nonce extraction and is rejected outright.
	if new(big.Int).GCD(nil, nil, pk.nBig, phi).Cmp(bigOne) != 0 {
		return nil, ErrInvalidKey
	}

	phiNat := natFromBig(phi)
	phiMod := saferith.ModulusFromNat(phiNat)
	nInv := new(saferith.Nat).ModInverse(pk.nNat, phiMod)

	// μ = L(gᵠ mod n²)⁻¹ (mod n), with L(x) = (x-1)/n
	l := pk.nSquared.Exp(pk.g, phiNat)
	l.Sub(l, oneNat, -1)
	l.Div(l, pk.n.Modulus, -1)
	if l.IsUnit(pk.n.Modulus) != 1 {
		return nil, ErrInvalidKey
	}
	mu := new(saferith.Nat).ModInverse(l, pk.n.Modulus)

	return &SecretKey{
		phi:  phiNat,
		mu:   mu,
		nInv: nInv,
		pk:   pk,
	}, nil
}

// PublicKey returns the public half of the key pair.
func (sk *SecretKey) PublicKey() *PublicKey {
	return sk.pk
}

// Phi returns the private exponent ϕ, for serialization by the key's owner.
func (sk *SecretKey) Phi() *big.Int {
	return sk.phi.Big()
}

// Dec decrypts ct and returns the plaintext m ∈ ±(n-1)/2.
//
// m = L(cᵠ mod n²) ⋅ μ (mod n)
func (sk *SecretKey) Dec(ct *Ciphertext) (*big.Int, error) {
	if sk == nil || sk.phi == nil {
		return nil, ErrMissingPrivateKey
	}
	if !sk.pk.ValidateCiphertexts(ct) {
		return nil, ErrDecryptionFailed
	}

	n := sk.pk.n.Modulus
	result := sk.pk.nSquared.Exp(ct.c, sk.phi) // cᵠ (mod n²)
	result.Sub(result, oneNat, -1)             // cᵠ - 1
	result.Div(result, n, -1)                  // L(cᵠ)
	result.ModMul(result, sk.mu, n)            // L(cᵠ)⋅μ (mod n)

	return bigFromInt(new(saferith.Int).SetModSymmetric(result, n)), nil
}

// ExtractZeroNonce inverts the encryption map on a ciphertext of zero,
// recovering the unique ρ with ρⁿ ≡ ct (mod n²):
//
//	ρ = ct^(n⁻¹ mod ϕ) (mod n)
//
// The result is only meaningful when ct genuinely encrypts zero; for any
// other ciphertext a value comes back but re-encrypting zero with it will
// not reproduce ct. Callers that need the confirmation use VerifyZero.
func (sk *SecretKey) ExtractZeroNonce(ct *Ciphertext) (*big.Int, error) {
	if sk == nil || sk.phi == nil {
		return nil, ErrMissingPrivateKey
	}
	if !sk.pk.ValidateCiphertexts(ct) {
		return nil, ErrDecryptionFailed
	}

	cModN := new(saferith.Nat).Mod(ct.c, sk.pk.n.Modulus)
	return sk.pk.n.Exp(cModN, sk.nInv).Big(), nil
}

// VerifyZero reports whether ct encrypts zero, by extracting its candidate
// nonce and checking that re-encrypting zero with it reproduces ct exactly.
func (sk *SecretKey) VerifyZero(ct *Ciphertext) (bool, error) {
	nonce, err := sk.ExtractZeroNonce(ct)
	if err != nil {
		return false, err
	}
	reenc, err := sk.pk.EncWithNonce(new(big.Int), nonce)
	if err != nil {
		// the recovered value is not even a unit, so ct cannot be ρⁿ
		return false, nil
	}
	return reenc.Equal(ct), nil
}

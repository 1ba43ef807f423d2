package paillier

import (
	"encoding/json"

	"github.com/civica-dev/homomorphic-tally/pkg/types"
	"github.com/cronokirby/saferith"
)

type publicKeyJSON struct {
	G *types.BigInt `json:"g"`
	N *types.BigInt `json:"n"`
}

// MarshalJSON encodes the public key as its (g, n) pair in decimal.
func (pk *PublicKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(publicKeyJSON{
		G: types.FromBig(pk.G()),
		N: types.FromBig(pk.N()),
	})
}

// UnmarshalJSON decodes and fully validates a public key. Malformed or
// group-invalid parameters are rejected, so a successfully decoded key is
// safe to use directly.
func (pk *PublicKey) UnmarshalJSON(data []byte) error {
	var raw publicKeyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.G == nil || raw.N == nil {
		return ErrInvalidKey
	}
	parsed, err := NewPublicKey(raw.G.MathBigInt(), raw.N.MathBigInt())
	if err != nil {
		return err
	}
	*pk = *parsed
	return nil
}

type secretKeyJSON struct {
	Phi *types.BigInt `json:"phi"`
}

// MarshalJSON encodes only ϕ; the public half travels separately.
func (sk *SecretKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(secretKeyJSON{Phi: types.FromBig(sk.Phi())})
}

// ParseSecretKey re-assembles a secret key from its serialized ϕ and the
// matching public key, re-deriving the decryption constants.
func ParseSecretKey(pk *PublicKey, data []byte) (*SecretKey, error) {
	var raw secretKeyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw.Phi == nil {
		return nil, ErrMissingPrivateKey
	}
	return NewSecretKey(raw.Phi.MathBigInt(), pk)
}

// MarshalJSON encodes the ciphertext as a quoted decimal string. The nonce
// is deliberately dropped: it is secret material that must not leave the
// process that produced it.
func (ct *Ciphertext) MarshalJSON() ([]byte, error) {
	return json.Marshal(types.FromBig(ct.c.Big()))
}

// UnmarshalJSON decodes a decimal ciphertext. Group membership is not
// checked here since the public key is not in scope; consumers validate
// with PublicKey.ValidateCiphertexts before operating on it.
func (ct *Ciphertext) UnmarshalJSON(data []byte) error {
	var v types.BigInt
	if err := v.UnmarshalJSON(data); err != nil {
		return err
	}
	b := v.MathBigInt()
	ct.c = new(saferith.Nat).SetBig(b, b.BitLen())
	ct.nonce = nil
	return nil
}

// MarshalCBOR encodes the ciphertext as a decimal text string.
func (ct *Ciphertext) MarshalCBOR() ([]byte, error) {
	return types.FromBig(ct.c.Big()).MarshalCBOR()
}

// UnmarshalCBOR decodes a decimal text string ciphertext.
func (ct *Ciphertext) UnmarshalCBOR(data []byte) error {
	var v types.BigInt
	if err := v.UnmarshalCBOR(data); err != nil {
		return err
	}
	b := v.MathBigInt()
	ct.c = new(saferith.Nat).SetBig(b, b.BitLen())
	ct.nonce = nil
	return nil
}

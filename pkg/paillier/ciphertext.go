package paillier

import (
	"io"
	"math/big"

	"github.com/civica-dev/homomorphic-tally/internal/params"
	"github.com/cronokirby/saferith"
)

// Ciphertext is an element of ℤₙ²ˣ. The nonce used at encryption time is
// carried alongside the value so that homomorphic sums can track the
// combined nonce; it is never serialized.
type Ciphertext struct {
	c *saferith.Nat
	// nonce = ρ (mod n), when known. nil on parsed or hand-built ciphertexts.
	nonce *saferith.Nat
}

// Value returns the group element as a big integer.
func (ct *Ciphertext) Value() *big.Int {
	return ct.c.Big()
}

// Nonce returns the tracked nonce ρ (mod n), or nil when the ciphertext was
// not produced by an encryption or sum under this process.
func (ct *Ciphertext) Nonce() *big.Int {
	if ct.nonce == nil {
		return nil
	}
	return ct.nonce.Big()
}

// Equal reports whether ct and other are the same group element. Nonces are
// bookkeeping and do not participate.
func (ct *Ciphertext) Equal(other *Ciphertext) bool {
	if ct == nil || other == nil {
		return ct == other
	}
	return ct.c.Eq(other.c) == 1
}

// Clone returns a deep copy of ct.
func (ct *Ciphertext) Clone() *Ciphertext {
	clone := &Ciphertext{c: new(saferith.Nat).SetNat(ct.c)}
	if ct.nonce != nil {
		clone.nonce = new(saferith.Nat).SetNat(ct.nonce)
	}
	return clone
}

// WriteTo implements io.WriterTo and should be used within the hash.Hash
// function. The value is written fixed-width so receipts do not depend on
// leading zero bytes.
func (ct *Ciphertext) WriteTo(w io.Writer) (int64, error) {
	size := params.BytesCiphertext
	if l := (int(ct.c.TrueLen()) + 7) / 8; l > size {
		size = l
	}
	buf := make([]byte, size)
	ct.c.Big().FillBytes(buf)
	n, err := w.Write(buf)
	return int64(n), err
}

// Domain implements WriterToWithDomain, and separates this type within hash.Hash.
func (*Ciphertext) Domain() string {
	return "Paillier Ciphertext"
}

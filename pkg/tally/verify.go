package tally

import (
	"math/big"

	"github.com/civica-dev/homomorphic-tally/pkg/paillier"
	"github.com/civica-dev/homomorphic-tally/pkg/types"
)

// Outcome is the result of checking a tally's artifacts.
type Outcome int

const (
	// Indeterminate means the check could not be carried out: missing or
	// malformed inputs. It is deliberately distinct from Failed so that a
	// truncated artifact file is not reported as a dishonest tally.
	Indeterminate Outcome = iota
	// Verified means every candidate's total checked out.
	Verified
	// Failed means at least one total did not match its ciphertext sum.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Verified:
		return "verified"
	case Failed:
		return "failed"
	default:
		return "indeterminate"
	}
}

// Verify checks a claimed tally using only public material. For each
// candidate it re-derives the zero ciphertext from the published sum and the
// claimed total, re-encrypts zero with the published nonce, and requires
// exact ciphertext equality:
//
//	Enc(0, ZeroRandomness[j]) == PositiveTotal[j] ⊕ Enc(-DecryptedTotal[j], 1)
//
// Verify is pure: it needs no private key, it never mutates its inputs, and
// repeated calls on the same inputs return the same outcome.
func Verify(pk *paillier.PublicKey, decryptedTotal []*types.BigInt, positiveTotal []*paillier.Ciphertext, zeroRandomness []*types.BigInt) Outcome {
	if pk == nil {
		return Indeterminate
	}
	n := len(decryptedTotal)
	if n == 0 || len(positiveTotal) != n || len(zeroRandomness) != n {
		return Indeterminate
	}

	one := big.NewInt(1)
	for j := 0; j < n; j++ {
		if decryptedTotal[j] == nil || zeroRandomness[j] == nil {
			return Indeterminate
		}
		if !pk.ValidateCiphertexts(positiveTotal[j]) {
			return Indeterminate
		}

		negative, err := pk.EncWithNonce(new(big.Int).Neg(decryptedTotal[j].MathBigInt()), one)
		if err != nil {
			return Indeterminate
		}
		zeroSum, err := pk.Add(positiveTotal[j], negative)
		if err != nil {
			return Indeterminate
		}
		reencrypted, err := pk.EncWithNonce(new(big.Int), zeroRandomness[j].MathBigInt())
		if err != nil {
			return Indeterminate
		}
		if !reencrypted.Equal(zeroSum) {
			return Failed
		}
	}
	return Verified
}

// VerifyArtifacts runs Verify over a full artifact set.
func VerifyArtifacts(pk *paillier.PublicKey, a *Artifacts) Outcome {
	if a == nil {
		return Indeterminate
	}
	return Verify(pk, a.DecryptedTotal, a.PositiveTotal, a.ZeroRandomness)
}

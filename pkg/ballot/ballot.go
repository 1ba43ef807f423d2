// Package ballot turns a voter's choice into an encrypted one-hot ballot.
package ballot

import (
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/civica-dev/homomorphic-tally/pkg/paillier"
)

// Ballot is an encrypted cast vote. The vector holds one ciphertext per
// candidate, in the election's candidate order: an encryption of 1 at the
// chosen position and of 0 everywhere else. Nothing in the ballot reveals
// which position carries the 1.
type Ballot struct {
	ID         uuid.UUID              `json:"id" cbor:"1,keyasint"`
	VoterID    string                 `json:"voter_id" cbor:"2,keyasint"`
	ElectionID string                 `json:"election_id" cbor:"3,keyasint"`
	Vector     []*paillier.Ciphertext `json:"vector" cbor:"4,keyasint"`
	Receipt    string                 `json:"receipt" cbor:"5,keyasint"`
	CreatedAt  time.Time              `json:"created_at" cbor:"6,keyasint"`
}

// ShortReceipt returns the truncated form of the receipt shown to voters on
// confirmation screens.
func (b *Ballot) ShortReceipt() string {
	if len(b.Receipt) <= 16 {
		return b.Receipt
	}
	return b.Receipt[:16] + "..."
}

// ballotAlias strips Ballot's methods so cbor encodes the struct fields
// instead of re-entering MarshalBinary/UnmarshalBinary.
type ballotAlias Ballot

// MarshalBinary encodes the ballot as CBOR for storage and transport.
func (b *Ballot) MarshalBinary() ([]byte, error) {
	return cbor.Marshal((*ballotAlias)(b))
}

// UnmarshalBinary decodes a CBOR ballot.
func (b *Ballot) UnmarshalBinary(data []byte) error {
	return cbor.Unmarshal(data, (*ballotAlias)(b))
}

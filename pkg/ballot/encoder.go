package ballot

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/civica-dev/homomorphic-tally/pkg/hash"
	"github.com/civica-dev/homomorphic-tally/pkg/paillier"
)

var (
	// ErrCandidateNotFound is returned when the chosen candidate is not on
	// the election's candidate list.
	ErrCandidateNotFound = errors.New("ballot: chosen candidate is not on the ballot")
	// ErrAlreadyVoted is returned when the registry reports a prior ballot
	// from the same voter in the same election.
	ErrAlreadyVoted = errors.New("ballot: voter has already cast a ballot in this election")
	// ErrNoCandidates is returned when an election has an empty candidate list.
	ErrNoCandidates = errors.New("ballot: election has no candidates")
)

// Registry answers whether a voter has already cast a ballot. An Encoder
// with a nil Registry skips the double-vote check, for contexts where the
// caller enforces it elsewhere.
type Registry interface {
	HasVoted(voterID, electionID string) (bool, error)
}

// Encoder produces encrypted ballots under a fixed election key.
type Encoder struct {
	pk       *paillier.PublicKey
	registry Registry
}

// NewEncoder returns an Encoder for the election whose public key is pk.
func NewEncoder(pk *paillier.PublicKey, registry Registry) *Encoder {
	return &Encoder{pk: pk, registry: registry}
}

var (
	one  = big.NewInt(1)
	zero = new(big.Int)
)

// Encode builds the one-hot ballot for chosen. Each position is encrypted
// with its own fresh nonce, so two ballots for the same candidate are
// unlinkable.
func (e *Encoder) Encode(voterID, electionID string, candidateIDs []string, chosen string) (*Ballot, error) {
	if len(candidateIDs) == 0 {
		return nil, ErrNoCandidates
	}

	chosenIdx := -1
	for i, id := range candidateIDs {
		if id == chosen {
			chosenIdx = i
			break
		}
	}
	if chosenIdx < 0 {
		return nil, ErrCandidateNotFound
	}

	if e.registry != nil {
		voted, err := e.registry.HasVoted(voterID, electionID)
		if err != nil {
			return nil, fmt.Errorf("ballot: registry lookup: %w", err)
		}
		if voted {
			return nil, ErrAlreadyVoted
		}
	}

	vector := make([]*paillier.Ciphertext, len(candidateIDs))
	for i := range candidateIDs {
		m := zero
		if i == chosenIdx {
			m = one
		}
		ct, err := e.pk.Enc(m)
		if err != nil {
			return nil, fmt.Errorf("ballot: encrypt position %d: %w", i, err)
		}
		vector[i] = ct
	}

	receipt, err := receipt(electionID, candidateIDs, vector)
	if err != nil {
		return nil, err
	}

	return &Ballot{
		ID:         uuid.New(),
		VoterID:    voterID,
		ElectionID: electionID,
		Vector:     vector,
		Receipt:    receipt,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// receipt hashes the election context and the full ciphertext vector. It
// covers only public material, so anyone holding the ballot can recompute
// and check it.
func receipt(electionID string, candidateIDs []string, vector []*paillier.Ciphertext) (string, error) {
	h := hash.New()
	if err := h.WriteAny(electionID); err != nil {
		return "", fmt.Errorf("ballot: receipt: %w", err)
	}
	for _, id := range candidateIDs {
		if err := h.WriteAny(id); err != nil {
			return "", fmt.Errorf("ballot: receipt: %w", err)
		}
	}
	for _, ct := range vector {
		if err := h.WriteAny(ct); err != nil {
			return "", fmt.Errorf("ballot: receipt: %w", err)
		}
	}
	return h.HexSum(), nil
}

// VerifyReceipt recomputes b's receipt from its public contents and reports
// whether it matches the stored one.
func VerifyReceipt(b *Ballot, candidateIDs []string) (bool, error) {
	want, err := receipt(b.ElectionID, candidateIDs, b.Vector)
	if err != nil {
		return false, err
	}
	return want == b.Receipt, nil
}

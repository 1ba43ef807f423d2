// Package tally closes an election: it homomorphically sums the encrypted
// ballots, decrypts the per-candidate totals, and emits the artifacts that
// let anyone verify the totals without the private key.
package tally

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/civica-dev/homomorphic-tally/pkg/ballot"
	"github.com/civica-dev/homomorphic-tally/pkg/paillier"
	"github.com/civica-dev/homomorphic-tally/pkg/types"
)

// ErrNoVotes is returned when an election closes without a single countable
// ballot.
var ErrNoVotes = errors.New("tally: no countable ballots")

// Artifacts is everything an election close produces. All fields are public:
// together with the public key they let a verifier re-derive the zero
// ciphertexts and confirm the decrypted totals, while revealing nothing
// about individual ballots.
type Artifacts struct {
	ElectionID   string   `json:"election_id" cbor:"1,keyasint"`
	CandidateIDs []string `json:"candidate_ids" cbor:"2,keyasint"`

	// PositiveTotal[j] is the homomorphic sum of position j over every
	// counted ballot.
	PositiveTotal []*paillier.Ciphertext `json:"positive_total" cbor:"3,keyasint"`
	// DecryptedTotal[j] is the claimed plaintext count for candidate j.
	DecryptedTotal []*types.BigInt `json:"decrypted_total" cbor:"4,keyasint"`
	// NegativeTotal[j] encrypts -DecryptedTotal[j] with nonce 1.
	NegativeTotal []*paillier.Ciphertext `json:"negative_total" cbor:"5,keyasint"`
	// ZeroSum[j] = PositiveTotal[j] ⊕ NegativeTotal[j], an encryption of 0
	// whenever the decrypted totals are honest.
	ZeroSum []*paillier.Ciphertext `json:"zero_sum" cbor:"6,keyasint"`
	// ZeroRandomness[j] is the nonce extracted from ZeroSum[j]; it is the
	// witness the verifier re-encrypts zero with.
	ZeroRandomness []*types.BigInt `json:"zero_randomness" cbor:"7,keyasint"`

	BallotsCounted int       `json:"ballots_counted" cbor:"8,keyasint"`
	BallotsSkipped int       `json:"ballots_skipped" cbor:"9,keyasint"`
	ClosedAt       time.Time `json:"closed_at" cbor:"10,keyasint"`
}

// artifactsAlias strips Artifacts' methods so cbor encodes the struct fields
// instead of re-entering MarshalBinary/UnmarshalBinary.
type artifactsAlias Artifacts

// MarshalBinary encodes the artifacts as CBOR.
func (a *Artifacts) MarshalBinary() ([]byte, error) {
	return cbor.Marshal((*artifactsAlias)(a))
}

// UnmarshalBinary decodes CBOR artifacts.
func (a *Artifacts) UnmarshalBinary(data []byte) error {
	return cbor.Unmarshal(data, (*artifactsAlias)(a))
}

// Engine runs election closes.
type Engine struct {
	Log zerolog.Logger
}

// NewEngine returns an Engine logging at info level to the console.
func NewEngine() *Engine {
	e := &Engine{}
	e.Log = zerolog.New(zerolog.NewConsoleWriter()).Level(zerolog.InfoLevel).With().
		Timestamp().
		Str("component", "tally").
		Logger()
	return e
}

// countable reports whether b can participate in the tally: the vector must
// have exactly one position per candidate and every ciphertext must be a
// valid group element under pk.
func countable(pk *paillier.PublicKey, b *ballot.Ballot, numCandidates int) bool {
	if b == nil || len(b.Vector) != numCandidates {
		return false
	}
	return pk.ValidateCiphertexts(b.Vector...)
}

// Close tallies ballots and produces the election's artifacts.
//
// Structurally invalid ballots (wrong vector length, ciphertexts outside
// the group) are skipped and logged rather than aborting the close; they
// are reported in BallotsSkipped. Key or arithmetic failures abort: the
// result is all-or-nothing, a partial artifact set is never returned.
func (e *Engine) Close(ctx context.Context, electionID string, candidateIDs []string, ballots []*ballot.Ballot, sk *paillier.SecretKey) (*Artifacts, error) {
	if sk == nil {
		return nil, paillier.ErrMissingPrivateKey
	}
	pk := sk.PublicKey()
	numCandidates := len(candidateIDs)
	if numCandidates == 0 {
		return nil, ErrNoVotes
	}

	counted := make([]*ballot.Ballot, 0, len(ballots))
	for _, b := range ballots {
		if !countable(pk, b, numCandidates) {
			id := "unknown"
			if b != nil {
				id = b.ID.String()
			}
			e.Log.Warn().
				Str("election", electionID).
				Str("ballot", id).
				Msg("skipping malformed ballot")
			continue
		}
		counted = append(counted, b)
	}
	if len(counted) == 0 {
		return nil, ErrNoVotes
	}

	a := &Artifacts{
		ElectionID:     electionID,
		CandidateIDs:   candidateIDs,
		PositiveTotal:  make([]*paillier.Ciphertext, numCandidates),
		DecryptedTotal: make([]*types.BigInt, numCandidates),
		NegativeTotal:  make([]*paillier.Ciphertext, numCandidates),
		ZeroSum:        make([]*paillier.Ciphertext, numCandidates),
		ZeroRandomness: make([]*types.BigInt, numCandidates),
		BallotsCounted: len(counted),
		BallotsSkipped: len(ballots) - len(counted),
	}

	// Each candidate's column is independent, so the sum, decryption and
	// nonce extraction pipeline runs per candidate in parallel.
	g, ctx := errgroup.WithContext(ctx)
	for j := 0; j < numCandidates; j++ {
		j := j
		g.Go(func() error {
			sum := counted[0].Vector[j].Clone()
			var err error
			for _, b := range counted[1:] {
				if err = ctx.Err(); err != nil {
					return err
				}
				sum, err = pk.Add(sum, b.Vector[j])
				if err != nil {
					return fmt.Errorf("tally: candidate %q: %w", candidateIDs[j], err)
				}
			}

			total, err := sk.Dec(sum)
			if err != nil {
				return fmt.Errorf("tally: decrypt candidate %q: %w", candidateIDs[j], err)
			}

			// encrypting -total with nonce 1 keeps the negative leg
			// reproducible by any verifier
			negative, err := pk.EncWithNonce(new(big.Int).Neg(total), big.NewInt(1))
			if err != nil {
				return fmt.Errorf("tally: negate candidate %q: %w", candidateIDs[j], err)
			}
			zeroSum, err := pk.Add(sum, negative)
			if err != nil {
				return fmt.Errorf("tally: zero sum candidate %q: %w", candidateIDs[j], err)
			}
			nonce, err := sk.ExtractZeroNonce(zeroSum)
			if err != nil {
				return fmt.Errorf("tally: extract nonce candidate %q: %w", candidateIDs[j], err)
			}

			a.PositiveTotal[j] = sum
			a.DecryptedTotal[j] = types.FromBig(total)
			a.NegativeTotal[j] = negative
			a.ZeroSum[j] = zeroSum
			a.ZeroRandomness[j] = types.FromBig(nonce)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	a.ClosedAt = time.Now().UTC()

	e.Log.Info().
		Str("election", electionID).
		Int("candidates", numCandidates).
		Int("counted", a.BallotsCounted).
		Int("skipped", a.BallotsSkipped).
		Msg("election closed")
	return a, nil
}

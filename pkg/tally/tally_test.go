package tally

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civica-dev/homomorphic-tally/pkg/ballot"
	"github.com/civica-dev/homomorphic-tally/pkg/paillier"
	"github.com/civica-dev/homomorphic-tally/pkg/types"
)

var candidates = []string{"alice", "bob"}

func testKey(t *testing.T) (*paillier.PublicKey, *paillier.SecretKey) {
	t.Helper()
	p := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	q := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 107), big.NewInt(1))
	pk, sk, err := paillier.NewKeyPairFromPrimes(p, q)
	require.NoError(t, err)
	return pk, sk
}

func castBallots(t *testing.T, pk *paillier.PublicKey, choices ...string) []*ballot.Ballot {
	t.Helper()
	enc := ballot.NewEncoder(pk, nil)
	ballots := make([]*ballot.Ballot, len(choices))
	for i, c := range choices {
		b, err := enc.Encode("voter", "election-1", candidates, c)
		require.NoError(t, err)
		ballots[i] = b
	}
	return ballots
}

func TestCloseCountsVotes(t *testing.T) {
	pk, sk := testKey(t)
	ballots := castBallots(t, pk, "alice", "alice", "bob")

	a, err := NewEngine().Close(context.Background(), "election-1", candidates, ballots, sk)
	require.NoError(t, err)

	assert.Equal(t, "election-1", a.ElectionID)
	assert.Equal(t, 3, a.BallotsCounted)
	assert.Equal(t, 0, a.BallotsSkipped)
	require.Len(t, a.DecryptedTotal, 2)
	assert.Equal(t, "2", a.DecryptedTotal[0].String())
	assert.Equal(t, "1", a.DecryptedTotal[1].String())
	assert.False(t, a.ClosedAt.IsZero())

	// every zero leg really encrypts zero
	for j := range candidates {
		m, err := sk.Dec(a.ZeroSum[j])
		require.NoError(t, err)
		assert.Equal(t, 0, m.Sign())
	}
}

func TestCloseZeroCountCandidate(t *testing.T) {
	pk, sk := testKey(t)
	enc := ballot.NewEncoder(pk, nil)
	three := []string{"alice", "bob", "carol"}

	var ballots []*ballot.Ballot
	for _, choice := range []string{"alice", "alice", "bob"} {
		b, err := enc.Encode("voter", "election-1", three, choice)
		require.NoError(t, err)
		ballots = append(ballots, b)
	}

	a, err := NewEngine().Close(context.Background(), "election-1", three, ballots, sk)
	require.NoError(t, err)
	assert.Equal(t, "2", a.DecryptedTotal[0].String())
	assert.Equal(t, "1", a.DecryptedTotal[1].String())
	assert.Equal(t, "0", a.DecryptedTotal[2].String())
	assert.Equal(t, Verified, VerifyArtifacts(pk, a))
}

func TestCloseSingleCandidate(t *testing.T) {
	pk, sk := testKey(t)
	enc := ballot.NewEncoder(pk, nil)
	only := []string{"alice"}
	b, err := enc.Encode("voter", "election-1", only, "alice")
	require.NoError(t, err)

	a, err := NewEngine().Close(context.Background(), "election-1", only, []*ballot.Ballot{b}, sk)
	require.NoError(t, err)
	assert.Equal(t, "1", a.DecryptedTotal[0].String())
	assert.Equal(t, Verified, VerifyArtifacts(pk, a))
}

func TestCloseSkipsMalformedBallots(t *testing.T) {
	pk, sk := testKey(t)
	ballots := castBallots(t, pk, "alice", "bob")

	// wrong vector length
	truncated := *ballots[0]
	truncated.Vector = truncated.Vector[:1]
	// ciphertext outside the group
	foreign := *ballots[0]
	foreign.Vector = []*paillier.Ciphertext{{}, {}}

	all := append(ballots, &truncated, &foreign, nil)
	a, err := NewEngine().Close(context.Background(), "election-1", candidates, all, sk)
	require.NoError(t, err)
	assert.Equal(t, 2, a.BallotsCounted)
	assert.Equal(t, 3, a.BallotsSkipped)
	assert.Equal(t, "1", a.DecryptedTotal[0].String())
	assert.Equal(t, "1", a.DecryptedTotal[1].String())
}

func TestCloseNoVotes(t *testing.T) {
	pk, sk := testKey(t)

	_, err := NewEngine().Close(context.Background(), "election-1", candidates, nil, sk)
	assert.ErrorIs(t, err, ErrNoVotes)

	// only malformed ballots is still an empty election
	bad := &ballot.Ballot{Vector: []*paillier.Ciphertext{{}, {}}}
	_, err = NewEngine().Close(context.Background(), "election-1", candidates, []*ballot.Ballot{bad}, sk)
	assert.ErrorIs(t, err, ErrNoVotes)

	_, err = NewEngine().Close(context.Background(), "election-1", nil, castBallots(t, pk, "alice"), sk)
	assert.ErrorIs(t, err, ErrNoVotes)

	_, err = NewEngine().Close(context.Background(), "election-1", candidates, castBallots(t, pk, "alice"), nil)
	assert.ErrorIs(t, err, paillier.ErrMissingPrivateKey)
}

func TestCloseCancelled(t *testing.T) {
	pk, sk := testKey(t)
	ballots := castBallots(t, pk, "alice", "bob", "alice", "bob")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEngine().Close(ctx, "election-1", candidates, ballots, sk)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVerifyHonestTally(t *testing.T) {
	pk, sk := testKey(t)
	ballots := castBallots(t, pk, "alice", "bob", "bob")

	a, err := NewEngine().Close(context.Background(), "election-1", candidates, ballots, sk)
	require.NoError(t, err)

	assert.Equal(t, Verified, VerifyArtifacts(pk, a))
	assert.Equal(t, Verified, Verify(pk, a.DecryptedTotal, a.PositiveTotal, a.ZeroRandomness))
	// repeated runs agree
	assert.Equal(t, Verified, VerifyArtifacts(pk, a))
}

func TestVerifyDetectsTampering(t *testing.T) {
	pk, sk := testKey(t)
	ballots := castBallots(t, pk, "alice", "alice", "bob")

	a, err := NewEngine().Close(context.Background(), "election-1", candidates, ballots, sk)
	require.NoError(t, err)

	tampered := append([]*types.BigInt{}, a.DecryptedTotal...)
	tampered[0] = types.NewInt(3) // claim an extra vote for alice
	assert.Equal(t, Failed, Verify(pk, tampered, a.PositiveTotal, a.ZeroRandomness))

	// swapping two candidates' totals must also fail
	swapped := []*types.BigInt{a.DecryptedTotal[1], a.DecryptedTotal[0]}
	assert.Equal(t, Failed, Verify(pk, swapped, a.PositiveTotal, a.ZeroRandomness))

	// a wrong witness fails even when the totals are honest
	badNonce := append([]*types.BigInt{}, a.ZeroRandomness...)
	badNonce[0] = types.NewInt(2)
	assert.Equal(t, Failed, Verify(pk, a.DecryptedTotal, a.PositiveTotal, badNonce))
}

func TestVerifyIndeterminate(t *testing.T) {
	pk, sk := testKey(t)
	ballots := castBallots(t, pk, "alice")

	a, err := NewEngine().Close(context.Background(), "election-1", candidates, ballots, sk)
	require.NoError(t, err)

	assert.Equal(t, Indeterminate, Verify(nil, a.DecryptedTotal, a.PositiveTotal, a.ZeroRandomness))
	assert.Equal(t, Indeterminate, Verify(pk, nil, a.PositiveTotal, a.ZeroRandomness))
	assert.Equal(t, Indeterminate, Verify(pk, a.DecryptedTotal, a.PositiveTotal[:1], a.ZeroRandomness))
	assert.Equal(t, Indeterminate, Verify(pk, a.DecryptedTotal, a.PositiveTotal, a.ZeroRandomness[:1]))
	assert.Equal(t, Indeterminate, VerifyArtifacts(pk, nil))

	// a zero witness can never re-encrypt anything
	zeroNonce := append([]*types.BigInt{}, a.ZeroRandomness...)
	zeroNonce[0] = types.NewInt(0)
	assert.Equal(t, Indeterminate, Verify(pk, a.DecryptedTotal, a.PositiveTotal, zeroNonce))

	// a ciphertext outside the group cannot be checked
	badCt := append([]*paillier.Ciphertext{}, a.PositiveTotal...)
	badCt[0] = &paillier.Ciphertext{}
	assert.Equal(t, Indeterminate, Verify(pk, a.DecryptedTotal, badCt, a.ZeroRandomness))
}

func TestArtifactsBinaryRoundTrip(t *testing.T) {
	pk, sk := testKey(t)
	ballots := castBallots(t, pk, "alice", "bob")

	a, err := NewEngine().Close(context.Background(), "election-1", candidates, ballots, sk)
	require.NoError(t, err)

	data, err := a.MarshalBinary()
	require.NoError(t, err)

	decoded := &Artifacts{}
	require.NoError(t, decoded.UnmarshalBinary(data))

	assert.Equal(t, a.ElectionID, decoded.ElectionID)
	assert.Equal(t, a.CandidateIDs, decoded.CandidateIDs)
	assert.Equal(t, a.BallotsCounted, decoded.BallotsCounted)
	for j := range candidates {
		assert.True(t, a.PositiveTotal[j].Equal(decoded.PositiveTotal[j]))
		assert.True(t, a.DecryptedTotal[j].Equal(decoded.DecryptedTotal[j]))
	}

	// verification works on the decoded copy
	assert.Equal(t, Verified, VerifyArtifacts(pk, decoded))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "verified", Verified.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "indeterminate", Indeterminate.String())
	assert.Equal(t, "indeterminate", Outcome(42).String())
}

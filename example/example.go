// A full election round trip: generate a key pair, cast a few ballots,
// close the election and verify the published artifacts, then show that a
// tampered result is caught.
package main

import (
	"context"
	"fmt"

	"github.com/civica-dev/homomorphic-tally/pkg/ballot"
	"github.com/civica-dev/homomorphic-tally/pkg/paillier"
	"github.com/civica-dev/homomorphic-tally/pkg/pool"
	"github.com/civica-dev/homomorphic-tally/pkg/tally"
	"github.com/civica-dev/homomorphic-tally/pkg/types"
)

// registry remembers who voted, in memory. A deployment would back this
// with its voter database.
type registry struct {
	voted map[string]bool
}

func (r *registry) HasVoted(voterID, electionID string) (bool, error) {
	return r.voted[voterID+"/"+electionID], nil
}

func (r *registry) markVoted(voterID, electionID string) {
	r.voted[voterID+"/"+electionID] = true
}

func main() {
	const electionID = "city-council-2026"
	candidates := []string{"alice", "bob", "carol"}

	pl := pool.NewPool(0)
	defer pl.TearDown()

	fmt.Println("generating election key pair...")
	pk, sk := paillier.KeyGen(pl)

	reg := &registry{voted: map[string]bool{}}
	enc := ballot.NewEncoder(pk, reg)

	var ballots []*ballot.Ballot
	for voter, choice := range map[string]string{
		"voter-1": "alice",
		"voter-2": "alice",
		"voter-3": "bob",
	} {
		b, err := enc.Encode(voter, electionID, candidates, choice)
		if err != nil {
			panic(err)
		}
		reg.markVoted(voter, electionID)
		ballots = append(ballots, b)
		fmt.Printf("%s cast ballot %s, receipt %s\n", voter, b.ID, b.ShortReceipt())
	}

	// a second ballot from the same voter is refused
	if _, err := enc.Encode("voter-1", electionID, candidates, "carol"); err != nil {
		fmt.Println("double vote rejected:", err)
	}

	artifacts, err := tally.NewEngine().Close(context.Background(), electionID, candidates, ballots, sk)
	if err != nil {
		panic(err)
	}
	for j, id := range candidates {
		fmt.Printf("%s: %s votes\n", id, artifacts.DecryptedTotal[j])
	}

	// anyone holding only the public key can check the result
	fmt.Println("verification:", tally.VerifyArtifacts(pk, artifacts))

	// a tampered total is caught
	artifacts.DecryptedTotal[2] = types.NewInt(100)
	fmt.Println("after tampering:", tally.VerifyArtifacts(pk, artifacts))
}

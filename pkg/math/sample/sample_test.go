package sample

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/civica-dev/homomorphic-tally/pkg/pool"
	"github.com/cronokirby/saferith"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModN(t *testing.T) {
	nBig, _ := new(big.Int).SetString("340282366920938463463374607431768211507", 10)
	n := saferith.ModulusFromNat(new(saferith.Nat).SetBig(nBig, nBig.BitLen()))
	for i := 0; i < 32; i++ {
		x := ModN(rand.Reader, n)
		_, _, lt := x.CmpMod(n)
		assert.EqualValues(t, 1, lt, "sampled element should be below n")
	}
}

func TestUnitModN(t *testing.T) {
	// 3⋅5⋅7⋅11⋅13 has plenty of non-units to reject
	nBig := big.NewInt(3 * 5 * 7 * 11 * 13)
	n := saferith.ModulusFromNat(new(saferith.Nat).SetBig(nBig, nBig.BitLen()))
	for i := 0; i < 32; i++ {
		u := UnitModN(rand.Reader, n)
		assert.EqualValues(t, 1, u.IsUnit(n), "sampled element should be a unit")
	}
}

func TestBlumPrime(t *testing.T) {
	p := BlumPrime(rand.Reader, 128)
	assert.Equal(t, 128, p.BitLen())
	assert.EqualValues(t, 3, new(big.Int).Mod(p, big.NewInt(4)).Int64(), "prime should be 3 mod 4")
	assert.True(t, p.ProbablyPrime(20))
}

func TestPaillier(t *testing.T) {
	if testing.Short() {
		t.Skip("full size prime generation in short mode")
	}
	pl := pool.NewPool(0)
	defer pl.TearDown()

	p, q := Paillier(rand.Reader, pl)
	require.NotNil(t, p)
	require.NotNil(t, q)
	for _, x := range []*saferith.Nat{p, q} {
		b := x.Big()
		assert.True(t, b.ProbablyPrime(20))
		assert.EqualValues(t, 3, new(big.Int).Mod(b, big.NewInt(4)).Int64())
	}
}

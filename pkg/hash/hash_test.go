package hash

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civica-dev/homomorphic-tally/internal/params"
)

func TestWriteAny(t *testing.T) {
	h := New()
	err := h.WriteAny(
		[]byte{1, 4, 6},
		"election-2026",
		big.NewInt(35),
		big.NewInt(-35),
		BytesWithDomain{TheDomain: "test", Bytes: []byte("x")},
	)
	require.NoError(t, err)
	assert.Len(t, h.Sum(), params.BytesReceipt)
	assert.Len(t, h.HexSum(), 2*params.BytesReceipt)
}

func TestWriteAnyNilBigInt(t *testing.T) {
	h := New()
	assert.Error(t, h.WriteAny((*big.Int)(nil)))
}

func TestDeterministic(t *testing.T) {
	sum := func() string {
		h := New()
		require.NoError(t, h.WriteAny("ballot", big.NewInt(123456)))
		return h.HexSum()
	}
	assert.Equal(t, sum(), sum())
}

func TestDomainSeparation(t *testing.T) {
	// the same raw bytes under different framing must not collide
	h1 := New()
	require.NoError(t, h1.WriteAny([]byte("ab"), []byte("c")))
	h2 := New()
	require.NoError(t, h2.WriteAny([]byte("a"), []byte("bc")))
	assert.NotEqual(t, h1.HexSum(), h2.HexSum())

	h3 := New()
	require.NoError(t, h3.WriteAny("abc"))
	h4 := New()
	require.NoError(t, h4.WriteAny([]byte("abc")))
	assert.NotEqual(t, h3.HexSum(), h4.HexSum())
}

func TestClone(t *testing.T) {
	h := New()
	require.NoError(t, h.WriteAny("prefix"))
	c := h.Clone()
	require.NoError(t, c.WriteAny("suffix"))
	assert.NotEqual(t, h.HexSum(), c.HexSum())

	again := New()
	require.NoError(t, again.WriteAny("prefix", "suffix"))
	assert.Equal(t, c.HexSum(), again.HexSum())
}

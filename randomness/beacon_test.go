package randomness

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maybeTomorrow/gatekeeper/cryptoutil"
)

func TestShouldEmitOnEveryFifthBlock(t *testing.T) {
	assert.True(t, ShouldEmit(0))
	assert.True(t, ShouldEmit(5))
	assert.True(t, ShouldEmit(100))
	assert.False(t, ShouldEmit(1))
	assert.False(t, ShouldEmit(6))
}

func TestNextRandomNumberIsDeterministic(t *testing.T) {
	mk := cryptoutil.NewMasterKey([32]byte{1, 2, 3})
	var last [32]byte

	a := NextRandomNumber(mk, 10, last)
	b := NextRandomNumber(mk, 10, last)

	assert.Equal(t, a, b)
}

func TestNextRandomNumberChangesWithBlockOrChain(t *testing.T) {
	mk := cryptoutil.NewMasterKey([32]byte{1, 2, 3})
	var last [32]byte

	a := NextRandomNumber(mk, 10, last)
	b := NextRandomNumber(mk, 15, last)
	assert.NotEqual(t, a, b, "changing the block number must change the output")

	c := NextRandomNumber(mk, 10, a)
	assert.NotEqual(t, a, c, "chaining the previous output in must change the output")
}

func TestVerifyAcceptsCorrectAndRejectsTampered(t *testing.T) {
	mk := cryptoutil.NewMasterKey([32]byte{4, 5, 6})
	var last [32]byte

	next := NextRandomNumber(mk, 20, last)
	assert.True(t, Verify(mk, 20, last, next))

	tampered := next
	tampered[0] ^= 0xFF
	assert.False(t, Verify(mk, 20, last, tampered), "a tampered beacon value must fail verification")
}

package gf256

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddIsXor(t *testing.T) {
	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			require.Equal(t, byte(a^b), Add(byte(a), byte(b)))
		}
		assert.Equal(t, byte(0), Add(byte(a), byte(a)))
		assert.Equal(t, Add(byte(a), 0x5A), Sub(byte(a), 0x5A))
	}
}

func TestMulIdentities(t *testing.T) {
	for a := 0; a < 256; a++ {
		assert.Equal(t, byte(a), Mul(byte(a), 1))
		assert.Equal(t, byte(0), Mul(byte(a), 0))
		assert.Equal(t, byte(0), Mul(0, byte(a)))
	}
}

func TestMulMatchesPeasant(t *testing.T) {
	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			require.Equal(t, mulSlow(byte(a), byte(b)), Mul(byte(a), byte(b)), "a=%d b=%d", a, b)
		}
	}
}

func TestMulKnownVectors(t *testing.T) {
	// FIPS-197 section 4.2: {57} * {83} = {c1}, {57} * {13} = {fe}.
	assert.Equal(t, byte(0xC1), Mul(0x57, 0x83))
	assert.Equal(t, byte(0xFE), Mul(0x57, 0x13))
	assert.Equal(t, byte(0x05), Mul(3, 3))
}

func TestInverse(t *testing.T) {
	for a := 1; a < 256; a++ {
		inv, err := Inv(byte(a))
		require.NoError(t, err)
		assert.Equal(t, byte(1), Mul(byte(a), inv), "a=%d", a)
		assert.Equal(t, Exp(byte(a), 254), inv)
	}

	_, err := Inv(0)
	assert.ErrorIs(t, err, ErrDomain)
}

func TestDiv(t *testing.T) {
	for a := 0; a < 256; a++ {
		for b := 1; b < 256; b++ {
			q, err := Div(byte(a), byte(b))
			require.NoError(t, err)
			require.Equal(t, byte(a), Mul(q, byte(b)))
		}
	}

	_, err := Div(7, 0)
	assert.ErrorIs(t, err, ErrDomain)
}

func TestExp(t *testing.T) {
	assert.Equal(t, byte(1), Exp(0, 0))
	assert.Equal(t, byte(0), Exp(0, 5))
	assert.Equal(t, byte(1), Exp(0x53, 255))

	inv, err := Inv(0x53)
	require.NoError(t, err)
	assert.Equal(t, inv, Exp(0x53, -1))

	acc := byte(1)
	for n := 0; n < 20; n++ {
		assert.Equal(t, acc, Exp(7, n))
		acc = Mul(acc, 7)
	}
}

func TestEval(t *testing.T) {
	// f(x) = 5 + 3x + x^2
	coeffs := []byte{5, 3, 1}
	assert.Equal(t, byte(5), Eval(coeffs, 0))
	for x := 1; x < 256; x++ {
		want := Add(Add(5, Mul(3, byte(x))), Mul(byte(x), byte(x)))
		assert.Equal(t, want, Eval(coeffs, byte(x)))
	}
	assert.Equal(t, byte(0), Eval(nil, 9))
}

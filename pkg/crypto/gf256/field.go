// Package gf256 implements arithmetic in the Rijndael field GF(2^8), reduced
// by the irreducible polynomial x^8 + x^4 + x^3 + x + 1 (0x11B).
package gf256

import (
	"errors"
	"fmt"
)

const (
	// Polynomial is the Rijndael reduction polynomial x^8 + x^4 + x^3 + x + 1.
	Polynomial = 0x11B

	// Generator of the multiplicative group used to build the tables.
	Generator = 3
)

// ErrDomain is returned for arithmetic outside the field's domain, e.g. the
// inverse of zero.
var ErrDomain = errors.New("gf256: domain error")

var (
	expTable [510]byte
	logTable [256]byte
)

func init() {
	x := byte(1)
	for i := 0; i < 255; i++ {
		expTable[i] = x
		expTable[i+255] = x
		logTable[x] = byte(i)
		x = mulSlow(x, Generator)
	}

	// Any mismatch here means the generator does not span the group.
	for a := 1; a < 256; a++ {
		if expTable[logTable[a]] != byte(a) {
			panic(fmt.Sprintf("gf256: bad log table entry for %d", a))
		}
	}
}

// mulSlow multiplies using the shift-and-add (peasant) method.
func mulSlow(a, b byte) byte {
	var result byte
	for i := 0; i < 8; i++ {
		if b&1 == 1 {
			result ^= a
		}
		carry := a & 0x80
		a <<= 1
		if carry != 0 {
			a ^= Polynomial & 0xFF
		}
		b >>= 1
	}
	return result
}

// Add returns a + b, which is XOR in characteristic 2.
func Add(a, b byte) byte {
	return a ^ b
}

// Sub is identical to Add.
func Sub(a, b byte) byte {
	return a ^ b
}

// Mul returns a * b.
func Mul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return expTable[int(logTable[a])+int(logTable[b])]
}

// Inv returns the multiplicative inverse of a.
func Inv(a byte) (byte, error) {
	if a == 0 {
		return 0, fmt.Errorf("%w: inverse of zero", ErrDomain)
	}
	return expTable[255-int(logTable[a])], nil
}

// Div returns a / b.
func Div(a, b byte) (byte, error) {
	if b == 0 {
		return 0, fmt.Errorf("%w: division by zero", ErrDomain)
	}
	if a == 0 {
		return 0, nil
	}
	return expTable[int(logTable[a])+255-int(logTable[b])], nil
}

// Exp raises a to the power n. Negative exponents are taken modulo the
// group order, so Exp(a, -1) is the inverse for a != 0.
func Exp(a byte, n int) byte {
	if n == 0 {
		return 1
	}
	if a == 0 {
		return 0
	}
	e := (int(logTable[a]) * (n % 255)) % 255
	if e < 0 {
		e += 255
	}
	return expTable[e]
}

// Eval evaluates the polynomial with the given coefficients (lowest degree
// first) at x using Horner's rule.
func Eval(coeffs []byte, x byte) byte {
	var result byte
	for i := len(coeffs) - 1; i >= 0; i-- {
		result = Add(Mul(result, x), coeffs[i])
	}
	return result
}

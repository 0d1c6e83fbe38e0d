// Package secure holds helpers for handling secret material in memory.
package secure

import (
	"crypto/subtle"
	"runtime"
)

// Zero overwrites b with zeros.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

// ZeroAll wipes every buffer in the map, e.g. a share's MAC keys.
func ZeroAll(m map[byte][]byte) {
	for _, v := range m {
		Zero(v)
	}
}

// ConstantTimeCompare reports whether x and y are equal without leaking
// where they differ. Length mismatches return false immediately.
func ConstantTimeCompare(x, y []byte) bool {
	if len(x) != len(y) {
		return false
	}
	return subtle.ConstantTimeCompare(x, y) == 1
}

// Package random provides utilities for generating random strings and numbers.
package random

import (
	"crypto/rand"
	"math/big"
)

var (
	numSeq [10]rune
	allSeq [62]rune
)

func init() {
	for i := 0; i < 10; i++ {
		numSeq[i] = rune('0' + i)
	}
	copy(allSeq[:], numSeq[:])
	for i := 0; i < 26; i++ {
		allSeq[10+i] = rune('a' + i)
		allSeq[36+i] = rune('A' + i)
	}
}

func pick(seq []rune, n int) string {
	runes := make([]rune, n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(seq))))
		if err != nil {
			panic("crypto/rand failed: " + err.Error())
		}
		runes[i] = seq[idx.Int64()]
	}
	return string(runes)
}

// Seq generates a random alphanumeric string of length n.
func Seq(n int) string {
	return pick(allSeq[:], n)
}

// Digits generates a random string of n decimal digits, leading zeros allowed.
func Digits(n int) string {
	return pick(numSeq[:], n)
}

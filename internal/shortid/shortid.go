// Package shortid generates random short codes. Codes are drawn from
// crypto/rand so they are not guessable from previously issued ones.
package shortid

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func Generate(length int) string {
	var sb strings.Builder
	sb.Grow(length)
	for i := 0; i < length; i++ {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(Alphabet))))
		sb.WriteByte(Alphabet[n.Int64()])
	}
	return sb.String()
}

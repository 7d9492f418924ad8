package shortid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateLength(t *testing.T) {
	for _, n := range []int{1, 7, 32} {
		assert.Len(t, Generate(n), n)
	}
}

func TestGenerateAlphabet(t *testing.T) {
	code := Generate(256)
	for _, ch := range code {
		assert.True(t, strings.ContainsRune(Alphabet, ch), "unexpected character %q", ch)
	}
}

func TestGenerateNotConstant(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		seen[Generate(7)] = true
	}
	// 50 draws from 62^7 should essentially never collide, let alone all of them.
	assert.Greater(t, len(seen), 1)
}

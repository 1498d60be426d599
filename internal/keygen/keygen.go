// Package keygen produces the short random identifiers used across the
// application: short-URL codes, anonymous visitor ids and user ids all come
// from the same generator and alphabet.
package keygen

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Alphabet is the character set identifiers are drawn from.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// KeyLength is the length of every generated identifier.
const KeyLength = 6

// Generator produces fixed-length random identifiers from a non-cryptographic
// source. It is safe for concurrent use.
//
// The generator does not enforce uniqueness: with 62^6 possible values the
// collision probability is treated as negligible at the expected scale.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New returns a Generator seeded from the current time.
func New() *Generator {
	return &Generator{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewWithSource returns a Generator backed by the given source. Tests use it
// to get a deterministic sequence.
func NewWithSource(src rand.Source) *Generator {
	return &Generator{
		rnd: rand.New(src),
	}
}

// Generate returns a KeyLength-character identifier with every character
// drawn independently and uniformly from Alphabet.
func (g *Generator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var b strings.Builder
	b.Grow(KeyLength)
	for i := 0; i < KeyLength; i++ {
		b.WriteByte(Alphabet[g.rnd.Intn(len(Alphabet))])
	}

	return b.String()
}

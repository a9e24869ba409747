package shortener

import (
	"math/rand"

	"github.com/jaevor/go-nanoid"
)

// Alphabet is the 57-symbol set codes are drawn from: digits and ASCII
// letters minus the visually ambiguous 0, 1, I, O and l, so codes survive
// manual transcription.
const Alphabet = "23456789" +
	"ABCDEFGHJKLMNPQRSTUVWXYZ" +
	"abcdefghijkmnopqrstuvwxyz"

// DefaultCodeLength is the number of symbols in a generated code.
const DefaultCodeLength = 6

// CodeGenerator produces candidate short codes.
type CodeGenerator func() string

// NewCodeGenerator returns a generator drawing length symbols uniformly
// from Alphabet using a cryptographically secure source.
func NewCodeGenerator(length int) (CodeGenerator, error) {
	gen, err := nanoid.CustomASCII(Alphabet, length)
	if err != nil {
		return nil, err
	}

	return CodeGenerator(gen), nil
}

// NewSeededCodeGenerator returns a deterministic generator for tests.
// Identical seeds yield identical code sequences.
func NewSeededCodeGenerator(length int, rnd *rand.Rand) CodeGenerator {
	return func() string {
		buf := make([]byte, length)
		for i := range buf {
			buf[i] = Alphabet[rnd.Intn(len(Alphabet))]
		}

		return string(buf)
	}
}

package vm

import (
	"math/rand/v2"
)

// RandomSource supplies the bytes consumed by CXNN.
type RandomSource interface {
	NextByte() uint8
}

type entropySource struct{}

// NewRandomSource returns a source backed by the runtime-seeded global generator.
func NewRandomSource() RandomSource {
	return entropySource{}
}

func (entropySource) NextByte() uint8 {
	return uint8(rand.IntN(256))
}

type seededSource struct {
	rnd *rand.Rand
}

// NewSeededSource returns a source that yields the same sequence for the same seed.
func NewSeededSource(seed uint64) RandomSource {
	return &seededSource{
		rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (s *seededSource) NextByte() uint8 {
	return uint8(s.rnd.IntN(256))
}

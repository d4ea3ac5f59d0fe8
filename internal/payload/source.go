package payload

import "math/rand"

// Source supplies the randomness used by Generator
type Source interface {
	// IntRange returns a uniformly chosen integer in [min, max]
	IntRange(min, max int) int

	// Char returns a uniformly chosen byte from alphabet
	Char(alphabet string) byte
}

// defaultSource draws from the process-wide math/rand generator,
// which is safe for concurrent use.
type defaultSource struct{}

// DefaultSource returns the process-wide random source
func DefaultSource() Source {
	return defaultSource{}
}

func (defaultSource) IntRange(min, max int) int {
	return min + rand.Intn(max-min+1)
}

func (defaultSource) Char(alphabet string) byte {
	return alphabet[rand.Intn(len(alphabet))]
}

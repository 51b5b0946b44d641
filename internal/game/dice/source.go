package dice

import (
	"crypto/rand"
	"math/big"
	"sync"
)

// Source is the randomness behind every roll.
//
// Implementations must be safe for concurrent use.
type Source interface {
	// Intn returns a value in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

type cryptoSource struct{}

// NewCryptoSource returns the Source used for live tables, backed by crypto/rand.
//
// Postcondition: Every value returned by Intn is uniform in [0, n).
func NewCryptoSource() Source {
	return cryptoSource{}
}

// Intn panics when n <= 0 or crypto/rand fails.
func (cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return int(v.Int64())
}

// FixedSource replays a list of die faces, cycling when exhausted. A face
// larger than the die being rolled shows the die's maximum.
type FixedSource struct {
	mu    sync.Mutex
	faces []int
	next  int
}

// NewFixedSource returns a Source that rolls faces in order.
//
// Precondition: faces is non-empty and every face is >= 1.
func NewFixedSource(faces ...int) *FixedSource {
	if len(faces) == 0 {
		panic("dice: NewFixedSource needs at least one face")
	}
	return &FixedSource{faces: faces}
}

// Intn implements Source.
func (f *FixedSource) Intn(n int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	face := f.faces[f.next%len(f.faces)]
	f.next++
	return min(face, n) - 1
}

// Rolled reports how many faces have been consumed.
func (f *FixedSource) Rolled() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.next
}

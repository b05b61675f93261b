// Package idgen mints time-sortable trade identifiers.
package idgen

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator mints ULIDs that sort in creation order, also within one millisecond
// and when the wall clock steps backwards.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	last    uint64
}

func NewGenerator(entropy io.Reader) *Generator {
	return &Generator{entropy: ulid.Monotonic(entropy, 0)}
}

var defaultGenerator = NewGenerator(seededSource())

func seededSource() io.Reader {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// New returns a ULID string from the process-wide generator.
func New() (string, error) {
	return defaultGenerator.Next(time.Now())
}

// Next returns an ID stamped no earlier than the previous one. When the entropy of
// the current millisecond is exhausted the ID moves to the following millisecond.
func (g *Generator) Next(now time.Time) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := ulid.Timestamp(now.UTC())
	if ms < g.last {
		ms = g.last
	}

	id, err := ulid.New(ms, g.entropy)
	if errors.Is(err, ulid.ErrMonotonicOverflow) {
		ms++
		id, err = ulid.New(ms, g.entropy)
	}
	if err != nil {
		return "", fmt.Errorf("mint id: %w", err)
	}

	g.last = ms
	return id.String(), nil
}

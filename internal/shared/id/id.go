// Package id provides centralized ID generation for the bridge.
//
// Request IDs are ULIDs: a millisecond timestamp prefix plus a random
// suffix. That gives the dispatcher time-ordered correlation IDs that are
// safe to generate concurrently. Prefixes
// (req_*, tgt_*) keep logs readable and prevent cross-domain misuse at
// compile time.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// RequestID correlates one RPC request with its response.
type RequestID string

// TargetID identifies one page context the relay can address.
type TargetID string

const (
	RequestPrefix = "req"
	TargetPrefix  = "tgt"
)

// Generator generates ULIDs with optional prefixes.
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator backed by crypto/rand.
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Useful for testing with deterministic entropy.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string.
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewRequestID generates a new request correlation ID.
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// NewTargetID generates a new target ID.
func NewTargetID() TargetID {
	return TargetID(Default().GenerateWithPrefix(TargetPrefix))
}

func (id RequestID) String() string { return string(id) }
func (id TargetID) String() string  { return string(id) }

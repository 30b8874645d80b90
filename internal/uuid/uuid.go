// Package uuid hands out record and event ids behind an interface tests can replace
package uuid

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Generator is an interface for generating ids
type Generator interface {
	New() string
}

type randomGenerator struct{}

// NewGenerator returns a generator of random (version 4) UUIDs
func NewGenerator() Generator {
	return randomGenerator{}
}

func (randomGenerator) New() string {
	return uuid.NewString()
}

// SequenceGenerator returns predictable ids: prefix-1, prefix-2, ...
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	next   int
}

// NewSequenceGenerator creates a generator for tests and fixtures
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{prefix: prefix}
}

// New returns the next id in the sequence
func (g *SequenceGenerator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.next++
	return fmt.Sprintf("%s-%d", g.prefix, g.next)
}

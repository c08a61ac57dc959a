// Package shortener provides the short code generation strategies.
package shortener

import (
	"context"
	"fmt"

	"github.com/vadimbarashkov/shortly/pkg/base62"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Generation strategies recognized by the configuration.
const (
	StrategyRandom     = "random"
	StrategySequential = "sequential"
)

// Generator produces candidate short codes of a fixed length drawn from the
// base62 alphabet. Implementations never check the store for collisions; the
// store's uniqueness constraint is the final arbiter and the caller decides
// whether a conflict is retryable.
type Generator interface {
	// Generate returns a candidate short code.
	Generate(ctx context.Context) (string, error)

	// Deterministic reports whether the strategy is conflict-free by
	// construction. A uniqueness violation from a deterministic generator
	// indicates a broken guarantee upstream, not a retryable collision.
	Deterministic() bool
}

// SequenceSource yields monotonically increasing ids for the sequential
// strategy, typically backed by a database sequence.
type SequenceSource interface {
	NextCodeID(ctx context.Context) (int64, error)
}

// New selects a generator by the configured strategy name.
func New(strategy string, length int, seq SequenceSource) (Generator, error) {
	switch strategy {
	case StrategyRandom:
		return NewRandomGenerator(length), nil
	case StrategySequential:
		if seq == nil {
			return nil, fmt.Errorf("shortener: sequential strategy requires a sequence source")
		}
		return NewSequentialGenerator(length, seq), nil
	default:
		return nil, fmt.Errorf("shortener: unknown generation strategy %q", strategy)
	}
}

// RandomGenerator draws each symbol uniformly at random. Codes are
// unpredictable but may collide, so callers retry on store conflicts.
type RandomGenerator struct {
	length int
}

func NewRandomGenerator(length int) *RandomGenerator {
	return &RandomGenerator{length: length}
}

func (g *RandomGenerator) Generate(_ context.Context) (string, error) {
	const op = "shortener.RandomGenerator.Generate"

	code, err := gonanoid.Generate(base62.Alphabet, g.length)
	if err != nil {
		return "", fmt.Errorf("%s: failed to generate short code: %w", op, err)
	}

	return code, nil
}

func (g *RandomGenerator) Deterministic() bool { return false }

// SequentialGenerator encodes successive sequence values to base62, padded to
// the configured length. Collision-free and cheaper than the random strategy,
// but codes are predictable and leak record count and order.
type SequentialGenerator struct {
	length int
	seq    SequenceSource
}

func NewSequentialGenerator(length int, seq SequenceSource) *SequentialGenerator {
	return &SequentialGenerator{
		length: length,
		seq:    seq,
	}
}

func (g *SequentialGenerator) Generate(ctx context.Context) (string, error) {
	const op = "shortener.SequentialGenerator.Generate"

	id, err := g.seq.NextCodeID(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: failed to fetch sequence value: %w", op, err)
	}

	code, err := base62.EncodeFixed(id, g.length)
	if err != nil {
		return "", fmt.Errorf("%s: failed to encode sequence value: %w", op, err)
	}

	return code, nil
}

func (g *SequentialGenerator) Deterministic() bool { return true }

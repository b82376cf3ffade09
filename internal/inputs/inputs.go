// Package inputs resolves the argument tuples for a run from exactly one
// source: a literal argument list, a file of argument lists, or random
// generation (optionally filtered by a predicate).
//
// Every source is fully materialized before evaluation starts, so a
// Sequence can be replayed against several backends in the same order.
package inputs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/roach88/irdiff/internal/filter"
	"github.com/roach88/irdiff/internal/generator"
	"github.com/roach88/irdiff/internal/ir"
)

// Kind names the origin of a sequence.
type Kind string

const (
	KindLiteral Kind = "literal"
	KindFile    Kind = "file"
	KindRandom  Kind = "random"
)

// Sequence is an immutable, ordered, restartable list of argument tuples.
type Sequence struct {
	kind  Kind
	items []ir.Args
}

// NewSequence returns a sequence of the given tuples.
func NewSequence(kind Kind, items ...ir.Args) *Sequence {
	return &Sequence{kind: kind, items: append([]ir.Args(nil), items...)}
}

// Kind reports where the tuples came from.
func (s *Sequence) Kind() Kind { return s.kind }

// Len returns the number of tuples.
func (s *Sequence) Len() int { return len(s.items) }

// At returns tuple i.
func (s *Sequence) At(i int) ir.Args { return s.items[i] }

// All yields (index, tuple) pairs in order. It may be ranged over any
// number of times.
func (s *Sequence) All() iter.Seq2[int, ir.Args] {
	return func(yield func(int, ir.Args) bool) {
		for i, args := range s.items {
			if !yield(i, args) {
				return
			}
		}
	}
}

// Options selects the input source. Exactly one of Literal, File, or
// Random must be set.
type Options struct {
	Literal string // "x; y" for one tuple
	File    string // newline-delimited argument lists
	Random  int    // number of random tuples

	// Rand drives random generation. Required when Random > 0.
	Rand *rand.Rand
	// Filter, when set, rejection-samples each random tuple.
	Filter *filter.Filter
}

func (o Options) active() []string {
	var set []string
	if o.Literal != "" {
		set = append(set, "literal")
	}
	if o.File != "" {
		set = append(set, "file")
	}
	if o.Random > 0 {
		set = append(set, "random")
	}
	return set
}

// Resolve materializes the sequence selected by opts. params are the
// parameter types of the function under test.
func Resolve(ctx context.Context, params []ir.Type, opts Options) (*Sequence, error) {
	switch set := opts.active(); len(set) {
	case 0:
		return nil, errors.New("no input source: provide a literal, a file, or a random count")
	case 1:
	default:
		return nil, fmt.Errorf("conflicting input sources: %s", strings.Join(set, ", "))
	}

	switch {
	case opts.Literal != "":
		args, err := ir.ParseArgs(opts.Literal, params)
		if err != nil {
			return nil, err
		}
		return NewSequence(KindLiteral, args), nil
	case opts.File != "":
		return ReadFile(opts.File, params)
	default:
		return GenerateRandom(ctx, params, opts.Random, opts.Rand, opts.Filter)
	}
}

// ReadFile loads one argument list per non-blank line of path.
func ReadFile(path string, params []ir.Type) (*Sequence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()
	return Read(f, params)
}

// Read loads one argument list per non-blank line of r. Surrounding
// whitespace is ignored and an empty reader yields an empty sequence.
func Read(r io.Reader, params []ir.Type) (*Sequence, error) {
	var items []ir.Args
	err := eachLine(r, func(line int, text string) error {
		args, err := ir.ParseArgs(text, params)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		items = append(items, args)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Sequence{kind: KindFile, items: items}, nil
}

// GenerateRandom produces n tuples. With a filter, each tuple is drawn by
// rejection sampling; exhaustion aborts the whole sequence.
func GenerateRandom(ctx context.Context, params []ir.Type, n int, rng *rand.Rand, f *filter.Filter) (*Sequence, error) {
	if rng == nil {
		rng = generator.NewRand(generator.DefaultSeed)
	}
	items := make([]ir.Args, 0, n)
	for range n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f == nil {
			items = append(items, generator.Args(params, rng))
			continue
		}
		args, err := f.SampleValid(ctx, rng)
		if err != nil {
			return nil, err
		}
		items = append(items, args)
	}
	return &Sequence{kind: KindRandom, items: items}, nil
}

// ResolveExpected loads expected results from a literal or a file, parsed
// against the function's return type. It returns nil when neither is set.
func ResolveExpected(ret ir.Type, literal, path string) ([]ir.Value, error) {
	switch {
	case literal != "" && path != "":
		return nil, errors.New("conflicting expected sources: literal, file")
	case literal != "":
		v, err := ir.ParseTyped(strings.TrimSpace(literal), ret)
		if err != nil {
			return nil, fmt.Errorf("expected value: %w", err)
		}
		return []ir.Value{v}, nil
	case path != "":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open expected file: %w", err)
		}
		defer f.Close()
		return ReadExpected(f, ret)
	}
	return nil, nil
}

// ReadExpected loads one value per non-blank line of r.
func ReadExpected(r io.Reader, ret ir.Type) ([]ir.Value, error) {
	values := []ir.Value{}
	err := eachLine(r, func(line int, text string) error {
		v, err := ir.ParseTyped(text, ret)
		if err != nil {
			return fmt.Errorf("expected line %d: %w", line, err)
		}
		values = append(values, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

// CheckAligned reports a LENGTH_MISMATCH if expected is present and does not
// have one value per tuple.
func CheckAligned(seq *Sequence, expected []ir.Value) error {
	if expected == nil || len(expected) == seq.Len() {
		return nil
	}
	return ir.NewError(ir.LengthMismatch,
		"%d expected values for %d input tuples", len(expected), seq.Len())
}

// eachLine calls fn with the 1-based line number and trimmed text of every
// non-blank line.
func eachLine(r io.Reader, fn func(line int, text string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if err := fn(line, text); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read lines: %w", err)
	}
	return nil
}

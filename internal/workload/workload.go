// Package workload reads, writes, generates and replays access traces used
// to compare eviction policies.
//
// A trace is line oriented:
//
//	# comment
//	get <key>
//	put <key> <value>
//	del <key>
//	clear
//
// Keys and values are single whitespace-free tokens.
package workload

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"
)

// ErrSyntax is wrapped by Parse errors.
var ErrSyntax = errors.New("workload: syntax error")

// Kind is the operation of one trace line.
type Kind string

const (
	Get   Kind = "get"
	Put   Kind = "put"
	Del   Kind = "del"
	Clear Kind = "clear"
)

// Op is one trace line.
type Op struct {
	Kind  Kind
	Key   string
	Value string
}

func (o Op) String() string {
	switch o.Kind {
	case Put:
		return fmt.Sprintf("%s %s %s", o.Kind, o.Key, o.Value)
	case Clear:
		return string(o.Kind)
	default:
		return fmt.Sprintf("%s %s", o.Kind, o.Key)
	}
}

// Parse reads a trace. Blank lines and lines starting with # are skipped.
func Parse(r io.Reader) ([]Op, error) {
	var ops []Op
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		op, err := parseLine(text)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrSyntax, line, err)
		}
		ops = append(ops, op)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	return ops, nil
}

func parseLine(text string) (Op, error) {
	f := strings.Fields(text)
	kind := Kind(strings.ToLower(f[0]))
	want := map[Kind]int{Get: 2, Put: 3, Del: 2, Clear: 1}
	n, ok := want[kind]
	if !ok {
		return Op{}, fmt.Errorf("unknown operation %q", f[0])
	}
	if len(f) != n {
		return Op{}, fmt.Errorf("%s takes %d argument(s), got %d", kind, n-1, len(f)-1)
	}
	op := Op{Kind: kind}
	if n > 1 {
		op.Key = f[1]
	}
	if n > 2 {
		op.Value = f[2]
	}
	return op, nil
}

// Write writes ops in trace format, one per line.
func Write(w io.Writer, ops []Op) error {
	bw := bufio.NewWriter(w)
	for _, op := range ops {
		if _, err := bw.WriteString(op.String()); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// GenConfig controls Generate.
type GenConfig struct {
	Ops        int     // number of operations
	Keys       int     // size of the key space
	WriteRatio float64 // fraction of puts, 0..1
	DeleteRate float64 // fraction of deletes, 0..1
	Skew       float64 // Zipf exponent, must be > 1; larger is more skewed
	Seed       uint64
}

// DefaultGenConfig returns a read-heavy, moderately skewed mix.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Ops:        10000,
		Keys:       1000,
		WriteRatio: 0.3,
		Skew:       1.1,
		Seed:       1,
	}
}

// Generate produces a deterministic trace for cfg. Keys are drawn from a
// Zipf distribution over Keys distinct names, so a few keys are hot.
func Generate(cfg GenConfig) ([]Op, error) {
	if cfg.Ops < 0 || cfg.Keys < 1 {
		return nil, fmt.Errorf("workload: need ops >= 0 and keys >= 1, got %d and %d", cfg.Ops, cfg.Keys)
	}
	if cfg.Skew <= 1 {
		return nil, fmt.Errorf("workload: skew must be > 1, got %v", cfg.Skew)
	}
	if cfg.WriteRatio < 0 || cfg.DeleteRate < 0 || cfg.WriteRatio+cfg.DeleteRate > 1 {
		return nil, fmt.Errorf("workload: write ratio %v and delete rate %v must be non-negative and sum to at most 1", cfg.WriteRatio, cfg.DeleteRate)
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	zipf := rand.NewZipf(rng, cfg.Skew, 1, uint64(cfg.Keys-1))

	ops := make([]Op, 0, cfg.Ops)
	for i := 0; i < cfg.Ops; i++ {
		key := "k" + strconv.FormatUint(zipf.Uint64(), 10)
		switch x := rng.Float64(); {
		case x < cfg.WriteRatio:
			ops = append(ops, Op{Kind: Put, Key: key, Value: strconv.Itoa(i)})
		case x < cfg.WriteRatio+cfg.DeleteRate:
			ops = append(ops, Op{Kind: Del, Key: key})
		default:
			ops = append(ops, Op{Kind: Get, Key: key})
		}
	}
	return ops, nil
}

// Target is what a trace is replayed against. *state.ValueState[[]byte]
// satisfies it.
type Target interface {
	Read(ctx context.Context, key []byte) ([]byte, error)
	Write(ctx context.Context, key []byte, value []byte) error
	Invalidate(key []byte)
	Reset()
}

// Result counts the operations a replay applied.
type Result struct {
	Ops    int
	Gets   int
	Puts   int
	Dels   int
	Clears int
}

// Replay applies ops to t in order. It stops at the first error or when
// ctx is done, returning what was applied so far.
func Replay(ctx context.Context, t Target, ops []Op) (Result, error) {
	var res Result
	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		key := []byte(op.Key)
		switch op.Kind {
		case Get:
			if _, err := t.Read(ctx, key); err != nil {
				return res, fmt.Errorf("op %d (%s): %w", i, op, err)
			}
			res.Gets++
		case Put:
			if err := t.Write(ctx, key, []byte(op.Value)); err != nil {
				return res, fmt.Errorf("op %d (%s): %w", i, op, err)
			}
			res.Puts++
		case Del:
			t.Invalidate(key)
			res.Dels++
		case Clear:
			t.Reset()
			res.Clears++
		default:
			return res, fmt.Errorf("op %d: unknown kind %q", i, op.Kind)
		}
		res.Ops++
	}
	return res, nil
}

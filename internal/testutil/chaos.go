package testutil

import (
	"errors"
	"io"
	"math/rand/v2"
)

// ErrInjected is returned by chaos wrappers for injected failures.
var ErrInjected = errors.New("injected fault")

// ChaosConfig controls fault injection probabilities.
// Each rate is a float64 from 0.0 (never) to 1.0 (always).
//
// The zero value disables all fault injection.
type ChaosConfig struct {
	// ShortReadRate controls how often a read is limited to a random prefix
	// of the caller's buffer. This is valid io.Reader behavior and tests that
	// callers loop until EOF.
	ShortReadRate float64

	// EmptyReadRate controls how often a read returns (0, nil) without
	// touching the source.
	EmptyReadRate float64

	// ReadFailRate controls how often a read fails with [ErrInjected]. Once
	// failed, every later read fails too.
	ReadFailRate float64

	// WriteFailRate controls how often a write fails entirely, writing zero
	// bytes and returning [ErrInjected].
	WriteFailRate float64

	// PartialWriteRate controls how often a write stores only some bytes
	// before failing with [ErrInjected].
	PartialWriteRate float64
}

// ChaosReader wraps an io.Reader and injects faults per its config.
type ChaosReader struct {
	r      io.Reader
	rng    *rand.Rand
	cfg    ChaosConfig
	failed bool
}

// NewChaosReader returns a reader over r. The same seed yields the same
// sequence of faults.
func NewChaosReader(r io.Reader, seed uint64, cfg ChaosConfig) *ChaosReader {
	return &ChaosReader{r: r, rng: rand.New(rand.NewPCG(seed, seed^0x5851f42d4c957f2d)), cfg: cfg}
}

func (c *ChaosReader) Read(p []byte) (int, error) {
	if c.failed {
		return 0, ErrInjected
	}

	if c.hit(c.cfg.ReadFailRate) {
		c.failed = true

		return 0, ErrInjected
	}

	if len(p) == 0 || c.hit(c.cfg.EmptyReadRate) {
		return 0, nil
	}

	if len(p) > 1 && c.hit(c.cfg.ShortReadRate) {
		p = p[:1+c.rng.IntN(len(p)-1)]
	}

	return c.r.Read(p)
}

func (c *ChaosReader) hit(rate float64) bool {
	return rate > 0 && c.rng.Float64() < rate
}

// ChaosWriter wraps an io.Writer and injects faults per its config.
type ChaosWriter struct {
	w   io.Writer
	rng *rand.Rand
	cfg ChaosConfig
}

// NewChaosWriter returns a writer over w.
func NewChaosWriter(w io.Writer, seed uint64, cfg ChaosConfig) *ChaosWriter {
	return &ChaosWriter{w: w, rng: rand.New(rand.NewPCG(seed, seed^0x5851f42d4c957f2d)), cfg: cfg}
}

func (c *ChaosWriter) Write(p []byte) (int, error) {
	if c.cfg.WriteFailRate > 0 && c.rng.Float64() < c.cfg.WriteFailRate {
		return 0, ErrInjected
	}

	if len(p) > 1 && c.cfg.PartialWriteRate > 0 && c.rng.Float64() < c.cfg.PartialWriteRate {
		n, err := c.w.Write(p[:c.rng.IntN(len(p))])
		if err != nil {
			return n, err
		}

		return n, ErrInjected
	}

	return c.w.Write(p)
}

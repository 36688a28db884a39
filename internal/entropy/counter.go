// Package entropy computes Shannon entropy, mutual information and conditional
// mutual information over groups of bins. Bins are bit-packed into one uint64
// key per sample, so a single counter holds at most MaxBinCount bins.
package entropy

import (
	"fmt"
	"math"
	"slices"

	"github.com/gcbaptista/go-cmicot/internal/errors"
	"github.com/gcbaptista/go-cmicot/internal/features"
)

// MaxBinCount is the number of bins that fit into one key.
const MaxBinCount = 64

// denseRangeLimit is the widest key range still counted with a dense array.
const denseRangeLimit = 1 << 22

// denseSpread bounds the dense array relative to the sample count, so sparse keys go to the map.
const denseSpread = 16

// Counter accumulates one key per sample. Adding a bin shifts every key left and
// ORs in the bin value. Counters only grow.
//
// Entropy and EntropyWithExtraBin do not mutate the counter and may be called
// concurrently; AddBin may not.
type Counter struct {
	binCount int
	values   []uint64
	lo, hi   uint64
}

// NewCounter creates an empty counter for bins of sampleCount values.
func NewCounter(sampleCount int) *Counter {
	return &Counter{values: make([]uint64, sampleCount)}
}

// Clone returns an independent copy of the counter.
func (c *Counter) Clone() *Counter {
	return &Counter{
		binCount: c.binCount,
		values:   slices.Clone(c.values),
		lo:       c.lo,
		hi:       c.hi,
	}
}

// BinCount returns how many bins were folded into the counter.
func (c *Counter) BinCount() int {
	return c.binCount
}

// AddBin folds a bin into the per-sample keys. Exceeding MaxBinCount panics with
// a *errors.CapacityExceededError.
func (c *Counter) AddBin(bin features.Bin) {
	c.checkSize(bin)
	if c.binCount+1 > MaxBinCount {
		panic(errors.NewCapacityExceededError(MaxBinCount))
	}
	c.binCount++

	for i, v := range bin {
		key := c.values[i] << 1
		if v {
			key |= 1
		}
		c.values[i] = key
	}
	c.lo, c.hi = minMax(c.values)
}

// Entropy returns the Shannon entropy, in bits, of the current keys.
func (c *Counter) Entropy() float64 {
	if len(c.values) == 0 {
		return 0
	}
	return countEntropy(len(c.values), c.lo, c.hi, func(add func(uint64)) {
		for _, key := range c.values {
			add(key)
		}
	})
}

// EntropyWithExtraBin returns the entropy the counter would have after AddBin(bin)
// without changing it.
func (c *Counter) EntropyWithExtraBin(bin features.Bin) float64 {
	c.checkSize(bin)
	if c.binCount+1 > MaxBinCount {
		panic(errors.NewCapacityExceededError(MaxBinCount))
	}
	if len(c.values) == 0 {
		return 0
	}
	return countEntropy(len(c.values), 2*c.lo, 2*c.hi+1, func(add func(uint64)) {
		for i, key := range c.values {
			key <<= 1
			if bin[i] {
				key |= 1
			}
			add(key)
		}
	})
}

func (c *Counter) checkSize(bin features.Bin) {
	if len(bin) != len(c.values) {
		panic(fmt.Sprintf("entropy: bin has %d values, counter has %d samples", len(bin), len(c.values)))
	}
}

// countEntropy picks the frequency counter once from the key range, feeds it
// every key and returns the entropy of the distribution.
func countEntropy(total int, lo, hi uint64, feed func(add func(uint64))) float64 {
	if span := hi - lo; span < denseRangeLimit && span < uint64(denseSpread*total)+1024 {
		counter := newDenseCounter(lo, hi)
		feed(counter.add)
		return counter.entropy(total)
	}
	counter := newMapCounter()
	feed(counter.add)
	return counter.entropy(total)
}

func minMax(values []uint64) (uint64, uint64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// denseCounter counts keys of a narrow range in a flat array.
type denseCounter struct {
	lo     uint64
	counts []uint32
}

func newDenseCounter(lo, hi uint64) *denseCounter {
	return &denseCounter{lo: lo, counts: make([]uint32, hi-lo+1)}
}

func (d *denseCounter) add(key uint64) {
	d.counts[key-d.lo]++
}

func (d *denseCounter) entropy(total int) float64 {
	var sum float64
	for _, count := range d.counts {
		if count > 0 {
			sum += term(int(count), total)
		}
	}
	return -sum / float64(total)
}

// mapCounter counts keys of a wide or sparse range.
type mapCounter struct {
	counts map[uint64]int
}

func newMapCounter() *mapCounter {
	return &mapCounter{counts: make(map[uint64]int)}
}

func (m *mapCounter) add(key uint64) {
	m.counts[key]++
}

// entropy sums in key order so the result does not depend on map iteration.
func (m *mapCounter) entropy(total int) float64 {
	keys := make([]uint64, 0, len(m.counts))
	for key := range m.counts {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	var sum float64
	for _, key := range keys {
		sum += term(m.counts[key], total)
	}
	return -sum / float64(total)
}

func term(count, total int) float64 {
	return float64(count) * math.Log2(float64(count)/float64(total))
}

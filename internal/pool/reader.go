// Package pool reads and writes the text formats of the command line tool:
// tab separated numeric pools, bin to feature maps and score reports.
package pool

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/gcbaptista/go-cmicot/internal/errors"
)

// DefaultLinesInBatch is the number of lines parsed by one worker at a time.
const DefaultLinesInBatch = 20000

const maxLineLength = 64 << 20

// Columns is a raw pool stored column by column. Every column has one value per line.
type Columns [][]float64

// ReadPool parses a tab separated pool with DefaultLinesInBatch lines per batch.
func ReadPool(r io.Reader, threadCount int) (Columns, error) {
	return ReadPoolBatched(r, DefaultLinesInBatch, threadCount)
}

// ReadPoolBatched parses a tab separated pool. Batches of linesInBatch lines are
// parsed concurrently by at most threadCount workers and then joined in order.
func ReadPoolBatched(r io.Reader, linesInBatch, threadCount int) (Columns, error) {
	if linesInBatch < 1 {
		return nil, errors.NewValidationError("lines_in_batch", "must be at least 1")
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	var g errgroup.Group
	if threadCount > 0 {
		g.SetLimit(threadCount)
	}

	var batches []*batch
	for lineNo := 1; ; {
		lines := make([]string, 0, min(linesInBatch, 1024))
		for len(lines) < linesInBatch && scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if len(lines) == 0 {
			break
		}

		b := &batch{lines: lines, firstLine: lineNo}
		lineNo += len(lines)
		batches = append(batches, b)
		g.Go(b.parse)
	}
	waitErr := g.Wait()
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pool: %w", err)
	}
	if waitErr != nil {
		return nil, waitErr
	}

	var result Columns
	for _, b := range batches {
		if result == nil {
			result = make(Columns, len(b.columns))
		}
		if len(b.columns) != len(result) {
			return nil, errors.NewParseError(b.firstLine, "",
				fmt.Sprintf("there are %d columns while in line 1 there are %d columns", len(b.columns), len(result)))
		}
		for c := range result {
			result[c] = append(result[c], b.columns[c]...)
		}
	}
	return result, nil
}

type batch struct {
	lines     []string
	firstLine int
	columns   Columns
}

func (b *batch) parse() error {
	for i, line := range b.lines {
		lineNo := b.firstLine + i
		tokens := strings.Split(strings.TrimSuffix(line, "\r"), "\t")

		if b.columns == nil {
			b.columns = make(Columns, len(tokens))
			for c := range b.columns {
				b.columns[c] = make([]float64, 0, len(b.lines))
			}
		} else if len(tokens) != len(b.columns) {
			return errors.NewParseError(lineNo, "",
				fmt.Sprintf("there are %d columns while in line %d there are %d columns", len(tokens), b.firstLine, len(b.columns)))
		}

		for c, token := range tokens {
			v, err := strconv.ParseFloat(token, 64)
			if err != nil {
				return errors.NewParseError(lineNo, token, "not a number")
			}
			b.columns[c] = append(b.columns[c], v)
		}
	}
	return nil
}

// ReadBinToFeatureMap parses "featureIndex binIndex" lines into a slice indexed by bin.
// Every bin from 0 to the largest one must appear exactly once and every feature
// from 0 to the largest one must own at least one bin.
func ReadBinToFeatureMap(r io.Reader) ([]int, error) {
	binToFeature := make(map[int]int)
	scanner := bufio.NewScanner(r)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, errors.NewParseError(lineNo, scanner.Text(), "expected a feature index and a bin index")
		}
		featureIndex, err := parseIndex(lineNo, fields[0])
		if err != nil {
			return nil, err
		}
		binIndex, err := parseIndex(lineNo, fields[1])
		if err != nil {
			return nil, err
		}

		if _, exists := binToFeature[binIndex]; exists {
			return nil, errors.NewBinMapError(binIndex, "shows up twice in the map")
		}
		binToFeature[binIndex] = featureIndex
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bin map: %w", err)
	}

	// Bins are distinct, so an index past the entry count leaves a hole below it.
	result := make([]int, len(binToFeature))
	featureCount := 0
	for binIndex := range result {
		f, ok := binToFeature[binIndex]
		if !ok {
			return nil, errors.NewBinMapError(binIndex, "isn't present in the map")
		}
		result[binIndex] = f
		featureCount = max(featureCount, f+1)
	}

	// n bins own at most n features, so the first unowned feature is below n.
	owned := make([]bool, len(result))
	for _, f := range result {
		if f < len(owned) {
			owned[f] = true
		}
	}
	for f := 0; f < min(featureCount, len(owned)); f++ {
		if !owned[f] {
			return nil, fmt.Errorf("%w: feature %d owns no bins", errors.ErrMalformedInput, f)
		}
	}
	return result, nil
}

func parseIndex(lineNo int, token string) (int, error) {
	v, err := strconv.Atoi(token)
	if err != nil || v < 0 {
		return 0, errors.NewParseError(lineNo, token, "not a non-negative integer")
	}
	return v, nil
}

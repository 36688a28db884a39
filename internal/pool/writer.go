package pool

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gcbaptista/go-cmicot/internal/binarize"
	"github.com/gcbaptista/go-cmicot/internal/errors"
	"github.com/gcbaptista/go-cmicot/internal/features"
	"github.com/gcbaptista/go-cmicot/internal/scoring"
)

// Format names one section of a scoring report.
type Format string

const (
	FormatFullResult    Format = "full"
	FormatUsedBins      Format = "usedBins"
	FormatScoreOnly     Format = "score"
	FormatPool          Format = "pool"
	FormatFeatureSizes  Format = "featureSizes"
	FormatBinFeatureMap Format = "binFeatureMap"
)

// Formats lists every report section.
var Formats = []Format{FormatFullResult, FormatUsedBins, FormatScoreOnly, FormatPool, FormatFeatureSizes, FormatBinFeatureMap}

// ParseFormat validates a report section name.
func ParseFormat(name string) (Format, error) {
	for _, f := range Formats {
		if string(f) == name {
			return f, nil
		}
	}
	return "", errors.NewValidationError("output", fmt.Sprintf("unknown output format '%s'", name))
}

// FormatScore renders a score with 8 digits after the point. The small offset
// keeps values computed as -0.00000000 from printing a sign.
func FormatScore(score float64) string {
	return strconv.FormatFloat(score+1e-9, 'f', 8, 64)
}

// WriteScore writes a single score line.
func WriteScore(w io.Writer, score float64) error {
	_, err := fmt.Fprintln(w, FormatScore(score))
	return err
}

// WritePool writes the binarized pool: the united label value, then 0/1 for every feature bin.
func WritePool(w io.Writer, label, fs *features.FeatureSet) error {
	labelValues, err := binarize.UniteLabelBins(label.AllBins())
	if err != nil {
		return fmt.Errorf("failed to write the label column: %w", err)
	}
	bw := bufio.NewWriter(w)
	bins := fs.AllBins()

	for line, value := range labelValues {
		bw.WriteString(strconv.FormatUint(value, 10))
		for _, bin := range bins {
			if bin[line] {
				bw.WriteString("\t1")
			} else {
				bw.WriteString("\t0")
			}
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteFeatureSizes writes "featureIndex<TAB>binCount" per feature.
func WriteFeatureSizes(w io.Writer, fs *features.FeatureSet) error {
	bw := bufio.NewWriter(w)
	for f, size := range fs.FeatureSizes() {
		fmt.Fprintf(bw, "%d\t%d\n", f, size)
	}
	return bw.Flush()
}

// WriteBinFeatureMap writes "featureIndex<TAB>binIndex" per bin, the format ReadBinToFeatureMap reads.
func WriteBinFeatureMap(w io.Writer, fs *features.FeatureSet) error {
	bw := bufio.NewWriter(w)
	for binIndex, f := range fs.BinFeatureMap() {
		fmt.Fprintf(bw, "%d\t%d\n", f, binIndex)
	}
	return bw.Flush()
}

// WriteUsedBins writes the maximize bins, the minimize bins and the score on one line.
func WriteUsedBins(w io.Writer, score scoring.BinScore) error {
	line := strings.Join([]string{
		joinInts(score.MaximizingBinIndexes()),
		joinInts(score.MinimizingBinIndexes()),
		FormatScore(score.Score),
	}, "\t")
	_, err := fmt.Fprintln(w, line)
	return err
}

// FormatBinScore renders every step of a bin score followed by the score.
func FormatBinScore(score scoring.BinScore) string {
	var sb strings.Builder
	for i, s := range score.MaximizingSteps {
		fmt.Fprintf(&sb, "max step %d, bin = %d, CMI = %s\n", i+1, s.BinIndex, FormatScore(s.CMI))
	}
	for i, s := range score.MinimizingSteps {
		fmt.Fprintf(&sb, "min step %d, bin = %d, CMI = %s\n", i+1, s.BinIndex, FormatScore(s.CMI))
	}
	sb.WriteString("score: ")
	sb.WriteString(FormatScore(score.Score))
	return sb.String()
}

// FormatFeatureScore renders every bin score of a feature followed by the feature score.
func FormatFeatureScore(score scoring.FeatureScore) string {
	var sb strings.Builder
	for i, bs := range score.BinScores {
		fmt.Fprintf(&sb, "Bin %d\n%s\n", i, FormatBinScore(bs))
	}
	sb.WriteString("Feature score: ")
	sb.WriteString(FormatScore(score.Score))
	return sb.String()
}

// FormatCMIMScore renders a CMIM score.
func FormatCMIMScore(score scoring.CMIMScore) string {
	return fmt.Sprintf("Minimizing feature index: %d\nFeature score: %s", score.MinimizingFeatureIndex, FormatScore(score.Score))
}

// Report holds what a scoring run can print.
type Report struct {
	Label    *features.FeatureSet
	Features *features.FeatureSet
	Feature  *scoring.FeatureScore
	CMIM     *scoring.CMIMScore
}

// WriteReport writes the requested sections in order. Without sections only the score is written.
func WriteReport(w io.Writer, formats []Format, report Report) error {
	if len(formats) == 0 {
		formats = []Format{FormatScoreOnly}
	}
	for _, format := range formats {
		if err := report.write(w, format); err != nil {
			return err
		}
	}
	return nil
}

func (r Report) write(w io.Writer, format Format) error {
	switch format {
	case FormatFullResult:
		switch {
		case r.Feature != nil:
			_, err := fmt.Fprintln(w, FormatFeatureScore(*r.Feature))
			return err
		case r.CMIM != nil:
			_, err := fmt.Fprintln(w, FormatCMIMScore(*r.CMIM))
			return err
		}
	case FormatUsedBins:
		if r.Feature == nil {
			return errors.NewValidationError("output", "used bins are only available for feature scores")
		}
		for _, bs := range r.Feature.BinScores {
			if err := WriteUsedBins(w, bs); err != nil {
				return err
			}
		}
		return nil
	case FormatScoreOnly:
		switch {
		case r.Feature != nil:
			return WriteScore(w, r.Feature.Score)
		case r.CMIM != nil:
			return WriteScore(w, r.CMIM.Score)
		}
	case FormatPool:
		return WritePool(w, r.Label, r.Features)
	case FormatFeatureSizes:
		return WriteFeatureSizes(w, r.Features)
	case FormatBinFeatureMap:
		return WriteBinFeatureMap(w, r.Features)
	default:
		return errors.NewValidationError("output", fmt.Sprintf("unknown output format '%s'", format))
	}
	return errors.NewValidationError("output", "there is no score to write")
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, "\t")
}

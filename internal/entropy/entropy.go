package entropy

import (
	"github.com/gcbaptista/go-cmicot/internal/errors"
	"github.com/gcbaptista/go-cmicot/internal/features"
)

// Flatten packs bins into one key per sample, first bin in the highest bit.
func Flatten(bins ...features.Bin) []uint64 {
	return flattenInto(nil, bins)
}

func flattenInto(values []uint64, bins []features.Bin) []uint64 {
	for _, bin := range bins {
		if values == nil {
			values = make([]uint64, len(bin))
		}
		for i := 0; i < len(values) && i < len(bin); i++ {
			values[i] <<= 1
			if bin[i] {
				values[i] |= 1
			}
		}
	}
	return values
}

// Entropy returns the Shannon entropy, in bits, of a sequence of keys.
func Entropy(values []uint64) float64 {
	if len(values) == 0 {
		return 0
	}
	lo, hi := minMax(values)
	return countEntropy(len(values), lo, hi, func(add func(uint64)) {
		for _, v := range values {
			add(v)
		}
	})
}

// BinsEntropy returns the joint entropy of a group of bins.
func BinsEntropy(bins ...features.Bin) float64 {
	checkCapacity(len(bins))
	return Entropy(Flatten(bins...))
}

// MutualInformation returns I(first; second).
func MutualInformation(first, second []features.Bin) float64 {
	return BinsEntropy(first...) + BinsEntropy(second...) - BinsEntropy(concat(first, second)...)
}

// ConditionalMutualInformation returns I(first; second | condition).
func ConditionalMutualInformation(first, second, condition []features.Bin) float64 {
	checkCapacity(len(first) + len(second) + len(condition))

	values := flattenInto(nil, condition)
	conditionEntropy := Entropy(values)
	conditionOnly := clone(values)

	values = flattenInto(values, first)
	firstConditionEntropy := Entropy(values)

	values = flattenInto(values, second)
	firstSecondConditionEntropy := Entropy(values)

	secondConditionEntropy := Entropy(flattenInto(conditionOnly, second))

	return firstConditionEntropy - conditionEntropy - firstSecondConditionEntropy + secondConditionEntropy
}

func checkCapacity(binCount int) {
	if binCount > MaxBinCount {
		panic(errors.NewCapacityExceededError(MaxBinCount))
	}
}

func concat(a, b []features.Bin) []features.Bin {
	result := make([]features.Bin, 0, len(a)+len(b))
	result = append(result, a...)
	return append(result, b...)
}

func clone(values []uint64) []uint64 {
	if values == nil {
		return nil
	}
	result := make([]uint64, len(values))
	copy(result, values)
	return result
}

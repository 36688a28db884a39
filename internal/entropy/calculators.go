package entropy

import (
	"github.com/gcbaptista/go-cmicot/internal/features"
)

// CMICalculator tracks I(A; B | C) while bins are added to the first variable A,
// the second variable B and the condition C:
//
//	I(A; B | C) = H(A,C) - H(C) - H(A,B,C) + H(B,C)
//
// Value methods are read-only and safe for concurrent use. Clone to branch off
// an independent conditioning path.
type CMICalculator struct {
	firstCondition       *Counter
	condition            *Counter
	firstSecondCondition *Counter
	secondCondition      *Counter
}

// NewCMICalculator creates a calculator with empty variables.
func NewCMICalculator(sampleCount int) *CMICalculator {
	return &CMICalculator{
		firstCondition:       NewCounter(sampleCount),
		condition:            NewCounter(sampleCount),
		firstSecondCondition: NewCounter(sampleCount),
		secondCondition:      NewCounter(sampleCount),
	}
}

// Clone duplicates all four counters.
func (c *CMICalculator) Clone() *CMICalculator {
	return &CMICalculator{
		firstCondition:       c.firstCondition.Clone(),
		condition:            c.condition.Clone(),
		firstSecondCondition: c.firstSecondCondition.Clone(),
		secondCondition:      c.secondCondition.Clone(),
	}
}

// AddFirstVariableBin adds a bin to A.
func (c *CMICalculator) AddFirstVariableBin(bin features.Bin) {
	c.firstCondition.AddBin(bin)
	c.firstSecondCondition.AddBin(bin)
}

// AddSecondVariableBin adds a bin to B.
func (c *CMICalculator) AddSecondVariableBin(bin features.Bin) {
	c.secondCondition.AddBin(bin)
	c.firstSecondCondition.AddBin(bin)
}

// AddConditionBin adds a bin to C.
func (c *CMICalculator) AddConditionBin(bin features.Bin) {
	c.firstCondition.AddBin(bin)
	c.condition.AddBin(bin)
	c.firstSecondCondition.AddBin(bin)
	c.secondCondition.AddBin(bin)
}

// ValueWithConditionBin returns the CMI as if bin had been added to C.
func (c *CMICalculator) ValueWithConditionBin(bin features.Bin) float64 {
	return c.firstCondition.EntropyWithExtraBin(bin) -
		c.condition.EntropyWithExtraBin(bin) -
		c.firstSecondCondition.EntropyWithExtraBin(bin) +
		c.secondCondition.EntropyWithExtraBin(bin)
}

// Value returns the CMI for the bins added so far.
func (c *CMICalculator) Value() float64 {
	return c.firstCondition.Entropy() -
		c.condition.Entropy() -
		c.firstSecondCondition.Entropy() +
		c.secondCondition.Entropy()
}

// MutualInformationCalculator evaluates I(A; B) for a fixed A against many
// candidate single-bin B without mutating.
type MutualInformationCalculator struct {
	first        *Counter
	firstEntropy float64
}

// NewMutualInformationCalculator creates a calculator with an empty first variable.
func NewMutualInformationCalculator(sampleCount int) *MutualInformationCalculator {
	return &MutualInformationCalculator{first: NewCounter(sampleCount)}
}

// AddFirstVariableBin adds a bin to A.
func (m *MutualInformationCalculator) AddFirstVariableBin(bin features.Bin) {
	m.first.AddBin(bin)
	m.firstEntropy = m.first.Entropy()
}

// ValueWithSecondVariableBin returns I(A; bin).
func (m *MutualInformationCalculator) ValueWithSecondVariableBin(bin features.Bin) float64 {
	return m.firstEntropy + BinsEntropy(bin) - m.first.EntropyWithExtraBin(bin)
}

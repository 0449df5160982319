package transforms

import (
	"math"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Normalize standardizes values: out = (in - Mean) / Std.
//
// With one value in Mean and Std the whole image is normalized; with C
// values each channel (last axis) uses its own mean and std.
type Normalize struct {
	Mean []float64
	Std  []float64
}

// NewNormalize creates a Normalize transform.
//
// Arguments:
// - mean: One value, or one value per channel.
// - std: Same length as mean. Every value must be finite and non-zero.
//
// Returns:
// - *Normalize: The transform.
// - error: ErrInvalidParameter on empty or mismatched vectors or a zero std.
func NewNormalize(mean, std []float64) (*Normalize, error) {
	n := &Normalize{
		Mean: append([]float64(nil), mean...),
		Std:  append([]float64(nil), std...),
	}
	if err := n.validate(); err != nil {
		return nil, err
	}
	return n, nil
}

// NewScalarNormalize creates a Normalize that uses the same mean and std for every value.
func NewScalarNormalize(mean, std float64) (*Normalize, error) {
	return NewNormalize([]float64{mean}, []float64{std})
}

func (n *Normalize) validate() error {
	if len(n.Mean) == 0 {
		return errors.Wrap(ErrInvalidParameter, "normalize needs at least one mean")
	}
	if len(n.Mean) != len(n.Std) {
		return errors.Wrapf(ErrInvalidParameter, "normalize has %d means but %d stds", len(n.Mean), len(n.Std))
	}
	for c := range n.Std {
		if math.IsNaN(n.Mean[c]) || math.IsInf(n.Mean[c], 0) {
			return errors.Wrapf(ErrInvalidParameter, "mean[%d]=%v is not finite", c, n.Mean[c])
		}
		if n.Std[c] == 0 || math.IsNaN(n.Std[c]) || math.IsInf(n.Std[c], 0) {
			return errors.Wrapf(ErrInvalidParameter, "std[%d]=%v must be finite and non-zero", c, n.Std[c])
		}
	}
	return nil
}

// Apply normalizes img. Per-channel parameters require the last axis of img
// to have exactly len(Mean) entries.
func (n *Normalize) Apply(img *tensor.Dense) (*tensor.Dense, error) {
	if err := n.validate(); err != nil {
		return nil, err
	}
	if len(n.Mean) == 1 {
		mean, std := n.Mean[0], n.Std[0]
		return mapValues(img, func(_ int, v float64) float64 {
			return (v - mean) / std
		})
	}

	if img == nil {
		return nil, errors.Wrap(ErrInvalidParameter, "nil image")
	}
	shape := img.Shape()
	if len(shape) < 3 || shape[len(shape)-1] != len(n.Mean) {
		return nil, errors.Wrapf(ErrInvalidParameter,
			"per-channel normalize with %d channels cannot apply to shape %v", len(n.Mean), shape)
	}
	channels := len(n.Mean)
	return mapValues(img, func(i int, v float64) float64 {
		c := i % channels
		return (v - n.Mean[c]) / n.Std[c]
	})
}

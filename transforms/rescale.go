package transforms

import (
	"math"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Rescale maps values linearly from one range to another:
//
//	out = (in - Old.Min) / (Old.Max - Old.Min) * (New.Max - New.Min) + New.Min
type Rescale struct {
	// New is the target range.
	New Range
	// Old is the range of the input values.
	Old Range
}

// NewRescale creates a Rescale from oldRange to newRange.
//
// Arguments:
// - newRange: The value range images are mapped to, e.g. UnitRange.
// - oldRange: The value range of the input, e.g. DefaultRange for raw pixels.
//
// Returns:
// - *Rescale: The transform.
// - error: ErrInvalidParameter if oldRange has zero width or a bound is not finite.
func NewRescale(newRange, oldRange Range) (*Rescale, error) {
	r := &Rescale{New: newRange, Old: oldRange}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Rescale) validate() error {
	for _, v := range []float64{r.New.Min, r.New.Max, r.Old.Min, r.Old.Max} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Wrapf(ErrInvalidParameter, "rescale bound %v is not finite", v)
		}
	}
	if r.Old.Width() == 0 {
		return errors.Wrapf(ErrInvalidParameter, "rescale source range [%v, %v] has zero width", r.Old.Min, r.Old.Max)
	}
	return nil
}

// Apply rescales every element of img.
func (r *Rescale) Apply(img *tensor.Dense) (*tensor.Dense, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	scale := r.New.Width() / r.Old.Width()
	return mapValues(img, func(_ int, v float64) float64 {
		return (v-r.Old.Min)*scale + r.New.Min
	})
}

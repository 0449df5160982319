// Package transforms provides composable image transforms applied to
// float64 tensors of shape [H, W, C] (or [H, W] for single-channel images).
//
// Transforms never modify their input; each Apply returns a new tensor of
// the same shape.
package transforms

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// ErrInvalidParameter is returned when a transform is built with degenerate
// parameters or applied to an input it cannot handle.
var ErrInvalidParameter = errors.New("invalid transform parameter")

// Transform maps one image tensor to another.
type Transform interface {
	Apply(img *tensor.Dense) (*tensor.Dense, error)
}

// Func adapts a function to the Transform interface.
type Func func(img *tensor.Dense) (*tensor.Dense, error)

// Apply calls f(img).
func (f Func) Apply(img *tensor.Dense) (*tensor.Dense, error) {
	return f(img)
}

// Range is a closed value range.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// DefaultRange is the native value range of 8-bit encoded images.
var DefaultRange = Range{Min: 0, Max: 255}

// UnitRange is the [0, 1] range.
var UnitRange = Range{Min: 0, Max: 1}

// Width returns Max - Min.
func (r Range) Width() float64 {
	return r.Max - r.Min
}

// float64Data returns the backing slice of a float64 tensor.
func float64Data(img *tensor.Dense) ([]float64, error) {
	if img == nil {
		return nil, errors.Wrap(ErrInvalidParameter, "nil image")
	}
	data, ok := img.Data().([]float64)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidParameter, "expected float64 image, got %v", img.Dtype())
	}
	return data, nil
}

// mapValues returns a new tensor with the shape of img and values fn(i, v).
func mapValues(img *tensor.Dense, fn func(i int, v float64) float64) (*tensor.Dense, error) {
	data, err := float64Data(img)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = fn(i, v)
	}
	return tensor.New(tensor.WithShape(img.Shape().Clone()...), tensor.WithBacking(out)), nil
}

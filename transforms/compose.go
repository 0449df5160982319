package transforms

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Compose applies its transforms in order, feeding each output to the next.
// An empty Compose returns its input unchanged.
type Compose []Transform

// NewCompose creates a Compose from the given transforms, dropping nil ones.
func NewCompose(ts ...Transform) Compose {
	out := make(Compose, 0, len(ts))
	for _, t := range ts {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

// Apply runs every transform in sequence.
func (c Compose) Apply(img *tensor.Dense) (*tensor.Dense, error) {
	out := img
	for i, t := range c {
		if t == nil {
			continue
		}
		var err error
		out, err = t.Apply(out)
		if err != nil {
			return nil, errors.Wrapf(err, "transform %d (%T)", i, t)
		}
	}
	return out, nil
}

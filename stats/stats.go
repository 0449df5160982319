// Package stats computes per-channel statistics over batches of images,
// typically to derive the parameters of a Normalize transform.
package stats

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
	"gorgonia.org/tensor"
)

// ComputeMeanStd returns the per-channel mean and population standard
// deviation of a batch of images of shape [N, H, W, C].
//
// For channel c, mean[c] and std[c] are computed over all N*H*W values at
// that channel. The standard deviation divides by the count, not count-1.
//
// Arguments:
// - batch: float64 tensor of shape [N, H, W, C]; see Stack.
//
// Returns:
// - mean: Per-channel means, length C.
// - std: Per-channel standard deviations, length C.
// - error: Error if batch is not a non-empty rank-4 float64 tensor.
func ComputeMeanStd(batch *tensor.Dense) (mean, std []float64, err error) {
	if batch == nil {
		return nil, nil, errors.New("batch is nil")
	}
	shape := batch.Shape()
	if len(shape) != 4 {
		return nil, nil, errors.Errorf("expected batch of shape [N, H, W, C], got %v", shape)
	}
	data, ok := batch.Data().([]float64)
	if !ok {
		return nil, nil, errors.Errorf("expected float64 batch, got %v", batch.Dtype())
	}
	channels := shape[3]
	if channels == 0 || len(data) == 0 {
		return nil, nil, errors.Errorf("batch of shape %v is empty", shape)
	}

	count := len(data) / channels
	values := make([]float64, count)
	mean = make([]float64, channels)
	std = make([]float64, channels)
	for c := 0; c < channels; c++ {
		for i := 0; i < count; i++ {
			values[i] = data[i*channels+c]
		}
		mean[c], std[c] = stat.PopMeanStdDev(values, nil)
	}
	return mean, std, nil
}

// Stack combines images of identical shape into a batch of shape
// [N, H, W, C]. Rank-2 images are treated as [H, W, 1]. No resizing is
// performed; differing shapes are an error.
//
// Arguments:
// - images: float64 tensors of shape [H, W, C] or [H, W].
//
// Returns:
// - *tensor.Dense: The batch.
// - error: Error if images is empty or the shapes differ.
func Stack(images []*tensor.Dense) (*tensor.Dense, error) {
	if len(images) == 0 {
		return nil, errors.New("no images to stack")
	}

	var want []int
	var backing []float64
	for i, img := range images {
		if img == nil {
			return nil, errors.Errorf("image %d is nil", i)
		}
		shape, err := hwc(img.Shape())
		if err != nil {
			return nil, errors.Wrapf(err, "image %d", i)
		}
		data, ok := img.Data().([]float64)
		if !ok {
			return nil, errors.Errorf("image %d: expected float64, got %v", i, img.Dtype())
		}
		if want == nil {
			want = shape
			backing = make([]float64, 0, len(images)*len(data))
		} else if !equalShape(want, shape) {
			return nil, errors.Errorf("image %d has shape %v, expected %v", i, shape, want)
		}
		backing = append(backing, data...)
	}

	return tensor.New(tensor.WithShape(len(images), want[0], want[1], want[2]), tensor.WithBacking(backing)), nil
}

func hwc(shape tensor.Shape) ([]int, error) {
	switch len(shape) {
	case 2:
		return []int{shape[0], shape[1], 1}, nil
	case 3:
		return []int{shape[0], shape[1], shape[2]}, nil
	}
	return nil, errors.Errorf("expected shape [H, W, C] or [H, W], got %v", shape)
}

func equalShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

package images

import (
	"image"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// ResampleFilter names the interpolation used when resizing at load time.
type ResampleFilter string

// ResampleFilter constants.
const (
	FilterNearest  ResampleFilter = "nearest"
	FilterBilinear ResampleFilter = "bilinear"
	FilterBicubic  ResampleFilter = "bicubic"
	FilterMitchell ResampleFilter = "mitchell"
	FilterLanczos2 ResampleFilter = "lanczos2"
	FilterLanczos3 ResampleFilter = "lanczos3"
)

var interpolations = map[ResampleFilter]resize.InterpolationFunction{
	FilterNearest:  resize.NearestNeighbor,
	FilterBilinear: resize.Bilinear,
	FilterBicubic:  resize.Bicubic,
	FilterMitchell: resize.MitchellNetravali,
	FilterLanczos2: resize.Lanczos2,
	FilterLanczos3: resize.Lanczos3,
}

// ParseFilter validates a filter name. An empty name selects Lanczos3.
func ParseFilter(name string) (ResampleFilter, error) {
	if name == "" {
		return FilterLanczos3, nil
	}
	filter := ResampleFilter(name)
	if _, ok := interpolations[filter]; !ok {
		return "", errors.Errorf("unknown resample filter %q", name)
	}
	return filter, nil
}

// LoadOptions controls the geometry of a decoded image before it becomes a tensor.
type LoadOptions struct {
	// CenterCrop crops a rectangle of this size around the image center.
	// A zero point disables cropping.
	CenterCrop image.Point
	// Resize scales the (cropped) image to this size. If one dimension is
	// zero the aspect ratio is preserved; a zero point disables resizing.
	Resize image.Point
	// Filter is the resampling filter used by Resize (default Lanczos3).
	Filter ResampleFilter
}

// Validate checks that the options are usable.
func (o LoadOptions) Validate() error {
	if o.CenterCrop.X < 0 || o.CenterCrop.Y < 0 {
		return errors.Errorf("invalid center crop: %dx%d", o.CenterCrop.X, o.CenterCrop.Y)
	}
	if (o.CenterCrop.X == 0) != (o.CenterCrop.Y == 0) {
		return errors.Errorf("center crop needs both dimensions: %dx%d", o.CenterCrop.X, o.CenterCrop.Y)
	}
	if o.Resize.X < 0 || o.Resize.Y < 0 {
		return errors.Errorf("invalid resize dimensions: %dx%d", o.Resize.X, o.Resize.Y)
	}
	if _, err := ParseFilter(string(o.Filter)); err != nil {
		return err
	}
	return nil
}

func (o LoadOptions) empty() bool {
	return o.CenterCrop == (image.Point{}) && o.Resize == (image.Point{})
}

// Prepare applies the center crop and then the resize configured in opts.
//
// Grayscale sources stay grayscale. Paletted sources that are cropped or
// resized come back as color images.
//
// Arguments:
// - img: The decoded image.
// - opts: The geometry to apply.
//
// Returns:
// - image.Image: The prepared image, img itself when opts is empty.
// - error: Error if the options are invalid.
func Prepare(img image.Image, opts LoadOptions) (image.Image, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if opts.empty() {
		return img, nil
	}

	out := img
	if opts.CenterCrop != (image.Point{}) {
		out = cropCenter(out, opts.CenterCrop.X, opts.CenterCrop.Y)
	}
	if opts.Resize != (image.Point{}) {
		filter, _ := ParseFilter(string(opts.Filter))
		out = resize.Resize(uint(opts.Resize.X), uint(opts.Resize.Y), out, interpolations[filter])
	}
	return keepGray(img, out), nil
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// cropCenter crops a width x height rectangle around the center of img.
// 16-bit images are cropped in place because imaging always returns 8-bit
// NRGBA.
func cropCenter(img image.Image, width, height int) image.Image {
	if sub, ok := img.(subImager); ok && is16Bit(img) {
		b := img.Bounds()
		x0 := b.Min.X + (b.Dx()-width)/2
		y0 := b.Min.Y + (b.Dy()-height)/2
		return sub.SubImage(image.Rect(x0, y0, x0+width, y0+height).Intersect(b))
	}
	return imaging.CropCenter(img, width, height)
}

// keepGray converts dst back to the single-channel model of src when the
// crop or resize step returned a color image.
func keepGray(src, dst image.Image) image.Image {
	switch src.(type) {
	case *image.Gray:
		if _, ok := dst.(*image.Gray); ok {
			return dst
		}
		gray := image.NewGray(image.Rect(0, 0, dst.Bounds().Dx(), dst.Bounds().Dy()))
		draw.Draw(gray, gray.Bounds(), dst, dst.Bounds().Min, draw.Src)
		return gray
	case *image.Gray16:
		if _, ok := dst.(*image.Gray16); ok {
			return dst
		}
		gray := image.NewGray16(image.Rect(0, 0, dst.Bounds().Dx(), dst.Bounds().Dy()))
		draw.Draw(gray, gray.Bounds(), dst, dst.Bounds().Min, draw.Src)
		return gray
	}
	return dst
}

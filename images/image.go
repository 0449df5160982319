// Package images decodes image files into float64 tensors laid out as
// height x width x channels.
package images

import (
	"bytes"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"gorgonia.org/tensor"
	"k8s.io/klog/v2"

	"github.com/nvr-ai/go-imagefolder/util"
)

// Load reads and decodes the image stored at path.
//
// Arguments:
// - fs: Filesystem to read from.
// - path: Path to the image file.
// - opts: Load-time crop and resize applied before conversion.
//
// Returns:
// - *tensor.Dense: float64 tensor of shape [H, W, C], or [H, W] for single-channel images.
// - error: Error if the file cannot be read or decoded.
func Load(fs afero.Fs, path string, opts LoadOptions) (*tensor.Dense, error) {
	file, err := util.ReadImageFile(fs, path)
	if err != nil {
		return nil, err
	}

	t, format, err := Decode(file.Data, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %q", path)
	}

	klog.V(2).Infof("loaded %s (%s) shape=%v", path, format, t.Shape())
	return t, nil
}

// Decode decodes encoded image bytes into a tensor.
//
// Values stay in the native range of the encoding (0-255 for 8-bit images,
// 0-65535 for 16-bit ones). The layout follows the pixel type the codec
// returns, never the pixel values: gray and paletted images produce [H, W]
// tensors (paletted pixels are palette indices), RGB and YCbCr images produce
// 3 channels, images stored with an alpha channel produce 4 non-premultiplied
// RGBA channels, and CMYK images keep their 4 stored channels.
//
// Arguments:
// - data: Encoded image bytes.
// - opts: Load-time crop and resize applied before conversion.
//
// Returns:
// - *tensor.Dense: The decoded image.
// - ImageFormat: The format reported by the decoder.
// - error: Error if the data cannot be decoded.
func Decode(data []byte, opts LoadOptions) (*tensor.Dense, ImageFormat, error) {
	if len(data) == 0 {
		return nil, "", errors.New("image data is empty")
	}

	decoded, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", errors.Wrap(err, "image decoding failed")
	}

	prepared, err := Prepare(decoded, opts)
	if err != nil {
		return nil, "", err
	}

	l := layoutOf(decoded)
	if p, ok := decoded.(*image.Paletted); ok && !opts.empty() {
		l = paletteLayout(p.Palette)
	}

	return toTensor(prepared, l, is16Bit(decoded)), ImageFormat(format), nil
}

// ToTensor converts an image.Image into a float64 tensor using the layout
// described in Decode.
func ToTensor(img image.Image) *tensor.Dense {
	return toTensor(img, layoutOf(img), is16Bit(img))
}

// layout is the tensor arrangement chosen for a decoded pixel type.
type layout int

const (
	layoutPlane layout = iota
	layoutRGB
	layoutRGBA
	layoutCMYK
)

func (l layout) channels() int {
	switch l {
	case layoutPlane:
		return 1
	case layoutRGB:
		return 3
	}
	return 4
}

// layoutOf maps the concrete types returned by the registered decoders to a
// layout. Premultiplied RGBA types come from sources without an alpha
// channel; the non-premultiplied types carry the stored alpha.
func layoutOf(img image.Image) layout {
	switch img.(type) {
	case *image.Gray, *image.Gray16, *image.Paletted:
		return layoutPlane
	case *image.RGBA, *image.RGBA64, *image.YCbCr:
		return layoutRGB
	case *image.CMYK:
		return layoutCMYK
	}
	return layoutRGBA
}

// paletteLayout is the color layout of a paletted image once it is resampled.
func paletteLayout(palette color.Palette) layout {
	for _, c := range palette {
		if _, _, _, a := c.RGBA(); a != 0xffff {
			return layoutRGBA
		}
	}
	return layoutRGB
}

func toTensor(img image.Image, l layout, sixteen bool) *tensor.Dense {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if l == layoutPlane {
		switch src := img.(type) {
		case *image.Gray16:
			return plane(width, height, func(x, y int) float64 {
				return float64(src.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y)
			})
		case *image.Paletted:
			return plane(width, height, func(x, y int) float64 {
				return float64(src.ColorIndexAt(bounds.Min.X+x, bounds.Min.Y+y))
			})
		}
		return plane(width, height, func(x, y int) float64 {
			c := img.At(bounds.Min.X+x, bounds.Min.Y+y)
			if sixteen {
				return float64(color.Gray16Model.Convert(c).(color.Gray16).Y)
			}
			return float64(color.GrayModel.Convert(c).(color.Gray).Y)
		})
	}

	channels := l.channels()
	data := make([]float64, 0, width*height*channels)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			px := img.At(bounds.Min.X+x, bounds.Min.Y+y)
			if l == layoutCMYK {
				c := color.CMYKModel.Convert(px).(color.CMYK)
				data = append(data, float64(c.C), float64(c.M), float64(c.Y), float64(c.K))
				continue
			}

			var r, g, b, a float64
			if sixteen {
				c := color.NRGBA64Model.Convert(px).(color.NRGBA64)
				r, g, b, a = float64(c.R), float64(c.G), float64(c.B), float64(c.A)
			} else {
				c := color.NRGBAModel.Convert(px).(color.NRGBA)
				r, g, b, a = float64(c.R), float64(c.G), float64(c.B), float64(c.A)
			}
			data = append(data, r, g, b)
			if l == layoutRGBA {
				data = append(data, a)
			}
		}
	}

	return tensor.New(tensor.WithShape(height, width, channels), tensor.WithBacking(data))
}

func plane(width, height int, at func(x, y int) float64) *tensor.Dense {
	data := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			data[y*width+x] = at(x, y)
		}
	}
	return tensor.New(tensor.WithShape(height, width), tensor.WithBacking(data))
}

func is16Bit(img image.Image) bool {
	switch img.(type) {
	case *image.Gray16, *image.RGBA64, *image.NRGBA64:
		return true
	}
	return false
}

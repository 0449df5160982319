// Package dataset builds an indexed image classification dataset from a
// directory tree of the form root/<class>/<image>.
//
// The index is built once, eagerly, when the dataset is created and is
// immutable afterwards. Images are read and decoded on every Get; nothing
// is cached. An ImageFolder is safe for concurrent Get calls.
package dataset

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gorgonia.org/tensor"
	"k8s.io/klog/v2"

	"github.com/nvr-ai/go-imagefolder/images"
	"github.com/nvr-ai/go-imagefolder/transforms"
)

// NewImageFolderArgs configures NewImageFolder.
type NewImageFolderArgs struct {
	// Root is the dataset root directory. Required.
	Root string
	// Fs is the filesystem holding the dataset; defaults to the OS filesystem.
	Fs afero.Fs
	// Transform is applied to every loaded image; nil means none.
	Transform transforms.Transform
	// Extensions optionally restricts which files are samples, e.g. []string{".png"}.
	Extensions []string
	// Load configures load-time crop and resize.
	Load images.LoadOptions
}

// Item is one loaded sample.
type Item struct {
	// Image is the decoded, possibly transformed, image.
	Image *tensor.Dense
	// Label is the class label of the image.
	Label int
	// Path is the file the image was loaded from.
	Path string
}

// ImageFolder represents a dataset loaded from a directory structure where
// each subdirectory is a class.
type ImageFolder struct {
	fs         afero.Fs
	root       string
	classes    []string
	classToIdx map[string]int
	samples    []Sample
	transform  transforms.Transform
	load       images.LoadOptions
}

// NewImageFolder scans args.Root and builds the dataset index.
//
// Arguments:
// - args: The dataset configuration.
//
// Returns:
// - *ImageFolder: The dataset.
// - error: ErrInvalidPath or ErrIO if the directory tree cannot be indexed, or an
// error if the load options are invalid.
//
// @example
//
//	ds, err := dataset.NewImageFolder(dataset.NewImageFolderArgs{Root: "data/train"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	item, err := ds.Get(0)
func NewImageFolder(args NewImageFolderArgs) (*ImageFolder, error) {
	if args.Root == "" {
		return nil, kindError(ErrInvalidPath, errors.New("dataset root is empty"))
	}
	if err := args.Load.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid load options")
	}
	fs := args.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	classes, classToIdx, err := FindClasses(fs, args.Root)
	if err != nil {
		return nil, err
	}
	samples, err := makeSamples(fs, args.Root, classToIdx, args.Extensions)
	if err != nil {
		return nil, err
	}

	klog.V(1).Infof("indexed %d samples in %d classes under %s", len(samples), len(classes), args.Root)
	return &ImageFolder{
		fs:         fs,
		root:       args.Root,
		classes:    classes,
		classToIdx: classToIdx,
		samples:    samples,
		transform:  args.Transform,
		load:       args.Load,
	}, nil
}

// Root returns the dataset root directory.
func (d *ImageFolder) Root() string {
	return d.root
}

// Len returns the number of samples in the dataset.
func (d *ImageFolder) Len() int {
	return len(d.samples)
}

// Sample returns the index entry at the given position without loading it.
func (d *ImageFolder) Sample(index int) (Sample, error) {
	if index < 0 || index >= len(d.samples) {
		return Sample{}, errors.Wrapf(ErrIndexOutOfRange, "index %d not in [0, %d)", index, len(d.samples))
	}
	return d.samples[index], nil
}

// Get loads the image at the given index, applies the transform and returns
// it with its label. Every call reads and decodes the file again.
//
// Arguments:
// - index: Position in [0, Len()).
//
// Returns:
// - *Item: The image and its label.
// - error: ErrIndexOutOfRange, ErrIO if the file cannot be read or decoded, or the transform error.
func (d *ImageFolder) Get(index int) (*Item, error) {
	sample, err := d.Sample(index)
	if err != nil {
		return nil, err
	}

	img, err := images.Load(d.fs, sample.Path, d.load)
	if err != nil {
		return nil, kindError(ErrIO, err)
	}

	if d.transform != nil {
		img, err = d.transform.Apply(img)
		if err != nil {
			return nil, errors.Wrapf(err, "transform %q", sample.Path)
		}
	}

	return &Item{Image: img, Label: sample.Label, Path: sample.Path}, nil
}

// Images returns the paths of all samples, in index order.
func (d *ImageFolder) Images() []string {
	out := make([]string, len(d.samples))
	for i, s := range d.samples {
		out[i] = s.Path
	}
	return out
}

// Labels returns the labels of all samples, in index order.
func (d *ImageFolder) Labels() []int {
	out := make([]int, len(d.samples))
	for i, s := range d.samples {
		out[i] = s.Label
	}
	return out
}

// Classes returns the sorted class names; the label of a class is its position.
func (d *ImageFolder) Classes() []string {
	return append([]string(nil), d.classes...)
}

// ClassToIdx returns a copy of the class name to label mapping.
func (d *ImageFolder) ClassToIdx() map[string]int {
	out := make(map[string]int, len(d.classToIdx))
	for k, v := range d.classToIdx {
		out[k] = v
	}
	return out
}

// NumClasses returns the number of classes.
func (d *ImageFolder) NumClasses() int {
	return len(d.classes)
}

// ClassDistribution returns the number of samples per class. Classes with
// no samples are present with a zero count.
func (d *ImageFolder) ClassDistribution() map[string]int {
	dist := make(map[string]int, len(d.classes))
	for _, class := range d.classes {
		dist[class] = 0
	}
	for _, s := range d.samples {
		dist[d.classes[s.Label]]++
	}
	return dist
}

// TotalBytes returns the summed file size of all samples.
func (d *ImageFolder) TotalBytes() int64 {
	var total int64
	for _, s := range d.samples {
		total += s.Size
	}
	return total
}

// String returns a summary of the dataset.
func (d *ImageFolder) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("ImageFolder %s: %s samples, %d classes, %s\n",
		d.root, humanize.Comma(int64(len(d.samples))), len(d.classes), humanize.Bytes(uint64(d.TotalBytes()))))
	sb.WriteString("Class distribution:\n")

	dist := d.ClassDistribution()
	for i, class := range d.classes {
		sb.WriteString(fmt.Sprintf("  [%d] %s: %d samples\n", i, class, dist[class]))
	}
	return sb.String()
}

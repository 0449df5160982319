package dataset

import (
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"k8s.io/klog/v2"

	"github.com/nvr-ai/go-imagefolder/util"
)

// Sample is one entry of the dataset index.
type Sample struct {
	// Path is the full path to the image file.
	Path string `json:"path" yaml:"path"`
	// Label is the class label of the image.
	Label int `json:"label" yaml:"label"`
	// Size is the file size in bytes reported by the directory listing.
	Size int64 `json:"size" yaml:"size"`
}

// MakeDataset builds the image index of a dataset.
//
// Classes are visited in ascending name order and, within each class, files
// in ascending name order, so the index is sorted class-major and
// file-name-minor. Sub-directories of a class directory are skipped.
//
// Arguments:
// - fs: Filesystem holding the dataset.
// - root: Root directory of the dataset.
// - classToIdx: Maps class names to labels, as returned by FindClasses.
// - extensions: Optional case-insensitive extension filter; empty accepts every file.
//
// Returns:
// - images: Paths to all images in the dataset.
// - labels: One label per image; labels[i] belongs to images[i].
// - error: ErrInvalidPath if a class directory is missing, ErrIO if one cannot be listed.
func MakeDataset(fs afero.Fs, root string, classToIdx map[string]int, extensions []string) ([]string, []int, error) {
	samples, err := makeSamples(fs, root, classToIdx, extensions)
	if err != nil {
		return nil, nil, err
	}

	images := make([]string, len(samples))
	labels := make([]int, len(samples))
	for i, s := range samples {
		images[i] = s.Path
		labels[i] = s.Label
	}
	return images, labels, nil
}

func makeSamples(fs afero.Fs, root string, classToIdx map[string]int, extensions []string) ([]Sample, error) {
	var samples []Sample
	for _, class := range sortedClasses(classToIdx) {
		dir := filepath.Join(root, class)
		isDir, err := util.IsDir(fs, dir)
		if err != nil {
			return nil, dirError(dir, err)
		}
		if !isDir {
			return nil, kindError(ErrInvalidPath, errors.Errorf("class %q is not a directory", dir))
		}

		entries, err := util.ReadDirSorted(fs, dir)
		if err != nil {
			return nil, dirError(dir, err)
		}

		label := classToIdx[class]
		before := len(samples)
		for _, entry := range entries {
			if entry.IsDir || !util.HasExtension(entry.Name, extensions) {
				continue
			}
			samples = append(samples, Sample{
				Path:  filepath.Join(dir, entry.Name),
				Label: label,
				Size:  entry.Size,
			})
		}
		klog.V(2).Infof("class %q (label %d): %d samples", class, label, len(samples)-before)
	}
	return samples, nil
}

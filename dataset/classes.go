package dataset

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"k8s.io/klog/v2"

	"github.com/nvr-ai/go-imagefolder/util"
)

// FindClasses finds the class folders of a dataset.
//
// Every immediate sub-directory of root is a class. Names are sorted in
// ascending byte order and each class is labeled with its rank. Files
// directly under root are ignored.
//
// Arguments:
// - fs: Filesystem holding the dataset.
// - root: Root directory of the dataset.
//
// Returns:
// - classes: The sorted class names.
// - classToIdx: Maps each class name to its label in [0, len(classes)).
// - error: ErrInvalidPath if root is missing or not a directory, ErrIO if it cannot be listed.
func FindClasses(fs afero.Fs, root string) ([]string, map[string]int, error) {
	isDir, err := util.IsDir(fs, root)
	if err != nil {
		return nil, nil, dirError(root, err)
	}
	if !isDir {
		return nil, nil, kindError(ErrInvalidPath, errors.Errorf("%q is not a directory", root))
	}

	entries, err := util.ReadDirSorted(fs, root)
	if err != nil {
		return nil, nil, dirError(root, err)
	}

	classes := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir {
			classes = append(classes, entry.Name)
		}
	}

	classToIdx := make(map[string]int, len(classes))
	for i, name := range classes {
		classToIdx[name] = i
	}

	klog.V(1).Infof("found %d classes in %s", len(classes), root)
	return classes, classToIdx, nil
}

// sortedClasses returns the keys of classToIdx in the order FindClasses produces them.
func sortedClasses(classToIdx map[string]int) []string {
	classes := make([]string, 0, len(classToIdx))
	for name := range classToIdx {
		classes = append(classes, name)
	}
	sort.Strings(classes)
	return classes
}

// Command imagefolder indexes an image classification dataset laid out as
// root/<class>/<image>, prints a summary and optionally computes the
// per-channel mean and standard deviation used to configure normalization.
package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/afero"
	"gorgonia.org/tensor"
	"k8s.io/klog/v2"

	"github.com/nvr-ai/go-imagefolder/config"
	"github.com/nvr-ai/go-imagefolder/dataset"
	"github.com/nvr-ai/go-imagefolder/stats"
)

func main() {
	klog.InitFlags(nil)
	var (
		root         = flag.String("root", "", "Dataset root directory (overrides the config file)")
		configFile   = flag.String("config", "", "Path to a YAML or JSON dataset configuration file")
		extensions   = flag.String("ext", "", "Comma-separated file extensions to index, e.g. .png,.jpg")
		resize       = flag.String("resize", "", "Resize images at load time, WIDTHxHEIGHT")
		computeStats = flag.Bool("stats", false, "Compute per-channel mean and std over the whole dataset")
		list         = flag.Int("list", 0, "Print the first N samples of the index")
	)
	flag.Parse()
	defer klog.Flush()

	fs := afero.NewOsFs()
	cfg, err := loadConfig(fs, *configFile, *root, *extensions, *resize)
	if err != nil {
		klog.Exitf("Failed to load config: %v", err)
	}

	args, err := cfg.DatasetArgs(fs)
	if err != nil {
		klog.Exitf("Invalid configuration: %v", err)
	}

	ds, err := dataset.NewImageFolder(args)
	if err != nil {
		klog.Exitf("Failed to index dataset: %v", err)
	}
	fmt.Print(ds)

	if *list > 0 {
		printSamples(ds, *list)
	}

	if *computeStats {
		mean, std, err := datasetMeanStd(ds)
		if err != nil {
			klog.Exitf("Failed to compute statistics: %v", err)
		}
		fmt.Printf("mean: %v\n", mean)
		fmt.Printf("std:  %v\n", std)
	}
}

// loadConfig reads the optional config file and applies command line overrides.
func loadConfig(fs afero.Fs, path, root, extensions, resize string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = config.Load(fs, path); err != nil {
			return nil, err
		}
	}
	if root != "" {
		cfg.Root = root
	}
	if extensions != "" {
		cfg.Extensions = nil
		for _, ext := range strings.Split(extensions, ",") {
			ext = strings.TrimSpace(ext)
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			cfg.Extensions = append(cfg.Extensions, ext)
		}
	}
	if resize != "" {
		size, err := parseSize(resize)
		if err != nil {
			return nil, err
		}
		cfg.Resize = size
	}
	return cfg, nil
}

func parseSize(s string) (config.Size, error) {
	var size config.Size
	if _, err := fmt.Sscanf(strings.ToLower(s), "%dx%d", &size.Width, &size.Height); err != nil {
		return config.Size{}, errors.Wrapf(err, "invalid size %q, expected WIDTHxHEIGHT", s)
	}
	return size, nil
}

func printSamples(ds *dataset.ImageFolder, n int) {
	classes := ds.Classes()
	if n > ds.Len() {
		n = ds.Len()
	}
	for i := 0; i < n; i++ {
		sample, err := ds.Sample(i)
		if err != nil {
			klog.Exitf("Failed to read sample %d: %v", i, err)
		}
		fmt.Printf("%6d  %-12s %s\n", i, classes[sample.Label], sample.Path)
	}
}

// datasetMeanStd loads every sample, with the configured transform applied,
// and computes per-channel statistics. All images must share one shape.
func datasetMeanStd(ds *dataset.ImageFolder) ([]float64, []float64, error) {
	if ds.Len() == 0 {
		return nil, nil, errors.New("dataset is empty")
	}

	bar := progressbar.Default(int64(ds.Len()), "loading images")
	loaded := make([]*tensor.Dense, 0, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		item, err := ds.Get(i)
		if err != nil {
			return nil, nil, err
		}
		loaded = append(loaded, item.Image)
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	batch, err := stats.Stack(loaded)
	if err != nil {
		return nil, nil, errors.Wrap(err, "images must share one shape, use -resize")
	}
	klog.V(1).Infof("computing statistics over batch of shape %v", batch.Shape())
	return stats.ComputeMeanStd(batch)
}

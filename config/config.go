// Package config loads dataset and transform pipeline settings from YAML or
// JSON files.
package config

import (
	"bytes"
	"image"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-imagefolder/dataset"
	"github.com/nvr-ai/go-imagefolder/images"
	"github.com/nvr-ai/go-imagefolder/transforms"
)

// Transform type names accepted in TransformConfig.Type.
const (
	TransformRescale   = "rescale"
	TransformNormalize = "normalize"
)

// Size is a width and height in pixels.
type Size struct {
	Width  int `json:"width"  yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

func (s Size) point() image.Point {
	return image.Point{X: s.Width, Y: s.Height}
}

// TransformConfig describes one step of the transform pipeline.
type TransformConfig struct {
	// Type is "rescale" or "normalize".
	Type string `json:"type" yaml:"type"`
	// Range is the target [min, max] of a rescale (default [0, 1]).
	Range []float64 `json:"range,omitempty" yaml:"range,omitempty"`
	// OldRange is the source [min, max] of a rescale (default [0, 255]).
	OldRange []float64 `json:"old_range,omitempty" yaml:"old_range,omitempty"`
	// Mean of a normalize, one value or one per channel.
	Mean []float64 `json:"mean,omitempty" yaml:"mean,omitempty"`
	// Std of a normalize, same length as Mean.
	Std []float64 `json:"std,omitempty" yaml:"std,omitempty"`
}

// Config describes a dataset and how its images are loaded and transformed.
type Config struct {
	// Root is the dataset root directory.
	Root string `json:"root" yaml:"root"`
	// Extensions optionally restricts which files are samples.
	Extensions []string `json:"extensions,omitempty" yaml:"extensions,omitempty"`
	// Resize resizes images at load time; zero disables it.
	Resize Size `json:"resize" yaml:"resize"`
	// CenterCrop crops images at load time, before Resize; zero disables it.
	CenterCrop Size `json:"center_crop" yaml:"center_crop"`
	// Filter is the resampling filter name used by Resize.
	Filter string `json:"filter,omitempty" yaml:"filter,omitempty"`
	// Transforms is applied in order to every loaded image.
	Transforms []TransformConfig `json:"transforms,omitempty" yaml:"transforms,omitempty"`
}

// DefaultConfig returns a configuration with no load-time geometry and no transforms.
//
// @example
// cfg := DefaultConfig()
// cfg.Root = "data/train"
func DefaultConfig() *Config {
	return &Config{
		Filter: string(images.FilterLanczos3),
	}
}

// Load reads a configuration file. Fields missing from the file keep their
// DefaultConfig values; unknown fields are an error.
//
// Arguments:
// - fs: Filesystem to read from.
// - path: Path to a YAML or JSON file.
//
// Returns:
// - *Config: The parsed configuration. It is not validated.
// - error: Error if the file cannot be read or parsed.
func Load(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrapf(err, "failed to parse config file %q", path)
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(fs afero.Fs, path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}
	return nil
}

// Validate checks that the configuration describes a usable dataset.
func (c *Config) Validate() error {
	_, _, err := c.build()
	return err
}

// build checks the configuration and builds its load options and transform.
func (c *Config) build() (images.LoadOptions, transforms.Transform, error) {
	if c.Root == "" {
		return images.LoadOptions{}, nil, errors.New("root is required")
	}
	opts, err := c.LoadOptions()
	if err != nil {
		return images.LoadOptions{}, nil, err
	}
	transform, err := c.BuildTransform()
	if err != nil {
		return images.LoadOptions{}, nil, err
	}
	return opts, transform, nil
}

// LoadOptions returns the load-time geometry as images.LoadOptions.
func (c *Config) LoadOptions() (images.LoadOptions, error) {
	filter, err := images.ParseFilter(c.Filter)
	if err != nil {
		return images.LoadOptions{}, err
	}
	opts := images.LoadOptions{
		CenterCrop: c.CenterCrop.point(),
		Resize:     c.Resize.point(),
		Filter:     filter,
	}
	if err := opts.Validate(); err != nil {
		return images.LoadOptions{}, err
	}
	return opts, nil
}

// BuildTransform builds the configured transform pipeline. It returns nil
// when no transforms are configured.
func (c *Config) BuildTransform() (transforms.Transform, error) {
	if len(c.Transforms) == 0 {
		return nil, nil
	}
	steps := make([]transforms.Transform, 0, len(c.Transforms))
	for i, tc := range c.Transforms {
		step, err := tc.Build()
		if err != nil {
			return nil, errors.Wrapf(err, "transforms[%d]", i)
		}
		steps = append(steps, step)
	}
	return transforms.NewCompose(steps...), nil
}

// Build creates the transform described by tc.
func (tc TransformConfig) Build() (transforms.Transform, error) {
	switch strings.ToLower(tc.Type) {
	case TransformRescale:
		newRange, err := parseRange(tc.Range, transforms.UnitRange)
		if err != nil {
			return nil, errors.Wrap(err, "range")
		}
		oldRange, err := parseRange(tc.OldRange, transforms.DefaultRange)
		if err != nil {
			return nil, errors.Wrap(err, "old_range")
		}
		return transforms.NewRescale(newRange, oldRange)
	case TransformNormalize:
		return transforms.NewNormalize(tc.Mean, tc.Std)
	default:
		return nil, errors.Errorf("unknown transform type %q", tc.Type)
	}
}

func parseRange(values []float64, fallback transforms.Range) (transforms.Range, error) {
	switch len(values) {
	case 0:
		return fallback, nil
	case 2:
		return transforms.Range{Min: values[0], Max: values[1]}, nil
	}
	return transforms.Range{}, errors.Errorf("expected [min, max], got %v", values)
}

// DatasetArgs converts the configuration into arguments for dataset.NewImageFolder.
//
// Arguments:
// - fs: Filesystem holding the dataset; nil selects the OS filesystem.
//
// Returns:
// - dataset.NewImageFolderArgs: The dataset arguments.
// - error: Error if the configuration is invalid.
func (c *Config) DatasetArgs(fs afero.Fs) (dataset.NewImageFolderArgs, error) {
	opts, transform, err := c.build()
	if err != nil {
		return dataset.NewImageFolderArgs{}, errors.Wrap(err, "invalid config")
	}
	return dataset.NewImageFolderArgs{
		Root:       c.Root,
		Fs:         fs,
		Transform:  transform,
		Extensions: c.Extensions,
		Load:       opts,
	}, nil
}
